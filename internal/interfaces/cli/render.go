package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/turtacn/carverdict/internal/application/assessment"
	"github.com/turtacn/carverdict/internal/domain/pricing"
	"github.com/turtacn/carverdict/internal/domain/survival"
	"github.com/turtacn/carverdict/internal/domain/verdict"
	"github.com/turtacn/carverdict/pkg/types/vehicle"
)

type styles struct {
	title lipgloss.Style
	label lipgloss.Style
	dim   lipgloss.Style
	good  lipgloss.Style
	warn  lipgloss.Style
	bad   lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{title: plain, label: plain, dim: plain, good: plain, warn: plain, bad: plain}
	}
	return styles{
		title: lipgloss.NewStyle().Bold(true),
		label: lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		dim:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		good:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		bad:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
}

func (st styles) verdict(v verdict.Verdict) lipgloss.Style {
	switch v {
	case verdict.VerdictBuy:
		return st.good
	case verdict.VerdictMaybe:
		return st.warn
	default:
		return st.bad
	}
}

func (st styles) risk(r survival.RiskLevel) lipgloss.Style {
	switch r {
	case survival.RiskSafe:
		return st.good
	case survival.RiskModerate:
		return st.warn
	default:
		return st.bad
	}
}

func (st styles) flag(s vehicle.FlagSeverity) lipgloss.Style {
	switch s {
	case vehicle.FlagCritical, vehicle.FlagHigh:
		return st.bad
	case vehicle.FlagMedium:
		return st.warn
	default:
		return st.dim
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Views
// ─────────────────────────────────────────────────────────────────────────────

type assessView struct{ *assessment.Assessment }

func (a assessView) renderText(w io.Writer, st styles) {
	rec := a.Result.Recommendation
	fmt.Fprintf(w, "%s  %s\n", st.title.Render(a.Vehicle.String()), st.dim.Render(miles(a.Mileage)))
	overall := "--"
	if a.Result.Scores.Overall != nil {
		overall = fmt.Sprintf("%.1f/10", *a.Result.Scores.Overall)
	}
	fmt.Fprintf(w, "%s %s  overall %s  confidence %.0f%%\n",
		st.label.Render("Verdict:"), st.verdict(rec.Verdict).Render(string(rec.Verdict)), overall, rec.Confidence*100)
	fmt.Fprintln(w, rec.Summary)

	fmt.Fprintln(w)
	fmt.Fprintln(w, st.title.Render("Scores"))
	s := a.Result.Scores
	fmt.Fprintf(w, "  %-12s %s  %s\n", "Reliability", score(s.Reliability),
		st.dim.Render(fmt.Sprintf("%s, %s confidence", a.Reliability.Source.Kind(), a.Reliability.Confidence)))
	fmt.Fprintf(w, "  %-12s %s  %s\n", "Longevity", score(s.Longevity),
		st.dim.Render(fmt.Sprintf("expected life %s, %s confidence", miles(a.Lifespan.AdjustedLifespan), a.Survival.ModelConfidence)))
	fair := fmt.Sprintf("fair %s-%s", dollars(a.FairPrice.Low), dollars(a.FairPrice.High))
	if a.PriceScore != nil {
		fair = fmt.Sprintf("%s, %s", a.PriceScore.DealQuality, fair)
	}
	fmt.Fprintf(w, "  %-12s %s  %s\n", "Price value", score(s.PriceValue), st.dim.Render(fair))
	fmt.Fprintf(w, "  %-12s %s\n", "Safety", score(s.Safety))

	if len(a.RedFlags) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, st.title.Render("Red flags"))
		for _, f := range a.RedFlags {
			fmt.Fprintf(w, "  %s %s\n", st.flag(f.Severity).Render("["+string(f.Severity)+"]"), f.Description)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, st.title.Render("Survival"))
	renderSurvival(w, st, a.Survival)

	fmt.Fprintln(w)
	fmt.Fprintln(w, st.title.Render("Price thresholds"))
	renderThresholds(w, st, a.Thresholds)
}

type priceView struct{ *assessment.PriceResult }

func (p priceView) renderText(w io.Writer, st styles) {
	fp := p.FairPrice
	fmt.Fprintf(w, "%s  %s\n", st.title.Render(p.Vehicle.String()), st.dim.Render(miles(p.Mileage)))
	fmt.Fprintf(w, "%s %s - %s  (midpoint %s)\n", st.label.Render("Fair price:"), dollars(fp.Low), dollars(fp.High), dollars(fp.Midpoint))
	msrp := dollars(fp.MSRP)
	if !fp.MSRPMatched {
		msrp += " (default)"
	}
	fmt.Fprintln(w, st.dim.Render(fmt.Sprintf("MSRP %s, %s, %d years, retained %.0f%%, mileage %+.1f%%",
		msrp, fp.Category, fp.AgeYears, fp.RetainedFraction*100, fp.MileageAdjustment*100)))
	if p.PriceScore != nil {
		fmt.Fprintf(w, "%s %.1f/10  %s  (%.0f%% of fair low)\n",
			st.label.Render("Price score:"), p.PriceScore.Score, dealStyle(st, p.PriceScore.DealQuality).Render(string(p.PriceScore.DealQuality)), p.PriceScore.PercentOfFairLow)
	}
}

type survivalView struct{ *assessment.SurvivalResult }

func (s survivalView) renderText(w io.Writer, st styles) {
	fmt.Fprintf(w, "%s  %s\n", st.title.Render(s.Vehicle.String()), st.dim.Render(miles(s.Mileage)))
	fmt.Fprintf(w, "%s %s  (catalog %s, multiplier %.2f, %s confidence)\n",
		st.label.Render("Expected life:"), miles(s.Lifespan.AdjustedLifespan), miles(s.YearLifespan.AdjustedLifespan),
		s.Lifespan.TotalMultiplier, s.Lifespan.Confidence)
	for _, f := range s.Lifespan.Factors {
		fmt.Fprintln(w, st.dim.Render(fmt.Sprintf("  %s=%s x%.2f", f.Category, f.Value, f.Multiplier)))
	}
	fmt.Fprintln(w)
	renderSurvival(w, st, s.Survival)
}

type thresholdView struct{ *verdict.PriceThresholds }

func (t thresholdView) renderText(w io.Writer, st styles) {
	renderThresholds(w, st, *t.PriceThresholds)
}

func renderSurvival(w io.Writer, st styles, a survival.Analysis) {
	rows := make([][]string, 0, len(a.Milestones))
	for _, m := range a.Milestones {
		rows = append(rows, []string{
			"+" + miles(m.AdditionalMiles),
			miles(m.TotalMiles),
			fmt.Sprintf("%.1f%%", m.Probability*100),
			st.risk(m.RiskLevel).Render(string(m.RiskLevel)),
		})
	}
	fmt.Fprint(w, indent(FormatTable([]string{"ADDITIONAL", "TOTAL", "SURVIVAL", "RISK"}, rows)))
	fmt.Fprintf(w, "  Expected additional: %s (range %s - %s)\n",
		miles(a.ExpectedAdditionalMiles), miles(a.ConfidenceRange.Low), miles(a.ConfidenceRange.High))
	for _, warning := range a.Warnings {
		fmt.Fprintf(w, "  %s %s\n", st.warn.Render("!"), warning)
	}
}

func renderThresholds(w io.Writer, st styles, t verdict.PriceThresholds) {
	fmt.Fprintf(w, "  %-8s %s\n", "Current", st.verdict(t.CurrentVerdict).Render(string(t.CurrentVerdict)))
	fmt.Fprintf(w, "  %-8s %s\n", "BUY", threshold(t.BuyThreshold))
	fmt.Fprintf(w, "  %-8s %s\n", "MAYBE", threshold(t.MaybeThreshold))
	fmt.Fprintf(w, "  %s\n", t.Impact)
}

func dealStyle(st styles, q pricing.DealQuality) lipgloss.Style {
	switch q {
	case pricing.DealGreat, pricing.DealGood:
		return st.good
	case pricing.DealFair:
		return st.warn
	case pricing.DealUnknown:
		return st.dim
	default:
		return st.bad
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Formatting helpers
// ─────────────────────────────────────────────────────────────────────────────

func score(v *float64) string {
	if v == nil {
		return " -- "
	}
	return fmt.Sprintf("%4.1f", *v)
}

func threshold(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return "at or below " + dollars(int(*v))
}

func miles(n int) string { return thousands(n) + " mi" }

func dollars(n int) string {
	if n < 0 {
		return "-$" + thousands(-n)
	}
	return "$" + thousands(n)
}

func thousands(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var sb strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	if neg {
		return "-" + sb.String()
	}
	return sb.String()
}

func indent(s string) string {
	lines := strings.SplitAfter(s, "\n")
	var sb strings.Builder
	for _, l := range lines {
		if l != "" {
			sb.WriteString("  " + l)
		}
	}
	return sb.String()
}
