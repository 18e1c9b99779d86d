// Package verdict combines the per-axis scores into an overall score and a
// BUY / MAYBE / PASS recommendation, and solves for the asking prices at
// which that recommendation would change.
package verdict

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/turtacn/carverdict/pkg/errors"
	"github.com/turtacn/carverdict/pkg/types/vehicle"
)

// Verdict is the final recommendation.
type Verdict string

const (
	VerdictBuy   Verdict = "BUY"
	VerdictMaybe Verdict = "MAYBE"
	VerdictPass  Verdict = "PASS"
)

const (
	// PlaceholderScore stands in for a missing sub-score.
	PlaceholderScore = 5.0

	confidenceComplete  = 0.85
	confidenceDefaulted = 0.60

	criticalPenalty = 3.0
	highPenalty     = 1.5
	mediumPenalty   = 0.5
	lowPenalty      = 0.2

	weightTolerance = 1e-6
)

// ─────────────────────────────────────────────────────────────────────────────
// Configuration
// ─────────────────────────────────────────────────────────────────────────────

// Weights are the relative contributions of each sub-score.  They must sum
// to 1.  When safety is unavailable its share is redistributed across the
// other three in proportion to their weights.
type Weights struct {
	Reliability float64 `json:"reliability" mapstructure:"reliability"`
	Longevity   float64 `json:"longevity" mapstructure:"longevity"`
	Price       float64 `json:"price" mapstructure:"price"`
	Safety      float64 `json:"safety" mapstructure:"safety"`
}

// DefaultWeights returns 0.30 / 0.30 / 0.25 / 0.15.
func DefaultWeights() Weights {
	return Weights{Reliability: 0.30, Longevity: 0.30, Price: 0.25, Safety: 0.15}
}

// Validate requires non-negative weights summing to 1 with a positive price
// weight.
func (w Weights) Validate() error {
	if w.Reliability < 0 || w.Longevity < 0 || w.Price <= 0 || w.Safety < 0 {
		return errors.New(errors.CodeInvalidWeights, "weights must be non-negative with a positive price weight")
	}
	sum := w.Reliability + w.Longevity + w.Price + w.Safety
	if math.Abs(sum-1) > weightTolerance {
		return errors.New(errors.CodeInvalidWeights, "weights must sum to 1").
			WithDetail(fmt.Sprintf("sum=%.4f", sum))
	}
	return nil
}

// effective returns the weights to apply given whether safety is available.
func (w Weights) effective(hasSafety bool) Weights {
	if hasSafety {
		return w
	}
	rest := w.Reliability + w.Longevity + w.Price
	if rest <= 0 {
		return Weights{Price: 1}
	}
	return Weights{
		Reliability: w.Reliability / rest,
		Longevity:   w.Longevity / rest,
		Price:       w.Price / rest,
	}
}

// Thresholds are the overall-score cut points.  Below Pass the verdict is
// PASS regardless of the other thresholds.
type Thresholds struct {
	Buy   float64 `json:"buy" mapstructure:"buy"`
	Maybe float64 `json:"maybe" mapstructure:"maybe"`
	Pass  float64 `json:"pass" mapstructure:"pass"`
}

// DefaultThresholds returns BUY ≥ 7.0, MAYBE ≥ 5.0, forced PASS < 3.0.
func DefaultThresholds() Thresholds {
	return Thresholds{Buy: 7.0, Maybe: 5.0, Pass: 3.0}
}

// Validate requires 1 ≤ Pass ≤ Maybe < Buy ≤ 10.
func (t Thresholds) Validate() error {
	if !(t.Pass >= 1 && t.Pass <= t.Maybe && t.Maybe < t.Buy && t.Buy <= 10) {
		return errors.New(errors.CodeConfigInvalid, "verdict thresholds must satisfy 1 <= pass <= maybe < buy <= 10").
			WithDetail(fmt.Sprintf("buy=%.1f maybe=%.1f pass=%.1f", t.Buy, t.Maybe, t.Pass))
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Results
// ─────────────────────────────────────────────────────────────────────────────

// Scores are the 1-10 sub-scores; nil means unavailable.
type Scores struct {
	Reliability *float64 `json:"reliability"`
	Longevity   *float64 `json:"longevity"`
	PriceValue  *float64 `json:"price_value"`
	Safety      *float64 `json:"safety"`
	Overall     *float64 `json:"overall"`
}

// Recommendation is the verdict with a confidence and a one-line summary.
type Recommendation struct {
	Verdict    Verdict `json:"verdict"`
	Confidence float64 `json:"confidence"`
	Summary    string  `json:"summary"`
}

// Result is the output of Scorer.Score.  Defaulted lists sub-scores that
// were replaced by the placeholder.
type Result struct {
	Scores         Scores         `json:"scores"`
	WeightedScore  float64        `json:"weighted_score"`
	Penalty        float64        `json:"penalty"`
	Defaulted      []string       `json:"defaulted,omitempty"`
	Recommendation Recommendation `json:"recommendation"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Scorer
// ─────────────────────────────────────────────────────────────────────────────

// Option configures a Scorer.
type Option func(*Scorer)

// WithWeights overrides the sub-score weights.  Invalid weights are ignored.
func WithWeights(w Weights) Option {
	return func(s *Scorer) {
		if w.Validate() == nil {
			s.weights = w
		}
	}
}

// WithThresholds overrides the verdict thresholds.  Invalid thresholds are
// ignored.
func WithThresholds(t Thresholds) Option {
	return func(s *Scorer) {
		if t.Validate() == nil {
			s.thresholds = t
		}
	}
}

// Scorer produces overall scores and verdicts.  It is stateless and safe for
// concurrent use.
type Scorer struct {
	weights    Weights
	thresholds Thresholds
}

// NewScorer returns a Scorer with the default weights and thresholds unless
// overridden.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{weights: DefaultWeights(), thresholds: DefaultThresholds()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Weights returns the configured weights.
func (s *Scorer) Weights() Weights { return s.weights }

// Thresholds returns the configured verdict thresholds.
func (s *Scorer) Thresholds() Thresholds { return s.thresholds }

// Score computes the overall score and recommendation.
func (s *Scorer) Score(in Scores, flags []vehicle.RedFlag) Result {
	parts := s.resolve(in)
	weighted := parts.withoutPrice + parts.weights.Price*parts.price
	penalty := RedFlagPenalty(flags)
	final := round1(math.Min(10, math.Max(1, weighted-penalty)))
	critical := HasCritical(flags)

	verdict := s.classify(final, critical)
	confidence := confidenceComplete
	if len(parts.defaulted) > 0 {
		confidence = confidenceDefaulted
	}

	out := in
	out.Overall = &final
	return Result{
		Scores:        out,
		WeightedScore: round2(weighted),
		Penalty:       penalty,
		Defaulted:     parts.defaulted,
		Recommendation: Recommendation{
			Verdict:    verdict,
			Confidence: confidence,
			Summary:    summarize(verdict, final, in, flags, parts.defaulted),
		},
	}
}

func (s *Scorer) classify(final float64, critical bool) Verdict {
	switch {
	case critical || final < s.thresholds.Pass:
		return VerdictPass
	case final >= s.thresholds.Buy:
		return VerdictBuy
	case final >= s.thresholds.Maybe:
		return VerdictMaybe
	default:
		return VerdictPass
	}
}

// components is the weighted decomposition shared by Score and the solver.
type components struct {
	weights      Weights
	withoutPrice float64
	price        float64
	defaulted    []string
}

func (s *Scorer) resolve(in Scores) components {
	safety, hasSafety := usable(in.Safety)
	w := s.weights.effective(hasSafety)

	var defaulted []string
	pick := func(name string, v *float64) float64 {
		if x, ok := usable(v); ok {
			return x
		}
		defaulted = append(defaulted, name)
		return PlaceholderScore
	}
	rel := pick("reliability", in.Reliability)
	lon := pick("longevity", in.Longevity)
	price := pick("price_value", in.PriceValue)

	base := w.Reliability*rel + w.Longevity*lon
	if hasSafety {
		base += w.Safety * safety
	}
	return components{weights: w, withoutPrice: base, price: price, defaulted: defaulted}
}

// RedFlagPenalty is 3.0 for any critical flag, 1.5 for any high flag, plus
// 0.5 per medium flag and 0.2 per low flag.
func RedFlagPenalty(flags []vehicle.RedFlag) float64 {
	var critical, high bool
	var penalty float64
	for _, f := range flags {
		switch f.Severity {
		case vehicle.FlagCritical:
			critical = true
		case vehicle.FlagHigh:
			high = true
		case vehicle.FlagMedium:
			penalty += mediumPenalty
		case vehicle.FlagLow:
			penalty += lowPenalty
		}
	}
	if critical {
		penalty += criticalPenalty
	}
	if high {
		penalty += highPenalty
	}
	return round2(penalty)
}

// HasCritical reports whether any flag is critical.
func HasCritical(flags []vehicle.RedFlag) bool {
	for _, f := range flags {
		if f.Severity == vehicle.FlagCritical {
			return true
		}
	}
	return false
}

func summarize(v Verdict, final float64, in Scores, flags []vehicle.RedFlag, defaulted []string) string {
	var sentences []string

	switch v {
	case VerdictBuy:
		sentences = append(sentences, fmt.Sprintf("Good purchase: overall score %.1f/10.", final))
	case VerdictMaybe:
		sentences = append(sentences, fmt.Sprintf("Worth considering with caution: overall score %.1f/10.", final))
	default:
		sentences = append(sentences, fmt.Sprintf("Not recommended: overall score %.1f/10.", final))
	}

	if HasCritical(flags) {
		var descs []string
		for _, f := range flags {
			if f.Severity == vehicle.FlagCritical && f.Description != "" {
				descs = append(descs, f.Description)
			}
		}
		msg := "Critical red flag present"
		if len(descs) > 0 {
			msg += ": " + strings.Join(descs, "; ")
		}
		sentences = append(sentences, msg+".")
	}

	if name, score, ok := weakest(in); ok && score < PlaceholderScore {
		sentences = append(sentences, fmt.Sprintf("Weakest area is %s (%.1f).", name, score))
	}

	if len(defaulted) > 0 {
		sentences = append(sentences, fmt.Sprintf("No data for %s; neutral scores were assumed.", strings.Join(defaulted, ", ")))
	}
	return strings.Join(sentences, " ")
}

func weakest(in Scores) (string, float64, bool) {
	type named struct {
		name  string
		score float64
	}
	var all []named
	for _, c := range []struct {
		name string
		v    *float64
	}{
		{"reliability", in.Reliability},
		{"longevity", in.Longevity},
		{"price value", in.PriceValue},
		{"safety", in.Safety},
	} {
		if x, ok := usable(c.v); ok {
			all = append(all, named{c.name, x})
		}
	}
	if len(all) == 0 {
		return "", 0, false
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].score < all[j].score })
	return all[0].name, all[0].score, true
}

// usable reports whether v holds a finite score, clamping it into [1,10].
func usable(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return math.Max(1, math.Min(10, *v)), true
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
