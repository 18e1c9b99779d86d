package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/turtacn/carverdict/pkg/errors"
	"github.com/turtacn/carverdict/pkg/types/vehicle"
)

func TestAssessCmd_Text(t *testing.T) {
	out, err := runCLI(t, "assess", "--make", "Toyota", "--model", "Camry", "--year", "2012",
		"--mileage", "100000", "--price", "9000", "--stars", "5", "--red-flag", "low:minor door ding")
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	for _, want := range []string{"2012 Toyota Camry", "100,000 mi", "Verdict:", "Reliability", "Red flags", "[low] minor door ding", "ADDITIONAL", "Price thresholds"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAssessCmd_JSON(t *testing.T) {
	out, err := runCLI(t, "assess", "--make", "Toyota", "--model", "Camry", "--year", "2012",
		"--mileage", "100000", "--price", "9000", "--maintenance", "poor", "-o", "json")
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}

	var got struct {
		ID          string `json:"id"`
		Reliability struct {
			Score  float64 `json:"score"`
			Source string  `json:"source"`
		} `json:"reliability"`
		Lifespan struct {
			AdjustedLifespan int `json:"adjusted_lifespan"`
		} `json:"lifespan"`
		Result struct {
			Recommendation struct {
				Verdict string `json:"verdict"`
			} `json:"recommendation"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got.ID == "" {
		t.Error("assessment ID should be set")
	}
	if got.Reliability.Source != "database" || got.Reliability.Score != 8.5 {
		t.Errorf("unexpected reliability %+v", got.Reliability)
	}
	if got.Lifespan.AdjustedLifespan != 200000 {
		t.Errorf("poor maintenance should give 200,000, got %d", got.Lifespan.AdjustedLifespan)
	}
	switch got.Result.Recommendation.Verdict {
	case "BUY", "MAYBE", "PASS":
	default:
		t.Errorf("unexpected verdict %q", got.Result.Recommendation.Verdict)
	}
}

func TestAssessCmd_CriticalFlagIsPass(t *testing.T) {
	out, err := runCLI(t, "assess", "--make", "Toyota", "--model", "Camry", "--year", "2012",
		"--price", "4000", "--red-flag", "critical:flood damage", "-o", "json")
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	if !strings.Contains(out, `"verdict": "PASS"`) {
		t.Errorf("expected PASS:\n%s", out)
	}
}

func TestAssessCmd_ComplaintsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "complaints.yaml")
	body := `
- components: ENGINE
  crash: false
  fire: true
  numberOfInjuries: 0
  numberOfDeaths: 0
- components: BRAKES
  crash: true
  fire: false
  numberOfInjuries: 1
  numberOfDeaths: 0
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "assess", "--make", "Lada", "--model", "Niva", "--year", "2016",
		"--complaints-file", path, "-o", "json")
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	if !strings.Contains(out, `"source": "nhtsa_derived"`) {
		t.Errorf("complaints should derive the reliability score:\n%s", out)
	}
}

func TestAssessCmd_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code errors.ErrorCode
	}{
		{"bad red flag", []string{"--red-flag", "scary:bald tires"}, errors.CodeInvalidParam},
		{"negative mileage", []string{"--mileage=-10"}, errors.CodeInvalidMileage},
		{"zero price", []string{"--price", "0"}, errors.CodeInvalidPrice},
		{"missing complaints file", []string{"--complaints-file", "/nonexistent.yaml"}, errors.CodeInvalidParam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"assess", "--make", "Toyota", "--model", "Camry", "--year", "2012"}, tt.args...)
			_, err := runCLI(t, args...)
			if errors.GetCode(err) != tt.code {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestAssessCmd_MissingRequiredFlag(t *testing.T) {
	if _, err := runCLI(t, "assess", "--make", "Toyota"); err == nil {
		t.Error("expected error for missing required flags")
	}
}

func TestParseRedFlags(t *testing.T) {
	got, err := parseRedFlags([]string{"HIGH: rebuilt title", "low"})
	if err != nil {
		t.Fatal(err)
	}
	want := []vehicle.RedFlag{
		{Severity: vehicle.FlagHigh, Description: "rebuilt title"},
		{Severity: vehicle.FlagLow, Description: ""},
	}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %+v, want %+v", got, want)
	}
}
