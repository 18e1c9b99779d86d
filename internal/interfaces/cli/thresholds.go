package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/carverdict/internal/application/assessment"
	"github.com/turtacn/carverdict/internal/domain/verdict"
)

// NewThresholdsCmd creates the thresholds command.  Sub-scores that are not
// given count as missing.
func NewThresholdsCmd() *cobra.Command {
	var (
		reliability float64
		longevity   float64
		priceValue  float64
		safety      float64
		fairLow     float64
		fairHigh    float64
		asking      float64
		redFlags    []string
	)

	cmd := &cobra.Command{
		Use:     "thresholds",
		Short:   "Solve the asking prices at which the verdict becomes BUY or MAYBE",
		Example: `  carverdict thresholds --reliability 8 --longevity 8 --price-value 5.7 --fair-low 10000 --fair-high 12000 --asking 12500`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			flags, err := parseRedFlags(redFlags)
			if err != nil {
				return err
			}
			fs := cmd.Flags()
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			result, err := cliCtx.Service.Thresholds(ctx, &assessment.ThresholdRequest{
				Scores: verdict.Scores{
					Reliability: optionalFloat(fs, "reliability", reliability),
					Longevity:   optionalFloat(fs, "longevity", longevity),
					PriceValue:  optionalFloat(fs, "price-value", priceValue),
					Safety:      optionalFloat(fs, "safety", safety),
				},
				RedFlags:    flags,
				FairLow:     fairLow,
				FairHigh:    fairHigh,
				AskingPrice: asking,
			})
			if err != nil {
				return err
			}
			return PrintResult(cmd, thresholdView{result})
		},
	}

	fs := cmd.Flags()
	fs.Float64Var(&reliability, "reliability", 0, "reliability score (1-10)")
	fs.Float64Var(&longevity, "longevity", 0, "longevity score (1-10)")
	fs.Float64Var(&priceValue, "price-value", 0, "current price score (1-10)")
	fs.Float64Var(&safety, "safety", 0, "safety score (1-10)")
	fs.Float64Var(&fairLow, "fair-low", 0, "low end of the fair price range [REQUIRED]")
	fs.Float64Var(&fairHigh, "fair-high", 0, "high end of the fair price range [REQUIRED]")
	fs.Float64Var(&asking, "asking", 0, "current asking price")
	fs.StringArrayVar(&redFlags, "red-flag", nil, `listing red flag as "severity:description" (repeatable)`)
	_ = cmd.MarkFlagRequired("fair-low")
	_ = cmd.MarkFlagRequired("fair-high")

	return cmd
}
