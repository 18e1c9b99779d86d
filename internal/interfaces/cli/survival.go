package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/carverdict/internal/application/assessment"
)

// NewSurvivalCmd creates the survival command.
func NewSurvivalCmd() *cobra.Command {
	var (
		id      identityFlags
		factors factorFlags
	)

	cmd := &cobra.Command{
		Use:     "survival",
		Short:   "Show the probability of reaching future mileage milestones",
		Example: `  carverdict survival --make Toyota --model Camry --year 2012 --mileage 140000 --maintenance good --climate rust_belt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			result, err := cliCtx.Service.AnalyzeSurvival(ctx, &assessment.SurvivalRequest{
				Vehicle: id.identity(),
				Mileage: id.mileage,
				Factors: factors.factors(),
			})
			if err != nil {
				return err
			}
			return PrintResult(cmd, survivalView{result})
		},
	}

	fs := cmd.Flags()
	id.register(fs)
	factors.register(fs)
	_ = cmd.MarkFlagRequired("make")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}
