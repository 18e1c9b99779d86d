package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/carverdict/internal/application/assessment"
	"github.com/turtacn/carverdict/pkg/types/vehicle"
)

// NewAssessCmd creates the assess command, which runs the full pipeline.
func NewAssessCmd() *cobra.Command {
	var (
		id             identityFlags
		factors        factorFlags
		price          float64
		seller         string
		complaintsFile string
		stars          int
		redFlags       []string
	)

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Assess a used vehicle and print a BUY / MAYBE / PASS verdict",
		Example: `  carverdict assess --make Toyota --model Camry --year 2015 --mileage 98000 --price 12500
  carverdict assess --make Ford --model Focus --year 2014 --mileage 70000 --transmission dct \
      --red-flag "high:transmission shudder on test drive" -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			flags, err := parseRedFlags(redFlags)
			if err != nil {
				return err
			}
			complaints, err := readComplaints(complaintsFile)
			if err != nil {
				return err
			}

			req := &assessment.Request{
				Vehicle:     id.identity(),
				Mileage:     id.mileage,
				AskingPrice: optionalFloat(cmd.Flags(), "price", price),
				Seller:      vehicle.ParseSellerType(seller),
				Factors:     factors.factors(),
				Complaints:  complaints,
				RedFlags:    flags,
			}
			if stars > 0 {
				req.SafetyRating = &vehicle.SafetyRating{Overall: stars}
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()
			result, err := cliCtx.Service.Assess(ctx, req)
			if err != nil {
				return err
			}
			return PrintResult(cmd, assessView{result})
		},
	}

	fs := cmd.Flags()
	id.register(fs)
	factors.register(fs)
	fs.Float64Var(&price, "price", 0, "asking price in dollars")
	fs.StringVar(&seller, "seller", "", "private or dealer")
	fs.StringVar(&complaintsFile, "complaints-file", "", "JSON or YAML file with safety-registry complaints")
	fs.IntVar(&stars, "stars", 0, "overall crash-test stars (1-5)")
	fs.StringArrayVar(&redFlags, "red-flag", nil, `listing red flag as "severity:description" (repeatable)`)
	_ = cmd.MarkFlagRequired("make")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}
