package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/carverdict/internal/application/assessment"
	"github.com/turtacn/carverdict/pkg/types/vehicle"
)

// NewPriceCmd creates the price command.
func NewPriceCmd() *cobra.Command {
	var (
		id     identityFlags
		price  float64
		seller string
	)

	cmd := &cobra.Command{
		Use:     "price",
		Short:   "Estimate a fair price range and grade an asking price",
		Example: `  carverdict price --make Honda --model "Civic EX" --year 2018 --mileage 60000 --price 15900 --seller dealer`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			result, err := cliCtx.Service.EstimatePrice(ctx, &assessment.PriceRequest{
				Vehicle:     id.identity(),
				Mileage:     id.mileage,
				AskingPrice: optionalFloat(cmd.Flags(), "price", price),
				Seller:      vehicle.ParseSellerType(seller),
			})
			if err != nil {
				return err
			}
			return PrintResult(cmd, priceView{result})
		},
	}

	fs := cmd.Flags()
	id.register(fs)
	fs.Float64Var(&price, "price", 0, "asking price in dollars")
	fs.StringVar(&seller, "seller", "", "private or dealer")
	_ = cmd.MarkFlagRequired("make")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}
