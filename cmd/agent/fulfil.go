package main

import (
	"fmt"
	"strings"

	gocmd "github.com/goliatone/go-command"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/spf13/cobra"

	"github.com/omnirevenue/agent/command"
	"github.com/omnirevenue/agent/core"
)

func fulfilCmd() *cobra.Command {
	var orderID string
	var kind string

	cmd := &cobra.Command{
		Use:   "fulfil",
		Short: "Fulfil an order manually, outside the webhook flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(orderID) == "" {
				return fmt.Errorf("agent: --order-id is required")
			}

			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, core.Config{})
			if err != nil {
				return err
			}

			_, logger := glog.Resolve(cfg.ServiceName, nil, nil)
			logger = glog.Ensure(logger)

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			collector := gocmd.NewResult[core.Order]()
			runCtx := gocmd.ContextWithResult(ctx, collector)

			runner := command.NewFulfillOrderCommand(a.factory.OrderStore(), a.products, a.dispatcher)
			err = runner.Execute(runCtx, command.FulfillOrderMessage{
				OrderID: orderID,
				Kind:    core.FulfillmentKind(kind),
			})
			if err != nil {
				return err
			}

			order, _ := collector.Load()
			fmt.Fprintf(cmd.OutOrStdout(), "order %s fulfilled=%t\n", order.ID, order.Fulfilled)
			return nil
		},
	}

	cmd.Flags().StringVar(&orderID, "order-id", "", "order to fulfil")
	cmd.Flags().StringVar(&kind, "kind", "", "override the product's fulfillment kind (copykit or briefing)")

	return cmd
}
