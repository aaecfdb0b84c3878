package main

import (
	"fmt"

	gocmd "github.com/goliatone/go-command"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/spf13/cobra"

	"github.com/omnirevenue/agent/command"
	"github.com/omnirevenue/agent/core"
)

func kpiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kpi-recompute",
		Short: "Recompute today's KPI row from the lead and order records",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			collector := gocmd.NewResult[core.KpiDaily]()
			runCtx := gocmd.ContextWithResult(ctx, collector)

			runner := command.NewRecomputeKpiCommand(a.kpi)
			if err := runner.Execute(runCtx, command.RecomputeKpiMessage{}); err != nil {
				return err
			}

			row, _ := collector.Load()
			fmt.Fprintf(cmd.OutOrStdout(), "%s leads=%d orders=%d gross=%.2f\n",
				row.Date.Format("2006-01-02"), row.Leads, row.Orders, row.Gross)
			return nil
		},
	}
}
