package main

import (
	"fmt"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/spf13/cobra"

	"github.com/omnirevenue/agent/command"
	"github.com/omnirevenue/agent/core"
)

func briefingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "briefing",
		Short: "Run the daily briefing pipeline once and exit",
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

			if a.briefing == nil {
				return fmt.Errorf("agent: briefing requires an OpenAI API key")
			}

			runner := command.NewRunBriefingCommand(a.briefing)
			return runner.Execute(ctx, command.RunBriefingMessage{})
		},
	}
}
