package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	gocmd "github.com/goliatone/go-command"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/spf13/cobra"

	"github.com/omnirevenue/agent/automation"
	"github.com/omnirevenue/agent/command"
	"github.com/omnirevenue/agent/core"
)

type leadFilePayload struct {
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Source      string   `json:"source"`
	Tags        []string `json:"tags"`
	UTMSource   string   `json:"utm_source"`
	UTMCampaign string   `json:"utm_campaign"`
	UTMMedium   string   `json:"utm_medium"`
	UTMTerm     string   `json:"utm_term"`
	UTMContent  string   `json:"utm_content"`
}

func leadIntakeCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "lead-intake",
		Short: "Run lead intake for a JSON payload file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(file) == "" {
				return fmt.Errorf("agent: --file is required")
			}
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("agent: read payload: %w", err)
			}
			var payload leadFilePayload
			if err := json.Unmarshal(raw, &payload); err != nil {
				return fmt.Errorf("agent: parse payload: %w", err)
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

			collector := gocmd.NewResult[automation.LeadIntakeResult]()
			runCtx := gocmd.ContextWithResult(ctx, collector)

			runner := command.NewUpsertLeadCommand(a.intake)
			err = runner.Execute(runCtx, command.UpsertLeadMessage{
				Input: core.UpsertLeadInput{
					Email:       payload.Email,
					Name:        payload.Name,
					Source:      payload.Source,
					Tags:        payload.Tags,
					UTMSource:   payload.UTMSource,
					UTMCampaign: payload.UTMCampaign,
					UTMMedium:   payload.UTMMedium,
					UTMTerm:     payload.UTMTerm,
					UTMContent:  payload.UTMContent,
				},
			})
			if err != nil {
				return err
			}

			result, _ := collector.Load()
			fmt.Fprintf(cmd.OutOrStdout(), "lead %s (%s)\n", result.Lead.ID, result.Lead.Email)
			if result.CRMRecordID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "crm record %s\n", result.CRMRecordID)
			}
			if result.LinearIssueID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "linear issue %s\n", result.LinearIssueID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to the lead JSON payload")

	return cmd
}
