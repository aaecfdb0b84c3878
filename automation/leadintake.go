package automation

import (
	"context"
	"fmt"
	"strings"

	"github.com/omnirevenue/agent/core"
)

// Enricher resolves company, role, and profile data for a lead email.
type Enricher interface {
	Enrich(ctx context.Context, email string) (core.LeadEnrichment, error)
}

// CRMWriter records a lead in the external CRM and returns the record id.
type CRMWriter interface {
	RecordLead(ctx context.Context, lead core.Lead) (string, error)
}

// IssueCreator opens a follow-up issue in the work tracker.
type IssueCreator interface {
	CreateIssue(ctx context.Context, title, description string) (string, error)
}

// enterpriseSignals are role substrings that warrant a sales follow-up.
var enterpriseSignals = []string{"director", "vp", "head of", "chief", "ceo", "cto", "cmo"}

// LeadIntake runs the lead capture playbook: upsert with tag merge,
// enrichment, CRM record, and a tracker issue for enterprise leads. Only
// the upsert is load bearing; every downstream step degrades to a logged
// warning so one misconfigured integration does not drop the lead.
type LeadIntake struct {
	leads    core.LeadStore
	enricher Enricher
	crm      CRMWriter
	issues   IssueCreator
	recorder *Recorder
	logger   core.Logger
}

type LeadIntakeConfig struct {
	Leads    core.LeadStore
	Enricher Enricher
	CRM      CRMWriter
	Issues   IssueCreator
	Recorder *Recorder
	Logger   core.Logger
}

func NewLeadIntake(cfg LeadIntakeConfig) (*LeadIntake, error) {
	if cfg.Leads == nil {
		return nil, fmt.Errorf("automation: lead store is required")
	}
	return &LeadIntake{
		leads:    cfg.Leads,
		enricher: cfg.Enricher,
		crm:      cfg.CRM,
		issues:   cfg.Issues,
		recorder: cfg.Recorder,
		logger:   cfg.Logger,
	}, nil
}

type LeadIntakeResult struct {
	Lead          core.Lead
	CRMRecordID   string
	LinearIssueID string
}

func (l *LeadIntake) Process(ctx context.Context, in core.UpsertLeadInput) (LeadIntakeResult, error) {
	if l == nil || l.leads == nil {
		return LeadIntakeResult{}, fmt.Errorf("automation: lead intake is not configured")
	}
	if strings.TrimSpace(in.Email) == "" {
		return LeadIntakeResult{}, fmt.Errorf("automation: lead email is required")
	}
	if strings.TrimSpace(in.Source) == "" {
		in.Source = "Manual"
	}

	run := l.recorder.Begin(AutomationLeadIntake, "Lead Intake", map[string]any{
		"email":  in.Email,
		"source": in.Source,
	})

	lead, err := l.leads.Upsert(ctx, in)
	if err != nil {
		run.Fail(ctx, err)
		return LeadIntakeResult{}, fmt.Errorf("automation: upsert lead %s: %w", in.Email, err)
	}

	result := LeadIntakeResult{Lead: lead}
	executionData := map[string]any{"lead_id": lead.ID}

	if l.enricher != nil {
		enrichment, err := l.enricher.Enrich(ctx, lead.Email)
		if err != nil {
			l.warn(ctx, "lead enrichment failed", map[string]any{"lead_id": lead.ID, "error": err.Error()})
		} else if enrichment != (core.LeadEnrichment{}) {
			enriched, err := l.leads.ApplyEnrichment(ctx, lead.ID, enrichment)
			if err != nil {
				l.warn(ctx, "applying enrichment failed", map[string]any{"lead_id": lead.ID, "error": err.Error()})
			} else {
				lead = enriched
				result.Lead = enriched
				executionData["enrichment_company"] = enrichment.Company
				executionData["enrichment_role"] = enrichment.Role
			}
		}
	}

	if l.crm != nil {
		recordID, err := l.crm.RecordLead(ctx, lead)
		if err != nil {
			l.warn(ctx, "crm record creation failed", map[string]any{"lead_id": lead.ID, "error": err.Error()})
		} else {
			result.CRMRecordID = recordID
			executionData["notion_page_id"] = recordID
		}
	}

	if l.issues != nil && isEnterpriseRole(lead.Role) {
		issueID, err := l.issues.CreateIssue(ctx, followUpTitle(lead), followUpDescription(lead))
		if err != nil {
			l.warn(ctx, "follow-up issue creation failed", map[string]any{"lead_id": lead.ID, "error": err.Error()})
		} else {
			result.LinearIssueID = issueID
			executionData["linear_issue_id"] = issueID
		}
	}

	run.Complete(ctx, executionData)
	return result, nil
}

func isEnterpriseRole(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return false
	}
	for _, signal := range enterpriseSignals {
		if strings.Contains(role, signal) {
			return true
		}
	}
	return false
}

func followUpTitle(lead core.Lead) string {
	name := strings.TrimSpace(lead.Name)
	if name == "" {
		name = lead.Email
	}
	if company := strings.TrimSpace(lead.Company); company != "" {
		return fmt.Sprintf("Follow up with %s - %s", name, company)
	}
	return fmt.Sprintf("Follow up with %s", name)
}

func followUpDescription(lead core.Lead) string {
	var b strings.Builder
	b.WriteString("Enterprise lead detected:\n\n")
	fmt.Fprintf(&b, "Email: %s\n", lead.Email)
	fmt.Fprintf(&b, "Role: %s\n", lead.Role)
	fmt.Fprintf(&b, "Company: %s\n", lead.Company)
	fmt.Fprintf(&b, "LinkedIn: %s\n\n", lead.LinkedIn)
	fmt.Fprintf(&b, "Source: %s\n", lead.Source)
	if lead.UTMCampaign != "" {
		fmt.Fprintf(&b, "UTM Campaign: %s\n", lead.UTMCampaign)
	}
	return b.String()
}

func (l *LeadIntake) warn(ctx context.Context, message string, fields map[string]any) {
	if l == nil || l.logger == nil {
		return
	}
	logger := l.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(core.FieldsLogger); ok {
		logger = fieldsLogger.WithFields(fields)
	}
	logger.Warn(message)
}
