// Package automation implements the operational playbooks that run outside
// the webhook request path: lead intake, the daily briefing pipeline, and
// KPI recomputation. Every run is recorded in the append-only automation
// log with its trigger, outcome, and duration.
package automation
