package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[FulfillOrderMessage] = (*FulfillOrderCommand)(nil)
	_ gocmd.Commander[UpsertLeadMessage]   = (*UpsertLeadCommand)(nil)
	_ gocmd.Commander[RecomputeKpiMessage] = (*RecomputeKpiCommand)(nil)
	_ gocmd.Commander[RunBriefingMessage]  = (*RunBriefingCommand)(nil)
)
