package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/ragdesk/internal/client/models"
	"github.com/dmitrijs2005/ragdesk/internal/client/sse"
)

// Act runs the agent on goal, printing its plan and tool calls as they
// happen and the answer as it streams.
func (a *App) Act(ctx context.Context, goal string) error {
	printer := &streamPrinter{out: a.out}

	err := a.agentService.ActStream(ctx, models.AgentActRequest{Goal: goal}, sse.Callbacks{
		OnPlan: func(ev sse.PlanEvent) {
			fmt.Fprintln(a.out, "Plan:")
			for i, s := range ev.Steps {
				fmt.Fprintf(a.out, "  %d. %s\n", i+1, s.Tool)
			}
		},
		OnTrace: func(ev sse.TraceEvent) {
			fmt.Fprintf(a.out, "  ran %s in %.0fms\n", ev.Tool, ev.ElapsedMS)
		},
		OnToken: printer.token,
		OnError: printer.fail,
		OnDone:  printer.done,
	})
	return printer.result(err)
}
