// Package sse decodes the server-sent event streams of /rag/query and
// /agent/act.
//
// The server does not name its events in a way the client relies on. Each
// "data:" line carries a JSON object whose shape tells what it is:
//
//	{"items": [...], "hits": n}       contexts
//	{"raw": "...", "steps": [...]}    plan
//	{"tool": "...", "elapsed_ms": n}  trace
//	{"text": "..."}                   token
//	{"message": "..."}                error
//	{}                                done
//
// Shapes are tried in that order and the first match wins. A field whose
// value is JSON null counts as missing. Lines that are not valid JSON, or
// objects that match no shape, are logged and skipped.
package sse

import "github.com/dmitrijs2005/ragdesk/internal/client/models"

// Kind tags an Event.
type Kind string

const (
	KindContexts Kind = "contexts"
	KindPlan     Kind = "plan"
	KindTrace    Kind = "trace"
	KindToken    Kind = "token"
	KindError    Kind = "error"
	KindDone     Kind = "done"
)

// ContextsEvent carries the retrieved chunks before the answer starts.
type ContextsEvent struct {
	Items []models.RagContext `json:"items"`
	Hits  int                 `json:"hits"`
}

// PlanEvent is the agent's plan: the model's raw output and the parsed steps.
type PlanEvent struct {
	Raw   string            `json:"raw"`
	Steps []models.PlanStep `json:"steps"`
}

// TraceEvent reports one finished tool call.
type TraceEvent = models.AgentTrace

// TokenEvent is an increment of answer text.
type TokenEvent struct {
	Text string `json:"text"`
}

// ErrorEvent is an error reported in-band by the server, or the read
// failure that ended the stream.
type ErrorEvent struct {
	Message string `json:"message"`
}

// Event is one decoded frame. Only the field matching Kind is set.
type Event struct {
	Kind     Kind
	Contexts *ContextsEvent
	Plan     *PlanEvent
	Trace    *TraceEvent
	Token    *TokenEvent
	Error    *ErrorEvent
}

// Callbacks receive events pushed by Run. Nil callbacks are skipped.
type Callbacks struct {
	OnContexts func(ContextsEvent)
	OnPlan     func(PlanEvent)
	OnTrace    func(TraceEvent)
	OnToken    func(TokenEvent)
	OnError    func(ErrorEvent)
	OnDone     func()
}

func (cb Callbacks) dispatch(ev Event) {
	switch ev.Kind {
	case KindContexts:
		if cb.OnContexts != nil {
			cb.OnContexts(*ev.Contexts)
		}
	case KindPlan:
		if cb.OnPlan != nil {
			cb.OnPlan(*ev.Plan)
		}
	case KindTrace:
		if cb.OnTrace != nil {
			cb.OnTrace(*ev.Trace)
		}
	case KindToken:
		if cb.OnToken != nil {
			cb.OnToken(*ev.Token)
		}
	case KindError:
		if cb.OnError != nil {
			cb.OnError(*ev.Error)
		}
	case KindDone:
		if cb.OnDone != nil {
			cb.OnDone()
		}
	}
}
