package sse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/dmitrijs2005/ragdesk/internal/common"
	"github.com/dmitrijs2005/ragdesk/internal/logging"
)

var (
	dataPrefix  = []byte("data:")
	eventPrefix = []byte("event:")
)

// Decoder turns arbitrary chunks of an event stream into Events. It keeps
// the incomplete trailing line between calls, so chunk boundaries may fall
// anywhere, including inside a multi-byte character.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	log  logging.Logger
	buf  []byte
	done bool
}

func NewDecoder(log logging.Logger) *Decoder {
	if log == nil {
		log = logging.Nop()
	}
	return &Decoder{log: log}
}

// Done reports whether a done event has been returned.
func (d *Decoder) Done() bool { return d.done }

// Feed consumes chunk and returns the events completed by it. Nothing is
// returned once a done event has been seen. ctx is only used for logging.
func (d *Decoder) Feed(ctx context.Context, chunk []byte) []Event {
	if d.done {
		return nil
	}
	d.buf = append(d.buf, chunk...)

	var events []Event
	for !d.done {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		line := d.buf[:i]
		d.buf = d.buf[i+1:]
		if ev, ok := d.line(ctx, line); ok {
			events = append(events, ev)
		}
	}
	if d.done {
		d.buf = nil
	} else {
		// Detach the fragment from the consumed prefix.
		d.buf = append([]byte(nil), d.buf...)
	}
	return events
}

// Finish is called at end of input. A trailing line without a newline is
// decoded, then a done event is synthesized unless one was already seen.
func (d *Decoder) Finish(ctx context.Context) []Event {
	if d.done {
		return nil
	}
	var events []Event
	if len(d.buf) > 0 {
		line := d.buf
		d.buf = nil
		if ev, ok := d.line(ctx, line); ok {
			events = append(events, ev)
		}
	}
	if !d.done {
		d.done = true
		events = append(events, Event{Kind: KindDone})
	}
	return events
}

func (d *Decoder) line(ctx context.Context, line []byte) (Event, bool) {
	line = bytes.TrimRight(line, "\r")
	if len(bytes.TrimSpace(line)) == 0 || bytes.HasPrefix(line, eventPrefix) {
		return Event{}, false
	}
	if !bytes.HasPrefix(line, dataPrefix) {
		// id:, retry: and ":" comments carry nothing we use.
		return Event{}, false
	}

	payload := bytes.TrimSpace(line[len(dataPrefix):])
	ev, err := classify(payload)
	if err != nil {
		d.log.Warn(ctx, "skipping stream frame", "error", err, "frame", truncate(payload, 200))
		return Event{}, false
	}
	if ev.Kind == KindDone {
		d.done = true
	}
	return ev, true
}

// classify decodes one data payload. Errors wrap common.ErrMalformedFrame.
func classify(payload []byte) (Event, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil || fields == nil {
		if err == nil {
			err = errors.New("not an object")
		}
		return Event{}, fmt.Errorf("%w: %w", common.ErrMalformedFrame, err)
	}
	has := func(keys ...string) bool {
		for _, k := range keys {
			v, ok := fields[k]
			if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
				return false
			}
		}
		return true
	}

	var (
		ev  Event
		err error
	)
	switch {
	case has("items", "hits"):
		ev.Kind, ev.Contexts = KindContexts, &ContextsEvent{}
		err = json.Unmarshal(payload, ev.Contexts)
	case has("raw", "steps"):
		ev.Kind, ev.Plan = KindPlan, &PlanEvent{}
		err = json.Unmarshal(payload, ev.Plan)
	case has("tool", "elapsed_ms"):
		ev.Kind, ev.Trace = KindTrace, &TraceEvent{}
		err = json.Unmarshal(payload, ev.Trace)
	case has("text"):
		ev.Kind, ev.Token = KindToken, &TokenEvent{}
		err = json.Unmarshal(payload, ev.Token)
	case has("message"):
		ev.Kind, ev.Error = KindError, &ErrorEvent{}
		err = json.Unmarshal(payload, ev.Error)
	case len(fields) == 0:
		ev.Kind = KindDone
	default:
		err = errors.New("unrecognised shape")
	}
	if err != nil {
		return Event{}, fmt.Errorf("%w: %w", common.ErrMalformedFrame, err)
	}
	return ev, nil
}

// truncate cuts b to at most n bytes without splitting a rune.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	for n > 0 && !utf8.RuneStart(b[n]) {
		n--
	}
	return string(b[:n]) + "..."
}
