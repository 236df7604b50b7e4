package sse

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/ragdesk/internal/common"
	"github.com/dmitrijs2005/ragdesk/internal/logging"
)

const readSize = 4 << 10

// Run reads r to the end and pushes every decoded event to cb on the
// calling goroutine. Exactly one OnDone is delivered for a stream that
// ends normally, whether or not the server sent {}.
//
// A read failure is reported once through OnError and returned wrapped in
// common.ErrNetworkFailure. If ctx is cancelled Run returns ctx.Err() and
// makes no further callbacks; a blocked Read is only interrupted when r is
// tied to ctx, as HTTP response bodies are.
func Run(ctx context.Context, r io.Reader, cb Callbacks, log logging.Logger) error {
	dec := NewDecoder(log)
	buf := make([]byte, readSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			for _, ev := range dec.Feed(ctx, buf[:n]) {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				cb.dispatch(ev)
			}
			if dec.Done() {
				return nil
			}
		}

		switch {
		case readErr == nil:
		case errors.Is(readErr, io.EOF):
			if ctx.Err() != nil {
				return ctx.Err()
			}
			for _, ev := range dec.Finish(ctx) {
				cb.dispatch(ev)
			}
			return nil
		default:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			cb.dispatch(Event{Kind: KindError, Error: &ErrorEvent{Message: readErr.Error()}})
			return fmt.Errorf("%w: read stream: %w", common.ErrNetworkFailure, readErr)
		}
	}
}
