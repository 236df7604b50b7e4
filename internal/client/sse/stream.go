package sse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/ragdesk/internal/common"
	"github.com/dmitrijs2005/ragdesk/internal/logging"
)

// Stream is the pull-style counterpart of Run. Recv returns events one at a
// time; Close abandons the stream at any point.
type Stream struct {
	body io.ReadCloser
	dec  *Decoder
	buf  []byte

	pending  []Event
	finished bool
	eof      bool

	mu     sync.Mutex
	closed bool
}

// NewStream takes ownership of body.
func NewStream(body io.ReadCloser, log logging.Logger) *Stream {
	return &Stream{body: body, dec: NewDecoder(log), buf: make([]byte, readSize)}
}

// Recv returns the next event. After the done event it returns io.EOF, on
// every later call as well. A read failure is returned wrapped in common.ErrNetworkFailure, and
// common.ErrStreamClosed once Close has been called. Cancelling ctx while
// Recv waits closes the stream.
func (s *Stream) Recv(ctx context.Context) (Event, error) {
	for {
		if s.eof {
			return Event{}, io.EOF
		}
		if s.isClosed() {
			return Event{}, common.ErrStreamClosed
		}
		if err := ctx.Err(); err != nil {
			_ = s.Close()
			return Event{}, err
		}
		if len(s.pending) > 0 {
			ev := s.pending[0]
			s.pending = s.pending[1:]
			return ev, nil
		}
		if s.finished {
			s.eof = true
			_ = s.Close()
			return Event{}, io.EOF
		}
		if err := s.fill(ctx); err != nil {
			return Event{}, err
		}
	}
}

// fill performs one read and queues what it decodes.
func (s *Stream) fill(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	n, err := s.body.Read(s.buf)
	stop()

	if n > 0 {
		s.pending = append(s.pending, s.dec.Feed(ctx, s.buf[:n])...)
		if s.dec.Done() {
			s.finished = true
		}
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		s.pending = append(s.pending, s.dec.Finish(ctx)...)
		s.finished = true
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case s.isClosed():
		return common.ErrStreamClosed
	default:
		s.finished = true
		_ = s.Close()
		return fmt.Errorf("%w: read stream: %w", common.ErrNetworkFailure, err)
	}
}

// Close releases the body. It is safe to call more than once and from
// another goroutine while Recv is blocked.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.body.Close()
}

func (s *Stream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
