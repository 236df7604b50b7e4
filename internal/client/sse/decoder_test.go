package sse

import (
	"context"
	"testing"
	"unicode/utf8"

	"github.com/dmitrijs2005/ragdesk/internal/common"
	"github.com/dmitrijs2005/ragdesk/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(events []Event) []Kind {
	out := make([]Kind, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}

func TestDecoder_SplitAnywhere(t *testing.T) {
	input := "data: {\"text\":\"a\"}\n\ndata: {\"text\":\"b\"}\n\n"

	for split := 0; split <= len(input); split++ {
		d := NewDecoder(nil)
		ctx := context.Background()
		events := d.Feed(ctx, []byte(input[:split]))
		events = append(events, d.Feed(ctx, []byte(input[split:]))...)
		events = append(events, d.Finish(ctx)...)

		require.Equal(t, []Kind{KindToken, KindToken, KindDone}, kinds(events), "split at %d", split)
		assert.Equal(t, "a", events[0].Token.Text)
		assert.Equal(t, "b", events[1].Token.Text)
	}
}

func TestDecoder_MultiByteSplit(t *testing.T) {
	input := []byte("data: {\"text\":\"héllo\"}\n")
	d := NewDecoder(nil)
	ctx := context.Background()

	var events []Event
	for _, b := range input {
		events = append(events, d.Feed(ctx, []byte{b})...)
	}
	require.Len(t, events, 1)
	assert.Equal(t, "héllo", events[0].Token.Text)
}

func TestDecoder_MalformedThenDone(t *testing.T) {
	d := NewDecoder(nil)
	ctx := context.Background()
	events := d.Feed(ctx, []byte("data: {not valid json}\n\ndata: {}\n\n"))
	events = append(events, d.Finish(ctx)...)

	assert.Equal(t, []Kind{KindDone}, kinds(events))
}

func TestDecoder_NothingAfterDone(t *testing.T) {
	d := NewDecoder(nil)
	ctx := context.Background()
	events := d.Feed(ctx, []byte("data: {}\ndata: {\"text\":\"late\"}\n"))
	assert.Equal(t, []Kind{KindDone}, kinds(events))
	assert.True(t, d.Done())
	assert.Empty(t, d.Feed(ctx, []byte("data: {\"text\":\"later\"}\n")))
	assert.Empty(t, d.Finish(ctx))
}

func TestDecoder_EOFSynthesizesDone(t *testing.T) {
	d := NewDecoder(nil)
	ctx := context.Background()
	events := d.Feed(ctx, []byte("data: {\"text\":\"a\"}\n"))
	events = append(events, d.Finish(ctx)...)
	assert.Equal(t, []Kind{KindToken, KindDone}, kinds(events))
}

func TestDecoder_TrailingLineWithoutNewline(t *testing.T) {
	d := NewDecoder(nil)
	ctx := context.Background()
	assert.Empty(t, d.Feed(ctx, []byte("data: {\"text\":\"tail\"}")))
	events := d.Finish(ctx)
	require.Equal(t, []Kind{KindToken, KindDone}, kinds(events))
	assert.Equal(t, "tail", events[0].Token.Text)
}

func TestDecoder_IgnoresNonDataLines(t *testing.T) {
	d := NewDecoder(nil)
	ctx := context.Background()
	events := d.Feed(ctx, []byte("event: token\r\n: keepalive\r\nid: 4\r\nretry: 100\r\ndata: {\"text\":\"x\"}\r\n\r\n"))
	require.Equal(t, []Kind{KindToken}, kinds(events))
	assert.Equal(t, "x", events[0].Token.Text)
}

func TestClassify_Precedence(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Kind
	}{
		{"contexts", `{"items":[{"content":"c","score":0.5,"source":"s","metadata":{"doc_id":"d"}}],"hits":1}`, KindContexts},
		{"contexts beat text", `{"items":[],"hits":0,"text":"t"}`, KindContexts},
		{"plan", `{"raw":"r","steps":[{"tool":"search","args":{"q":"x"}}]}`, KindPlan},
		{"trace", `{"tool":"search","args":{},"result":{"n":1},"elapsed_ms":12.5}`, KindTrace},
		{"trace beats message", `{"tool":"t","elapsed_ms":1,"message":"m"}`, KindTrace},
		{"token", `{"text":""}`, KindToken},
		{"token beats message", `{"text":"t","message":"m"}`, KindToken},
		{"error", `{"message":"boom"}`, KindError},
		{"items without hits falls through", `{"items":[],"text":"t"}`, KindToken},
		{"null hits is absent", `{"items":[],"hits":null,"message":"m"}`, KindError},
		{"done", `{}`, KindDone},
		{"done with spaces", ` { } `, KindDone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := classify([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ev.Kind)
		})
	}
}

func TestClassify_Payloads(t *testing.T) {
	ev, err := classify([]byte(`{"items":[{"content":"c","score":0.5,"source":"s","metadata":{"doc_id":"d1","chunk_id":"c1"}}],"hits":1}`))
	require.NoError(t, err)
	require.Len(t, ev.Contexts.Items, 1)
	assert.Equal(t, 1, ev.Contexts.Hits)
	assert.Equal(t, "d1", ev.Contexts.Items[0].DocID())

	ev, err = classify([]byte(`{"raw":"plan text","steps":[{"tool":"search","args":{"q":"x"}}]}`))
	require.NoError(t, err)
	assert.Equal(t, "plan text", ev.Plan.Raw)
	require.Len(t, ev.Plan.Steps, 1)
	assert.Equal(t, "search", ev.Plan.Steps[0].Tool)

	ev, err = classify([]byte(`{"tool":"search","args":{},"result":{"n":1},"elapsed_ms":12.5}`))
	require.NoError(t, err)
	assert.Equal(t, "search", ev.Trace.Tool)
	assert.InDelta(t, 12.5, ev.Trace.ElapsedMS, 1e-9)

	ev, err = classify([]byte(`{"message":"boom"}`))
	require.NoError(t, err)
	assert.Equal(t, "boom", ev.Error.Message)
}

func TestClassify_Rejects(t *testing.T) {
	for _, payload := range []string{
		`{not json}`,
		``,
		`null`,
		`[1,2]`,
		`"text"`,
		`{"unknown":1}`,
		`{"text":null}`,
		`{"items":"nope","hits":1}`,
	} {
		_, err := classify([]byte(payload))
		assert.ErrorIs(t, err, common.ErrMalformedFrame, payload)
	}
}

type ctxKey struct{}

// warnLogger records the context of every Warn call.
type warnLogger struct {
	logging.Logger
	ctxs []context.Context
}

func (l *warnLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.ctxs = append(l.ctxs, ctx)
}

func TestDecoder_WarnsWithCallerContext(t *testing.T) {
	log := &warnLogger{Logger: logging.Nop()}
	d := NewDecoder(log)
	ctx := context.WithValue(context.Background(), ctxKey{}, "req-7")

	assert.Empty(t, d.Feed(ctx, []byte("data: {\"unknown\":1}\n")))

	require.Len(t, log.ctxs, 1)
	assert.Equal(t, "req-7", log.ctxs[0].Value(ctxKey{}))
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	s := truncate([]byte("abécd"), 3)
	assert.True(t, utf8.ValidString(s))
	assert.Equal(t, "ab...", s)

	assert.Equal(t, "abc", truncate([]byte("abc"), 3))
	assert.Equal(t, "ab...", truncate([]byte("abcd"), 2))
}
