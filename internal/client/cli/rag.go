package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/ragdesk/internal/client/models"
	"github.com/dmitrijs2005/ragdesk/internal/client/sse"
)

// Ask streams an answer to question, then lists the sources it used.
func (a *App) Ask(ctx context.Context, question string) error {
	var sources []models.RagContext
	printer := &streamPrinter{out: a.out}

	err := a.ragService.QueryStream(ctx, models.RagQueryRequest{Query: question}, sse.Callbacks{
		OnContexts: func(ev sse.ContextsEvent) { sources = ev.Items },
		OnToken:    printer.token,
		OnError:    printer.fail,
		OnDone:     printer.done,
	})
	if len(sources) > 0 {
		fmt.Fprintln(a.out, "Sources:")
		for i, s := range sources {
			fmt.Fprintf(a.out, "  [%d] %s (score %.2f)\n", i+1, s.Source, s.Score)
		}
	}
	return printer.result(err)
}

// Ingest adds content to the index: ingest [server-path]. Without an
// argument the text is read from the prompt.
func (a *App) Ingest(ctx context.Context, args []string) error {
	var req models.IngestRequest
	if len(args) > 0 {
		req.FilePath = args[0]
	} else {
		text, err := getMultiline(a.reader, "Text to ingest", a.out)
		if err != nil {
			return err
		}
		if text == "" {
			return fmt.Errorf("nothing to ingest")
		}
		req.Content = text
	}

	tags, err := getSimpleText(a.reader, "Tags, comma separated (optional)", a.out)
	if err != nil {
		return err
	}
	for _, t := range strings.Split(tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			req.Tags = append(req.Tags, t)
		}
	}

	resp, err := a.ragService.Ingest(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Ingested %d chunk(s) into %s\n", resp.Ingested, resp.Dataset)
	return nil
}

// Stats prints index totals and the documents in it.
func (a *App) Stats(ctx context.Context) error {
	stats, err := a.ragService.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Documents: %d\nChunks:    %d\n", stats.TotalDocs, stats.TotalChunks)
	if len(stats.Docs) > 0 {
		a.printDocs(stats.Docs)
	}
	return nil
}

// streamPrinter writes streamed answers and remembers whether an error was
// already shown, so it is not printed twice.
type streamPrinter struct {
	out      io.Writer
	started  bool
	reported bool
}

func (p *streamPrinter) token(ev sse.TokenEvent) {
	p.started = true
	fmt.Fprint(p.out, ev.Text)
}

func (p *streamPrinter) fail(ev sse.ErrorEvent) {
	if p.started {
		fmt.Fprintln(p.out)
	}
	fmt.Fprintf(p.out, "[error] %s\n", ev.Message)
	p.reported = true
}

func (p *streamPrinter) done() {
	if p.started {
		fmt.Fprintln(p.out)
	}
}

func (p *streamPrinter) result(err error) error {
	if err != nil && p.reported {
		return nil
	}
	return err
}
