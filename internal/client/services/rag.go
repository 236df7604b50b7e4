package services

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/ragdesk/internal/client/models"
	"github.com/dmitrijs2005/ragdesk/internal/client/sse"
	"github.com/dmitrijs2005/ragdesk/internal/logging"
)

// RagService wraps the /rag endpoints.
type RagService interface {
	Ingest(ctx context.Context, req models.IngestRequest) (*models.IngestResponse, error)
	Query(ctx context.Context, req models.RagQueryRequest) (*models.RagQueryResponse, error)
	// QueryStream pushes the answer to cb as it is generated and returns
	// when the stream ends.
	QueryStream(ctx context.Context, req models.RagQueryRequest, cb sse.Callbacks) error
	// OpenQueryStream is the pull-style variant. The caller closes the stream.
	OpenQueryStream(ctx context.Context, req models.RagQueryRequest) (*sse.Stream, error)
	Stats(ctx context.Context) (*models.RagStatsResponse, error)
}

type ragService struct {
	api API
	log logging.Logger
}

func NewRagService(api API, log logging.Logger) RagService {
	if log == nil {
		log = logging.Nop()
	}
	return &ragService{api: api, log: log}
}

func (s *ragService) Ingest(ctx context.Context, req models.IngestRequest) (*models.IngestResponse, error) {
	var out models.IngestResponse
	if err := s.api.Post(ctx, "/rag/ingest", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ragService) Query(ctx context.Context, req models.RagQueryRequest) (*models.RagQueryResponse, error) {
	req.Stream = false
	var out models.RagQueryResponse
	if err := s.api.Post(ctx, "/rag/query", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ragService) QueryStream(ctx context.Context, req models.RagQueryRequest, cb sse.Callbacks) error {
	req.Stream = true
	return runStream(ctx, s.api, "/rag/query", req, cb, s.log)
}

func (s *ragService) OpenQueryStream(ctx context.Context, req models.RagQueryRequest) (*sse.Stream, error) {
	req.Stream = true
	body, err := s.api.Stream(ctx, http.MethodPost, "/rag/query", req)
	if err != nil {
		return nil, err
	}
	return sse.NewStream(body, s.log), nil
}

func (s *ragService) Stats(ctx context.Context) (*models.RagStatsResponse, error) {
	var out models.RagStatsResponse
	if err := s.api.Get(ctx, "/rag/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// runStream opens a POST stream and decodes it into cb. A failure to open
// the stream is reported through OnError as well as returned.
func runStream(ctx context.Context, a API, path string, in any, cb sse.Callbacks, log logging.Logger) error {
	body, err := a.Stream(ctx, http.MethodPost, path, in)
	if err != nil {
		if cb.OnError != nil && ctx.Err() == nil {
			cb.OnError(sse.ErrorEvent{Message: err.Error()})
		}
		return err
	}
	defer func() { _ = body.Close() }()
	return sse.Run(ctx, body, cb, log)
}
