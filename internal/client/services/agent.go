package services

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/ragdesk/internal/client/models"
	"github.com/dmitrijs2005/ragdesk/internal/client/sse"
	"github.com/dmitrijs2005/ragdesk/internal/logging"
)

// AgentService wraps POST /agent/act.
type AgentService interface {
	Act(ctx context.Context, req models.AgentActRequest) (*models.AgentActResponse, error)
	ActStream(ctx context.Context, req models.AgentActRequest, cb sse.Callbacks) error
	OpenActStream(ctx context.Context, req models.AgentActRequest) (*sse.Stream, error)
}

type agentService struct {
	api API
	log logging.Logger
}

func NewAgentService(api API, log logging.Logger) AgentService {
	if log == nil {
		log = logging.Nop()
	}
	return &agentService{api: api, log: log}
}

func (s *agentService) Act(ctx context.Context, req models.AgentActRequest) (*models.AgentActResponse, error) {
	req.Stream = false
	var out models.AgentActResponse
	if err := s.api.Post(ctx, "/agent/act", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *agentService) ActStream(ctx context.Context, req models.AgentActRequest, cb sse.Callbacks) error {
	req.Stream = true
	return runStream(ctx, s.api, "/agent/act", req, cb, s.log)
}

func (s *agentService) OpenActStream(ctx context.Context, req models.AgentActRequest) (*sse.Stream, error) {
	req.Stream = true
	body, err := s.api.Stream(ctx, http.MethodPost, "/agent/act", req)
	if err != nil {
		return nil, err
	}
	return sse.NewStream(body, s.log), nil
}
