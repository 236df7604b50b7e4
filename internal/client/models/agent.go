package models

// AgentActRequest is the body of POST /agent/act.
type AgentActRequest struct {
	Goal        string         `json:"goal"`
	Tools       []string       `json:"tools,omitempty"`
	Constraints map[string]any `json:"constraints,omitempty"`
	Stream      bool           `json:"stream"`
}

// PlanStep is one tool invocation the agent intends to make.
type PlanStep struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// AgentTrace records one executed tool call.
type AgentTrace struct {
	Tool      string         `json:"tool"`
	Args      map[string]any `json:"args"`
	Result    map[string]any `json:"result"`
	ElapsedMS float64        `json:"elapsed_ms"`
}

type AgentActResponse struct {
	Plan      string       `json:"plan"`
	Answer    string       `json:"answer"`
	Traces    []AgentTrace `json:"traces"`
	Citations []int        `json:"citations"`
}
