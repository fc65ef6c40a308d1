package dto

import "github.com/mtlprog/finagent/internal/agent"

// ChatResponse represents the response for POST /api/chat.
type ChatResponse struct {
	Response   string   `json:"response"`
	AgentsUsed []string `json:"agents_used"`
}

// AgentsResponse represents the response for GET /api/agents.
type AgentsResponse struct {
	Agents []agent.Info `json:"agents"`
}

// ProvidersResponse represents the response for GET /api/providers.
type ProvidersResponse struct {
	Providers []string `json:"providers"`
	Default   string   `json:"default"`
}

// HealthResponse represents the response for GET /healthz.
type HealthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
}
