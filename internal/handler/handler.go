package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mtlprog/finagent/internal/agent"
	"github.com/mtlprog/finagent/internal/handler/dto"
	"github.com/mtlprog/finagent/internal/llm"
	"github.com/mtlprog/finagent/internal/logger"
	"github.com/mtlprog/finagent/internal/middleware"
	"github.com/mtlprog/finagent/internal/orchestrator"
	"github.com/mtlprog/finagent/internal/static"
	"github.com/mtlprog/finagent/internal/stream"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires the handler. Store, Feed and MCP may be nil.
type Options struct {
	Store     Pinger
	Providers *llm.Registry
	Agents    *agent.Registry
	Conns     *stream.ConnectionRegistry
	Feed      stream.Feed
	MCP       *mcp.Server
	APIToken  string
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	store          Pinger
	providers      *llm.Registry
	agents         *agent.Registry
	conns          *stream.ConnectionRegistry
	adapter        *stream.Adapter
	mcpHandler     http.Handler
	authMiddleware *middleware.AuthMiddleware
}

// New creates a new Handler instance with all dependencies.
func New(opts Options) *Handler {
	conns := opts.Conns
	if conns == nil {
		conns = stream.NewConnectionRegistry()
	}

	h := &Handler{
		store:          opts.Store,
		providers:      opts.Providers,
		agents:         opts.Agents,
		conns:          conns,
		adapter:        stream.NewAdapter(opts.Providers, opts.Agents, conns, opts.Feed),
		authMiddleware: middleware.NewAuthMiddleware(opts.APIToken),
	}
	if opts.MCP != nil {
		server := opts.MCP
		h.mcpHandler = mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
	}
	return h
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Health check and metrics
	mux.HandleFunc("GET /healthz", h.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Static files for AI agents
	mux.HandleFunc("GET /skill.md", h.handleSkillMd)

	// Catalogue
	mux.HandleFunc("GET /api/agents", h.handleListAgents)
	mux.HandleFunc("GET /api/providers", h.handleListProviders)

	// Chat
	mux.Handle("GET /ws/chat", h.authMiddleware.Authenticate(h.adapter))
	mux.Handle("POST /api/chat", h.authMiddleware.Authenticate(http.HandlerFunc(h.handleChat)))

	if h.mcpHandler != nil {
		mux.Handle("/mcp", h.authMiddleware.Authenticate(h.mcpHandler))
	}
}

// Connections returns the live streaming connections.
func (h *Handler) Connections() *stream.ConnectionRegistry {
	return h.conns
}

// handleHealthz returns 200 OK if the database is reachable.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			slog.Error("database health check failed", "error", err)
			respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "database unavailable")
			return
		}
	}

	respondJSON(w, http.StatusOK, dto.HealthResponse{Status: "ok", Connections: h.conns.Count()})
}

// handleSkillMd serves the embedded skill.md file for AI agents.
func (h *Handler) handleSkillMd(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(static.SkillMd))
}

func (h *Handler) handleListAgents(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, dto.AgentsResponse{Agents: agent.Catalog()})
}

func (h *Handler) handleListProviders(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, dto.ProvidersResponse{
		Providers: h.providers.Names(),
		Default:   h.providers.DefaultName(),
	})
}

// handleChat answers one message without streaming.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req dto.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "message is required")
		return
	}

	provider, err := h.providers.Get(req.Provider)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	logger.FromContext(r.Context()).Info("chat request", "provider", provider.Name())
	out := orchestrator.New(provider, h.agents).ProcessSimple(r.Context(), req.Message)

	respondJSON(w, http.StatusOK, dto.ChatResponse{
		Response:   out.Response,
		AgentsUsed: out.AgentsUsed,
	})
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a standard error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.NewErrorResponse(code, message))
}
