package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/mtlprog/finagent/internal/metrics"
)

// PlannedTask assigns one task description to one agent.
type PlannedTask struct {
	Agent string `json:"agent"`
	Task  string `json:"task"`
}

// Plan is the outcome of planning. When Fallback is set the completion could
// not be used and Tasks is empty; Reason says why.
type Plan struct {
	Tasks    []PlannedTask
	Fallback bool
	Reason   string
}

// NamedResult is one agent's output handed to synthesis.
type NamedResult struct {
	Name   string
	Result any
}

// StatementRequest asks for one read statement answering Task.
type StatementRequest struct {
	Task   string
	Schema string
	// Rules are appended to the default generation rules.
	Rules []string
}

// Provider wraps a Backend with the planning, statement generation and
// synthesis operations used by the orchestrator and agents.
type Provider struct {
	backend Backend
}

// NewProvider creates a Provider on top of backend.
func NewProvider(backend Backend) *Provider {
	return &Provider{backend: backend}
}

// Name returns the backend name.
func (p *Provider) Name() string {
	return p.backend.Name()
}

// Model returns the backend model identifier.
func (p *Provider) Model() string {
	return p.backend.Model()
}

// Generate sends one prompt and returns the full completion.
func (p *Provider) Generate(ctx context.Context, req Request) (*Response, error) {
	return p.generate(ctx, "generate", req)
}

func (p *Provider) generate(ctx context.Context, operation string, req Request) (*Response, error) {
	started := time.Now()
	resp, err := p.backend.Generate(ctx, req.withDefaults())

	var tokens *int
	if resp != nil {
		tokens = resp.TokensUsed
	}
	metrics.ObserveProvider(p.backend.Name(), operation, started, tokens, err)

	if err != nil {
		return nil, fmt.Errorf("%s via %s: %w", operation, p.backend.Name(), err)
	}
	return resp, nil
}

// GenerateStream yields completion fragments as the backend produces them.
func (p *Provider) GenerateStream(ctx context.Context, req Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		started := time.Now()
		var streamErr error
		defer func() {
			metrics.ObserveProvider(p.backend.Name(), "stream", started, nil, streamErr)
		}()

		for fragment, err := range p.backend.GenerateStream(ctx, req.withDefaults()) {
			if err != nil {
				streamErr = err
				yield("", fmt.Errorf("stream via %s: %w", p.backend.Name(), err))
				return
			}
			if !yield(fragment, nil) {
				return
			}
		}
	}
}

// PlanTasks asks the backend which agents should handle message. It never
// fails: a backend error or an unusable completion yields a fallback Plan
// with no tasks.
func (p *Provider) PlanTasks(ctx context.Context, message string, agents []string) Plan {
	resp, err := p.generate(ctx, "plan", Request{
		Prompt:       "User request: " + message,
		SystemPrompt: planningPrompt(agents),
		Temperature:  0.3,
	})
	if err != nil {
		return Plan{Fallback: true, Reason: err.Error()}
	}

	var tasks []PlannedTask
	if err := DecodeArray(resp.Content, &tasks); err != nil {
		slog.Warn("planning completion unusable", "error", err)
		return Plan{Fallback: true, Reason: err.Error()}
	}

	return Plan{Tasks: tasks}
}

// GenerateStatement asks for one SQL statement and strips code fences from
// the completion. The statement is not validated here.
func (p *Provider) GenerateStatement(ctx context.Context, req StatementRequest) (string, error) {
	var rules strings.Builder
	for _, rule := range slices.Concat(defaultStatementRules, req.Rules) {
		rules.WriteString("- ")
		rules.WriteString(rule)
		rules.WriteString("\n")
	}

	resp, err := p.generate(ctx, "statement", Request{
		Prompt: "Task: " + req.Task,
		SystemPrompt: "You are a SQL expert. Generate one PostgreSQL query.\n" +
			"Given a task description and database schema, generate the appropriate SQL query.\n\n" +
			"Database Schema:\n" + req.Schema + "\n\nRules:\n" + rules.String(),
		Temperature: 0.1,
		MaxTokens:   500,
	})
	if err != nil {
		return "", err
	}

	return StripCodeFence(resp.Content), nil
}

// GenerateJSON asks for a JSON object and decodes it into out. Code fences
// and surrounding prose in the completion are tolerated.
func (p *Provider) GenerateJSON(ctx context.Context, prompt, systemPrompt string, out any) error {
	resp, err := p.generate(ctx, "extract", Request{
		Prompt:       prompt,
		SystemPrompt: systemPrompt,
		Temperature:  0.1,
	})
	if err != nil {
		return err
	}
	return DecodeObject(resp.Content, out)
}

// Synthesize turns the collected agent results into one answer for the user.
func (p *Provider) Synthesize(ctx context.Context, message string, results []NamedResult) (string, error) {
	var b strings.Builder
	for _, r := range results {
		encoded, err := json.Marshal(r.Result)
		if err != nil {
			encoded = []byte(fmt.Sprintf("%q", fmt.Sprint(r.Result)))
		}
		b.WriteString(r.Name)
		b.WriteString(": ")
		b.Write(encoded)
		b.WriteString("\n")
	}

	resp, err := p.generate(ctx, "synthesize", Request{
		Prompt:       "User asked: " + message + "\n\nAgent results:\n" + b.String(),
		SystemPrompt: synthesisPrompt,
		Temperature:  DefaultTemperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

var defaultStatementRules = []string{
	"Return only the SQL query, no explanations",
	"Use PostgreSQL syntax",
	"Use JOINs when needed to get related data",
	"Use appropriate WHERE clauses for filtering",
	"Only SELECT statements are allowed",
}

const synthesisPrompt = `You are a helpful banking assistant.
Synthesize the results from various agents into a clear, friendly response.
Format numbers as currency when appropriate.
Use bullet points and formatting for clarity.
Be concise but informative.`

func planningPrompt(agents []string) string {
	return `You are a task planner for a banking AI assistant.
Given a user request, determine which agents to use and what tasks to assign.

Available agents: ` + strings.Join(agents, ", ") + `

Agent roles:
- query: reading customer, account, transaction data (SELECT queries only)
- crud: creating, updating, or deleting customer records
- transaction: deposits, withdrawals, transfers
- analytics: aggregations, reports, statistics
- search: finding customers/accounts by name or partial match
- risk: detecting suspicious transactions, fraud patterns
- export: generating statements, CSV reports

Routing rules:
- Use "crud" for: add, create, register, update, modify, change, delete, remove customer
- Use "query" for: list, show, find, get, display customer data
- Use "transaction" for: deposit, withdraw, transfer money
- Use "analytics" for: calculate, analyze, report, statistics
- Use "search" for: search by partial name or account number

Respond with a JSON array of tasks. Each task has:
- "agent": the agent name
- "task": description of what the agent should do

Example response:
[
  {"agent": "crud", "task": "Create a new customer named John Smith"},
  {"agent": "query", "task": "List all customers"}
]

Only use agents that are needed. Return an empty array when no agent is needed.`
}
