// Package orchestrator runs one user request through planning, agent
// dispatch and synthesis, reporting progress as tagged lines.
package orchestrator

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mtlprog/finagent/internal/agent"
	"github.com/mtlprog/finagent/internal/llm"
	"github.com/mtlprog/finagent/internal/logger"
	"github.com/mtlprog/finagent/internal/metrics"
)

const (
	defaultAgent = "query"

	directSystemPrompt = "You are a helpful banking assistant. Answer the user's question directly."

	directFallback    = "Sorry, I could not answer that right now. Please try again."
	cancelledResponse = "Request cancelled before all tasks finished."
)

// Outcome is a drained request.
type Outcome struct {
	Messages   []string `json:"messages"`
	Response   string   `json:"response"`
	AgentsUsed []string `json:"agents_used"`
}

// Orchestrator coordinates the agents for requests answered by one provider.
// Tasks run one after another in plan order.
type Orchestrator struct {
	provider *llm.Provider
	agents   *agent.Registry
}

// New creates an Orchestrator.
func New(provider *llm.Provider, agents *agent.Registry) *Orchestrator {
	return &Orchestrator{provider: provider, agents: agents}
}

// Process answers message. The sequence always ends with exactly one
// response line unless the consumer stops early. Cancellation of ctx is
// observed between tasks only.
func (o *Orchestrator) Process(ctx context.Context, message string) iter.Seq[string] {
	return func(yield func(string) bool) {
		log := logger.FromContext(ctx).With("request_id", uuid.NewString())
		ctx := logger.WithContext(ctx, log)

		emit := func(l Line) bool { return yield(l.String()) }

		if !emit(Status("Planning tasks...")) {
			return
		}

		plan := o.provider.PlanTasks(ctx, message, agent.Names())
		if plan.Fallback {
			log.Warn("planning fell back to a direct answer", "reason", plan.Reason)
		}

		if len(plan.Tasks) == 0 {
			if !emit(Status("Processing directly...")) {
				return
			}
			emit(Response(o.answerDirectly(ctx, message)))
			return
		}

		log.Info("plan ready", "tasks", len(plan.Tasks))
		if !emit(Status(fmt.Sprintf("Using %d agent(s)", len(plan.Tasks)))) {
			return
		}

		results := newResultSet()
		for _, task := range plan.Tasks {
			if ctx.Err() != nil {
				log.Info("request cancelled between tasks", "error", ctx.Err())
				if emit(Status("Request cancelled")) {
					emit(Response(cancelledResponse))
				}
				return
			}

			name := strings.TrimSpace(task.Agent)
			if name == "" {
				name = defaultAgent
			}
			description := strings.TrimSpace(task.Task)
			if description == "" || name == "crud" {
				// crud resolves names and values from the user's own words.
				description = message
			}

			if !emit(Line{Kind: KindAgentStart, Agent: name, Text: description}) {
				return
			}

			res, err := o.dispatch(ctx, name, description)
			if err != nil {
				log.Error("agent failed", "agent", name, "error", err)
				results.put(name, map[string]string{"error": err.Error()})
				if !emit(Line{Kind: KindAgentError, Agent: name, Text: err.Error()}) {
					return
				}
				continue
			}

			results.put(name, res)
			if !emit(Line{Kind: KindAgentDone, Agent: name, Text: res.Message}) {
				return
			}
		}

		if !emit(Status("Generating response...")) {
			return
		}

		answer, err := o.provider.Synthesize(ctx, message, results.list)
		if err != nil {
			log.Error("synthesis failed", "error", err)
			answer = synthesisFallback(results.list)
		}
		emit(Response(answer))
	}
}

// ProcessSimple drains Process and collects the final response.
func (o *Orchestrator) ProcessSimple(ctx context.Context, message string) Outcome {
	out := Outcome{Messages: []string{}, AgentsUsed: []string{}}
	seen := make(map[string]bool)

	for raw := range o.Process(ctx, message) {
		out.Messages = append(out.Messages, raw)

		line, ok := ParseLine(raw)
		if !ok {
			continue
		}
		switch line.Kind {
		case KindAgentStart:
			if !seen[line.Agent] {
				seen[line.Agent] = true
				out.AgentsUsed = append(out.AgentsUsed, line.Agent)
			}
		case KindResponse:
			out.Response = line.Text
		}
	}

	return out
}

// dispatch runs one agent. A panic inside the agent is returned as an error.
func (o *Orchestrator) dispatch(ctx context.Context, name, task string) (res agent.Result, err error) {
	started := time.Now()
	outcome := "error"
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("agent %s panicked: %v", name, r)
		}
		metrics.ObserveAgent(name, outcome, started)
	}()

	a, err := o.agents.Build(name, o.provider)
	if err != nil {
		return agent.Result{}, err
	}

	res = a.Execute(ctx, task)
	if res.Success {
		outcome = "success"
	} else {
		outcome = "failure"
	}
	return res, nil
}

func (o *Orchestrator) answerDirectly(ctx context.Context, message string) string {
	var b strings.Builder
	for fragment, err := range o.provider.GenerateStream(ctx, llm.Request{
		Prompt:       message,
		SystemPrompt: directSystemPrompt,
	}) {
		if err != nil {
			logger.FromContext(ctx).Error("direct answer failed", "error", err)
			return directFallback
		}
		b.WriteString(fragment)
	}
	return b.String()
}

func synthesisFallback(results []llm.NamedResult) string {
	var b strings.Builder
	b.WriteString("I could not put together a final answer, but here is what each agent reported:")
	for _, r := range results {
		b.WriteString("\n- ")
		b.WriteString(r.Name)
		b.WriteString(": ")
		switch v := r.Result.(type) {
		case agent.Result:
			b.WriteString(v.Message)
		case map[string]string:
			b.WriteString(v["error"])
		}
	}
	return b.String()
}

// resultSet keeps one result per agent name in first-seen order. A repeated
// name replaces the earlier result.
type resultSet struct {
	index map[string]int
	list  []llm.NamedResult
}

func newResultSet() *resultSet {
	return &resultSet{index: make(map[string]int)}
}

func (s *resultSet) put(name string, result any) {
	if i, ok := s.index[name]; ok {
		s.list[i].Result = result
		return
	}
	s.index[name] = len(s.list)
	s.list = append(s.list, llm.NamedResult{Name: name, Result: result})
}
