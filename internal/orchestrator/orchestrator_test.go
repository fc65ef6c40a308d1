package orchestrator_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/finagent/internal/agent"
	"github.com/mtlprog/finagent/internal/domain"
	"github.com/mtlprog/finagent/internal/llm/llmtest"
	"github.com/mtlprog/finagent/internal/orchestrator"
	"github.com/mtlprog/finagent/internal/repository"
)

type stubRunner struct {
	mu    sync.Mutex
	calls int
	sets  []*repository.RowSet
	hook  func(call int)
}

func (r *stubRunner) QueryReadOnly(_ context.Context, _ string) (*repository.RowSet, error) {
	r.mu.Lock()
	r.calls++
	call := r.calls
	r.mu.Unlock()

	if r.hook != nil {
		r.hook(call)
	}
	if call <= len(r.sets) {
		return r.sets[call-1], nil
	}
	return &repository.RowSet{}, nil
}

type noCustomers struct{}

func (noCustomers) Create(context.Context, domain.NewCustomer) (*domain.Customer, error) {
	return nil, domain.ErrEmailExists
}

func (noCustomers) FindByID(context.Context, int64) (*domain.Customer, error) {
	return nil, domain.ErrCustomerNotFound
}

func (noCustomers) FindByName(context.Context, string, string) (*domain.Customer, error) {
	return nil, domain.ErrCustomerNotFound
}

func (noCustomers) Update(context.Context, int64, map[domain.CustomerField]string) (*domain.Customer, error) {
	return nil, domain.ErrCustomerNotFound
}

func (noCustomers) Delete(context.Context, int64) (*domain.Customer, error) {
	return nil, domain.ErrCustomerNotFound
}

func newOrchestrator(backend *llmtest.Backend, runner *stubRunner) *orchestrator.Orchestrator {
	registry := agent.NewRegistry(agent.Deps{Runner: runner, Customers: noCustomers{}})
	return orchestrator.New(backend.Provider(), registry)
}

func collect(ctx context.Context, o *orchestrator.Orchestrator, message string) []string {
	var lines []string
	for line := range o.Process(ctx, message) {
		lines = append(lines, line)
	}
	return lines
}

func countResponses(lines []string) int {
	n := 0
	for _, l := range lines {
		if strings.HasPrefix(l, "[RESPONSE]") {
			n++
		}
	}
	return n
}

func TestProcess_SingleAgent(t *testing.T) {
	backend := llmtest.New(
		`[{"agent": "query", "task": "list customers"}]`,
		"SELECT id FROM customers",
		"You have one customer.",
	)
	runner := &stubRunner{sets: []*repository.RowSet{{Columns: []string{"id"}, Rows: [][]any{{int64(1)}}}}}

	lines := collect(context.Background(), newOrchestrator(backend, runner), "Who are my customers?")

	assert.Equal(t, []string{
		"[STATUS] Planning tasks...",
		"[STATUS] Using 1 agent(s)",
		"[AGENT:query] list customers",
		"[AGENT:query:DONE] Found 1 records",
		"[STATUS] Generating response...",
		"[RESPONSE]You have one customer.",
	}, lines)

	requests := backend.Requests()
	require.Len(t, requests, 3)
	assert.Contains(t, requests[0].SystemPrompt, "query, transaction, analytics, search, risk, export, crud")
	assert.Contains(t, requests[2].Prompt, "User asked: Who are my customers?")
	assert.Contains(t, requests[2].Prompt, `query: {"success":true,"data":[{"id":1}],"message":"Found 1 records","sql":"SELECT id FROM customers"}`)
}

func TestProcess_EmptyPlanAnswersDirectly(t *testing.T) {
	backend := llmtest.New("[]", "Our branches open at nine.")

	lines := collect(context.Background(), newOrchestrator(backend, &stubRunner{}), "When do you open?")

	assert.Equal(t, []string{
		"[STATUS] Planning tasks...",
		"[STATUS] Processing directly...",
		"[RESPONSE]Our branches open at nine.",
	}, lines)
	assert.Equal(t, "When do you open?", backend.Requests()[1].Prompt)
}

func TestProcess_PlanningFailureAnswersDirectly(t *testing.T) {
	backend := llmtest.New().Push(
		llmtest.Reply{Content: "I think you should use the query agent"},
		llmtest.Reply{Content: "Hello!"},
	)

	lines := collect(context.Background(), newOrchestrator(backend, &stubRunner{}), "hi")

	assert.Equal(t, "[RESPONSE]Hello!", lines[len(lines)-1])
	assert.Equal(t, 1, countResponses(lines))
}

func TestProcess_DirectAnswerFailureStillResponds(t *testing.T) {
	backend := llmtest.New("[]")

	lines := collect(context.Background(), newOrchestrator(backend, &stubRunner{}), "hi")

	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[2], "[RESPONSE]Sorry"))
}

func TestProcess_FailuresDoNotAbortDispatch(t *testing.T) {
	backend := llmtest.New(
		`[{"agent": "payroll", "task": "pay staff"}, {"agent": "query", "task": "count customers"}, {"agent": "search", "task": "find smi"}]`,
		"SELECT count(*) FROM customers",
		"SELECT * FROM customers WHERE last_name ILIKE '%smi%'",
		"Partial results.",
	)
	runner := &stubRunner{hook: func(call int) {
		if call == 1 {
			panic("connection reset")
		}
	}}

	lines := collect(context.Background(), newOrchestrator(backend, runner), "payroll and counts")

	assert.Equal(t, "[AGENT:payroll] pay staff", lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "[AGENT:payroll:ERROR] unknown agent: payroll"))
	assert.Equal(t, "[AGENT:query] count customers", lines[4])
	assert.Equal(t, "[AGENT:query:ERROR] agent query panicked: connection reset", lines[5])
	assert.Equal(t, "[AGENT:search] find smi", lines[6])
	assert.Equal(t, "[AGENT:search:DONE] Found 0 matching records", lines[7])
	assert.Equal(t, "[RESPONSE]Partial results.", lines[len(lines)-1])
	assert.Equal(t, 1, countResponses(lines))

	synth := backend.Requests()[3].Prompt
	assert.Contains(t, synth, `payroll: {"error":"unknown agent: payroll`)
	assert.Contains(t, synth, `query: {"error":"agent query panicked: connection reset"}`)
}

func TestProcess_CRUDReceivesOriginalMessage(t *testing.T) {
	backend := llmtest.New(`[{"agent": "crud", "task": "delete a customer"}]`, "Not found.")

	lines := collect(context.Background(), newOrchestrator(backend, &stubRunner{}), "Delete customer 7")

	assert.Equal(t, "[AGENT:crud] Delete customer 7", lines[2])
	assert.Equal(t, "[AGENT:crud:DONE] Customer with ID 7 not found.", lines[3])
}

func TestProcess_TaskDefaults(t *testing.T) {
	backend := llmtest.New(`[{"agent": "", "task": ""}]`, "SELECT 1", "ok")

	lines := collect(context.Background(), newOrchestrator(backend, &stubRunner{}), "show me accounts")

	assert.Equal(t, "[AGENT:query] show me accounts", lines[2])
	assert.Equal(t, "Task: show me accounts", backend.Requests()[1].Prompt)
}

func TestProcess_RepeatedAgentOverwritesResult(t *testing.T) {
	backend := llmtest.New(
		`[{"agent": "query", "task": "first"}, {"agent": "query", "task": "second"}]`,
		"SELECT 1 AS a",
		"SELECT 2 AS b",
		"done",
	)
	runner := &stubRunner{sets: []*repository.RowSet{
		{Columns: []string{"a"}, Rows: [][]any{{int64(1)}}},
		{Columns: []string{"b"}, Rows: [][]any{{int64(2)}}},
	}}

	collect(context.Background(), newOrchestrator(backend, runner), "twice")

	synth := backend.Requests()[3].Prompt
	assert.Equal(t, 1, strings.Count(synth, "query: "))
	assert.Contains(t, synth, `"data":[{"b":2}]`)
	assert.NotContains(t, synth, `"data":[{"a":1}]`)
}

func TestProcess_CancellationStopsBetweenTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := llmtest.New(
		`[{"agent": "query", "task": "first"}, {"agent": "query", "task": "second"}]`,
		"SELECT 1",
	)
	runner := &stubRunner{hook: func(int) { cancel() }}

	lines := collect(ctx, newOrchestrator(backend, runner), "two things")

	assert.Equal(t, []string{
		"[STATUS] Planning tasks...",
		"[STATUS] Using 2 agent(s)",
		"[AGENT:query] first",
		"[AGENT:query:DONE] Found 0 records",
		"[STATUS] Request cancelled",
		"[RESPONSE]Request cancelled before all tasks finished.",
	}, lines)
	assert.Equal(t, 2, backend.Calls())
	assert.Equal(t, 1, runner.calls)
}

func TestProcess_SynthesisFailureFallsBack(t *testing.T) {
	backend := llmtest.New(`[{"agent": "query", "task": "list"}]`, "SELECT 1")

	lines := collect(context.Background(), newOrchestrator(backend, &stubRunner{}), "list")

	last := lines[len(lines)-1]
	assert.True(t, strings.HasPrefix(last, "[RESPONSE]I could not put together a final answer"))
	assert.Contains(t, last, "- query: Found 0 records")
	assert.Equal(t, 1, countResponses(lines))
}

func TestProcess_ConsumerStopsEarly(t *testing.T) {
	backend := llmtest.New(`[{"agent": "query", "task": "list"}]`)

	for range newOrchestrator(backend, &stubRunner{}).Process(context.Background(), "list") {
		break
	}

	assert.Zero(t, backend.Calls())
}

func TestProcessSimple(t *testing.T) {
	backend := llmtest.New(
		`[{"agent": "query", "task": "a"}, {"agent": "search", "task": "b"}, {"agent": "query", "task": "c"}]`,
		"SELECT 1", "SELECT 2", "SELECT 3",
		"All done.",
	)

	out := newOrchestrator(backend, &stubRunner{}).ProcessSimple(context.Background(), "do things")

	assert.Equal(t, "All done.", out.Response)
	assert.Equal(t, []string{"query", "search"}, out.AgentsUsed)
	assert.Len(t, out.Messages, 10)
	assert.Equal(t, "[RESPONSE]All done.", out.Messages[9])
}
