package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/mtlprog/finagent/internal/domain"
	"github.com/mtlprog/finagent/internal/llm"
)

// QueryAgent answers read requests about customers, accounts, transactions
// and loans.
type QueryAgent struct {
	reader reader
}

// NewQueryAgent creates a new QueryAgent.
func NewQueryAgent(provider *llm.Provider, runner StatementRunner) *QueryAgent {
	return &QueryAgent{reader: reader{agent: "query", provider: provider, runner: runner}}
}

func (a *QueryAgent) Name() string { return "query" }

func (a *QueryAgent) Description() string {
	return "Handles SELECT queries for customer, account, transaction, and loan data"
}

// Execute runs the generated statement and returns its rows.
func (a *QueryAgent) Execute(ctx context.Context, task string) Result {
	statement, set, err := a.reader.read(ctx, task, bankSchema)
	if err != nil {
		return readFailure("Query", "Query", statement, err)
	}

	rows := recordsFrom(set)
	return Result{
		Success:   true,
		Data:      rows,
		Message:   fmt.Sprintf("Found %d records", len(rows)),
		Statement: statement,
	}
}

// readFailure maps a reader error to a failed Result. label names the agent
// in the gate message; operation prefixes every other failure.
func readFailure(label, operation, statement string, err error) Result {
	if errors.Is(err, domain.ErrNotReadStatement) {
		return Result{
			Message:   label + " agent can only execute SELECT queries",
			Statement: statement,
		}
	}
	return Result{
		Message:   operation + " failed: " + err.Error(),
		Statement: statement,
	}
}
