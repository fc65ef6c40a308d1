package agent

import (
	"context"
	"fmt"

	"github.com/mtlprog/finagent/internal/llm"
)

var searchRules = []string{
	"Use ILIKE with % wildcards for partial matches, never exact equality on names, emails or account numbers",
	"Searches are case-insensitive",
}

// SearchAgent finds customers and accounts by partial match.
type SearchAgent struct {
	reader reader
}

// NewSearchAgent creates a new SearchAgent.
func NewSearchAgent(provider *llm.Provider, runner StatementRunner) *SearchAgent {
	return &SearchAgent{reader: reader{agent: "search", provider: provider, runner: runner}}
}

func (a *SearchAgent) Name() string { return "search" }

func (a *SearchAgent) Description() string {
	return "Searches for customers, accounts by name, account number, or partial match"
}

// Execute runs a wildcard search statement.
func (a *SearchAgent) Execute(ctx context.Context, task string) Result {
	statement, set, err := a.reader.read(ctx, task, bankSchema+searchPatterns, searchRules...)
	if err != nil {
		return readFailure("Search", "Search", statement, err)
	}

	rows := recordsFrom(set)
	return Result{
		Success:   true,
		Data:      rows,
		Message:   fmt.Sprintf("Found %d matching records", len(rows)),
		Statement: statement,
	}
}
