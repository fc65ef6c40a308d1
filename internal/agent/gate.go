package agent

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/mtlprog/finagent/internal/domain"
	"github.com/mtlprog/finagent/internal/llm"
	"github.com/mtlprog/finagent/internal/logger"
	"github.com/mtlprog/finagent/internal/metrics"
	"github.com/mtlprog/finagent/internal/repository"
)

// IsReadStatement reports whether statement is a single SELECT statement.
// The leading keyword must be SELECT; leading comments, WITH and anything
// after a statement separator are refused.
func IsReadStatement(statement string) bool {
	s := strings.TrimSpace(statement)
	s = strings.TrimRight(s, "; \t\r\n")
	if s == "" || strings.Contains(s, ";") {
		return false
	}

	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	if end < 0 {
		end = len(s)
	}
	return strings.EqualFold(s[:end], "SELECT")
}

// reader generates, gates and runs read statements for one agent.
type reader struct {
	agent    string
	provider *llm.Provider
	runner   StatementRunner
}

// read asks the provider for a statement answering task and executes it.
// A statement failing the read gate is returned with ErrNotReadStatement and
// never reaches the runner.
func (r reader) read(ctx context.Context, task, schema string, rules ...string) (string, *repository.RowSet, error) {
	statement, err := r.provider.GenerateStatement(ctx, llm.StatementRequest{
		Task:   task,
		Schema: schema,
		Rules:  rules,
	})
	if err != nil {
		return "", nil, err
	}

	if !IsReadStatement(statement) {
		metrics.RejectedStatementsTotal.WithLabelValues(r.agent).Inc()
		logger.FromContext(ctx).Warn("generated statement rejected",
			"agent", r.agent,
			"statement", statement,
		)
		return statement, nil, domain.ErrNotReadStatement
	}

	set, err := r.runner.QueryReadOnly(ctx, statement)
	if err != nil {
		return statement, nil, fmt.Errorf("execute statement: %w", err)
	}
	return statement, set, nil
}
