package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/mtlprog/finagent/internal/llm"
)

var analyticsRules = []string{
	"Use SUM(), COUNT(), AVG() for aggregations",
	"Give every aggregate column a descriptive alias",
}

// currencyMarkers select the columns rendered as money.
var currencyMarkers = []string{"balance", "amount", "total"}

// AnalyticsAgent produces aggregations and statistics.
type AnalyticsAgent struct {
	reader reader
}

// NewAnalyticsAgent creates a new AnalyticsAgent.
func NewAnalyticsAgent(provider *llm.Provider, runner StatementRunner) *AnalyticsAgent {
	return &AnalyticsAgent{reader: reader{agent: "analytics", provider: provider, runner: runner}}
}

func (a *AnalyticsAgent) Name() string { return "analytics" }

func (a *AnalyticsAgent) Description() string {
	return "Generates financial aggregations, reports, and statistics"
}

// Execute runs an aggregation statement and formats money columns.
func (a *AnalyticsAgent) Execute(ctx context.Context, task string) Result {
	statement, set, err := a.reader.read(ctx, task, bankSchema+analyticsPatterns, analyticsRules...)
	if err != nil {
		return readFailure("Analytics", "Analytics", statement, err)
	}

	rows := recordsFrom(set)
	for _, row := range rows {
		formatMoneyFields(row)
	}

	return Result{
		Success:   true,
		Data:      rows,
		Message:   fmt.Sprintf("Generated analytics with %d rows", len(rows)),
		Statement: statement,
	}
}

// formatMoneyFields rewrites numeric or null money columns of row in place.
// Text values are left untouched.
func formatMoneyFields(row Record) {
	for i, f := range row {
		if !isCurrencyColumn(f.Name) {
			continue
		}
		if f.Value == nil {
			row[i].Value = "$0.00"
			continue
		}
		if _, isText := f.Value.(string); isText {
			continue
		}
		if d, ok := toDecimal(f.Value); ok {
			row[i].Value = formatCurrency(d)
		}
	}
}

func isCurrencyColumn(name string) bool {
	lower := strings.ToLower(name)
	for _, m := range currencyMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
