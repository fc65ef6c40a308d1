package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/finagent/internal/llm/llmtest"
	"github.com/mtlprog/finagent/internal/metrics"
	"github.com/mtlprog/finagent/internal/repository"
)

func TestIsReadStatement(t *testing.T) {
	tests := []struct {
		statement string
		want      bool
	}{
		{"SELECT * FROM customers", true},
		{"  select id from accounts;", true},
		{"Select\n\tcount(*) FROM transactions", true},
		{"SELECT*FROM loans", true},
		{"DELETE FROM customers", false},
		{"UPDATE accounts SET balance = 0", false},
		{"WITH x AS (SELECT 1) SELECT * FROM x", false},
		{"-- list\nSELECT 1", false},
		{"SELECT 1; DROP TABLE customers", false},
		{"SELECTED", false},
		{"", false},
		{";", false},
	}

	for _, tt := range tests {
		t.Run(tt.statement, func(t *testing.T) {
			assert.Equal(t, tt.want, IsReadStatement(tt.statement))
		})
	}
}

func TestQueryAgent_ReturnsRowsInColumnOrder(t *testing.T) {
	backend := llmtest.New("```sql\nSELECT id, first_name FROM customers\n```")
	runner := &fakeRunner{set: &repository.RowSet{
		Columns: []string{"id", "first_name"},
		Rows:    [][]any{{int64(1), "Ann"}, {int64(2), "Bob"}},
	}}

	res := NewQueryAgent(backend.Provider(), runner).Execute(context.Background(), "list customers")

	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Found 2 records", res.Message)
	assert.Equal(t, "SELECT id, first_name FROM customers", res.Statement)
	assert.Equal(t, []string{"SELECT id, first_name FROM customers"}, runner.statements)

	encoded, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"success": true,
		"data": [{"id": 1, "first_name": "Ann"}, {"id": 2, "first_name": "Bob"}],
		"message": "Found 2 records",
		"sql": "SELECT id, first_name FROM customers"
	}`, string(encoded))
}

func TestQueryAgent_RejectsMutatingStatement(t *testing.T) {
	backend := llmtest.New("DELETE FROM customers")
	runner := &fakeRunner{}
	before := testutil.ToFloat64(metrics.RejectedStatementsTotal.WithLabelValues("query"))

	res := NewQueryAgent(backend.Provider(), runner).Execute(context.Background(), "remove everyone")

	assert.False(t, res.Success)
	assert.Equal(t, "Query agent can only execute SELECT queries", res.Message)
	assert.Equal(t, "DELETE FROM customers", res.Statement)
	assert.Empty(t, runner.statements)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RejectedStatementsTotal.WithLabelValues("query")))
}

func TestQueryAgent_Failures(t *testing.T) {
	runner := &fakeRunner{err: errors.New("relation \"clients\" does not exist")}
	res := NewQueryAgent(llmtest.New("SELECT * FROM clients").Provider(), runner).
		Execute(context.Background(), "list clients")
	assert.False(t, res.Success)
	assert.Equal(t, `Query failed: execute statement: relation "clients" does not exist`, res.Message)
	assert.Equal(t, "SELECT * FROM clients", res.Statement)

	backend := llmtest.New().Push(llmtest.Reply{Err: errors.New("backend down")})
	res = NewQueryAgent(backend.Provider(), &fakeRunner{}).Execute(context.Background(), "list clients")
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "Query failed: ")
	assert.Contains(t, res.Message, "backend down")
}

func TestSearchAgent_AsksForPartialMatches(t *testing.T) {
	backend := llmtest.New("SELECT * FROM customers WHERE last_name ILIKE '%smi%'")
	runner := &fakeRunner{set: &repository.RowSet{Columns: []string{"id"}, Rows: [][]any{{int64(3)}}}}

	res := NewSearchAgent(backend.Provider(), runner).Execute(context.Background(), "find smi")

	require.True(t, res.Success)
	assert.Equal(t, "Found 1 matching records", res.Message)
	require.Len(t, backend.Requests(), 1)
	assert.Contains(t, backend.Requests()[0].SystemPrompt, "ILIKE with % wildcards")
	assert.Contains(t, backend.Requests()[0].SystemPrompt, "Search patterns")
}

func TestSearchAgent_RejectsMutatingStatement(t *testing.T) {
	runner := &fakeRunner{}
	res := NewSearchAgent(llmtest.New("UPDATE customers SET city = 'x'").Provider(), runner).
		Execute(context.Background(), "find x")
	assert.Equal(t, "Search agent can only execute SELECT queries", res.Message)
	assert.Empty(t, runner.statements)
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"100", "$100.00"},
		{"1234.5", "$1,234.50"},
		{"1234567.891", "$1,234,567.89"},
		{"999.999", "$1,000.00"},
		{"-42.5", "-$42.50"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, formatCurrency(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestAnalyticsAgent_FormatsMoneyColumns(t *testing.T) {
	runner := &fakeRunner{set: &repository.RowSet{
		Columns: []string{"branch", "total_balance", "avg_amount", "account_count", "note_total"},
		Rows: [][]any{
			{"Downtown", 1234.5, nil, int64(3), "n/a"},
			{"Airport", int64(0), 10.0, int64(1), nil},
		},
	}}

	res := NewAnalyticsAgent(llmtest.New("SELECT b.name AS branch FROM branches b").Provider(), runner).
		Execute(context.Background(), "balances by branch")

	require.True(t, res.Success)
	assert.Equal(t, "Generated analytics with 2 rows", res.Message)

	rows, ok := res.Data.([]Record)
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, Record{
		{Name: "branch", Value: "Downtown"},
		{Name: "total_balance", Value: "$1,234.50"},
		{Name: "avg_amount", Value: "$0.00"},
		{Name: "account_count", Value: int64(3)},
		{Name: "note_total", Value: "n/a"},
	}, rows[0])
	assert.Equal(t, Record{
		{Name: "branch", Value: "Airport"},
		{Name: "total_balance", Value: "$0.00"},
		{Name: "avg_amount", Value: "$10.00"},
		{Name: "account_count", Value: int64(1)},
		{Name: "note_total", Value: "$0.00"},
	}, rows[1])
}

func TestClassifyAmount(t *testing.T) {
	tests := []struct {
		amount string
		want   RiskLevel
	}{
		{"0", RiskLow},
		{"9999", RiskLow},
		{"9999.99", RiskLow},
		{"10000", RiskMedium},
		{"24999.99", RiskMedium},
		{"25000", RiskHigh},
		{"49999", RiskHigh},
		{"50000", RiskCritical},
		{"1000000", RiskCritical},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyAmount(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestRiskAgent_FlagsHighAndCritical(t *testing.T) {
	runner := &fakeRunner{set: &repository.RowSet{
		Columns: []string{"transaction_id", "amount"},
		Rows: [][]any{
			{"T1", 50000.0},
			{"T2", 25000.0},
			{"T3", 10000.0},
			{"T4", 9999.0},
			{"T5", nil},
		},
	}}

	res := NewRiskAgent(llmtest.New("SELECT transaction_id, amount FROM transactions ORDER BY amount DESC").Provider(), runner).
		Execute(context.Background(), "find large transactions")

	require.True(t, res.Success)
	assert.Equal(t, "Analyzed 5 transactions, 2 flagged for review", res.Message)

	report, ok := res.Data.(RiskReport)
	require.True(t, ok)
	assert.Equal(t, 5, report.TotalCount)
	assert.Equal(t, 2, report.FlaggedCount)
	assert.Equal(t, map[RiskLevel]int{RiskLow: 2, RiskMedium: 1, RiskHigh: 1, RiskCritical: 1}, report.Counts)

	levels := make([]any, 0, len(report.AllResults))
	for _, row := range report.AllResults {
		v, _ := row.Get("risk_level")
		levels = append(levels, v)
	}
	assert.Equal(t, []any{"CRITICAL", "HIGH", "MEDIUM", "LOW", "LOW"}, levels)

	flaggedIDs := make([]any, 0, len(report.Flagged))
	for _, row := range report.Flagged {
		v, _ := row.Get("transaction_id")
		flaggedIDs = append(flaggedIDs, v)
	}
	assert.Equal(t, []any{"T1", "T2"}, flaggedIDs)
}

func TestRiskAgent_EmptyResultHasEmptyFlaggedList(t *testing.T) {
	res := NewRiskAgent(llmtest.New("SELECT amount FROM transactions").Provider(), &fakeRunner{}).
		Execute(context.Background(), "anything odd?")

	require.True(t, res.Success)
	encoded, err := json.Marshal(res.Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"all_results": [],
		"flagged": [],
		"flagged_count": 0,
		"total_count": 0,
		"counts": {"LOW": 0, "MEDIUM": 0, "HIGH": 0, "CRITICAL": 0}
	}`, string(encoded))
}

func TestRiskAgent_Failures(t *testing.T) {
	runner := &fakeRunner{err: errors.New("timeout")}
	res := NewRiskAgent(llmtest.New("SELECT 1").Provider(), runner).Execute(context.Background(), "x")
	assert.Equal(t, "Risk analysis failed: execute statement: timeout", res.Message)

	untouched := &fakeRunner{}
	res = NewRiskAgent(llmtest.New("DROP TABLE transactions").Provider(), untouched).Execute(context.Background(), "x")
	assert.False(t, res.Success)
	assert.Equal(t, "Risk agent can only execute SELECT queries", res.Message)
	assert.Empty(t, untouched.statements)
}

func TestAnalyticsAgent_Failures(t *testing.T) {
	runner := &fakeRunner{err: errors.New("timeout")}
	res := NewAnalyticsAgent(llmtest.New("SELECT 1").Provider(), runner).Execute(context.Background(), "x")
	assert.False(t, res.Success)
	assert.Equal(t, "Analytics failed: execute statement: timeout", res.Message)

	untouched := &fakeRunner{}
	res = NewAnalyticsAgent(llmtest.New("UPDATE accounts SET balance = 0").Provider(), untouched).
		Execute(context.Background(), "zero every balance")
	assert.False(t, res.Success)
	assert.Equal(t, "Analytics agent can only execute SELECT queries", res.Message)
	assert.Equal(t, "UPDATE accounts SET balance = 0", res.Statement)
	assert.Empty(t, untouched.statements)
}

func TestClassifyExport(t *testing.T) {
	assert.Equal(t, FormatStatement, ClassifyExport("Generate a statement as CSV for CHK-1"))
	assert.Equal(t, FormatCSV, ClassifyExport("Export customers as CSV"))
	assert.Equal(t, FormatReport, ClassifyExport("Quarterly summary"))
}

func fixedExportAgent(content string, runner StatementRunner) (*ExportAgent, *llmtest.Backend) {
	backend := llmtest.New(content)
	a := NewExportAgent(backend.Provider(), runner)
	a.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return a, backend
}

func TestExportAgent_Statement(t *testing.T) {
	runner := &fakeRunner{set: &repository.RowSet{
		Columns: []string{"transaction_id", "amount"},
		Rows:    [][]any{{"T1", 10.0}, {"T2", 20.0}},
	}}
	a, backend := fixedExportAgent("SELECT transaction_id, amount FROM transactions", runner)

	res := a.Execute(context.Background(), "statement for CHK-001")

	require.True(t, res.Success)
	assert.Equal(t, "Generated statement with 2 transactions", res.Message)
	assert.Contains(t, backend.Requests()[0].Prompt, "Get transactions for the account mentioned in: statement for CHK-001")

	stmt, ok := res.Data.(StatementExport)
	require.True(t, ok)
	assert.Equal(t, "2026-01-02T03:04:05Z", stmt.GeneratedAt)
	assert.Equal(t, 2, stmt.TransactionCount)
	assert.Equal(t, FormatStatement, stmt.Format)
}

func TestExportAgent_CSV(t *testing.T) {
	runner := &fakeRunner{set: &repository.RowSet{
		Columns: []string{"id", "name", "balance"},
		Rows: [][]any{
			{int64(1), "Ann, Jr", 1500.5},
			{int64(2), nil, 0.0},
		},
	}}
	a, _ := fixedExportAgent("SELECT id, name, balance FROM customers", runner)

	res := a.Execute(context.Background(), "export customers to csv")

	require.True(t, res.Success)
	assert.Equal(t, "Generated CSV with 2 rows and 3 columns", res.Message)
	doc, ok := res.Data.(CSVExport)
	require.True(t, ok)
	assert.Equal(t, "id,name,balance\n1,\"Ann, Jr\",1500.5\n2,,0\n", doc.CSV)
	assert.Equal(t, []string{"id", "name", "balance"}, doc.Columns)
	assert.Equal(t, 2, doc.RowCount)
}

func TestExportAgent_Report(t *testing.T) {
	runner := &fakeRunner{set: &repository.RowSet{Columns: []string{"tier", "customers"}, Rows: [][]any{{"VIP", int64(4)}}}}
	a, _ := fixedExportAgent("SELECT tier, customers FROM x", runner)

	res := a.Execute(context.Background(), "customers per tier")

	require.True(t, res.Success)
	assert.Equal(t, "Generated report with 1 rows", res.Message)
	report, ok := res.Data.(ReportExport)
	require.True(t, ok)
	assert.Equal(t, "Financial Report", report.Title)
	assert.Equal(t, "2026-01-02T03:04:05Z", report.GeneratedAt)
	assert.Equal(t, []string{"tier", "customers"}, report.Columns)
	assert.Equal(t, FormatReport, report.Format)
}

func TestExportAgent_RejectsMutatingStatement(t *testing.T) {
	runner := &fakeRunner{}
	a, _ := fixedExportAgent("TRUNCATE transactions", runner)

	res := a.Execute(context.Background(), "export csv")

	assert.False(t, res.Success)
	assert.Equal(t, "Export agent can only execute SELECT queries", res.Message)
	assert.Empty(t, runner.statements)
}
