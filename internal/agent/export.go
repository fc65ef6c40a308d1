package agent

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mtlprog/finagent/internal/llm"
)

// ExportFormat is the envelope an export is delivered in.
type ExportFormat string

const (
	FormatStatement ExportFormat = "statement"
	FormatCSV       ExportFormat = "csv"
	FormatReport    ExportFormat = "report"
)

// ClassifyExport picks the export format named by task. "statement" wins
// over "csv"; anything else is a report.
func ClassifyExport(task string) ExportFormat {
	lower := strings.ToLower(task)
	switch {
	case strings.Contains(lower, "statement"):
		return FormatStatement
	case strings.Contains(lower, "csv"):
		return FormatCSV
	default:
		return FormatReport
	}
}

// StatementExport is an account statement.
type StatementExport struct {
	GeneratedAt      string       `json:"generated_at"`
	Transactions     []Record     `json:"transactions"`
	TransactionCount int          `json:"transaction_count"`
	Format           ExportFormat `json:"format"`
}

// CSVExport carries the rows as one CSV document with a header line.
type CSVExport struct {
	CSV      string       `json:"csv"`
	Columns  []string     `json:"columns"`
	RowCount int          `json:"row_count"`
	Format   ExportFormat `json:"format"`
}

// ReportExport is a titled tabular report.
type ReportExport struct {
	Title       string       `json:"title"`
	GeneratedAt string       `json:"generated_at"`
	Columns     []string     `json:"columns"`
	Data        []Record     `json:"data"`
	RowCount    int          `json:"row_count"`
	Format      ExportFormat `json:"format"`
}

// ExportAgent builds statements, CSV exports and reports. It never mutates data.
type ExportAgent struct {
	reader reader
	now    func() time.Time
}

// NewExportAgent creates a new ExportAgent.
func NewExportAgent(provider *llm.Provider, runner StatementRunner) *ExportAgent {
	return &ExportAgent{
		reader: reader{agent: "export", provider: provider, runner: runner},
		now:    time.Now,
	}
}

func (a *ExportAgent) Name() string { return "export" }

func (a *ExportAgent) Description() string {
	return "Generates account statements, CSV exports, and formatted reports"
}

// Execute builds the export format named by task.
func (a *ExportAgent) Execute(ctx context.Context, task string) Result {
	format := ClassifyExport(task)

	request := task
	if format == FormatStatement {
		request = "Get transactions for the account mentioned in: " + task +
			". Include transaction_id, type, amount, description, created_at." +
			" Also get account balance and customer name."
	}

	statement, set, err := a.reader.read(ctx, request, bankSchema)
	if err != nil {
		return readFailure("Export", "Export", statement, err)
	}

	generatedAt := a.now().Format(time.RFC3339)
	rows := recordsFrom(set)

	switch format {
	case FormatStatement:
		return Result{
			Success: true,
			Data: StatementExport{
				GeneratedAt:      generatedAt,
				Transactions:     rows,
				TransactionCount: len(rows),
				Format:           FormatStatement,
			},
			Message:   fmt.Sprintf("Generated statement with %d transactions", len(rows)),
			Statement: statement,
		}
	case FormatCSV:
		doc, err := encodeCSV(set.Columns, set.Rows)
		if err != nil {
			return Result{Message: "Export failed: " + err.Error(), Statement: statement}
		}
		return Result{
			Success: true,
			Data: CSVExport{
				CSV:      doc,
				Columns:  set.Columns,
				RowCount: len(set.Rows),
				Format:   FormatCSV,
			},
			Message: fmt.Sprintf("Generated CSV with %d rows and %d columns",
				len(set.Rows), len(set.Columns)),
			Statement: statement,
		}
	default:
		return Result{
			Success: true,
			Data: ReportExport{
				Title:       "Financial Report",
				GeneratedAt: generatedAt,
				Columns:     set.Columns,
				Data:        rows,
				RowCount:    len(rows),
				Format:      FormatReport,
			},
			Message:   fmt.Sprintf("Generated report with %d rows", len(rows)),
			Statement: statement,
		}
	}
}

func encodeCSV(columns []string, rows [][]any) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(columns); err != nil {
		return "", err
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = csvValue(row[i])
			}
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}

	w.Flush()
	return buf.String(), w.Error()
}

func csvValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
