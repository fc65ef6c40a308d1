package agent

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/finagent/internal/llm"
)

// RiskLevel grades one transaction by amount.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

var (
	criticalThreshold = decimal.NewFromInt(50000)
	highThreshold     = decimal.NewFromInt(25000)
	mediumThreshold   = decimal.NewFromInt(10000)
)

// ClassifyAmount grades amount against the fixed thresholds.
func ClassifyAmount(amount decimal.Decimal) RiskLevel {
	switch {
	case amount.GreaterThanOrEqual(criticalThreshold):
		return RiskCritical
	case amount.GreaterThanOrEqual(highThreshold):
		return RiskHigh
	case amount.GreaterThanOrEqual(mediumThreshold):
		return RiskMedium
	default:
		return RiskLow
	}
}

// Flagged reports whether the level needs review.
func (l RiskLevel) Flagged() bool {
	return l == RiskHigh || l == RiskCritical
}

// RiskReport is the data of a risk analysis.
type RiskReport struct {
	AllResults   []Record          `json:"all_results"`
	Flagged      []Record          `json:"flagged"`
	FlaggedCount int               `json:"flagged_count"`
	TotalCount   int               `json:"total_count"`
	Counts       map[RiskLevel]int `json:"counts"`
}

var riskRules = []string{
	"Sort results by amount DESC to show largest first",
	"Include customer name and account number in results",
	"Always select the transaction amount as a column named amount",
}

// RiskAgent flags large or unusual transactions.
type RiskAgent struct {
	reader reader
}

// NewRiskAgent creates a new RiskAgent.
func NewRiskAgent(provider *llm.Provider, runner StatementRunner) *RiskAgent {
	return &RiskAgent{reader: reader{agent: "risk", provider: provider, runner: runner}}
}

func (a *RiskAgent) Name() string { return "risk" }

func (a *RiskAgent) Description() string {
	return "Detects suspicious transactions, anomalies, and potential fraud"
}

// Execute runs the generated statement and grades every row.
func (a *RiskAgent) Execute(ctx context.Context, task string) Result {
	statement, set, err := a.reader.read(ctx, task, bankSchema+riskPatterns, riskRules...)
	if err != nil {
		return readFailure("Risk", "Risk analysis", statement, err)
	}

	report := assessRisk(recordsFrom(set))
	return Result{
		Success: true,
		Data:    report,
		Message: fmt.Sprintf("Analyzed %d transactions, %d flagged for review",
			report.TotalCount, report.FlaggedCount),
		Statement: statement,
	}
}

// assessRisk adds a risk_level field to every row. Rows without a numeric
// amount are graded as zero.
func assessRisk(rows []Record) RiskReport {
	report := RiskReport{
		AllResults: rows,
		Flagged:    []Record{},
		TotalCount: len(rows),
		Counts: map[RiskLevel]int{
			RiskLow: 0, RiskMedium: 0, RiskHigh: 0, RiskCritical: 0,
		},
	}

	for i := range rows {
		amount := decimal.Zero
		if v, ok := rows[i].Get("amount"); ok {
			if d, ok := toDecimal(v); ok {
				amount = d
			}
		}

		level := ClassifyAmount(amount)
		rows[i].Set("risk_level", string(level))
		report.Counts[level]++
		if level.Flagged() {
			report.Flagged = append(report.Flagged, rows[i])
		}
	}

	report.FlaggedCount = len(report.Flagged)
	return report
}
