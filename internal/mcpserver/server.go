// Package mcpserver exposes the agents and a balance lookup as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mtlprog/finagent/internal/agent"
	"github.com/mtlprog/finagent/internal/domain"
	"github.com/mtlprog/finagent/internal/llm"
	"github.com/mtlprog/finagent/internal/logger"
)

// Version is reported in the MCP handshake.
const Version = "v1.0.0"

// Balances looks up an account by number.
type Balances interface {
	Balance(ctx context.Context, accountNumber string) (*domain.Account, error)
}

// TaskInput is the input of every run_<agent> tool.
type TaskInput struct {
	Task string `json:"task" jsonschema:"the natural-language task for the agent"`
}

// BalanceInput is the input of get_account_balance.
type BalanceInput struct {
	AccountNumber string `json:"account_number" jsonschema:"the account number, e.g. ACC001"`
}

// BalanceOutput is the result of get_account_balance.
type BalanceOutput struct {
	AccountNumber string  `json:"account_number"`
	Balance       float64 `json:"balance"`
	Formatted     string  `json:"formatted"`
	Status        string  `json:"status"`
}

// New builds a server with one run_<agent> tool per registered agent and,
// when balances is non-nil, get_account_balance.
func New(provider *llm.Provider, agents *agent.Registry, balances Balances) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "finagent", Version: Version}, nil)

	for _, info := range agent.Catalog() {
		mcp.AddTool(server, &mcp.Tool{
			Name:        "run_" + info.Name,
			Description: info.Description,
		}, runAgent(provider, agents, info.Name))
	}

	if balances != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        "get_account_balance",
			Description: "Returns the current balance of an account",
		}, accountBalance(balances))
	}

	return server
}

func runAgent(provider *llm.Provider, agents *agent.Registry, name string) mcp.ToolHandlerFor[TaskInput, struct{}] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in TaskInput) (*mcp.CallToolResult, struct{}, error) {
		a, err := agents.Build(name, provider)
		if err != nil {
			return nil, struct{}{}, err
		}

		log := logger.FromContext(ctx).With("agent", name)
		log.Info("mcp tool call", "task", in.Task)

		res := a.Execute(logger.WithContext(ctx, log), in.Task)
		body, err := json.Marshal(res)
		if err != nil {
			return nil, struct{}{}, fmt.Errorf("encode %s result: %w", name, err)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(body)}},
			IsError: !res.Success,
		}, struct{}{}, nil
	}
}

func accountBalance(balances Balances) mcp.ToolHandlerFor[BalanceInput, BalanceOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in BalanceInput) (*mcp.CallToolResult, BalanceOutput, error) {
		acct, err := balances.Balance(ctx, in.AccountNumber)
		if errors.Is(err, domain.ErrAccountNotFound) {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Account %s not found", in.AccountNumber)}},
				IsError: true,
			}, BalanceOutput{}, nil
		}
		if err != nil {
			return nil, BalanceOutput{}, fmt.Errorf("balance lookup: %w", err)
		}

		out := BalanceOutput{
			AccountNumber: acct.AccountNumber,
			Balance:       acct.Balance.Round(2).InexactFloat64(),
			Formatted:     "$" + acct.Balance.StringFixed(2),
			Status:        acct.Status,
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{
				Text: fmt.Sprintf("Account %s balance: %s", out.AccountNumber, out.Formatted),
			}},
		}, out, nil
	}
}
