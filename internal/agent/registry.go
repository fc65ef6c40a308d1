package agent

import (
	"fmt"

	"github.com/mtlprog/finagent/internal/domain"
	"github.com/mtlprog/finagent/internal/llm"
)

// Deps are the store handles agents are built on.
type Deps struct {
	Runner    StatementRunner
	Ledger    Ledger
	Customers Customers
}

// Info describes one registered agent.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type constructor func(provider *llm.Provider, deps Deps) Agent

// agents is the closed set of agent kinds, in planning order.
var agents = []struct {
	name  string
	build constructor
}{
	{"query", func(p *llm.Provider, d Deps) Agent { return NewQueryAgent(p, d.Runner) }},
	{"transaction", func(p *llm.Provider, d Deps) Agent { return NewTransactionAgent(p, d.Ledger) }},
	{"analytics", func(p *llm.Provider, d Deps) Agent { return NewAnalyticsAgent(p, d.Runner) }},
	{"search", func(p *llm.Provider, d Deps) Agent { return NewSearchAgent(p, d.Runner) }},
	{"risk", func(p *llm.Provider, d Deps) Agent { return NewRiskAgent(p, d.Runner) }},
	{"export", func(p *llm.Provider, d Deps) Agent { return NewExportAgent(p, d.Runner) }},
	{"crud", func(p *llm.Provider, d Deps) Agent { return NewCRUDAgent(p, d.Customers) }},
}

// Registry builds agents by name for one provider at a time.
type Registry struct {
	deps Deps
}

// NewRegistry creates a Registry whose agents share deps.
func NewRegistry(deps Deps) *Registry {
	return &Registry{deps: deps}
}

// Build returns the agent called name, bound to provider.
func (r *Registry) Build(name string, provider *llm.Provider) (Agent, error) {
	for _, a := range agents {
		if a.name == name {
			return a.build(provider, r.deps), nil
		}
	}
	return nil, fmt.Errorf("%w: %s. Available: %v", domain.ErrUnknownAgent, name, Names())
}

// Names returns every agent name in planning order.
func Names() []string {
	names := make([]string, len(agents))
	for i, a := range agents {
		names[i] = a.name
	}
	return names
}

// Catalog lists every agent with its description.
func Catalog() []Info {
	infos := make([]Info, len(agents))
	for i, a := range agents {
		infos[i] = Info{Name: a.name, Description: a.build(nil, Deps{}).Description()}
	}
	return infos
}
