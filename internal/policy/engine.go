// Package policy provides the CEL-Go based allocation policy engine.
// Policies are boolean eligibility expressions that screen candidate
// agencies before matching; they never alter the scoring math.
package policy

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/collectworks/harrier/internal/domain"
)

// Engine compiles and evaluates allocation policies.
type Engine struct {
	mu       sync.RWMutex
	env      *cel.Env
	compiled map[string]*CompiledPolicy
}

// CompiledPolicy holds a pre-compiled CEL program.
type CompiledPolicy struct {
	Config  *domain.PolicyConfig
	Program cel.Program
}

// NewEngine creates the policy engine with case and agency variables bound.
func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("c", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("agency", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("days_past_due", cel.IntType),
		cel.Variable("segment", cel.StringType),
		cel.Variable("payment_history", cel.DoubleType),
		cel.Variable("previous_payments", cel.IntType),
		cel.Variable("agency_rate", cel.DoubleType),
		cel.Variable("agency_capacity", cel.IntType),
		cel.Variable("agency_performance", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:      env,
		compiled: make(map[string]*CompiledPolicy),
	}, nil
}

// ValidatePolicy compiles a policy without mutating the loaded set.
func (e *Engine) ValidatePolicy(cfg *domain.PolicyConfig) error {
	if cfg == nil {
		return fmt.Errorf("policy config is required")
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	_, err := e.compilePolicy(cfg)
	return err
}

// LoadPolicy compiles and loads a single policy.
func (e *Engine) LoadPolicy(cfg *domain.PolicyConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	compiled, err := e.compilePolicy(cfg)
	if err != nil {
		return err
	}

	e.compiled[cfg.ID] = compiled

	return nil
}

// LoadPolicies compiles and loads every enabled policy.
func (e *Engine) LoadPolicies(configs []*domain.PolicyConfig) error {
	for _, cfg := range configs {
		if cfg.Enabled {
			if err := e.LoadPolicy(cfg); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReloadPolicies atomically replaces the loaded set with the given configs.
// This enables hot-reloading of policies from the database.
func (e *Engine) ReloadPolicies(configs []*domain.PolicyConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := make(map[string]*CompiledPolicy)
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		compiled, err := e.compilePolicy(cfg)
		if err != nil {
			return err
		}
		next[cfg.ID] = compiled
	}

	e.compiled = next

	return nil
}

// activation builds the CEL variable bindings for one case/agency pair.
func activation(c domain.CaseAttributes, agency domain.AgencyProfile) map[string]any {
	return map[string]any{
		"c": map[string]any{
			"id":                c.CaseID,
			"amount":            c.OutstandingAmount,
			"days_past_due":     c.DaysPastDue,
			"segment":           string(c.Segment),
			"payment_history":   c.PaymentHistoryScore,
			"previous_payments": c.PreviousPayments,
		},
		"agency": map[string]any{
			"id":          agency.ID,
			"name":        agency.Name,
			"specialties": agency.Specialties,
			"rate":        agency.RecoveryRate,
			"capacity":    agency.CapacityAvailable,
			"min_amount":  agency.MinAmount,
			"performance": agency.PerformanceScore,
		},
		"amount":             c.OutstandingAmount,
		"days_past_due":      c.DaysPastDue,
		"segment":            string(c.Segment),
		"payment_history":    c.PaymentHistoryScore,
		"previous_payments":  c.PreviousPayments,
		"agency_rate":        agency.RecoveryRate,
		"agency_capacity":    agency.CapacityAvailable,
		"agency_performance": agency.PerformanceScore,
	}
}

// Eligible reports whether the agency passes every loaded policy for the
// case. A policy that fails to evaluate is skipped, so a broken expression
// cannot empty the candidate pool; the first such error is returned for
// logging.
func (e *Engine) Eligible(c domain.CaseAttributes, agency domain.AgencyProfile) (bool, error) {
	e.mu.RLock()
	policies := make([]*CompiledPolicy, 0, len(e.compiled))
	for _, p := range e.compiled {
		policies = append(policies, p)
	}
	e.mu.RUnlock()

	if len(policies) == 0 {
		return true, nil
	}

	vars := activation(c, agency)
	var firstErr error
	for _, p := range policies {
		out, _, err := p.Program.Eval(vars)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("policy %s: %w", p.Config.ID, err)
			}
			continue
		}
		if b, ok := out.(types.Bool); ok && !bool(b) {
			return false, firstErr
		}
	}

	return true, firstErr
}

// Filter returns the candidates that pass every loaded policy, preserving
// input order. With no policies loaded the input is returned unchanged.
func (e *Engine) Filter(c domain.CaseAttributes, candidates []domain.AgencyProfile) ([]domain.AgencyProfile, error) {
	if e.PolicyCount() == 0 {
		return candidates, nil
	}

	eligible := make([]domain.AgencyProfile, 0, len(candidates))
	var firstErr error
	for _, agency := range candidates {
		ok, err := e.Eligible(c, agency)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if ok {
			eligible = append(eligible, agency)
		}
	}
	return eligible, firstErr
}

// PolicyCount returns the number of loaded policies.
func (e *Engine) PolicyCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiled)
}

// GetLoadedPolicies returns the currently loaded policy configurations.
func (e *Engine) GetLoadedPolicies() []*domain.PolicyConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()

	policies := make([]*domain.PolicyConfig, 0, len(e.compiled))
	for _, p := range e.compiled {
		policies = append(policies, p.Config)
	}
	return policies
}

// Close clears the loaded policy set.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiled = make(map[string]*CompiledPolicy)
	return nil
}

func (e *Engine) compilePolicy(cfg *domain.PolicyConfig) (*CompiledPolicy, error) {
	ast, issues := e.env.Compile(cfg.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile policy %s: %w", cfg.ID, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("policy %s: expression must return bool, got %s", cfg.ID, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for policy %s: %w", cfg.ID, err)
	}

	return &CompiledPolicy{
		Config:  cfg,
		Program: program,
	}, nil
}
