package policy

import (
	"strings"

	"github.com/TheGojiOG/mcadmin/internal/auth"
)

// Decision is the outcome of one authorization check. Pattern is set only
// when the command was allowed.
type Decision struct {
	Allowed bool
	Pattern *Pattern
}

// Engine authorizes free-form console commands against a catalogue.
type Engine struct {
	catalogue     *Catalogue
	operatorOnly  []*Pattern
	operatorAdmin []*Pattern
}

// NewEngine creates an engine over catalogue.
func NewEngine(catalogue *Catalogue) *Engine {
	operatorAdmin := make([]*Pattern, 0, len(catalogue.operator)+len(catalogue.admin))
	operatorAdmin = append(operatorAdmin, catalogue.operator...)
	operatorAdmin = append(operatorAdmin, catalogue.admin...)

	return &Engine{
		catalogue:     catalogue,
		operatorOnly:  catalogue.operator,
		operatorAdmin: operatorAdmin,
	}
}

func (e *Engine) candidates(roles auth.RoleSet) []*Pattern {
	switch roles.Tier() {
	case auth.TierAdmin:
		return e.operatorAdmin
	case auth.TierOperator:
		return e.operatorOnly
	default:
		return nil
	}
}

// Authorize checks command against the patterns available to roles. The
// first matching pattern wins.
func (e *Engine) Authorize(command string, roles auth.RoleSet) Decision {
	command = strings.TrimSpace(command)
	for _, pattern := range e.candidates(roles) {
		if pattern.Match(command) {
			return Decision{Allowed: true, Pattern: pattern}
		}
	}
	return Decision{}
}

// Allowed is the boolean form of Authorize.
func (e *Engine) Allowed(command string, roles auth.RoleSet) bool {
	return e.Authorize(command, roles).Allowed
}

// AllowedPatterns lists the pattern expressions visible to roles, keyed by
// tier. Viewers and callers without a role get an empty map.
func (e *Engine) AllowedPatterns(roles auth.RoleSet) map[string][]string {
	result := map[string][]string{}
	switch roles.Tier() {
	case auth.TierAdmin:
		result[TierOperator] = exprs(e.catalogue.operator)
		result[TierAdmin] = exprs(e.catalogue.admin)
	case auth.TierOperator:
		result[TierOperator] = exprs(e.catalogue.operator)
	}
	return result
}

// Examples returns the catalogue's example commands.
func (e *Engine) Examples() []ExampleGroup {
	return e.catalogue.Examples()
}

func exprs(patterns []*Pattern) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = p.Expr
	}
	return out
}
