package policy

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// CatalogueVersion is the only policy file version this build understands.
const CatalogueVersion = 1

// Tier names used in the policy file.
const (
	TierOperator = "operator"
	TierAdmin    = "admin"
)

var ErrInvalidCatalogue = errors.New("invalid policy catalogue")

//go:embed default_policy.yaml
var defaultPolicy []byte

// Pattern is one compiled allow-list entry.
type Pattern struct {
	Tier        string
	Expr        string
	Description string

	re *regexp.Regexp
}

// Match reports whether command starts with text accepted by the pattern.
func (p *Pattern) Match(command string) bool {
	return p.re.MatchString(command)
}

// Example is a sample command shown to operators.
type Example struct {
	Command     string `yaml:"command" json:"command"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// ExampleGroup groups related examples under a heading.
type ExampleGroup struct {
	Group    string    `yaml:"group" json:"group"`
	Commands []Example `yaml:"commands" json:"commands"`
}

// Catalogue holds the ordered pattern tables. It is never modified after
// load and is safe to share between goroutines.
type Catalogue struct {
	operator []*Pattern
	admin    []*Pattern
	examples []ExampleGroup
}

type catalogueFile struct {
	Version  int                      `yaml:"version"`
	Tiers    map[string][]patternFile `yaml:"tiers"`
	Examples []ExampleGroup           `yaml:"examples"`
}

type patternFile struct {
	Pattern     string `yaml:"pattern"`
	Description string `yaml:"description"`
}

// Default returns the catalogue compiled into the binary.
func Default() (*Catalogue, error) {
	return Parse(defaultPolicy)
}

// LoadFile reads and validates a policy file. An empty path selects the
// built-in catalogue.
func LoadFile(path string) (*Catalogue, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy %s: %w", path, err)
	}
	catalogue, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load policy %s: %w", path, err)
	}
	return catalogue, nil
}

// Parse decodes and validates a policy document.
func Parse(data []byte) (*Catalogue, error) {
	var file catalogueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalogue, err)
	}
	if file.Version != CatalogueVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidCatalogue, file.Version)
	}

	for tier := range file.Tiers {
		if tier != TierOperator && tier != TierAdmin {
			return nil, fmt.Errorf("%w: unknown tier %q", ErrInvalidCatalogue, tier)
		}
	}

	operator, err := compileTier(TierOperator, file.Tiers[TierOperator])
	if err != nil {
		return nil, err
	}
	admin, err := compileTier(TierAdmin, file.Tiers[TierAdmin])
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(operator))
	for _, p := range operator {
		seen[strings.ToLower(p.Expr)] = struct{}{}
	}
	for _, p := range admin {
		if _, dup := seen[strings.ToLower(p.Expr)]; dup {
			return nil, fmt.Errorf("%w: pattern %q appears in both tiers", ErrInvalidCatalogue, p.Expr)
		}
	}

	for _, group := range file.Examples {
		if strings.TrimSpace(group.Group) == "" {
			return nil, fmt.Errorf("%w: example group without a name", ErrInvalidCatalogue)
		}
	}

	return &Catalogue{operator: operator, admin: admin, examples: file.Examples}, nil
}

func compileTier(tier string, entries []patternFile) ([]*Pattern, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: tier %q has no patterns", ErrInvalidCatalogue, tier)
	}

	patterns := make([]*Pattern, 0, len(entries))
	within := make(map[string]struct{}, len(entries))
	for i, entry := range entries {
		expr := strings.TrimSpace(entry.Pattern)
		if expr == "" {
			return nil, fmt.Errorf("%w: %s pattern %d is empty", ErrInvalidCatalogue, tier, i)
		}
		if _, dup := within[expr]; dup {
			return nil, fmt.Errorf("%w: %s pattern %q is listed twice", ErrInvalidCatalogue, tier, expr)
		}
		within[expr] = struct{}{}

		re, err := compilePattern(expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %s pattern %q: %v", ErrInvalidCatalogue, tier, expr, err)
		}
		patterns = append(patterns, &Pattern{
			Tier:        tier,
			Expr:        expr,
			Description: strings.TrimSpace(entry.Description),
			re:          re,
		})
	}
	return patterns, nil
}

// compilePattern anchors expr at the start of the input only, so a pattern
// without a trailing $ accepts any suffix.
func compilePattern(expr string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)^(?:` + strings.TrimPrefix(expr, "^") + `)`)
}

// Operator returns the operator-tier patterns in catalogue order.
func (c *Catalogue) Operator() []*Pattern {
	return append([]*Pattern(nil), c.operator...)
}

// Admin returns the admin-tier patterns in catalogue order.
func (c *Catalogue) Admin() []*Pattern {
	return append([]*Pattern(nil), c.admin...)
}

// Examples returns the example groups in catalogue order.
func (c *Catalogue) Examples() []ExampleGroup {
	groups := make([]ExampleGroup, len(c.examples))
	for i, group := range c.examples {
		groups[i] = ExampleGroup{
			Group:    group.Group,
			Commands: append([]Example(nil), group.Commands...),
		}
	}
	return groups
}
