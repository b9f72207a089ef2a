// Package guesser suggests a category and location for an item name from keyword rules.
package guesser

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// Rule maps keywords to target names in preference order.
type Rule struct {
	Targets  []string `yaml:"targets"`
	Keywords []string `yaml:"keywords"`
}

// Rules is the full keyword table.
type Rules struct {
	Categories []Rule `yaml:"categories"`
	Locations  []Rule `yaml:"locations"`
}

// DefaultRules returns the embedded table.
func DefaultRules() (*Rules, error) {
	return ParseRules(defaultRules)
}

// ParseRules decodes a YAML keyword table.
func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse guesser rules: %w", err)
	}
	for i, rule := range r.Categories {
		if len(rule.Targets) == 0 {
			return nil, fmt.Errorf("category rule %d has no targets", i)
		}
	}
	for i, rule := range r.Locations {
		if len(rule.Targets) == 0 {
			return nil, fmt.Errorf("location rule %d has no targets", i)
		}
	}
	return &r, nil
}

// Names resolves target names to ids for the current inventory.
type Names map[string]int

// Guesser evaluates rules against names resolved at construction time.
type Guesser struct {
	rules      *Rules
	categories Names
	locations  Names
}

// New binds rules to the given category and location names.
func New(rules *Rules, categories, locations Names) *Guesser {
	return &Guesser{rules: rules, categories: categories, locations: locations}
}

// Category returns the category id for name, or nil.
func (g *Guesser) Category(name string) *int {
	return match(g.rules.Categories, g.categories, name)
}

// Location returns the suggested location id for name, or nil.
func (g *Guesser) Location(name string) *int {
	return match(g.rules.Locations, g.locations, name)
}

// CategoryByName resolves a category name with the same fallbacks the rules use.
func (g *Guesser) CategoryByName(name string) *int {
	for _, rule := range g.rules.Categories {
		if rule.Targets[0] == name {
			return resolve(rule.Targets, g.categories)
		}
	}
	return resolve([]string{name}, g.categories)
}

func match(rules []Rule, ids Names, name string) *int {
	lower := strings.ToLower(name)
	for _, rule := range rules {
		if !containsAny(lower, rule.Keywords) {
			continue
		}
		if id := resolve(rule.Targets, ids); id != nil {
			return id
		}
	}
	return nil
}

func resolve(targets []string, ids Names) *int {
	for _, t := range targets {
		if id, ok := ids[t]; ok {
			return &id
		}
	}
	return nil
}

func containsAny(lower string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
