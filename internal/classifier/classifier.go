// Package classifier assigns one of the fixed category labels to a free-text
// transaction description by case-insensitive keyword matching.
package classifier

import (
	"errors"
	"fmt"
	"strings"

	"budgetbook/internal/core"
)

var ErrUnknownCategory = errors.New("unknown category")

// Rule maps a keyword set to a category label.
type Rule struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// Classifier is immutable after construction and safe for concurrent use.
type Classifier struct {
	rules    []Rule
	fallback string
}

// New builds a classifier from rules, checked in order; the first rule with a
// matching keyword wins. Keywords are lower-cased once here.
func New(rules []Rule) (*Classifier, error) {
	compiled := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if !core.IsCategory(r.Category) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, r.Category)
		}
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				kws = append(kws, kw)
			}
		}
		compiled = append(compiled, Rule{Category: r.Category, Keywords: kws})
	}
	return &Classifier{rules: compiled, fallback: core.DefaultCategory}, nil
}

// Default returns a classifier over DefaultRules.
func Default() *Classifier {
	c, err := New(DefaultRules())
	if err != nil {
		panic(err)
	}
	return c
}

// Classify returns the category for description. It never fails: anything
// unmatched is core.DefaultCategory.
func (c *Classifier) Classify(description string) string {
	lower := strings.ToLower(description)
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				return r.Category
			}
		}
	}
	return c.fallback
}

// Rules returns a copy of the compiled rule table.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = Rule{Category: r.Category, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}
