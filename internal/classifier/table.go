package classifier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"budgetbook/internal/core"
)

// DefaultRules is the built-in keyword table.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category: core.CategoryFood,
			Keywords: []string{"grocery", "groceries", "food", "restaurant", "supermarket", "lunch", "dinner", "breakfast", "coffee", "cafe", "pizza", "bakery", "takeout"},
		},
		{
			Category: core.CategoryTransportation,
			Keywords: []string{"taxi", "uber", "bus", "train", "metro", "subway", "fuel", "gas station", "petrol", "parking", "toll", "flight", "transport"},
		},
		{
			Category: core.CategoryEntertainment,
			Keywords: []string{"movie", "cinema", "concert", "netflix", "spotify", "game", "theater", "theatre", "museum", "entertainment"},
		},
		{
			Category: core.CategoryShopping,
			Keywords: []string{"shopping", "amazon", "clothes", "clothing", "shoes", "mall", "store", "electronics"},
		},
		{
			Category: core.CategoryBills,
			Keywords: []string{"bill", "rent", "electricity", "water", "internet", "phone", "insurance", "utility", "utilities", "mortgage"},
		},
	}
}

type tableFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadFile reads a YAML keyword table:
//
//	rules:
//	  - category: Food
//	    keywords: [grocery, bakery]
//
// Every category must be one of core.Categories.
func LoadFile(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read category table: %w", err)
	}
	var tf tableFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse category table %s: %w", path, err)
	}
	if len(tf.Rules) == 0 {
		return nil, fmt.Errorf("category table %s has no rules", path)
	}
	return New(tf.Rules)
}
