package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetbook/internal/core"
)

func TestClassifyDefaultTable(t *testing.T) {
	c := Default()
	cases := map[string]string{
		"Weekly GROCERY shopping": core.CategoryFood,
		"Dinner at restaurant":    core.CategoryFood,
		"Uber to airport":         core.CategoryTransportation,
		"Netflix subscription":    core.CategoryEntertainment,
		"New shoes":               core.CategoryShopping,
		"Electricity bill":        core.CategoryBills,
		"Birthday present":        core.CategoryOthers,
		"":                        core.CategoryOthers,
	}
	for desc, want := range cases {
		assert.Equal(t, want, c.Classify(desc), desc)
	}
}

func TestClassifyFirstRuleWins(t *testing.T) {
	c, err := New([]Rule{
		{Category: core.CategoryBills, Keywords: []string{"phone"}},
		{Category: core.CategoryShopping, Keywords: []string{"phone", "case"}},
	})
	require.NoError(t, err)
	assert.Equal(t, core.CategoryBills, c.Classify("phone case"))
	assert.Equal(t, core.CategoryShopping, c.Classify("laptop case"))
}

func TestClassifyAlwaysReturnsKnownLabel(t *testing.T) {
	c := Default()
	for _, desc := range []string{"x", "ÜBER", "12345", "grocery;rent;uber"} {
		assert.True(t, core.IsCategory(c.Classify(desc)), desc)
	}
}

func TestNewRejectsUnknownCategory(t *testing.T) {
	_, err := New([]Rule{{Category: "Pets", Keywords: []string{"dog"}}})
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestNewNormalizesKeywords(t *testing.T) {
	c, err := New([]Rule{{Category: core.CategoryFood, Keywords: []string{"  Bakery ", ""}}})
	require.NoError(t, err)
	assert.Equal(t, []Rule{{Category: core.CategoryFood, Keywords: []string{"bakery"}}}, c.Rules())
	assert.Equal(t, core.CategoryFood, c.Classify("BAKERY downtown"))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "categories.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`rules:
  - category: Entertainment
    keywords: [bowling]
  - category: Food
    keywords: [sushi, ramen]
`), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, core.CategoryEntertainment, c.Classify("Bowling night"))
	assert.Equal(t, core.CategoryFood, c.Classify("ramen"))
	assert.Equal(t, core.CategoryOthers, c.Classify("grocery"), "table replaces the defaults")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("rules: [\n"), 0o644))
	_, err = LoadFile(bad)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("rules: []\n"), 0o644))
	_, err = LoadFile(empty)
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
