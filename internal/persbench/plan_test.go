package persbench

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubsetPlanIsOrderedPrefixOfFullPlan(t *testing.T) {
	full := ResolvePlan(false)
	subset := ResolvePlan(true)

	require.Less(t, len(subset), len(full))
	// Core targets keep their relative order and precede the extended set.
	assert.Equal(t, full[:len(subset)], subset)
}

func TestPlanTargetsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, target := range ResolvePlan(false) {
		assert.False(t, seen[target], "duplicate target %s", target)
		seen[target] = true
	}
}

func TestEveryCatalogEntryIsPlanned(t *testing.T) {
	planned := make(map[string]bool)
	for _, target := range ResolvePlan(false) {
		planned[target] = true
	}
	for target := range recipes {
		assert.True(t, planned[target], "recipe for %s is not in any plan", target)
	}
}

func TestExactlyOneRecoverableTarget(t *testing.T) {
	var recoverable []string
	for _, target := range ResolvePlan(false) {
		if recipeFor(target).Recoverable {
			recoverable = append(recoverable, target)
		}
	}
	require.Equal(t, []string{"diamorse"}, recoverable)
}

func TestUnknownTargetFallsBackToConfigureRecipe(t *testing.T) {
	r := recipeFor("phat")
	assert.Equal(t, RecipeConfigure, r.Kind)
	assert.Empty(t, r.Patches)
	assert.Empty(t, r.ConfigureOpts)
}

func TestSharedRecipesPinDistinctPrefixes(t *testing.T) {
	dms := recipeFor("DiscreteMorseSandwich")
	pc := recipeFor("PersistenceCycles")

	require.NotNil(t, dms.Shared)
	require.NotNil(t, pc.Shared)
	assert.NotEqual(t, dms.Shared.Version, pc.Shared.Version)
	assert.NotEqual(t, paraviewPrefix(dms.Shared.Version), paraviewPrefix(pc.Shared.Version))
}
