package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepRegistry(t *testing.T) {
	expectedSteps := []string{
		StepExtractKeywords, StepRetrieveSegments, StepRewriteResume,
		StepPersistArtifact, StepApply,
	}

	for _, stepName := range expectedSteps {
		def, ok := StepRegistry[stepName]
		require.True(t, ok, "Step %s should be in registry", stepName)
		assert.Equal(t, stepName, def.Name)
		assert.NotEmpty(t, def.Category)
		assert.NotEmpty(t, def.Title)
	}
}

func TestStepRegistryCategories(t *testing.T) {
	categories := map[string][]string{
		CategoryTailoring:   {StepExtractKeywords, StepRetrieveSegments, StepRewriteResume},
		CategoryPersistence: {StepPersistArtifact},
		CategoryApplication: {StepApply},
	}

	for category, stepNames := range categories {
		for _, stepName := range stepNames {
			def, ok := StepRegistry[stepName]
			require.True(t, ok)
			assert.Equal(t, category, def.Category, "Step %s should be in category %s", stepName, category)
		}
	}
}

func TestPlan(t *testing.T) {
	names := func(plan []StepDefinition) []string {
		var out []string
		for _, def := range plan {
			out = append(out, def.Name)
		}
		return out
	}

	assert.Equal(t, []string{
		StepExtractKeywords, StepRetrieveSegments, StepRewriteResume, StepPersistArtifact,
	}, names(Plan(false)))

	assert.Equal(t, []string{
		StepExtractKeywords, StepRetrieveSegments, StepRewriteResume, StepPersistArtifact, StepApply,
	}, names(Plan(true)))
}

func TestPlan_DependenciesPrecedeSteps(t *testing.T) {
	completed := map[string]bool{}
	for _, def := range Plan(true) {
		require.NoError(t, ValidateDependencies(completed, def.Name))
		completed[def.Name] = true
	}
}

func TestValidateDependencies(t *testing.T) {
	err := ValidateDependencies(map[string]bool{StepExtractKeywords: true}, StepRewriteResume)
	require.Error(t, err)

	var depErr *DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, StepRewriteResume, depErr.Step)
	assert.Equal(t, []string{StepRetrieveSegments}, depErr.MissingDependencies)
	assert.Contains(t, err.Error(), "missing dependencies")
}

func TestValidateDependencies_UnknownStep(t *testing.T) {
	err := ValidateDependencies(nil, "unknown_step")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown step")
}

func TestGetAvailableSteps(t *testing.T) {
	assert.Equal(t, []string{StepExtractKeywords}, GetAvailableSteps(map[string]bool{}))

	completed := map[string]bool{
		StepExtractKeywords:  true,
		StepRetrieveSegments: true,
		StepRewriteResume:    true,
	}
	assert.Equal(t, []string{StepPersistArtifact}, GetAvailableSteps(completed))
}
