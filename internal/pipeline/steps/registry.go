// Package steps provides step definitions and dependency validation for the tailoring
// pipeline and the optional application step that follows it.
package steps

import (
	"fmt"
	"sort"
)

// Step names
const (
	StepExtractKeywords  = "extract_keywords"
	StepRetrieveSegments = "retrieve_segments"
	StepRewriteResume    = "rewrite_resume"
	StepPersistArtifact  = "persist_artifact"
	StepApply            = "apply"
)

// Step categories
const (
	CategoryTailoring   = "tailoring"
	CategoryPersistence = "persistence"
	CategoryApplication = "application"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string
	Title        string
	Category     string
	Order        int
	Dependencies []string
	// Optional steps only run when the caller asks for them.
	Optional bool
}

// StepRegistry holds all step definitions
var StepRegistry = map[string]StepDefinition{
	StepExtractKeywords: {
		Name:         StepExtractKeywords,
		Title:        "Extracting job keywords",
		Category:     CategoryTailoring,
		Order:        1,
		Dependencies: []string{},
	},
	StepRetrieveSegments: {
		Name:         StepRetrieveSegments,
		Title:        "Retrieving relevant resume segments",
		Category:     CategoryTailoring,
		Order:        2,
		Dependencies: []string{StepExtractKeywords},
	},
	StepRewriteResume: {
		Name:         StepRewriteResume,
		Title:        "Rewriting resume for the role",
		Category:     CategoryTailoring,
		Order:        3,
		Dependencies: []string{StepRetrieveSegments},
	},
	StepPersistArtifact: {
		Name:         StepPersistArtifact,
		Title:        "Saving tailored resume",
		Category:     CategoryPersistence,
		Order:        4,
		Dependencies: []string{StepRewriteResume},
	},
	StepApply: {
		Name:         StepApply,
		Title:        "Filling application form",
		Category:     CategoryApplication,
		Order:        5,
		Dependencies: []string{StepPersistArtifact},
		Optional:     true,
	},
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s has missing dependencies: %v", e.Step, e.MissingDependencies)
}

// Plan returns the steps to run in order. Optional steps are included only when
// withOptional is set.
func Plan(withOptional bool) []StepDefinition {
	plan := make([]StepDefinition, 0, len(StepRegistry))
	for _, def := range StepRegistry {
		if def.Optional && !withOptional {
			continue
		}
		plan = append(plan, def)
	}
	sort.Slice(plan, func(i, j int) bool { return plan[i].Order < plan[j].Order })
	return plan
}

// ValidateDependencies checks that every dependency of stepName is in completed
func ValidateDependencies(completed map[string]bool, stepName string) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !completed[dep] {
			missing = append(missing, dep)
		}
	}

	if len(missing) > 0 {
		return &DependencyError{
			Step:                stepName,
			MissingDependencies: missing,
		}
	}
	return nil
}

// GetAvailableSteps returns steps not yet completed whose dependencies are met
func GetAvailableSteps(completed map[string]bool) []string {
	var available []string
	for _, def := range Plan(true) {
		if completed[def.Name] {
			continue
		}
		if err := ValidateDependencies(completed, def.Name); err != nil {
			continue
		}
		available = append(available, def.Name)
	}
	return available
}
