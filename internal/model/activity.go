package model

import "math"

// UserActivity is the derived per-user progress view. It is recomputed from
// the evaluation streams on demand and never persisted.
type UserActivity struct {
	CompletedModels          []string `json:"completedModels"`
	CompletedTestModels      []string `json:"completedTestModels"`
	CompletedQuizModels      []string `json:"completedQuizModels"`
	CompletedScaleValidation bool     `json:"completedScaleValidation"`
	TotalActivities          int      `json:"totalActivities"`
	CompletedActivities      int      `json:"completedActivities"`
	CompletionPercentage     int      `json:"completionPercentage"`

	// JustCompleted is set on exactly one update per subscription, when the
	// percentage first reaches 100.
	JustCompleted bool `json:"justCompleted,omitempty"`
}

// NewUserActivity returns the zeroed activity view for a curriculum of the
// given size: three activity kinds per model plus the one-off scale validation.
func NewUserActivity(curriculumSize int) UserActivity {
	return UserActivity{
		CompletedModels:     []string{},
		CompletedTestModels: []string{},
		CompletedQuizModels: []string{},
		TotalActivities:     curriculumSize*3 + 1,
	}
}

// Recalculate refreshes the completed count and percentage from the sets.
func (a *UserActivity) Recalculate() {
	a.CompletedActivities = len(a.CompletedModels) + len(a.CompletedTestModels) + len(a.CompletedQuizModels)
	if a.CompletedScaleValidation {
		a.CompletedActivities++
	}
	if a.TotalActivities > 0 {
		a.CompletionPercentage = int(math.Round(float64(a.CompletedActivities) / float64(a.TotalActivities) * 100))
	}
}
