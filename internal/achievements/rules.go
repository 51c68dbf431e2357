package achievements

import (
	"github.com/samber/lo"

	"github.com/verte-zerg/typequest/internal/model"
)

// Known reports whether r is a supported requirement type.
func Known(r model.Requirement) bool {
	switch r {
	case model.RequireWordsTyped, model.RequireLevel, model.RequireWPM,
		model.RequireAccuracy, model.RequireTimeSpent:
		return true
	}
	return false
}

// Value reads the progress field a requirement is gated on.
func Value(r model.Requirement, p model.UserProgress) int {
	switch r {
	case model.RequireWordsTyped:
		return p.WordsTyped
	case model.RequireLevel:
		return p.Level
	case model.RequireWPM:
		return p.WPM
	case model.RequireAccuracy:
		return p.Accuracy
	case model.RequireTimeSpent:
		return p.TimeSpentSeconds
	}
	return 0
}

// Satisfied reports whether progress meets the achievement's requirement.
// Accuracy only counts once some words were typed, so the default 100 does
// not unlock anything on its own.
func Satisfied(a model.Achievement, p model.UserProgress) bool {
	if !Known(a.RequirementType) {
		return false
	}
	if a.RequirementType == model.RequireAccuracy && p.WordsTyped == 0 {
		return false
	}
	return Value(a.RequirementType, p) >= a.RequirementValue
}

// Newly returns the achievements progress satisfies that are not in held.
func Newly(catalog []model.Achievement, p model.UserProgress, held []string) []model.Achievement {
	have := lo.Keyify(held)
	return lo.Filter(catalog, func(a model.Achievement, _ int) bool {
		_, ok := have[a.ID]
		return !ok && Satisfied(a, p)
	})
}

// Progress returns how far p is toward a, as a fraction in [0, 1].
func Progress(a model.Achievement, p model.UserProgress) float64 {
	if a.RequirementValue <= 0 || Satisfied(a, p) {
		return 1
	}
	frac := float64(Value(a.RequirementType, p)) / float64(a.RequirementValue)
	return lo.Clamp(frac, 0, 1)
}
