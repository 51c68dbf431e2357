package achievements

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/typequest/internal/model"
)

func TestBuiltinCatalogIsOrdered(t *testing.T) {
	catalog := Builtin()
	require.NotEmpty(t, catalog)
	for i := 1; i < len(catalog); i++ {
		assert.LessOrEqual(t, catalog[i-1].RequirementValue, catalog[i].RequirementValue)
	}
	assert.Equal(t, "first-steps", catalog[0].ID)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("- id: x\n  name: X\n  requirement_typ: wpm\n"))
	assert.Error(t, err)
}

func TestParseRejectsDuplicates(t *testing.T) {
	data := []byte(`
- id: x
  name: X
  requirement_type: wpm
  requirement_value: 1
- id: x
  name: Y
  requirement_type: level
  requirement_value: 2
`)
	_, err := Parse(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestParseRejectsUnknownRequirement(t *testing.T) {
	_, err := Parse([]byte("- id: x\n  name: X\n  requirement_type: streak\n  requirement_value: 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown requirement")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- id: x\n  name: X\n  requirement_type: level\n  requirement_value: 3\n"), 0o644))
	catalog, err := Load(path)
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	assert.Equal(t, model.RequireLevel, catalog[0].RequirementType)
}

func TestSatisfied(t *testing.T) {
	p := model.UserProgress{Level: 3, WordsTyped: 120, WPM: 45, Accuracy: 96, TimeSpentSeconds: 700}
	cases := []struct {
		req  model.Requirement
		val  int
		want bool
	}{
		{model.RequireWordsTyped, 100, true},
		{model.RequireWordsTyped, 1000, false},
		{model.RequireLevel, 3, true},
		{model.RequireLevel, 5, false},
		{model.RequireWPM, 30, true},
		{model.RequireWPM, 60, false},
		{model.RequireAccuracy, 95, true},
		{model.RequireTimeSpent, 600, true},
		{model.RequireTimeSpent, 3600, false},
		{"streak", 0, false},
	}
	for _, tc := range cases {
		a := model.Achievement{ID: string(tc.req), RequirementType: tc.req, RequirementValue: tc.val}
		assert.Equal(t, tc.want, Satisfied(a, p), "%s >= %d", tc.req, tc.val)
	}
}

func TestDefaultAccuracyDoesNotUnlock(t *testing.T) {
	a := model.Achievement{ID: "acc", RequirementType: model.RequireAccuracy, RequirementValue: 95}
	assert.False(t, Satisfied(a, model.DefaultProgress()))
}

func TestNewly(t *testing.T) {
	catalog := Builtin()
	p := model.UserProgress{Level: 2, WordsTyped: 5, Accuracy: 100}
	ids := make([]string, 0)
	for _, a := range Newly(catalog, p, []string{"first-steps"}) {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"level-2", "sharpshooter"}, ids)
}

func TestProgress(t *testing.T) {
	a := model.Achievement{RequirementType: model.RequireWordsTyped, RequirementValue: 100}
	assert.InDelta(t, 0.25, Progress(a, model.UserProgress{WordsTyped: 25}), 1e-9)
	assert.Equal(t, 1.0, Progress(a, model.UserProgress{WordsTyped: 250}))
}
