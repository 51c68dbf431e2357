package stats

import (
	"sort"

	"github.com/samber/lo"

	"github.com/verte-zerg/typequest/internal/model"
)

// ModeStats aggregates rounds played in one mode.
type ModeStats struct {
	Mode    model.Mode
	Summary Summary
}

// ByMode groups rounds per mode, most played first.
func ByMode(rounds []model.Round) []ModeStats {
	groups := lo.GroupBy(rounds, func(r model.Round) model.Mode { return r.Mode })
	out := make([]ModeStats, 0, len(groups))
	for mode, rs := range groups {
		out = append(out, ModeStats{Mode: mode, Summary: Summarize(rs)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Summary.Rounds == out[j].Summary.Rounds {
			return out[i].Mode < out[j].Mode
		}
		return out[i].Summary.Rounds > out[j].Summary.Rounds
	})
	return out
}
