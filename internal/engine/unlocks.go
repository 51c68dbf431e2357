package engine

import (
	"github.com/samber/lo"

	"github.com/verte-zerg/typequest/internal/model"
)

// Unlocks caches the achievement ids a user is known to hold.
type Unlocks struct {
	ids map[string]struct{}
}

// NewUnlocks seeds the cache with ids.
func NewUnlocks(ids []string) *Unlocks {
	return &Unlocks{ids: lo.Keyify(ids)}
}

// Has reports whether id is cached.
func (u *Unlocks) Has(id string) bool {
	_, ok := u.ids[id]
	return ok
}

// Len returns the number of cached ids.
func (u *Unlocks) Len() int {
	return len(u.ids)
}

// Delta returns ids in current that are not cached, in the order given. The
// cache is left alone; ids join it through Commit.
func (u *Unlocks) Delta(current []string) []string {
	return lo.Uniq(lo.Filter(current, func(id string, _ int) bool {
		return !u.Has(id)
	}))
}

// Commit caches ids and returns the ones that were not cached yet.
func (u *Unlocks) Commit(ids []string) []string {
	added := u.Delta(ids)
	for _, id := range added {
		u.ids[id] = struct{}{}
	}
	return added
}

// FirstUnlock picks the notification to show for a delta: the first new id
// that has details. Later unlocks in the same delta are not shown.
func FirstUnlock(newIDs []string, details []model.Achievement) (model.Achievement, bool) {
	byID := lo.KeyBy(details, func(a model.Achievement) string {
		return a.ID
	})
	for _, id := range newIDs {
		if a, ok := byID[id]; ok {
			return a, true
		}
	}
	return model.Achievement{}, false
}
