package texts

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/verte-zerg/typequest/internal/model"
)

// ErrEmptyPool is returned when a mode has nothing to draw from.
var ErrEmptyPool = errors.New("text pool is empty")

// Picker draws texts uniformly at random from per-mode pools.
type Picker struct {
	rnd   *rand.Rand
	pools Pools
}

// NewPicker returns a Picker seeded with the current time.
func NewPicker(pools Pools) *Picker {
	return NewPickerWithSeed(pools, time.Now().UnixNano())
}

// NewPickerWithSeed returns a Picker with a fixed seed.
func NewPickerWithSeed(pools Pools, seed int64) *Picker {
	cleaned := make(Pools, len(pools))
	for mode, entries := range pools {
		cleaned[mode] = clean(entries)
	}
	return &Picker{
		rnd:   rand.New(rand.NewSource(seed)),
		pools: cleaned,
	}
}

// Pick returns a random entry from the pool for mode.
func (p *Picker) Pick(mode model.Mode) (string, error) {
	entries := p.pools[mode]
	if len(entries) == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyPool, mode)
	}
	return entries[p.rnd.Intn(len(entries))], nil
}

// Size reports how many entries the pool for mode holds.
func (p *Picker) Size(mode model.Mode) int {
	return len(p.pools[mode])
}
