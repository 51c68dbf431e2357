package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCountTokens(t *testing.T) {
	assert.Equal(t, 2, CountTokens("go now"))
	assert.Equal(t, 1, CountTokens("word"))
	assert.Equal(t, 3, CountTokens("double  space"), "split on single spaces keeps empty tokens")
}

func TestLiveWPM(t *testing.T) {
	_, ok := LiveWPM(0, 30)
	assert.False(t, ok, "no words typed yet")
	_, ok = LiveWPM(10, 0)
	assert.False(t, ok, "no time elapsed yet")

	wpm, ok := LiveWPM(10, 30)
	assert.True(t, ok)
	assert.Equal(t, 20, wpm)
}

func TestSessionWPM(t *testing.T) {
	assert.Equal(t, 8, SessionWPM(2, 15*time.Second))
	assert.Equal(t, 120, SessionWPM(2, 0), "elapsed floors to one second")
	assert.Equal(t, 120, SessionWPM(2, 200*time.Millisecond))
	assert.Equal(t, 0, SessionWPM(0, time.Minute))
}

func TestSmooth(t *testing.T) {
	assert.Equal(t, 50, Smooth(40, 60))
	assert.Equal(t, 51, Smooth(41, 60), "halves round up")
	assert.Equal(t, 4, Smooth(0, 8))
}

func TestAccuracyBounds(t *testing.T) {
	_, ok := WordsAccuracy(0, 0)
	assert.False(t, ok)
	acc, ok := WordsAccuracy(3, 4)
	assert.True(t, ok)
	assert.Equal(t, 75, acc)

	assert.Equal(t, 100, TextAccuracy(6, 0))
	assert.Equal(t, 83, TextAccuracy(6, 1))
	assert.Equal(t, 0, TextAccuracy(6, 600), "errors never push accuracy below zero")
	assert.Equal(t, 0, TextAccuracy(0, 0))
}

func TestTextExperience(t *testing.T) {
	assert.Equal(t, 10, TextExperience(2, 100))
	assert.Equal(t, 8, TextExperience(2, 83))
	assert.Equal(t, 0, TextExperience(5, 0))
}

func TestApplyExperienceSingleLevelUp(t *testing.T) {
	level, exp, ups := ApplyExperience(1, 95, 10)
	assert.Equal(t, 2, level)
	assert.Equal(t, 5, exp)
	assert.Equal(t, 1, ups)
}

func TestApplyExperienceMultipleLevelUps(t *testing.T) {
	// 100 for level 1, 200 for level 2, 300 for level 3.
	level, exp, ups := ApplyExperience(1, 0, 650)
	assert.Equal(t, 4, level)
	assert.Equal(t, 50, exp)
	assert.Equal(t, 3, ups)
}

func TestApplyExperienceInvariant(t *testing.T) {
	level, exp := 1, 0
	for _, gain := range []int{10, 0, 250, 999, 1, 47, 3000, 5, 10000} {
		var ups int
		prev := level
		level, exp, ups = ApplyExperience(level, exp, gain)
		assert.GreaterOrEqual(t, exp, 0)
		assert.Less(t, exp, level*100)
		assert.GreaterOrEqual(t, level, prev)
		assert.Equal(t, level-prev, ups)
	}
}

func TestApplyExperienceRepairsBadInput(t *testing.T) {
	level, exp, _ := ApplyExperience(0, -5, 0)
	assert.Equal(t, 1, level)
	assert.Equal(t, 0, exp)
}
