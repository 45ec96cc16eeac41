package textmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stagewatch/internal/shared/normalize"
)

func TestScoreIdentity(t *testing.T) {
	assert.Equal(t, 1.0, Score("极限密室", "极限密室"))
	assert.Equal(t, 0.0, Score("", ""))
	assert.Equal(t, 0.0, Score("anything", ""))
}

func TestScoreDisjoint(t *testing.T) {
	assert.Equal(t, 0.0, Score("连璧", "阿波罗尼亚"))
}

func TestScoreSimilarTitles(t *testing.T) {
	// Variants of the same show title should clear a 0.75 acceptance
	// threshold; unrelated shows should not come close.
	a := normalize.Text("极限密室·魔都2")
	b := normalize.Text("极限密室 魔都2")
	assert.Equal(t, 1.0, Score(a, b), "normalization already folds these")

	got := Score(normalize.Text("极限密室魔都2"), normalize.Text("极限密室"))
	assert.Greater(t, got, 0.5)
	assert.Less(t, got, 1.0)
}

func TestScoreContainment(t *testing.T) {
	// Short canonical name inside a longer provider title.
	long := normalize.Text("阿波罗尼亚上海驻演2026")
	short := normalize.Text("阿波罗尼亚")
	got := Score(short, long)
	assert.Greater(t, got, 0.4)
}

func TestScoreSymmetry(t *testing.T) {
	pairs := [][2]string{
		{"phantomoftheopera", "phantom"},
		{"极限密室魔都2", "极限密室"},
		{"abcd", "bcda"},
	}
	for _, p := range pairs {
		assert.InDelta(t, Score(p[0], p[1]), Score(p[1], p[0]), 1e-12)
	}
}

func TestScoreBounded(t *testing.T) {
	inputs := []string{"", "a", "ab", "abab", "极限密室", "极限密室魔都2", "xyz"}
	for _, a := range inputs {
		for _, b := range inputs {
			got := Score(a, b)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		}
	}
}
