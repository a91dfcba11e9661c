package record

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cbrueffer/gridss/internal/evidence"
)

func TestBaseQualityScalesLogarithmically(t *testing.T) {
	assert.Equal(t, byte(0), BaseQuality(0))
	assert.Equal(t, byte(10), BaseQuality(9)) // round(10*log10(10)) = 10
	assert.Equal(t, byte(93), BaseQuality(1<<60))
}

func TestScaledWeightClampsAtZero(t *testing.T) {
	assert.Equal(t, 0, ScaledWeight(-5, 1000))
	assert.Equal(t, 1000, ScaledWeight(1, 1000))
}

func TestUnionBreakendExcludesLowQualityOutliers(t *testing.T) {
	items := []*evidence.KmerEvidence{
		{Quality: 100, BreakendStart: 10, BreakendEnd: 20},
		{Quality: 90, BreakendStart: 15, BreakendEnd: 25},
		{Quality: 1, BreakendStart: 1000, BreakendEnd: 2000}, // excluded: < 1/10 of max
	}
	bi, ok := UnionBreakend(items)
	assert.True(t, ok)
	assert.Equal(t, 10, bi.Start)
	assert.Equal(t, 25, bi.End)
}

func TestUnionBreakendNoEvidence(t *testing.T) {
	_, ok := UnionBreakend(nil)
	assert.False(t, ok)
}
