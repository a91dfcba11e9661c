package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountersAndGaugesAreUsable(t *testing.T) {
	assert.NotPanics(t, func() {
		ActiveNodes.Set(3)
		MaxBucketSize.Set(7)
		ConsumedInput.Inc()
		FrontierPosition.Set(100)
		ContigsCalled.Inc()
		MisassemblyTriggers.Inc()
		OrphanClustersRemoved.Inc()
	})
}
