package acuckoo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig(1000)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidateRejectsBadFields(t *testing.T) {
	cfg := DefaultConfig(0)
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig(1000)
	cfg.BitsPerFingerprint = 7
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig(1000)
	cfg.MaxLoadFactor = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig(1000)
	cfg.MaxKicks = 0
	assert.Error(t, cfg.Validate())
}

func TestBucketCountForMeetsLoadFactor(t *testing.T) {
	tests := []uint64{1, 4, 24, 240, 10000}
	for _, capacity := range tests {
		_, n := bucketCountFor(capacity, DefaultMaxLoadFactor)
		// n must be a power of two.
		assert.Equal(t, n&(n-1), uint64(0))
		// N*SlotsPerBucket must cover capacity/maxLoadFactor.
		assert.GreaterOrEqual(t, float64(n*SlotsPerBucket), float64(capacity)/DefaultMaxLoadFactor)
	}
}

func TestBucketCountForMinimumOneBucket(t *testing.T) {
	hashpower, n := bucketCountFor(1, 0.95)
	assert.Equal(t, 0, hashpower)
	assert.Equal(t, uint64(1), n)
}
