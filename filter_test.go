package acuckoo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterSetClearContains(t *testing.T) {
	f := NewFilter(4, 12, XXHashFamily{}, newWalker(1))
	f.Set(2, 1, 99)

	slot := f.ContainsInBucket(2, 99)
	assert.Equal(t, 1, slot)

	bucket, ok := f.Contains(0, 2, 99)
	require.True(t, ok)
	assert.Equal(t, uint64(2), bucket)

	f.Clear(2, 1)
	assert.Equal(t, -1, f.ContainsInBucket(2, 99))
}

func TestFilterClearBucket(t *testing.T) {
	f := NewFilter(2, 8, XXHashFamily{}, newWalker(1))
	for j := 0; j < SlotsPerBucket; j++ {
		f.Set(0, j, Fingerprint(j+1))
	}
	f.ClearBucket(0)
	for j := 0; j < SlotsPerBucket; j++ {
		assert.Equal(t, -1, f.ContainsInBucket(0, Fingerprint(j+1)))
	}
}

func TestFilterInsertTagStandaloneKickout(t *testing.T) {
	f := NewFilter(1, 8, XXHashFamily{}, newWalker(1))
	for j := 0; j < SlotsPerBucket; j++ {
		status := f.InsertTag(0, 0, Fingerprint(j+1))
		require.Equal(t, InsertOk, status)
	}
	// bucket 0 (the only bucket, i1 == i2 == 0) is now full; next insert
	// must kick something out and record a victim.
	status := f.InsertTag(0, 0, 9)
	assert.Equal(t, InsertTableFull, status)
	assert.True(t, f.HasVictim())

	_, tag := f.Victim()
	assert.NotZero(t, tag)

	// a victim already held blocks further inserts outright.
	status = f.InsertTag(0, 0, 10)
	assert.Equal(t, InsertTableFull, status)
}

func TestFilterDeleteTagReclaimsVictim(t *testing.T) {
	f := NewFilter(1, 8, XXHashFamily{}, newWalker(1))
	for j := 0; j < SlotsPerBucket; j++ {
		f.InsertTag(0, 0, Fingerprint(j+1))
	}
	status := f.InsertTag(0, 0, 9)
	require.Equal(t, InsertTableFull, status)
	require.True(t, f.HasVictim())

	_, victimTag := f.Victim()

	// Pick a resident tag distinct from the victim's to delete, so the
	// freed slot is available for the victim to reclaim into.
	var deleteTarget Fingerprint
	for _, tag := range []Fingerprint{1, 2, 3, 4} {
		if tag != victimTag {
			deleteTarget = tag
			break
		}
	}

	ok := f.DeleteTag(0, 0, deleteTarget)
	require.True(t, ok)
	assert.False(t, f.HasVictim())
	assert.NotEqual(t, -1, f.ContainsInBucket(0, victimTag))
}

func TestFilterDeleteTagOfHeldVictimClearsIt(t *testing.T) {
	f := NewFilter(1, 8, XXHashFamily{}, newWalker(1))
	for j := 0; j < SlotsPerBucket; j++ {
		f.InsertTag(0, 0, Fingerprint(j+1))
	}
	status := f.InsertTag(0, 0, 9)
	require.Equal(t, InsertTableFull, status)
	require.True(t, f.HasVictim())

	_, victimTag := f.Victim()
	ok := f.DeleteTag(0, 0, victimTag)
	assert.True(t, ok)
	assert.False(t, f.HasVictim())
}

func TestFilterDeleteTagMissingReturnsFalse(t *testing.T) {
	f := NewFilter(1, 8, XXHashFamily{}, newWalker(1))
	assert.False(t, f.DeleteTag(0, 0, 5))
}
