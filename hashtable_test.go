package acuckoo

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHashTable(t *testing.T, capacity uint64) *HashTable {
	t.Helper()
	cfg := DefaultConfig(capacity)
	ht, err := NewHashTable(cfg)
	require.NoError(t, err)
	return ht
}

func TestHashTableInsertAndFind(t *testing.T) {
	ht := newTestHashTable(t, 64)

	bucket, slot, status := ht.Insert(100)
	require.Equal(t, InsertOk, status)
	assert.True(t, ht.Occupied(bucket, slot))
	assert.Equal(t, Key(100), ht.At(bucket, slot))

	foundBucket, foundSlot, found := ht.Find(100)
	require.True(t, found)
	assert.Equal(t, bucket, foundBucket)
	assert.Equal(t, slot, foundSlot)

	_, _, found = ht.Find(999999)
	assert.False(t, found)
}

func TestHashTableDuplicateInsert(t *testing.T) {
	ht := newTestHashTable(t, 64)
	_, _, status := ht.Insert(42)
	require.Equal(t, InsertOk, status)

	sizeBefore := ht.Size()
	_, _, status = ht.Insert(42)
	assert.Equal(t, InsertKeyDuplicated, status)
	assert.Equal(t, sizeBefore, ht.Size())
}

// TestHashTableAltIndexInvolution checks P2: alt_index(alt_index(i, fp), fp) == i.
func TestHashTableAltIndexInvolution(t *testing.T) {
	ht := newTestHashTable(t, 1024)
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		key := Key(r.Uint64())
		i1, i2, fp0 := ht.Indices(key)
		assert.Equal(t, i1, ht.altIndex(i2, fp0))
		assert.Equal(t, i2, ht.altIndex(i1, fp0))
	}
}

// TestHashTableNoFalseNegativesAfterInsert checks P3.
func TestHashTableNoFalseNegativesAfterInsert(t *testing.T) {
	ht := newTestHashTable(t, 2048)
	r := rand.New(rand.NewSource(1))
	var keys []Key
	for i := 0; i < 1500; i++ {
		k := Key(r.Uint64())
		_, _, status := ht.Insert(k)
		if status == InsertOk {
			keys = append(keys, k)
		}
	}
	for _, k := range keys {
		_, _, found := ht.Find(k)
		assert.True(t, found, "key %d should still be found", k)
	}
}

// TestHashTableInsertAfterRehashKeepsKeysAddressable is a regression test
// for I2: the cuckoo-path random walk must derive a displaced key's
// alternate bucket from its seed-0 fingerprint, never from the resident
// seed of the bucket it's passing through — otherwise a kickout through an
// already-rehashed bucket strands the key outside both of its true
// candidate buckets, and Find (which always uses seed-0 Indices) loses it.
func TestHashTableInsertAfterRehashKeepsKeysAddressable(t *testing.T) {
	ht := newTestHashTable(t, 512)
	r := rand.New(rand.NewSource(7))

	var keys []Key
	for i := 0; i < 200; i++ {
		k := Key(r.Uint64())
		if _, _, status := ht.Insert(k); status == InsertOk {
			keys = append(keys, k)
		}
	}

	// Bump several buckets' seeds, as a lookup sweep's rehash_buckets would
	// between rounds, before continuing to insert (and so kick keys through
	// them).
	for i := uint64(0); i < 8; i++ {
		ht.RehashBucket(i)
	}

	for i := 0; i < 2000; i++ {
		k := Key(r.Uint64())
		if _, _, status := ht.Insert(k); status == InsertOk {
			keys = append(keys, k)
		}
	}

	for _, k := range keys {
		_, _, found := ht.Find(k)
		assert.True(t, found, "key %d should remain addressable via its seed-0 candidate buckets after rehashes", k)
	}
}

func TestHashTableEraseRemovesKey(t *testing.T) {
	ht := newTestHashTable(t, 64)
	bucket, slot, status := ht.Insert(7)
	require.Equal(t, InsertOk, status)

	ht.Erase(bucket, slot)
	_, _, found := ht.Find(7)
	assert.False(t, found)
	assert.Equal(t, uint64(0), ht.Size())
}

func TestHashTableRehashBucketBumpsSeedAndPreservesKeys(t *testing.T) {
	ht := newTestHashTable(t, 64)
	bucket, slot, status := ht.Insert(55)
	require.Equal(t, InsertOk, status)

	seedBefore := ht.Seeds()[bucket]
	rewrites := ht.RehashBucket(bucket)
	assert.Equal(t, seedBefore+1, ht.Seeds()[bucket])
	assert.Len(t, rewrites, 1)
	assert.Equal(t, slot, rewrites[0].Slot)

	// key itself never moves.
	assert.True(t, ht.Occupied(bucket, slot))
	assert.Equal(t, Key(55), ht.At(bucket, slot))

	// fingerprint returned matches a fresh computation under the new seed.
	expected := ht.Fingerprint(55, ht.Seeds()[bucket])
	assert.Equal(t, expected, rewrites[0].Fingerprint)
}

func TestHashTableRehashBucketOnEmptyBucketReturnsNothing(t *testing.T) {
	ht := newTestHashTable(t, 64)
	rewrites := ht.RehashBucket(0)
	assert.Empty(t, rewrites)
}

// TestHashTableFillsToCapacityOrReportsFull exercises P9: inserting beyond
// capacity eventually returns TableFull, and the table continues to refuse
// inserts afterward.
func TestHashTableFillsToCapacityOrReportsFull(t *testing.T) {
	ht := newTestHashTable(t, 32)
	r := rand.New(rand.NewSource(2))
	sawFull := false
	for i := 0; i < 100000 && !sawFull; i++ {
		_, _, status := ht.Insert(Key(r.Uint64()))
		if status == InsertTableFull {
			sawFull = true
		}
	}
	require.True(t, sawFull, "expected the table to eventually report TableFull")
	assert.True(t, ht.HasVictim())

	_, _, status := ht.Insert(Key(r.Uint64()))
	assert.Equal(t, InsertTableFull, status)
}

func TestHashTableInfoIsNonEmpty(t *testing.T) {
	ht := newTestHashTable(t, 64)
	assert.NotEmpty(t, ht.Info())
}

// TestHashTableTryReclaimVictimPlacesVictimInFreedSlot fills a table to a
// held victim, then frees a slot in the victim's own recorded bucket and
// checks the victim moves in and is cleared.
func TestHashTableTryReclaimVictimPlacesVictimInFreedSlot(t *testing.T) {
	ht := newTestHashTable(t, 32)
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 100000 && !ht.HasVictim(); i++ {
		ht.Insert(Key(r.Uint64()))
	}
	require.True(t, ht.HasVictim())
	victimBucket, victimKey := ht.Victim()

	// erase anything resident in the victim's bucket to free a slot there.
	freed := false
	for j := 0; j < SlotsPerBucket; j++ {
		if ht.Occupied(victimBucket, j) {
			ht.Erase(victimBucket, j)
			freed = true
			break
		}
	}
	require.True(t, freed, "expected the victim's bucket to hold at least one evictable key")

	slot, ok := ht.TryReclaimVictim(victimBucket)
	require.True(t, ok)
	assert.False(t, ht.HasVictim())
	assert.Equal(t, victimKey, ht.At(victimBucket, slot))
}

func TestHashTableTryReclaimVictimWrongBucketFails(t *testing.T) {
	ht := newTestHashTable(t, 32)
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 100000 && !ht.HasVictim(); i++ {
		ht.Insert(Key(r.Uint64()))
	}
	require.True(t, ht.HasVictim())
	victimBucket, _ := ht.Victim()

	_, ok := ht.TryReclaimVictim(victimBucket + 1)
	assert.False(t, ok)
	assert.True(t, ht.HasVictim())
}
