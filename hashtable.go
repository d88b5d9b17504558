// Copyright (c) 2014 Utkan Güngördü <utkan@freeconsole.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package acuckoo

import "fmt"

// SlotFingerprint pairs a bucket slot with the fingerprint the key resident
// there hashes to under the bucket's current seed. RehashBucket returns a
// batch of these so a Filter (which owns no keys of its own) can overwrite
// itself without ever seeing a Key.
type SlotFingerprint struct {
	Slot        int
	Fingerprint Fingerprint
}

// hashTableVictim is the at-most-one overflow key a HashTable holds when its
// cuckoo-path random walk is exhausted mid-insert. While present, further
// inserts are rejected outright (spec.md Data model: "At most one victim
// exists; while a victim is present, the structure rejects further
// inserts.").
type hashTableVictim struct {
	bucket  uint64
	key     Key
	present bool
}

// HashTable is the exact-key half of a FilterPair: a bucketized cuckoo hash
// table addressed by the same (bucket, slot) coordinates the paired Filter
// uses, so the two halves stay isomorphic. Generalized from the teacher's
// Cuckoo type (cuckoo.go's tryInsert/tryGreedyAdd random-walk kickout) and
// original_source/cuckoohashtable/cuckoohashtable.hh's index_hash/alt_index
// and duplicate-check-before-displacement discipline — but fixed at
// SlotsPerBucket=4 slots and two candidate buckets per key, with no
// grow/shrink (that is this system's Non-goal; the teacher's nhash-many
// hash functions and dynamic resizing are dropped in favor of a single
// seed-parameterized hash and a fixed bucket count sized at construction).
type HashTable struct {
	buckets    *BucketContainer[Key]
	seeds      []uint16
	hashFamily HashFamily
	bitsPerFp  int
	maxKicks   int
	w          *walker
	numItems   uint64
	victim     hashTableVictim
}

// NewHashTable builds a table sized for cfg.Capacity at cfg.MaxLoadFactor,
// using cfg's fingerprint width, hash family, random walk bound, and PRNG
// seed. cfg is assumed already validated by Config.Validate.
func NewHashTable(cfg Config) (*HashTable, error) {
	hf, err := NewHashFamily(cfg.HashFamilyName)
	if err != nil {
		return nil, err
	}
	hashpower, n := bucketCountFor(cfg.Capacity, cfg.MaxLoadFactor)
	return &HashTable{
		buckets:    NewBucketContainer[Key](hashpower),
		seeds:      make([]uint16, n),
		hashFamily: hf,
		bitsPerFp:  cfg.BitsPerFingerprint,
		maxKicks:   cfg.MaxKicks,
		w:          newWalker(cfg.Seed),
	}, nil
}

// BucketCount returns N, the number of buckets.
func (h *HashTable) BucketCount() uint64 { return uint64(h.buckets.Size()) }

// Capacity returns the table's slot count, N*SlotsPerBucket.
func (h *HashTable) Capacity() uint64 { return h.BucketCount() * SlotsPerBucket }

// Size returns the number of keys currently stored.
func (h *HashTable) Size() uint64 { return h.numItems }

// LoadFactor returns Size()/Capacity().
func (h *HashTable) LoadFactor() float64 {
	return float64(h.numItems) / float64(h.Capacity())
}

// Seeds returns the live per-bucket seed vector. Callers must treat it as
// read-only; RehashBucket is the only sanctioned mutator.
func (h *HashTable) Seeds() []uint16 { return h.seeds }

// HasVictim reports whether the table is holding an overflow key.
func (h *HashTable) HasVictim() bool { return h.victim.present }

// Victim returns the current victim's bucket and key. Only meaningful when
// HasVictim is true.
func (h *HashTable) Victim() (bucket uint64, key Key) {
	return h.victim.bucket, h.victim.key
}

// indexHash folds a 64-bit mixed hash down to a bucket index.
func (h *HashTable) indexHash(hv uint64) uint64 {
	return hv & (h.BucketCount() - 1)
}

// altIndex computes the involutive alternate bucket for a key currently
// addressed at bucket i with fingerprint fp: alt(i, fp) = (i XOR (fp*C)) mod
// N (spec I2). Applying altIndex twice with the same fp returns i.
func (h *HashTable) altIndex(i uint64, fp Fingerprint) uint64 {
	return h.indexHash(i ^ (uint64(fp) * altIndexConstant))
}

// Fingerprint computes the b-bit, never-zero fingerprint of key under the
// hash family seeded with seed. seed 0 is every bucket's default generation;
// seed > 0 is the bucket's current rehash generation after RehashBucket.
func (h *HashTable) Fingerprint(key Key, seed uint16) Fingerprint {
	return nonzeroTruncate(h.hashFamily.Sum64(key, seed), h.bitsPerFp)
}

// Indices returns key's two candidate buckets (i1, i2) and its seed-0
// fingerprint, computed the same way Insert and Find do.
func (h *HashTable) Indices(key Key) (i1, i2 uint64, fp0 Fingerprint) {
	i1 = h.indexHash(h.hashFamily.Sum64(key, 0))
	fp0 = h.Fingerprint(key, 0)
	i2 = h.altIndex(i1, fp0)
	return i1, i2, fp0
}

// Find reports whether key is resident in either of its two candidate
// buckets, and where.
func (h *HashTable) Find(key Key) (bucket uint64, slot int, found bool) {
	i1, i2, _ := h.Indices(key)
	for _, i := range [2]uint64{i1, i2} {
		for j := 0; j < SlotsPerBucket; j++ {
			if h.buckets.Occupied(int(i), j) && h.buckets.Get(int(i), j) == key {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// At returns the key resident at (bucket, slot). Only meaningful if that
// slot is occupied.
func (h *HashTable) At(bucket uint64, slot int) Key {
	return h.buckets.Get(int(bucket), slot)
}

// Occupied reports whether (bucket, slot) holds a key.
func (h *HashTable) Occupied(bucket uint64, slot int) bool {
	return h.buckets.Occupied(int(bucket), slot)
}

// Insert places key into one of its two candidate buckets, displacing
// resident keys along a bounded random walk when both are full (spec.md
// §4.3 cuckoo-path insertion). Duplicate-key presence in either candidate
// bucket is checked first and reported without mutation. A victim already
// held blocks every further insert until it is cleared.
func (h *HashTable) Insert(key Key) (bucket uint64, slot int, status InsertStatus) {
	if h.victim.present {
		return 0, 0, InsertTableFull
	}

	i1, i2, _ := h.Indices(key)
	for _, i := range [2]uint64{i1, i2} {
		for j := 0; j < SlotsPerBucket; j++ {
			if h.buckets.Occupied(int(i), j) && h.buckets.Get(int(i), j) == key {
				return i, j, InsertKeyDuplicated
			}
		}
	}

	for _, i := range [2]uint64{i1, i2} {
		if j := h.buckets.FirstEmptySlot(int(i)); j != -1 {
			h.buckets.Set(int(i), j, key)
			h.numItems++
			return i, j, InsertOk
		}
	}

	curI := i1
	curKey := key
	for kicks := 0; kicks < h.maxKicks; kicks++ {
		if j := h.buckets.FirstEmptySlot(int(curI)); j != -1 {
			h.buckets.Set(int(curI), j, curKey)
			h.numItems++
			return curI, j, InsertOk
		}
		r := h.w.slot()
		evicted := h.buckets.Replace(int(curI), r, curKey)
		curKey = evicted
		// Bucket addresses are always derived from the seed-0 fingerprint
		// (I2): rehashing changes a bucket's stored tag, never the cuckoo
		// graph edges between the two buckets a key can live in.
		fp0 := h.Fingerprint(curKey, 0)
		curI = h.altIndex(curI, fp0)
	}

	h.victim = hashTableVictim{bucket: curI, key: curKey, present: true}
	return 0, 0, InsertTableFull
}

// ClearVictim discards the held overflow key without storing it anywhere,
// re-enabling inserts. FilterPair does not call it.
func (h *HashTable) ClearVictim() {
	h.victim = hashTableVictim{}
}

// TryReclaimVictim places the held victim into bucket if bucket is the
// victim's recorded home and now has an empty slot, clearing the victim.
// Grounded on original_source/cuckoofilter/src/cuckoofilter.h's
// TryEliminateVictim, called after Erase frees a slot (spec.md §9's
// directed full delete/victim-reclaim symmetry).
func (h *HashTable) TryReclaimVictim(bucket uint64) (slot int, ok bool) {
	if !h.victim.present || h.victim.bucket != bucket {
		return 0, false
	}
	j := h.buckets.FirstEmptySlot(int(bucket))
	if j == -1 {
		return 0, false
	}
	h.buckets.Set(int(bucket), j, h.victim.key)
	h.numItems++
	h.victim = hashTableVictim{}
	return j, true
}

// Erase removes the key at (bucket, slot).
func (h *HashTable) Erase(bucket uint64, slot int) {
	h.buckets.Erase(int(bucket), slot)
	h.numItems--
}

// RehashBucket bumps bucket i's seed and recomputes the fingerprint of
// every key resident there under the new seed, returning one
// SlotFingerprint per occupied slot. Keys never move; only the bucket's
// seed and the paired Filter's tags change (spec.md §4.5, grounded on
// original_source/cuckoofilter/src/cuckoofilter.h's RehashBucket).
func (h *HashTable) RehashBucket(i uint64) []SlotFingerprint {
	h.seeds[i]++
	var out []SlotFingerprint
	for j := 0; j < SlotsPerBucket; j++ {
		if h.buckets.Occupied(int(i), j) {
			key := h.buckets.Get(int(i), j)
			out = append(out, SlotFingerprint{
				Slot:        j,
				Fingerprint: h.Fingerprint(key, h.seeds[i]),
			})
		}
	}
	return out
}

// Info returns a short human-readable status line, in the vein of the
// original cuckoo_hashtable's info()/hashInfo() diagnostics.
func (h *HashTable) Info() string {
	return fmt.Sprintf("HashTable{buckets=%d capacity=%d size=%d load=%.4f victim=%v}",
		h.BucketCount(), h.Capacity(), h.Size(), h.LoadFactor(), h.victim.present)
}
