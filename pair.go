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

// PairState is FilterPair's lifecycle state (spec.md "State machine
// (FilterPair)").
type PairState int

const (
	// StateEmpty holds no keys yet.
	StateEmpty PairState = iota
	// StateLoading has accepted at least one insert and StartLookup has not
	// been called yet. Inserts in any later state leave the state as is.
	StateLoading
	// StateProbing is mid lookup-sweep; the dirty set may be non-empty.
	StateProbing
	// StateConverged means the most recent lookup sweep produced no false
	// positives.
	StateConverged
	// StateFull means the HashTable's cuckoo walk exhausted MaxKicks and
	// holds a victim; every insert is refused. The only way out is a Delete
	// that frees a slot in the victim's bucket, letting the victim back in
	// (the pair then returns to StateProbing).
	StateFull
)

func (s PairState) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StateLoading:
		return "Loading"
	case StateProbing:
		return "Probing"
	case StateConverged:
		return "Converged"
	case StateFull:
		return "Full"
	default:
		return "Unknown"
	}
}

// Snapshot is an in-memory export of a FilterPair's filter half plus its
// seed vector: enough to rebuild a standalone Filter without replaying any
// insert (spec.md §4.5 "export_table / rebuild_filter").
type Snapshot struct {
	BitsPerFingerprint int
	NumBuckets         uint64
	Seeds              []uint16
	Buckets            [][SlotsPerBucket]Fingerprint
}

// FilterPair orchestrates a HashTable and a Filter kept coordinate-
// isomorphic at every (bucket, slot), driving the rehash-on-lookup
// adaptation loop that repairs false positives observed during a lookup
// workload. Grounded on original_source/cuckoopair.hh's cuckoo_pair
// (insert delegates to the table for cuckoo-trail coordinates, then tells
// the filter where to write; lookup asks the filter first and the table is
// the ground truth) and cuckoofilter.h's RehashCheck/RehashBucket for the
// dirty-set-driven rehash loop.
type FilterPair struct {
	table  *HashTable
	filter *Filter

	state       PairState
	dirty       map[uint64]struct{}
	numRehashes uint64
}

// NewFilterPair builds a pair sized and tuned per cfg.
func NewFilterPair(cfg Config) (*FilterPair, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	table, err := NewHashTable(cfg)
	if err != nil {
		return nil, err
	}
	filter := NewFilter(table.BucketCount(), cfg.BitsPerFingerprint, table.hashFamily, table.w)
	return &FilterPair{
		table:  table,
		filter: filter,
		dirty:  make(map[uint64]struct{}),
	}, nil
}

// State returns the pair's current lifecycle state.
func (p *FilterPair) State() PairState { return p.state }

// Size returns the number of keys currently stored.
func (p *FilterPair) Size() uint64 { return p.table.Size() }

// Capacity returns the slot capacity, N*SlotsPerBucket.
func (p *FilterPair) Capacity() uint64 { return p.table.Capacity() }

// LoadFactor returns Size()/Capacity().
func (p *FilterPair) LoadFactor() float64 { return p.table.LoadFactor() }

// Seeds returns the live per-bucket seed vector (read-only; mutate only
// through RehashBuckets).
func (p *FilterPair) Seeds() []uint16 { return p.table.Seeds() }

// NumRehashes returns the number of rehash_buckets() rounds that rewrote at
// least one bucket.
func (p *FilterPair) NumRehashes() uint64 { return p.numRehashes }

// DirtyCount returns the number of buckets currently pending rehash.
func (p *FilterPair) DirtyCount() int { return len(p.dirty) }

// Insert places key into the table and, on success, writes its fingerprint
// into the filter at the same coordinates (spec.md §4.5 insert).
func (p *FilterPair) Insert(key Key) InsertStatus {
	if p.state == StateFull {
		return InsertTableFull
	}
	i, j, status := p.table.Insert(key)
	switch status {
	case InsertOk:
		fp := p.table.Fingerprint(key, p.table.Seeds()[i])
		p.filter.Set(i, j, fp)
		if p.state == StateEmpty {
			p.state = StateLoading
		}
		return InsertOk
	case InsertKeyDuplicated:
		return InsertKeyDuplicated
	default:
		p.state = StateFull
		return InsertTableFull
	}
}

// Delete removes key if present, clearing both the table slot and the
// filter tag at the same coordinates, then reclaims a held victim into the
// freed slot if it belongs there — restoring the full delete/victim
// symmetry original_source/cuckoofilter/src/cuckoofilter.h's Delete has
// and spec.md §9 directs this implementation to complete. Reports whether
// key was found.
func (p *FilterPair) Delete(key Key) bool {
	i, j, found := p.table.Find(key)
	if !found {
		return false
	}
	p.table.Erase(i, j)
	p.filter.Clear(i, j)

	if slot, ok := p.table.TryReclaimVictim(i); ok {
		victimKey := p.table.At(i, slot)
		fp := p.table.Fingerprint(victimKey, p.table.Seeds()[i])
		p.filter.Set(i, slot, fp)
		if p.state == StateFull {
			p.state = StateProbing
		}
	}
	return true
}

// Lookup answers an approximate-membership query. Both candidate buckets
// are checked against the table first — every slot, not just the one a
// filter fingerprint match names — since two resident keys can share a
// fingerprint under a bucket's current seed, and a tag in one candidate
// bucket can match the fingerprint of a key resident in the other; only
// when neither bucket holds the exact key does a filter hit count as a
// false positive (P3: a stored key is always Found). The offending bucket
// on a false positive is added to the dirty set for the next RehashBuckets
// call.
func (p *FilterPair) Lookup(key Key) (status LookupStatus, bucket uint64, slot int) {
	i1, i2, _ := p.table.Indices(key)
	seeds := p.table.Seeds()
	for _, i := range [2]uint64{i1, i2} {
		for j := 0; j < SlotsPerBucket; j++ {
			if p.table.Occupied(i, j) && p.table.At(i, j) == key {
				return LookupFound, i, j
			}
		}
	}
	for _, i := range [2]uint64{i1, i2} {
		fp := p.table.Fingerprint(key, seeds[i])
		if p.filter.ContainsInBucket(i, fp) != -1 {
			p.dirty[i] = struct{}{}
			return LookupFalsePositive, i, 0
		}
	}
	return LookupNotFound, 0, 0
}

// Find is a strict, table-only exact-match query: no filter consultation,
// no dirty-set side effect.
func (p *FilterPair) Find(key Key) (bucket uint64, slot int, found bool) {
	return p.table.Find(key)
}

// StartLookup clears the dirty set and enters the Probing state, marking
// the beginning of a new lookup sweep (spec.md §4.5 start_lookup).
func (p *FilterPair) StartLookup() {
	p.dirty = make(map[uint64]struct{})
	if p.state != StateFull {
		p.state = StateProbing
	}
}

// RehashBuckets processes every bucket in the dirty set accumulated since
// the last StartLookup, bumping each bucket's seed and rewriting the
// filter's tags from the table's live keys. Returns the total number of
// slots rewritten. An empty dirty set moves Probing to Converged without
// touching the table; a non-empty one rehashes and stays in Probing, ready
// for the caller's next lookup pass over the same set (spec.md §4.5
// rehash_buckets, state machine).
func (p *FilterPair) RehashBuckets() int {
	if len(p.dirty) == 0 {
		if p.state == StateProbing {
			p.state = StateConverged
		}
		return 0
	}
	dirty := p.dirty
	p.dirty = make(map[uint64]struct{})

	rewrites := 0
	for i := range dirty {
		slots := p.table.RehashBucket(i)
		for _, sf := range slots {
			p.filter.Set(i, sf.Slot, sf.Fingerprint)
		}
		rewrites += len(slots)
	}
	p.numRehashes++
	if p.state != StateFull {
		p.state = StateProbing
	}
	return rewrites
}

// ExportSnapshot captures the filter's tags and the live seed vector,
// enough to rebuild a standalone Filter without replaying any insert
// (spec.md §4.5 export_table).
func (p *FilterPair) ExportSnapshot() Snapshot {
	n := p.table.BucketCount()
	buckets := make([][SlotsPerBucket]Fingerprint, n)
	for i := uint64(0); i < n; i++ {
		var row [SlotsPerBucket]Fingerprint
		for j := 0; j < SlotsPerBucket; j++ {
			row[j] = p.filter.table.ReadTag(i, j)
		}
		buckets[i] = row
	}
	seeds := make([]uint16, len(p.table.Seeds()))
	copy(seeds, p.table.Seeds())
	return Snapshot{
		BitsPerFingerprint: p.table.bitsPerFp,
		NumBuckets:         n,
		Seeds:              seeds,
		Buckets:            buckets,
	}
}

// RebuildFilterFromSnapshot constructs a standalone Filter directly from a
// Snapshot, bypassing the cuckoo path entirely since placement is already
// prescribed: every (i, j) with a nonzero tag is written straight into the
// fresh PackedFilterTable (spec.md §4.5 rebuild_filter). hf must be the
// same HashFamily the snapshot's table used.
func RebuildFilterFromSnapshot(snap Snapshot, hf HashFamily) *Filter {
	f := NewFilter(snap.NumBuckets, snap.BitsPerFingerprint, hf, nil)
	f.seeds = make([]uint16, len(snap.Seeds))
	copy(f.seeds, snap.Seeds)
	for i, row := range snap.Buckets {
		for j, fp := range row {
			if fp != 0 {
				f.Set(uint64(i), j, fp)
			}
		}
	}
	return f
}

// Info returns a short human-readable status line summarizing both halves
// of the pair (spec.md §6 info()).
func (p *FilterPair) Info() string {
	return fmt.Sprintf("FilterPair{state=%s size=%d capacity=%d load=%.4f rehashes=%d dirty=%d} %s",
		p.state, p.Size(), p.Capacity(), p.LoadFactor(), p.numRehashes, len(p.dirty), p.table.Info())
}
