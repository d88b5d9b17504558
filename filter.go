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

// filterVictim is the Filter's own at-most-one overflow tag, used only in
// standalone (filter-only) mode — where the Filter drives its own cuckoo
// displacement instead of mirroring a HashTable — modeled as a tagged
// optional per spec.md §9 ("Victim cache. Modeled as a tagged optional, not
// a nullable pointer."), grounded on
// original_source/cuckoofilter/src/cuckoofilter.h's VictimCache.
type filterVictim struct {
	index   uint64
	tag     Fingerprint
	present bool
}

// Filter is the compact half of a pair: a PackedFilterTable sized
// identically to its companion HashTable, storing only fingerprints. It
// knows nothing about keys or seeds — every coordinate it touches is handed
// to it by the caller (spec.md §4.4). Grounded on fukua95-pds/cuckoofilter.go's
// bucket find/delete/findAvailableSlot shape and
// original_source/cuckoofilter/src/cuckoofilter.h's VictimCache / AddImpl /
// Contain / Delete for the standalone-mode operations.
type Filter struct {
	table      *PackedFilterTable
	hashFamily HashFamily
	w          *walker
	victim     filterVictim

	// seeds, when non-nil, lets the filter answer key-level ContainsKey
	// queries on its own. Only set on a filter rebuilt from an exported
	// snapshot (RebuildFilterFromSnapshot) — a paired-mode filter has no
	// seeds of its own and is queried through FilterPair.Lookup instead,
	// which reads the live seed vector off the companion HashTable.
	seeds []uint16
}

// NewFilter allocates a filter with numBuckets buckets of bitsPerTag-bit
// fingerprints, sharing hf and w with the companion HashTable's coordinate
// system when used in paired mode, or standing alone with its own when not.
func NewFilter(numBuckets uint64, bitsPerTag int, hf HashFamily, w *walker) *Filter {
	return &Filter{
		table:      NewPackedFilterTable(numBuckets, bitsPerTag),
		hashFamily: hf,
		w:          w,
	}
}

// NumBuckets returns the bucket count.
func (f *Filter) NumBuckets() uint64 { return f.table.NumBuckets() }

// SizeInBytes returns the packed storage footprint.
func (f *Filter) SizeInBytes() int { return f.table.SizeInBytes() }

// Set writes fp at (i, j), the coordinate the companion HashTable resolved.
func (f *Filter) Set(i uint64, j int, fp Fingerprint) {
	f.table.WriteTag(i, j, fp)
}

// Clear zeroes the fingerprint at (i, j).
func (f *Filter) Clear(i uint64, j int) {
	f.table.WriteTag(i, j, 0)
}

// ClearBucket zeroes every fingerprint in bucket i.
func (f *Filter) ClearBucket(i uint64) {
	f.table.ClearBucket(i)
}

// ContainsInBucket returns the slot holding fp in bucket i, or -1.
func (f *Filter) ContainsInBucket(i uint64, fp Fingerprint) int {
	return f.table.FindTagInBucket(i, fp)
}

// Contains reports whether fp is present in either candidate bucket,
// returning the bucket it was found in.
func (f *Filter) Contains(i1, i2 uint64, fp Fingerprint) (bucket uint64, ok bool) {
	return f.table.FindTagInBuckets(i1, i2, fp)
}

// HasVictim reports whether the filter is holding a standalone-mode
// overflow tag.
func (f *Filter) HasVictim() bool { return f.victim.present }

// Victim returns the held overflow tag's bucket and fingerprint. Only
// meaningful when HasVictim is true.
func (f *Filter) Victim() (bucket uint64, tag Fingerprint) {
	return f.victim.index, f.victim.tag
}

// InsertTag inserts fp into one of (i1, i2) in standalone mode, falling
// back to a single kickout against i1 or i2 (chosen at random) when both
// candidate buckets are full; the evicted tag becomes the held victim and
// InsertTableFull is returned (grounded on cuckoofilter.h's AddImpl,
// simplified to the one-kickout shape since the Filter never owns a
// multi-step cuckoo walk of its own — that belongs to the paired
// HashTable). Also returns InsertTableFull if a victim is already held.
func (f *Filter) InsertTag(i1, i2 uint64, fp Fingerprint) InsertStatus {
	if f.victim.present {
		return InsertTableFull
	}
	if ok, _ := f.table.InsertTagToBucket(i1, fp, false, nil); ok {
		return InsertOk
	}
	if ok, _ := f.table.InsertTagToBucket(i2, fp, false, nil); ok {
		return InsertOk
	}
	i := i1
	if f.w.next()%2 == 1 {
		i = i2
	}
	ok, evicted := f.table.InsertTagToBucket(i, fp, true, f.w)
	if ok {
		return InsertOk
	}
	f.victim = filterVictim{index: i, tag: evicted, present: true}
	return InsertTableFull
}

func (f *Filter) indexHash(hv uint64) uint64 {
	return hv & (f.NumBuckets() - 1)
}

func (f *Filter) altIndex(i uint64, fp Fingerprint) uint64 {
	return f.indexHash(i ^ (uint64(fp) * altIndexConstant))
}

// ContainsKey answers a key-level membership query by recomputing (i1, i2)
// and each bucket's seeded fingerprint from the filter's own seed vector.
// Only meaningful on a filter built by RebuildFilterFromSnapshot — it
// reports false unconditionally otherwise, since a paired-mode filter has
// no seeds to recompute with.
func (f *Filter) ContainsKey(key Key) bool {
	if f.seeds == nil {
		return false
	}
	hv0 := f.hashFamily.Sum64(key, 0)
	i1 := f.indexHash(hv0)
	fp0 := nonzeroTruncate(hv0, f.table.bitsPerTag)
	i2 := f.altIndex(i1, fp0)
	for _, i := range [2]uint64{i1, i2} {
		fp := nonzeroTruncate(f.hashFamily.Sum64(key, f.seeds[i]), f.table.bitsPerTag)
		if f.ContainsInBucket(i, fp) != -1 {
			return true
		}
	}
	return false
}

// DeleteTag removes fp from whichever of (i1, i2) holds it, then tries to
// reinsert a held victim into the victim's recorded bucket; the victim
// stays held if that bucket has no empty slot (grounded on
// cuckoofilter.h's Delete / TryEliminateVictim label).
func (f *Filter) DeleteTag(i1, i2 uint64, fp Fingerprint) bool {
	if !f.table.DeleteTagFromBucket(i1, fp) && !f.table.DeleteTagFromBucket(i2, fp) {
		// Not resident in the table proper; it may be the held victim.
		if f.victim.present && f.victim.tag == fp && (f.victim.index == i1 || f.victim.index == i2) {
			f.victim = filterVictim{}
			return true
		}
		return false
	}
	if f.victim.present {
		if ok, _ := f.table.InsertTagToBucket(f.victim.index, f.victim.tag, false, nil); ok {
			f.victim = filterVictim{}
		}
	}
	return true
}
