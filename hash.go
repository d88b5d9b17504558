// Copyright (c) 2014-2015 Utkan Güngördü <utkan@freeconsole.org>
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

import (
	"encoding/binary"
	"fmt"

	"github.com/aviddiviner/go-murmur"
	"github.com/cespare/xxhash/v2"
)

// HashFamily is the external collaborator spec.md §1 assumes: "a good
// 64-bit mixing function that accepts a 16-bit seed". The teacher's
// hash.go hard-coded three interchangeable 32-bit mixers selected by name
// at the call site (murmur3_32, xx_32, mem_32); HashFamily keeps that same
// plurality but turns it into a construction-time interface so the filter
// pair never hand-rolls hashing itself.
type HashFamily interface {
	// Sum64 mixes key with seed. seed == 0 is the default (unrehashed)
	// variant for a bucket; seed > 0 selects the bucket's current rehash
	// generation.
	Sum64(key Key, seed uint16) uint64
}

// XXHashFamily is the default HashFamily, backed by
// github.com/cespare/xxhash/v2 — the same hashing package
// dgraph-io/ristretto, rishabhverma17/HyperCache, schraf/collections and
// semihalev/sdns all reach for.
type XXHashFamily struct{}

// Sum64 feeds the key's 8 little-endian bytes through an xxhash digest
// seeded per-bucket, so two buckets with different seeds see unrelated
// hash streams for the same key.
func (XXHashFamily) Sum64(key Key, seed uint16) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], key)
	d := xxhash.NewWithSeed(uint64(seed))
	_, _ = d.Write(buf[:])
	return d.Sum64()
}

// MurmurHashFamily backs HashFamily with
// github.com/aviddiviner/go-murmur's MurmurHash64A, the exact hash
// fukua95-pds's cuckoo filter uses to build its (h1, h2, fp) triple.
// Selected via Config.HashFamilyName = "murmur".
type MurmurHashFamily struct{}

// Sum64 folds the 16-bit seed into MurmurHash64A's 32-bit seed argument.
func (MurmurHashFamily) Sum64(key Key, seed uint16) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], key)
	return murmur.MurmurHash64A(buf[:], uint32(seed))
}

// NewHashFamily resolves a HashFamily by name, defaulting to xxhash.
func NewHashFamily(name string) (HashFamily, error) {
	switch name {
	case "", "xxhash":
		return XXHashFamily{}, nil
	case "murmur":
		return MurmurHashFamily{}, nil
	default:
		return nil, fmt.Errorf("acuckoo: unknown hash family %q", name)
	}
}

// nonzeroTruncate extracts the low b bits of h and coerces a zero result
// to 1, preserving entropy in the rest of the value rather than OR-ing in
// the low bit (spec.md §4.3: "the `or 1` is replaced by `+ (==0)` to
// preserve entropy").
func nonzeroTruncate(h uint64, bits int) Fingerprint {
	mask := uint64(1)<<uint(bits) - 1
	v := Fingerprint(h & mask)
	if v == 0 {
		v++
	}
	return v
}
