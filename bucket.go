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

// Package acuckoo implements an adaptive cuckoo filter pair: an exact
// cuckoo hash table and a compact cuckoo filter kept coordinate-isomorphic
// at every (bucket, slot), so that false positives observed during a
// lookup workload can be repaired by rehashing the offending bucket.
package acuckoo

import "fmt"

// SlotsPerBucket is the fixed associativity of every bucket in the pair.
// Fixed at compile time, as the teacher's bshift constant fixes blen.
const SlotsPerBucket = 4

// bucketRow holds SlotsPerBucket payloads of type T plus their occupancy.
type bucketRow[T any] struct {
	slots    [SlotsPerBucket]T
	occupied [SlotsPerBucket]bool
}

// BucketContainer is a fixed-size array of N = 2^hashpower buckets, each
// holding SlotsPerBucket slots of payload type T. It performs no hashing of
// its own; callers compute (bucket, slot) coordinates and the container
// only stores and retrieves.
type BucketContainer[T any] struct {
	rows      []bucketRow[T]
	hashpower int
}

// NewBucketContainer allocates a container with 2^hashpower buckets,
// value-initialized to the zero value of T and marked empty.
func NewBucketContainer[T any](hashpower int) *BucketContainer[T] {
	return &BucketContainer[T]{
		rows:      make([]bucketRow[T], 1<<uint(hashpower)),
		hashpower: hashpower,
	}
}

// Size returns N, the number of buckets.
func (c *BucketContainer[T]) Size() int { return len(c.rows) }

// Hashpower returns H such that Size() == 2^H.
func (c *BucketContainer[T]) Hashpower() int { return c.hashpower }

// Occupied reports whether slot j of bucket i holds a value.
func (c *BucketContainer[T]) Occupied(i, j int) bool {
	return c.rows[i].occupied[j]
}

// Get returns the payload at (i, j). Only meaningful if Occupied(i, j).
func (c *BucketContainer[T]) Get(i, j int) T {
	return c.rows[i].slots[j]
}

// Set writes t into slot j of bucket i. Precondition: the slot must be
// empty. The occupied flag is set last so a reader racing a writer (in a
// hypothetical concurrent caller) never observes a half-written slot —
// strong exception safety for the single-threaded case reduces to "never
// observe occupied=true before the value is in place".
func (c *BucketContainer[T]) Set(i, j int, t T) {
	if c.rows[i].occupied[j] {
		panic(fmt.Sprintf("acuckoo: Set on occupied slot (%d,%d)", i, j))
	}
	c.rows[i].slots[j] = t
	c.rows[i].occupied[j] = true
}

// Erase clears slot j of bucket i. Precondition: the slot must be occupied.
func (c *BucketContainer[T]) Erase(i, j int) {
	if !c.rows[i].occupied[j] {
		panic(fmt.Sprintf("acuckoo: Erase on empty slot (%d,%d)", i, j))
	}
	var zero T
	c.rows[i].slots[j] = zero
	c.rows[i].occupied[j] = false
}

// Replace overwrites an already-occupied slot j of bucket i with t,
// returning the value it held. Used by the cuckoo-path random walk, which
// swaps an incoming key for a resident one rather than emptying the slot
// in between. Precondition: the slot must be occupied.
func (c *BucketContainer[T]) Replace(i, j int, t T) T {
	if !c.rows[i].occupied[j] {
		panic(fmt.Sprintf("acuckoo: Replace on empty slot (%d,%d)", i, j))
	}
	old := c.rows[i].slots[j]
	c.rows[i].slots[j] = t
	return old
}

// ClearBucket empties every slot of bucket i.
func (c *BucketContainer[T]) ClearBucket(i int) {
	var zero T
	row := &c.rows[i]
	for j := range row.slots {
		row.slots[j] = zero
		row.occupied[j] = false
	}
}

// FirstEmptySlot returns the index of the first empty slot in bucket i, or
// -1 if the bucket is full.
func (c *BucketContainer[T]) FirstEmptySlot(i int) int {
	row := &c.rows[i]
	for j := range row.occupied {
		if !row.occupied[j] {
			return j
		}
	}
	return -1
}
