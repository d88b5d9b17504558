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

// InsertStatus is the closed set of outcomes an insert into the
// HashTable or FilterPair can report (spec.md §7). Errors are reported
// locally via these values; never hidden, never retried internally.
type InsertStatus int

const (
	// InsertOk means the key (or fingerprint) was placed at a fresh slot.
	InsertOk InsertStatus = iota
	// InsertKeyDuplicated means an equal key already occupied a candidate
	// bucket; neither table nor filter was mutated.
	InsertKeyDuplicated
	// InsertTableFull means either the cuckoo walk exceeded MaxKicks (the
	// last displaced item is then held as the victim) or a victim was
	// already held, so the insert was refused.
	InsertTableFull
)

func (s InsertStatus) String() string {
	switch s {
	case InsertOk:
		return "Ok"
	case InsertKeyDuplicated:
		return "KeyDuplicated"
	case InsertTableFull:
		return "TableFull"
	default:
		return "Unknown"
	}
}

// LookupStatus is FilterPair.Lookup's result kind.
type LookupStatus int

const (
	// LookupNotFound means the filter reported no fingerprint match in
	// either candidate bucket.
	LookupNotFound LookupStatus = iota
	// LookupFound means the filter matched and the table confirmed an
	// exact key at the same coordinates.
	LookupFound
	// LookupFalsePositive means the filter matched but the table holds no
	// equal key there; the bucket is recorded in the dirty set.
	LookupFalsePositive
)

func (s LookupStatus) String() string {
	switch s {
	case LookupNotFound:
		return "NotFound"
	case LookupFound:
		return "Found"
	case LookupFalsePositive:
		return "FalsePositive"
	default:
		return "Unknown"
	}
}
