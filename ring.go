// Copyright (C) 2022, VigilantDoomer
//
// This file is part of VigilantPRT program.
//
// VigilantPRT is free software: you can redistribute it
// and/or modify it under the terms of GNU General Public License
// as published by the Free Software Foundation, either version 2 of
// the License, or (at your option) any later version.
//
// VigilantPRT is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with VigilantPRT.  If not, see <https://www.gnu.org/licenses/>.
package main

// Implements ring buffer (a fixed size power of two queue). Not thread-safe,
// used as the breadth-first queue of flood fills over the portal graph.
// Idea from https://www.snellman.net/blog/archive/2016-12-13-ring-buffers/

const MAX_RING_CAPACITY = uint32(2147483648)

// RingNodeID holds node ids of the tree arena. A flood visits each node at
// most once, so a ring sized to the number of nodes never overflows
// Beware: the routines perform no overflow or underflow checking for Enqueue's
// and Dequeue's. The end user is solely responsible to ascertain they don't
// dequeue an empty ring or enqueue a full ring.
type RingNodeID struct {
	read     uint32
	write    uint32
	capacity uint32 // never changes after initialization
	buf      []NodeID
}

// The argument capacity is how much data you expect to hold in ring buffer.
// This function will upsize it automatically to a power of two if non-power of
// two capacity is provided.
func CreateRingNodeID(capacity uint32) *RingNodeID {
	iCap := RoundPOW2_Uint32(capacity)
	if iCap < capacity {
		Log.Panic("Integer overflow when computing ring capacity (before rounding up to power of two: %d). Specified capacity clearly exceeds the possible maximum",
			capacity)
	}
	if iCap > MAX_RING_CAPACITY {
		Log.Panic("Exceeds maximum ring capacity: %d (%d rounded up to power of two)",
			iCap, capacity)
	}
	if iCap == 0 {
		iCap = 1
	}
	return &RingNodeID{
		read:     0,
		write:    0,
		capacity: iCap,
		buf:      make([]NodeID, iCap),
	}
}

func RoundPOW2_Uint32(x uint32) uint32 {
	if x <= 2 {
		return x
	}

	x--

	for tmp := x >> 1; tmp != 0; tmp >>= 1 {
		x |= tmp
	}

	return x + 1
}

func (r *RingNodeID) mask(val uint32) uint32 {
	return val & (r.capacity - 1)
}

func (r *RingNodeID) Enqueue(item NodeID) {
	r.buf[r.mask(r.write)] = item
	r.write++
}

func (r *RingNodeID) Dequeue() NodeID {
	res := r.buf[r.mask(r.read)]
	r.read++
	return res
}

func (r *RingNodeID) Empty() bool {
	return r.read == r.write
}
