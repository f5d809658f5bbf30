// Copyright (C) 2022-2025, VigilantDoomer
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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundPOW2(t *testing.T) {
	tests := map[uint32]uint32{0: 0, 1: 1, 2: 2, 3: 4, 5: 8, 64: 64, 65: 128}
	for in, out := range tests {
		require.Equal(t, out, RoundPOW2_Uint32(in), "%d", in)
	}
}

func TestRingNodeID(t *testing.T) {
	r := CreateRingNodeID(3)
	require.True(t, r.Empty())
	for i := NodeID(1); i <= 4; i++ {
		r.Enqueue(i)
	}
	require.False(t, r.Empty())

	require.Equal(t, NodeID(1), r.Dequeue())
	require.Equal(t, NodeID(2), r.Dequeue())
	r.Enqueue(5)
	r.Enqueue(6)
	for i := NodeID(3); i <= 6; i++ {
		require.Equal(t, i, r.Dequeue())
	}
	require.True(t, r.Empty())

	single := CreateRingNodeID(0)
	single.Enqueue(9)
	require.False(t, single.Empty())
	require.Equal(t, NodeID(9), single.Dequeue())
	require.True(t, single.Empty())
}
