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

// errors.go
package main

// Error types attached to errors returned by portal building and the program
// shell. Test for them with errors.IsType
const (
	// Tree bounds have zero or negative extent on some axis
	ErrTypeDegenerateBounds = "degenerate-bounds"
	// Portal is listed by a node that is neither of its sides, or links a
	// node that is not a leaf of the portal graph
	ErrTypeMislinkedPortal = "mislinked-portal"
	// Portal that straddles a node plane could not be clipped into anything
	ErrTypeSplitFailed = "split-failed"
	// Non-solid leaf was left without portals
	ErrTypeLeafWithoutPortals = "leaf-without-portals"
	// Portal is not listed exactly once by each of its sides
	ErrTypeAsymmetricPortal = "asymmetric-portal"
	// Portals were left behind after teardown
	ErrTypePortalsRemain   = "portals-remain"
	ErrTypeWindingOverflow = "winding-overflow"
	ErrTypeBadWinding      = "bad-winding"
	// Tree given to the program is malformed
	ErrTypeLevelFile = "level-file"
	ErrTypeConfig    = "config"
	ErrTypeOutput    = "output"
)
