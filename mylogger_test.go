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
	"strings"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestMiniLoggerMerge(t *testing.T) {
	log := CreateLogger().WithPass("test-pass")
	mlog := CreateMiniLogger()
	mlog.Printf("first %d", 1)
	mlog.Warn("second\n")
	mlog.Verbose(5, "never shown")
	require.Equal(t, 2, mlog.Len())

	capturedLogs()
	log.Merge(mlog, "preface")
	out := capturedLogs()
	require.Contains(t, out, "preface")
	require.Contains(t, out, "test-pass")
	i1 := strings.Index(out, "first 1")
	i2 := strings.Index(out, "second")
	require.True(t, i1 >= 0 && i2 > i1, "messages keep their order: %s", out)
	require.NotContains(t, out, "never shown")

	log.Merge(CreateMiniLogger(), "nothing to say")
	require.NotContains(t, capturedLogs(), "nothing to say")
}

func TestLoggerErrors(t *testing.T) {
	log := CreateLogger().WithPass("err-pass")

	capturedLogs()
	log.Error("cannot open %s", "e1m1.yaml")
	out := capturedLogs()
	require.Contains(t, out, "cannot open e1m1.yaml")
	require.Contains(t, out, `"error"`)
	require.Contains(t, out, "err-pass")

	log.ErrorValue(errors.New("bad node").
		WithType(ErrTypeLevelFile).
		WithTag("path", "tree.front"))
	out = capturedLogs()
	require.Contains(t, out, "bad node")
	require.Contains(t, out, ErrTypeLevelFile)
	require.Contains(t, out, "tree.front")

	mlog := CreateMiniLogger()
	mlog.Error("leaf %d has no portals", 4)
	log.Merge(mlog, "")
	out = capturedLogs()
	require.Contains(t, out, "leaf 4 has no portals")
	require.Contains(t, out, `"error"`)
}

func TestLoggerVerbosity(t *testing.T) {
	log := CreateLogger()
	require.Equal(t, 0, log.VerbosityLevel())
	derived := log.WithPass("p")
	log.verbosity.Store(2)
	require.Equal(t, 2, derived.VerbosityLevel(), "derived loggers share verbosity")

	var nilLog *MiniLogger
	require.Equal(t, 0, nilLog.Len())
}

func TestLoggerPanic(t *testing.T) {
	require.PanicsWithValue(t, "bad 7", func() {
		CreateLogger().Panic("bad %d", 7)
	})
}
