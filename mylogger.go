// Copyright (C) 2022-2023, VigilantDoomer
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

// Central log of the program. Everything goes out as structured entries
// through go-tooling logs, so that the output can be read by humans (inline
// encoder) or collected by machines (json encoder)
package main

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

const (
	AppTag    = "app"
	AppName   = "vigilantprt"
	PassIDTag = "pass_id"
)

type MyLogger struct {
	// Pass id attached to every entry, empty for program-wide messages
	passID string
	// Shared by loggers derived with WithPass
	verbosity *atomic.Int32
	// Mutex is used to order writes, as well as Sync call
	mu *sync.Mutex
}

// Logs specific to one task run by a worker goroutine. Their output is
// buffered until merged into main log, so that messages of one task come out
// together instead of interleaving with other workers
type MiniLogger struct {
	entries   []miniEntry
	verbosity int
}

type miniEntry struct {
	level int
	msg   string
}

const (
	mlogInfo = iota
	mlogVerbose
	mlogWarn
	mlogError
)

func CreateLogger() *MyLogger {
	return &MyLogger{
		verbosity: new(atomic.Int32),
		mu:        new(sync.Mutex),
	}
}

var Log = CreateLogger()

func formatMsg(s string, a ...interface{}) string {
	return strings.TrimRight(fmt.Sprintf(s, a...), "\n")
}

// WithPass returns a logger that tags every entry with pass id
func (log *MyLogger) WithPass(passID string) *MyLogger {
	return &MyLogger{
		passID:    passID,
		verbosity: log.verbosity,
		mu:        log.mu,
	}
}

func (log *MyLogger) SetVerbosity(level int) {
	log.verbosity.Store(int32(level))
	if level > 0 {
		logs.SetLevel(logs.DebugLevel)
	}
}

func (log *MyLogger) VerbosityLevel() int {
	return int(log.verbosity.Load())
}

func (log *MyLogger) info(msg string) {
	if log.passID != "" {
		logs.WithTag(AppTag, AppName).WithTag(PassIDTag, log.passID).Info(msg)
		return
	}
	logs.WithTag(AppTag, AppName).Info(msg)
}

func (log *MyLogger) debug(msg string) {
	if log.passID != "" {
		logs.WithTag(AppTag, AppName).WithTag(PassIDTag, log.passID).Debug(msg)
		return
	}
	logs.WithTag(AppTag, AppName).Debug(msg)
}

func (log *MyLogger) warn(msg string) {
	if log.passID != "" {
		logs.WithTag(AppTag, AppName).WithTag(PassIDTag, log.passID).Warn(msg)
		return
	}
	logs.WithTag(AppTag, AppName).Warn(msg)
}

func (log *MyLogger) error(err error) {
	if log.passID != "" {
		logs.WithTag(AppTag, AppName).WithTag(PassIDTag, log.passID).Error(err)
		return
	}
	logs.WithTag(AppTag, AppName).Error(err)
}

// Your generic printf to let user see things
func (log *MyLogger) Printf(s string, a ...interface{}) {
	log.mu.Lock()
	defer log.mu.Unlock()
	log.info(formatMsg(s, a...))
}

// Something is off with the input, but the program can go on
func (log *MyLogger) Warn(s string, a ...interface{}) {
	log.mu.Lock()
	defer log.mu.Unlock()
	log.warn(formatMsg(s, a...))
}

// Does NOT interrupt execution of the program
func (log *MyLogger) Error(s string, a ...interface{}) {
	log.mu.Lock()
	defer log.mu.Unlock()
	log.error(errors.New(formatMsg(s, a...)))
}

// ErrorValue logs error value as is, keeping its type and tags
func (log *MyLogger) ErrorValue(err error) {
	log.mu.Lock()
	defer log.mu.Unlock()
	log.error(err)
}

// For advanced users or users that are curious, or programmers, there is
// stuff they might want to see but only when they can really bother to spend
// time reading it
func (log *MyLogger) Verbose(verbosityLevel int, s string, a ...interface{}) {
	if verbosityLevel <= log.VerbosityLevel() {
		log.mu.Lock()
		defer log.mu.Unlock()
		log.debug(formatMsg(s, a...))
	}
}

// Panicking is not a good thing, but at least we can now use formatted printing
// for it
func (log *MyLogger) Panic(s string, a ...interface{}) {
	log.mu.Lock()
	defer log.mu.Unlock()
	panic(fmt.Sprintf(s, a...))
}

// Sync is used to wait until all messages are written to the output
func (log *MyLogger) Sync() {
	log.mu.Lock()
	log.mu.Unlock()
}

// Merge replays buffered messages of a worker, preceded by preface if it is
// not empty
func (log *MyLogger) Merge(mlog *MiniLogger, preface string) {
	if mlog == nil || len(mlog.entries) == 0 {
		return
	}
	log.mu.Lock()
	defer log.mu.Unlock()
	if len(preface) > 0 {
		log.info(preface)
	}
	for _, e := range mlog.entries {
		switch e.level {
		case mlogInfo:
			log.info(e.msg)
		case mlogVerbose:
			log.debug(e.msg)
		case mlogWarn:
			log.warn(e.msg)
		case mlogError:
			log.error(errors.New(e.msg))
		}
	}
}

func CreateMiniLogger() *MiniLogger {
	return &MiniLogger{
		verbosity: Log.VerbosityLevel(),
	}
}

func (mlog *MiniLogger) Printf(s string, a ...interface{}) {
	if mlog == nil {
		Log.Printf(s, a...)
		return
	}
	mlog.entries = append(mlog.entries, miniEntry{mlogInfo, formatMsg(s, a...)})
}

func (mlog *MiniLogger) Warn(s string, a ...interface{}) {
	if mlog == nil {
		Log.Warn(s, a...)
		return
	}
	mlog.entries = append(mlog.entries, miniEntry{mlogWarn, formatMsg(s, a...)})
}

func (mlog *MiniLogger) Error(s string, a ...interface{}) {
	if mlog == nil {
		Log.Error(s, a...)
		return
	}
	mlog.entries = append(mlog.entries, miniEntry{mlogError, formatMsg(s, a...)})
}

func (mlog *MiniLogger) Verbose(verbosityLevel int, s string, a ...interface{}) {
	if mlog == nil {
		Log.Verbose(verbosityLevel, s, a...)
		return
	}
	if verbosityLevel <= mlog.verbosity {
		mlog.entries = append(mlog.entries, miniEntry{mlogVerbose, formatMsg(s, a...)})
	}
}

// Len is the number of buffered messages
func (mlog *MiniLogger) Len() int {
	if mlog == nil {
		return 0
	}
	return len(mlog.entries)
}
