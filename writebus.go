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

// Bus for organized writes to destination files
package main

import (
	"bufio"
	"io"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

const (
	WRI_TYPE_PRT = iota
	WRI_TYPE_REPORT
)

// Payload writers run on bus goroutine, so they must only read what they
// were given
type WriteBusRequest struct {
	tpeIndex int // typeIndex
	destName string
	write    func(w io.Writer) error
}

type WriteBus struct {
	fc *FileControl
}

type WriteBusControl struct {
	bus      *WriteBus
	ch       chan<- WriteBusRequest
	finisher <-chan error
}

func StartWriteBus(fc *FileControl) *WriteBusControl {
	bus := &WriteBus{
		fc: fc,
	}
	ch := make(chan WriteBusRequest)
	finisher := make(chan error, 1)
	go bus.WriteBusLoop(ch, finisher)
	return &WriteBusControl{
		bus:      bus,
		ch:       ch,
		finisher: finisher,
	}
}

func (b *WriteBus) WriteBusLoop(ch <-chan WriteBusRequest, chFinish chan<- error) {
	var firstErr error
	for req := range ch {
		if firstErr != nil {
			// keep draining so that senders never block
			continue
		}
		switch req.tpeIndex {
		case WRI_TYPE_PRT, WRI_TYPE_REPORT:
			firstErr = b.writeFile(req)
		default:
			firstErr = errors.Newf("unknown request at WriteBusLoop (%d)", req.tpeIndex).
				WithType(ErrTypeOutput)
		}
	}
	chFinish <- firstErr
}

func (b *WriteBus) writeFile(req WriteBusRequest) error {
	f, err := b.fc.CreateOutputFile(req.destName)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := req.write(w); err != nil {
		return errors.New("writing output failed").
			WithType(ErrTypeOutput).
			WithTag("file", req.destName).
			Wrap(err)
	}
	if err := w.Flush(); err != nil {
		return errors.New("flushing output failed").
			WithType(ErrTypeOutput).
			WithTag("file", req.destName).
			Wrap(err)
	}
	return nil
}

func (c *WriteBusControl) WritePortalFile(destName string, write func(w io.Writer) error) {
	c.ch <- WriteBusRequest{
		tpeIndex: WRI_TYPE_PRT,
		destName: destName,
		write:    write,
	}
}

func (c *WriteBusControl) WriteReport(destName string, write func(w io.Writer) error) {
	c.ch <- WriteBusRequest{
		tpeIndex: WRI_TYPE_REPORT,
		destName: destName,
		write:    write,
	}
}

// Shutdown waits for every submitted write, returns the first error
func (c *WriteBusControl) Shutdown() error {
	close(c.ch)
	return <-c.finisher
}
