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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Controls lifetime of input and output files - ensures they are properly
// closed by the end of program, regardless of success and failure. Outputs
// are written into temporary files next to their destination, which replace
// the destination on success or are deleted on failure, so that a failed run
// never leaves a half-written portal file behind
type FileControl struct {
	mu            sync.Mutex
	success       bool
	fin           *os.File
	inputFileName string
	outputs       []pendingOutput
}

type pendingOutput struct {
	tmp      *os.File
	destName string
}

func (fc *FileControl) OpenInputFile(inputFileName string) (*os.File, error) {
	fc.inputFileName = inputFileName
	var err error
	fc.fin, err = os.Open(inputFileName)
	if err != nil {
		fc.fin = nil
		return nil, errors.New("opening input file failed").
			WithType(ErrTypeLevelFile).
			WithTag("file", inputFileName).
			Wrap(err)
	}
	return fc.fin, nil
}

// CreateOutputFile returns a temporary file that becomes destName when
// Success is called
func (fc *FileControl) CreateOutputFile(destName string) (*os.File, error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	dir := filepath.Dir(destName)
	f, err := os.CreateTemp(dir, "tmp")
	if err != nil {
		return nil, errors.New("creating output file failed").
			WithType(ErrTypeOutput).
			WithTag("file", destName).
			Wrap(err)
	}
	fc.outputs = append(fc.outputs, pendingOutput{tmp: f, destName: destName})
	return f, nil
}

// Success closes every file and moves temporary outputs into place
func (fc *FileControl) Success() bool {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	hasError := false
	if fc.fin != nil {
		if err := fc.fin.Close(); err != nil {
			Log.Error("Closing input file returned error: %s.", err.Error())
			hasError = true
		}
		fc.fin = nil
	}
	for _, out := range fc.outputs {
		tmpName := out.tmp.Name()
		if err := out.tmp.Close(); err != nil {
			Log.Error("Closing output file '%s' returned error: %s.", out.destName,
				err.Error())
			hasError = true
			os.Remove(tmpName)
			continue
		}
		if err := os.Rename(tmpName, out.destName); err != nil {
			Log.Error("Couldn't move temporary file into '%s': %s.", out.destName,
				err.Error())
			hasError = true
			os.Remove(tmpName)
			continue
		}
		Log.Printf("Written %s", out.destName)
	}
	fc.outputs = nil
	fc.success = true // nothing to clean up on program exit anyway
	return !hasError
}

// Ensures we close all files when program exits. Temporary files are getting
// deleted at this moment
func (fc *FileControl) Shutdown() {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.success {
		return
	}

	if fc.fin != nil {
		if err := fc.fin.Close(); err != nil {
			Log.Error("Couldn't close input file '%s': %s", fc.inputFileName, err.Error())
		}
		fc.fin = nil
	}

	for _, out := range fc.outputs {
		if err := out.tmp.Close(); err != nil {
			Log.Error("Couldn't close temporary file for '%s': %s", out.destName,
				err.Error())
		}
		if err := os.Remove(out.tmp.Name()); err != nil {
			Log.Error("Got error when trying to delete a temporary file '%s': %s",
				out.tmp.Name(), err.Error())
		}
	}
	fc.outputs = nil
}

// Print with platform-specific linebreaks indicated by CRLF argument
func WriterPrintfln(w io.Writer, CRLF bool, format string, a ...interface{}) error {
	if len(format) > 0 && format[len(format)-1] == '\n' {
		format = format[:len(format)-1]
	}
	_, err := io.WriteString(w, appendCRLF(CRLF, fmt.Sprintf(format, a...)))
	return err
}

func appendCRLF(CRLF bool, s string) string {
	if CRLF {
		return s + "\r\n"
	} else {
		return s + "\n"
	}
}
