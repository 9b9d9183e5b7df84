/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package scenario

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/gravwell/gcfg"
)

const maxConfigSize int64 = 64 * 1024 // a scenario file describes a handful of tasks, never megabytes

var (
	ErrConfigFileTooLarge = errors.New("scenario: config file is too large")
	ErrFailedFileRead     = errors.New("scenario: failed to read entire config file")
)

// Load reads the scenario file at path and resolves it into a Config.
func Load(path string) (*Config, error) {
	fin, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fin.Close()
	fi, err := fin.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Size() > maxConfigSize {
		return nil, ErrConfigFileTooLarge
	}
	bb := bytes.NewBuffer(nil)
	n, err := io.Copy(bb, fin)
	if err != nil {
		return nil, err
	} else if n != fi.Size() {
		return nil, ErrFailedFileRead
	}
	return LoadBytes(bb.Bytes())
}

// LoadBytes parses the contents of b as a scenario file and resolves it.
func LoadBytes(b []byte) (*Config, error) {
	if int64(len(b)) > maxConfigSize {
		return nil, ErrConfigFileTooLarge
	}
	var raw rawConfig
	if err := gcfg.ReadStringInto(&raw, string(b)); err != nil {
		return nil, err
	}
	return raw.Verify()
}
