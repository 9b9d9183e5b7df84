/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package eventlog is the kernel's structured tracing sink.
//
// It mirrors gravwell's ingest/log package, trimmed down to what the
// kernel's system_logger feature actually needs: leveled, structured
// (RFC5424) records with no file rotation, no UDP relays and no terminal
// color detection, since none of that has a home on a microcontroller.
// A Logger is safe to share between cores; every write is serialized
// through a single mutex, same as the ambient critical-section discipline
// the rest of the kernel uses.
package eventlog

import (
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/crewjam/rfc5424"
)

type Level int

const (
	OFF Level = iota
	DEBUG
	INFO
	WARN
	ERROR
)

var (
	ErrNotOpen      = errors.New("logger is not open")
	ErrInvalidLevel = errors.New("log level is invalid")
)

const DefaultID = `rtk@1`

// Logger is a minimal structured logger for kernel trace events. It
// filters records only by level (see SetLevel); any other choice of which
// events to record is left to the caller.
type Logger struct {
	mtx      sync.Mutex
	wtr      io.WriteCloser
	lvl      Level
	hot      bool
	hostname string
	appname  string
}

// New creates a Logger at level INFO writing to wtr.
func New(wtr io.WriteCloser) *Logger {
	l := &Logger{
		wtr: wtr,
		lvl: INFO,
		hot: true,
	}
	l.hostname, _ = os.Hostname()
	if len(os.Args) > 0 {
		l.appname = os.Args[0]
	}
	return l
}

// NewFile opens f in append mode and wraps it in a Logger.
func NewFile(f string) (*Logger, error) {
	fout, err := os.OpenFile(f, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0660)
	if err != nil {
		return nil, err
	}
	return New(fout), nil
}

// NewDiscard returns a Logger that throws away everything it is given.
func NewDiscard() *Logger {
	return New(discardCloser{})
}

func (l *Logger) Close() error {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if !l.hot {
		return ErrNotOpen
	}
	l.hot = false
	return l.wtr.Close()
}

// SetLevel sets the minimum level that will be emitted.
func (l *Logger) SetLevel(lvl Level) error {
	if !lvl.valid() {
		return ErrInvalidLevel
	}
	l.mtx.Lock()
	l.lvl = lvl
	l.mtx.Unlock()
	return nil
}

func (l *Logger) Debug(msg string, sds ...rfc5424.SDParam) error { return l.event(DEBUG, msg, sds...) }
func (l *Logger) Info(msg string, sds ...rfc5424.SDParam) error  { return l.event(INFO, msg, sds...) }
func (l *Logger) Warn(msg string, sds ...rfc5424.SDParam) error  { return l.event(WARN, msg, sds...) }
func (l *Logger) Error(msg string, sds ...rfc5424.SDParam) error { return l.event(ERROR, msg, sds...) }

func (l *Logger) event(lvl Level, msg string, sds ...rfc5424.SDParam) error {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if !l.hot {
		return ErrNotOpen
	}
	if l.lvl == OFF || lvl < l.lvl {
		return nil
	}
	m := rfc5424.Message{
		Priority:  lvl.priority(),
		Timestamp: time.Now(),
		Hostname:  l.hostname,
		AppName:   l.appname,
		Message:   []byte(msg),
	}
	if len(sds) > 0 {
		m.StructuredData = []rfc5424.StructuredData{{ID: DefaultID, Parameters: sds}}
	}
	b, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = l.wtr.Write(append(b, '\n'))
	return err
}

func (l Level) String() string {
	switch l {
	case OFF:
		return `OFF`
	case DEBUG:
		return `DEBUG`
	case INFO:
		return `INFO`
	case WARN:
		return `WARN`
	case ERROR:
		return `ERROR`
	}
	return `UNKNOWN`
}

func (l Level) valid() bool {
	return l >= OFF && l <= ERROR
}

func (l Level) priority() rfc5424.Priority {
	switch l {
	case DEBUG:
		return rfc5424.User | rfc5424.Debug
	case INFO:
		return rfc5424.User | rfc5424.Info
	case WARN:
		return rfc5424.User | rfc5424.Warning
	case ERROR:
		return rfc5424.User | rfc5424.Error
	}
	return rfc5424.User | rfc5424.Debug
}

func LevelFromString(s string) (Level, error) {
	switch strings.ToUpper(s) {
	case `OFF`:
		return OFF, nil
	case `DEBUG`:
		return DEBUG, nil
	case `INFO`:
		return INFO, nil
	case `WARN`:
		return WARN, nil
	case `ERROR`:
		return ERROR, nil
	}
	return OFF, ErrInvalidLevel
}

type discardCloser struct{}

func (discardCloser) Write(b []byte) (int, error) { return len(b), nil }
func (discardCloser) Close() error                { return nil }
