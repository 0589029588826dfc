/*
 * MIT License
 *
 * Copyright (c) 2019 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package logger is the structured logging sink shared by the orchestrator,
// its admission/timeout collaborators and every registered observer. It keeps
// the teacher's Entry-builder idiom while dropping the file/syslog/gorm/hclog
// adapters that do not serve this module's scope.
package logger

import (
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	logent "github.com/sabouaram/httpcore/logger/entry"
	loglvl "github.com/sabouaram/httpcore/logger/level"
)

// FuncLog is handed to collaborators that only need to obtain the current
// logger lazily, mirroring the teacher's liblog.FuncLog contract.
type FuncLog func() Logger

// Logger is the minimal structured-logging surface consumed by the
// orchestrator and by every Observer/Client implementation.
type Logger interface {
	// SetLevel changes the minimum level emitted from now on.
	SetLevel(lvl loglvl.Level)

	// GetLevel returns the current minimum level.
	GetLevel() loglvl.Level

	// SetOutput redirects where log lines are written.
	SetOutput(w io.Writer)

	// Clone returns an independent copy sharing the same output and level.
	Clone() Logger

	// Entry starts a structured log record at the given level.
	Entry(lvl loglvl.Level, message string) logent.Entry

	Debug(message string, data interface{}, args ...interface{})
	Info(message string, data interface{}, args ...interface{})
	Warning(message string, data interface{}, args ...interface{})
	Alert(message string, data interface{}, args ...interface{})
	Error(message string, data interface{}, args ...interface{})
}

type logger struct {
	mut sync.RWMutex
	log *logrus.Logger
	lvl loglvl.Level
}

// New returns a Logger backed by a fresh logrus.Logger writing to stderr at
// InfoLevel, matching the teacher's default server logging posture.
func New() Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(loglvl.InfoLevel.Logrus())

	return &logger{
		log: l,
		lvl: loglvl.InfoLevel,
	}
}

func (o *logger) SetLevel(lvl loglvl.Level) {
	o.mut.Lock()
	defer o.mut.Unlock()

	o.lvl = lvl
	o.log.SetLevel(lvl.Logrus())
}

func (o *logger) GetLevel() loglvl.Level {
	o.mut.RLock()
	defer o.mut.RUnlock()

	return o.lvl
}

func (o *logger) SetOutput(w io.Writer) {
	o.mut.Lock()
	defer o.mut.Unlock()

	o.log.SetOutput(w)
}

func (o *logger) Clone() Logger {
	o.mut.RLock()
	defer o.mut.RUnlock()

	n := logrus.New()
	n.SetOutput(o.log.Out)
	n.SetFormatter(o.log.Formatter)
	n.SetLevel(o.log.GetLevel())

	return &logger{
		log: n,
		lvl: o.lvl,
	}
}

func (o *logger) Entry(lvl loglvl.Level, message string) logent.Entry {
	return logent.New(lvl, message)
}

func (o *logger) logrusLogger() *logrus.Logger {
	o.mut.RLock()
	defer o.mut.RUnlock()

	return o.log
}

func (o *logger) emit(lvl loglvl.Level, message string, data interface{}, args ...interface{}) {
	e := o.Entry(lvl, message)

	if data != nil {
		e.FieldAdd("data", data)
	}

	for i, a := range args {
		e.FieldAdd(argKey(i), a)
	}

	e.Log(o.logrusLogger())
}

func argKey(i int) string {
	return "arg" + strconv.Itoa(i)
}

func (o *logger) Debug(message string, data interface{}, args ...interface{}) {
	o.emit(loglvl.DebugLevel, message, data, args...)
}

func (o *logger) Info(message string, data interface{}, args ...interface{}) {
	o.emit(loglvl.InfoLevel, message, data, args...)
}

func (o *logger) Warning(message string, data interface{}, args ...interface{}) {
	o.emit(loglvl.WarnLevel, message, data, args...)
}

func (o *logger) Alert(message string, data interface{}, args ...interface{}) {
	o.emit(loglvl.AlertLevel, message, data, args...)
}

func (o *logger) Error(message string, data interface{}, args ...interface{}) {
	o.emit(loglvl.ErrorLevel, message, data, args...)
}
