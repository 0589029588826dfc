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

// Package entry provides the builder used to assemble one structured log
// record before it is emitted through logrus.
package entry

import (
	"github.com/sirupsen/logrus"

	loglvl "github.com/sabouaram/httpcore/logger/level"
)

// Entry accumulates fields and an optional error on top of a fixed level and
// message, then emits (or silently drops) them as a single logrus call.
type Entry interface {
	// FieldAdd attaches a structured field to the entry and returns it for chaining.
	FieldAdd(key string, value interface{}) Entry

	// ErrorAdd records err on the entry. When mandatory is true, a nil err
	// downgrades the entry to DebugLevel instead of dropping the field.
	ErrorAdd(mandatory bool, err error) Entry

	// Check reports whether the entry's level is at or above min and worth logging.
	Check(min loglvl.Level) bool

	// Log emits the entry through the given logrus logger. An entry at
	// NilLevel, or a nil logger, emits nothing; Log does not consult Check.
	Log(log *logrus.Logger)
}

type entry struct {
	lvl loglvl.Level
	msg string
	fld logrus.Fields
	err error
}

// New returns an Entry fixed at the given level and message.
func New(lvl loglvl.Level, message string) Entry {
	return &entry{
		lvl: lvl,
		msg: message,
		fld: make(logrus.Fields),
	}
}

func (e *entry) FieldAdd(key string, value interface{}) Entry {
	if e.fld == nil {
		e.fld = make(logrus.Fields)
	}

	e.fld[key] = value
	return e
}

func (e *entry) ErrorAdd(mandatory bool, err error) Entry {
	if err == nil {
		if mandatory {
			e.lvl = loglvl.DebugLevel
		}
		return e
	}

	e.err = err
	e.fld["error"] = err.Error()
	return e
}

func (e *entry) Check(min loglvl.Level) bool {
	return e.lvl <= min
}

func (e *entry) Log(log *logrus.Logger) {
	if e.lvl == loglvl.NilLevel || log == nil {
		return
	}

	l := log.WithFields(e.fld)

	switch e.lvl {
	case loglvl.ErrorLevel:
		l.Error(e.msg)
	case loglvl.AlertLevel, loglvl.WarnLevel:
		l.Warn(e.msg)
	case loglvl.InfoLevel:
		l.Info(e.msg)
	case loglvl.DebugLevel:
		l.Debug(e.msg)
	}
}
