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

// Package level defines the severity scale shared by every log entry emitted
// by the orchestrator and its collaborators.
package level

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Level is a small severity enum kept distinct from logrus.Level so that
// callers never depend on the backing log library directly.
type Level uint8

const (
	// ErrorLevel means the caller must stop the current operation.
	ErrorLevel Level = iota
	// AlertLevel signals a condition that needs prompt attention but does not
	// itself stop the caller (e.g. an observer failed to stop in time).
	AlertLevel
	// WarnLevel means the caller can continue but something is off.
	WarnLevel
	// InfoLevel carries state changes useful to a human operator.
	InfoLevel
	// DebugLevel carries information only useful while investigating a problem.
	DebugLevel
	// NilLevel disables the entry entirely; never valid as a minimum level.
	NilLevel
)

func (l Level) String() string {
	switch l {
	case ErrorLevel:
		return "error"
	case AlertLevel:
		return "alert"
	case WarnLevel:
		return "warning"
	case InfoLevel:
		return "info"
	case DebugLevel:
		return "debug"
	case NilLevel:
		return "nil"
	default:
		return "unknown"
	}
}

// Logrus maps the level onto the closest logrus.Level so the default sink
// can reuse logrus' formatters and hooks.
func (l Level) Logrus() logrus.Level {
	switch l {
	case ErrorLevel:
		return logrus.ErrorLevel
	case AlertLevel:
		return logrus.WarnLevel
	case WarnLevel:
		return logrus.WarnLevel
	case InfoLevel:
		return logrus.InfoLevel
	case DebugLevel:
		return logrus.DebugLevel
	default:
		return logrus.PanicLevel
	}
}

// Parse returns the Level matching the given case-insensitive name, defaulting
// to InfoLevel when the string is not recognized.
func Parse(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return ErrorLevel
	case "alert":
		return AlertLevel
	case "warning", "warn":
		return WarnLevel
	case "debug":
		return DebugLevel
	case "nil", "none", "off":
		return NilLevel
	default:
		return InfoLevel
	}
}
