/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

package httpserver

import "github.com/sabouaram/httpcore/errors"

const (
	// ErrorPreconditionFailed: a configuration mutator was called outside
	// Stopped, or start/stop was called in a disallowed state.
	ErrorPreconditionFailed errors.CodeError = iota + errors.MinPkgOrchestrator
	// ErrorEmptyBindList: configure was called with no listening endpoints.
	ErrorEmptyBindList
	// ErrorAggregateStartupFailure: one or more observers failed onStart.
	ErrorAggregateStartupFailure
	// ErrorAggregateShutdownFailure: one or more observers failed onStop.
	ErrorAggregateShutdownFailure
	// ErrorAcceptRecoverable: a transient accept failure; the listener stays registered.
	ErrorAcceptRecoverable
	// ErrorCompressionUnavailable: compression was requested but unsupported.
	ErrorCompressionUnavailable
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorPreconditionFailed)
	errors.RegisterIdFctMessage(ErrorPreconditionFailed, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case errors.UnknownError:
		return ""
	case ErrorPreconditionFailed:
		return "orchestrator is not in a state allowing this operation"
	case ErrorEmptyBindList:
		return "configure was called with no listening endpoint"
	case ErrorAggregateStartupFailure:
		return "one or more observers failed to start"
	case ErrorAggregateShutdownFailure:
		return "one or more observers failed to stop"
	case ErrorAcceptRecoverable:
		return "transient accept failure on listener"
	case ErrorCompressionUnavailable:
		return "compression requested but unsupported, continuing without it"
	}

	return ""
}
