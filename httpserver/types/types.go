/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

// Package types declares the capabilities the orchestrator consumes from its
// surrounding program: the request handler, the per-connection client it
// drives, the factories that build them, and the lifecycle observers that
// hook into start/stop. None of these are implemented here; the orchestrator
// only ever holds them behind these interfaces.
package types

import (
	"context"
	"net"
)

// RequestHandler is the opaque capability that turns a parsed request into a
// response. The orchestrator never inspects its inputs or outputs; it only
// hands this through to whatever Client a ClientFactory builds.
type RequestHandler interface {
	Handle(ctx context.Context, req interface{}) (interface{}, error)
}

// ErrorHandler receives errors the orchestrator itself cannot act on beyond
// logging and optionally attaching to an observer's start/stop outcome.
type ErrorHandler interface {
	HandleError(ctx context.Context, err error)
}

// DriverFactory supplies the ALPN identifiers a TLS-capable BoundEndpoint
// should advertise, in preference order (e.g. "h2" before "http/1.1").
type DriverFactory interface {
	ApplicationLayerProtocols() []string
}

// Client is a single accepted connection's protocol engine. The orchestrator
// owns its registration and timeout bookkeeping but never drives bytes
// through it directly; ClientFactory.Create constructs the concrete type.
type Client interface {
	ID() uint64
	RemoteAddress() net.Addr
	LocalAddress() net.Addr

	// Start hands the client to its protocol driver; called once, right
	// after admission, outside the accept critical section.
	Start(ctx context.Context, driver DriverFactory) error

	// Stop asks the client to drain within the given budget. It must return
	// once the budget elapses even if the client could not finish cleanly;
	// Stop itself never fails the caller's shutdown sequence.
	Stop(timeout context.Context)

	// Close releases the client's socket immediately, without a drain
	// period. Admission-time rejections use this directly.
	Close() error

	// IsWaitingOnResponse reports whether the client is currently blocked on
	// a response the local handler has not produced yet; the timeout wheel
	// defers (rather than fires) a deadline while this is true.
	IsWaitingOnResponse() bool

	// OnClose registers a callback invoked exactly once when the client is
	// fully closed, whether closed explicitly or by the remote peer.
	OnClose(func())
}

// ClientFactory builds a Client around a freshly accepted socket. handler and
// errHandler are passed through unmodified so the concrete Client can invoke
// them without the orchestrator mediating every call.
type ClientFactory interface {
	Create(conn net.Conn, handler RequestHandler, errHandler ErrorHandler, logger Logger, opts Options, wheel TimeoutWheelHandle) (Client, error)
}

// TimeoutWheelHandle is the restricted view of the orchestrator's timeout
// wheel that a Client is allowed to touch: it may push its own deadline
// forward or remove itself, never reach into another client's entry.
type TimeoutWheelHandle interface {
	Insert(id uint64, deadlineUnix int64)
	Update(id uint64, deadlineUnix int64)
	Remove(id uint64)
}

// Options mirrors the orchestrator's admission and timing configuration as
// handed down to collaborators that need to read it (a Client checking its
// own idle budget, for instance).
type Options struct {
	ConnectionLimit       int
	ConnectionsPerIPLimit int
	CompressionEnabled    bool
	ShutdownTimeoutMillis int
	TimeoutTickMillis     int
}

// Logger is the structured log sink every collaborator receives; it matches
// github.com/sabouaram/httpcore/logger.Logger's five severities without
// requiring collaborators to import the logger package directly.
type Logger interface {
	Debug(message string, data interface{}, args ...interface{})
	Info(message string, data interface{}, args ...interface{})
	Warning(message string, data interface{}, args ...interface{})
	Alert(message string, data interface{}, args ...interface{})
	Error(message string, data interface{}, args ...interface{})
}

// Observer is a lifecycle participant notified when the orchestrator starts
// and stops. Both phases may suspend and may fail; failures are aggregated
// by the ObserverSet and never short-circuit the fan-out.
type Observer interface {
	OnStart(ctx context.Context, orch interface{}, logger Logger, errHandler ErrorHandler) error
	OnStop(ctx context.Context, orch interface{}) error
}
