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

// Package httpserver is the non-blocking HTTP/1.x and HTTP/2 connection
// orchestrator: it owns a set of already-bound listening sockets, admits or
// rejects incoming connections under configured limits, tracks each
// connection's idle deadline, and coordinates startup and shutdown across a
// set of lifecycle observers.
//
// # Architecture
//
// Six collaborators, composed around a single-threaded reactor loop:
//
//   - Orchestrator: the {Stopped, Starting, Started, Stopping} state machine
//     that drives startup, accept dispatch, the timeout tick, and shutdown.
//   - Listener: wraps one bound socket and hands accepted connections to the
//     orchestrator's onAcceptable.
//   - AdmissionController: enforces the global connection cap and the
//     per-network-block cap, with a loopback exemption.
//   - ClientRegistry: owns live Client handles keyed by id; the
//     per-network-key connection counts are kept by the AdmissionController.
//   - TimeoutWheel: maps client id to deadline and extracts expired ids in
//     ascending deadline order on every tick.
//   - ObserverSet: an ordered, duplicate-rejecting set of lifecycle
//     observers, fanned out concurrently on start and stop with every
//     failure aggregated rather than short-circuited.
//
// The request handler, the per-connection Client, and the factories that
// build them are external collaborators behind the interfaces in the types
// subpackage; this package never parses HTTP itself.
//
// # Concurrency model
//
// The orchestrator assumes a single execution context multiplexing listener,
// client and timer events; the registry, the per-network table and the wheel
// are touched only from that context and need no locking as long as callers
// honor that contract, while the current State is guarded by a mutex. The only suspension
// points are the observer start/stop fan-out joins and the per-client stop
// fan-out during shutdown — see fanout.go, built on the teacher's
// semaphore-bounded worker-pool idiom (originally httpserver/pool.go's
// runMapCommand).
package httpserver
