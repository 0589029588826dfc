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

package httpserver

import (
	"crypto/tls"
	"net"
)

// BoundEndpoint is the data-model record from §3: a bound listening socket
// the orchestrator owns between Starting and Stopping, plus the scheme and
// ALPN protocol list negotiated for it at startup.
type BoundEndpoint struct {
	DisplayAddress string
	Scheme         string
	AlpnProtocols  []string

	listener net.Listener
	tlsConf  *tls.Config
}

// Addr returns the bound socket's local address, or nil once the endpoint
// has been closed.
func (b *BoundEndpoint) Addr() net.Addr {
	if b.listener == nil {
		return nil
	}
	return b.listener.Addr()
}

// listenerFor wraps a BoundEndpoint's configured socket in a TLS listener
// when tlsConf is set, leaving plain TCP otherwise.
func listenerFor(ep Endpoint) *BoundEndpoint {
	b := &BoundEndpoint{
		DisplayAddress: ep.DisplayAddress,
		Scheme:         ep.scheme(),
		tlsConf:        ep.TLSConfig,
	}

	if ep.TLSConfig != nil {
		b.listener = tls.NewListener(ep.Socket, ep.TLSConfig)
	} else {
		b.listener = ep.Socket
	}

	return b
}

// setAlpnProtocols applies the driver-supplied ALPN preference list to a TLS
// endpoint's handshake config. ALPN is a TLS extension, so a non-TLS endpoint
// keeps no protocol list and reports false when protocols were requested
// (true for an empty list).
func (b *BoundEndpoint) setAlpnProtocols(protocols []string) (supported bool) {
	if b.tlsConf == nil {
		return len(protocols) == 0
	}

	b.tlsConf.NextProtos = protocols
	b.AlpnProtocols = protocols
	return true
}

// accept performs one non-blocking-equivalent accept: Go's net.Listener.Accept
// blocks the calling goroutine rather than the whole reactor, which is how
// this orchestrator reconciles the spec's single-threaded reactor model with
// Go's goroutine-per-listener idiom (see orchestrator.go's acceptLoop). A
// closed listener surfaces as a non-nil error the caller treats as the
// listener having been cancelled by shutdown.
func (b *BoundEndpoint) accept() (net.Conn, error) {
	return b.listener.Accept()
}

func (b *BoundEndpoint) close() error {
	if b.listener == nil {
		return nil
	}
	return b.listener.Close()
}
