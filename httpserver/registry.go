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
	clitps "github.com/sabouaram/httpcore/httpserver/types"
)

// clientRegistry is pure bookkeeping: id -> Client. Under the single-threaded
// reactor contract (§5 of the connection-orchestrator design) writes happen
// only from the reactor context, so no lock is taken here.
type clientRegistry struct {
	clients map[uint64]clitps.Client
}

func newClientRegistry() *clientRegistry {
	return &clientRegistry{
		clients: make(map[uint64]clitps.Client),
	}
}

func (r *clientRegistry) insert(c clitps.Client) {
	r.clients[c.ID()] = c
}

func (r *clientRegistry) remove(id uint64) {
	delete(r.clients, id)
}

func (r *clientRegistry) get(id uint64) (clitps.Client, bool) {
	c, ok := r.clients[id]
	return c, ok
}

func (r *clientRegistry) len() int {
	return len(r.clients)
}

// all returns a snapshot slice of every currently registered client, safe to
// range over while the registry itself mutates (e.g. during shutdown, where
// teardown removes each stopped client from the map after ranging over it).
func (r *clientRegistry) all() []clitps.Client {
	out := make([]clitps.Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}
