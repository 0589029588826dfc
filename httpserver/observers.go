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
	"context"

	clitps "github.com/sabouaram/httpcore/httpserver/types"
)

// maxObserverWorkers bounds how many observer onStart/onStop calls run at
// once; unbounded fan-out is rarely useful once dozens of observers are
// attached and makes failure logs harder to read.
const maxObserverWorkers = 16

// observerSet is an ordered, duplicate-rejecting collection of lifecycle
// observers. Insertion order fixes the order failures are reported in, even
// though the calls themselves run concurrently.
type observerSet struct {
	ordered []clitps.Observer
	seen    map[clitps.Observer]struct{}
}

func newObserverSet() *observerSet {
	return &observerSet{
		seen: make(map[clitps.Observer]struct{}),
	}
}

// attach appends o if it has not already been attached. A repeat attach is a
// no-op rather than an error: idempotent re-attachment is simpler for
// callers that auto-attach the same factory from multiple code paths (see
// Orchestrator.start, step 2).
func (s *observerSet) attach(o clitps.Observer) {
	if o == nil {
		return
	}
	if _, ok := s.seen[o]; ok {
		return
	}
	s.seen[o] = struct{}{}
	s.ordered = append(s.ordered, o)
}

// start fans out onStart to every observer concurrently and joins on all of
// them, returning every failure in attach order regardless of completion
// order.
func (s *observerSet) start(ctx context.Context, orch interface{}, logger clitps.Logger, errHandler clitps.ErrorHandler) []error {
	type indexed struct {
		idx int
		obs clitps.Observer
	}

	items := make([]indexed, len(s.ordered))
	for i, o := range s.ordered {
		items[i] = indexed{idx: i, obs: o}
	}

	results := make([]error, len(items))
	runFanOut(items, maxObserverWorkers, func(it indexed) error {
		err := it.obs.OnStart(ctx, orch, logger, errHandler)
		results[it.idx] = err
		return err
	})

	return compactErrors(results)
}

// stop fans out onStop the same way start fans out onStart.
func (s *observerSet) stop(ctx context.Context, orch interface{}) []error {
	type indexed struct {
		idx int
		obs clitps.Observer
	}

	items := make([]indexed, len(s.ordered))
	for i, o := range s.ordered {
		items[i] = indexed{idx: i, obs: o}
	}

	results := make([]error, len(items))
	runFanOut(items, maxObserverWorkers, func(it indexed) error {
		err := it.obs.OnStop(ctx, orch)
		results[it.idx] = err
		return err
	})

	return compactErrors(results)
}

func compactErrors(in []error) []error {
	out := make([]error, 0, len(in))
	for _, e := range in {
		if e != nil {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
