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

import "sync"

// runFanOut runs fn for every item concurrently, bounded by at most
// maxWorkers goroutines in flight, and joins on all of them before
// returning. Every error is collected; no run is ever skipped because an
// earlier one failed. This replaces the teacher's semaphore-backed
// runMapCommand (httpserver/pool.go) now that the semaphore package itself
// has no implementation left to adapt: the same bounded-fan-out, wait-all,
// collect-everything shape, rebuilt directly on sync.WaitGroup and a
// buffered channel used as a counting permit.
func runFanOut[T any](items []T, maxWorkers int, fn func(T) error) []error {
	if len(items) == 0 {
		return nil
	}

	if maxWorkers <= 0 || maxWorkers > len(items) {
		maxWorkers = len(items)
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		errs  = make([]error, 0, len(items))
		slots = make(chan struct{}, maxWorkers)
	)

	for _, item := range items {
		wg.Add(1)
		slots <- struct{}{}

		go func(it T) {
			defer wg.Done()
			defer func() { <-slots }()

			if err := fn(it); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(item)
	}

	wg.Wait()

	if len(errs) == 0 {
		return nil
	}
	return errs
}
