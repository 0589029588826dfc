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

import "sort"

// timeoutWheel maps a client id to the unix-second deadline at which it
// becomes eligible for an idle close. It is a plain map rather than a
// bucketed ring: extract(now) is called at most once per tick, so a sort on
// the (typically small) eligible set is cheaper than maintaining a heap.
type timeoutWheel struct {
	deadlines map[uint64]int64
}

func newTimeoutWheel() *timeoutWheel {
	return &timeoutWheel{
		deadlines: make(map[uint64]int64),
	}
}

func (w *timeoutWheel) insert(id uint64, deadline int64) {
	w.deadlines[id] = deadline
}

func (w *timeoutWheel) update(id uint64, deadline int64) {
	if _, ok := w.deadlines[id]; !ok {
		return
	}
	w.deadlines[id] = deadline
}

func (w *timeoutWheel) remove(id uint64) {
	delete(w.deadlines, id)
}

func (w *timeoutWheel) has(id uint64) bool {
	_, ok := w.deadlines[id]
	return ok
}

// extract removes and returns every id whose deadline is <= now, in
// nondecreasing deadline order. Entries are deleted from the wheel before
// this function returns, so a caller that re-inserts an id while processing
// the result (e.g. timeoutTick deferring a client's deadline) will not see
// that id yielded again until a later extract call.
func (w *timeoutWheel) extract(now int64) []uint64 {
	type due struct {
		id       uint64
		deadline int64
	}

	pending := make([]due, 0)
	for id, d := range w.deadlines {
		if d <= now {
			pending = append(pending, due{id: id, deadline: d})
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		if pending[i].deadline != pending[j].deadline {
			return pending[i].deadline < pending[j].deadline
		}
		return pending[i].id < pending[j].id
	})

	out := make([]uint64, 0, len(pending))
	for _, p := range pending {
		delete(w.deadlines, p.id)
		out = append(out, p.id)
	}

	return out
}

func (w *timeoutWheel) len() int {
	return len(w.deadlines)
}
