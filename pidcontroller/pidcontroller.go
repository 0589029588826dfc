/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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
 */

// Package pidcontroller generates a non-linear step sequence between two
// bounds using a classic proportional-integral-derivative feedback loop.
// duration.Duration.RangeCtxTo uses it to space a backoff/retry schedule
// instead of a flat linear or purely exponential curve.
package pidcontroller

import "context"

// Controller produces successive correction steps from a proportional,
// integral and derivative gain, applied against the distance still to cover
// between the current and the target value.
type Controller struct {
	kp, ki, kd float64
}

// New returns a Controller with the given PID gains.
func New(kp, ki, kd float64) *Controller {
	return &Controller{kp: kp, ki: ki, kd: kd}
}

// RangeCtx walks from 'from' to 'to', emitting intermediate values whose
// spacing shrinks as the loop's integral term accumulates error, until it
// reaches or passes 'to', the correction becomes zero, 64 steps have been
// taken, or ctx is done. The first and last values are
// always included in the result when the context is not already canceled.
func (c *Controller) RangeCtx(ctx context.Context, from, to float64) []float64 {
	out := make([]float64, 0, 16)

	if ctx.Err() != nil {
		return out
	}

	out = append(out, from)

	var (
		integral float64
		prevErr  = to - from
		cur      = from
	)

	for step := 0; step < 64; step++ {
		if ctx.Err() != nil {
			break
		}

		errVal := to - cur
		if errVal == 0 {
			break
		}

		integral += errVal
		derivative := errVal - prevErr
		prevErr = errVal

		correction := c.kp*errVal + c.ki*integral + c.kd*derivative
		if correction == 0 {
			break
		}

		cur += correction
		out = append(out, cur)

		if (to > from && cur >= to) || (to < from && cur <= to) {
			break
		}
	}

	if ctx.Err() == nil {
		out = append(out, to)
	}

	return out
}
