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
	"net"
	"sync"
	"time"

	ctxcfg "github.com/sabouaram/httpcore/context"
	liberr "github.com/sabouaram/httpcore/errors"
	clitps "github.com/sabouaram/httpcore/httpserver/types"
)

// maxClientStopWorkers bounds how many client.Stop calls run at once during
// shutdown, matching the same rationale as maxObserverWorkers.
const maxClientStopWorkers = 64

// compressionCapable is an optional capability a DriverFactory may implement
// to confirm it can actually serve compressed responses; the core itself
// never compresses anything (compression middleware is out of scope), it
// only decides whether to warn and proceed uncompressed.
type compressionCapable interface {
	SupportsCompression() bool
}

// Orchestrator is the {Stopped, Starting, Started, Stopping} state machine
// that owns the bound listeners, the admission controller, the client
// registry, the timeout wheel and the observer set (§4.1).
type Orchestrator struct {
	mu    sync.Mutex
	state State

	endpoints []*BoundEndpoint
	handler   clitps.RequestHandler
	logger    clitps.Logger
	options   Options

	driverFactory clitps.DriverFactory
	clientFactory clitps.ClientFactory
	errorHandler  clitps.ErrorHandler

	observers *observerSet
	registry  *clientRegistry
	admission *admissionController
	wheel     *timeoutWheel

	// meta is a shared, concurrency-safe key-value bag observers and
	// factories may use to stash orchestrator-scoped state (connection
	// counters, feature flags learned at runtime) without the orchestrator
	// itself knowing what they keep in it.
	meta ctxcfg.Config[string]

	events   chan func()
	done     chan struct{}
	tickStop chan struct{}
	wg       sync.WaitGroup
}

// NewOrchestrator returns an Orchestrator in the Stopped state, with no bound
// endpoints yet; configure must be called before start.
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{
		observers: newObserverSet(),
		registry:  newClientRegistry(),
		meta:      ctxcfg.New[string](context.Background()),
	}
}

// Metadata returns the orchestrator's shared key-value bag. Observers and
// factories attached before Start may use it to publish or read
// orchestrator-scoped state across the lifecycle.
func (o *Orchestrator) Metadata() ctxcfg.Config[string] {
	return o.meta
}

// State returns the orchestrator's current phase.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Configure is the constructor-like step of §4.1: it fails with
// ErrorEmptyBindList if bind is empty and with ErrorPreconditionFailed if
// called outside Stopped.
func (o *Orchestrator) Configure(bind []Endpoint, handler clitps.RequestHandler, logger clitps.Logger, options Options) liberr.Error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != Stopped {
		return ErrorPreconditionFailed.Error(nil)
	}

	if len(bind) == 0 {
		return ErrorEmptyBindList.Error(nil)
	}

	if verr := options.Validate(); verr != nil {
		return verr
	}

	endpoints := make([]*BoundEndpoint, 0, len(bind))
	for _, ep := range bind {
		endpoints = append(endpoints, listenerFor(ep))
	}

	o.endpoints = endpoints
	o.handler = handler
	o.logger = logger
	o.options = options.normalized()
	o.admission = newAdmissionController(o.options.ConnectionLimit, o.options.ConnectionsPerIPLimit)
	o.wheel = newTimeoutWheel()

	return nil
}

// ConfigureWithDuration is Configure's duration.Duration-based counterpart:
// it validates and converts a DurationOptions into the millisecond-based
// Options the orchestrator runs on, then configures exactly as Configure
// does. Use this when the embedding program already decodes its shutdown and
// tick timings as duration.Duration values (e.g. from YAML or TOML) rather
// than as raw milliseconds.
func (o *Orchestrator) ConfigureWithDuration(bind []Endpoint, handler clitps.RequestHandler, logger clitps.Logger, options DurationOptions) liberr.Error {
	if verr := options.Validate(); verr != nil {
		return verr
	}
	return o.Configure(bind, handler, logger, options.ToOptions())
}

// SetDriverFactory, SetClientFactory, SetErrorHandler and AttachObserver are
// valid only in Stopped; each otherwise fails with ErrorPreconditionFailed.

func (o *Orchestrator) SetDriverFactory(f clitps.DriverFactory) liberr.Error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != Stopped {
		return ErrorPreconditionFailed.Error(nil)
	}
	o.driverFactory = f
	return nil
}

func (o *Orchestrator) SetClientFactory(f clitps.ClientFactory) liberr.Error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != Stopped {
		return ErrorPreconditionFailed.Error(nil)
	}
	o.clientFactory = f
	return nil
}

func (o *Orchestrator) SetErrorHandler(h clitps.ErrorHandler) liberr.Error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != Stopped {
		return ErrorPreconditionFailed.Error(nil)
	}
	o.errorHandler = h
	return nil
}

func (o *Orchestrator) AttachObserver(obs clitps.Observer) liberr.Error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != Stopped {
		return ErrorPreconditionFailed.Error(nil)
	}
	o.observers.attach(obs)
	return nil
}

// Start runs §4.1.1: Stopped -> Starting -> Started.
func (o *Orchestrator) Start(ctx context.Context) liberr.Error {
	o.mu.Lock()
	if o.state != Stopped {
		o.mu.Unlock()
		return ErrorPreconditionFailed.Error(nil)
	}

	// step 2: auto-attach driverFactory/clientFactory/handler/errorHandler
	// as observers if they implement the capability, after user-attached ones.
	o.autoAttachObservers()

	o.state = Starting
	o.events = make(chan func(), 256)
	o.done = make(chan struct{})
	o.tickStop = make(chan struct{})
	o.mu.Unlock()

	o.wg.Add(1)
	go o.eventLoop()

	if failures := o.observers.start(ctx, o, o.logger, o.errorHandler); len(failures) > 0 {
		// step 5: best-effort shutdown. State is still Starting here, so this
		// calls teardown directly rather than the public Stop, which only
		// accepts the transition from Started.
		o.mu.Lock()
		o.state = Stopping
		o.mu.Unlock()

		o.teardown(ctx, o.options.ShutdownTimeoutMillis)

		o.mu.Lock()
		o.state = Stopped
		o.mu.Unlock()

		var agg liberr.Error
		for _, f := range failures {
			agg = liberr.AddOrNew(agg, f)
		}
		return liberr.AddOrNew(ErrorAggregateStartupFailure.Error(nil), nil, agg)
	}

	o.mu.Lock()
	o.state = Started
	o.mu.Unlock()

	o.configureALPN()
	o.startListeners()
	o.startTimeoutTick()

	return nil
}

// autoAttachObservers implements step 2 of §4.1.1. Callers must hold o.mu.
func (o *Orchestrator) autoAttachObservers() {
	for _, candidate := range []interface{}{o.driverFactory, o.clientFactory, o.handler, o.errorHandler} {
		if obs, ok := candidate.(clitps.Observer); ok {
			o.observers.attach(obs)
		}
	}
}

// configureALPN implements step 7: for each TLS endpoint, set the ALPN
// protocol list from driverFactory; Go's crypto/tls always supports ALPN, so
// the "unsupported platform" branch never triggers here, but a plain TCP
// endpoint that is handed a non-empty protocol list gets a warning.
func (o *Orchestrator) configureALPN() {
	var protocols []string
	if o.driverFactory != nil {
		protocols = o.driverFactory.ApplicationLayerProtocols()
	}

	for _, ep := range o.endpoints {
		if ok := ep.setAlpnProtocols(protocols); !ok && o.logger != nil {
			o.logger.Warning("ALPN protocols requested but endpoint does not support TLS", ep.DisplayAddress)
		}
	}

	if o.options.CompressionEnabled {
		supported := false
		if cc, ok := o.driverFactory.(compressionCapable); ok {
			supported = cc.SupportsCompression()
		}
		if !supported && o.logger != nil {
			o.logger.Warning(ErrorCompressionUnavailable.Message(), nil)
		}
	}
}

// startListeners implements step 8: register each socket's readability —
// here, a dedicated accept goroutine per endpoint feeding the single
// serializing event loop, which is this orchestrator's concrete realization
// of the spec's single-threaded reactor (see listener.go's accept comment).
func (o *Orchestrator) startListeners() {
	for _, ep := range o.endpoints {
		o.wg.Add(1)
		go o.acceptLoop(ep)
	}
}

func (o *Orchestrator) acceptLoop(ep *BoundEndpoint) {
	defer o.wg.Done()

	for {
		conn, err := ep.accept()
		if err != nil {
			select {
			case <-o.done:
				return
			default:
			}
			if o.logger != nil {
				o.logger.Debug(ErrorAcceptRecoverable.Message(), err.Error())
			}
			return
		}

		o.submit(func() {
			o.onAcceptable(ep, conn)
		})
	}
}

// submit hands fn to the single event-loop goroutine; it is a no-op once the
// orchestrator has begun shutting down.
func (o *Orchestrator) submit(fn func()) {
	select {
	case o.events <- fn:
	case <-o.done:
	}
}

func (o *Orchestrator) eventLoop() {
	defer o.wg.Done()
	for {
		select {
		case fn := <-o.events:
			fn()
		case <-o.done:
			return
		}
	}
}

// startTimeoutTick implements step 9 / §4.3's periodic sweep.
func (o *Orchestrator) startTimeoutTick() {
	interval := time.Duration(o.options.TimeoutTickMillis) * time.Millisecond

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				o.submit(o.timeoutTick)
			case <-o.tickStop:
				return
			}
		}
	}()
}

// timeoutTick runs on the event loop: it is never concurrent with
// onAcceptable, satisfying §5's ordering guarantee.
func (o *Orchestrator) timeoutTick() {
	now := time.Now().Unix()

	for _, id := range o.wheel.extract(now) {
		client, ok := o.registry.get(id)
		if !ok {
			// bookkeeping bug: an id in the wheel must also be in the
			// registry once past the registration window.
			continue
		}

		if client.IsWaitingOnResponse() {
			// extract already removed id from the wheel, so it must be
			// re-inserted here rather than updated: update is a no-op for an
			// id the wheel no longer holds.
			o.wheel.insert(id, now+1)
			continue
		}

		_ = client.Close()
	}
}

// onAcceptable implements §4.1.3. It runs exclusively on the event loop, so
// the admission check and registry insertion below never interleave with
// another accept or with the timeout tick.
func (o *Orchestrator) onAcceptable(ep *BoundEndpoint, conn net.Conn) {
	if o.clientFactory == nil {
		_ = conn.Close()
		return
	}

	client, err := o.clientFactory.Create(conn, o.handler, o.errorHandler, o.logger, o.options.toTypes(), o.wheelHandle())
	if err != nil {
		_ = conn.Close()
		if o.logger != nil {
			o.logger.Debug(ErrorAcceptRecoverable.Message(), err.Error())
		}
		return
	}

	remote := client.RemoteAddress()
	loopback := remote == nil || isLoopback(remote)

	if !o.admission.admitGlobal() {
		if o.logger != nil {
			o.logger.Debug("connection rejected: global connection limit reached", ep.DisplayAddress)
		}
		_ = client.Close()
		return
	}

	var key networkKey
	countedNetwork := false
	if !loopback {
		key = computeNetworkKey(remote)
		if !o.admission.admitNetwork(key) {
			if o.logger != nil {
				o.logger.Debug("connection rejected: per-network connection limit reached", ep.DisplayAddress)
			}
			o.admission.release(key, false)
			_ = client.Close()
			return
		}
		countedNetwork = true
	}

	// OnClose is only wired once admission has actually been granted, so
	// release (and the matching registry/wheel cleanup) runs exactly once
	// per admitted client and never for a rejection.
	client.OnClose(func() {
		o.submit(func() {
			o.registry.remove(client.ID())
			o.wheel.remove(client.ID())
			o.admission.release(key, countedNetwork)
		})
	})

	o.registry.insert(client)

	if err := client.Start(context.Background(), o.driverFactory); err != nil && o.logger != nil {
		o.logger.Debug(ErrorAcceptRecoverable.Message(), err.Error())
	}
}

func (o *Orchestrator) wheelHandle() clitps.TimeoutWheelHandle {
	return &wheelHandle{o: o}
}

type wheelHandle struct {
	o *Orchestrator
}

func (h *wheelHandle) Insert(id uint64, deadline int64) {
	h.o.submit(func() { h.o.wheel.insert(id, deadline) })
}

func (h *wheelHandle) Update(id uint64, deadline int64) {
	h.o.submit(func() { h.o.wheel.update(id, deadline) })
}

func (h *wheelHandle) Remove(id uint64) {
	h.o.submit(func() { h.o.wheel.remove(id) })
}

// teardown performs the mechanical half of §4.1.2 (steps 3-5): cancel every
// listener, drain every live client, stop every observer. It assumes the
// caller has already moved the state to Stopping and does not touch state
// itself, so both Stop and Start's best-effort rollback on a failed onStart
// can share it without fighting over the precondition guard.
func (o *Orchestrator) teardown(ctx context.Context, timeoutMillis int) []error {
	if timeoutMillis <= 0 {
		timeoutMillis = o.options.ShutdownTimeoutMillis
	}

	// step 3: cancel every listener, release each bound socket.
	close(o.done)
	for _, ep := range o.endpoints {
		_ = ep.close()
	}
	if o.tickStop != nil {
		close(o.tickStop)
	}

	// the accept/tick goroutines and the single event-loop goroutine all
	// exit on the done/tickStop closes above; join them here, before the
	// direct registry/wheel/admission access below, so that access is never
	// concurrent with the event loop still running a queued onAcceptable or
	// OnClose closure against the same maps (the single-threaded-reactor
	// contract in registry.go only holds while the reactor is still alive).
	o.wg.Wait()

	// step 4: concurrently stop every live client, waiting for all
	// regardless of individual outcome.
	clients := o.registry.all()
	budget := time.Duration(timeoutMillis) * time.Millisecond
	runFanOut(clients, maxClientStopWorkers, func(c clitps.Client) error {
		cctx, cancel := context.WithTimeout(ctx, budget)
		defer cancel()
		c.Stop(cctx)
		return nil
	})

	// the event loop has already exited (joined above), so a client's
	// OnClose firing from here on will never reach it; clear this cycle's
	// bookkeeping directly rather than routing it through the dead reactor.
	for _, c := range clients {
		o.registry.remove(c.ID())
		o.wheel.remove(c.ID())
	}
	o.admission = newAdmissionController(o.options.ConnectionLimit, o.options.ConnectionsPerIPLimit)

	// step 5: concurrently stop every observer, collecting failures.
	failures := o.observers.stop(ctx, o)

	return failures
}

// Stop runs §4.1.2: Started -> Stopping -> Stopped. It is a no-op from
// Stopped and fails with ErrorPreconditionFailed from Starting or Stopping.
func (o *Orchestrator) Stop(ctx context.Context, timeoutMillis int) liberr.Error {
	o.mu.Lock()
	switch o.state {
	case Stopped:
		o.mu.Unlock()
		return nil
	case Starting, Stopping:
		o.mu.Unlock()
		return ErrorPreconditionFailed.Error(nil)
	}
	o.state = Stopping
	o.mu.Unlock()

	failures := o.teardown(ctx, timeoutMillis)

	o.mu.Lock()
	o.state = Stopped
	o.mu.Unlock()

	if len(failures) > 0 {
		var agg liberr.Error
		for _, f := range failures {
			agg = liberr.AddOrNew(agg, f)
		}
		return liberr.AddOrNew(ErrorAggregateShutdownFailure.Error(nil), nil, agg)
	}

	return nil
}

// ClientCount returns the admission controller's current global count,
// exposed for tests and observers that report connection metrics.
func (o *Orchestrator) ClientCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.admission == nil {
		return 0
	}
	return o.admission.count()
}
