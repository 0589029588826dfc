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
	"errors"
	"net"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	clitps "github.com/sabouaram/httpcore/httpserver/types"
)

// recordingFactory hands out fakeClients and lets the test override the
// remote address each one reports, so non-loopback admission paths can be
// exercised without actually dialing from a routable address.
type recordingFactory struct {
	mu          sync.Mutex
	remoteAddr  net.Addr
	idleSeconds int64
	created     []*fakeClient
	nextID      uint64
}

func (f *recordingFactory) Create(conn net.Conn, _ clitps.RequestHandler, _ clitps.ErrorHandler, _ clitps.Logger, _ clitps.Options, wheel clitps.TimeoutWheelHandle) (clitps.Client, error) {
	f.mu.Lock()
	f.nextID++
	id := f.nextID
	remote := f.remoteAddr
	idle := f.idleSeconds
	f.mu.Unlock()

	if remote == nil {
		remote = conn.RemoteAddr()
	}

	c := newFakeClient(id, remote)
	c.local = conn.LocalAddr()
	c.setConn(conn)

	if idle > 0 {
		wheel.Insert(id, time.Now().Unix()+idle)
	}

	f.mu.Lock()
	f.created = append(f.created, c)
	f.mu.Unlock()

	return c, nil
}

func (f *recordingFactory) snapshot() []*fakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*fakeClient, len(f.created))
	copy(out, f.created)
	return out
}

func listenLoopback() *net.TCPListener {
	l, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	Expect(err).NotTo(HaveOccurred())
	return l
}

func dial(addr net.Addr) net.Conn {
	conn, err := net.Dial("tcp", addr.String())
	Expect(err).NotTo(HaveOccurred())
	return conn
}

// nilRemoteFactory hands out a fakeClient whose RemoteAddress reports nil, the
// way a ClientFactory wrapping a non-IP transport (e.g. a Unix domain socket
// passed through an fd-passing proxy) legitimately can.
type nilRemoteFactory struct{}

func (f *nilRemoteFactory) Create(conn net.Conn, _ clitps.RequestHandler, _ clitps.ErrorHandler, _ clitps.Logger, _ clitps.Options, _ clitps.TimeoutWheelHandle) (clitps.Client, error) {
	c := newFakeClient(1, nil)
	c.setConn(conn)
	return c, nil
}

// failingObserver fails OnStart with a fixed message and always succeeds OnStop.
type failingObserver struct {
	message string
}

func (o *failingObserver) OnStart(context.Context, interface{}, clitps.Logger, clitps.ErrorHandler) error {
	return errors.New(o.message)
}

func (o *failingObserver) OnStop(context.Context, interface{}) error {
	return nil
}

var _ = Describe("Orchestrator", func() {
	var orch *Orchestrator

	BeforeEach(func() {
		orch = NewOrchestrator()
	})

	// S1 — happy start/stop: no observers, single loopback endpoint.
	It("[TC-ORC-S1] transitions Stopped -> Starting -> Started and back on stop", func() {
		l := listenLoopback()
		Expect(orch.Configure([]Endpoint{{DisplayAddress: "s1", Socket: l}}, nil, nil, Options{})).To(BeNil())
		Expect(orch.SetClientFactory(&recordingFactory{})).To(BeNil())

		Expect(orch.State()).To(Equal(Stopped))
		Expect(orch.Start(context.Background())).To(BeNil())
		Expect(orch.State()).To(Equal(Started))

		Expect(orch.Stop(context.Background(), 3000)).To(BeNil())
		Expect(orch.State()).To(Equal(Stopped))
		Expect(orch.ClientCount()).To(Equal(0))
	})

	// S2 — admission cap: connectionLimit=2, three loopback dials, the third rejected.
	It("[TC-ORC-S2] rejects the (N+1)th connection once the global cap is reached", func() {
		l := listenLoopback()
		factory := &recordingFactory{}
		Expect(orch.Configure([]Endpoint{{DisplayAddress: "s2", Socket: l}}, nil, nil, Options{ConnectionLimit: 2})).To(BeNil())
		Expect(orch.SetClientFactory(factory)).To(BeNil())
		Expect(orch.Start(context.Background())).To(BeNil())

		addr := l.Addr()
		c1 := dial(addr)
		c2 := dial(addr)
		c3 := dial(addr)
		defer c1.Close()
		defer c2.Close()

		Eventually(func() int { return len(factory.snapshot()) }).Should(Equal(3))
		Eventually(func() int { return orch.ClientCount() }).Should(Equal(2))

		// the third client was constructed (conn accepted) but immediately
		// closed by admission and never started.
		clients := factory.snapshot()
		Eventually(func() bool { return clients[2].isClosed() }).Should(BeTrue())
		Expect(clients[2].startCalls).To(Equal(0))

		_ = c3.Close()
		Expect(orch.Stop(context.Background(), 3000)).To(BeNil())
	})

	// S3 — per-IP cap with loopback exemption.
	It("[TC-ORC-S3] enforces the per-network cap only for non-loopback remotes", func() {
		l := listenLoopback()
		factory := &recordingFactory{remoteAddr: tcpAddr("203.0.113.5", 40000)}
		Expect(orch.Configure([]Endpoint{{DisplayAddress: "s3", Socket: l}}, nil, nil, Options{ConnectionsPerIPLimit: 1})).To(BeNil())
		Expect(orch.SetClientFactory(factory)).To(BeNil())
		Expect(orch.Start(context.Background())).To(BeNil())

		addr := l.Addr()
		c1 := dial(addr)
		c2 := dial(addr)
		defer c1.Close()
		defer c2.Close()

		Eventually(func() int { return len(factory.snapshot()) }).Should(Equal(2))
		clients := factory.snapshot()
		Eventually(func() bool { return clients[0].startCalls == 1 }).Should(BeTrue())
		Eventually(func() bool { return clients[1].isClosed() }).Should(BeTrue())
		Expect(clients[1].startCalls).To(Equal(0))

		Expect(orch.Stop(context.Background(), 3000)).To(BeNil())
	})

	// S4 — observer failure on start.
	It("[TC-ORC-S4] surfaces an aggregate startup failure and ends Stopped", func() {
		l := listenLoopback()
		Expect(orch.Configure([]Endpoint{{DisplayAddress: "s4", Socket: l}}, nil, nil, Options{})).To(BeNil())
		Expect(orch.SetClientFactory(&recordingFactory{})).To(BeNil())
		Expect(orch.AttachObserver(&failingObserver{message: "boom"})).To(BeNil())

		err := orch.Start(context.Background())
		Expect(err).NotTo(BeNil())
		Expect(err.ContainsString("boom")).To(BeTrue())
		Expect(orch.State()).To(Equal(Stopped))
	})

	// S5 — idle timeout: a client registered with a 1s deadline is closed on
	// the first tick at or after that deadline.
	It("[TC-ORC-S5] closes a client whose idle deadline has elapsed", func() {
		l := listenLoopback()
		factory := &recordingFactory{idleSeconds: 1}
		Expect(orch.Configure([]Endpoint{{DisplayAddress: "s5", Socket: l}}, nil, nil, Options{TimeoutTickMillis: 50})).To(BeNil())
		Expect(orch.SetClientFactory(factory)).To(BeNil())
		Expect(orch.Start(context.Background())).To(BeNil())

		conn := dial(l.Addr())
		defer conn.Close()

		Eventually(func() int { return len(factory.snapshot()) }).Should(Equal(1))
		client := factory.snapshot()[0]

		Eventually(func() bool { return client.isClosed() }, "3s", "50ms").Should(BeTrue())
		Eventually(func() int { return orch.ClientCount() }).Should(Equal(0))

		Expect(orch.Stop(context.Background(), 3000)).To(BeNil())
	})

	// S6 — a client reporting isWaitingOnResponse defers its own timeout
	// instead of being closed.
	It("[TC-ORC-S6] defers the deadline for a client waiting on a response", func() {
		l := listenLoopback()
		factory := &recordingFactory{idleSeconds: 1}
		Expect(orch.Configure([]Endpoint{{DisplayAddress: "s6", Socket: l}}, nil, nil, Options{TimeoutTickMillis: 50})).To(BeNil())
		Expect(orch.SetClientFactory(factory)).To(BeNil())
		Expect(orch.Start(context.Background())).To(BeNil())

		conn := dial(l.Addr())
		defer conn.Close()

		Eventually(func() int { return len(factory.snapshot()) }).Should(Equal(1))
		client := factory.snapshot()[0]
		client.setWaiting(true)

		// hold well past the original 1s deadline; the tick must keep
		// deferring rather than closing while waiting is true.
		Consistently(func() bool { return client.isClosed() }, "1500ms", "50ms").Should(BeFalse())

		client.setWaiting(false)
		Eventually(func() bool { return client.isClosed() }, "3s", "50ms").Should(BeTrue())

		Expect(orch.Stop(context.Background(), 3000)).To(BeNil())
	})

	// A client reporting a nil RemoteAddress is treated as loopback-exempt
	// and must never reach computeNetworkKey, which requires a non-nil addr.
	It("[TC-ORC-S7] admits a client whose RemoteAddress is nil without panicking", func() {
		l := listenLoopback()
		Expect(orch.Configure([]Endpoint{{DisplayAddress: "s7", Socket: l}}, nil, nil, Options{})).To(BeNil())
		Expect(orch.SetClientFactory(&nilRemoteFactory{})).To(BeNil())
		Expect(orch.Start(context.Background())).To(BeNil())

		conn := dial(l.Addr())
		defer conn.Close()

		Eventually(func() int { return orch.ClientCount() }).Should(Equal(1))

		Expect(orch.Stop(context.Background(), 3000)).To(BeNil())
	})
})
