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

import "net"

// networkKey identifies the address block an admitted connection's remote
// belongs to: the full 4-byte address for IPv4, or the leading 7 bytes (an
// approximate /56 block) for IPv6. Unix-socket remotes and loopback never
// compute a key since they are exempt from the per-network cap.
type networkKey string

// isLoopback reports whether addr must bypass the per-network admission
// check: a Unix socket, "::1", or anything in 127.0.0.0/8 including its
// IPv4-mapped IPv6 form ::ffff:127.0.0.0/104.
func isLoopback(addr net.Addr) bool {
	if _, ok := addr.(*net.UnixAddr); ok {
		return true
	}

	ip := hostIP(addr)
	if ip == nil {
		return false
	}

	if ip4 := ip.To4(); ip4 != nil {
		return ip4[0] == 127
	}

	return ip.IsLoopback()
}

// computeNetworkKey derives the admission-control network key for addr. It
// is only meaningful for non-loopback remotes; callers must check
// isLoopback first.
func computeNetworkKey(addr net.Addr) networkKey {
	ip := hostIP(addr)
	if ip == nil {
		return ""
	}

	if ip4 := ip.To4(); ip4 != nil {
		return networkKey(ip4)
	}

	ip16 := ip.To16()
	if ip16 == nil {
		return ""
	}

	return networkKey(ip16[:7])
}

func hostIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.TCPAddr:
		return a.IP
	case *net.IPAddr:
		return a.IP
	default:
		host, _, err := net.SplitHostPort(addr.String())
		if err != nil {
			host = addr.String()
		}
		return net.ParseIP(host)
	}
}

// admissionController enforces the global connection cap and the per-network
// cap described in §4.2. It holds no synchronization of its own: every
// method is called from the single reactor context that also owns the
// ClientRegistry.
type admissionController struct {
	connectionLimit int
	perNetLimit     int

	clientCount   int
	clientsPerNet map[networkKey]int
}

func newAdmissionController(connectionLimit, perNetLimit int) *admissionController {
	return &admissionController{
		connectionLimit: connectionLimit,
		perNetLimit:     perNetLimit,
		clientsPerNet:   make(map[networkKey]int),
	}
}

// admitGlobal applies the global cap using the pre-increment count, then
// increments on success. It must be called before admitNetwork.
func (a *admissionController) admitGlobal() bool {
	if a.connectionLimit != 0 && a.clientCount == a.connectionLimit {
		return false
	}

	a.clientCount++
	return true
}

// admitNetwork applies the per-network cap for a non-loopback remote, using
// the pre-increment per-network count, then increments on success. Callers
// must have already called admitGlobal (the global count is not reverted
// here on rejection; the caller reverts it with release(key, false)).
func (a *admissionController) admitNetwork(key networkKey) bool {
	if a.perNetLimit != 0 && a.clientsPerNet[key] == a.perNetLimit {
		return false
	}

	a.clientsPerNet[key]++
	return true
}

// release undoes the bookkeeping performed by a prior admitGlobal/admitNetwork
// pair. It is called once from an admitted client's onClose callback, or
// directly with countedNetwork false when admitNetwork rejects a client.
func (a *admissionController) release(key networkKey, countedNetwork bool) {
	if a.clientCount > 0 {
		a.clientCount--
	}

	if !countedNetwork {
		return
	}

	if n, ok := a.clientsPerNet[key]; ok {
		if n <= 1 {
			delete(a.clientsPerNet, key)
		} else {
			a.clientsPerNet[key] = n - 1
		}
	}
}

func (a *admissionController) count() int {
	return a.clientCount
}

func (a *admissionController) networkCount() int {
	sum := 0
	for _, n := range a.clientsPerNet {
		sum += n
	}
	return sum
}
