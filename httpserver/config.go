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

	"github.com/go-playground/validator/v10"

	libdur "github.com/sabouaram/httpcore/duration"
	liberr "github.com/sabouaram/httpcore/errors"
	clitps "github.com/sabouaram/httpcore/httpserver/types"
)

var validate = validator.New()

// Options is the orchestrator's admission and timing configuration (§3 of
// the connection-orchestrator design). Zero values for ConnectionLimit and
// ConnectionsPerIPLimit mean unlimited; ShutdownTimeoutMillis and
// TimeoutTickMillis default to 3000 and 1000 respectively when zero.
type Options struct {
	ConnectionLimit       int  `mapstructure:"connection_limit" json:"connection_limit" yaml:"connection_limit" toml:"connection_limit" validate:"gte=0"`
	ConnectionsPerIPLimit int  `mapstructure:"connections_per_ip_limit" json:"connections_per_ip_limit" yaml:"connections_per_ip_limit" toml:"connections_per_ip_limit" validate:"gte=0"`
	CompressionEnabled    bool `mapstructure:"compression_enabled" json:"compression_enabled" yaml:"compression_enabled" toml:"compression_enabled"`
	ShutdownTimeoutMillis int  `mapstructure:"shutdown_timeout_millis" json:"shutdown_timeout_millis" yaml:"shutdown_timeout_millis" toml:"shutdown_timeout_millis" validate:"gte=0"`
	TimeoutTickMillis     int  `mapstructure:"timeout_tick_millis" json:"timeout_tick_millis" yaml:"timeout_tick_millis" toml:"timeout_tick_millis" validate:"gte=0"`
}

const (
	defaultShutdownTimeoutMillis = 3000
	defaultTimeoutTickMillis     = 1000
)

// Validate runs struct-tag validation and reports every failing field, each
// as an ErrorPreconditionFailed error chained into one liberr.Error,
// matching the teacher's config.Validate pattern (httpserver/config.go).
func (o Options) Validate() liberr.Error {
	return validateStruct(o)
}

// normalized returns a copy of o with its zero-valued defaultable fields
// filled in.
func (o Options) normalized() Options {
	if o.ShutdownTimeoutMillis == 0 {
		o.ShutdownTimeoutMillis = defaultShutdownTimeoutMillis
	}
	if o.TimeoutTickMillis == 0 {
		o.TimeoutTickMillis = defaultTimeoutTickMillis
	}
	return o
}

func (o Options) toTypes() clitps.Options {
	return clitps.Options{
		ConnectionLimit:       o.ConnectionLimit,
		ConnectionsPerIPLimit: o.ConnectionsPerIPLimit,
		CompressionEnabled:    o.CompressionEnabled,
		ShutdownTimeoutMillis: o.ShutdownTimeoutMillis,
		TimeoutTickMillis:     o.TimeoutTickMillis,
	}
}

// DurationOptions mirrors Options but expresses the two timing fields as
// duration.Duration instead of a bare millisecond int, so a program already
// decoding the rest of its configuration through encoding/json,
// gopkg.in/yaml.v3, github.com/pelletier/go-toml or github.com/fxamacker/cbor/v2
// can express shutdownTimeoutMillis/timeoutTickMillis in whichever of those
// formats it already uses instead of converting to a raw int by hand;
// duration.Duration implements Marshal/Unmarshal for all four.
type DurationOptions struct {
	ConnectionLimit       int             `mapstructure:"connection_limit" json:"connection_limit" yaml:"connection_limit" toml:"connection_limit" validate:"gte=0"`
	ConnectionsPerIPLimit int             `mapstructure:"connections_per_ip_limit" json:"connections_per_ip_limit" yaml:"connections_per_ip_limit" toml:"connections_per_ip_limit" validate:"gte=0"`
	CompressionEnabled    bool            `mapstructure:"compression_enabled" json:"compression_enabled" yaml:"compression_enabled" toml:"compression_enabled"`
	ShutdownTimeout       libdur.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout" yaml:"shutdown_timeout" toml:"shutdown_timeout" validate:"gte=0"`
	TimeoutTick           libdur.Duration `mapstructure:"timeout_tick" json:"timeout_tick" yaml:"timeout_tick" toml:"timeout_tick" validate:"gte=0"`
}

// Validate runs the same struct-tag validation as Options.Validate.
func (d DurationOptions) Validate() liberr.Error {
	return validateStruct(d)
}

// validateStruct runs go-playground/validator against any struct-tagged
// config value and wraps every failing field into a single liberr.Error
// chain; both Options.Validate and DurationOptions.Validate share it so the
// two config surfaces can never drift apart on error wrapping.
func validateStruct(v interface{}) liberr.Error {
	if err := validate.Struct(v); err != nil {
		if verr, ok := err.(validator.ValidationErrors); ok {
			var e liberr.Error
			for _, fe := range verr {
				e = liberr.AddOrNew(e, liberr.Newf(uint16(ErrorPreconditionFailed), "option %s invalid: %s", fe.Namespace(), fe.Tag()))
			}
			return e
		}
		return liberr.Newf(uint16(ErrorPreconditionFailed), "%s", err.Error())
	}
	return nil
}

// ToOptions converts d into the millisecond-based Options the orchestrator
// actually runs on (§3 of the connection-orchestrator design specifies the
// timing fields as integer milliseconds; DurationOptions is a convenience
// decode surface, not a second wire format the orchestrator itself reads).
func (d DurationOptions) ToOptions() Options {
	return Options{
		ConnectionLimit:       d.ConnectionLimit,
		ConnectionsPerIPLimit: d.ConnectionsPerIPLimit,
		CompressionEnabled:    d.CompressionEnabled,
		ShutdownTimeoutMillis: durationMillis(d.ShutdownTimeout),
		TimeoutTickMillis:     durationMillis(d.TimeoutTick),
	}
}

// durationMillis converts d to whole milliseconds, rounding a positive
// sub-millisecond value up to 1 instead of down to 0: Options.normalized
// treats a 0 millis field as "unset" and substitutes its default, so
// truncating a deliberately tiny nonzero duration to 0 would silently
// replace it with the 3000ms/1000ms default instead of honoring it.
func durationMillis(d libdur.Duration) int {
	millis := d.Time().Milliseconds()
	if millis == 0 && d.Time() > 0 {
		return 1
	}
	return int(millis)
}

// Endpoint is an already-bound listening socket supplied to configure. The
// orchestrator never binds a socket itself (§6): it only ever accepts on
// what it is handed here.
type Endpoint struct {
	// DisplayAddress is a human-readable label for logs and BoundEndpoint.
	DisplayAddress string

	// Socket is the bound, not-yet-accepting listener. The orchestrator
	// accepts on it directly, or through the TLS listener built around it.
	Socket *net.TCPListener

	// TLSConfig, when non-nil, marks this endpoint as https and is used by
	// Configure to wrap Socket in a TLS listener.
	TLSConfig *tls.Config
}

func (e Endpoint) scheme() string {
	if e.TLSConfig != nil {
		return "https"
	}
	return "http"
}
