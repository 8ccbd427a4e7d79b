/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package betterclock

import (
	"errors"
	"fmt"
)

// ErrSessionClosed is returned for any request on a disconnected session.
// The caller must Reconnect first.
var ErrSessionClosed = errors.New("session is disconnected, call Reconnect first")

// ErrInvalidArgument wraps synchronous argument validation failures.
var ErrInvalidArgument = errors.New("invalid argument")

// TransportErrorKind classifies transport failures.
type TransportErrorKind string

// Supported transport error kinds
const (
	TransportTimeout    TransportErrorKind = "timeout"
	TransportRefused    TransportErrorKind = "refused"
	TransportDNS        TransportErrorKind = "dns"
	TransportIO         TransportErrorKind = "io"
	TransportHTTPStatus TransportErrorKind = "http_status"
)

// TransportError is a network or HTTP failure of a single exchange.
// Requests are never retried, the caller decides what to do.
type TransportError struct {
	Kind       TransportErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Kind == TransportHTTPStatus {
		return fmt.Sprintf("transport %s: %s returned status %d", e.Kind, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("transport %s: %s: %v", e.Kind, e.URL, e.Err)
}

// Unwrap exposes the underlying error to errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ParseError is a malformed response payload. In the poll path it is
// treated like any other fetch failure.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing response from %s: %v", e.URL, e.Err)
}

// Unwrap exposes the underlying error to errors.Is/As.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NoServerDiscoveredError is returned by ConnectAuto when every enabled
// discovery stage came up empty.
type NoServerDiscoveredError struct {
	Port int
}

func (e *NoServerDiscoveredError) Error() string {
	return fmt.Sprintf("no BetterClock server discovered on local network (port %d)", e.Port)
}
