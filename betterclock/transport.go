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
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"
)

// exchange is the raw outcome of a single HTTP GET: the body plus the
// timestamps needed by the offset math. t1 and t4 are wall-clock unix ms
// around the request; rttWallMs is measured on the monotonic clock.
type exchange struct {
	body      []byte
	rttWallMs float64
	t1        float64
	t4        float64
}

// transport executes single HTTP GETs with a per-request deadline and
// byte accounting. No retries happen at this level.
type transport struct {
	httpClient *http.Client
	timeout    time.Duration
	stats      *Stats
}

func newTransport(httpClient *http.Client, timeout time.Duration, stats *Stats) *transport {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if timeout < 100*time.Millisecond {
		timeout = 100 * time.Millisecond
	}
	return &transport{
		httpClient: httpClient,
		timeout:    timeout,
		stats:      stats,
	}
}

func (t *transport) get(ctx context.Context, fullURL string, headers map[string]string) (*exchange, error) {
	rctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(rctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &TransportError{Kind: TransportIO, URL: fullURL, Err: err}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	t.stats.UpdateCounterBy(CounterRequests, 1)
	t.stats.UpdateCounterBy(CounterTXBytes, estimateRequestBytes(req))

	t1 := float64(time.Now().UnixMilli())
	start := time.Now()
	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.stats.UpdateCounterBy(CounterErrors, 1)
		return nil, classifyTransportError(fullURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.stats.UpdateCounterBy(CounterErrors, 1)
		return nil, classifyTransportError(fullURL, err)
	}
	rttWallMs := float64(time.Since(start)) / float64(time.Millisecond)
	t4 := float64(time.Now().UnixMilli())

	t.stats.UpdateCounterBy(CounterRXBytes, int64(len(body)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		t.stats.UpdateCounterBy(CounterErrors, 1)
		return nil, &TransportError{Kind: TransportHTTPStatus, URL: fullURL, StatusCode: resp.StatusCode}
	}

	return &exchange{
		body:      body,
		rttWallMs: rttWallMs,
		t1:        t1,
		t4:        t4,
	}, nil
}

// estimateRequestBytes reconstructs roughly what the request line and
// headers occupy on the wire. The HTTP engine may add more (Host,
// keep-alive), so this is an estimate.
func estimateRequestBytes(req *http.Request) int64 {
	size := len(req.Method) + 1 + len(req.URL.String()) + len(" HTTP/1.1\r\n")
	for k, vals := range req.Header {
		for _, v := range vals {
			size += len(k) + len(": ") + len(v) + len("\r\n")
		}
	}
	size += len("\r\n")
	return int64(size)
}

func classifyTransportError(url string, err error) *TransportError {
	var dnsErr *net.DNSError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &TransportError{Kind: TransportTimeout, URL: url, Err: err}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &TransportError{Kind: TransportTimeout, URL: url, Err: err}
	case errors.As(err, &dnsErr):
		return &TransportError{Kind: TransportDNS, URL: url, Err: err}
	case errors.Is(err, syscall.ECONNREFUSED):
		return &TransportError{Kind: TransportRefused, URL: url, Err: err}
	default:
		return &TransportError{Kind: TransportIO, URL: url, Err: err}
	}
}
