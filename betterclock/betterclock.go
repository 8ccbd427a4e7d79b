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

// Package betterclock implements a client for the BetterClock LAN time
// service. It keeps a corrected wall-clock estimate that tracks the server
// within a few milliseconds using an NTP-style four-timestamp exchange
// carried over HTTP JSON.
package betterclock

import "fmt"

// Tuning knobs for the offset model. These are protocol-level constants,
// not per-session configuration.
const (
	// LatencySampleWindow is how many (rtt, offset) samples we keep.
	LatencySampleWindow = 24
	// LowRTTSampleFloor is the minimum number of samples the low-jitter
	// estimator works with before it falls back to the lowest-RTT subset.
	LowRTTSampleFloor = 5
	// LowRTTHeadroomMs selects samples within this distance of the best RTT.
	LowRTTHeadroomMs = 8.0
	// OffsetSlewRateMsPerSec caps how fast the display offset may move.
	OffsetSlewRateMsPerSec = 240.0
	// OffsetDesyncGainFast is applied when the latest probe RTT is close to
	// the window minimum.
	OffsetDesyncGainFast = 0.35
	// OffsetDesyncGainSlow is applied to high-RTT probes.
	OffsetDesyncGainSlow = 0.16
	// RTTEWMAAlpha is the smoothing factor of the reported RTT.
	RTTEWMAAlpha = 0.25
	// MaxReasonableRTTMs clamps RTT samples.
	MaxReasonableRTTMs = 60000.0
	// MaxReasonableOffsetMs clamps offset samples.
	MaxReasonableOffsetMs = 60000.0
)

// LocalhostIP is where ConnectLocal points.
const LocalhostIP = "127.0.0.1"

// DefaultPort is the BetterClock API port.
const DefaultPort = 8099

// DefaultClientID identifies sessions that didn't pick a name.
const DefaultClientID = "go-time-lib"

// BaseURL builds the server base URL from host and port.
func BaseURL(host string, port int, https bool) string {
	scheme := "http"
	if https {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, port)
}
