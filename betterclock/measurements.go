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

import "math"

// parseServerTimestamps extracts t2 (request received) and t3 (response
// send) from a state payload. t3 falls back to the response timestamp and
// then to the runtime update timestamp; a missing or zero field counts as
// absent.
func parseServerTimestamps(state *StateResponse) (t2 float64, hasT2 bool, t3 float64, hasT3 bool) {
	if state.RequestReceivedUnixMs > 0 {
		t2 = float64(state.RequestReceivedUnixMs)
		hasT2 = true
	}
	switch {
	case state.ResponseSendUnixMs > 0:
		t3 = float64(state.ResponseSendUnixMs)
		hasT3 = true
	case state.ResponseUnixMs > 0:
		t3 = float64(state.ResponseUnixMs)
		hasT3 = true
	case state.Runtime.UpdatedUnixMs > 0:
		t3 = float64(state.Runtime.UpdatedUnixMs)
		hasT3 = true
	}
	return t2, hasT2, t3, hasT3
}

// computeNetworkSample turns one exchange into a clamped (rtt, offset)
// sample. With both server timestamps present this is the standard
// four-timestamp exchange:
//
//	rtt    = (t4 - t1) - (t3 - t2)
//	offset = ((t2 - t1) + (t3 - t4)) / 2
//
// With only a server send timestamp, the offset is measured against the
// request midpoint and the wall-clock RTT is used as-is.
func computeNetworkSample(state *StateResponse, fallbackRTTMs, t1, t4 float64) (rttMs, offsetMs float64) {
	t2, hasT2, t3, hasT3 := parseServerTimestamps(state)

	if hasT2 && hasT3 {
		rttMs = (t4 - t1) - (t3 - t2)
		offsetMs = ((t2 - t1) + (t3 - t4)) / 2.0
		if !isFinite(rttMs) || rttMs < 0 {
			rttMs = fallbackRTTMs
		}
	} else {
		midpointMs := (t1 + t4) / 2.0
		serverMs := midpointMs
		if hasT3 {
			serverMs = t3
		}
		rttMs = fallbackRTTMs
		offsetMs = serverMs - midpointMs
	}

	if !isFinite(rttMs) {
		rttMs = fallbackRTTMs
	}
	if !isFinite(offsetMs) {
		offsetMs = 0
	}

	rttMs = math.Max(0, math.Min(rttMs, MaxReasonableRTTMs))
	offsetMs = math.Max(-MaxReasonableOffsetMs, math.Min(offsetMs, MaxReasonableOffsetMs))
	return rttMs, offsetMs
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
