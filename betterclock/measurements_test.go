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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseServerTimestamps(t *testing.T) {
	state := &StateResponse{
		RequestReceivedUnixMs: 1000,
		ResponseSendUnixMs:    1010,
		ResponseUnixMs:        1005,
	}
	t2, hasT2, t3, hasT3 := parseServerTimestamps(state)
	require.True(t, hasT2)
	require.True(t, hasT3)
	require.Equal(t, 1000.0, t2)
	// The send timestamp wins over the response timestamp.
	require.Equal(t, 1010.0, t3)
}

func TestParseServerTimestampsFallbacks(t *testing.T) {
	state := &StateResponse{ResponseUnixMs: 1005}
	_, hasT2, t3, hasT3 := parseServerTimestamps(state)
	require.False(t, hasT2)
	require.True(t, hasT3)
	require.Equal(t, 1005.0, t3)

	state = &StateResponse{Runtime: RuntimeSnapshot{UpdatedUnixMs: 999}}
	_, hasT2, t3, hasT3 = parseServerTimestamps(state)
	require.False(t, hasT2)
	require.True(t, hasT3)
	require.Equal(t, 999.0, t3)

	// Zero-valued fields count as absent.
	state = &StateResponse{}
	_, hasT2, _, hasT3 = parseServerTimestamps(state)
	require.False(t, hasT2)
	require.False(t, hasT3)
}

func TestComputeNetworkSampleFourTimestamps(t *testing.T) {
	// t1=0, t2=105, t3=110, t4=20: server processing is 5ms,
	// rtt = 20 - 5 = 15, offset = (105 + 90) / 2 = 97.5.
	state := &StateResponse{
		RequestReceivedUnixMs: 105,
		ResponseSendUnixMs:    110,
	}
	rtt, offset := computeNetworkSample(state, 20.0, 0, 20)
	require.InDelta(t, 15.0, rtt, 1e-9)
	require.InDelta(t, 97.5, offset, 1e-9)
}

func TestComputeNetworkSampleNegativeRTT(t *testing.T) {
	// Server timestamps claim more processing time than the whole
	// round-trip; the wall-clock RTT takes over.
	state := &StateResponse{
		RequestReceivedUnixMs: 100,
		ResponseSendUnixMs:    200,
	}
	rtt, _ := computeNetworkSample(state, 12.5, 0, 20)
	require.InDelta(t, 12.5, rtt, 1e-9)
}

func TestComputeNetworkSampleMidpoint(t *testing.T) {
	// Only t3 present: offset is measured against the request midpoint.
	state := &StateResponse{ResponseUnixMs: 160}
	rtt, offset := computeNetworkSample(state, 20.0, 100, 120)
	require.InDelta(t, 20.0, rtt, 1e-9)
	require.InDelta(t, 50.0, offset, 1e-9)
}

func TestComputeNetworkSampleNoTimestamps(t *testing.T) {
	state := &StateResponse{}
	rtt, offset := computeNetworkSample(state, 8.0, 100, 120)
	require.InDelta(t, 8.0, rtt, 1e-9)
	require.Equal(t, 0.0, offset)
}

func TestComputeNetworkSampleClamps(t *testing.T) {
	// An absurd server clock produces an offset beyond the ceiling.
	state := &StateResponse{ResponseUnixMs: 1e12}
	_, offset := computeNetworkSample(state, 5.0, 0, 10)
	require.Equal(t, MaxReasonableOffsetMs, offset)

	state = &StateResponse{ResponseUnixMs: 10}
	rtt, _ := computeNetworkSample(state, 1e9, 0, 10)
	require.Equal(t, MaxReasonableRTTMs, rtt)

	// Exactly at the boundary passes through unclamped.
	state = &StateResponse{ResponseUnixMs: 5}
	rtt, _ = computeNetworkSample(state, MaxReasonableRTTMs, 0, 10)
	require.Equal(t, MaxReasonableRTTMs, rtt)
}
