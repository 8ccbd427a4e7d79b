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
	"math"
	"sort"
)

// latencySample is a single (rtt, offset) measurement in milliseconds.
type latencySample struct {
	rttMs    float64
	offsetMs float64
}

// sampleWindow is a bounded FIFO of latency samples. Oldest samples are
// evicted once the window holds LatencySampleWindow entries.
type sampleWindow struct {
	size    int
	samples []latencySample
}

func newSampleWindow(size int) *sampleWindow {
	if size < 1 {
		size = 1
	}
	return &sampleWindow{
		size:    size,
		samples: make([]latencySample, 0, size),
	}
}

func (w *sampleWindow) add(s latencySample) {
	if len(w.samples) == w.size {
		copy(w.samples, w.samples[1:])
		w.samples = w.samples[:w.size-1]
	}
	w.samples = append(w.samples, s)
}

func (w *sampleWindow) len() int {
	return len(w.samples)
}

func (w *sampleWindow) reset() {
	w.samples = w.samples[:0]
}

// bestRTT returns the minimum RTT in the window, NaN when empty.
func (w *sampleWindow) bestRTT() float64 {
	if len(w.samples) == 0 {
		return math.NaN()
	}
	best := w.samples[0].rttMs
	for _, s := range w.samples[1:] {
		if s.rttMs < best {
			best = s.rttMs
		}
	}
	return best
}

// lowJitterTarget computes the weighted (rtt, offset) target the offset
// model slews towards. Samples close to the window's best RTT carry less
// asymmetry bias, so only those participate; each is weighted by
// 1/(1+rtt)^2 to further favour fast probes.
func (w *sampleWindow) lowJitterTarget() (targetRTT, targetOffset float64) {
	if len(w.samples) == 0 {
		return 0, 0
	}

	sorted := make([]latencySample, len(w.samples))
	copy(sorted, w.samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].rttMs < sorted[j].rttMs })
	best := sorted[0].rttMs

	selected := make([]latencySample, 0, len(w.samples))
	for _, s := range w.samples {
		if s.rttMs <= best+LowRTTHeadroomMs {
			selected = append(selected, s)
		}
	}
	if len(selected) < LowRTTSampleFloor {
		n := min(len(sorted), LowRTTSampleFloor)
		selected = sorted[:n]
	}

	var weightSum, weightedRTT, weightedOffset float64
	for _, s := range selected {
		weight := 1.0 / ((1.0 + s.rttMs) * (1.0 + s.rttMs))
		weightedRTT += s.rttMs * weight
		weightedOffset += s.offsetMs * weight
		weightSum += weight
	}
	if weightSum <= 0 {
		return sorted[0].rttMs, sorted[0].offsetMs
	}
	return weightedRTT / weightSum, weightedOffset / weightSum
}
