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
	"time"

	"github.com/jonboulle/clockwork"
)

// offsetModel is a slew-rate-limited integrator that turns raw
// (rtt, offset) samples into a stable display offset. The display value
// never moves faster than OffsetSlewRateMsPerSec, so a burst of bad
// samples can't produce a visible clock jump.
type offsetModel struct {
	clock  clockwork.Clock
	window *sampleWindow

	initialized bool
	displayMs   float64
	desyncMs    float64
	rttEWMAMs   float64
	lastUpdate  time.Time
}

func newOffsetModel(clock clockwork.Clock) *offsetModel {
	return &offsetModel{
		clock:      clock,
		window:     newSampleWindow(LatencySampleWindow),
		lastUpdate: clock.Now(),
	}
}

// update feeds one sample into the window and advances the display offset
// by at most one slew step.
func (m *offsetModel) update(correctedRTTMs, offsetSampleMs float64) {
	m.window.add(latencySample{rttMs: correctedRTTMs, offsetMs: offsetSampleMs})
	targetRTT, targetOffset := m.window.lowJitterTarget()

	if !m.initialized {
		m.displayMs = targetOffset
		m.rttEWMAMs = targetRTT
		m.desyncMs = 0
		m.initialized = true
		m.lastUpdate = m.clock.Now()
		return
	}

	bestRTT := m.window.bestRTT()
	m.rttEWMAMs = (1.0-RTTEWMAAlpha)*m.rttEWMAMs + RTTEWMAAlpha*targetRTT

	now := m.clock.Now()
	deltaSec := now.Sub(m.lastUpdate).Seconds()
	if deltaSec < 0.001 {
		deltaSec = 0.001
	}
	m.lastUpdate = now

	maxStepMs := OffsetSlewRateMsPerSec * deltaSec
	desyncMs := targetOffset - m.displayMs
	m.desyncMs = desyncMs

	// Low-RTT probes are trustworthy and may pull the display fast;
	// anything else barely nudges it.
	gain := OffsetDesyncGainSlow
	if correctedRTTMs <= bestRTT+3.0 {
		gain = OffsetDesyncGainFast
	}
	stepMs := desyncMs * gain
	if stepMs > maxStepMs {
		stepMs = maxStepMs
	} else if stepMs < -maxStepMs {
		stepMs = -maxStepMs
	}
	m.displayMs += stepMs
}

// reset returns the model to its pre-first-sample state.
func (m *offsetModel) reset() {
	m.initialized = false
	m.displayMs = 0
	m.desyncMs = 0
	m.rttEWMAMs = 0
	m.lastUpdate = m.clock.Now()
	m.window.reset()
}
