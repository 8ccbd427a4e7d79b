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

// Package discovery locates a BetterClock server on the LAN. Probes are
// layered cheapest-first: localhost, the persistent endpoint cache, mDNS,
// UDP broadcast, and finally a concurrent subnet sweep. The engine stops
// at the first hit unless a full diagnostic scan was requested.
package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
)

// Wire-level identity of the BetterClock discovery protocol.
const (
	ProbeToken      = "BETTERCLOCK_DISCOVER_V1"
	ServiceName     = "betterclock"
	MDNSServiceType = "_betterclock._tcp.local."
)

// Via tags record which stage produced a Result.
const (
	ViaLocalHealthz = "local-healthz"
	ViaCacheHealthz = "cache-healthz"
	ViaMDNS         = "mdns"
	ViaUDPBroadcast = "udp-broadcast"
	ViaSubnetSweep  = "subnet-sweep"
)

// ScanStep statuses
const (
	StepOK      = "ok"
	StepFail    = "fail"
	StepSkipped = "skipped"
)

// Result is a discovered server endpoint. Immutable once produced.
type Result struct {
	BaseURL string `json:"base_url"`
	IP      string `json:"ip"`
	Port    int    `json:"port"`
	Service string `json:"service"`
	Version int    `json:"version"`
	Via     string `json:"via"`
}

// ScanStep is one stage outcome in a scan report.
type ScanStep struct {
	Step      string `json:"step"`
	Status    string `json:"status"`
	ElapsedMs int64  `json:"elapsed_ms"`
	Message   string `json:"message"`
	Via       string `json:"via,omitempty"`
	BaseURL   string `json:"base_url,omitempty"`
	IP        string `json:"ip,omitempty"`
	Port      int    `json:"port,omitempty"`
}

// Report aggregates every stage outcome of one scan, plus the effective
// configuration that produced it.
type Report struct {
	StartedUnixMs  int64      `json:"started_unix_ms"`
	FinishedUnixMs int64      `json:"finished_unix_ms"`
	ElapsedMs      int64      `json:"elapsed_ms"`
	Selected       *Result    `json:"selected,omitempty"`
	Steps          []ScanStep `json:"steps"`
	CachePath      string     `json:"cache_path"`
	Config         Config     `json:"config"`
	FullScan       bool       `json:"full_scan"`
}

// Engine runs discovery probes in a fixed order.
type Engine struct {
	cfg        Config
	httpClient *http.Client
	clock      clockwork.Clock
	mdnsErr    error // non-nil when the mDNS capability probe failed
}

// NewEngine validates and normalizes cfg and probes optional capabilities.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.normalize()
	return &Engine{
		cfg:        cfg,
		httpClient: &http.Client{},
		clock:      clockwork.NewRealClock(),
		mdnsErr:    probeMDNSCapability(),
	}, nil
}

// Discover returns the first endpoint any enabled stage finds, or nil when
// every stage came up empty. Stages never return errors; failures move on
// to the next stage.
func (e *Engine) Discover(ctx context.Context) *Result {
	selected, _ := e.run(ctx, true, false)
	return selected
}

// Scan runs the stages and records a step-by-step report. With fullScan
// the engine keeps probing after the first hit so every stage reports.
func (e *Engine) Scan(ctx context.Context, fullScan bool) *Report {
	startedUnix := time.Now().UnixMilli()
	startedMono := e.clock.Now()
	selected, steps := e.run(ctx, !fullScan, true)
	elapsed := e.clock.Since(startedMono).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	return &Report{
		StartedUnixMs:  startedUnix,
		FinishedUnixMs: time.Now().UnixMilli(),
		ElapsedMs:      elapsed,
		Selected:       selected,
		Steps:          steps,
		CachePath:      e.cfg.CachePath,
		Config:         e.cfg,
		FullScan:       fullScan,
	}
}

// Discover is a convenience wrapper over a one-shot engine.
func Discover(ctx context.Context, cfg Config) (*Result, error) {
	e, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	return e.Discover(ctx), nil
}

// Scan is a convenience wrapper over a one-shot engine.
func Scan(ctx context.Context, cfg Config, fullScan bool) (*Report, error) {
	e, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	return e.Scan(ctx, fullScan), nil
}

type stageOutcome struct {
	result  *Result
	message string
}

func (e *Engine) run(ctx context.Context, stopOnFirst, collectSteps bool) (*Result, []ScanStep) {
	var selected *Result
	var steps []ScanStep

	record := func(step ScanStep) {
		if collectSteps {
			steps = append(steps, step)
		}
	}
	// runStage executes one probe and reports whether the engine is done.
	runStage := func(name string, enabled bool, skipMessage string, probe func(context.Context) stageOutcome) bool {
		if !enabled {
			record(ScanStep{Step: name, Status: StepSkipped, Message: skipMessage})
			return false
		}
		started := e.clock.Now()
		outcome := probe(ctx)
		elapsed := e.clock.Since(started).Milliseconds()
		if elapsed < 0 {
			elapsed = 0
		}
		if outcome.result == nil {
			log.Debugf("discovery stage %s: %s", name, outcome.message)
			record(ScanStep{Step: name, Status: StepFail, ElapsedMs: elapsed, Message: outcome.message})
			return false
		}
		log.Debugf("discovery stage %s: found %s", name, outcome.result.BaseURL)
		if e.cfg.UseCache {
			SaveCachedDiscovery(outcome.result, e.cfg.CachePath)
		}
		record(ScanStep{
			Step:      name,
			Status:    StepOK,
			ElapsedMs: elapsed,
			Message:   outcome.message,
			Via:       outcome.result.Via,
			BaseURL:   outcome.result.BaseURL,
			IP:        outcome.result.IP,
			Port:      outcome.result.Port,
		})
		if selected == nil {
			selected = outcome.result
		}
		return stopOnFirst
	}

	if runStage(ViaLocalHealthz, e.cfg.LocalFirst, "local-first probe disabled", e.probeLocal) {
		return selected, steps
	}
	if runStage(ViaCacheHealthz, e.cfg.UseCache, "cache lookup disabled", e.probeCache) {
		return selected, steps
	}
	if runStage(ViaMDNS, e.cfg.MDNS, "mDNS scan disabled", e.probeMDNS) {
		return selected, steps
	}
	if runStage(ViaUDPBroadcast, true, "", e.probeUDP) {
		return selected, steps
	}
	if runStage(ViaSubnetSweep, e.cfg.SubnetSweep, "subnet sweep disabled", e.probeSweep) {
		return selected, steps
	}
	return selected, steps
}

func (e *Engine) probeLocal(ctx context.Context) stageOutcome {
	baseURL := resolveBaseURL("127.0.0.1", e.cfg.Port)
	if !tryHealthz(ctx, e.httpClient, baseURL, quickProbeTimeout(e.cfg.Timeout)) {
		return stageOutcome{message: "local server not reachable on localhost"}
	}
	return stageOutcome{
		result: &Result{
			BaseURL: baseURL,
			IP:      "127.0.0.1",
			Port:    e.cfg.Port,
			Service: ServiceName,
			Version: 1,
			Via:     ViaLocalHealthz,
		},
		message: "local server is reachable",
	}
}

func (e *Engine) probeCache(ctx context.Context) stageOutcome {
	cached := LoadCachedDiscovery(e.cfg.CachePath)
	if cached == nil {
		return stageOutcome{message: fmt.Sprintf("no cache entry at %s", e.cfg.CachePath)}
	}
	if !tryHealthz(ctx, e.httpClient, cached.BaseURL, quickProbeTimeout(e.cfg.Timeout)) {
		return stageOutcome{message: fmt.Sprintf("cached server is stale/unreachable: %s", cached.BaseURL)}
	}
	return stageOutcome{
		result: &Result{
			BaseURL: cached.BaseURL,
			IP:      cached.IP,
			Port:    cached.Port,
			Service: cached.Service,
			Version: cached.Version,
			Via:     ViaCacheHealthz,
		},
		message: "cached server is reachable",
	}
}

// quickProbeTimeout is the short deadline of healthz probes for stages
// that should not hold up the scan.
func quickProbeTimeout(timeout time.Duration) time.Duration {
	if timeout > 350*time.Millisecond {
		return 350 * time.Millisecond
	}
	return timeout
}

func resolveBaseURL(host string, port int) string {
	return fmt.Sprintf("http://%s:%d", host, port)
}

// tryHealthz reports whether baseURL answers /healthz with "ok"
// (case-insensitive, whitespace-trimmed) within the timeout.
func tryHealthz(ctx context.Context, client *http.Client, baseURL string, timeout time.Duration) bool {
	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(rctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/healthz", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Accept", "text/plain")
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(string(body)), "ok")
}
