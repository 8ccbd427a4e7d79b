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

package discovery

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatScanReport(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CachePath = "/home/pi/.betterclock_time/discovery_cache.json"
	report := &Report{
		ElapsedMs: 1234,
		Selected: &Result{
			BaseURL: "http://192.168.1.50:8099",
			IP:      "192.168.1.50",
			Port:    8099,
			Service: ServiceName,
			Version: 1,
			Via:     ViaUDPBroadcast,
		},
		Steps: []ScanStep{
			{Step: ViaLocalHealthz, Status: StepFail, ElapsedMs: 102, Message: "local server not reachable on localhost"},
			{Step: ViaCacheHealthz, Status: StepSkipped, Message: "cache lookup disabled"},
			{Step: ViaUDPBroadcast, Status: StepOK, ElapsedMs: 310, Message: "discovered over UDP on attempt 1/3", BaseURL: "http://192.168.1.50:8099"},
		},
		CachePath: cfg.CachePath,
		Config:    cfg,
	}

	out := FormatScanReport(report)
	lines := strings.Split(out, "\n")
	require.Equal(t, "BetterClock Discovery Scan Report", lines[0])
	require.Contains(t, lines[1], "retries=3")
	require.Contains(t, lines[1], "timeout=0.80s")
	require.Contains(t, lines[1], "cache=on")
	require.Contains(t, lines[1], "cidr=-")
	require.Contains(t, out, "local-healthz FAIL")
	require.Contains(t, out, "cache-healthz SKIPPED")
	require.Contains(t, out, "| http://192.168.1.50:8099")
	require.Contains(t, out, "Selected: http://192.168.1.50:8099 via udp-broadcast (ip=192.168.1.50, port=8099)")
	require.Contains(t, out, "Cache path: /home/pi/.betterclock_time/discovery_cache.json")
}

func TestFormatScanReportNoneSelected(t *testing.T) {
	report := &Report{Config: DefaultConfig(), CachePath: "/tmp/cache.json"}
	out := FormatScanReport(report)
	require.Contains(t, out, "Selected: none")
}

func TestOnOff(t *testing.T) {
	require.Equal(t, "on", onOff(true))
	require.Equal(t, "off", onOff(false))
}

func TestSweepHostsFindsLocalServer(t *testing.T) {
	port := startHealthzServer(t)
	cfg := quietConfig()
	cfg.SubnetSweep = true
	cfg.Port = port
	cfg.Timeout = 800 * time.Millisecond
	e := testEngine(t, cfg)

	result, scanned := e.sweepHosts(context.Background(), []string{"127.0.0.1", "192.0.2.1", "192.0.2.2"})
	require.NotNil(t, result)
	require.Equal(t, "127.0.0.1", result.IP)
	require.Equal(t, ViaSubnetSweep, result.Via)
	require.GreaterOrEqual(t, scanned, 1)
}

func TestSweepHostsNoServer(t *testing.T) {
	cfg := quietConfig()
	cfg.SubnetSweep = true
	cfg.Timeout = 200 * time.Millisecond
	e := testEngine(t, cfg)

	result, _ := e.sweepHosts(context.Background(), []string{"192.0.2.1", "192.0.2.2"})
	require.Nil(t, result)
}
