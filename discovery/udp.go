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
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"
)

// udpAnnounce is the JSON datagram a server replies with. Extra fields
// are tolerated; missing api_port/version fall back to defaults.
type udpAnnounce struct {
	Service string `json:"service"`
	APIPort *int   `json:"api_port"`
	Version *int   `json:"version"`
}

// probeUDP broadcasts the discovery token and waits for a server
// announcement. Up to cfg.Retries attempts, each bounded by cfg.Timeout.
func (e *Engine) probeUDP(ctx context.Context) stageOutcome {
	var lastErr string
	for attempt := 1; attempt <= e.cfg.Retries; attempt++ {
		result, errText := e.udpAttempt(ctx)
		if errText != "" {
			lastErr = errText
		}
		if result != nil {
			return stageOutcome{
				result:  result,
				message: fmt.Sprintf("discovered over UDP on attempt %d/%d", attempt, e.cfg.Retries),
			}
		}
		if ctx.Err() != nil {
			break
		}
	}
	if lastErr != "" {
		return stageOutcome{message: "UDP discovery failed: " + lastErr}
	}
	return stageOutcome{message: fmt.Sprintf("no UDP discovery response on port %d", e.cfg.Port)}
}

func (e *Engine) udpAttempt(ctx context.Context) (*Result, string) {
	conn, err := listenBroadcastUDP(ctx)
	if err != nil {
		return nil, err.Error()
	}
	defer conn.Close()

	probe := []byte(ProbeToken)
	// Send errors are non-fatal; either destination may be unreachable.
	if addr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(e.cfg.BroadcastAddress, fmt.Sprint(e.cfg.Port))); err == nil {
		_, _ = conn.WriteTo(probe, addr)
	}
	if addr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("127.0.0.1:%d", e.cfg.Port)); err == nil {
		_, _ = conn.WriteTo(probe, addr)
	}

	deadline := time.Now().Add(e.cfg.Timeout)
	buf := make([]byte, 2048)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return nil, ""
		}
		if err := conn.SetReadDeadline(deadline); err != nil {
			return nil, err.Error()
		}
		n, source, err := conn.ReadFrom(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				return nil, ""
			}
			return nil, err.Error()
		}

		announce := udpAnnounce{}
		if err := json.Unmarshal(buf[:n], &announce); err != nil {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(announce.Service), ServiceName) {
			continue
		}

		sourceIP := "127.0.0.1"
		if udpSource, ok := source.(*net.UDPAddr); ok && udpSource.IP != nil {
			sourceIP = udpSource.IP.String()
		}
		port := e.cfg.Port
		if announce.APIPort != nil && *announce.APIPort > 0 {
			port = *announce.APIPort
		}
		version := 1
		if announce.Version != nil {
			version = *announce.Version
		}
		return &Result{
			BaseURL: resolveBaseURL(sourceIP, port),
			IP:      sourceIP,
			Port:    port,
			Service: ServiceName,
			Version: version,
			Via:     ViaUDPBroadcast,
		}, ""
	}
	return nil, ""
}

// listenBroadcastUDP opens an ephemeral UDP socket with SO_BROADCAST set,
// which sending to 255.255.255.255 requires.
func listenBroadcastUDP(ctx context.Context) (net.PacketConn, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, raw syscall.RawConn) error {
			var serr error
			if err := raw.Control(func(fd uintptr) {
				serr = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_BROADCAST, 1)
			}); err != nil {
				return err
			}
			return serr
		},
	}
	return lc.ListenPacket(ctx, "udp4", ":0")
}
