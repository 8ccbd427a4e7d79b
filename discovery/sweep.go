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
	"fmt"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/betterclock/time/netinfo"
)

// BuildSubnetCandidates enumerates the host addresses to sweep, given the
// LAN IP and either a prefix length (clamped to [8,30]) or an explicit
// CIDR which takes precedence. Hosts sharing the LAN IP's /24 come first,
// then the LAN IP itself and its x.y.z.1 gateway are pulled to the very
// front, and the list is cut to maxHosts. Returns the candidates and the
// swept network in CIDR notation.
func BuildSubnetCandidates(lanIP string, maxHosts, sweepPrefix int, sweepCIDR string) ([]string, string) {
	addr, err := netip.ParseAddr(lanIP)
	if err != nil || !addr.Is4() {
		return nil, ""
	}

	var network netip.Prefix
	if cidr := strings.TrimSpace(sweepCIDR); cidr != "" {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil || !prefix.Addr().Is4() {
			return nil, ""
		}
		network = prefix.Masked()
	} else {
		if sweepPrefix < 8 {
			sweepPrefix = 8
		}
		if sweepPrefix > 30 {
			sweepPrefix = 30
		}
		network = netip.PrefixFrom(addr, sweepPrefix).Masked()
	}
	if maxHosts < 1 {
		maxHosts = 1
	}

	same24 := netip.PrefixFrom(addr, 24).Masked()
	primary, secondary := partitionHosts(network, same24, maxHosts)
	candidates := append(primary, secondary...)
	if len(candidates) == 0 {
		return nil, network.String()
	}

	// Self and the common gateway first, so a same-machine server/client
	// pair resolves immediately.
	local := addr.String()
	gateway := local[:strings.LastIndex(local, ".")] + ".1"
	prioritized := make([]string, 0, len(candidates))
	rest := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate == local || candidate == gateway {
			continue
		}
		rest = append(rest, candidate)
	}
	if contains(candidates, local) {
		prioritized = append(prioritized, local)
	}
	if gateway != local && contains(candidates, gateway) {
		prioritized = append(prioritized, gateway)
	}
	prioritized = append(prioritized, rest...)

	if len(prioritized) > maxHosts {
		prioritized = prioritized[:maxHosts]
	}
	return prioritized, network.String()
}

// partitionHosts splits the network's host addresses into those sharing
// the LAN IP's /24 (primary) and the rest (secondary), both in address
// order. Host addresses exclude the network and broadcast addresses: a
// /32 is its single address, a /31 has no usable hosts. The secondary
// list is capped at maxHosts since anything beyond is truncated anyway.
func partitionHosts(network, same24 netip.Prefix, maxHosts int) (primary, secondary []string) {
	bits := network.Bits()
	switch {
	case bits >= 32:
		host := network.Addr().String()
		if same24.Contains(network.Addr()) {
			return []string{host}, nil
		}
		return nil, []string{host}
	case bits == 31:
		return nil, nil
	}

	broadcast := broadcastOf(network)
	isHost := func(a netip.Addr) bool {
		return a != network.Addr() && a != broadcast
	}

	if bits > 24 {
		// The whole network sits inside one /24.
		for a := network.Addr().Next(); a.Less(broadcast); a = a.Next() {
			if same24.Contains(a) {
				primary = append(primary, a.String())
			} else {
				secondary = append(secondary, a.String())
			}
		}
		return primary, secondary
	}

	if network.Contains(same24.Addr()) {
		for a, i := same24.Addr(), 0; i < 256; a, i = a.Next(), i+1 {
			if isHost(a) {
				primary = append(primary, a.String())
			}
		}
	}
	for a := network.Addr().Next(); a.Less(broadcast) && len(secondary) < maxHosts; a = a.Next() {
		if same24.Contains(a) {
			continue
		}
		secondary = append(secondary, a.String())
	}
	return primary, secondary
}

// broadcastOf returns the highest address of an IPv4 prefix.
func broadcastOf(network netip.Prefix) netip.Addr {
	base := network.Addr().As4()
	value := uint32(base[0])<<24 | uint32(base[1])<<16 | uint32(base[2])<<8 | uint32(base[3])
	value |= 1<<(32-network.Bits()) - 1
	return netip.AddrFrom4([4]byte{byte(value >> 24), byte(value >> 16), byte(value >> 8), byte(value)})
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

// probeSweep health-checks the local subnet in parallel. The first host
// answering "ok" wins and outstanding probes are cancelled.
func (e *Engine) probeSweep(ctx context.Context) stageOutcome {
	lanIP := netinfo.DetectLANIP()
	if lanIP == "" {
		return stageOutcome{message: "no LAN IP detected for subnet sweep"}
	}
	candidates, network := BuildSubnetCandidates(lanIP, e.cfg.SweepMaxHosts, e.cfg.SweepPrefix, e.cfg.SweepCIDR)
	if len(candidates) == 0 {
		if e.cfg.SweepCIDR != "" {
			return stageOutcome{message: fmt.Sprintf("invalid or empty sweep CIDR: %s", e.cfg.SweepCIDR)}
		}
		return stageOutcome{message: fmt.Sprintf("could not derive subnet candidates from LAN IP %s", lanIP)}
	}
	if network == "" {
		network = "target network"
	}

	result, winnerScanned := e.sweepHosts(ctx, candidates)
	if result == nil {
		return stageOutcome{message: fmt.Sprintf("no host responded on %s (%d hosts scanned)", network, len(candidates))}
	}
	return stageOutcome{
		result:  result,
		message: fmt.Sprintf("found server after scanning %d/%d hosts on %s", winnerScanned, len(candidates), network),
	}
}

func (e *Engine) sweepHosts(ctx context.Context, candidates []string) (*Result, int) {
	perHostTimeout := perHostProbeTimeout(e.cfg.Timeout)
	workers := e.cfg.SweepWorkers
	if workers > len(candidates) {
		workers = len(candidates)
	}
	if workers < 4 {
		workers = 4
	}

	sctx, cancel := context.WithCancel(ctx)
	defer cancel()
	pool := pond.NewPool(workers)
	defer pool.StopAndWait()
	group := pool.NewGroupContext(sctx)

	var mu sync.Mutex
	var winner string
	scanned := 0
	winnerScanned := 0
	for _, candidate := range candidates {
		candidate := candidate
		group.Submit(func() {
			if sctx.Err() != nil {
				return
			}
			ok := tryHealthz(sctx, e.httpClient, resolveBaseURL(candidate, e.cfg.Port), perHostTimeout)
			mu.Lock()
			scanned++
			if ok && winner == "" {
				winner = candidate
				winnerScanned = scanned
				cancel()
			}
			mu.Unlock()
		})
	}
	// A cancelled group just means some probe already won.
	_ = group.Wait()

	if winner == "" {
		return nil, 0
	}
	return &Result{
		BaseURL: resolveBaseURL(winner, e.cfg.Port),
		IP:      winner,
		Port:    e.cfg.Port,
		Service: ServiceName,
		Version: 1,
		Via:     ViaSubnetSweep,
	}, winnerScanned
}

// perHostProbeTimeout derives the per-host health-check deadline from the
// stage timeout, kept within [80ms, 250ms].
func perHostProbeTimeout(timeout time.Duration) time.Duration {
	perHost := timeout * 35 / 100
	if perHost < 80*time.Millisecond {
		perHost = 80 * time.Millisecond
	}
	if perHost > 250*time.Millisecond {
		perHost = 250 * time.Millisecond
	}
	return perHost
}
