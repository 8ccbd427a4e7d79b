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
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// mdnsGroupAddr is the well-known IPv4 multicast DNS destination.
var mdnsGroupAddr = &net.UDPAddr{IP: net.IPv4(224, 0, 0, 251), Port: 5353}

const mdnsReadGranularity = 50 * time.Millisecond

// probeMDNSCapability checks at construction time whether we can open the
// UDP socket the one-shot browse needs. The mDNS stage is optional; when
// this fails the stage reports the reason instead of probing.
func probeMDNSCapability() error {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return err
	}
	return conn.Close()
}

// probeMDNS browses for the BetterClock mDNS service.
func (e *Engine) probeMDNS(ctx context.Context) stageOutcome {
	if e.mdnsErr != nil {
		return stageOutcome{message: "mDNS unavailable: " + e.mdnsErr.Error() + " (multicast UDP support required)"}
	}
	result, err := browseMDNS(ctx, e.cfg.Timeout)
	if err != nil {
		return stageOutcome{message: "mDNS probe failed: " + err.Error()}
	}
	if result == nil {
		return stageOutcome{message: "no mDNS response from server (check server mDNS announce and UDP 5353 multicast/firewall rules)"}
	}
	return stageOutcome{result: result, message: "mDNS service discovered"}
}

// browseMDNS sends a one-shot multicast PTR query for the service type and
// collects SRV/A/TXT records from whatever answers before the deadline.
// Responders treat queries from an ephemeral port as legacy unicast ones
// and reply directly to us.
func browseMDNS(ctx context.Context, timeout time.Duration) (*Result, error) {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	query := new(dns.Msg)
	query.SetQuestion(dns.Fqdn(MDNSServiceType), dns.TypePTR)
	query.RecursionDesired = false
	packed, err := query.Pack()
	if err != nil {
		return nil, err
	}
	if _, err := conn.WriteTo(packed, mdnsGroupAddr); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	buf := make([]byte, 9000)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return nil, nil
		}
		if err := conn.SetReadDeadline(time.Now().Add(mdnsReadGranularity)); err != nil {
			return nil, err
		}
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			return nil, err
		}
		response := new(dns.Msg)
		if err := response.Unpack(buf[:n]); err != nil {
			continue
		}
		if result := mdnsResultFromMsg(response); result != nil {
			return result, nil
		}
	}
	return nil, nil
}

func mdnsResultFromMsg(msg *dns.Msg) *Result {
	var ip string
	var port int
	version := 1

	records := make([]dns.RR, 0, len(msg.Answer)+len(msg.Extra))
	records = append(records, msg.Answer...)
	records = append(records, msg.Extra...)
	for _, rr := range records {
		switch v := rr.(type) {
		case *dns.SRV:
			if strings.Contains(rr.Header().Name, "_betterclock._tcp") {
				port = int(v.Port)
			}
		case *dns.A:
			if ip == "" && v.A != nil {
				ip = v.A.String()
			}
		case *dns.TXT:
			version = parseTXTVersion(v.Txt)
		}
	}
	if ip == "" || port <= 0 {
		return nil
	}
	return &Result{
		BaseURL: resolveBaseURL(ip, port),
		IP:      ip,
		Port:    port,
		Service: ServiceName,
		Version: version,
		Via:     ViaMDNS,
	}
}

// parseTXTVersion extracts "version=<int>" from TXT strings, 1 on absence
// or parse failure.
func parseTXTVersion(txts []string) int {
	for _, txt := range txts {
		for _, entry := range strings.Split(txt, " ") {
			value, found := strings.CutPrefix(entry, "version=")
			if !found {
				continue
			}
			parsed, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return 1
			}
			return parsed
		}
	}
	return 1
}
