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
	"net"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

func mdnsAnswer(ip string, port uint16, txt []string) *dns.Msg {
	instance := "BetterClock._betterclock._tcp.local."
	msg := new(dns.Msg)
	msg.Response = true
	msg.Answer = []dns.RR{
		&dns.PTR{
			Hdr: dns.RR_Header{Name: MDNSServiceType, Rrtype: dns.TypePTR, Class: dns.ClassINET},
			Ptr: instance,
		},
	}
	msg.Extra = []dns.RR{
		&dns.SRV{
			Hdr:    dns.RR_Header{Name: instance, Rrtype: dns.TypeSRV, Class: dns.ClassINET},
			Port:   port,
			Target: "clock.local.",
		},
		&dns.A{
			Hdr: dns.RR_Header{Name: "clock.local.", Rrtype: dns.TypeA, Class: dns.ClassINET},
			A:   net.ParseIP(ip),
		},
	}
	if txt != nil {
		msg.Extra = append(msg.Extra, &dns.TXT{
			Hdr: dns.RR_Header{Name: instance, Rrtype: dns.TypeTXT, Class: dns.ClassINET},
			Txt: txt,
		})
	}
	return msg
}

func TestMDNSResultFromMsg(t *testing.T) {
	result := mdnsResultFromMsg(mdnsAnswer("192.168.1.50", 8099, []string{"version=2 path=/v1"}))
	require.NotNil(t, result)
	require.Equal(t, "192.168.1.50", result.IP)
	require.Equal(t, 8099, result.Port)
	require.Equal(t, "http://192.168.1.50:8099", result.BaseURL)
	require.Equal(t, 2, result.Version)
	require.Equal(t, ViaMDNS, result.Via)
}

func TestMDNSResultFromMsgNoTXT(t *testing.T) {
	result := mdnsResultFromMsg(mdnsAnswer("192.168.1.50", 8099, nil))
	require.NotNil(t, result)
	require.Equal(t, 1, result.Version)
}

func TestMDNSResultFromMsgIncomplete(t *testing.T) {
	// No A record: not usable.
	msg := mdnsAnswer("192.168.1.50", 8099, nil)
	msg.Extra = msg.Extra[:1]
	require.Nil(t, mdnsResultFromMsg(msg))

	// SRV for some other service: no port.
	msg = new(dns.Msg)
	msg.Extra = []dns.RR{
		&dns.SRV{
			Hdr:  dns.RR_Header{Name: "Printer._ipp._tcp.local.", Rrtype: dns.TypeSRV, Class: dns.ClassINET},
			Port: 631,
		},
		&dns.A{
			Hdr: dns.RR_Header{Name: "printer.local.", Rrtype: dns.TypeA, Class: dns.ClassINET},
			A:   net.ParseIP("192.168.1.9"),
		},
	}
	require.Nil(t, mdnsResultFromMsg(msg))
}

func TestParseTXTVersion(t *testing.T) {
	require.Equal(t, 2, parseTXTVersion([]string{"version=2"}))
	require.Equal(t, 3, parseTXTVersion([]string{"path=/v1 version=3"}))
	require.Equal(t, 1, parseTXTVersion([]string{"path=/v1"}))
	require.Equal(t, 1, parseTXTVersion(nil))
	require.Equal(t, 1, parseTXTVersion([]string{"version=banana"}))
}
