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

// Package netinfo answers questions about the addresses of the machine we
// run on: the LAN-facing interface IP, the public IP as seen from the
// outside, and plain hostname resolution.
package netinfo

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// PublicIPServices are tried in order by LookupPublicIP. All serve the
// caller's IP as a text/plain body.
var PublicIPServices = []string{
	"https://api.ipify.org",
	"https://ifconfig.me/ip",
	"https://ident.me",
}

const userAgent = "betterclock-time/0.1"

// IsValidIP reports whether s parses as an IP address.
func IsValidIP(s string) bool {
	_, err := netip.ParseAddr(s)
	return err == nil
}

// DetectLANIP returns the IPv4 address of the interface the OS would route
// outward traffic through, or "" if it can't be determined. No packet is
// sent; connecting a UDP socket only selects a route.
func DetectLANIP() string {
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		log.Debugf("LAN IP detection failed: %v", err)
		return ""
	}
	defer conn.Close()
	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP == nil {
		return ""
	}
	candidate := addr.IP.String()
	if !IsValidIP(candidate) {
		return ""
	}
	return candidate
}

// ResolveHostnameIP resolves a hostname to a single IP, preferring IPv4.
// Returns "" on failure or empty input.
func ResolveHostnameIP(hostname string) string {
	if strings.TrimSpace(hostname) == "" {
		return ""
	}
	ips, err := net.LookupIP(hostname)
	if err != nil || len(ips) == 0 {
		return ""
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4.String()
		}
	}
	return ips[0].String()
}

// LookupPublicIP asks the known public-IP services for our address, first
// valid answer wins. Failures are part of the normal shape: "" means no
// service could tell us.
func LookupPublicIP(ctx context.Context, timeout time.Duration) string {
	if timeout < 100*time.Millisecond {
		timeout = 100 * time.Millisecond
	}
	client := &http.Client{}
	for _, service := range PublicIPServices {
		candidate, err := fetchPlainText(ctx, client, service, timeout)
		if err != nil {
			log.Debugf("public IP lookup via %s failed: %v", service, err)
			continue
		}
		if candidate != "" && IsValidIP(candidate) {
			return candidate
		}
	}
	return ""
}

func fetchPlainText(ctx context.Context, client *http.Client, url string, timeout time.Duration) (string, error) {
	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(rctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("User-Agent", userAgent)
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}
