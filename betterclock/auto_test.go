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
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/betterclock/time/discovery"
)

func quietDiscoveryConfig(t *testing.T) discovery.Config {
	cfg := discovery.DefaultConfig()
	cfg.LocalFirst = false
	cfg.UseCache = false
	cfg.MDNS = false
	cfg.SubnetSweep = false
	cfg.Timeout = 100 * time.Millisecond
	cfg.Retries = 1
	cfg.Port = 65533
	cfg.CachePath = filepath.Join(t.TempDir(), "discovery_cache.json")
	return cfg
}

func TestConnectAutoNoServer(t *testing.T) {
	_, err := ConnectAuto(context.Background(), quietDiscoveryConfig(t))
	var nerr *NoServerDiscoveredError
	require.ErrorAs(t, err, &nerr)
	require.Equal(t, 65533, nerr.Port)
}

func TestConnectAutoLocalServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			fmt.Fprint(w, "ok")
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()
	_, portStr, err := net.SplitHostPort(server.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg := quietDiscoveryConfig(t)
	cfg.LocalFirst = true
	cfg.Port = port

	c, err := ConnectAuto(context.Background(), cfg, WithClientID("auto-test"))
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("http://127.0.0.1:%d", port), c.BaseURL())
	require.Equal(t, "auto-test", c.ClientID())
	require.True(t, c.GetConnectionInfo().Local)

	healthy, err := c.Healthz(context.Background())
	require.NoError(t, err)
	require.True(t, healthy)
}

func TestConnectAutoBadConfig(t *testing.T) {
	cfg := quietDiscoveryConfig(t)
	cfg.Port = -5
	_, err := ConnectAuto(context.Background(), cfg)
	require.Error(t, err)
	var nerr *NoServerDiscoveredError
	require.False(t, errors.As(err, &nerr))
}
