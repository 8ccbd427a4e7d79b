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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 8099, cfg.Port)
	require.Equal(t, 800*time.Millisecond, cfg.Timeout)
	require.Equal(t, 3, cfg.Retries)
	require.True(t, cfg.LocalFirst)
	require.True(t, cfg.MDNS)
	require.True(t, cfg.UseCache)
	require.True(t, cfg.SubnetSweep)
	require.Equal(t, 24, cfg.SweepPrefix)
	require.Equal(t, 254, cfg.SweepMaxHosts)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = 0
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Port = 70000
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.SweepCIDR = "not-a-cidr"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.SweepCIDR = "2001:db8::/64"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.SweepCIDR = "192.168.1.0/24"
	require.NoError(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.BroadcastAddress = "not-an-ip"
	require.Error(t, cfg.Validate())
}

func TestConfigNormalize(t *testing.T) {
	cfg := Config{Port: 8099, Timeout: time.Millisecond, Retries: 0, SweepPrefix: 31, SweepMaxHosts: 0}
	cfg.normalize()
	require.Equal(t, 100*time.Millisecond, cfg.Timeout)
	require.Equal(t, 1, cfg.Retries)
	require.Equal(t, "255.255.255.255", cfg.BroadcastAddress)
	require.Equal(t, 30, cfg.SweepPrefix)
	require.Equal(t, 1, cfg.SweepMaxHosts)
	require.Equal(t, 1, cfg.SweepWorkers)
	require.NotEmpty(t, cfg.CachePath)

	cfg = Config{Port: 8099, SweepPrefix: 4}
	cfg.normalize()
	require.Equal(t, 8, cfg.SweepPrefix)
}

func TestReadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discovery.yaml")
	data := `
port: 9000
timeout: 500ms
retries: 2
mdns: false
sweep_cidr: "10.0.0.0/16"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := ReadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.Port)
	require.Equal(t, 500*time.Millisecond, cfg.Timeout)
	require.Equal(t, 2, cfg.Retries)
	require.False(t, cfg.MDNS)
	require.Equal(t, "10.0.0.0/16", cfg.SweepCIDR)
	// Untouched fields keep their defaults.
	require.True(t, cfg.LocalFirst)
	require.Equal(t, "255.255.255.255", cfg.BroadcastAddress)
}

func TestReadConfigMissingFile(t *testing.T) {
	cfg, err := ReadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	// Defaults come back even on error.
	require.Equal(t, 8099, cfg.Port)
}
