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
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Config specifies how the discovery engine probes for a server.
type Config struct {
	Port             int           `yaml:"port"`              // API port probed on every stage
	Timeout          time.Duration `yaml:"timeout"`           // per-stage timeout
	Retries          int           `yaml:"retries"`           // UDP broadcast attempts
	BroadcastAddress string        `yaml:"broadcast_address"` // where UDP probes go
	LocalFirst       bool          `yaml:"local_first"`       // probe localhost before anything else
	MDNS             bool          `yaml:"mdns"`              // browse for the mDNS service
	UseCache         bool          `yaml:"use_cache"`         // consult and update the endpoint cache
	CachePath        string        `yaml:"cache_path"`        // cache file, empty means default location
	SubnetSweep      bool          `yaml:"subnet_sweep"`      // sweep the local subnet as last resort
	SweepPrefix      int           `yaml:"sweep_prefix"`      // prefix length of the sweep, clamped to [8,30]
	SweepCIDR        string        `yaml:"sweep_cidr"`        // explicit sweep network, overrides the prefix
	SweepMaxHosts    int           `yaml:"sweep_max_hosts"`   // cap on probed hosts
	SweepWorkers     int           `yaml:"sweep_workers"`     // cap on concurrent health probes
}

// DefaultConfig returns Config initialized with default values
func DefaultConfig() Config {
	return Config{
		Port:             8099,
		Timeout:          800 * time.Millisecond,
		Retries:          3,
		BroadcastAddress: "255.255.255.255",
		LocalFirst:       true,
		MDNS:             true,
		UseCache:         true,
		SubnetSweep:      true,
		SweepPrefix:      24,
		SweepMaxHosts:    254,
		SweepWorkers:     48,
	}
}

// Validate config is sane
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in (0, 65535], got %d", c.Port)
	}
	if cidr := strings.TrimSpace(c.SweepCIDR); cidr != "" {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			return fmt.Errorf("invalid sweep_cidr %q: %w", cidr, err)
		}
		if !prefix.Addr().Is4() {
			return fmt.Errorf("sweep_cidr %q must be IPv4", cidr)
		}
	}
	if c.BroadcastAddress != "" {
		if _, err := netip.ParseAddr(c.BroadcastAddress); err != nil {
			return fmt.Errorf("invalid broadcast_address %q: %w", c.BroadcastAddress, err)
		}
	}
	return nil
}

// normalize clamps the tunables into their working ranges, mirroring what
// the engine guarantees regardless of caller input.
func (c *Config) normalize() {
	if c.Timeout < 100*time.Millisecond {
		c.Timeout = 100 * time.Millisecond
	}
	if c.Retries < 1 {
		c.Retries = 1
	}
	if c.BroadcastAddress == "" {
		c.BroadcastAddress = "255.255.255.255"
	}
	if c.SweepPrefix < 8 {
		c.SweepPrefix = 8
	}
	if c.SweepPrefix > 30 {
		c.SweepPrefix = 30
	}
	if c.SweepMaxHosts < 1 {
		c.SweepMaxHosts = 1
	}
	if c.SweepWorkers < 1 {
		c.SweepWorkers = 1
	}
	c.SweepCIDR = strings.TrimSpace(c.SweepCIDR)
	if c.CachePath == "" {
		c.CachePath = DefaultCachePath()
	}
}

// ReadConfig reads config from the file, applied over defaults
func ReadConfig(path string) (Config, error) {
	c := DefaultConfig()
	cData, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(cData, &c); err != nil {
		return c, err
	}
	return c, nil
}
