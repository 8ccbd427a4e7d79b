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
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Cache file location under the user home directory.
const (
	CacheDirName  = ".betterclock_time"
	CacheFileName = "discovery_cache.json"
)

// DefaultCachePath returns <home>/.betterclock_time/discovery_cache.json.
func DefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, CacheDirName, CacheFileName)
}

type cachedDiscovery struct {
	BaseURL       string `json:"base_url"`
	IP            string `json:"ip"`
	Port          int    `json:"port"`
	Service       string `json:"service"`
	Version       *int   `json:"version"`
	Via           string `json:"via"`
	UpdatedUnixMs int64  `json:"updated_unix_ms"`
}

// LoadCachedDiscovery reads the last-known endpoint from the cache file.
// Any failure, parse or otherwise, means "no cache" and returns nil.
func LoadCachedDiscovery(path string) *Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	cached := cachedDiscovery{}
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil
	}
	baseURL := strings.TrimSpace(cached.BaseURL)
	ip := strings.TrimSpace(cached.IP)
	if baseURL == "" || ip == "" || cached.Port <= 0 {
		return nil
	}
	service := cached.Service
	if service == "" {
		service = ServiceName
	}
	version := 1
	if cached.Version != nil {
		version = *cached.Version
	}
	via := cached.Via
	if via == "" {
		via = "cache"
	}
	return &Result{
		BaseURL: strings.TrimRight(baseURL, "/"),
		IP:      ip,
		Port:    cached.Port,
		Service: service,
		Version: version,
		Via:     via,
	}
}

// SaveCachedDiscovery writes the endpoint to the cache file, best-effort.
// The cache is an optimization; failures must never break connectivity,
// so they are only logged at debug level.
func SaveCachedDiscovery(result *Result, path string) {
	if result == nil || path == "" {
		return
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Debugf("cache dir %s: %v", dir, err)
			return
		}
	}
	payload := cachedDiscovery{
		BaseURL:       result.BaseURL,
		IP:            result.IP,
		Port:          result.Port,
		Service:       result.Service,
		Version:       &result.Version,
		Via:           result.Via,
		UpdatedUnixMs: time.Now().UnixMilli(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Debugf("cache marshal: %v", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Debugf("cache write %s: %v", path, err)
	}
}
