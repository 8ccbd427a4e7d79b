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

	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "discovery_cache.json")
	saved := &Result{
		BaseURL: "http://192.168.1.50:8099",
		IP:      "192.168.1.50",
		Port:    8099,
		Service: ServiceName,
		Version: 2,
		Via:     ViaUDPBroadcast,
	}
	SaveCachedDiscovery(saved, path)

	loaded := LoadCachedDiscovery(path)
	require.NotNil(t, loaded)
	require.Equal(t, saved, loaded)
}

func TestCacheLoadMissing(t *testing.T) {
	require.Nil(t, LoadCachedDiscovery(filepath.Join(t.TempDir(), "nope.json")))
}

func TestCacheLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discovery_cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))
	require.Nil(t, LoadCachedDiscovery(path))
}

func TestCacheLoadIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discovery_cache.json")

	// Missing IP.
	require.NoError(t, os.WriteFile(path, []byte(`{"base_url":"http://x:1","port":1}`), 0o644))
	require.Nil(t, LoadCachedDiscovery(path))

	// Missing port.
	require.NoError(t, os.WriteFile(path, []byte(`{"base_url":"http://x:1","ip":"10.0.0.1"}`), 0o644))
	require.Nil(t, LoadCachedDiscovery(path))
}

func TestCacheLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discovery_cache.json")
	entry := `{"base_url":"http://10.0.0.5:8099/","ip":"10.0.0.5","port":8099}`
	require.NoError(t, os.WriteFile(path, []byte(entry), 0o644))

	loaded := LoadCachedDiscovery(path)
	require.NotNil(t, loaded)
	require.Equal(t, "http://10.0.0.5:8099", loaded.BaseURL)
	require.Equal(t, ServiceName, loaded.Service)
	require.Equal(t, 1, loaded.Version)
	require.Equal(t, "cache", loaded.Via)
}

func TestSaveCachedDiscoveryNoop(t *testing.T) {
	// Nil results and empty paths are silently ignored.
	SaveCachedDiscovery(nil, filepath.Join(t.TempDir(), "x.json"))
	SaveCachedDiscovery(&Result{}, "")
}

func TestDefaultCachePath(t *testing.T) {
	path := DefaultCachePath()
	require.Contains(t, path, CacheDirName)
	require.Contains(t, path, CacheFileName)
}
