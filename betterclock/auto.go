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

	"github.com/betterclock/time/discovery"
)

// ConnectAuto discovers a server on the LAN and builds a session against
// it. The discovery configuration's port wins over the session port.
// Returns NoServerDiscoveredError when every stage comes up empty.
func ConnectAuto(ctx context.Context, cfg discovery.Config, opts ...ClientOption) (*Client, error) {
	found, err := discovery.Discover(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, &NoServerDiscoveredError{Port: cfg.Port}
	}
	local := found.IP == LocalhostIP
	opts = append([]ClientOption{WithBaseURL(found.BaseURL)}, opts...)
	return newClient(found.IP, found.Port, local, opts...)
}
