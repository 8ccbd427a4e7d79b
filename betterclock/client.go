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
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/betterclock/time/netinfo"
)

// Client is a session against one BetterClock server. A Client is meant
// for a single owner: callers drive polling and must serialize concurrent
// use externally.
type Client struct {
	baseURL        string
	connectionHost string
	connectionPort int
	local          bool

	clientID     string
	instanceID   string
	disconnected bool

	timeout   time.Duration
	clock     clockwork.Clock
	stats     *Stats
	transport *transport
	model     *offsetModel

	stateURL       string
	clientsURL     string
	indexURL       string
	healthURL      string
	runtimeCodeURL string
	disconnectURL  string
	debugURL       string
	openAPIURL     string
}

type options struct {
	clientID   string
	instanceID string
	baseURL    string
	https      bool
	timeout    time.Duration
	httpClient *http.Client
	clock      clockwork.Clock
}

// ClientOption customizes session construction.
type ClientOption func(*options)

// WithClientID sets the caller-chosen client identity.
func WithClientID(name string) ClientOption {
	return func(o *options) { o.clientID = name }
}

// WithInstanceID pins the per-session instance ID instead of generating one.
func WithInstanceID(id string) ClientOption {
	return func(o *options) { o.instanceID = id }
}

// WithTimeout sets the per-request timeout (floor 100ms).
func WithTimeout(d time.Duration) ClientOption {
	return func(o *options) { o.timeout = d }
}

// WithHTTPS switches the base URL scheme to https.
func WithHTTPS() ClientOption {
	return func(o *options) { o.https = true }
}

// WithBaseURL overrides host/port with a full base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(o *options) { o.baseURL = baseURL }
}

// WithHTTPClient supplies a custom http.Client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(o *options) { o.httpClient = c }
}

// WithClock supplies the time source, used by tests.
func WithClock(c clockwork.Clock) ClientOption {
	return func(o *options) { o.clock = c }
}

// Connect builds a session with an explicit endpoint, no discovery.
// An empty host means localhost.
func Connect(host string, port int, opts ...ClientOption) (*Client, error) {
	return newClient(host, port, false, opts...)
}

// ConnectLocal is a shortcut for a session against 127.0.0.1.
func ConnectLocal(port int, opts ...ClientOption) (*Client, error) {
	return newClient(LocalhostIP, port, true, opts...)
}

func newClient(host string, port int, local bool, opts ...ClientOption) (*Client, error) {
	o := &options{
		clientID: DefaultClientID,
		timeout:  time.Second,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(o)
	}

	baseURL := o.baseURL
	if baseURL == "" {
		resolvedHost := host
		if local || resolvedHost == "" {
			resolvedHost = LocalhostIP
		}
		baseURL = BaseURL(resolvedHost, port, o.https)
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: bad base URL %q: %v", ErrInvalidArgument, baseURL, err)
	}
	connectionHost := parsed.Hostname()
	if connectionHost == "" {
		return nil, fmt.Errorf("%w: base URL %q has no host", ErrInvalidArgument, baseURL)
	}
	connectionPort := port
	if p := parsed.Port(); p != "" {
		if connectionPort, err = strconv.Atoi(p); err != nil {
			return nil, fmt.Errorf("%w: bad port in base URL %q", ErrInvalidArgument, baseURL)
		}
	}

	if o.timeout < 100*time.Millisecond {
		o.timeout = 100 * time.Millisecond
	}
	clientID := strings.TrimSpace(o.clientID)
	if clientID == "" {
		clientID = DefaultClientID
	}
	instanceID := o.instanceID
	if instanceID == "" {
		instanceID = newInstanceID()
	}

	stats := NewStats()
	c := &Client{
		baseURL:        baseURL,
		connectionHost: connectionHost,
		connectionPort: connectionPort,
		local:          local,
		clientID:       clientID,
		instanceID:     instanceID,
		timeout:        o.timeout,
		clock:          o.clock,
		stats:          stats,
		transport:      newTransport(o.httpClient, o.timeout, stats),
		model:          newOffsetModel(o.clock),

		stateURL:       baseURL + "/v1/state",
		clientsURL:     baseURL + "/v1/clients",
		indexURL:       baseURL + "/v1",
		healthURL:      baseURL + "/healthz",
		runtimeCodeURL: baseURL + "/v1/client/code",
		disconnectURL:  baseURL + "/v1/client/disconnect",
		debugURL:       baseURL + "/debug",
		openAPIURL:     baseURL + "/openapi.yaml",
	}
	log.Debugf("session %s/%s connected to %s", c.clientID, c.instanceID, c.baseURL)
	return c, nil
}

func newInstanceID() string {
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("go-%010x", time.Now().UnixNano()&0xffffffffff)
	}
	return "go-" + hex.EncodeToString(b)
}

func (c *Client) get(ctx context.Context, rawURL, accept string, identity bool, query url.Values) (*exchange, error) {
	if c.disconnected {
		return nil, ErrSessionClosed
	}
	fullURL := rawURL
	if len(query) > 0 {
		separator := "?"
		if strings.Contains(fullURL, "?") {
			separator = "&"
		}
		fullURL += separator + query.Encode()
	}

	headers := map[string]string{"Accept": accept}
	if identity {
		headers["X-Client-Id"] = c.clientID
		headers["X-Client-Instance"] = c.instanceID
		if c.model.initialized {
			headers["X-Client-Rtt-Ms"] = strconv.FormatFloat(c.model.rttEWMAMs, 'f', 3, 64)
			headers["X-Client-Offset-Ms"] = strconv.FormatFloat(c.model.displayMs, 'f', 3, 64)
			headers["X-Client-Desync-Ms"] = strconv.FormatFloat(c.model.desyncMs, 'f', 3, 64)
		}
	}
	return c.transport.get(ctx, fullURL, headers)
}

func (c *Client) identityQuery() url.Values {
	return url.Values{
		"client_id":   []string{c.clientID},
		"instance_id": []string{c.instanceID},
	}
}

// GetState fetches /v1/state once. It does not touch the offset model.
func (c *Client) GetState(ctx context.Context) (*StateResponse, error) {
	ex, err := c.get(ctx, c.stateURL, "application/json", true, c.identityQuery())
	if err != nil {
		return nil, err
	}
	state := &StateResponse{}
	if err := json.Unmarshal(ex.body, state); err != nil {
		return nil, &ParseError{URL: c.stateURL, Err: err}
	}
	return state, nil
}

// GetCorrectedTime fetches /v1/state, feeds the exchange into the offset
// model and returns the corrected wall-clock snapshot.
func (c *Client) GetCorrectedTime(ctx context.Context) (*CorrectedTimeSnapshot, error) {
	ex, err := c.get(ctx, c.stateURL, "application/json", true, c.identityQuery())
	if err != nil {
		return nil, err
	}
	state := &StateResponse{}
	if err := json.Unmarshal(ex.body, state); err != nil {
		return nil, &ParseError{URL: c.stateURL, Err: err}
	}

	rttMs, offsetMs := computeNetworkSample(state, ex.rttWallMs, ex.t1, ex.t4)
	c.model.update(rttMs, offsetMs)

	correctedUnixMs := c.clock.Now().UnixMilli() + int64(c.model.displayMs)
	corrected := time.UnixMilli(correctedUnixMs)
	log.Debugf("poll rtt=%.3fms offset=%.3fms display=%.3fms desync=%.3fms",
		rttMs, offsetMs, c.model.displayMs, c.model.desyncMs)

	return &CorrectedTimeSnapshot{
		CorrectedUnixMs:   correctedUnixMs,
		CorrectedISOLocal: formatISOLocalMs(corrected),
		Time12h:           formatTime12h(corrected),
		DateText:          formatDateText(corrected),
		RTTMs:             c.model.rttEWMAMs,
		OffsetMs:          c.model.displayMs,
		DesyncMs:          c.model.desyncMs,
		State:             state,
	}, nil
}

// GetClients fetches the /v1/clients listing.
func (c *Client) GetClients(ctx context.Context) (*ClientsResponse, error) {
	ex, err := c.get(ctx, c.clientsURL, "application/json", true, c.identityQuery())
	if err != nil {
		return nil, err
	}
	clients := &ClientsResponse{}
	if err := json.Unmarshal(ex.body, clients); err != nil {
		return nil, &ParseError{URL: c.clientsURL, Err: err}
	}
	return clients, nil
}

// GetAPIIndex fetches the /v1 endpoint index.
func (c *Client) GetAPIIndex(ctx context.Context) (*APIIndexResponse, error) {
	ex, err := c.get(ctx, c.indexURL, "application/json", true, nil)
	if err != nil {
		return nil, err
	}
	index := &APIIndexResponse{}
	if err := json.Unmarshal(ex.body, index); err != nil {
		return nil, &ParseError{URL: c.indexURL, Err: err}
	}
	return index, nil
}

// Healthz reports whether the server answers its health check with "ok".
func (c *Client) Healthz(ctx context.Context) (bool, error) {
	ex, err := c.get(ctx, c.healthURL, "text/plain", false, nil)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(string(ex.body)), "ok"), nil
}

// GetRuntimeCode fetches the runtime source the server serves to clients.
func (c *Client) GetRuntimeCode(ctx context.Context) (string, error) {
	ex, err := c.get(ctx, c.runtimeCodeURL, "text/x-python", true, nil)
	if err != nil {
		return "", err
	}
	return string(ex.body), nil
}

// GetOpenAPIYAML fetches the server's OpenAPI document.
func (c *Client) GetOpenAPIYAML(ctx context.Context) (string, error) {
	ex, err := c.get(ctx, c.openAPIURL, "application/yaml, text/yaml", true, nil)
	if err != nil {
		return "", err
	}
	return string(ex.body), nil
}

// GetDebugHTML fetches the server debug page.
func (c *Client) GetDebugHTML(ctx context.Context) (string, error) {
	ex, err := c.get(ctx, c.debugURL, "text/html", true, nil)
	if err != nil {
		return "", err
	}
	return string(ex.body), nil
}

// Disconnect asks the server to drop this session. On success the session
// rejects further requests until Reconnect is called.
func (c *Client) Disconnect(ctx context.Context) (*DisconnectResponse, error) {
	ex, err := c.get(ctx, c.disconnectURL, "application/json", true, c.identityQuery())
	if err != nil {
		return nil, err
	}
	resp := &DisconnectResponse{}
	if err := json.Unmarshal(ex.body, resp); err != nil {
		return nil, &ParseError{URL: c.disconnectURL, Err: err}
	}
	c.disconnected = resp.Disconnected
	if c.disconnected {
		log.Debugf("session %s/%s disconnected", c.clientID, c.instanceID)
	}
	return resp, nil
}

// Reconnect clears the disconnect flag and the offset state. With
// newInstance the session also rolls its instance ID.
func (c *Client) Reconnect(newInstance bool) {
	if newInstance {
		c.instanceID = newInstanceID()
	}
	c.disconnected = false
	c.model.reset()
}

// SetClientID replaces the session identity mid-flight.
func (c *Client) SetClientID(name string) error {
	cleaned := strings.TrimSpace(name)
	if cleaned == "" {
		return fmt.Errorf("%w: client name cannot be empty", ErrInvalidArgument)
	}
	c.clientID = cleaned
	return nil
}

// ClientID returns the current caller-chosen identity.
func (c *Client) ClientID() string {
	return c.clientID
}

// InstanceID returns the per-session instance identity.
func (c *Client) InstanceID() string {
	return c.instanceID
}

// BaseURL returns the server base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Disconnected reports whether the session was closed server-side.
func (c *Client) Disconnected() bool {
	return c.disconnected
}

// OffsetInitialized reports whether the model has seen a first sample.
func (c *Client) OffsetInitialized() bool {
	return c.model.initialized
}

// SampleCount returns how many latency samples the window holds.
func (c *Client) SampleCount() int {
	return c.model.window.len()
}

// Counters returns a copy of the session counters.
func (c *Client) Counters() map[string]int64 {
	return c.stats.GetCounters()
}

// GetConnectionIP returns the IP the configured host resolves to,
// "" when resolution fails.
func (c *Client) GetConnectionIP() string {
	if netinfo.IsValidIP(c.connectionHost) {
		return c.connectionHost
	}
	return netinfo.ResolveHostnameIP(c.connectionHost)
}

// GetConnectionInfo describes the endpoint this session talks to.
func (c *Client) GetConnectionInfo() ConnectionInfo {
	return ConnectionInfo{
		Host:         c.connectionHost,
		Port:         c.connectionPort,
		BaseURL:      c.baseURL,
		Local:        c.local,
		ConnectionIP: c.GetConnectionIP(),
	}
}

// GetPublicIP asks the public-IP services for our address, "" when none
// answer. Failures are never errors here.
func (c *Client) GetPublicIP(ctx context.Context) string {
	return netinfo.LookupPublicIP(ctx, c.timeout)
}

// GetDeviceIPInfo collects hostname, LAN, loopback and optionally public
// addresses of this machine. The lookups are independent and run
// concurrently.
func (c *Client) GetDeviceIPInfo(ctx context.Context, includePublicIP bool) DeviceIPInfo {
	info := DeviceIPInfo{LoopbackIP: LocalhostIP}
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		hostname, err := os.Hostname()
		if err != nil {
			log.Debugf("hostname lookup failed: %v", err)
			return nil
		}
		info.Hostname = hostname
		info.ResolvedLocalIP = netinfo.ResolveHostnameIP(hostname)
		return nil
	})
	eg.Go(func() error {
		info.LANIP = netinfo.DetectLANIP()
		return nil
	})
	if includePublicIP {
		eg.Go(func() error {
			info.PublicIP = netinfo.LookupPublicIP(gctx, c.timeout)
			return nil
		})
	}
	_ = eg.Wait()
	return info
}
