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

// RuntimeSnapshot mirrors the server-side runtime payload: the current
// display time plus warning/bell state.
type RuntimeSnapshot struct {
	ISOLocal           string `json:"iso_local"`
	Hour               int    `json:"hour"`
	Minute             int    `json:"minute"`
	Second             int    `json:"second"`
	SourceLabel        string `json:"source_label"`
	WarningEnabled     bool   `json:"warning_enabled"`
	WarningActiveCount int    `json:"warning_active_count"`
	WarningPulseOn     bool   `json:"warning_pulse_on"`
	WarningLeadTimeMs  int64  `json:"warning_lead_time_ms"`
	WarningPulseTimeMs int64  `json:"warning_pulse_time_ms"`
	TriggeredCount     int    `json:"triggered_count"`
	ArmedCount         int    `json:"armed_count"`
	UpdatedUnixMs      int64  `json:"updated_unix_ms"`
}

// StateResponse is the /v1/state payload: runtime snapshot, session
// counters, and the server-side timestamps of the exchange.
type StateResponse struct {
	Runtime               RuntimeSnapshot `json:"runtime"`
	ClientsSeen           int             `json:"clients_seen"`
	TotalRequests         int64           `json:"total_requests"`
	TotalInBytes          int64           `json:"total_in_bytes"`
	TotalOutBytes         int64           `json:"total_out_bytes"`
	SessionInBytesPerSec  float64         `json:"session_in_bytes_per_sec"`
	SessionOutBytesPerSec float64         `json:"session_out_bytes_per_sec"`
	ServerStartedUnixMs   int64           `json:"server_started_unix_ms"`
	SessionFirstInUnixMs  int64           `json:"session_first_in_unix_ms"`
	SessionLastInUnixMs   int64           `json:"session_last_in_unix_ms"`
	SessionLastOutUnixMs  int64           `json:"session_last_out_unix_ms"`
	ClientDebugMode       bool            `json:"client_debug_mode"`
	RequestReceivedUnixMs int64           `json:"request_received_unix_ms"`
	ResponseUnixMs        int64           `json:"response_unix_ms"`
	ResponseSendUnixMs    int64           `json:"response_send_unix_ms"`
	ServerProcessingMs    int64           `json:"server_processing_ms"`
	ResponseISOLocal      string          `json:"response_iso_local"`
}

// PublicClient is one entry of the /v1/clients listing.
type PublicClient struct {
	ID              string   `json:"id"`
	InstanceID      string   `json:"instance_id"`
	DebugMode       bool     `json:"debug_mode"`
	IP              string   `json:"ip"`
	RequestCount    int64    `json:"request_count"`
	FirstSeenUnixMs int64    `json:"first_seen_unix_ms"`
	LastSeenUnixMs  int64    `json:"last_seen_unix_ms"`
	LastRTTMs       *float64 `json:"last_rtt_ms"`
	LastOffsetMs    *float64 `json:"last_offset_ms"`
	LastDesyncMs    *float64 `json:"last_desync_ms"`
	FirstInUnixMs   int64    `json:"first_in_unix_ms"`
	LastInUnixMs    int64    `json:"last_in_unix_ms"`
	LastOutUnixMs   int64    `json:"last_out_unix_ms"`
	LastInBytes     int64    `json:"last_in_bytes"`
	LastOutBytes    int64    `json:"last_out_bytes"`
	TotalInBytes    int64    `json:"total_in_bytes"`
	TotalOutBytes   int64    `json:"total_out_bytes"`
	InBytesPerSec   float64  `json:"in_bytes_per_sec"`
	OutBytesPerSec  float64  `json:"out_bytes_per_sec"`
}

// ClientsResponse is the /v1/clients payload.
type ClientsResponse struct {
	Count   int            `json:"count"`
	Clients []PublicClient `json:"clients"`
}

// APIIndexResponse is the /v1 payload listing the server endpoints.
type APIIndexResponse struct {
	APIBase        string `json:"api_base"`
	StateURL       string `json:"state_url"`
	ClientsURL     string `json:"clients_url"`
	HealthURL      string `json:"health_url"`
	RuntimeCodeURL string `json:"runtime_code_url"`
	DisconnectURL  string `json:"disconnect_url"`
	DebugURL       string `json:"debug_url"`
	OpenAPIURL     string `json:"openapi_url"`
}

// DisconnectResponse is the /v1/client/disconnect payload.
type DisconnectResponse struct {
	Disconnected bool   `json:"disconnected"`
	ClientID     string `json:"client_id"`
	InstanceID   string `json:"instance_id"`
}

// CorrectedTimeSnapshot is the result of one corrected-time poll.
type CorrectedTimeSnapshot struct {
	CorrectedUnixMs   int64          `json:"corrected_unix_ms"`
	CorrectedISOLocal string         `json:"corrected_iso_local"`
	Time12h           string         `json:"time_12h"`
	DateText          string         `json:"date_text"`
	RTTMs             float64        `json:"rtt_ms"`
	OffsetMs          float64        `json:"offset_ms"`
	DesyncMs          float64        `json:"desync_ms"`
	State             *StateResponse `json:"state"`
}

// ConnectionInfo describes the endpoint a session talks to.
type ConnectionInfo struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	BaseURL      string `json:"base_url"`
	Local        bool   `json:"local"`
	ConnectionIP string `json:"connection_ip"`
}

// DeviceIPInfo describes the addresses of the machine running the client.
type DeviceIPInfo struct {
	Hostname        string `json:"hostname"`
	LoopbackIP      string `json:"loopback_ip"`
	ResolvedLocalIP string `json:"resolved_local_ip"`
	LANIP           string `json:"lan_ip"`
	PublicIP        string `json:"public_ip"`
}
