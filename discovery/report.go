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
	"strings"
)

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// FormatScanReport renders a report the way operators read it: one line
// per stage with status and timing, then the selection and cache path.
func FormatScanReport(report *Report) string {
	cidr := report.Config.SweepCIDR
	if cidr == "" {
		cidr = "-"
	}
	lines := []string{
		"BetterClock Discovery Scan Report",
		fmt.Sprintf(
			"elapsed=%dms retries=%d timeout=%.2fs cache=%s mdns=%s local-first=%s sweep=%s prefix=/%d cidr=%s hosts=%d workers=%d",
			report.ElapsedMs,
			report.Config.Retries,
			report.Config.Timeout.Seconds(),
			onOff(report.Config.UseCache),
			onOff(report.Config.MDNS),
			onOff(report.Config.LocalFirst),
			onOff(report.Config.SubnetSweep),
			report.Config.SweepPrefix,
			cidr,
			report.Config.SweepMaxHosts,
			report.Config.SweepWorkers,
		),
	}
	for _, step := range report.Steps {
		line := fmt.Sprintf("- %-13s %-7s %4dms | %s", step.Step, strings.ToUpper(step.Status), step.ElapsedMs, step.Message)
		if step.BaseURL != "" {
			line += " | " + step.BaseURL
		}
		lines = append(lines, line)
	}
	if report.Selected == nil {
		lines = append(lines, "Selected: none")
	} else {
		lines = append(lines, fmt.Sprintf(
			"Selected: %s via %s (ip=%s, port=%d)",
			report.Selected.BaseURL, report.Selected.Via, report.Selected.IP, report.Selected.Port,
		))
	}
	lines = append(lines, "Cache path: "+report.CachePath)
	return strings.Join(lines, "\n")
}
