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
	"fmt"
	"time"
)

var byteUnits = [...]string{"B", "KB", "MB", "GB", "TB", "PB"}

// FormatBytesAuto renders a byte count with a 1024-based unit,
// e.g. 1536 -> "1.50 KB".
func FormatBytesAuto(value float64) string {
	size := value
	if size < 0 {
		size = 0
	}
	unit := 0
	for size >= 1024.0 && unit < len(byteUnits)-1 {
		size /= 1024.0
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%d %s", int64(size), byteUnits[unit])
	}
	return fmt.Sprintf("%.2f %s", size, byteUnits[unit])
}

// FormatUnixMsLocal renders a unix-ms timestamp in local time with
// millisecond precision, or "--" for zero.
func FormatUnixMsLocal(unixMs int64) string {
	if unixMs == 0 {
		return "--"
	}
	return time.UnixMilli(unixMs).Format("2006-01-02 15:04:05.000")
}

// formatISOLocalMs renders local time the way the server does,
// ISO-8601 with millisecond precision and no zone suffix.
func formatISOLocalMs(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000")
}

// formatTime12h renders a 12-hour clock with AM/PM; hour 0 becomes 12.
func formatTime12h(t time.Time) string {
	hour12 := t.Hour() % 12
	if hour12 == 0 {
		hour12 = 12
	}
	meridiem := "AM"
	if t.Hour() >= 12 {
		meridiem = "PM"
	}
	return fmt.Sprintf("%02d:%02d:%02d %s", hour12, t.Minute(), t.Second(), meridiem)
}

// formatDateText renders "Weekday, Month DD YYYY".
func formatDateText(t time.Time) string {
	return t.Format("Monday, January 02 2006")
}
