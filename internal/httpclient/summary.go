package httpclient

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var byteUnits = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// HumanBytes formats n with decimal (1000-based) steps, one decimal place
// and a trailing ".0" removed: 1500 is "1.5 KB", 1000000 is "1 MB".
func HumanBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	// integer steps stand in for floor(log10(n)/3), which drifts at exact powers
	mag := 0
	for v := n; v >= 1000 && mag < len(byteUnits)-1; v /= 1000 {
		mag++
	}
	scaled := float64(n) / math.Pow(1000, float64(mag))
	num := strconv.FormatFloat(scaled, 'f', 1, 64)
	num = strings.TrimSuffix(num, ".0")
	return num + " " + byteUnits[mag]
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d >= time.Millisecond {
		return d.Round(10 * time.Microsecond).String()
	}
	return d.String()
}

// StatusLine renders the one-line result shown under a window's editors.
func (s *Summary) StatusLine() string {
	if s == nil {
		return ""
	}
	status := s.Status
	if status == "" {
		status = strconv.Itoa(s.StatusCode)
	}
	return fmt.Sprintf(
		"STATUS=%s | BYTES=%s | RTT=%s | LAT=%s",
		status,
		HumanBytes(s.Bytes),
		formatDuration(s.RTT),
		formatDuration(s.Latency),
	)
}
