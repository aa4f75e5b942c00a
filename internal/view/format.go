// v0
// internal/view/format.go
package view

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatNumber renders v with Indian digit grouping (12,34,567.5) and at
// most three fraction digits.
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	if s == "0" {
		sign = ""
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString(sign)
	if len(intPart) <= 3 {
		b.WriteString(intPart)
	} else {
		head, tail := intPart[:len(intPart)-3], intPart[len(intPart)-3:]
		first := len(head) % 2
		if first > 0 {
			b.WriteString(head[:first])
		}
		for i := first; i < len(head); i += 2 {
			if b.Len() > len(sign) {
				b.WriteByte(',')
			}
			b.WriteString(head[i : i+2])
		}
		b.WriteByte(',')
		b.WriteString(tail)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

// plain prints a reading the way it arrived: 38, 31.5.
func plain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Clock formats t as HH:MM:SS.
func Clock(t time.Time) string { return t.Format("15:04:05") }

// Date formats t as "1 May 2024".
func Date(t time.Time) string { return t.Format("2 Jan 2006") }

// Uptime formats an elapsed duration as HH:MM:SS; hours may exceed 99.
func Uptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// TimeAgo renders the distance between then and now in the largest whole
// unit: "3 minutes ago", "1 day ago", "Just now".
func TimeAgo(now, then time.Time) string {
	diff := now.Sub(then)
	days := int(diff / (24 * time.Hour))
	hours := int(diff / time.Hour)
	minutes := int(diff / time.Minute)
	switch {
	case days > 0:
		return plural(days, "day")
	case hours > 0:
		return plural(hours, "hour")
	case minutes > 0:
		return plural(minutes, "minute")
	default:
		return "Just now"
	}
}

func plural(n int, unit string) string {
	if n > 1 {
		return fmt.Sprintf("%d %ss ago", n, unit)
	}
	return fmt.Sprintf("%d %s ago", n, unit)
}
