// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

import (
	"regexp"
	"strings"
)

// Device classes derived from the user agent.
const (
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
	DeviceDesktop = "Desktop"
)

// browserPatterns is checked in order; the first match wins. Order matters
// because Chrome ships "Safari" in its UA and Edge ships "Chrome".
var browserPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"Edge", regexp.MustCompile(`Edg(?:e|A|iOS)?/([\d.]+)`)},
	{"Opera", regexp.MustCompile(`OPR/([\d.]+)`)},
	{"Samsung Internet", regexp.MustCompile(`SamsungBrowser/([\d.]+)`)},
	{"Chrome", regexp.MustCompile(`(?:Chrome|CriOS)/([\d.]+)`)},
	{"Firefox", regexp.MustCompile(`(?:Firefox|FxiOS)/([\d.]+)`)},
	{"Safari", regexp.MustCompile(`Version/([\d.]+).*Safari`)},
	{"Internet Explorer", regexp.MustCompile(`(?:MSIE |rv:)([\d.]+)`)},
}

// ClassifyDevice buckets a user agent into Mobile, Tablet, or Desktop via
// substring sniffing. Tablet is checked first since tablet UAs often also
// say "Mobile".
func ClassifyDevice(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "ipad") || strings.Contains(ua, "tablet"):
		return DeviceTablet
	case strings.Contains(ua, "mobi") || strings.Contains(ua, "iphone") ||
		strings.Contains(ua, "android"):
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}

// DetectBrowser returns "Name Version" from an ordered regex match against
// the known browser list, or "Unknown" when nothing matches.
func DetectBrowser(userAgent string) string {
	for _, p := range browserPatterns {
		if m := p.re.FindStringSubmatch(userAgent); m != nil {
			return p.name + " " + m[1]
		}
	}
	return "Unknown"
}
