// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package sharing

import (
	"strings"

	"slidesmith/internal/models"
)

var botMarkers = []string{
	"bot", "crawler", "spider", "slurp", "facebookexternalhit", "embedly",
	"preview", "curl/", "wget/", "python-requests", "go-http-client", "headless",
}

var tabletMarkers = []string{"ipad", "tablet", "kindle", "silk/", "playbook"}

var mobileMarkers = []string{"mobi", "iphone", "ipod", "windows phone", "blackberry", "opera mini"}

// DeviceClass classifies a User-Agent header. An empty agent counts as a bot.
// Android without "mobile" is a tablet.
func DeviceClass(userAgent string) models.Device {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	switch {
	case ua == "", containsAny(ua, botMarkers):
		return models.DeviceBot
	case containsAny(ua, tabletMarkers):
		return models.DeviceTablet
	case strings.Contains(ua, "android") && !strings.Contains(ua, "mobile"):
		return models.DeviceTablet
	case containsAny(ua, mobileMarkers), strings.Contains(ua, "android"):
		return models.DeviceMobile
	}
	return models.DeviceDesktop
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
