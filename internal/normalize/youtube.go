// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package normalize

import (
	"net/url"
	"regexp"
	"strings"
)

// youTubeID matches the supported link shapes. The id is exactly 11
// characters and must not be followed by another id character.
var youTubeID = regexp.MustCompile(
	`(?:youtube\.com/watch\?(?:[^#]*&)?v=|youtu\.be/|youtube(?:-nocookie)?\.com/embed/|youtube\.com/v/)([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`,
)

// ExtractYouTubeID returns the video id in s, or false when s is not a
// supported YouTube link.
func ExtractYouTubeID(s string) (string, bool) {
	if !IsYouTubeURL(s) {
		return "", false
	}
	m := youTubeID.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsYouTubeURL reports whether s points at a YouTube host, with or without
// a usable id. Only the host is compared, so lookalike domains and YouTube
// links embedded in another site's query string do not count.
func IsYouTubeURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	switch {
	case host == "youtu.be", host == "youtube.com", host == "youtube-nocookie.com":
		return true
	case strings.HasSuffix(host, ".youtube.com"), strings.HasSuffix(host, ".youtube-nocookie.com"):
		return true
	}
	return false
}
