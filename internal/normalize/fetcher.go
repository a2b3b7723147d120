// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package normalize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/netip"
	"regexp"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"

	"slidesmith/internal/markdown"
)

const (
	// DefaultMaxChars caps the text handed to the agent.
	DefaultMaxChars = 50_000

	maxBodyBytes = 2 << 20
	truncMarker  = "\n\n[...truncated...]"
)

// ErrBlockedAddress is returned when a URL resolves to an address that is
// not publicly routable, such as loopback, private networks or cloud
// metadata endpoints.
var ErrBlockedAddress = errors.New("address is not publicly routable")

var (
	multiNewline = regexp.MustCompile(`\n{3,}`)
	multiSpace   = regexp.MustCompile(`[ \t]{2,}`)

	// Special-purpose IPv4 ranges that IsGlobalUnicast still accepts.
	reservedPrefixes = []netip.Prefix{
		netip.MustParsePrefix("0.0.0.0/8"),
		netip.MustParsePrefix("100.64.0.0/10"),
		netip.MustParsePrefix("192.0.0.0/24"),
		netip.MustParsePrefix("198.18.0.0/15"),
	}
)

// HTTPFetcher is the default Fetcher. HTML and Markdown pages are reduced to
// readable text; plain text is returned as is. Connections are only made to
// public addresses, including after redirects.
type HTTPFetcher struct {
	client       *http.Client
	maxChars     int
	allowPrivate bool
}

// NewHTTPFetcher creates a fetcher. A zero timeout defaults to 30 seconds and
// a non-positive maxChars to DefaultMaxChars.
func NewHTTPFetcher(timeout time.Duration, maxChars int) *HTTPFetcher {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	f := &HTTPFetcher{maxChars: maxChars}

	dialer := &net.Dialer{
		Timeout: 10 * time.Second,
		Control: func(_, address string, _ syscall.RawConn) error {
			if f.allowPrivate {
				return nil
			}
			return checkPublic(address)
		},
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	f.client = &http.Client{Timeout: timeout, Transport: transport}
	return f
}

// checkPublic refuses a dial to a resolved host:port that is not a public
// unicast address.
func checkPublic(address string) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	ip := ap.Addr().Unmap()
	if !ip.IsGlobalUnicast() || ip.IsPrivate() {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, ip)
	}
	for _, p := range reservedPrefixes {
		if p.Contains(ip) {
			return fmt.Errorf("%w: %s", ErrBlockedAddress, ip)
		}
	}
	return nil
}

// Fetch downloads rawURL and extracts its text.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; slidesmith/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/markdown,text/plain;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))

	var text string
	switch mediaType {
	case "text/plain":
		text = string(body)
	case "text/markdown", "text/x-markdown":
		rendered, err := markdown.ToHTML(string(body))
		if err != nil {
			return "", fmt.Errorf("convert markdown: %w", err)
		}
		if text, err = ExtractText(rendered); err != nil {
			return "", err
		}
	default:
		if text, err = ExtractText(string(body)); err != nil {
			return "", err
		}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("page has no readable text")
	}
	if len(text) > f.maxChars {
		text = truncate(text, f.maxChars) + truncMarker
	}

	slog.Debug("fetched url", "url", rawURL, "content_type", mediaType, "chars", len(text))
	return text, nil
}

// ExtractText parses an HTML document and returns its readable text.
// Scripts, styles and navigation chrome are skipped; block elements become
// paragraph breaks.
func ExtractText(doc string) (string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var sb strings.Builder
	walkText(root, &sb, 0)

	out := multiSpace.ReplaceAllString(sb.String(), " ")
	lines := strings.Split(out, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	out = strings.Join(lines, "\n")
	out = multiNewline.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out), nil
}

func walkText(n *html.Node, sb *strings.Builder, depth int) {
	if depth > 100 {
		return
	}

	switch n.Type {
	case html.TextNode:
		if t := strings.TrimSpace(n.Data); t != "" {
			sb.WriteString(t)
			sb.WriteByte(' ')
		}
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "iframe", "svg", "nav", "footer", "header", "form", "template":
			return
		case "br":
			sb.WriteByte('\n')
			return
		case "li":
			sb.WriteString("\n- ")
		case "p", "div", "section", "article", "main", "h1", "h2", "h3", "h4", "h5", "h6",
			"ul", "ol", "blockquote", "pre", "table", "tr", "title":
			sb.WriteString("\n\n")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, sb, depth+1)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "title", "h1", "h2", "h3", "h4", "h5", "h6":
			sb.WriteString("\n\n")
		}
	}
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
