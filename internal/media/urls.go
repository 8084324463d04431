package media

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Route prefixes shared by the handler and the URLs the service hands out.
const (
	originalPrefix  = "/images/"
	thumbnailPrefix = "/images/thumbnails/"
	redeemPath      = "/expiring-data/images/"
)

// errBadResource is returned when a signed URL does not name an image route.
var errBadResource = errors.New("url does not address an image")

// Links builds absolute URLs under a base such as "https://img.example.com".
type Links struct {
	base string
}

// NewLinks returns a builder rooted at base.
func NewLinks(base string) Links {
	return Links{base: strings.TrimRight(base, "/")}
}

// RequestBase returns the scheme and host the request arrived on. The
// X-Forwarded-Proto header is honoured only when trustForwarded is set, and
// only for the values http and https.
func RequestBase(r *http.Request, trustForwarded bool) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if trustForwarded {
		switch fwd := strings.ToLower(r.Header.Get("X-Forwarded-Proto")); fwd {
		case "http", "https":
			scheme = fwd
		}
	}
	return scheme + "://" + r.Host
}

// escapeSegment escapes name for use as one path segment, leaving the
// characters Go's own path encoding leaves alone (such as ',' and ';').
func escapeSegment(name string) string {
	return (&url.URL{Path: name}).EscapedPath()
}

// Original returns the URL of an original image.
func (l Links) Original(name string) string {
	return l.base + originalPrefix + escapeSegment(name)
}

// Thumbnail returns the URL of a thumbnail at height.
func (l Links) Thumbnail(name string, height int) string {
	return l.base + thumbnailPrefix + escapeSegment(name) + "/" + strconv.Itoa(height)
}

// Redeem returns the URL at which a signed token is redeemed.
func (l Links) Redeem(token string) string {
	return l.base + redeemPath + "?signature=" + url.QueryEscape(token)
}

// resource is an image request recovered from a URL.
type resource struct {
	Name   string
	Height int // zero for originals
}

// parseResource maps an original or thumbnail URL back to the image it
// addresses. The host and any path prefix before /images/ are ignored.
func parseResource(raw string) (resource, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return resource{}, errBadResource
	}
	p := u.Path
	i := strings.LastIndex(p, originalPrefix)
	if i < 0 {
		return resource{}, errBadResource
	}
	rest := p[i+len(originalPrefix):]

	if strings.HasPrefix(rest, "thumbnails/") {
		parts := strings.Split(strings.TrimPrefix(rest, "thumbnails/"), "/")
		if len(parts) != 2 || parts[0] == "" {
			return resource{}, errBadResource
		}
		h, err := strconv.Atoi(parts[1])
		if err != nil || h <= 0 {
			return resource{}, errBadResource
		}
		return resource{Name: parts[0], Height: h}, nil
	}

	if rest == "" || strings.Contains(rest, "/") {
		return resource{}, errBadResource
	}
	return resource{Name: rest}, nil
}
