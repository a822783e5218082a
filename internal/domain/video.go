package domain

import (
	"net/url"
	"strings"
)

// Site describes one tracked streaming site: which URLs count as watch pages
// and where the video identifier lives.
//
// A URL matches when its host equals one of Hosts (or is a subdomain of one),
// its path equals WatchPath, and the Param query parameter is non-empty.
type Site struct {
	// Name is a short label used in logs. Example: "youtube"
	Name string

	// Hosts are the accepted hostnames. Example: ["youtube.com", "www.youtube.com"]
	Hosts []string

	// WatchPath is the watch-page path. Example: "/watch"
	WatchPath string

	// Param is the query parameter carrying the video ID. Example: "v"
	Param string
}

// DefaultSite is the built-in tracked site used when no sites file is configured.
func DefaultSite() Site {
	return Site{
		Name:      "youtube",
		Hosts:     []string{"youtube.com"},
		WatchPath: "/watch",
		Param:     "v",
	}
}

// VideoIDFromURL extracts the video ID from a raw watch-page URL.
// It returns "" when the URL is not a watch page of this site; absence of a
// match means "no active video", never an error.
func (s Site) VideoIDFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if !s.matchesHost(u.Hostname()) {
		return ""
	}
	if u.Path != s.WatchPath {
		return ""
	}
	return u.Query().Get(s.Param)
}

// IsWatchPage reports whether the URL is a watch page carrying a video ID.
func (s Site) IsWatchPage(rawURL string) bool {
	return s.VideoIDFromURL(rawURL) != ""
}

func (s Site) matchesHost(host string) bool {
	host = strings.ToLower(host)
	for _, h := range s.Hosts {
		h = strings.ToLower(h)
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
