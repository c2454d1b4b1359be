// Package simple contains the host allowlist applied to caller supplied listing URLs.
package simple

import (
	"net/url"
	"sort"
	"strings"
)

// Policy admits URLs whose host is on the allowlist. An empty allowlist admits every URL.
type Policy struct {
	hosts map[string]struct{}
}

// New creates a Policy for hosts. Entries are case-insensitive host names without ports;
// blank entries are ignored.
func New(hosts ...string) *Policy {
	p := &Policy{hosts: make(map[string]struct{}, len(hosts))}
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		p.hosts[h] = struct{}{}
	}
	return p
}

// AllowFetch reports whether rawURL may be fetched. With a non-empty allowlist only http(s)
// URLs on a listed host pass.
func (p *Policy) AllowFetch(rawURL string) bool {
	if p == nil || len(p.hosts) == 0 {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	_, ok := p.hosts[strings.ToLower(u.Hostname())]
	return ok
}

// Hosts returns the allowlist in sorted order.
func (p *Policy) Hosts() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.hosts))
	for h := range p.hosts {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}
