package fetch

import (
	"bufio"
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// robotRule is a single Allow/Disallow line. Longest matching prefix wins;
// on equal length Allow wins.
type robotRule struct {
	path  string
	allow bool
}

// robotRules holds the parsed rules that apply to us for one host.
type robotRules struct {
	rules []robotRule
}

// allowAll is cached for hosts whose robots.txt is missing or unreadable.
var allowAll = &robotRules{}

func (r *robotRules) allowed(path string) bool {
	if path == "" {
		path = "/"
	}
	best := robotRule{allow: true}
	for _, rule := range r.rules {
		if !strings.HasPrefix(path, rule.path) {
			continue
		}
		if len(rule.path) > len(best.path) || (len(rule.path) == len(best.path) && rule.allow) {
			best = rule
		}
	}
	return best.allow
}

// robotsCache fetches and caches crawl permissions once per host for the
// lifetime of a run. A failed fetch caches allow-all rather than blocking
// the host outright.
type robotsCache struct {
	client *Client

	mu     sync.Mutex
	byHost map[string]*robotRules
}

func newRobotsCache(c *Client) *robotsCache {
	return &robotsCache{
		client: c,
		byHost: make(map[string]*robotRules),
	}
}

// Allowed reports whether u may be fetched. The robots.txt probe itself
// goes through the per-host limiter but never retries.
func (rc *robotsCache) Allowed(ctx context.Context, u *url.URL) bool {
	rc.mu.Lock()
	rules, ok := rc.byHost[u.Host]
	rc.mu.Unlock()
	if !ok {
		rules = rc.fetch(ctx, u)
		rc.mu.Lock()
		rc.byHost[u.Host] = rules
		rc.mu.Unlock()
	}
	return rules.allowed(u.Path)
}

func (rc *robotsCache) fetch(ctx context.Context, u *url.URL) *robotRules {
	target := u.Scheme + "://" + u.Host + "/robots.txt"
	if err := rc.client.limiters.wait(ctx, u.Host); err != nil {
		return allowAll
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return allowAll
	}
	req.Header.Set("User-Agent", rc.client.userAgent())

	resp, err := rc.client.http.Do(req)
	if err != nil {
		zap.L().Debug("robots probe failed", zap.String("host", u.Host), zap.Error(err))
		return allowAll
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return allowAll
	}
	return parseRobots(resp)
}

// parseRobots reads the groups that apply to the wildcard agent. Only
// Allow and Disallow directives are honored; everything else is ignored.
func parseRobots(resp *http.Response) *robotRules {
	rules := &robotRules{}
	scanner := bufio.NewScanner(resp.Body)
	applies := false
	inRules := false
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			// An agent line after a rule block starts a fresh group.
			if inRules {
				applies = false
				inRules = false
			}
			if value == "*" {
				applies = true
			}
		case "disallow", "allow":
			inRules = true
			if applies && value != "" {
				rules.rules = append(rules.rules, robotRule{path: value, allow: key == "allow"})
			}
		}
	}
	return rules
}
