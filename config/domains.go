package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// DefaultTrustedDomains are preferred when trusted-domain filtering is on.
var DefaultTrustedDomains = []string{
	"mayoclinic.org",
	"nih.gov",
	"who.int",
	"cdc.gov",
	"webmd.com",
	"medlineplus.gov",
	"healthline.com",
	"medicalnewstoday.com",
	"hopkinsmedicine.org",
	"clevelandclinic.org",
	"health.harvard.edu",
	"ncbi.nlm.nih.gov",
	"pubmed.gov",
	"nejm.org",
	"thelancet.com",
	"jamanetwork.com",
	"bmj.com",
	"aafp.org",
	"medscape.com",
}

// Normalize cleans domain entries and removes duplicates.
func (w WebSearchConfig) Normalize() WebSearchConfig {
	norm := w
	norm.Provider = strings.ToLower(strings.TrimSpace(norm.Provider))
	norm.TrustedDomains = sanitizeDomainList(norm.TrustedDomains)
	norm.BlockedDomains = sanitizeDomainList(norm.BlockedDomains)
	return norm
}

// Validate ensures the search settings are usable and the domain lists do not conflict.
func (w WebSearchConfig) Validate() error {
	switch w.Provider {
	case "", "serper", "brave":
	default:
		return fmt.Errorf("sources.web_search.provider %q is not supported", w.Provider)
	}
	if w.MaxResults < 0 {
		return fmt.Errorf("sources.web_search.max_results cannot be negative")
	}
	if w.RatePerSecond < 0 {
		return fmt.Errorf("sources.web_search.rate_per_second cannot be negative")
	}
	norm := w.Normalize()
	trusted := make(map[string]struct{}, len(norm.TrustedDomains))
	for _, host := range norm.TrustedDomains {
		trusted[host] = struct{}{}
	}
	for _, host := range norm.BlockedDomains {
		if _, ok := trusted[host]; ok {
			return fmt.Errorf("web search conflict: host %q present in both trusted and blocked lists", host)
		}
	}
	return nil
}

func sanitizeDomainList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		host := NormalizeHost(raw)
		if host == "" {
			continue
		}
		seen[host] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for host := range seen {
		out = append(out, host)
	}
	sort.Strings(out)
	return out
}

// NormalizeHost lowercases a host or URL and strips the scheme and "www.".
func NormalizeHost(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		if u, err := url.Parse(value); err == nil && u.Host != "" {
			return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
		}
	}
	value = strings.TrimPrefix(value, "www.")
	return strings.TrimSuffix(value, "/")
}
