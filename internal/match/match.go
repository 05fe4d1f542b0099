// Package match decides whether a provider organization is the company we searched for.
package match

import (
	"regexp"
	"strings"

	"github.com/sells-group/prospector/pkg/apollo"
)

// corporateSuffixes are removed once each, in order, before comparing cores.
var corporateSuffixes = []string{
	" inc", " llc", " ltd", " corporation", " corp", " co",
	".io", ".com", ".ai",
}

var (
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9]`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// DefaultGuessTLDs are the suffixes tried when guessing a domain from a name.
var DefaultGuessTLDs = []string{".com", ".io", ".ai"}

// Validate reports whether returned names the same company as searched. It
// accepts an exact case-insensitive match, containment in either direction,
// or the same after corporate suffixes are stripped.
func Validate(searched, returned string) bool {
	s := strings.ToLower(strings.TrimSpace(searched))
	r := strings.ToLower(strings.TrimSpace(returned))
	if s == "" || r == "" {
		return false
	}

	if s == r {
		return true
	}
	if strings.Contains(r, s) || strings.Contains(s, r) {
		return true
	}

	sc := Core(s)
	rc := Core(r)
	if sc == "" || rc == "" {
		return false
	}
	if sc == rc {
		return true
	}
	return strings.Contains(rc, sc) || strings.Contains(sc, rc)
}

// Core lowercases name and strips the first occurrence of each corporate suffix.
func Core(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, suffix := range corporateSuffixes {
		name = strings.Replace(name, suffix, "", 1)
	}
	return strings.TrimSpace(name)
}

// DomainEcho reports whether the organization returned for a guessed domain
// actually lives at that domain. Providers sometimes answer an unknown domain
// with an unrelated popular organization.
func DomainEcho(guess string, org *apollo.Organization) bool {
	returned := org.Domain()
	guess = strings.ToLower(strings.TrimSpace(guess))
	if returned == "" || guess == "" {
		return false
	}
	return returned == guess ||
		strings.HasSuffix(returned, guess) ||
		strings.HasSuffix(guess, returned)
}

// GuessDomains derives candidate domains from a company name: the name with
// every non-alphanumeric character removed joined with each TLD, then the
// name with only whitespace removed as a .com when that differs. Duplicates
// are dropped, order is kept.
func GuessDomains(name string, tlds []string) []string {
	if len(tlds) == 0 {
		tlds = DefaultGuessTLDs
	}
	lower := strings.ToLower(name)
	cleaned := nonAlnumRe.ReplaceAllString(lower, "")
	if cleaned == "" {
		return nil
	}

	guesses := make([]string, 0, len(tlds)+1)
	for _, tld := range tlds {
		guesses = append(guesses, cleaned+normalizeTLD(tld))
	}
	if spaceless := spaceRe.ReplaceAllString(lower, ""); spaceless != cleaned && spaceless != "" {
		guesses = append(guesses, spaceless+".com")
	}
	return dedupe(guesses)
}

func normalizeTLD(tld string) string {
	tld = strings.ToLower(strings.TrimSpace(tld))
	if !strings.HasPrefix(tld, ".") {
		tld = "." + tld
	}
	return tld
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
