// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"regexp"
	"strings"
)

// doiPattern matches DOIs: "10.1145/1234567.1234568".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// resolverPrefixes are stripped from identifiers copied out of reference
// managers, which often store DOIs as resolver links.
var resolverPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi.org/",
	"doi:",
}

// NormalizeIdentifier trims whitespace and strips a DOI resolver prefix.
// Case is preserved: resolvers are case-insensitive but publisher pages
// are not always.
func NormalizeIdentifier(identifier string) string {
	id := strings.TrimSpace(identifier)
	lower := strings.ToLower(id)
	for _, p := range resolverPrefixes {
		if strings.HasPrefix(lower, p) {
			return strings.TrimSpace(id[len(p):])
		}
	}
	return id
}

// IsDOI reports whether identifier looks like a DOI after normalization.
func IsDOI(identifier string) bool {
	return doiPattern.MatchString(NormalizeIdentifier(identifier))
}
