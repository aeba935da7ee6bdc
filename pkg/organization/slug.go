// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package organization

import (
	"regexp"
	"strings"
)

const maxSlugLength = 63

var (
	slugPattern   = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	slugSeparator = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify derives a url safe slug from an organization name.
func Slugify(name string) string {
	slug := slugSeparator.ReplaceAllString(strings.ToLower(name), "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}

	return slug
}

func validSlug(slug string) bool {
	return len(slug) <= maxSlugLength && slugPattern.MatchString(slug)
}
