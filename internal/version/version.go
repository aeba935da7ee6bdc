// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package version

import "runtime/debug"

// Version is overridden at build time with -ldflags "-X .../internal/version.Version=..."
var Version = "0.1.0"

// Revision returns the VCS revision embedded by the Go toolchain, or "unknown".
func Revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && setting.Value != "" {
			return setting.Value
		}
	}

	return "unknown"
}
