/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package version exposes build-time version information.
package version

import "runtime/debug"

// version is the current version of Mimir Guide.
// This is set at build time via ldflags:
//
//	-X github.com/friendsincode/mimir_guide/internal/version.version=X.Y.Z
var version = "0.3.0"

// Version returns the release version, falling back to VCS metadata when the
// binary was built without ldflags.
func Version() string {
	if version != "" && version != "dev" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && len(setting.Value) >= 8 {
				return "dev-" + setting.Value[:8]
			}
		}
	}
	return "dev"
}
