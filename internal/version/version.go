/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package version provides build version information.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the current version of moosic.
// This is set at build time via ldflags:
//
//	-X github.com/friendsincode/moosic/internal/version.Version=X.Y.Z
var Version = "0.1.0-dev"

// String returns the version with the VCS revision when the binary carries one.
func String() string {
	rev := revision()
	if rev == "" {
		return fmt.Sprintf("moosic %s (%s)", Version, runtime.Version())
	}
	return fmt.Sprintf("moosic %s (%s, %s)", Version, rev, runtime.Version())
}

func revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var rev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if rev != "" && dirty {
		rev += "-dirty"
	}
	return rev
}
