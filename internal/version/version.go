// Package version carries the seekmark build identity, overridable at link
// time via -ldflags "-X seekmark/internal/version.Version=...".
package version

import (
	"runtime"
	"time"
)

var (
	Version   = "dev"                           // ex: v0.1.0
	Commit    = "none"                          // ex: abcd123
	BuildDate = time.Now().Format(time.RFC3339) // falls back to process start when not linked in
	GoVersion = runtime.Version()
)
