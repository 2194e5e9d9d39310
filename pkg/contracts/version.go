package contracts

import (
	"fmt"
	"runtime"
)

// Version is the processor release. The snapshot and series layouts change
// only with a minor version bump.
const Version = "0.3.0"

// Build metadata, stamped with
// -ldflags "-X fdicbanks/pkg/contracts.GitCommit=... -X fdicbanks/pkg/contracts.BuildTime=...".
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Describe returns the line printed by -version.
func Describe() string {
	return fmt.Sprintf("fdic-banks-processor v%s (commit %s, built %s, %s %s/%s)",
		Version, GitCommit, BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// UserAgent identifies the processor to the feed host.
func UserAgent() string {
	return "fdic-banks-processor/" + Version
}
