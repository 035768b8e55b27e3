package app

import "strings"

// Name is the application name used in logs and the CLI.
const Name = "nicknamebot"

// Version is overridden at build time with
// -ldflags "-X github.com/small-frappuccino/nicknamebot/pkg/app.Version=v1.2.3".
var Version = "dev"

// AppVersion returns the trimmed build version.
func AppVersion() string {
	return strings.TrimSpace(Version)
}

// Set with -ldflags at release time.
var (
	CommitSHA = "unknown"
	BuildTime = "unknown"
)
