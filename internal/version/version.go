package version

// Version is the cmaclient release, overridden at build time with
// -ldflags "-X github.com/hashicorp-forge/cmaclient/internal/version.Version=...".
var Version = "0.1.0"
