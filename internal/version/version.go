package version

// Version is the build version, overridden at link time with
// -ldflags "-X github.com/klarsyn/viewstat/internal/version.Version=...".
var Version = "dev"
