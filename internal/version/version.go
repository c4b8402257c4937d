package version

// Version is overridden at build time with -ldflags "-X azure-prompt/internal/version.Version=...".
var Version = "dev"
