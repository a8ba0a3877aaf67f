package version

// Set at build time with -ldflags "-X storefront/internal/version.Version=...".
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)
