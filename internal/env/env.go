package env

const AppName = "mkoverlay"

// Set at build time through -ldflags.
var (
	Version    = "dev"
	CommitHash = "n/a"
	BuildTime  = "n/a"
)
