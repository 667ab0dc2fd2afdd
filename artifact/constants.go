package artifact

import "time"

const (
	// DefaultRetention is how long an artifact may stay on disk before the sweep removes it
	DefaultRetention = time.Hour

	// DefaultSweepInterval is the period of the background sweep
	DefaultSweepInterval = 30 * time.Minute

	// DefaultDirPermissions for managed directories
	DefaultDirPermissions = 0o755

	// DefaultFilePermissions for artifact files
	DefaultFilePermissions = 0o600
)
