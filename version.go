package campesina

// Version information for the Conexion Campesina client
const (
	// Version is the current client version
	Version = "development"

	// APIVersion is the backend API version this client targets
	APIVersion = "v1"

	// BuildDate is set during build time
	BuildDate = "development"

	// GitCommit is set during build time
	GitCommit = "unknown"
)
