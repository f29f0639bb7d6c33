package constants

import "time"

const (
	ServiceName     = "content-cleanup"
	ConfigPath      = "/etc/content-cleanup/.env"
	APIVersion      = "v1"
	ShutdownTimeout = 60 * time.Second
	CleanupTimeout  = 9 * time.Minute
	// HTTPWriteGrace is added to the configured cleanup timeout to get the
	// server write timeout, so a synchronous trigger can still answer.
	HTTPWriteGrace = time.Minute
)
