package instance

import "os"

const fallbackID = "tna-0"

// ID names this process for logs and cron lock ownership. TNA_INSTANCE_ID
// wins, then the platform dyno name, then the hostname.
func ID() string {
	for _, key := range []string{"TNA_INSTANCE_ID", "DYNO"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
