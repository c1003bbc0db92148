package instance

import "os"

// ID identifies the running process in logs. ERP_WORKER_ID wins, then the
// hostname.
func ID() string {
	if id := os.Getenv("ERP_WORKER_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
