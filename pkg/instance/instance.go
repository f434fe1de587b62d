package instance

import "os"

// GetID identifies this process in worker logs. It prefers the explicit
// ZEROFY_WORKER_ID, falls back to the hostname (pod name under Kubernetes),
// and only then to a static default.
func GetID() string {
	if id := os.Getenv("ZEROFY_WORKER_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "zerofy-worker-0"
}
