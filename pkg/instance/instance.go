package instance

import "github.com/dmarchetti/orchard-backend/pkg/env"

// GetID returns the process instance identifier used in log fields.
func GetID() string {
	return env.Get("ORCHARD_INSTANCE_ID", env.Get("DYNO", "local"))
}
