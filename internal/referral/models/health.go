package models

import "time"

const (
	HealthStatusOK = "OK"

	DatabaseConnected    = "Connected"
	DatabaseNotConnected = "Not Connected"
)

// HealthStatus is the snapshot served by /health. Store reachability is a
// field, never an error.
type HealthStatus struct {
	Status             string    `json:"status"`
	Timestamp          time.Time `json:"timestamp"`
	Service            string    `json:"service"`
	DatabaseConnection string    `json:"databaseConnection"`
}
