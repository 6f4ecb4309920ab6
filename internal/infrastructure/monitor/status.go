package monitor

import "time"

type Status struct {
	Storage       bool      `json:"storage"`
	StorageDriver string    `json:"storage_driver"`
	Redis         bool      `json:"redis"`
	LastCheck     time.Time `json:"last_check"`
}

// Healthy reports whether every dependency answered the last probe.
func (s Status) Healthy() bool {
	return s.Storage && s.Redis
}
