package entities

import (
	"time"
)

// Inventory holds structured equipment metadata extracted
// opportunistically from a solution's report text. At most one
// record is created per investigation; absent fields stay empty
// rather than carrying sentinel values.
type Inventory struct {
	ID              string            `json:"id" db:"id"`
	SolutionID      string            `json:"solution_id" db:"solution_id"`
	Manufacturer    string            `json:"manufacturer,omitempty" db:"manufacturer"`
	ModelName       string            `json:"model_name,omitempty" db:"model_name"`
	ComponentType   string            `json:"component_type,omitempty" db:"component_type"`
	FirmwareVersion string            `json:"firmware_version,omitempty" db:"firmware_version"`
	Specifications  map[string]string `json:"specifications,omitempty" db:"specifications"`
	Metadata        map[string]string `json:"metadata,omitempty" db:"metadata"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
}
