package entities

import (
	"time"
)

// SolutionStatus is the lifecycle marker of a solution while an
// investigation is in flight.
type SolutionStatus string

const (
	// StatusCreated is the placeholder state right after creation.
	StatusCreated SolutionStatus = "created"

	// StatusResearching means the research agent is gathering sources.
	StatusResearching SolutionStatus = "researching"

	// StatusProcessing means the report is being written.
	StatusProcessing SolutionStatus = "processing"

	// StatusIdentifying means structured fields are being extracted.
	StatusIdentifying SolutionStatus = "identifying"

	// StatusValidating means the confidence score is being computed.
	StatusValidating SolutionStatus = "validating"

	// StatusStoring means inventory and question records are being persisted.
	StatusStoring SolutionStatus = "storing"

	// StatusComplete is the successful terminal state.
	StatusComplete SolutionStatus = "complete"

	// StatusError is the failed terminal state.
	StatusError SolutionStatus = "error"
)

// statusOrder fixes the total ordering of investigation states. A
// transition may only move forward; both terminal states share the top
// rank so neither can be left once reached.
var statusOrder = map[SolutionStatus]int{
	StatusCreated:     0,
	StatusResearching: 1,
	StatusProcessing:  2,
	StatusIdentifying: 3,
	StatusValidating:  4,
	StatusStoring:     5,
	StatusComplete:    6,
	StatusError:       6,
}

// IsTerminal reports whether the status is a terminal state.
func (s SolutionStatus) IsTerminal() bool {
	return s == StatusComplete || s == StatusError
}

// CanTransitionTo reports whether moving from s to next respects the
// documented ordering. Terminal states accept no further transitions.
func (s SolutionStatus) CanTransitionTo(next SolutionStatus) bool {
	if s.IsTerminal() {
		return false
	}
	from, ok := statusOrder[s]
	if !ok {
		return false
	}
	to, ok := statusOrder[next]
	if !ok {
		return false
	}
	return to > from
}

// Link is a titled documentation URL attached to a solution.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Solution is a unit of troubleshooting knowledge. It is created as a
// placeholder by either an immediate "add solution" call or an
// "investigate" call, and enriched by the investigation pipeline.
type Solution struct {
	ID             string         `json:"id" db:"id"`
	Title          string         `json:"title" db:"title"`
	Text           string         `json:"text" db:"text"`
	Description    string         `json:"description" db:"description"`
	SolutionSteps  []string       `json:"solution_steps" db:"solution_steps"`
	Verified       bool           `json:"verified" db:"verified"`
	Confidence     string         `json:"confidence" db:"confidence"`
	Manufacturer   string         `json:"manufacturer,omitempty" db:"manufacturer"`
	MachineName    string         `json:"machine_name,omitempty" db:"machine_name"`
	MachineType    string         `json:"machine_type,omitempty" db:"machine_type"`
	ModelNumber    string         `json:"model_number,omitempty" db:"model_number"`
	Component      string         `json:"component,omitempty" db:"component"`
	ErrorCode      string         `json:"error_code,omitempty" db:"error_code"`
	ResolutionType string         `json:"resolution_type,omitempty" db:"resolution_type"`
	DowntimeImpact string         `json:"downtime_impact,omitempty" db:"downtime_impact"`
	PlantName      string         `json:"plant_name,omitempty" db:"plant_name"`
	Department     string         `json:"department,omitempty" db:"department"`
	SafetyRelated  bool           `json:"safety_related" db:"safety_related"`
	Tags           []string       `json:"tags,omitempty" db:"tags"`
	Links          []Link         `json:"links,omitempty" db:"links"`
	DocumentLink   string         `json:"document_link,omitempty" db:"document_link"`
	Status         SolutionStatus `json:"status" db:"status"`
	InventoryID    string         `json:"inventory_id,omitempty" db:"inventory_id"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// ManufacturingContext carries the optional structured context a
// technician can attach to a question. Empty fields mean absent.
type ManufacturingContext struct {
	Manufacturer string `json:"manufacturer,omitempty"`
	MachineType  string `json:"machine_type,omitempty"`
	MachineName  string `json:"machine_name,omitempty"`
	Component    string `json:"component,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
}

// IsEmpty reports whether no context field is set.
func (c ManufacturingContext) IsEmpty() bool {
	return c.Manufacturer == "" && c.MachineType == "" && c.MachineName == "" &&
		c.Component == "" && c.ErrorCode == ""
}

// Merge fills empty fields of c from other. Fields already set on c
// win, so explicitly supplied context takes precedence over derived
// context field by field.
func (c ManufacturingContext) Merge(other ManufacturingContext) ManufacturingContext {
	if c.Manufacturer == "" {
		c.Manufacturer = other.Manufacturer
	}
	if c.MachineType == "" {
		c.MachineType = other.MachineType
	}
	if c.MachineName == "" {
		c.MachineName = other.MachineName
	}
	if c.Component == "" {
		c.Component = other.Component
	}
	if c.ErrorCode == "" {
		c.ErrorCode = other.ErrorCode
	}
	return c
}

// Fields returns the context fields in their canonical prefix order.
func (c ManufacturingContext) Fields() []string {
	return []string{c.Manufacturer, c.MachineType, c.MachineName, c.Component, c.ErrorCode}
}
