package clinical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/medlab/medlab/internal/domain/panel"
)

// Source kinds a clinical report can be composed from.
const (
	SourceLab       = "lab"
	SourceRadiology = "radiology"
)

// Report is the clinical officer's sign-off: a frozen copy of the lab or
// radiology report it was written against plus the examination findings.
type Report struct {
	ID uuid.UUID `json:"id"`
	// SelectedReport is a point-in-time copy of the source report. Later
	// edits to the source do not reach it.
	SelectedReport       json.RawMessage `json:"selectedReport"`
	Source               *Source         `json:"source,omitempty"`
	PatientName          string          `json:"patientName,omitempty"`
	LabNumber            string          `json:"labNumber,omitempty"`
	GeneralExamination   panel.Panel     `json:"generalExamination"`
	SystemicExamination  panel.Panel     `json:"systemicExamination"`
	OtherTests           panel.Panel     `json:"otherTests"`
	ClinicalNotes        string          `json:"clinicalNotes"`
	ClinicalOfficerName  string          `json:"clinicalOfficerName"`
	Height               Measure         `json:"height"`
	Weight               Measure         `json:"weight"`
	HistoryOfPastIllness string          `json:"historyOfPastIllness"`
	Allergy              string          `json:"allergy"`
	RadiologyData        RadiologyData   `json:"radiologyData"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// Source names the stored report a snapshot was taken from.
type Source struct {
	Kind string    `json:"kind"`
	ID   uuid.UUID `json:"id"`
}

// RadiologyData carries the imaging results into the clinical report.
type RadiologyData struct {
	ChestXRayTest   string `json:"chestXRayTest"`
	HeafMantouxTest string `json:"heafMantouxTest"`
}

// Input is a create or recompose request. SelectedTests maps a panel name
// to the fields the officer opted into.
type Input struct {
	SelectedReport       json.RawMessage            `json:"selectedReport"`
	Source               *Source                    `json:"source"`
	SelectedTests        map[string]map[string]bool `json:"selectedTests"`
	GeneralExamination   json.RawMessage            `json:"generalExamination"`
	SystemicExamination  json.RawMessage            `json:"systemicExamination"`
	OtherTests           json.RawMessage            `json:"otherTests"`
	ClinicalNotes        string                     `json:"clinicalNotes"`
	ClinicalOfficerName  string                     `json:"clinicalOfficerName"`
	Height               Measure                    `json:"height"`
	Weight               Measure                    `json:"weight"`
	HistoryOfPastIllness string                     `json:"historyOfPastIllness"`
	Allergy              string                     `json:"allergy"`
	RadiologyData        *RadiologyData             `json:"radiologyData"`
}

// Measure is a free-text body measurement. Numbers are accepted and kept as
// their literal.
type Measure string

func (m *Measure) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*m = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = Measure(s)
	default:
		if _, err := strconv.ParseFloat(string(data), 64); err != nil {
			return fmt.Errorf("measurement must be a string or number")
		}
		*m = Measure(data)
	}
	return nil
}
