package lab

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medlab/medlab/internal/domain/panel"
)

// Report is one lab visit: the bench panels measured for a patient under a
// lab number, closed by the superintendent's remarks.
type Report struct {
	ID           uuid.UUID  `json:"id"`
	PatientID    *uuid.UUID `json:"patientId,omitempty"`
	PatientName  string     `json:"patientName"`
	LabNumber    string     `json:"labNumber"`
	PatientImage string     `json:"patientImage,omitempty"`
	TimeStamp    time.Time  `json:"timeStamp"`
	panel.LabPanels
	LabRemarks panel.Remarks `json:"labRemarks"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// envelope is the nested object whose keys are spread into the report.
const envelope = "labData"

// Input is a decoded create or replace request. Panels holds the raw panel
// objects keyed by panel name; they are normalized by the service.
type Input struct {
	PatientID    *uuid.UUID
	PatientName  string
	LabNumber    string
	PatientImage string
	TimeStamp    *time.Time
	LabRemarks   panel.Remarks
	Panels       map[string]json.RawMessage
	// Unknown lists top-level keys that are neither report fields nor
	// panels.
	Unknown []string
}

type inputFields struct {
	PatientID    string        `json:"patientId"`
	PatientName  string        `json:"patientName"`
	LabNumber    string        `json:"labNumber"`
	PatientImage string        `json:"patientImage"`
	TimeStamp    *time.Time    `json:"timeStamp"`
	LabRemarks   panel.Remarks `json:"labRemarks"`
}

var scalarFields = map[string]bool{
	"patientId": true, "patientName": true, "labNumber": true,
	"patientImage": true, "timeStamp": true, "labRemarks": true,
}

// ParseInput decodes a request body. Panels may appear at the top level or
// inside a "labData" object; keys inside labData win.
func ParseInput(data []byte) (*Input, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("request body must be a JSON object")
	}
	if raw, ok := fields[envelope]; ok {
		delete(fields, envelope)
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(raw, &nested); err == nil {
			for k, v := range nested {
				fields[k] = v
			}
		}
	}

	split := panel.SplitFields(fields, scalarFields)
	in := &Input{Panels: split.Panels, Unknown: split.Unknown}

	b, err := json.Marshal(split.Own)
	if err != nil {
		return nil, err
	}
	var f inputFields
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("invalid report fields: %w", err)
	}
	if id := strings.TrimSpace(f.PatientID); id != "" {
		pid, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid patientId")
		}
		in.PatientID = &pid
	}
	in.PatientName = f.PatientName
	in.LabNumber = f.LabNumber
	in.PatientImage = f.PatientImage
	in.TimeStamp = f.TimeStamp
	in.LabRemarks = f.LabRemarks
	return in, nil
}
