package radiology

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medlab/medlab/internal/domain/panel"
)

// Report is a lab report extended with the imaging results.
type Report struct {
	ID              uuid.UUID  `json:"id"`
	PatientID       *uuid.UUID `json:"patientId,omitempty"`
	PatientName     string     `json:"patientName"`
	LabNumber       string     `json:"labNumber"`
	PatientImage    string     `json:"patientImage,omitempty"`
	TimeStamp       time.Time  `json:"timeStamp"`
	ChestXRayTest   string     `json:"chestXRayTest"`
	HeafMantouxTest string     `json:"heafMantouxTest"`
	panel.LabPanels
	LabRemarks panel.Remarks `json:"labRemarks"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// Input is a decoded create or replace request.
type Input struct {
	PatientID       *uuid.UUID
	PatientName     string
	LabNumber       string
	PatientImage    string
	TimeStamp       *time.Time
	ChestXRayTest   string
	HeafMantouxTest string
	LabRemarks      panel.Remarks
	Panels          map[string]json.RawMessage
	Unknown         []string
}

type inputFields struct {
	PatientID       string        `json:"patientId"`
	PatientName     string        `json:"patientName"`
	LabNumber       string        `json:"labNumber"`
	PatientImage    string        `json:"patientImage"`
	TimeStamp       *time.Time    `json:"timeStamp"`
	ChestXRayTest   string        `json:"chestXRayTest"`
	HeafMantouxTest string        `json:"heafMantouxTest"`
	LabRemarks      panel.Remarks `json:"labRemarks"`
}

var reportFields = map[string]bool{
	"patientId": true, "patientName": true, "labNumber": true, "patientImage": true,
	"timeStamp": true, "chestXRayTest": true, "heafMantouxTest": true, "labRemarks": true,
}

// ParseInput decodes a request body.
func ParseInput(data []byte) (*Input, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("request body must be a JSON object")
	}
	var f inputFields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid report fields: %w", err)
	}

	split := panel.SplitFields(fields, reportFields)
	in := &Input{
		PatientName:     f.PatientName,
		LabNumber:       f.LabNumber,
		PatientImage:    f.PatientImage,
		TimeStamp:       f.TimeStamp,
		ChestXRayTest:   f.ChestXRayTest,
		HeafMantouxTest: f.HeafMantouxTest,
		LabRemarks:      f.LabRemarks,
		Panels:          split.Panels,
		Unknown:         split.Unknown,
	}
	if id := strings.TrimSpace(f.PatientID); id != "" {
		pid, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid patientId")
		}
		in.PatientID = &pid
	}
	return in, nil
}
