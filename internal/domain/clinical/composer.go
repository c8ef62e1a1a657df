package clinical

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/medlab/medlab/internal/domain/panel"
	"github.com/medlab/medlab/internal/platform/apperr"
)

// ExamPanels are the panels the clinical officer fills in, in report order.
var ExamPanels = []string{panel.GeneralExamination, panel.SystemicExamination, panel.OtherTests}

// Composer merges a report snapshot with examination input.
type Composer struct {
	registry *panel.Registry
}

func NewComposer(registry *panel.Registry) *Composer {
	return &Composer{registry: registry}
}

// Compose builds a clinical report. The snapshot is copied, never merged
// with the examination panels. Each examination panel keeps only the fields
// its mask opts into; with no selectedTests at all, every registered field
// present in the input counts as selected. The returned paths name dropped
// input fields.
func (c *Composer) Compose(snapshot json.RawMessage, in *Input) (*Report, []string, error) {
	officer := strings.TrimSpace(in.ClinicalOfficerName)
	if officer == "" {
		return nil, nil, apperr.Validation("clinicalOfficerName is required")
	}
	snap, err := copySnapshot(snapshot)
	if err != nil {
		return nil, nil, err
	}
	head := readHead(snap)

	rep := &Report{
		SelectedReport:       snap,
		PatientName:          head.PatientName,
		LabNumber:            head.LabNumber,
		ClinicalNotes:        strings.TrimSpace(in.ClinicalNotes),
		ClinicalOfficerName:  officer,
		Height:               in.Height,
		Weight:               in.Weight,
		HistoryOfPastIllness: strings.TrimSpace(in.HistoryOfPastIllness),
		Allergy:              strings.TrimSpace(in.Allergy),
	}

	var dropped []string
	for _, name := range ExamPanels {
		p, d := c.registry.Select(name, examInput(in, name), maskFor(in.SelectedTests, name))
		dropped = append(dropped, d...)
		switch name {
		case panel.GeneralExamination:
			rep.GeneralExamination = p
		case panel.SystemicExamination:
			rep.SystemicExamination = p
		case panel.OtherTests:
			rep.OtherTests = p
		}
	}
	for _, name := range sortedPanels(in.SelectedTests) {
		if !isExamPanel(name) {
			dropped = append(dropped, "selectedTests."+name)
		}
	}

	if in.RadiologyData != nil {
		rep.RadiologyData = *in.RadiologyData
	}
	if rep.RadiologyData.ChestXRayTest == "" {
		rep.RadiologyData.ChestXRayTest = head.ChestXRayTest
	}
	if rep.RadiologyData.HeafMantouxTest == "" {
		rep.RadiologyData.HeafMantouxTest = head.HeafMantouxTest
	}
	return rep, dropped, nil
}

// snapshotHead is the part of a lab or radiology snapshot the clinical
// report indexes and defaults from.
type snapshotHead struct {
	PatientName     string
	LabNumber       string
	TimeStamp       string
	ChestXRayTest   string
	HeafMantouxTest string
}

// readHead reads each header field on its own, so a field of an odd type
// only blanks itself. Objects and arrays read as "".
func readHead(snap json.RawMessage) snapshotHead {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(snap, &fields); err != nil {
		return snapshotHead{}
	}
	text := func(key string) string {
		raw := bytes.TrimSpace(fields[key])
		if len(raw) > 0 && (raw[0] == '{' || raw[0] == '[') {
			return ""
		}
		return panel.ScalarText(raw)
	}
	return snapshotHead{
		PatientName:     text("patientName"),
		LabNumber:       text("labNumber"),
		TimeStamp:       text("timeStamp"),
		ChestXRayTest:   text("chestXRayTest"),
		HeafMantouxTest: text("heafMantouxTest"),
	}
}

// absent reports whether a snapshot was left out of a request. JSON null
// counts as left out.
func absent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func copySnapshot(raw json.RawMessage) (json.RawMessage, error) {
	if absent(raw) {
		return nil, apperr.Validation("selectedReport or source is required")
	}
	raw = bytes.TrimSpace(raw)
	if raw[0] != '{' {
		return nil, apperr.Validation("selectedReport must be a JSON object")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, apperr.Validation("selectedReport must be a JSON object")
	}
	return buf.Bytes(), nil
}

func examInput(in *Input, name string) json.RawMessage {
	switch name {
	case panel.GeneralExamination:
		return in.GeneralExamination
	case panel.SystemicExamination:
		return in.SystemicExamination
	case panel.OtherTests:
		return in.OtherTests
	}
	return nil
}

// maskFor returns the mask of one panel. A request without selectedTests
// yields nil (take what is present); a request that has selectedTests but
// not this panel selects nothing.
func maskFor(selected map[string]map[string]bool, name string) map[string]bool {
	if selected == nil {
		return nil
	}
	if m := selected[name]; m != nil {
		return m
	}
	return map[string]bool{}
}

func isExamPanel(name string) bool {
	for _, n := range ExamPanels {
		if n == name {
			return true
		}
	}
	return false
}

func sortedPanels(m map[string]map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
