package panel

import (
	"encoding/json"
	"sort"
)

// LabPanels are the bench panels shared by lab and radiology reports.
type LabPanels struct {
	UrineTest     Panel `json:"urineTest"`
	BloodTest     Panel `json:"bloodTest"`
	Area1         Panel `json:"area1"`
	RenalFunction Panel `json:"renalFunction"`
	FullHaemogram Panel `json:"fullHaemogram"`
	LiverFunction Panel `json:"liverFunction"`
}

// LabPanelNames lists the bench panels in report order.
var LabPanelNames = []string{UrineTest, BloodTest, Area1, RenalFunction, FullHaemogram, LiverFunction}

// isLabPanel reports whether name is one of the bench panels.
func isLabPanel(name string) bool {
	for _, n := range LabPanelNames {
		if n == name {
			return true
		}
	}
	return false
}

// readOnlyFields are keys a client may echo back from a read. They carry
// no input.
var readOnlyFields = map[string]bool{
	"id": true, "_id": true, "__v": true, "createdAt": true, "updatedAt": true,
}

// Fields is a report body split by key.
type Fields struct {
	Own     map[string]json.RawMessage
	Panels  map[string]json.RawMessage
	Unknown []string
}

// SplitFields sorts the top-level keys of a report body into the report's
// own fields, the bench panels and the unknown keys, which come back
// sorted. Read-only keys are ignored.
func SplitFields(fields map[string]json.RawMessage, own map[string]bool) Fields {
	out := Fields{
		Own:    make(map[string]json.RawMessage),
		Panels: make(map[string]json.RawMessage),
	}
	for k, v := range fields {
		switch {
		case own[k]:
			out.Own[k] = v
		case isLabPanel(k):
			out.Panels[k] = v
		case !readOnlyFields[k]:
			out.Unknown = append(out.Unknown, k)
		}
	}
	sort.Strings(out.Unknown)
	return out
}

// NormalizeLab normalizes every bench panel found in fields. Panels missing
// from fields come back fully defaulted.
func (r *Registry) NormalizeLab(fields map[string]json.RawMessage) (LabPanels, []string) {
	var (
		out     LabPanels
		dropped []string
	)
	for _, name := range LabPanelNames {
		p, d := r.Normalize(name, fields[name])
		dropped = append(dropped, d...)
		*out.slot(name) = p
	}
	return out, dropped
}

// Each calls fn for every bench panel in report order.
func (l LabPanels) Each(fn func(name string, p Panel)) {
	for _, name := range LabPanelNames {
		fn(name, *l.slot(name))
	}
}

// Clone deep-copies every panel.
func (l LabPanels) Clone() LabPanels {
	var out LabPanels
	l.Each(func(name string, p Panel) {
		*out.slot(name) = p.Clone()
	})
	return out
}

func (l *LabPanels) slot(name string) *Panel {
	switch name {
	case UrineTest:
		return &l.UrineTest
	case BloodTest:
		return &l.BloodTest
	case Area1:
		return &l.Area1
	case RenalFunction:
		return &l.RenalFunction
	case FullHaemogram:
		return &l.FullHaemogram
	case LiverFunction:
		return &l.LiverFunction
	}
	return new(Panel)
}

// FitnessEvaluation is the superintendent's fitness verdict.
type FitnessEvaluation struct {
	OtherAspectsFit string `json:"otherAspectsFit"`
	OverallStatus   string `json:"overallStatus"`
}

// Superintendent signs off the lab remarks.
type Superintendent struct {
	Name string `json:"name"`
}

// Remarks closes a lab or radiology report.
type Remarks struct {
	FitnessEvaluation FitnessEvaluation `json:"fitnessEvaluation"`
	LabSuperintendent Superintendent    `json:"labSuperintendent"`
}
