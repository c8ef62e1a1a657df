package clinical

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/medlab/medlab/internal/domain/panel"
	"github.com/medlab/medlab/internal/platform/export"
	"github.com/medlab/medlab/internal/platform/render"
)

type selectedSummary struct {
	PatientName     string `json:"patientName,omitempty"`
	LabNumber       string `json:"labNumber,omitempty"`
	TimeStamp       string `json:"timeStamp,omitempty"`
	ChestXRayTest   string `json:"chestXRayTest,omitempty"`
	HeafMantouxTest string `json:"heafMantouxTest,omitempty"`
}

type findings struct {
	ClinicalNotes        string  `json:"clinicalNotes"`
	Height               Measure `json:"height"`
	Weight               Measure `json:"weight"`
	HistoryOfPastIllness string  `json:"historyOfPastIllness"`
	Allergy              string  `json:"allergy"`
	ClinicalOfficerName  string  `json:"clinicalOfficerName"`
}

// Render loads a report and lays it out as display sections: the snapshot
// first, then the examination and the officer's findings.
func (s *Service) Render(ctx context.Context, id uuid.UUID) (render.Document, error) {
	rep, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return render.Document{}, err
	}
	return s.document(rep), nil
}

var summaryHeader = []string{"Field", "Value"}

// Export writes one report to a workbook: a summary sheet and the
// flattened sections on a details sheet.
func (s *Service) Export(ctx context.Context, id uuid.UUID) ([]byte, error) {
	rep, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ref := rep.LabNumber
	if ref == "" {
		ref = rep.ID.String()
	}
	summary := [][]any{
		{"Lab Number", rep.LabNumber},
		{"Patient Name", rep.PatientName},
		{"Clinical Officer", rep.ClinicalOfficerName},
		{"Height", string(rep.Height)},
		{"Weight", string(rep.Weight)},
		{"Allergy", rep.Allergy},
		{"History Of Past Illness", rep.HistoryOfPastIllness},
		{"Clinical Notes", rep.ClinicalNotes},
		{"Chest X Ray Test", rep.RadiologyData.ChestXRayTest},
		{"Heaf Mantoux Test", rep.RadiologyData.HeafMantouxTest},
		{"Created", rep.CreatedAt.Format(time.RFC3339)},
	}
	return export.Workbook(
		export.Sheet{Name: "Summary", Header: summaryHeader, Rows: summary},
		export.Sheet{Name: "Details", Header: export.DetailHeader, Rows: export.DetailRows(ref, s.document(rep).Sections)},
	)
}

func (s *Service) document(rep *Report) render.Document {
	doc := render.Document{Title: "Clinical Report"}
	if rep.LabNumber != "" {
		doc.Title += " " + rep.LabNumber
	}

	var snap map[string]json.RawMessage
	json.Unmarshal(rep.SelectedReport, &snap) //nolint:errcheck // a broken snapshot renders as placeholders

	head := readHead(rep.SelectedReport)
	summary := selectedSummary{
		PatientName:     head.PatientName,
		LabNumber:       head.LabNumber,
		TimeStamp:       head.TimeStamp,
		ChestXRayTest:   head.ChestXRayTest,
		HeafMantouxTest: head.HeafMantouxTest,
	}
	doc.Sections = append(doc.Sections, render.Render("Selected Report", summary))
	for _, name := range panel.LabPanelNames {
		doc.Sections = append(doc.Sections, render.Render(s.registry.Title(name), rawOrNil(snap[name])))
	}
	doc.Sections = append(doc.Sections, render.Render("Lab Remarks", rawOrNil(snap["labRemarks"])))

	doc.Sections = append(doc.Sections,
		render.Render(s.registry.Title(panel.GeneralExamination), rep.GeneralExamination),
		render.Render(s.registry.Title(panel.SystemicExamination), rep.SystemicExamination),
		render.Render(s.registry.Title(panel.OtherTests), rep.OtherTests),
		render.Render("Radiology", rep.RadiologyData),
		render.Render("Clinical Findings", findings{
			ClinicalNotes:        rep.ClinicalNotes,
			Height:               rep.Height,
			Weight:               rep.Weight,
			HistoryOfPastIllness: rep.HistoryOfPastIllness,
			Allergy:              rep.Allergy,
			ClinicalOfficerName:  rep.ClinicalOfficerName,
		}),
	)
	return doc
}

// rawOrNil hands the renderer nil for an absent key so it shows the
// placeholder.
func rawOrNil(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
