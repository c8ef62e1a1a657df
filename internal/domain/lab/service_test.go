package lab

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medlab/medlab/internal/domain/labnumber"
	"github.com/medlab/medlab/internal/domain/panel"
	"github.com/medlab/medlab/internal/platform/apperr"
	"github.com/medlab/medlab/internal/platform/render"
	"github.com/medlab/medlab/pkg/pagination"
)

type issuedNumbers map[string]bool

func (n issuedNumbers) Lookup(_ context.Context, number string) (*labnumber.Ticket, error) {
	if !n[number] {
		return nil, apperr.NotFound("lab number")
	}
	return &labnumber.Ticket{Number: number}, nil
}

func newTestService() *Service {
	return NewService(NewMemoryRepo(), nil)
}

func mustParse(t *testing.T, body string) *Input {
	t.Helper()
	in, err := ParseInput([]byte(body))
	if err != nil {
		t.Fatalf("parse input: %v", err)
	}
	return in
}

func TestParseInput_SpreadsLabDataEnvelope(t *testing.T) {
	in := mustParse(t, `{
		"patientName":"Jane Doe",
		"labNumber":"LAB-X123-001",
		"urineTest":{"albumin":"trace"},
		"labData":{"urineTest":{"albumin":"+"},"bloodTest":{"hivTest":"Negative"}}
	}`)
	if string(in.Panels[panel.UrineTest]) != `{"albumin":"+"}` {
		t.Errorf("labData should win, got %s", in.Panels[panel.UrineTest])
	}
	if _, ok := in.Panels[panel.BloodTest]; !ok {
		t.Error("expected bloodTest from labData")
	}
	if len(in.Unknown) != 0 {
		t.Errorf("unexpected unknown keys %v", in.Unknown)
	}
}

func TestParseInput_UnknownAndMetaKeys(t *testing.T) {
	in := mustParse(t, `{"id":"x","createdAt":"2024-01-01T00:00:00Z","eyeChart":{},"notes":"n"}`)
	if !reflect.DeepEqual(in.Unknown, []string{"eyeChart", "notes"}) {
		t.Errorf("unknown = %v", in.Unknown)
	}
}

func TestParseInput_PatientID(t *testing.T) {
	id := uuid.New()
	in := mustParse(t, `{"patientId":"`+id.String()+`"}`)
	if in.PatientID == nil || *in.PatientID != id {
		t.Errorf("patientId = %v", in.PatientID)
	}
	if in := mustParse(t, `{"patientId":""}`); in.PatientID != nil {
		t.Error("empty patientId should be nil")
	}
	if _, err := ParseInput([]byte(`{"patientId":"nope"}`)); err == nil {
		t.Error("expected error for malformed patientId")
	}
	if _, err := ParseInput([]byte(`[1,2]`)); err == nil {
		t.Error("expected error for non-object body")
	}
}

func TestService_Create_NormalizesPanels(t *testing.T) {
	svc := newTestService()
	in := mustParse(t, `{"patientName":" Jane Doe ","labNumber":"LAB-1","urineTest":{"albumin":"+","foo":"x"},"extra":1}`)

	rep, dropped, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.ID == uuid.Nil || rep.TimeStamp.IsZero() {
		t.Error("expected id and timeStamp to be set")
	}
	if rep.PatientName != "Jane Doe" {
		t.Errorf("patientName = %q", rep.PatientName)
	}
	if !reflect.DeepEqual(dropped, []string{"extra", "urineTest.foo"}) {
		t.Errorf("dropped = %v", dropped)
	}
	if rep.UrineTest.Text("albumin") != "+" || !rep.UrineTest.Has("reaction") {
		t.Errorf("urineTest not normalized: %v", rep.UrineTest.Keys())
	}
	if rep.FullHaemogram.Len() != 16 {
		t.Errorf("absent panel should be defaulted, got %d fields", rep.FullHaemogram.Len())
	}
}

func TestService_Create_Validation(t *testing.T) {
	svc := newTestService()
	for _, body := range []string{`{"labNumber":"LAB-1"}`, `{"patientName":"Jane"}`} {
		_, _, err := svc.Create(context.Background(), mustParse(t, body))
		if err == nil {
			t.Errorf("%s: expected validation error", body)
		}
	}
}

func TestService_Create_RequiresIssuedNumber(t *testing.T) {
	svc := NewService(NewMemoryRepo(), issuedNumbers{"LAB-X123-001": true})

	_, _, err := svc.Create(context.Background(), mustParse(t, `{"patientName":"Jane","labNumber":"LAB-NOPE"}`))
	if err == nil || apperr.IsNotFound(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, _, err := svc.Create(context.Background(), mustParse(t, `{"patientName":"Jane","labNumber":"LAB-X123-001"}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestService_Update_FullOverwrite(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	rep, _, err := svc.Create(ctx, mustParse(t, `{"patientName":"Jane","labNumber":"LAB-1","patientImage":"data:image/png;base64,AA==","bloodTest":{"hivTest":"Negative"}}`))
	if err != nil {
		t.Fatal(err)
	}

	updated, _, err := svc.Update(ctx, rep.ID, mustParse(t, `{"patientName":"Jane","labNumber":"LAB-1","urineTest":{"sugar":"nil"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.BloodTest.Text("hivTest") != "" {
		t.Error("panels left out of the replacement should be defaulted")
	}
	if updated.UrineTest.Text("sugar") != "nil" {
		t.Error("expected new urineTest")
	}
	if updated.PatientImage != rep.PatientImage {
		t.Error("expected image to be kept")
	}
	if !updated.CreatedAt.Equal(rep.CreatedAt) || !updated.TimeStamp.Equal(rep.TimeStamp) {
		t.Error("expected createdAt and timeStamp to be kept")
	}

	if _, _, err := svc.Update(ctx, uuid.New(), mustParse(t, `{"patientName":"Jane","labNumber":"LAB-1"}`)); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestService_ListSortedByTimeStamp(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	for i, ts := range []string{"2024-03-01T10:00:00Z", "2024-03-03T10:00:00Z", "2024-03-02T10:00:00Z"} {
		body := `{"patientName":"P` + string(rune('A'+i)) + `","labNumber":"LAB-` + string(rune('1'+i)) + `","timeStamp":"` + ts + `"}`
		if _, _, err := svc.Create(ctx, mustParse(t, body)); err != nil {
			t.Fatal(err)
		}
	}
	reports, total, err := svc.List(ctx, pagination.Filter{}, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 {
		t.Fatalf("expected 3 reports, got %d", total)
	}
	got := []string{reports[0].LabNumber, reports[1].LabNumber, reports[2].LabNumber}
	if !reflect.DeepEqual(got, []string{"LAB-2", "LAB-3", "LAB-1"}) {
		t.Errorf("order = %v", got)
	}

	from := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	_, total, _ = svc.List(ctx, pagination.Filter{From: &from}, 10, 0)
	if total != 2 {
		t.Errorf("expected 2 reports from March 2, got %d", total)
	}
	_, total, _ = svc.List(ctx, pagination.Filter{Query: "lab-1"}, 10, 0)
	if total != 1 {
		t.Errorf("expected 1 match for lab-1, got %d", total)
	}
}

func TestService_ListByPatient(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	pid := uuid.New()
	svc.Create(ctx, mustParse(t, `{"patientId":"`+pid.String()+`","patientName":"Jane","labNumber":"LAB-1"}`))
	svc.Create(ctx, mustParse(t, `{"patientName":"Other","labNumber":"LAB-2"}`))

	reports, err := svc.ListByPatient(ctx, pid)
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 1 || reports[0].LabNumber != "LAB-1" {
		t.Errorf("unexpected reports %+v", reports)
	}
}

func TestService_Render(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	rep, _, _ := svc.Create(ctx, mustParse(t, `{"patientName":"Jane","labNumber":"LAB-1","renalFunction":{"urea":{"value":"4.1","status":"normal","range":"2.5-7.8"}}}`))

	doc, err := svc.Render(ctx, rep.ID)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "Lab Report LAB-1" {
		t.Errorf("title = %q", doc.Title)
	}
	if len(doc.Sections) != len(panel.LabPanelNames)+2 {
		t.Fatalf("expected %d sections, got %d", len(panel.LabPanelNames)+2, len(doc.Sections))
	}
	var renal render.Section
	for _, s := range doc.Sections {
		if s.Title == "Renal Function" {
			renal = s
		}
	}
	if len(renal.Items) == 0 || renal.Items[0].Label != "Urea" || !renal.Items[0].Group {
		t.Fatalf("unexpected renal section %+v", renal)
	}
	if renal.Items[0].Children[0].Value != "4.1" {
		t.Errorf("urea value = %q", renal.Items[0].Children[0].Value)
	}
}

func TestReport_JSONShape(t *testing.T) {
	svc := newTestService()
	rep, _, _ := svc.Create(context.Background(), mustParse(t, `{"patientName":"Jane","labNumber":"LAB-1"}`))
	b, err := json.Marshal(rep)
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]json.RawMessage
	json.Unmarshal(b, &fields)
	for _, k := range append([]string{"labNumber", "timeStamp", "labRemarks"}, panel.LabPanelNames...) {
		if _, ok := fields[k]; !ok {
			t.Errorf("expected top-level %q", k)
		}
	}
	if _, ok := fields["patientId"]; ok {
		t.Error("absent patientId should be omitted")
	}
}
