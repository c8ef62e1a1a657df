package patient

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medlab/medlab/internal/platform/apperr"
	"github.com/medlab/medlab/pkg/pagination"
)

func newTestService() *Service {
	return NewService(NewMemoryRepo())
}

func validPatient() *Patient {
	return &Patient{Name: "Jane Doe", PassportNumber: "X123", Sex: "F", Age: 34, MedicalType: "medical"}
}

func TestService_CreatePatient(t *testing.T) {
	svc := newTestService()
	p := validPatient()
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
	if p.CreatedAt.IsZero() || !p.CreatedAt.Equal(p.UpdatedAt) {
		t.Error("expected matching timestamps")
	}
	if p.MedicalType != MedicalTypeMedical {
		t.Errorf("expected upper-cased medical type, got %s", p.MedicalType)
	}
}

func TestService_CreatePatient_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Patient)
	}{
		{"missing name", func(p *Patient) { p.Name = "  " }},
		{"missing passport", func(p *Patient) { p.PassportNumber = "" }},
		{"missing sex", func(p *Patient) { p.Sex = "" }},
		{"negative age", func(p *Patient) { p.Age = -1 }},
		{"unknown medical type", func(p *Patient) { p.MedicalType = "DENTAL" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService()
			p := validPatient()
			tt.mutate(p)
			err := svc.Create(context.Background(), p)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if apperr.IsConflict(err) || apperr.IsNotFound(err) {
				t.Errorf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestService_CreatePatient_DuplicatePassport(t *testing.T) {
	svc := newTestService()
	if err := svc.Create(context.Background(), validPatient()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := validPatient()
	second.Name = "Someone Else"
	err := svc.Create(context.Background(), second)
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err.Error() != msgDuplicatePassport+": duplicate key on passportNumber" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestService_UpdatePatient_KeepsPhotoAndCreatedAt(t *testing.T) {
	svc := newTestService()
	p := validPatient()
	p.Photo = "data:image/png;base64,AAAA"
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc.now = func() time.Time { return p.CreatedAt.Add(time.Hour) }
	replacement := validPatient()
	replacement.ID = p.ID
	replacement.Occupation = "Nurse"
	if err := svc.Update(context.Background(), replacement); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.Get(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Photo != p.Photo {
		t.Error("expected photo to be kept")
	}
	if got.Occupation != "Nurse" {
		t.Errorf("expected occupation Nurse, got %s", got.Occupation)
	}
	if !got.CreatedAt.Equal(p.CreatedAt) || !got.UpdatedAt.After(p.CreatedAt) {
		t.Errorf("unexpected timestamps: %v %v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestService_UpdatePatient_NotFound(t *testing.T) {
	svc := newTestService()
	p := validPatient()
	p.ID = uuid.New()
	if err := svc.Update(context.Background(), p); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_ListPatients_Filter(t *testing.T) {
	svc := newTestService()
	for _, pp := range []struct{ name, passport string }{{"Jane Doe", "X1"}, {"John Roe", "Y2"}, {"Janet Poe", "Z3"}} {
		p := validPatient()
		p.Name, p.PassportNumber = pp.name, pp.passport
		if err := svc.Create(context.Background(), p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	patients, total, err := svc.List(context.Background(), pagination.Filter{Query: "jan"}, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(patients) != 2 {
		t.Errorf("expected 2 matches, got %d/%d", total, len(patients))
	}

	_, total, _ = svc.List(context.Background(), pagination.Filter{Query: "y2"}, 10, 0)
	if total != 1 {
		t.Errorf("expected passport match, got %d", total)
	}
}

func TestService_ExportPatients(t *testing.T) {
	svc := newTestService()
	if err := svc.Create(context.Background(), validPatient()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := svc.Export(context.Background(), pagination.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected workbook bytes")
	}
}
