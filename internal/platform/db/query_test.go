package db

import (
	"strings"
	"testing"
	"time"

	"github.com/medlab/medlab/pkg/pagination"
)

func TestSearchQueryBasic(t *testing.T) {
	q := NewSearchQuery("lab_reports", "doc")
	q.Add("patient_id = $1", "patient-123")
	q.OrderBy("time_stamp DESC")

	countSQL := q.CountSQL()
	if !strings.Contains(countSQL, "SELECT COUNT(*) FROM lab_reports WHERE 1=1 AND patient_id = $1") {
		t.Errorf("unexpected count SQL: %s", countSQL)
	}
	if len(q.CountArgs()) != 1 || q.CountArgs()[0] != "patient-123" {
		t.Errorf("unexpected count args: %v", q.CountArgs())
	}

	dataSQL := q.DataSQL(10, 0)
	if !strings.Contains(dataSQL, "ORDER BY time_stamp DESC") {
		t.Errorf("expected ORDER BY in data SQL: %s", dataSQL)
	}
	if !strings.Contains(dataSQL, "LIMIT $2 OFFSET $3") {
		t.Errorf("expected LIMIT/OFFSET in data SQL: %s", dataSQL)
	}

	dataArgs := q.DataArgs(10, 0)
	if len(dataArgs) != 3 || dataArgs[1] != 10 || dataArgs[2] != 0 {
		t.Errorf("unexpected data args: %v", dataArgs)
	}
}

func TestSearchQuery_Unlimited(t *testing.T) {
	q := NewSearchQuery("patients", "doc")
	if sql := q.DataSQL(0, 0); strings.Contains(sql, "LIMIT") {
		t.Errorf("did not expect LIMIT without a limit: %s", sql)
	}
	if args := q.DataArgs(0, 0); len(args) != 0 {
		t.Errorf("expected no args, got %v", args)
	}
}

func TestSearchQuery_AddFilter(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	q := NewSearchQuery("lab_reports", "doc")
	q.AddFilter(pagination.Filter{Query: "50%_x", From: &from, To: &to}, "time_stamp", "patient_name", "lab_number")

	sql := q.CountSQL()
	want := "(patient_name ILIKE $1 OR lab_number ILIKE $1) AND time_stamp >= $2 AND time_stamp <= $3"
	if !strings.Contains(sql, want) {
		t.Errorf("unexpected filter SQL: %s", sql)
	}
	args := q.CountArgs()
	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %v", args)
	}
	if args[0] != `%50\%\_x%` {
		t.Errorf("expected escaped pattern, got %v", args[0])
	}
	if q.Idx() != 4 {
		t.Errorf("expected next index 4, got %d", q.Idx())
	}
}

func TestSearchQuery_EmptyFilter(t *testing.T) {
	q := NewSearchQuery("patients", "doc")
	q.AddFilter(pagination.Filter{}, "created_at", "name")
	if len(q.CountArgs()) != 0 {
		t.Errorf("expected no args, got %v", q.CountArgs())
	}
}
