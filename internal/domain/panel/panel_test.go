package panel

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestNormalize_DefaultsMissingFields(t *testing.T) {
	p, dropped := Default.Normalize(UrineTest, json.RawMessage(`{"albumin":"+"}`))
	if len(dropped) != 0 {
		t.Fatalf("expected nothing dropped, got %v", dropped)
	}
	want := []string{"albumin", "sugar", "microscopic", "reaction"}
	if !reflect.DeepEqual(p.Keys(), want) {
		t.Errorf("keys = %v, want %v", p.Keys(), want)
	}
	if p.Text("albumin") != "+" {
		t.Errorf("albumin = %q", p.Text("albumin"))
	}
	for _, k := range want[1:] {
		v, ok := p.Get(k)
		if !ok || v != "" {
			t.Errorf("%s = %#v, want empty string", k, v)
		}
	}
}

func TestNormalize_DefaultsMissingMeasurements(t *testing.T) {
	p, _ := Default.Normalize(FullHaemogram, json.RawMessage(`{"wbc":{"value":"5.4","units":"10^9/L","status":"normal","range":"4-11"}}`))
	if p.Len() != 16 {
		t.Fatalf("expected 16 fields, got %d", p.Len())
	}
	if got := p.Test("wbc"); got.Value != "5.4" || got.Range != "4-11" {
		t.Errorf("wbc = %+v", got)
	}
	v, _ := p.Get("pdw")
	if v != (TestValue{}) {
		t.Errorf("pdw = %#v, want empty TestValue", v)
	}
}

func TestNormalize_NilInput(t *testing.T) {
	for _, raw := range []json.RawMessage{nil, json.RawMessage(`null`), json.RawMessage(`{}`)} {
		p, dropped := Default.Normalize(RenalFunction, raw)
		if p.Len() != 3 {
			t.Errorf("input %q: expected 3 fields, got %d", raw, p.Len())
		}
		if len(dropped) != 0 {
			t.Errorf("input %q: unexpected drops %v", raw, dropped)
		}
	}
}

func TestNormalize_ReportsUnknownFields(t *testing.T) {
	p, dropped := Default.Normalize(UrineTest, json.RawMessage(`{"albumin":"+","foo":"x"}`))
	if p.Has("foo") {
		t.Error("unknown field must not be kept")
	}
	if !reflect.DeepEqual(dropped, []string{"urineTest.foo"}) {
		t.Errorf("dropped = %v", dropped)
	}
}

func TestNormalize_NonObjectInput(t *testing.T) {
	p, dropped := Default.Normalize(BloodTest, json.RawMessage(`"positive"`))
	if p.Len() != 4 {
		t.Errorf("expected defaulted panel, got %d fields", p.Len())
	}
	if !reflect.DeepEqual(dropped, []string{"bloodTest"}) {
		t.Errorf("dropped = %v", dropped)
	}
}

func TestNormalize_WrongShapes(t *testing.T) {
	p, dropped := Default.Normalize(BloodTest, json.RawMessage(`{"esr":{"value":"12"},"hcv":12}`))
	if p.Text("esr") != "" {
		t.Errorf("esr = %q, want defaulted", p.Text("esr"))
	}
	if p.Text("hcv") != "12" {
		t.Errorf("numeric scalar should keep its literal, got %q", p.Text("hcv"))
	}
	if !reflect.DeepEqual(dropped, []string{"bloodTest.esr"}) {
		t.Errorf("dropped = %v", dropped)
	}

	m, _ := Default.Normalize(RenalFunction, json.RawMessage(`{"urea":"4.1"}`))
	if got := m.Test("urea"); got.Value != "4.1" {
		t.Errorf("scalar into measurement should lift into value, got %+v", got)
	}
}

func TestNormalize_UnknownPanel(t *testing.T) {
	p, dropped := Default.Normalize("eyeChart", json.RawMessage(`{"left":"6/6"}`))
	if p.Len() != 0 {
		t.Errorf("expected empty panel")
	}
	if !reflect.DeepEqual(dropped, []string{"eyeChart"}) {
		t.Errorf("dropped = %v", dropped)
	}
}

func TestSelect_ExcludesUnmaskedFields(t *testing.T) {
	raw := json.RawMessage(`{"hernia":"x","leftEye":"y"}`)
	mask := map[string]bool{"hernia": true, "leftEye": false}

	p, dropped := Default.Select(GeneralExamination, raw, mask)
	if len(dropped) != 0 {
		t.Errorf("unexpected drops %v", dropped)
	}
	if !reflect.DeepEqual(p.Keys(), []string{"hernia"}) {
		t.Fatalf("keys = %v", p.Keys())
	}
	b, _ := json.Marshal(p)
	if string(b) != `{"hernia":"x"}` {
		t.Errorf("json = %s", b)
	}
}

func TestSelect_SelectedWithoutValue(t *testing.T) {
	p, _ := Default.Select(SystemicExamination, nil, map[string]bool{"heart": true})
	v, ok := p.Get("heart")
	if !ok || v != "" {
		t.Errorf("heart = %#v, %v", v, ok)
	}
}

func TestSelect_NilMaskTakesPresentFields(t *testing.T) {
	p, dropped := Default.Select(OtherTests, json.RawMessage(`{"lungs":"clear","spleen":"","wings":"2"}`), nil)
	if !reflect.DeepEqual(p.Keys(), []string{"lungs", "spleen"}) {
		t.Errorf("keys = %v", p.Keys())
	}
	if !reflect.DeepEqual(dropped, []string{"otherTests.wings"}) {
		t.Errorf("dropped = %v", dropped)
	}
}

func TestPanel_JSONRoundTripKeepsOrder(t *testing.T) {
	in := `{"wbc":{"value":"1","units":"","status":"","range":""},"note":"ok","hgb":{"value":"13","units":"g/dL","status":"normal","range":"12-16"}}`
	var p Panel
	if err := json.Unmarshal([]byte(in), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(p.Keys(), []string{"wbc", "note", "hgb"}) {
		t.Errorf("keys = %v", p.Keys())
	}
	out, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != in {
		t.Errorf("round trip mismatch:\n got %s\nwant %s", out, in)
	}
}

func TestPanel_ZeroMarshalsToEmptyObject(t *testing.T) {
	var p Panel
	b, _ := json.Marshal(p)
	if string(b) != "{}" {
		t.Errorf("got %s", b)
	}
}

func TestPanel_CloneIsIndependent(t *testing.T) {
	var p Panel
	p.Set("a", "1")
	c := p.Clone()
	p.Set("a", "2")
	p.Set("b", "3")
	if c.Text("a") != "1" || c.Has("b") {
		t.Errorf("clone changed with source: %v", c.Keys())
	}
}

func TestNormalizeLab(t *testing.T) {
	fields := map[string]json.RawMessage{
		UrineTest: json.RawMessage(`{"sugar":"nil"}`),
		Area1:     json.RawMessage(`{"bloodGroup":"O+","colour":"red"}`),
	}
	l, dropped := Default.NormalizeLab(fields)
	if l.UrineTest.Text("sugar") != "nil" {
		t.Error("urineTest.sugar lost")
	}
	if l.Area1.Text("bloodGroup") != "O+" {
		t.Error("area1.bloodGroup lost")
	}
	if l.LiverFunction.Len() != 9 {
		t.Errorf("liverFunction should be defaulted, got %d fields", l.LiverFunction.Len())
	}
	if len(dropped) != 1 || !strings.HasSuffix(dropped[0], "colour") {
		t.Errorf("dropped = %v", dropped)
	}
}

func TestTestValue_NumericLeaves(t *testing.T) {
	var tv TestValue
	if err := json.Unmarshal([]byte(`{"value":5.5,"range":null,"status":"high"}`), &tv); err != nil {
		t.Fatal(err)
	}
	if tv.Value != "5.5" || tv.Range != "" || tv.Status != "high" {
		t.Errorf("got %+v", tv)
	}
}

func TestSplitFields(t *testing.T) {
	var fields map[string]json.RawMessage
	body := `{"patientName":"Jane","urineTest":{"albumin":"+"},"zeta":1,"alpha":2,"id":"x","createdAt":"2024-01-01T00:00:00Z"}`
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		t.Fatal(err)
	}
	split := SplitFields(fields, map[string]bool{"patientName": true})

	if string(split.Own["patientName"]) != `"Jane"` || len(split.Own) != 1 {
		t.Errorf("own = %v", split.Own)
	}
	if _, ok := split.Panels[UrineTest]; !ok || len(split.Panels) != 1 {
		t.Errorf("panels = %v", split.Panels)
	}
	if want := []string{"alpha", "zeta"}; !reflect.DeepEqual(split.Unknown, want) {
		t.Errorf("unknown = %v, want %v", split.Unknown, want)
	}
}

func TestScalarText(t *testing.T) {
	tests := map[string]string{
		`"Negative"`: "Negative",
		`12.5`:       "12.5",
		`true`:       "true",
		`null`:       "",
		``:           "",
	}
	for raw, want := range tests {
		if got := ScalarText(json.RawMessage(raw)); got != want {
			t.Errorf("ScalarText(%q) = %q, want %q", raw, got, want)
		}
	}
}
