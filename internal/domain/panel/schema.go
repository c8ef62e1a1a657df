// Package panel defines the fixed medical-test panels that make up lab,
// radiology and clinical records, and normalizes free-form client input
// into them.
package panel

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Kind is the shape of a panel field.
type Kind int

const (
	// Scalar fields hold one free-text result ("Negative", "O+").
	Scalar Kind = iota
	// Measurement fields hold a TestValue tuple.
	Measurement
)

// Panel names.
const (
	UrineTest           = "urineTest"
	BloodTest           = "bloodTest"
	Area1               = "area1"
	RenalFunction       = "renalFunction"
	FullHaemogram       = "fullHaemogram"
	LiverFunction       = "liverFunction"
	GeneralExamination  = "generalExamination"
	SystemicExamination = "systemicExamination"
	OtherTests          = "otherTests"
)

// DroppedFieldsHeader is the response header listing the input field paths
// a write dropped, comma separated.
const DroppedFieldsHeader = "X-Dropped-Fields"

// Field is one registered panel field.
type Field struct {
	Name string
	Kind Kind
}

// Schema is the fixed field set of a panel.
type Schema struct {
	Name   string
	Title  string
	Fields []Field
}

// Field looks up a registered field.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Empty returns the panel with every field defaulted.
func (s Schema) Empty() Panel {
	var p Panel
	for _, f := range s.Fields {
		p.Set(f.Name, zeroOf(f.Kind))
	}
	return p
}

func scalars(names ...string) []Field {
	out := make([]Field, len(names))
	for i, n := range names {
		out[i] = Field{Name: n, Kind: Scalar}
	}
	return out
}

func measurements(names ...string) []Field {
	out := make([]Field, len(names))
	for i, n := range names {
		out[i] = Field{Name: n, Kind: Measurement}
	}
	return out
}

var defaultSchemas = []Schema{
	{Name: UrineTest, Title: "Urine Test", Fields: scalars("albumin", "sugar", "microscopic", "reaction")},
	{Name: BloodTest, Title: "Blood Test", Fields: scalars("hivTest", "hbsAg", "hcv", "esr")},
	{Name: Area1, Title: "General Tests", Fields: scalars(
		"stoolConsistency", "stoolMicroscopy", "tpha", "vdrlTest", "venerealDisease",
		"pregnancyTest", "typhoid", "hydrocele", "otherDeformities", "earRight",
		"earLeft", "lungs", "liver", "spleen", "bloodGroup")},
	{Name: RenalFunction, Title: "Renal Function", Fields: measurements("urea", "creatinine", "fastingBloodSugar")},
	{Name: FullHaemogram, Title: "Full Haemogram", Fields: measurements(
		"wbc", "lym", "mid", "gran", "rbc", "mcv", "hgb", "hct",
		"mch", "mchc", "rwd", "plcr", "plt", "mpv", "pct", "pdw")},
	{Name: LiverFunction, Title: "Liver Function", Fields: measurements(
		"totalBilirubin", "directBilirubin", "indirectBilirubin", "sgot", "sgpt",
		"gammaGt", "alkalinePhosphate", "totalProteins", "albumin1")},
	{Name: GeneralExamination, Title: "General Examination", Fields: scalars("hernia", "varicoseVein", "rightEye", "leftEye")},
	{Name: SystemicExamination, Title: "Systemic Examination", Fields: scalars("heart", "bloodPressure", "pulseRate")},
	{Name: OtherTests, Title: "Other Tests", Fields: scalars(
		"hydrocele", "earRight", "earLeft", "lungs", "liver", "spleen", "otherDeformities")},
}

// Registry maps panel names to schemas.
type Registry struct {
	schemas map[string]Schema
	order   []string
}

// NewRegistry builds a registry. Later schemas replace earlier ones with the
// same name.
func NewRegistry(schemas ...Schema) *Registry {
	r := &Registry{schemas: make(map[string]Schema, len(schemas))}
	for _, s := range schemas {
		if _, ok := r.schemas[s.Name]; !ok {
			r.order = append(r.order, s.Name)
		}
		r.schemas[s.Name] = s
	}
	return r
}

// Default is the registry of the clinic's standard panels.
var Default = NewRegistry(defaultSchemas...)

// Schema returns the schema registered under name.
func (r *Registry) Schema(name string) (Schema, bool) {
	s, ok := r.schemas[name]
	return s, ok
}

// Names lists registered panels in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Title is the display title of a panel, falling back to the name.
func (r *Registry) Title(name string) string {
	if s, ok := r.schemas[name]; ok && s.Title != "" {
		return s.Title
	}
	return name
}

// Normalize builds the named panel from raw client input. The result holds
// exactly the registered fields; absent ones default to "" or an empty
// TestValue. Fields that are not registered, or whose value has the wrong
// shape, are returned as dropped paths ("urineTest.foo"). It never fails:
// input that is absent or not an object yields the all-default panel.
func (r *Registry) Normalize(name string, raw json.RawMessage) (Panel, []string) {
	schema, ok := r.schemas[name]
	if !ok {
		var dropped []string
		if len(bytes.TrimSpace(raw)) > 0 && !isNull(raw) {
			dropped = append(dropped, name)
		}
		return Panel{}, dropped
	}

	input, dropped := decodeObject(name, raw)
	out := Panel{}
	for _, f := range schema.Fields {
		v, present := input[f.Name]
		if !present {
			out.Set(f.Name, zeroOf(f.Kind))
			continue
		}
		val, ok := coerce(f.Kind, v)
		if !ok {
			dropped = append(dropped, name+"."+f.Name)
			val = zeroOf(f.Kind)
		}
		out.Set(f.Name, val)
	}
	for _, k := range sortedKeys(input) {
		if _, ok := schema.Field(k); !ok {
			dropped = append(dropped, name+"."+k)
		}
	}
	return out, dropped
}

// Select builds the named panel from the fields the mask opts into. Fields
// the mask leaves false or absent are omitted entirely. A selected field with
// no value is kept with the empty default. A nil mask opts in every
// registered field present in raw.
func (r *Registry) Select(name string, raw json.RawMessage, mask map[string]bool) (Panel, []string) {
	schema, ok := r.schemas[name]
	if !ok {
		return Panel{}, []string{name}
	}
	input, dropped := decodeObject(name, raw)
	if mask == nil {
		mask = make(map[string]bool, len(input))
		for k := range input {
			mask[k] = true
		}
	}
	out := Panel{}
	for _, f := range schema.Fields {
		if !mask[f.Name] {
			continue
		}
		val := zeroOf(f.Kind)
		if v, present := input[f.Name]; present {
			c, ok := coerce(f.Kind, v)
			if ok {
				val = c
			} else {
				dropped = append(dropped, name+"."+f.Name)
			}
		}
		out.Set(f.Name, val)
	}
	seen := make(map[string]bool)
	for _, k := range append(sortedKeys(input), sortedMaskKeys(mask)...) {
		if seen[k] {
			continue
		}
		seen[k] = true
		if _, ok := schema.Field(k); !ok {
			dropped = append(dropped, name+"."+k)
		}
	}
	return out, dropped
}

func decodeObject(name string, raw json.RawMessage) (map[string]json.RawMessage, []string) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return nil, nil
	}
	var input map[string]json.RawMessage
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, []string{name}
	}
	return input, nil
}

func coerce(kind Kind, raw json.RawMessage) (any, bool) {
	switch kind {
	case Measurement:
		if isObject(raw) {
			var tv TestValue
			if err := json.Unmarshal(raw, &tv); err != nil {
				return TestValue{}, false
			}
			return tv, true
		}
		if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
			return TestValue{}, false
		}
		return TestValue{Value: ScalarText(raw)}, true
	default:
		trimmed := bytes.TrimSpace(raw)
		if isObject(trimmed) || bytes.HasPrefix(trimmed, []byte("[")) {
			return "", false
		}
		return ScalarText(raw), true
	}
}

func zeroOf(kind Kind) any {
	if kind == Measurement {
		return TestValue{}
	}
	return ""
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedMaskKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
