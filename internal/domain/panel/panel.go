package panel

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Panel is an ordered set of named fields. A field holds either a scalar
// string or a TestValue. Field order follows the schema on normalization and
// the document order on decode, so rendered and exported output keeps the
// sequence the bench form uses.
type Panel struct {
	keys   []string
	fields map[string]any
}

// Set stores a field, appending it to the order when new. Values other than
// string and TestValue are stored as their fmt representation.
func (p *Panel) Set(name string, v any) {
	if p.fields == nil {
		p.fields = make(map[string]any)
	}
	switch tv := v.(type) {
	case string, TestValue:
	case *TestValue:
		if tv == nil {
			v = TestValue{}
		} else {
			v = *tv
		}
	case nil:
		v = ""
	default:
		v = fmt.Sprint(tv)
	}
	if _, ok := p.fields[name]; !ok {
		p.keys = append(p.keys, name)
	}
	p.fields[name] = v
}

// Get returns the raw field value (string or TestValue).
func (p Panel) Get(name string) (any, bool) {
	v, ok := p.fields[name]
	return v, ok
}

// Has reports whether the field is present.
func (p Panel) Has(name string) bool {
	_, ok := p.fields[name]
	return ok
}

// Text returns a scalar field, or the measured value of a TestValue field.
func (p Panel) Text(name string) string {
	switch v := p.fields[name].(type) {
	case string:
		return v
	case TestValue:
		return v.Value
	}
	return ""
}

// Test returns a TestValue field. Scalar fields are lifted into Value.
func (p Panel) Test(name string) TestValue {
	switch v := p.fields[name].(type) {
	case TestValue:
		return v
	case string:
		return TestValue{Value: v}
	}
	return TestValue{}
}

// Keys returns the field names in order.
func (p Panel) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len is the number of fields.
func (p Panel) Len() int { return len(p.keys) }

// Clone returns a copy that shares nothing with p.
func (p Panel) Clone() Panel {
	out := Panel{}
	for _, k := range p.keys {
		out.Set(k, p.fields[k])
	}
	return out
}

// Lookup lets the renderer walk a panel without knowing its shape.
func (p Panel) Lookup(name string) any {
	switch v := p.fields[name].(type) {
	case TestValue:
		return orderedTest(v)
	default:
		return v
	}
}

func (p Panel) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(p.fields[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a stored panel, keeping document order. Object
// leaves decode as TestValue, everything else as scalar text.
func (p *Panel) UnmarshalJSON(data []byte) error {
	*p = Panel{}
	if isNull(data) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("panel must be a JSON object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if isObject(raw) {
			var tv TestValue
			if err := json.Unmarshal(raw, &tv); err != nil {
				return fmt.Errorf("panel field %q: %w", key, err)
			}
			p.Set(key, tv)
			continue
		}
		p.Set(key, ScalarText(raw))
	}
	_, err = dec.Token()
	return err
}

// orderedTest exposes a TestValue to the renderer in form order.
type orderedTest TestValue

func (t orderedTest) Keys() []string { return []string{"value", "units", "status", "range"} }

func (t orderedTest) Lookup(name string) any {
	switch name {
	case "value":
		return t.Value
	case "units":
		return t.Units
	case "status":
		return t.Status
	case "range":
		return t.Range
	}
	return nil
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
