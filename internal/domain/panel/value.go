package panel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// TestValue is a single lab measurement. Every field is free text because
// the bench instruments report values, units and ranges in mixed formats.
type TestValue struct {
	Value  string `json:"value"`
	Units  string `json:"units"`
	Status string `json:"status"`
	Range  string `json:"range"`
}

// UnmarshalJSON accepts the tuple object and tolerates numeric leaves,
// which some analyzers emit for value and range.
func (v *TestValue) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*v = TestValue{}
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("test value must be an object: %w", err)
	}
	out := TestValue{}
	for k, r := range raw {
		s := ScalarText(r)
		switch k {
		case "value":
			out.Value = s
		case "units":
			out.Units = s
		case "status":
			out.Status = s
		case "range":
			out.Range = s
		}
	}
	*v = out
	return nil
}

// ScalarText renders a JSON leaf as the string stored in a panel field.
// Strings are unquoted, null becomes "", anything else keeps its literal form.
func ScalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return strings.TrimSpace(string(raw))
}

func isNull(raw []byte) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
