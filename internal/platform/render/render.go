// Package render turns arbitrary nested report data into labeled display
// sections without knowing the shape of any panel in advance.
package render

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

const (
	// Placeholder is shown for a section with no data.
	Placeholder = "No data available"
	// Missing is shown for a null or empty value.
	Missing = "N/A"
)

// Ordered is implemented by values that expose their keys in a fixed order.
type Ordered interface {
	Keys() []string
	Lookup(key string) any
}

// Item is a rendered key. Groups carry children, leaves carry a value.
type Item struct {
	Label    string `json:"label"`
	Value    string `json:"value,omitempty"`
	Group    bool   `json:"group,omitempty"`
	Children []Item `json:"children,omitempty"`
}

// Section is one titled block of a rendered report.
type Section struct {
	Title       string `json:"title"`
	Items       []Item `json:"items"`
	Empty       bool   `json:"empty"`
	Placeholder string `json:"placeholder,omitempty"`
}

// Document is a full rendered report.
type Document struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// Render walks data and produces a section. Objects become labeled groups at
// any depth; leaves render as "Label: value" with Missing for null or empty
// values. Nil, non-object and empty-object data yield the placeholder.
func Render(title string, data any) Section {
	es, isObj := entries(data)
	if !isObj || len(es) == 0 {
		return Section{Title: title, Items: []Item{}, Empty: true, Placeholder: Placeholder}
	}
	return Section{Title: title, Items: items(es)}
}

// Label converts a camelCase key to a display label: "hivTest" -> "Hiv Test".
func Label(key string) string {
	if key == "" {
		return ""
	}
	var b strings.Builder
	for i, r := range key {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		if unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func items(es []entry) []Item {
	out := make([]Item, 0, len(es))
	for _, e := range es {
		label := Label(e.key)
		if sub, isObj := entries(e.val); isObj {
			out = append(out, Item{Label: label, Group: true, Children: items(sub)})
			continue
		}
		out = append(out, Item{Label: label, Value: Text(e.val)})
	}
	return out
}

// Text formats a leaf value.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return Missing
	case string:
		if strings.TrimSpace(t) == "" {
			return Missing
		}
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		if len(t) == 0 {
			return Missing
		}
		parts := make([]string, len(t))
		for i, el := range t {
			parts[i] = Text(el)
		}
		return strings.Join(parts, ", ")
	case Ordered:
		keys := t.Keys()
		if len(keys) == 0 {
			return Missing
		}
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = Label(k) + ": " + Text(t.Lookup(k))
		}
		return strings.Join(parts, "; ")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return Missing
	}
	var decoded any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return Missing
	}
	if _, ok := decoded.(map[string]any); ok {
		return Text(decodeOrdered(b))
	}
	return Text(decoded)
}

type entry struct {
	key string
	val any
}

// entries lists the keys of an object value. The second result is false
// when v is not an object.
func entries(v any) ([]entry, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case Ordered:
		keys := t.Keys()
		out := make([]entry, len(keys))
		for i, k := range keys {
			out[i] = entry{key: k, val: t.Lookup(k)}
		}
		return out, true
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]entry, len(keys))
		for i, k := range keys {
			out[i] = entry{key: k, val: t[k]}
		}
		return out, true
	case map[string]string:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]entry, len(keys))
		for i, k := range keys {
			out[i] = entry{key: k, val: t[k]}
		}
		return out, true
	case json.RawMessage:
		return entries(decodeOrdered(t))
	case []byte:
		return entries(decodeOrdered(t))
	case string, json.Number, bool, float64, float32, int, int64, []any:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct, reflect.Map:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, false
		}
		decoded := decodeOrdered(b)
		if decoded == nil {
			return nil, false
		}
		return entries(decoded)
	}
	return nil, false
}
