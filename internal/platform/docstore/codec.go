package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Documents travel through their JSON form so that the json tags and
// custom marshalers of the domain types define the stored shape. The "id"
// key becomes "_id", and the configured time fields are stored as BSON
// dates so that range filters and sorting work. Verbatim fields are stored
// as their compacted JSON text and handed back byte for byte.

// layout names the top-level keys that are not stored as plain values.
type layout struct {
	times    map[string]bool
	verbatim map[string]bool
}

func keySet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func encode(doc any, l layout) (bson.D, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	b, texts, err := liftVerbatim(b, l.verbatim)
	if err != nil {
		return nil, err
	}
	var d bson.D
	if err := bson.UnmarshalExtJSON(b, false, &d); err != nil {
		return nil, fmt.Errorf("convert document: %w", err)
	}

	out := make(bson.D, 0, len(d)+len(texts))
	for _, e := range d {
		switch {
		case e.Key == "id":
			out = append(bson.D{{Key: "_id", Value: e.Value}}, out...)
			continue
		case l.times[e.Key]:
			if s, ok := e.Value.(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
					e.Value = primitive.NewDateTimeFromTime(t)
				}
			}
		}
		out = append(out, e)
	}
	return append(out, texts...), nil
}

// liftVerbatim takes the verbatim keys out of a JSON object and returns
// them as text elements. Null values are dropped.
func liftVerbatim(b []byte, verbatim map[string]bool) ([]byte, bson.D, error) {
	if len(verbatim) == 0 {
		return b, nil, nil
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(b, &top); err != nil {
		return nil, nil, fmt.Errorf("convert document: %w", err)
	}
	var texts bson.D
	for _, k := range sortedKeys(verbatim) {
		raw, ok := top[k]
		if !ok {
			continue
		}
		delete(top, k)
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil, nil, fmt.Errorf("convert %s: %w", k, err)
		}
		texts = append(texts, bson.E{Key: k, Value: buf.String()})
	}
	rest, err := json.Marshal(top)
	if err != nil {
		return nil, nil, fmt.Errorf("convert document: %w", err)
	}
	return rest, texts, nil
}

func decode(raw bson.Raw, dst any, l layout) error {
	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	kept := make(bson.D, 0, len(d))
	texts := make(map[string]json.RawMessage)
	for _, e := range d {
		if l.verbatim[e.Key] {
			if s, ok := e.Value.(string); ok {
				texts[e.Key] = json.RawMessage(s)
				continue
			}
		}
		if e.Key == "_id" {
			e.Key = "id"
		}
		if dt, ok := e.Value.(primitive.DateTime); ok {
			e.Value = dt.Time().UTC().Format(time.RFC3339Nano)
		}
		kept = append(kept, e)
	}
	b, err := bson.MarshalExtJSON(kept, false, false)
	if err != nil {
		return fmt.Errorf("convert document: %w", err)
	}
	if len(texts) > 0 {
		var top map[string]json.RawMessage
		if err := json.Unmarshal(b, &top); err != nil {
			return fmt.Errorf("convert document: %w", err)
		}
		for k, v := range texts {
			top[k] = v
		}
		if b, err = json.Marshal(top); err != nil {
			return fmt.Errorf("convert document: %w", err)
		}
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	return nil
}
