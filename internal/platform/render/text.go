package render

import (
	"strings"
)

const indent = "  "

// Text renders the section as indented plain text.
func (s Section) Text() string {
	var b strings.Builder
	b.WriteString(s.Title)
	b.WriteByte('\n')
	if s.Empty {
		b.WriteString(indent)
		b.WriteString(s.Placeholder)
		b.WriteByte('\n')
		return b.String()
	}
	writeItems(&b, s.Items, 1)
	return b.String()
}

func writeItems(b *strings.Builder, items []Item, depth int) {
	pad := strings.Repeat(indent, depth)
	for _, it := range items {
		b.WriteString(pad)
		b.WriteString(it.Label)
		if it.Group {
			b.WriteByte('\n')
			writeItems(b, it.Children, depth+1)
			continue
		}
		b.WriteString(": ")
		b.WriteString(it.Value)
		b.WriteByte('\n')
	}
}

// Text renders every section of the document.
func (d Document) Text() string {
	var b strings.Builder
	if d.Title != "" {
		b.WriteString(d.Title)
		b.WriteString("\n\n")
	}
	for i, s := range d.Sections {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(s.Text())
	}
	return b.String()
}

// Field is one leaf of a flattened section.
type Field struct {
	Path  string
	Value string
}

// Flatten lists the leaves of the section with group labels joined into a
// path, for tabular export.
func (s Section) Flatten() []Field {
	if s.Empty {
		return nil
	}
	var out []Field
	flattenItems(&out, "", s.Items)
	return out
}

func flattenItems(out *[]Field, prefix string, items []Item) {
	for _, it := range items {
		path := it.Label
		if prefix != "" {
			path = prefix + " / " + it.Label
		}
		if it.Group {
			flattenItems(out, path, it.Children)
			continue
		}
		*out = append(*out, Field{Path: path, Value: it.Value})
	}
}
