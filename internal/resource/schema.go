package resource

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FieldKind tells forms how to parse user input for a field.
type FieldKind int

const (
	KindText FieldKind = iota
	KindInt
	KindDecimal
	KindBool
	KindRef // foreign id, resolved through a Reference
)

// Field describes one editable or displayed attribute of a resource.
type Field struct {
	Key      string
	Label    string
	Kind     FieldKind
	ReadOnly bool // computed or server-owned; never sent
	Column   bool // shown in the list table
	Width    int
}

// Parse converts text typed by the user into the value stored in a draft.
// Empty input clears the field.
func (f Field) Parse(input string) (any, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	switch f.Kind {
	case KindInt, KindRef:
		n, err := strconv.ParseInt(input, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a whole number", f.Label, input)
		}
		return n, nil
	case KindDecimal:
		d, err := decimal.NewFromString(strings.ReplaceAll(input, ",", "."))
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a number", f.Label, input)
		}
		return json.Number(d.String()), nil
	case KindBool:
		switch strings.ToLower(input) {
		case "y", "yes", "true", "1":
			return true, nil
		case "n", "no", "false", "0":
			return false, nil
		}
		return nil, fmt.Errorf("%s: answer yes or no", f.Label)
	}
	return input, nil
}

// Requirement is a field the backend insists on, with the message shown
// when it is missing (e.g. "Choose a company").
type Requirement struct {
	Field   string
	Message string
}

// Reference links a foreign-id field to the collection holding its label.
type Reference struct {
	Field       string     // e.g. "company_id"
	LabelField  string     // denormalized label sent by the server, e.g. "company_name"
	Resource    string     // collection path, e.g. "companies/"
	Query       url.Values // optional collection filter
	Display     string     // label field in the referenced collection, default "name"
	Placeholder string     // shown when resolution fails, e.g. "Company not loaded"
}

func (r Reference) display() string {
	if r.Display == "" {
		return "name"
	}
	return r.Display
}

func (r Reference) cacheKey() string {
	if len(r.Query) == 0 {
		return r.Resource + "#" + r.display()
	}
	return r.Resource + "?" + r.Query.Encode() + "#" + r.display()
}

// UpdateMethod selects how a save is sent.
type UpdateMethod int

const (
	UpdatePatch UpdateMethod = iota // changed fields only
	UpdatePut                       // the full draft
)

// Schema is everything the generic list/detail pipeline needs to know
// about one resource type.
type Schema struct {
	Name     string // registry key, e.g. "firms"
	Title    string // "Firms"
	Singular string // "Firm"

	Path    string     // collection path, e.g. "firms/"
	Query   url.Values // fixed collection filter, e.g. type=sale
	ItemGet bool       // false when the backend has no single-item GET

	Fields       []Field
	Required     []Requirement
	References   []Reference
	SearchFields []string
	FilterFields []string
	Update       UpdateMethod

	// Defaults are sent with every create unless the draft sets them,
	// e.g. the type of a document on the shared documents endpoint.
	Defaults map[string]any

	// LinesField names the line item list of a document ("items").
	LinesField string
	LineFields []Field

	// Locked reports whether a loaded record is read-only history,
	// e.g. a document that left draft.
	Locked func(Record) bool
}

// ItemPath is the path of a single record.
func (s *Schema) ItemPath(id int64) string {
	return fmt.Sprintf("%s%d/", s.Path, id)
}

// Field looks up a field by key.
func (s *Schema) Field(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// LineField looks up a line item field by key.
func (s *Schema) LineField(key string) (Field, bool) {
	for _, f := range s.LineFields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Columns returns the fields shown in list tables.
func (s *Schema) Columns() []Field {
	var cols []Field
	for _, f := range s.Fields {
		if f.Column {
			cols = append(cols, f)
		}
	}
	return cols
}

// Reference returns the reference declared for a field, if any.
func (s *Schema) Reference(field string) (Reference, bool) {
	for _, r := range s.References {
		if r.Field == field {
			return r, true
		}
	}
	return Reference{}, false
}

// IsLocked reports whether rec is read-only history.
func (s *Schema) IsLocked(rec Record) bool {
	return s.Locked != nil && rec != nil && s.Locked(rec)
}

// Validate checks the required fields of a draft.
func (s *Schema) Validate(rec Record) error {
	for _, req := range s.Required {
		if IsBlank(rec[req.Field]) {
			msg := req.Message
			if msg == "" {
				label := req.Field
				if f, ok := s.Field(req.Field); ok {
					label = f.Label
				}
				msg = label + " is required"
			}
			return &ValidationError{Field: req.Field, Message: msg}
		}
	}
	return nil
}

// writable strips read-only fields from a request body.
func (s *Schema) writable(rec Record) Record {
	out := Record{}
	for k, v := range rec {
		if k == "id" {
			continue
		}
		if f, ok := s.Field(k); ok && f.ReadOnly {
			continue
		}
		if s.isLabelField(k) {
			continue
		}
		out[k] = v
	}
	return out
}

func (s *Schema) isLabelField(key string) bool {
	for _, r := range s.References {
		if r.LabelField == key {
			return true
		}
	}
	return false
}
