package resource

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mikelcalvo/erp-admin/internal/api"
)

// State is the load state of a detail screen
type State int

const (
	StateLoading State = iota
	StateReady
	StateNotFound
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateNotFound:
		return "not_found"
	case StateFailed:
		return "error"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Loaded is the result of a detail fetch.
type Loaded struct {
	Record Record
	// Degraded is set when the record was found by scanning the collection
	// because the item endpoint is missing or answered 404.
	Degraded bool
}

// Detail is the state of a single-record screen.
//
// The snapshot is the last copy the server confirmed; the draft is the
// copy under edit. The draft is replaced wholesale on every successful
// load or save and never merged with stale state.
type Detail struct {
	schema  *Schema
	backend Backend

	id       int64
	state    State
	snapshot Record
	draft    Record
	editing  bool
	degraded bool
	err      error
	labels   map[string]string
}

// NewDetail creates a detail for schema.
func NewDetail(schema *Schema, backend Backend) *Detail {
	return &Detail{
		schema:  schema,
		backend: backend,
		labels:  map[string]string{},
	}
}

// Schema returns the detail's resource schema
func (d *Detail) Schema() *Schema { return d.schema }

// Begin prepares a load of id. Reloading the same record keeps the
// current snapshot on screen until the answer arrives.
func (d *Detail) Begin(id int64) {
	if id != d.id || d.snapshot == nil {
		d.snapshot = nil
		d.draft = nil
		d.editing = false
		d.degraded = false
		d.labels = map[string]string{}
		d.state = StateLoading
	}
	d.id = id
	d.err = nil
}

// Fetch gets the record without touching detail state. When the item
// endpoint is unavailable the collection is scanned for the id.
func (d *Detail) Fetch(ctx context.Context) (Loaded, error) {
	if d.schema.ItemGet {
		obj, err := d.backend.GetObject(ctx, d.schema.ItemPath(d.id), nil)
		if err == nil {
			return Loaded{Record: Record(obj)}, nil
		}
		if !errors.Is(err, api.ErrNotFound) {
			return Loaded{}, err
		}
	}

	items, err := fetchCollection(ctx, d.backend, d.schema.Path, d.schema.Query)
	if err != nil {
		return Loaded{}, err
	}
	for _, rec := range items {
		if id, ok := rec.ID(); ok && id == d.id {
			return Loaded{Record: rec, Degraded: true}, nil
		}
	}
	return Loaded{}, fmt.Errorf("%s %d: %w", d.schema.Singular, d.id, ErrNotFound)
}

// Apply installs a fetch result. Failures other than not-found leave a
// previously loaded snapshot in place.
func (d *Detail) Apply(l Loaded, err error) error {
	switch {
	case err == nil:
		d.state = StateReady
		d.snapshot = l.Record
		d.draft = l.Record.Clone()
		d.editing = false
		d.degraded = l.Degraded
		d.err = nil
		d.labels = map[string]string{}
		return nil
	case errors.Is(err, ErrNotFound):
		d.state = StateNotFound
		d.snapshot = nil
		d.draft = nil
		d.editing = false
	case d.snapshot == nil:
		d.state = StateFailed
	}
	d.err = err
	return err
}

// Load fetches and installs record id.
func (d *Detail) Load(ctx context.Context, id int64) error {
	d.Begin(id)
	l, err := d.Fetch(ctx)
	return d.Apply(l, err)
}

// Reload fetches the current record again.
func (d *Detail) Reload(ctx context.Context) error {
	return d.Load(ctx, d.id)
}

// ID returns the id of the record shown
func (d *Detail) ID() int64 { return d.id }

// State returns the load state
func (d *Detail) State() State { return d.state }

// Err returns the error of the last operation, if it failed
func (d *Detail) Err() error { return d.err }

// Snapshot returns the last server-confirmed copy. Callers must not modify it.
func (d *Detail) Snapshot() Record { return d.snapshot }

// Draft returns the copy under edit. Callers must go through Edit.
func (d *Detail) Draft() Record { return d.draft }

// Editing reports whether the detail is in edit mode
func (d *Detail) Editing() bool { return d.editing }

// Degraded reports whether the record came from the collection fallback.
func (d *Detail) Degraded() bool { return d.degraded }

// Locked reports whether the record is read-only history.
func (d *Detail) Locked() bool { return d.schema.IsLocked(d.snapshot) }

// LinesEditable reports whether line items may be changed, which holds
// only while the document is still a draft.
func (d *Detail) LinesEditable() bool {
	return d.schema.LinesField != "" && d.state == StateReady && !d.Locked()
}

// Dirty reports whether the draft differs from the snapshot.
func (d *Detail) Dirty() bool {
	return len(d.changes()) > 0
}

func (d *Detail) changes() Record {
	if d.draft == nil {
		return nil
	}
	return d.schema.writable(d.draft.Diff(d.snapshot))
}

// ChangedLabels names the fields the draft changes, for confirmation
// prompts. Line edits are reported as "items".
func (d *Detail) ChangedLabels() []string {
	changes := d.changes()
	var out []string
	for _, f := range d.schema.Fields {
		if _, ok := changes[f.Key]; ok {
			out = append(out, f.Label)
		}
	}
	if _, ok := changes[d.schema.LinesField]; ok && d.schema.LinesField != "" {
		out = append(out, "items")
	}
	if len(out) == 0 && len(changes) > 0 {
		out = append(out, fmt.Sprintf("%d fields", len(changes)))
	}
	return out
}

// BeginEdit switches to edit mode with a fresh draft.
func (d *Detail) BeginEdit() error {
	if d.state != StateReady {
		return ErrNotReady
	}
	if d.Locked() {
		return ErrLocked
	}
	d.editing = true
	d.draft = d.snapshot.Clone()
	return nil
}

// CancelEdit drops the draft and returns to view mode.
func (d *Detail) CancelEdit() {
	d.editing = false
	d.draft = d.snapshot.Clone()
}

// Edit changes one field of the draft. The snapshot is never touched.
func (d *Detail) Edit(field string, value any) error {
	if !d.editing {
		return ErrNotEditing
	}
	f, ok := d.schema.Field(field)
	if !ok {
		return &FieldError{Field: field, Err: errors.New("unknown field")}
	}
	if f.ReadOnly {
		return &FieldError{Field: field, Err: errReadOnly}
	}
	d.draft[field] = value
	if ref, ok := d.schema.Reference(field); ok {
		delete(d.labels, field)
		if ref.LabelField != "" {
			if _, present := d.draft[ref.LabelField]; present {
				d.draft[ref.LabelField] = nil
			}
		}
	}
	return nil
}

// EditLine changes one field of line item i.
func (d *Detail) EditLine(i int, field string, value any) error {
	lines, err := d.editableLines()
	if err != nil {
		return err
	}
	if i < 0 || i >= len(lines) {
		return fmt.Errorf("line %d out of range", i+1)
	}
	f, ok := d.schema.LineField(field)
	if !ok {
		return &FieldError{Field: field, Err: errors.New("unknown field")}
	}
	if f.ReadOnly {
		return &FieldError{Field: field, Err: errReadOnly}
	}
	line := Record(lines[i].(map[string]any)).Clone()
	line[field] = value
	lines[i] = map[string]any(line)
	d.draft[d.schema.LinesField] = lines
	return nil
}

// AddLine appends a line item to the draft.
func (d *Detail) AddLine(line Record) error {
	lines, err := d.editableLines()
	if err != nil {
		return err
	}
	d.draft[d.schema.LinesField] = append(lines, map[string]any(line.Clone()))
	return nil
}

// RemoveLine drops line item i from the draft.
func (d *Detail) RemoveLine(i int) error {
	lines, err := d.editableLines()
	if err != nil {
		return err
	}
	if i < 0 || i >= len(lines) {
		return fmt.Errorf("line %d out of range", i+1)
	}
	d.draft[d.schema.LinesField] = append(lines[:i:i], lines[i+1:]...)
	return nil
}

// editableLines returns a fresh copy of the draft's line slice.
func (d *Detail) editableLines() ([]any, error) {
	if d.schema.LinesField == "" {
		return nil, errors.New("record has no line items")
	}
	if !d.editing {
		return nil, ErrNotEditing
	}
	if !d.LinesEditable() {
		return nil, ErrLocked
	}
	var lines []any
	for _, l := range d.draft.Lines(d.schema.LinesField) {
		lines = append(lines, map[string]any(l))
	}
	return lines, nil
}

// PrepareSave validates the draft and builds the update request.
// Nothing is sent when the draft is unchanged or a required field is
// missing.
func (d *Detail) PrepareSave() (Mutation, error) {
	if d.state != StateReady {
		return Mutation{}, ErrNotReady
	}
	changes := d.changes()
	if len(changes) == 0 {
		return Mutation{}, ErrNotDirty
	}
	if err := d.schema.Validate(d.draft); err != nil {
		return Mutation{}, err
	}

	m := Mutation{Method: http.MethodPatch, Path: d.schema.ItemPath(d.id), Body: changes}
	if d.schema.Update == UpdatePut {
		m.Method = http.MethodPut
		m.Body = d.schema.writable(d.draft)
	}
	return m, nil
}

// Send performs a prepared save. When the server answers without the
// record, the record is fetched again so the caller always gets the
// server's copy.
func (d *Detail) Send(ctx context.Context, m Mutation) (Record, error) {
	rec, err := m.Send(ctx, d.backend)
	if err != nil {
		return nil, err
	}
	if _, ok := rec.ID(); ok {
		return rec, nil
	}
	l, err := d.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return l.Record, nil
}

// ApplySave installs the server's answer to a save. On failure the
// draft and edit mode stay so the user can correct and retry.
func (d *Detail) ApplySave(rec Record, err error) error {
	if err != nil {
		d.err = err
		return err
	}
	d.snapshot = rec
	d.draft = rec.Clone()
	d.editing = false
	d.err = nil
	d.labels = map[string]string{}
	return nil
}

// Save sends the draft and re-syncs from the response.
func (d *Detail) Save(ctx context.Context) error {
	m, err := d.PrepareSave()
	if err != nil {
		return err
	}
	rec, err := d.Send(ctx, m)
	return d.ApplySave(rec, err)
}

// DeleteMutation builds the delete request for the current record.
func (d *Detail) DeleteMutation() (Mutation, error) {
	if d.state != StateReady {
		return Mutation{}, ErrNotReady
	}
	return Mutation{Method: http.MethodDelete, Path: d.schema.ItemPath(d.id)}, nil
}

// Delete removes the record. Callers gate it behind a confirmation.
func (d *Detail) Delete(ctx context.Context) error {
	m, err := d.DeleteMutation()
	if err != nil {
		return err
	}
	_, err = m.Send(ctx, d.backend)
	return err
}

// Label returns the resolved label of a reference field.
func (d *Detail) Label(field string) (string, bool) {
	l, ok := d.labels[field]
	return l, ok
}

// SetLabel records a resolved reference label.
func (d *Detail) SetLabel(field, label string) {
	d.labels[field] = label
}

// Unresolved returns the references that still need a label.
func (d *Detail) Unresolved() []Reference {
	var refs []Reference
	for _, r := range d.schema.References {
		if _, ok := d.labels[r.Field]; !ok {
			refs = append(refs, r)
		}
	}
	return refs
}

// ResolveReferences fills the label of every unresolved reference.
// Failed resolutions show their placeholder; the rest are unaffected.
func (d *Detail) ResolveReferences(ctx context.Context, r *Resolver) []Resolution {
	if d.state != StateReady {
		return nil
	}
	var out []Resolution
	for _, res := range r.ResolveAll(ctx, d.schema, d.snapshot) {
		if _, ok := d.labels[res.Field]; ok {
			continue
		}
		d.labels[res.Field] = res.Label
		out = append(out, res)
	}
	return out
}
