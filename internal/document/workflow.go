package document

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/mikelcalvo/erp-admin/internal/logger"
	"github.com/mikelcalvo/erp-admin/internal/resource"
)

// Backend is what the workflow needs from the API client: the record
// pipeline plus a raw GET for the action endpoints.
type Backend interface {
	resource.Backend
	Get(ctx context.Context, path string, query url.Values, out any) error
}

// Request is a checked transition, ready to send.
type Request struct {
	Kind   Kind
	ID     int64
	Action Action
	From   Status
	To     Status
	Path   string
	Query  url.Values
}

// Workflow applies document transitions through the action endpoints.
type Workflow struct {
	backend Backend
	log     zerolog.Logger
}

// NewWorkflow creates a workflow over backend.
func NewWorkflow(backend Backend) *Workflow {
	return &Workflow{backend: backend, log: logger.WithComponent("workflow")}
}

// Prepare checks that the document loaded in d may take action and builds
// the request. The document's current status comes from the snapshot,
// never from the draft.
func (w *Workflow) Prepare(d *resource.Detail, kind Kind, action Action) (Request, error) {
	if d.State() != resource.StateReady {
		return Request{}, resource.ErrNotReady
	}
	from, err := ParseStatus(d.Snapshot().Text("status"))
	if err != nil {
		return Request{}, err
	}
	to, err := Next(from, action)
	if err != nil {
		return Request{}, err
	}
	path, query, err := kind.Endpoint(d.ID(), action)
	if err != nil {
		return Request{}, err
	}
	return Request{
		Kind:   kind,
		ID:     d.ID(),
		Action: action,
		From:   from,
		To:     to,
		Path:   path,
		Query:  query,
	}, nil
}

// Send calls the action endpoint. The response body carries nothing the
// console uses; the document must be reloaded afterwards.
func (w *Workflow) Send(ctx context.Context, req Request) error {
	if err := w.backend.Get(ctx, req.Path, req.Query, nil); err != nil {
		return fmt.Errorf("%s %s %d: %w", req.Action, req.Kind, req.ID, err)
	}
	w.log.Info().
		Str("kind", string(req.Kind)).
		Int64("id", req.ID).
		Str("action", req.Action.String()).
		Str("from", req.From.String()).
		Str("to", req.To.String()).
		Msg("document transition")
	return nil
}

// Transition applies action to the document loaded in d and reloads it
// from the server, since totals and VAT are recomputed server-side.
func (w *Workflow) Transition(ctx context.Context, d *resource.Detail, kind Kind, action Action) (*Document, error) {
	req, err := w.Prepare(d, kind, action)
	if err != nil {
		return nil, err
	}
	if err := w.Send(ctx, req); err != nil {
		return nil, err
	}
	if err := d.Reload(ctx); err != nil {
		return nil, fmt.Errorf("reload after %s: %w", action, err)
	}
	doc, err := Decode(d.Snapshot(), kind)
	if err != nil {
		// the server applied the action; report what the reload shows
		w.log.Warn().Err(err).Int64("id", req.ID).Msg("reloaded document not decoded")
		doc = &Document{ID: req.ID, Kind: kind, Number: d.Snapshot().Text("number"), Status: req.To}
		if s, perr := ParseStatus(d.Snapshot().Text("status")); perr == nil {
			doc.Status = s
		}
	}
	if doc.Status != req.To {
		w.log.Warn().
			Int64("id", req.ID).
			Str("expected", req.To.String()).
			Str("got", doc.Status.String()).
			Msg("document status after transition differs")
	}
	return doc, nil
}

// Load fetches every document of kind.
func (w *Workflow) Load(ctx context.Context, kind Kind) ([]*Document, error) {
	recs, err := w.backend.GetCollection(ctx, kind.ListPath(), kind.ListQuery())
	if err != nil {
		return nil, fmt.Errorf("load %s documents: %w", kind, err)
	}
	return DecodeAll(recs, kind), nil
}
