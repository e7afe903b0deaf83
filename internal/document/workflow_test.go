package document

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/mikelcalvo/erp-admin/internal/apitest"
	"github.com/mikelcalvo/erp-admin/internal/resource"
)

func documentSchema(kind Kind) *resource.Schema {
	return &resource.Schema{
		Name:     string(kind),
		Singular: "Document",
		Path:     kind.ListPath(),
		Query:    kind.ListQuery(),
		ItemGet:  kind.HasItemGet(),
		Fields: []resource.Field{
			{Key: "number", Label: "Number"},
			{Key: "status", Label: "Status", ReadOnly: true},
		},
		LinesField: "items",
		LineFields: []resource.Field{{Key: "quantity", Label: "Quantity", Kind: resource.KindDecimal}},
		Locked: func(r resource.Record) bool {
			s, err := ParseStatus(r.Text("status"))
			return err != nil || s != Draft
		},
	}
}

func loadDocument(t *testing.T, s *apitest.Server, kind Kind, id int64) *resource.Detail {
	t.Helper()
	d := resource.NewDetail(documentSchema(kind), s.Client(t))
	if err := d.Load(context.Background(), id); err != nil {
		t.Fatalf("load: %v", err)
	}
	return d
}

func TestApproveReloadsDocument(t *testing.T) {
	s := apitest.New(t)
	s.Seed("documents", []map[string]any{
		{"id": 1, "type": "sale", "number": "S-1", "status": "draft", "items": []any{
			map[string]any{"product_id": 3, "quantity": "2", "price": "9.90"},
		}},
	})
	d := loadDocument(t, s, Sale, 1)
	if !d.LinesEditable() {
		t.Fatal("draft lines not editable")
	}

	doc, err := NewWorkflow(s.Client(t)).Transition(context.Background(), d, Sale, Approve)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if doc.Status != Approved || doc.LinesEditable() {
		t.Fatalf("status = %s", doc.Status)
	}
	if d.Snapshot().Text("status") != "approved" {
		t.Fatalf("detail not reloaded: %v", d.Snapshot())
	}
	if d.LinesEditable() {
		t.Fatal("approved lines still editable")
	}
	if err := d.BeginEdit(); !errors.Is(err, resource.ErrLocked) {
		t.Fatalf("begin edit = %v, want ErrLocked", err)
	}

	var action apitest.Request
	for _, r := range s.Requests() {
		if r.Path == "sale-action/" {
			action = r
		}
	}
	if action.Method != http.MethodGet || action.Query.Get("id") != "1" || action.Query.Get("action") != "approve" {
		t.Fatalf("action request = %+v", action)
	}
	if s.Count(http.MethodGet, "documents/1/") != 2 {
		t.Fatal("document not fetched again after the transition")
	}
	if len(s.Writes()) != 0 {
		t.Fatalf("transition used plain writes: %+v", s.Writes())
	}
}

func TestUnapproveReturnsToDraft(t *testing.T) {
	s := apitest.New(t)
	s.Seed("documents", []map[string]any{{"id": 6, "type": "return_to_supplier", "status": "approved"}})
	d := loadDocument(t, s, ReturnToSupplier, 6)

	doc, err := NewWorkflow(s.Client(t)).Transition(context.Background(), d, ReturnToSupplier, Unapprove)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if doc.Status != Draft || !d.LinesEditable() {
		t.Fatalf("status = %s", doc.Status)
	}
	if s.Count(http.MethodGet, "return-action/") != 1 {
		t.Fatalf("requests = %+v", s.Requests())
	}
}

func TestProcessPriceSetting(t *testing.T) {
	s := apitest.New(t)
	s.Seed("price-settings", []map[string]any{
		{"id": 2, "status": "draft", "trade_point_id": 1},
	}, apitest.WithoutItemGet(), apitest.Enveloped())
	d := loadDocument(t, s, PriceSetting, 2)

	doc, err := NewWorkflow(s.Client(t)).Transition(context.Background(), d, PriceSetting, Process)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if doc.Status != Posted || doc.Kind != PriceSetting {
		t.Fatalf("doc = %+v", doc)
	}
	if !d.Degraded() {
		t.Fatal("price setting reload did not use the collection")
	}
}

func TestRefusedTransitionSendsNothing(t *testing.T) {
	s := apitest.New(t)
	s.Seed("documents", []map[string]any{{"id": 1, "type": "receipt", "status": "approved"}})
	d := loadDocument(t, s, Receipt, 1)
	before := len(s.Requests())

	w := NewWorkflow(s.Client(t))
	_, err := w.Transition(context.Background(), d, Receipt, Approve)
	var terr *TransitionError
	if !errors.As(err, &terr) || terr.From != Approved {
		t.Fatalf("err = %v, want transition error", err)
	}
	if _, err := w.Transition(context.Background(), d, Receipt, Process); err == nil {
		t.Fatal("receipt processed")
	}
	if len(s.Requests()) != before {
		t.Fatalf("refused transitions sent %d requests", len(s.Requests())-before)
	}
}

func TestRejectedTransitionKeepsDocument(t *testing.T) {
	s := apitest.New(t)
	s.Seed("documents", []map[string]any{{"id": 1, "type": "return_from_client", "status": "draft"}})
	s.Fail(http.MethodGet, "return-action/", http.StatusBadRequest, map[string]any{"detail": "Return has no items"})
	d := loadDocument(t, s, ReturnFromClient, 1)

	_, err := NewWorkflow(s.Client(t)).Transition(context.Background(), d, ReturnFromClient, Approve)
	if err == nil || err.Error() != "approve return_from_client 1: API error 400: Return has no items" {
		t.Fatalf("err = %v", err)
	}
	if d.Snapshot().Text("status") != "draft" {
		t.Fatalf("snapshot changed: %v", d.Snapshot())
	}
}

func TestWorkflowLoadFiltersByType(t *testing.T) {
	s := apitest.New(t)
	s.Seed("documents", []map[string]any{
		{"id": 1, "type": "sale", "status": "draft"},
		{"id": 2, "type": "receipt", "status": "approved"},
		{"id": 3, "type": "sale", "status": "approved", "total": "12.30"},
	})

	docs, err := NewWorkflow(s.Client(t)).Load(context.Background(), Sale)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != 1 || docs[1].ID != 3 {
		t.Fatalf("docs = %+v", docs)
	}
	if docs[1].Total.String() != "12.3" {
		t.Fatalf("total = %s", docs[1].Total)
	}
	var list apitest.Request
	for _, r := range s.Requests() {
		if r.Path == "documents/" {
			list = r
		}
	}
	if list.Query.Encode() != (url.Values{"type": {"sale"}}).Encode() {
		t.Fatalf("query = %v", list.Query)
	}
}
