package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mikelcalvo/erp-admin/internal/apitest"
	"github.com/mikelcalvo/erp-admin/internal/config"
	"github.com/mikelcalvo/erp-admin/internal/entity"
)

// run executes the command line args against the fake backend and
// returns what the command printed.
func run(t *testing.T, s *apitest.Server, stdin string, args ...string) (string, error) {
	t.Helper()
	a := &app{setup: func() (*env, error) {
		return &env{
			cfg:    &config.Config{APIURL: s.URL(), PageSize: 20},
			client: s.Client(t),
			log:    zerolog.Nop(),
		}, nil
	}}
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestParseAssignments(t *testing.T) {
	customers, _ := entity.Lookup("customers")

	got, err := parseAssignments(customers, []string{"name=Acme Ltd", "discount=12,5", "phone="})
	if err != nil {
		t.Fatal(err)
	}
	if got["name"] != "Acme Ltd" {
		t.Errorf("name = %v", got["name"])
	}
	if got["discount"] != json.Number("12.5") {
		t.Errorf("discount = %#v", got["discount"])
	}
	if v, ok := got["phone"]; !ok || v != nil {
		t.Errorf("empty value should clear the field, got %v", v)
	}

	bad := [][]string{
		{"colour=red"},
		{"discount=lots"},
		{"name"},
		{"=x"},
	}
	for _, args := range bad {
		if _, err := parseAssignments(customers, args); err == nil {
			t.Errorf("%v: expected an error", args)
		}
	}

	accounts, _ := entity.Lookup("accounts")
	if _, err := parseAssignments(accounts, []string{"balance=10"}); err == nil || !strings.Contains(err.Error(), "read-only") {
		t.Errorf("read-only field accepted: %v", err)
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"yes", true},
		{"\n", false},
		{"n\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		if got := confirm(strings.NewReader(tt.in), &out, "Delete?"); got != tt.want {
			t.Errorf("confirm(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if !strings.Contains(out.String(), "[y/N]") {
			t.Errorf("prompt not printed: %q", out.String())
		}
	}
}

func TestUnknownEntity(t *testing.T) {
	_, err := lookupEntity("widgets")
	if err == nil || !strings.Contains(err.Error(), "customers") {
		t.Fatalf("err = %v", err)
	}
	if _, err := lookupEntity("Customers"); err != nil {
		t.Fatal(err)
	}
}

func TestVersionRunsWithoutConfig(t *testing.T) {
	a := &app{setup: func() (*env, error) { return nil, errors.New("no config") }}
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "ERP Admin v") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestListSearchesLocally(t *testing.T) {
	s := apitest.New(t)
	s.Seed("customers", []map[string]any{
		{"id": 1, "name": "Acme Ltd"},
		{"id": 2, "name": "Beta Foods"},
		{"id": 3, "name": "ACME Retail"},
	})

	out, err := run(t, s, "", "list", "customers", "--search", "acme")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Acme Ltd") || !strings.Contains(out, "ACME Retail") || strings.Contains(out, "Beta") {
		t.Fatalf("output = %q", out)
	}
	if !strings.Contains(out, "2 of 3 customers") {
		t.Fatalf("footer missing: %q", out)
	}
	if n := s.Count(http.MethodGet, "customers/"); n != 1 {
		t.Fatalf("loads = %d", n)
	}
}

func TestDeleteAsksFirst(t *testing.T) {
	s := apitest.New(t)
	s.Seed("customers", []map[string]any{{"id": 1, "name": "Acme"}})

	out, err := run(t, s, "n\n", "delete", "customers", "1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Cancelled") || len(s.Writes()) != 0 {
		t.Fatalf("declined delete: %q %v", out, s.Writes())
	}

	if _, err := run(t, s, "y\n", "delete", "customers", "1"); err != nil {
		t.Fatal(err)
	}
	writes := s.Writes()
	if len(writes) != 1 || writes[0].Method != http.MethodDelete || writes[0].Path != "customers/1/" {
		t.Fatalf("writes = %+v", writes)
	}
}

func TestSetSendsOnlyChanges(t *testing.T) {
	s := apitest.New(t)
	s.Seed("customers", []map[string]any{{"id": 1, "name": "Acme", "phone": "555-0101"}})

	out, err := run(t, s, "y\n", "set", "customers", "1", "name=Acme")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No changes to save") || len(s.Writes()) != 0 {
		t.Fatalf("unchanged set: %q %v", out, s.Writes())
	}

	out, err = run(t, s, "y\n", "set", "customers", "1", "phone=555-0199")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Save Customer #1? Changes: Phone.") {
		t.Fatalf("prompt = %q", out)
	}
	writes := s.Writes()
	if len(writes) != 1 || writes[0].Method != http.MethodPatch {
		t.Fatalf("writes = %+v", writes)
	}
	if len(writes[0].Body) != 1 || writes[0].Body["phone"] != "555-0199" {
		t.Fatalf("body = %v", writes[0].Body)
	}
}

func TestSetAsksFirst(t *testing.T) {
	s := apitest.New(t)
	s.Seed("customers", []map[string]any{{"id": 1, "name": "Acme"}})

	out, err := run(t, s, "n\n", "set", "customers", "1", "name=Acme Ltd")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Cancelled") || len(s.Writes()) != 0 {
		t.Fatalf("declined save: %q %v", out, s.Writes())
	}
	if rec, _ := s.Record("customers", 1); rec["name"] != "Acme" {
		t.Fatalf("record changed: %v", rec)
	}

	if _, err := run(t, s, "", "set", "customers", "1", "name=Acme Ltd", "--yes"); err != nil {
		t.Fatal(err)
	}
	if n := s.Count(http.MethodPatch, "customers/1/"); n != 1 {
		t.Fatalf("patches = %d", n)
	}
}

func TestSetValidatesBeforeAsking(t *testing.T) {
	s := apitest.New(t)
	s.Seed("firms", []map[string]any{{"id": 3, "name": "Mill", "company_id": 1, "vat_type": "standard"}})

	out, err := run(t, s, "y\n", "set", "firms", "3", "vat_type=")
	if err == nil {
		t.Fatal("missing VAT type accepted")
	}
	if strings.Contains(out, "[y/N]") || len(s.Writes()) != 0 {
		t.Fatalf("invalid save reached the prompt: %q %v", out, s.Writes())
	}
}

func TestApproveCommand(t *testing.T) {
	s := apitest.New(t)
	s.Seed("documents", []map[string]any{
		{"id": 1, "type": "sale", "number": "S-1", "status": "draft", "customer_id": 1, "trade_point_id": 2, "items": []any{}},
	})

	out, err := run(t, s, "", "approve", "sales", "1", "--yes")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Sale #1 is now approved") {
		t.Fatalf("output = %q", out)
	}
	if s.Count(http.MethodGet, "sale-action/") != 1 {
		t.Fatal("action endpoint not called")
	}

	if _, err := run(t, s, "", "approve", "sales", "1", "--yes"); err == nil {
		t.Fatal("approving twice should fail")
	}
	if _, err := run(t, s, "", "approve", "customers", "1"); err == nil || !strings.Contains(err.Error(), "not a document") {
		t.Fatalf("err = %v", err)
	}
}
