package resource

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/mikelcalvo/erp-admin/internal/apitest"
)

func customerSchema() *Schema {
	return &Schema{
		Name:     "customers",
		Title:    "Customers",
		Singular: "Customer",
		Path:     "customers/",
		ItemGet:  true,
		Fields: []Field{
			{Key: "name", Label: "Name", Column: true},
			{Key: "phone", Label: "Phone", Column: true},
			{Key: "city", Label: "City"},
			{Key: "balance", Label: "Balance", Kind: KindDecimal, ReadOnly: true},
		},
		Required:     []Requirement{{Field: "name"}},
		SearchFields: []string{"name", "phone"},
		FilterFields: []string{"city"},
	}
}

func accountSchema() *Schema {
	return &Schema{
		Name:     "accounts",
		Title:    "Accounts",
		Singular: "Account",
		Path:     "accounts/",
		Fields: []Field{
			{Key: "name", Label: "Name", Column: true},
			{Key: "company_id", Label: "Company", Kind: KindRef},
		},
		Required: []Requirement{
			{Field: "company_id", Message: "Choose a company"},
			{Field: "name"},
		},
		References: []Reference{
			{Field: "company_id", LabelField: "company_name", Resource: "companies/", Placeholder: "Company not loaded"},
		},
	}
}

func returnSchema() *Schema {
	return &Schema{
		Name:     "returns",
		Title:    "Returns from clients",
		Singular: "Return",
		Path:     "documents/",
		Query:    url.Values{"type": {"return_from_client"}},
		ItemGet:  true,
		Fields: []Field{
			{Key: "number", Label: "Number", Column: true},
			{Key: "status", Label: "Status", ReadOnly: true, Column: true},
			{Key: "customer_id", Label: "Customer", Kind: KindRef},
			{Key: "warehouse_id", Label: "Warehouse", Kind: KindRef},
		},
		Required: []Requirement{{Field: "customer_id", Message: "Choose a customer"}},
		References: []Reference{
			{Field: "customer_id", LabelField: "customer_name", Resource: "customers/", Placeholder: "Customer not loaded"},
			{Field: "warehouse_id", LabelField: "warehouse_name", Resource: "warehouses/", Placeholder: "Warehouse not loaded"},
		},
		LinesField: "items",
		LineFields: []Field{
			{Key: "product_id", Label: "Product", Kind: KindRef},
			{Key: "quantity", Label: "Quantity", Kind: KindDecimal},
			{Key: "total", Label: "Total", Kind: KindDecimal, ReadOnly: true},
		},
		Locked: func(r Record) bool { return r.Text("status") != "draft" },
	}
}

func seedCustomers(s *apitest.Server, opts ...apitest.CollectionOption) {
	s.Seed("customers", []map[string]any{
		{"id": 1, "name": "Acme", "phone": "111", "city": "Oslo", "balance": "10.50"},
		{"id": 2, "name": "Bolt", "phone": "222", "city": "Bergen", "balance": "0"},
		{"id": 3, "name": "Crane", "phone": "333", "city": "Oslo", "balance": "7"},
	}, opts...)
}

func upperName(m map[string]any) {
	if name, ok := m["name"].(string); ok {
		m["name"] = strings.ToUpper(strings.TrimSpace(name))
	}
}

func loadDetail(t *testing.T, s *apitest.Server, schema *Schema, id int64) *Detail {
	t.Helper()
	d := NewDetail(schema, s.Client(t))
	if err := d.Load(context.Background(), id); err != nil {
		t.Fatalf("load %d: %v", id, err)
	}
	return d
}

func ids(recs []Record) []int64 {
	out := make([]int64, 0, len(recs))
	for _, r := range recs {
		id, _ := r.ID()
		out = append(out, id)
	}
	return out
}
