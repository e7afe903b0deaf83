// Package entity declares the resources the console manages: endpoints,
// fields, required fields and the references between them.
package entity

import (
	"sort"

	"github.com/mikelcalvo/erp-admin/internal/document"
	"github.com/mikelcalvo/erp-admin/internal/resource"
)

// Group is a menu section.
type Group struct {
	Title   string
	Entries []string
}

// Groups lists the menu sections in display order.
var Groups = []Group{
	{Title: "Organization", Entries: []string{"companies", "firms", "accounts", "warehouses", "trade-points"}},
	{Title: "Catalog", Entries: []string{"products", "suppliers", "customers", "contracts"}},
	{Title: "Documents", Entries: []string{"receipts", "sales", "client-returns", "supplier-returns", "price-settings"}},
}

var (
	registry = map[string]*resource.Schema{}
	kinds    = map[string]document.Kind{}
)

func register(s *resource.Schema) {
	if _, dup := registry[s.Name]; dup {
		panic("entity: duplicate schema " + s.Name)
	}
	registry[s.Name] = s
}

func registerDocument(kind document.Kind, s *resource.Schema) {
	register(s)
	kinds[s.Name] = kind
}

// Lookup returns the schema registered under name.
func Lookup(name string) (*resource.Schema, bool) {
	s, ok := registry[name]
	return s, ok
}

// Names returns every registered name, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DocumentKind returns the document kind of a schema, if it is one.
func DocumentKind(name string) (document.Kind, bool) {
	k, ok := kinds[name]
	return k, ok
}

// ByKind returns the schema of a document kind.
func ByKind(kind document.Kind) (*resource.Schema, bool) {
	for name, k := range kinds {
		if k == kind {
			return registry[name], true
		}
	}
	return nil, false
}

// documentLocked treats anything but a draft as read-only history. An
// unreadable status is locked too.
func documentLocked(r resource.Record) bool {
	s, err := document.ParseStatus(r.Text("status"))
	return err != nil || !document.LinesEditable(s)
}
