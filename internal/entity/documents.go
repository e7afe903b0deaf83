package entity

import (
	"github.com/mikelcalvo/erp-admin/internal/document"
	"github.com/mikelcalvo/erp-admin/internal/resource"
)

var lineFields = []resource.Field{
	{Key: "product_id", Label: "Product", Kind: resource.KindRef},
	{Key: "quantity", Label: "Qty", Kind: resource.KindDecimal, Width: 8},
	{Key: "unit", Label: "Unit", Width: 6},
	{Key: "price", Label: "Price", Kind: resource.KindDecimal, Width: 10},
	{Key: "vat_rate", Label: "VAT %", Kind: resource.KindDecimal, Width: 6},
	{Key: "vat_amount", Label: "VAT", Kind: resource.KindDecimal, ReadOnly: true, Width: 10},
	{Key: "total", Label: "Total", Kind: resource.KindDecimal, ReadOnly: true, Width: 12},
}

var priceLineFields = []resource.Field{
	{Key: "product_id", Label: "Product", Kind: resource.KindRef},
	{Key: "trade_point_id", Label: "Trade point", Kind: resource.KindRef},
	{Key: "old_price", Label: "Old price", Kind: resource.KindDecimal, ReadOnly: true, Width: 10},
	{Key: "price", Label: "New price", Kind: resource.KindDecimal, Width: 10},
}

// counterparty is a reference a document kind cannot be saved without.
type counterparty struct {
	ref     resource.Reference
	label   string
	message string
}

func documentSchema(kind document.Kind, name, title, singular string, parties ...counterparty) *resource.Schema {
	s := &resource.Schema{
		Name:     name,
		Title:    title,
		Singular: singular,
		Path:     kind.ListPath(),
		Query:    kind.ListQuery(),
		ItemGet:  kind.HasItemGet(),
		Fields: []resource.Field{
			{Key: "number", Label: "Number", Column: true, Width: 12},
			{Key: "date", Label: "Date", Column: true, Width: 10},
			{Key: "status", Label: "Status", ReadOnly: true, Column: true, Width: 10},
		},
		SearchFields: []string{"number"},
		FilterFields: []string{"status"},
		LinesField:   "items",
		LineFields:   lineFields,
		Locked:       documentLocked,
	}
	if q := kind.ListQuery(); q != nil {
		s.Defaults = map[string]any{"type": string(kind)}
	}
	for _, p := range parties {
		s.Fields = append(s.Fields, resource.Field{Key: p.ref.Field, Label: p.label, Kind: resource.KindRef})
		s.Required = append(s.Required, resource.Requirement{Field: p.ref.Field, Message: p.message})
		s.References = append(s.References, p.ref)
		s.FilterFields = append(s.FilterFields, p.ref.Field)
	}
	s.Fields = append(s.Fields, resource.Field{Key: "total", Label: "Total", Kind: resource.KindDecimal, ReadOnly: true, Column: true, Width: 12})
	return s
}

func init() {
	supplier := counterparty{supplierRef(), "Supplier", "Choose a supplier"}
	customer := counterparty{customerRef(), "Customer", "Choose a customer"}
	warehouse := counterparty{warehouseRef(), "Warehouse", "Choose a warehouse"}
	tradePoint := counterparty{tradePointRef(), "Trade point", "Choose a trade point"}

	registerDocument(document.Receipt,
		documentSchema(document.Receipt, "receipts", "Receipts", "Receipt", supplier, warehouse))
	registerDocument(document.Sale,
		documentSchema(document.Sale, "sales", "Sales", "Sale", customer, tradePoint))
	registerDocument(document.ReturnFromClient,
		documentSchema(document.ReturnFromClient, "client-returns", "Returns from clients", "Return from client", customer, warehouse))
	registerDocument(document.ReturnToSupplier,
		documentSchema(document.ReturnToSupplier, "supplier-returns", "Returns to suppliers", "Return to supplier", supplier, warehouse))

	prices := documentSchema(document.PriceSetting, "price-settings", "Price settings", "Price setting", tradePoint)
	prices.LineFields = priceLineFields
	prices.Update = resource.UpdatePut
	registerDocument(document.PriceSetting, prices)
}
