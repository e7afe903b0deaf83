package document

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mikelcalvo/erp-admin/internal/logger"
	"github.com/mikelcalvo/erp-admin/internal/resource"
)

// Document is the typed view of a document record.
type Document struct {
	ID           int64           `json:"id"`
	Kind         Kind            `json:"type"`
	Number       string          `json:"number"`
	Date         string          `json:"date"`
	Status       Status          `json:"status"`
	CustomerID   *int64          `json:"customer_id"`
	SupplierID   *int64          `json:"supplier_id"`
	WarehouseID  *int64          `json:"warehouse_id"`
	TradePointID *int64          `json:"trade_point_id"`
	Total        decimal.Decimal `json:"total"`
	Items        []LineItem      `json:"items"`
}

// LineItem is one product row of a document.
type LineItem struct {
	ProductID      int64           `json:"product_id"`
	ProductName    string          `json:"product_name"`
	TradePointID   *int64          `json:"trade_point_id"`
	TradePointName string          `json:"trade_point_name"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit"`
	Price          decimal.Decimal `json:"price"`
	VATRate        decimal.Decimal `json:"vat_rate"`
	VATAmount      decimal.Decimal `json:"vat_amount"`
	Total          decimal.Decimal `json:"total"`
}

// Decode converts a decoded record into a Document. kind fills in the
// type for endpoints that do not send one. Fields are read the way the
// record pipeline reads them: numeric or string ids, any number spelling,
// null as absent. Only a missing id or an unknown status is an error.
func Decode(rec map[string]any, kind Kind) (*Document, error) {
	r := resource.Record(rec)
	id, ok := r.ID()
	if !ok {
		return nil, fmt.Errorf("decode document: missing id")
	}
	status, err := ParseStatus(r.Text("status"))
	if err != nil {
		return nil, fmt.Errorf("decode document %d: %w", id, err)
	}
	doc := &Document{
		ID:           id,
		Kind:         Kind(r.Text("type")),
		Number:       r.Text("number"),
		Date:         r.Text("date"),
		Status:       status,
		CustomerID:   optionalID(r, "customer_id"),
		SupplierID:   optionalID(r, "supplier_id"),
		WarehouseID:  optionalID(r, "warehouse_id"),
		TradePointID: optionalID(r, "trade_point_id"),
		Total:        amount(r, "total"),
	}
	if doc.Kind == "" {
		doc.Kind = kind
	}
	for _, line := range r.Lines("items") {
		productID, _ := line.Int("product_id")
		doc.Items = append(doc.Items, LineItem{
			ProductID:      productID,
			ProductName:    line.Text("product_name"),
			TradePointID:   optionalID(line, "trade_point_id"),
			TradePointName: line.Text("trade_point_name"),
			Quantity:       amount(line, "quantity"),
			Unit:           line.Text("unit"),
			Price:          amount(line, "price"),
			VATRate:        amount(line, "vat_rate"),
			VATAmount:      amount(line, "vat_amount"),
			Total:          amount(line, "total"),
		})
	}
	return doc, nil
}

// DecodeAll converts a collection. Records that cannot be decoded are
// logged and skipped.
func DecodeAll(recs []map[string]any, kind Kind) []*Document {
	log := logger.WithComponent("document")
	docs := make([]*Document, 0, len(recs))
	for _, rec := range recs {
		doc, err := Decode(rec, kind)
		if err != nil {
			log.Warn().Err(err).Str("kind", string(kind)).Msg("skipping document")
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}

func optionalID(r resource.Record, field string) *int64 {
	id, ok := r.Int(field)
	if !ok {
		return nil
	}
	return &id
}

func amount(r resource.Record, field string) decimal.Decimal {
	d, _ := r.Decimal(field)
	return d
}

// LinesEditable reports whether the document's items may still change.
func (d *Document) LinesEditable() bool {
	return LinesEditable(d.Status)
}

// Available returns the workflow actions offered for the document now.
func (d *Document) Available() []Action {
	return d.Kind.Available(d.Status)
}

// LinesTotal sums the line totals, falling back to quantity × price for
// lines the server sent without a total.
func (d *Document) LinesTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range d.Items {
		if it.Total.IsZero() {
			sum = sum.Add(it.Quantity.Mul(it.Price))
			continue
		}
		sum = sum.Add(it.Total)
	}
	return sum
}
