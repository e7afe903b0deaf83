package document

import (
	"sort"

	"github.com/shopspring/decimal"
)

// PriceSummary aggregates the prices set for one product at one trade point.
type PriceSummary struct {
	ProductID      int64
	ProductName    string
	TradePointID   int64
	TradePointName string
	Count          int
	Min            decimal.Decimal
	Max            decimal.Decimal
	Average        decimal.Decimal
}

// SummarizePrices groups the items of price-setting documents by product
// and trade point. An item without its own trade point inherits the
// document's. Cancelled documents are ignored. Averages are rounded to
// two decimals.
func SummarizePrices(docs []*Document) []PriceSummary {
	type key struct{ product, point int64 }
	groups := map[key]*PriceSummary{}
	sums := map[key]decimal.Decimal{}

	for _, doc := range docs {
		if doc.Status == Cancelled {
			continue
		}
		for _, it := range doc.Items {
			point := it.TradePointID
			if point == nil {
				point = doc.TradePointID
			}
			k := key{product: it.ProductID}
			if point != nil {
				k.point = *point
			}

			g, ok := groups[k]
			if !ok {
				g = &PriceSummary{
					ProductID:    k.product,
					TradePointID: k.point,
					Min:          it.Price,
					Max:          it.Price,
				}
				groups[k] = g
			}
			if g.ProductName == "" {
				g.ProductName = it.ProductName
			}
			if g.TradePointName == "" {
				g.TradePointName = it.TradePointName
			}
			g.Count++
			g.Min = decimal.Min(g.Min, it.Price)
			g.Max = decimal.Max(g.Max, it.Price)
			sums[k] = sums[k].Add(it.Price)
		}
	}

	out := make([]PriceSummary, 0, len(groups))
	for k, g := range groups {
		g.Average = sums[k].DivRound(decimal.NewFromInt(int64(g.Count)), 2)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].TradePointID < out[j].TradePointID
	})
	return out
}

// ReturnSummary totals the returned quantity and amount of one product.
type ReturnSummary struct {
	ProductID   int64
	ProductName string
	Documents   int
	Quantity    decimal.Decimal
	Amount      decimal.Decimal
}

// SummarizeReturns groups the items of return documents by product.
// Drafts and cancelled returns are not counted: only approved or posted
// returns moved goods.
func SummarizeReturns(docs []*Document) []ReturnSummary {
	groups := map[int64]*ReturnSummary{}
	seen := map[int64]map[int64]bool{}

	for _, doc := range docs {
		if doc.Status != Approved && doc.Status != Posted {
			continue
		}
		for _, it := range doc.Items {
			g, ok := groups[it.ProductID]
			if !ok {
				g = &ReturnSummary{ProductID: it.ProductID}
				groups[it.ProductID] = g
				seen[it.ProductID] = map[int64]bool{}
			}
			if g.ProductName == "" {
				g.ProductName = it.ProductName
			}
			if !seen[it.ProductID][doc.ID] {
				seen[it.ProductID][doc.ID] = true
				g.Documents++
			}
			amount := it.Total
			if amount.IsZero() {
				amount = it.Quantity.Mul(it.Price)
			}
			g.Quantity = g.Quantity.Add(it.Quantity)
			g.Amount = g.Amount.Add(amount)
		}
	}

	out := make([]ReturnSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
