package analytics

import (
	"sort"

	"github.com/copydesk/copydesk/internal/domain"
)

// SymbolActivity aggregates recent executed trades for one symbol.
type SymbolActivity struct {
	Symbol      string  `json:"symbol"`
	Volume      float64 `json:"volume"`
	Trades      int     `json:"trades"`
	FirstPrice  float64 `json:"first_price"`
	LastPrice   float64 `json:"last_price"`
	PriceChange float64 `json:"price_change"` // percent, first to last
	BuyCount    int     `json:"buy_count"`
	SellCount   int     `json:"sell_count"`
}

// MarketOverview folds trades into per-symbol activity summaries, ordered by
// descending volume. First and last prices are taken by created_at order;
// PriceChange is the percentage move between them, 0 when the first price is
// zero.
func MarketOverview(trades []domain.Trade) []SymbolActivity {
	type acc struct {
		SymbolActivity
		firstAt int64
		lastAt  int64
	}

	bySymbol := make(map[string]*acc)
	for _, t := range trades {
		at := t.CreatedAt.UnixNano()
		a, ok := bySymbol[t.Symbol]
		if !ok {
			a = &acc{
				SymbolActivity: SymbolActivity{Symbol: t.Symbol, FirstPrice: safe(t.Price), LastPrice: safe(t.Price)},
				firstAt:        at,
				lastAt:         at,
			}
			bySymbol[t.Symbol] = a
		}
		a.Volume += safe(t.TotalValue)
		a.Trades++
		if t.Side == domain.TradeSideBuy {
			a.BuyCount++
		} else {
			a.SellCount++
		}
		if at < a.firstAt {
			a.firstAt = at
			a.FirstPrice = safe(t.Price)
		}
		if at >= a.lastAt {
			a.lastAt = at
			a.LastPrice = safe(t.Price)
		}
	}

	out := make([]SymbolActivity, 0, len(bySymbol))
	for _, a := range bySymbol {
		if a.FirstPrice != 0 {
			a.PriceChange = round2((a.LastPrice - a.FirstPrice) / a.FirstPrice * 100)
		}
		out = append(out, a.SymbolActivity)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Volume > out[j].Volume })
	return out
}
