package domain

import "math"

// PriceLevel is a single price and volume entry in a synthetic order book.
type PriceLevel struct {
	Price  float64 `json:"price"`
	Volume int64   `json:"volume"`
}

// OrderBook holds bid and ask levels ordered best to worst.
type OrderBook struct {
	Asset string       `json:"asset,omitempty"`
	Bids  []PriceLevel `json:"bids"`
	Asks  []PriceLevel `json:"asks"`
}

// BestBid returns the highest bid, or 0 when there are no bids.
func (b OrderBook) BestBid() float64 {
	if len(b.Bids) == 0 {
		return 0
	}
	return b.Bids[0].Price
}

// BestAsk returns the lowest ask, or +Inf when there are no asks.
func (b OrderBook) BestAsk() float64 {
	if len(b.Asks) == 0 {
		return math.Inf(1)
	}
	return b.Asks[0].Price
}

// TotalVolume sums the volume on both sides of the book.
func (b OrderBook) TotalVolume() int64 {
	var total int64
	for _, l := range b.Bids {
		total += l.Volume
	}
	for _, l := range b.Asks {
		total += l.Volume
	}
	return total
}
