package stochastic

import (
	"math"
	"math/rand"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

// levelTaper is the fraction of base volume removed per level of depth.
const levelTaper = 0.05

// GenerateOrderBook synthesizes depth bid levels below and depth ask levels
// above currentPrice. The inside quotes sit half the spread away from the
// price, each further level steps out by priceStep jittered by ±20%, and
// level volume tapers by 5% of baseVolume per level with ±20% noise.
func GenerateOrderBook(rng *rand.Rand, currentPrice float64, depth int, spreadPercent float64, baseVolume int64, priceStep float64) domain.OrderBook {
	halfSpread := currentPrice * spreadPercent / 200
	bidPrice := currentPrice - halfSpread
	askPrice := currentPrice + halfSpread

	book := domain.OrderBook{
		Bids: make([]domain.PriceLevel, 0, max(depth, 0)),
		Asks: make([]domain.PriceLevel, 0, max(depth, 0)),
	}
	for i := 0; i < depth; i++ {
		book.Bids = append(book.Bids, domain.PriceLevel{
			Price:  round2(bidPrice),
			Volume: levelVolume(rng, baseVolume, i),
		})
		bidPrice -= priceStep * Uniform(rng, 0.8, 1.2)
	}
	for i := 0; i < depth; i++ {
		book.Asks = append(book.Asks, domain.PriceLevel{
			Price:  round2(askPrice),
			Volume: levelVolume(rng, baseVolume, i),
		})
		askPrice += priceStep * Uniform(rng, 0.8, 1.2)
	}
	return book
}

func levelVolume(rng *rand.Rand, base int64, level int) int64 {
	v := int64(float64(base) * (1 - float64(level)*levelTaper) * Uniform(rng, 0.8, 1.2))
	return max(v, 0)
}

// MarketLiquidity is total book volume divided by the inside spread. It
// returns +Inf when the spread is zero or negative. An empty ask side has an
// infinite best ask and therefore zero liquidity.
func MarketLiquidity(book domain.OrderBook) float64 {
	spread := book.BestAsk() - book.BestBid()
	if spread <= 0 {
		return math.Inf(1)
	}
	return float64(book.TotalVolume()) / spread
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
