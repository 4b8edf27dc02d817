package normalize

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"ibkr-trader/internal/gateway"
)

// Property: the resolved quote price follows the fallback chain exactly.
// When both book sides are positive the price is their midpoint; otherwise
// the first positive of last and close wins; with nothing usable the price
// is 0. The price is never negative.
func TestProperty_QuotePriceFollowsFallbackChain(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	tick := gen.Float64Range(-5, 500)

	properties.Property("price matches fallback chain", prop.ForAll(
		func(bid, ask, last, close float64) bool {
			snap := &gateway.Snapshot{Bid: bid, Ask: ask, Last: last, Close: close}
			quote := Quote("X", snap)

			var want float64
			switch {
			case bid > 0 && ask > 0:
				want = (bid + ask) / 2
			case last > 0:
				want = last
			case close > 0:
				want = close
			default:
				want = 0
			}
			return quote.Price == want && quote.Price >= 0
		},
		tick, tick, tick, tick,
	))

	properties.Property("optional fields present iff tick positive", prop.ForAll(
		func(bid, ask float64) bool {
			quote := Quote("X", &gateway.Snapshot{Bid: bid, Ask: ask})
			if (quote.Bid != nil) != (bid > 0) {
				return false
			}
			return (quote.Ask != nil) == (ask > 0)
		},
		tick, tick,
	))

	properties.TestingRun(t)
}

// Property: remaining quantity never exceeds the order's total and the
// fallback only engages on completely unfilled orders.
func TestProperty_OrderRemainingFallback(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("remaining fallback engages only when unfilled", prop.ForAll(
		func(total, filled float64) bool {
			if filled > total {
				filled = total
			}
			rec := gateway.OrderRecord{
				Contract:      gateway.Contract{Symbol: "X", SecType: "STK"},
				TotalQuantity: total,
				Filled:        filled,
				Remaining:     total - filled,
			}
			order := Order(rec)
			if filled == 0 && total-filled == 0 {
				return order.RemainingQuantity == total
			}
			return order.RemainingQuantity == total-filled
		},
		gen.Float64Range(0, 10000),
		gen.Float64Range(0, 10000),
	))

	properties.TestingRun(t)
}
