package models

import "time"

// OptionGreeks represents the gateway's option model output. All fields are
// optional; a nil field means the gateway had not computed a model value for
// that quote cycle.
type OptionGreeks struct {
	Delta             *float64 `json:"delta,omitempty"`
	Gamma             *float64 `json:"gamma,omitempty"`
	Theta             *float64 `json:"theta,omitempty"`
	Vega              *float64 `json:"vega,omitempty"`
	Rho               *float64 `json:"rho,omitempty"`
	ImpliedVolatility *float64 `json:"implied_volatility,omitempty"`
	UnderlyingPrice   *float64 `json:"underlying_price,omitempty"`
	OptionPrice       *float64 `json:"option_price,omitempty"`
	PvDividend        *float64 `json:"pv_dividend,omitempty"`
}

// OptionQuote represents one side (call or put) of a chain strike.
type OptionQuote struct {
	Bid          *float64      `json:"bid,omitempty"`
	Ask          *float64      `json:"ask,omitempty"`
	Last         *float64      `json:"last,omitempty"`
	Volume       *int64        `json:"volume,omitempty"`
	OpenInterest *int64        `json:"open_interest,omitempty"`
	Greeks       *OptionGreeks `json:"greeks,omitempty"`
}

// OptionChainStrike represents a single strike in an option chain. Call and
// put sides are independently optional; a strike may carry data for one side
// only when the other side's fetch failed or the contract does not trade.
type OptionChainStrike struct {
	Strike float64      `json:"strike"`
	Expiry string       `json:"expiry"`
	Call   *OptionQuote `json:"call,omitempty"`
	Put    *OptionQuote `json:"put,omitempty"`
}

// OptionChain represents an ATM-centered option chain for one expiry.
// Strikes are sorted ascending.
type OptionChain struct {
	Symbol          string              `json:"symbol"`
	UnderlyingPrice float64             `json:"underlying_price"`
	Expiry          string              `json:"expiry"`
	Strikes         []OptionChainStrike `json:"strikes"`
	Timestamp       time.Time           `json:"timestamp"`
}
