// Package gateway provides the transport layer for the IBKR Client Portal
// Gateway and the raw record types it reports. Higher layers normalize these
// records into domain models; nothing in this package is exposed to callers
// of the session directly.
package gateway

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Contract identifies an instrument on the gateway. ConID is zero until the
// contract has been qualified.
type Contract struct {
	ConID      int
	Symbol     string
	SecType    string
	Exchange   string
	Currency   string
	Expiry     string
	Strike     float64
	Right      string
	Multiplier string
}

// Stock builds an unqualified stock contract.
func Stock(symbol, exchange, currency string) Contract {
	return Contract{
		Symbol:   symbol,
		SecType:  "STK",
		Exchange: exchange,
		Currency: currency,
	}
}

// Option builds an unqualified option contract.
func Option(symbol, expiry string, strike float64, right, exchange, currency string) Contract {
	return Contract{
		Symbol:   symbol,
		SecType:  "OPT",
		Exchange: exchange,
		Currency: currency,
		Expiry:   expiry,
		Strike:   strike,
		Right:    right,
	}
}

// LocalSymbol returns a stable per-contract key, used for quote symbols and
// subscription bookkeeping before a ConID is known.
func (c Contract) LocalSymbol() string {
	if c.SecType == "OPT" {
		return fmt.Sprintf("%s_%s_%g_%s", c.Symbol, c.Expiry, c.Strike, c.Right)
	}
	return c.Symbol
}

// AccountValue is one tag/value pair from the gateway's account ledger.
// Values arrive as strings; tags carrying non-numeric values (currency codes,
// account identifiers) are expected and filtered during normalization.
type AccountValue struct {
	Tag      string
	Value    string
	Currency string
	Account  string
}

// PortfolioItem is one raw position row.
type PortfolioItem struct {
	Contract      Contract
	Account       string
	Position      float64
	MarketPrice   float64
	MarketValue   float64
	AverageCost   float64
	UnrealizedPnL float64
	RealizedPnL   float64
}

// ModelGreeks is the gateway's option model output. Fields the model has not
// computed are NaN, never zero.
type ModelGreeks struct {
	Delta      float64
	Gamma      float64
	Theta      float64
	Vega       float64
	Rho        float64
	ImpliedVol float64
	UndPrice   float64
	OptPrice   float64
	PvDividend float64
}

// EmptyModelGreeks returns a ModelGreeks with every field absent.
func EmptyModelGreeks() ModelGreeks {
	nan := math.NaN()
	return ModelGreeks{
		Delta: nan, Gamma: nan, Theta: nan, Vega: nan, Rho: nan,
		ImpliedVol: nan, UndPrice: nan, OptPrice: nan, PvDividend: nan,
	}
}

// Snapshot is one raw market data read for a subscribed contract. Fields the
// gateway has not reported are zero; consumers treat only strictly positive
// values as usable.
type Snapshot struct {
	ConID  int
	Bid    float64
	Ask    float64
	Last   float64
	Close  float64
	Open   float64
	High   float64
	Low    float64
	Volume float64
	Greeks *ModelGreeks
	Time   time.Time
}

// MarketPrice resolves the snapshot's best price estimate: bid/ask midpoint
// when both sides quote, otherwise last, otherwise close. Returns 0 when the
// snapshot carries no usable price at all.
func (s *Snapshot) MarketPrice() float64 {
	if s == nil {
		return 0
	}
	if s.Bid > 0 && s.Ask > 0 {
		return (s.Bid + s.Ask) / 2
	}
	if s.Last > 0 {
		return s.Last
	}
	if s.Close > 0 {
		return s.Close
	}
	return 0
}

// OrderRecord is one raw order row from the gateway.
type OrderRecord struct {
	OrderID       int64
	ClientID      int64
	PermID        int64
	ParentID      int64
	Contract      Contract
	Action        string
	OrderType     string
	TimeInForce   string
	OCAGroup      string
	Status        string
	TotalQuantity float64
	Filled        float64
	Remaining     float64
	AvgFillPrice  float64
	LastFillPrice float64
	LmtPrice      float64
	AuxPrice      float64
}

// Active reports whether the order is still working at the gateway.
func (o OrderRecord) Active() bool {
	switch o.Status {
	case "PendingSubmit", "PreSubmitted", "Submitted", "ApiPending":
		return true
	}
	return false
}

// CommissionReport is the per-fill commission record, when the gateway has
// produced one.
type CommissionReport struct {
	Commission  float64
	RealizedPnL float64
	Currency    string
}

// Fill is one raw execution row.
type Fill struct {
	ExecID     string
	OrderID    int64
	Contract   Contract
	Side       string
	Shares     float64
	Price      float64
	Time       string
	Exchange   string
	Commission *CommissionReport
}

// ChainParams is one option chain parameter set for an underlying.
type ChainParams struct {
	Exchange        string
	UnderlyingConID int
	TradingClass    string
	Multiplier      string
	Expirations     []string
	Strikes         []float64
}

// Transport is the single logical connection to the gateway. Implementations
// are single-writer: one in-flight request/response conversation at a time.
// The session owns the handle; fetchers borrow it for the duration of a call.
type Transport interface {
	// Connect opens the transport. It does not resolve accounts; the
	// session layers account detection on top.
	Connect(ctx context.Context) error

	// Disconnect closes the transport. Idempotent.
	Disconnect() error

	// IsConnected is a best-effort liveness probe. It never panics and
	// treats any probe failure as "not alive".
	IsConnected(ctx context.Context) bool

	// ManagedAccounts lists the account identifiers accessible under the
	// current login.
	ManagedAccounts(ctx context.Context) ([]string, error)

	// AccountValues reads the raw account ledger for one account.
	AccountValues(ctx context.Context, account string) ([]AccountValue, error)

	// PortfolioItems reads the raw position rows for one account.
	PortfolioItems(ctx context.Context, account string) ([]PortfolioItem, error)

	// QualifyContract resolves a contract to its ConID. Returns
	// errors.ErrContractNotFound when the gateway reports no match.
	QualifyContract(ctx context.Context, c Contract) (Contract, error)

	// SearchContract is the secondary contract-details lookup used when
	// qualification fails.
	SearchContract(ctx context.Context, c Contract) (Contract, error)

	// RequestSnapshot starts a one-shot market data subscription for a
	// qualified contract.
	RequestSnapshot(ctx context.Context, c Contract) error

	// ActiveSnapshot returns the current ticker for a contract that is
	// already subscribed, if any.
	ActiveSnapshot(c Contract) (*Snapshot, bool)

	// ReadSnapshot polls the current market data values for a subscribed
	// contract.
	ReadSnapshot(ctx context.Context, c Contract) (*Snapshot, error)

	// CancelSnapshot releases the market data subscription. Safe to call
	// for contracts that were never subscribed.
	CancelSnapshot(c Contract) error

	// Orders lists order rows; openOnly restricts to working orders.
	Orders(ctx context.Context, openOnly bool) ([]OrderRecord, error)

	// Fills lists execution rows for the session.
	Fills(ctx context.Context) ([]Fill, error)

	// CancelOrder submits a cancel request for a working order.
	CancelOrder(ctx context.Context, account string, orderID int64) error

	// OptionChainParams lists the option chain parameter sets for an
	// underlying contract. monthHint, when non-empty, selects the contract
	// month used to resolve the strike grid; implementations may ignore it.
	OptionChainParams(ctx context.Context, underlying Contract, monthHint string) ([]ChainParams, error)
}
