// Package marketdata fetches one-shot price snapshots over the gateway's
// polling interface. Subscriptions are short-lived: subscribe, poll until a
// usable price arrives or the wait budget runs out, then always cancel.
package marketdata

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ibkr-trader/internal/config"
	apperrors "ibkr-trader/internal/errors"
	"ibkr-trader/internal/gateway"
	"ibkr-trader/internal/models"
	"ibkr-trader/internal/normalize"
	"ibkr-trader/internal/session"
)

// Fetcher retrieves market data snapshots through a live session.
type Fetcher struct {
	session *session.Session
	cfg     config.MarketDataConfig
	logger  zerolog.Logger
}

// NewFetcher creates a fetcher bound to the session.
func NewFetcher(sess *session.Session, cfg config.MarketDataConfig, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		session: sess,
		cfg:     cfg,
		logger:  logger.With().Str("component", "marketdata").Logger(),
	}
}

// Resolve qualifies a contract, falling back to the secondary contract
// search when qualification fails. Both failing means the instrument does
// not exist as described.
func (f *Fetcher) Resolve(ctx context.Context, c gateway.Contract) (gateway.Contract, error) {
	transport, err := f.session.Transport()
	if err != nil {
		return c, err
	}

	qualified, err := transport.QualifyContract(ctx, c)
	if err == nil {
		return qualified, nil
	}
	f.logger.Debug().Str("symbol", c.Symbol).Err(err).Msg("Qualify failed, trying search")

	qualified, serr := transport.SearchContract(ctx, c)
	if serr == nil {
		return qualified, nil
	}
	return c, apperrors.Wrapf(apperrors.ErrContractNotFound, "%s %s", c.SecType, c.Symbol)
}

// usable reports whether the snapshot carries enough data to price the
// contract. Options quote wider and slower, so a two-sided book counts even
// before a trade prints.
func usable(snap *gateway.Snapshot, c gateway.Contract) bool {
	if snap == nil {
		return false
	}
	if c.SecType == "OPT" && snap.Bid > 0 && snap.Ask > 0 {
		return true
	}
	return snap.MarketPrice() > 0
}

// Snapshot subscribes, polls until the snapshot is usable or the wait budget
// expires, and always releases the subscription before returning. A timeout
// returns the last snapshot read, which may price to 0; that is a valid
// "no data" answer, not an error.
func (f *Fetcher) Snapshot(ctx context.Context, c gateway.Contract) (*gateway.Snapshot, error) {
	transport, err := f.session.Transport()
	if err != nil {
		return nil, err
	}

	if snap, ok := transport.ActiveSnapshot(c); ok && usable(snap, c) {
		return snap, nil
	}

	if err := transport.RequestSnapshot(ctx, c); err != nil {
		return nil, apperrors.Wrap(err, "requesting snapshot")
	}
	defer func() {
		if cerr := transport.CancelSnapshot(c); cerr != nil {
			f.logger.Warn().Str("symbol", c.Symbol).Err(cerr).Msg("Snapshot cancel failed")
		}
	}()

	deadline := time.NewTimer(f.cfg.MaxWait)
	defer deadline.Stop()
	ticker := time.NewTicker(f.cfg.PollInterval)
	defer ticker.Stop()

	var last *gateway.Snapshot
	for {
		snap, err := transport.ReadSnapshot(ctx, c)
		if err != nil {
			return nil, apperrors.Wrap(err, "reading snapshot")
		}
		if usable(snap, c) {
			return snap, nil
		}
		last = snap

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-deadline.C:
			f.logger.Debug().Str("symbol", c.Symbol).Msg("Snapshot wait budget exhausted")
			return last, nil
		case <-ticker.C:
		}
	}
}

// DefaultExchange applies the routing default when the caller passed none.
func DefaultExchange(exchange string) string {
	if exchange == "" {
		return "SMART"
	}
	return exchange
}

// StockPrice resolves and quotes a stock on the given exchange (empty means
// SMART routing). The quote's Price may be 0 when the gateway reported no
// usable data within the wait budget.
func (f *Fetcher) StockPrice(ctx context.Context, symbol, exchange string) (*models.MarketQuote, error) {
	c, err := f.Resolve(ctx, gateway.Stock(symbol, DefaultExchange(exchange), "USD"))
	if err != nil {
		return nil, err
	}
	snap, err := f.Snapshot(ctx, c)
	if err != nil {
		return nil, err
	}
	quote := normalize.Quote(symbol, snap)
	return &quote, nil
}

// OptionPrice resolves and quotes a single option contract on the given
// exchange (empty means SMART routing).
func (f *Fetcher) OptionPrice(ctx context.Context, symbol, expiry string, strike float64, right, exchange string) (*models.MarketQuote, error) {
	c, err := f.Resolve(ctx, gateway.Option(symbol, expiry, strike, right, DefaultExchange(exchange), "USD"))
	if err != nil {
		return nil, err
	}
	snap, err := f.Snapshot(ctx, c)
	if err != nil {
		return nil, err
	}
	quote := normalize.Quote(c.LocalSymbol(), snap)
	return &quote, nil
}
