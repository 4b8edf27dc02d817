// Package chain builds ATM-centered option chains by combining the
// underlying's price, the gateway's chain parameters and per-strike option
// snapshots.
package chain

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ibkr-trader/internal/config"
	apperrors "ibkr-trader/internal/errors"
	"ibkr-trader/internal/gateway"
	"ibkr-trader/internal/marketdata"
	"ibkr-trader/internal/models"
	"ibkr-trader/internal/normalize"
	"ibkr-trader/internal/session"
)

// Builder assembles option chains through a live session.
type Builder struct {
	session *session.Session
	fetcher *marketdata.Fetcher
	cfg     config.ChainConfig
	logger  zerolog.Logger
}

// NewBuilder creates a chain builder bound to the session and fetcher.
func NewBuilder(sess *session.Session, fetcher *marketdata.Fetcher, cfg config.ChainConfig, logger zerolog.Logger) *Builder {
	return &Builder{
		session: sess,
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger.With().Str("component", "chain").Logger(),
	}
}

// selectParams picks the parameter set matching the requested exchange.
// SMART or an exchange no set reports falls back to the first set.
func selectParams(params []gateway.ChainParams, exchange string) gateway.ChainParams {
	for _, p := range params {
		if p.Exchange == exchange {
			return p
		}
	}
	return params[0]
}

// atmIndex finds the strike nearest the underlying price. Ties resolve to
// the lower strike because strikes are scanned ascending.
func atmIndex(strikes []float64, price float64) int {
	best := 0
	bestDiff := math.Inf(1)
	for i, strike := range strikes {
		diff := math.Abs(strike - price)
		if diff < bestDiff {
			best = i
			bestDiff = diff
		}
	}
	return best
}

// window clips an ATM-centered slice of the strike grid. A window of w
// yields at most w+1 strikes: floor(w/2) below the ATM strike, the ATM
// strike itself, and floor(w/2) above.
func window(strikes []float64, atm, w int) []float64 {
	half := w / 2
	start := atm - half
	if start < 0 {
		start = 0
	}
	end := atm + half + 1
	if end > len(strikes) {
		end = len(strikes)
	}
	return strikes[start:end]
}

// Build assembles the chain for one expiry, centered on the underlying's
// current price. expiry may be empty, selecting the nearest expiration from
// the gateway's parameters; exchange empty means SMART routing. Individual
// strike failures degrade that strike's side to nil; only a fully
// unresolvable underlying or missing chain parameters fail the build.
func (b *Builder) Build(ctx context.Context, symbol, expiry string, strikeWindow int, exchange string) (*models.OptionChain, error) {
	if strikeWindow <= 0 {
		strikeWindow = b.cfg.StrikeWindow
	}
	exchange = marketdata.DefaultExchange(exchange)

	underlying, err := b.fetcher.Resolve(ctx, gateway.Stock(symbol, exchange, "USD"))
	if err != nil {
		return nil, err
	}
	snap, err := b.fetcher.Snapshot(ctx, underlying)
	if err != nil {
		return nil, apperrors.Wrap(err, "pricing underlying")
	}
	price := snap.MarketPrice()

	transport, err := b.session.Transport()
	if err != nil {
		return nil, err
	}
	params, err := transport.OptionChainParams(ctx, underlying, gateway.MonthHint(expiry))
	if err != nil {
		return nil, apperrors.Wrap(err, "fetching chain parameters")
	}
	if len(params) == 0 {
		return nil, apperrors.Wrapf(apperrors.ErrNoChainFound, "symbol %s", symbol)
	}

	selected := selectParams(params, exchange)
	if expiry == "" {
		expirations := append([]string(nil), selected.Expirations...)
		sort.Strings(expirations)
		if len(expirations) == 0 {
			return nil, apperrors.Wrapf(apperrors.ErrNoChainFound, "symbol %s has no expirations", symbol)
		}
		expiry = expirations[0]
	}

	strikes := append([]float64(nil), selected.Strikes...)
	sort.Float64s(strikes)
	if len(strikes) == 0 {
		return nil, apperrors.Wrapf(apperrors.ErrNoChainFound, "symbol %s has no strikes", symbol)
	}

	selectedStrikes := window(strikes, atmIndex(strikes, price), strikeWindow)
	rows := b.fetchStrikes(ctx, symbol, expiry, exchange, selectedStrikes)

	return &models.OptionChain{
		Symbol:          symbol,
		UnderlyingPrice: price,
		Expiry:          expiry,
		Strikes:         rows,
		Timestamp:       time.Now(),
	}, nil
}

// fetchStrikes quotes both sides of each strike through a bounded worker
// pool. Results land by index so assembly stays ascending regardless of
// completion order.
func (b *Builder) fetchStrikes(ctx context.Context, symbol, expiry, exchange string, strikes []float64) []models.OptionChainStrike {
	rows := make([]models.OptionChainStrike, len(strikes))

	workers := b.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, strike := range strikes {
		wg.Add(1)
		go func(i int, strike float64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			rows[i] = models.OptionChainStrike{
				Strike: strike,
				Expiry: expiry,
				Call:   b.side(ctx, symbol, expiry, exchange, strike, "C"),
				Put:    b.side(ctx, symbol, expiry, exchange, strike, "P"),
			}
		}(i, strike)
	}
	wg.Wait()
	return rows
}

// side quotes one leg of a strike. Any failure degrades to nil; a chain with
// holes beats no chain.
func (b *Builder) side(ctx context.Context, symbol, expiry, exchange string, strike float64, right string) *models.OptionQuote {
	c, err := b.fetcher.Resolve(ctx, gateway.Option(symbol, expiry, strike, right, exchange, "USD"))
	if err != nil {
		b.logger.Debug().Str("symbol", symbol).Float64("strike", strike).Str("right", right).
			Err(err).Msg("Strike leg unresolved")
		return nil
	}
	snap, err := b.fetcher.Snapshot(ctx, c)
	if err != nil {
		b.logger.Debug().Str("symbol", symbol).Float64("strike", strike).Str("right", right).
			Err(err).Msg("Strike leg quote failed")
		return nil
	}
	return normalize.OptionQuote(snap)
}

// Expirations lists the available expirations for a symbol: the sorted
// union over all parameter sets. A symbol with no option chain yields an
// empty list, not an error.
func (b *Builder) Expirations(ctx context.Context, symbol, exchange string) ([]string, error) {
	underlying, err := b.fetcher.Resolve(ctx, gateway.Stock(symbol, marketdata.DefaultExchange(exchange), "USD"))
	if err != nil {
		return nil, err
	}
	transport, err := b.session.Transport()
	if err != nil {
		return nil, err
	}
	params, err := transport.OptionChainParams(ctx, underlying, "")
	if err != nil {
		return nil, apperrors.Wrap(err, "fetching chain parameters")
	}

	seen := make(map[string]struct{})
	var out []string
	for _, p := range params {
		for _, exp := range p.Expirations {
			if _, ok := seen[exp]; ok {
				continue
			}
			seen[exp] = struct{}{}
			out = append(out, exp)
		}
	}
	sort.Strings(out)
	return out, nil
}
