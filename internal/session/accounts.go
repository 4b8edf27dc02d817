package session

import (
	"context"
	"time"

	apperrors "ibkr-trader/internal/errors"
	"ibkr-trader/internal/models"
	"ibkr-trader/internal/normalize"
)

// Portfolio reads the account's positions plus headline values. The session
// must be live; callers run EnsureConnected first.
func (s *Session) Portfolio(ctx context.Context) (*models.Portfolio, error) {
	transport, account, err := s.live()
	if err != nil {
		return nil, err
	}

	items, err := transport.PortfolioItems(ctx, account)
	if err != nil {
		return nil, apperrors.Wrap(err, "reading portfolio")
	}
	values, err := transport.AccountValues(ctx, account)
	if err != nil {
		return nil, apperrors.Wrap(err, "reading account values")
	}

	positions := normalize.Positions(items)
	numbers := normalize.AccountNumbers(values)

	var unrealized, realized float64
	for _, p := range positions {
		unrealized += p.UnrealizedPnL
		realized += p.RealizedPnL
	}

	return &models.Portfolio{
		Account:       account,
		Positions:     positions,
		TotalValue:    numbers["NetLiquidation"],
		TotalCash:     numbers["TotalCashValue"],
		BuyingPower:   numbers["BuyingPower"],
		DayPnL:        numbers["NetLiquidation"] - numbers["PreviousDayEquityWithLoanValue"],
		UnrealizedPnL: unrealized,
		RealizedPnL:   realized,
		Timestamp:     time.Now(),
	}, nil
}

// AccountSummary reads the account-level values ledger.
func (s *Session) AccountSummary(ctx context.Context) (*models.AccountSummary, error) {
	transport, account, err := s.live()
	if err != nil {
		return nil, err
	}

	values, err := transport.AccountValues(ctx, account)
	if err != nil {
		return nil, apperrors.Wrap(err, "reading account values")
	}

	summary := normalize.AccountSummary(account, values)
	return &summary, nil
}
