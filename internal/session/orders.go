package session

import (
	"context"

	apperrors "ibkr-trader/internal/errors"
	"ibkr-trader/internal/models"
	"ibkr-trader/internal/normalize"
)

// Orders lists open orders, or all session orders when openOnly is false.
func (s *Session) Orders(ctx context.Context, openOnly bool) ([]models.Order, error) {
	transport, _, err := s.live()
	if err != nil {
		return nil, err
	}
	records, err := transport.Orders(ctx, openOnly)
	if err != nil {
		return nil, apperrors.Wrap(err, "listing orders")
	}
	return normalize.Orders(records), nil
}

// Trades lists all session orders enriched with per-order fill aggregates.
func (s *Session) Trades(ctx context.Context) ([]models.Trade, error) {
	transport, _, err := s.live()
	if err != nil {
		return nil, err
	}
	records, err := transport.Orders(ctx, false)
	if err != nil {
		return nil, apperrors.Wrap(err, "listing orders")
	}
	fills, err := transport.Fills(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "listing fills")
	}
	return normalize.Trades(records, fills), nil
}

// Executions lists individual fills for the session.
func (s *Session) Executions(ctx context.Context) ([]models.Execution, error) {
	transport, _, err := s.live()
	if err != nil {
		return nil, err
	}
	fills, err := transport.Fills(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "listing fills")
	}
	return normalize.Executions(fills, s.logger), nil
}

// CancelOrder cancels an open order by ID. Returns false without error when
// no open order carries the ID; an unknown order is an answer, not a fault.
func (s *Session) CancelOrder(ctx context.Context, orderID int64) (bool, error) {
	transport, account, err := s.live()
	if err != nil {
		return false, err
	}

	open, err := transport.Orders(ctx, true)
	if err != nil {
		return false, apperrors.Wrap(err, "listing open orders")
	}
	found := false
	for _, rec := range open {
		if rec.OrderID == orderID {
			found = true
			break
		}
	}
	if !found {
		s.logger.Warn().Int64("order_id", orderID).Msg("Cancel requested for unknown order")
		return false, nil
	}

	if err := transport.CancelOrder(ctx, account, orderID); err != nil {
		return false, apperrors.Wrap(err, "cancelling order")
	}
	s.logger.Info().Int64("order_id", orderID).Msg("Cancel submitted")
	s.record(ctx, "cancel_order", account)
	return true, nil
}
