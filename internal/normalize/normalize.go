// Package normalize converts raw gateway records into domain models. Every
// function here is pure apart from clock reads; nothing touches the transport.
package normalize

import (
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"ibkr-trader/internal/gateway"
	"ibkr-trader/internal/models"
)

// execTimeLayout is the gateway's execution timestamp format.
const execTimeLayout = "20060102 15:04:05"

// optionDetail extracts the option fields from a contract, nil for anything
// that is not an option.
func optionDetail(c gateway.Contract) *models.OptionDetail {
	if c.SecType != string(models.KindOption) {
		return nil
	}
	return &models.OptionDetail{
		Expiry: c.Expiry,
		Strike: c.Strike,
		Right:  models.OptionRight(c.Right),
	}
}

// Position converts one raw position row.
func Position(item gateway.PortfolioItem) models.Position {
	return models.Position{
		Symbol:        item.Contract.Symbol,
		ContractKind:  models.ContractKind(item.Contract.SecType),
		Quantity:      item.Position,
		MarketPrice:   item.MarketPrice,
		MarketValue:   item.MarketValue,
		AverageCost:   item.AverageCost,
		UnrealizedPnL: item.UnrealizedPnL,
		RealizedPnL:   item.RealizedPnL,
		Account:       item.Account,
		Currency:      item.Contract.Currency,
		Exchange:      item.Contract.Exchange,
		Option:        optionDetail(item.Contract),
	}
}

// Positions converts raw position rows preserving gateway order.
func Positions(items []gateway.PortfolioItem) []models.Position {
	out := make([]models.Position, 0, len(items))
	for _, item := range items {
		out = append(out, Position(item))
	}
	return out
}

// AccountNumbers reduces the raw ledger to tag -> numeric value. Tags whose
// value does not parse as a number (currency codes, account identifiers) are
// silently dropped; that is expected, not an error.
func AccountNumbers(values []gateway.AccountValue) map[string]float64 {
	out := make(map[string]float64, len(values))
	for _, av := range values {
		f, err := strconv.ParseFloat(av.Value, 64)
		if err != nil {
			continue
		}
		out[av.Tag] = f
	}
	return out
}

// AccountSummary builds the account summary from the raw ledger. Numeric
// fields the gateway did not report stay zero; Currency is carried through
// as text.
func AccountSummary(account string, values []gateway.AccountValue) models.AccountSummary {
	numbers := AccountNumbers(values)
	summary := models.AccountSummary{
		Account:                        account,
		NetLiquidation:                 numbers["NetLiquidation"],
		TotalCashValue:                 numbers["TotalCashValue"],
		SettledCash:                    numbers["SettledCash"],
		AccruedCash:                    numbers["AccruedCash"],
		BuyingPower:                    numbers["BuyingPower"],
		EquityWithLoanValue:            numbers["EquityWithLoanValue"],
		PreviousDayEquityWithLoanValue: numbers["PreviousDayEquityWithLoanValue"],
		GrossPositionValue:             numbers["GrossPositionValue"],
		RegTMargin:                     numbers["RegTMargin"],
		SMA:                            numbers["SMA"],
		InitMarginReq:                  numbers["InitMarginReq"],
		MaintMarginReq:                 numbers["MaintMarginReq"],
		AvailableFunds:                 numbers["AvailableFunds"],
		ExcessLiquidity:                numbers["ExcessLiquidity"],
		Timestamp:                      time.Now(),
	}
	for _, av := range values {
		if av.Tag == "Currency" {
			summary.Currency = av.Value
			break
		}
	}
	return summary
}

// optionalPrice returns a pointer for strictly positive values, nil
// otherwise. The gateway reports 0 and -1 for "no data".
func optionalPrice(v float64) *float64 {
	if v > 0 {
		return &v
	}
	return nil
}

func optionalCount(v float64) *int64 {
	if v > 0 {
		n := int64(v)
		return &n
	}
	return nil
}

// Quote converts a snapshot into a market quote. Price resolves through the
// snapshot's fallback chain and may legitimately be 0.
func Quote(symbol string, snap *gateway.Snapshot) models.MarketQuote {
	quote := models.MarketQuote{
		Symbol:    symbol,
		Timestamp: time.Now(),
	}
	if snap == nil {
		return quote
	}
	quote.Price = snap.MarketPrice()
	quote.Bid = optionalPrice(snap.Bid)
	quote.Ask = optionalPrice(snap.Ask)
	quote.Volume = optionalCount(snap.Volume)
	quote.High = optionalPrice(snap.High)
	quote.Low = optionalPrice(snap.Low)
	quote.Open = optionalPrice(snap.Open)
	quote.Close = optionalPrice(snap.Close)
	return quote
}

// Order converts one raw order row. Remaining falls back to the total
// quantity when the gateway reports it as zero on an unfilled order.
func Order(rec gateway.OrderRecord) models.Order {
	remaining := rec.Remaining
	if remaining == 0 && rec.Filled == 0 {
		remaining = rec.TotalQuantity
	}
	return models.Order{
		OrderID:           rec.OrderID,
		ClientID:          rec.ClientID,
		PermID:            rec.PermID,
		ParentID:          rec.ParentID,
		Symbol:            rec.Contract.Symbol,
		ContractKind:      models.ContractKind(rec.Contract.SecType),
		Action:            models.OrderAction(rec.Action),
		OrderType:         rec.OrderType,
		TotalQuantity:     rec.TotalQuantity,
		FilledQuantity:    rec.Filled,
		RemainingQuantity: remaining,
		LimitPrice:        optionalPrice(rec.LmtPrice),
		AuxPrice:          optionalPrice(rec.AuxPrice),
		Status:            rec.Status,
		Option:            optionDetail(rec.Contract),
		TimeInForce:       rec.TimeInForce,
		OCAGroup:          rec.OCAGroup,
	}
}

// Orders converts raw order rows.
func Orders(recs []gateway.OrderRecord) []models.Order {
	out := make([]models.Order, 0, len(recs))
	for _, rec := range recs {
		out = append(out, Order(rec))
	}
	return out
}

// Trade builds a trade from an order row and its fills. Commission and
// realized PnL are summed over the fills; zero fills leave both at 0.
func Trade(rec gateway.OrderRecord, fills []gateway.Fill) models.Trade {
	remaining := rec.Remaining
	if remaining == 0 && rec.Filled == 0 {
		remaining = rec.TotalQuantity
	}
	trade := models.Trade{
		OrderID:           rec.OrderID,
		Symbol:            rec.Contract.Symbol,
		ContractKind:      models.ContractKind(rec.Contract.SecType),
		Action:            models.OrderAction(rec.Action),
		OrderType:         rec.OrderType,
		Status:            rec.Status,
		TotalQuantity:     rec.TotalQuantity,
		FilledQuantity:    rec.Filled,
		RemainingQuantity: remaining,
		AvgFillPrice:      rec.AvgFillPrice,
		LastFillPrice:     rec.LastFillPrice,
		LimitPrice:        optionalPrice(rec.LmtPrice),
		Option:            optionDetail(rec.Contract),
	}
	for _, fill := range fills {
		if fill.OrderID != rec.OrderID {
			continue
		}
		if fill.Commission != nil {
			trade.Commission += fill.Commission.Commission
			trade.RealizedPnL += fill.Commission.RealizedPnL
		}
	}
	return trade
}

// Trades pairs each order row with the session's fills.
func Trades(recs []gateway.OrderRecord, fills []gateway.Fill) []models.Trade {
	out := make([]models.Trade, 0, len(recs))
	for _, rec := range recs {
		out = append(out, Trade(rec, fills))
	}
	return out
}

// Execution converts one raw fill. A timestamp that does not parse falls
// back to the current time so a malformed row never drops the execution.
func Execution(fill gateway.Fill, logger zerolog.Logger) models.Execution {
	ts, err := time.Parse(execTimeLayout, fill.Time)
	if err != nil {
		logger.Warn().Str("exec_id", fill.ExecID).Str("raw_time", fill.Time).
			Msg("Unparseable execution time, using current time")
		ts = time.Now()
	}
	exec := models.Execution{
		ExecID:       fill.ExecID,
		OrderID:      fill.OrderID,
		Symbol:       fill.Contract.Symbol,
		ContractKind: models.ContractKind(fill.Contract.SecType),
		Action:       models.ExecutionSide(fill.Side),
		Quantity:     fill.Shares,
		Price:        fill.Price,
		Time:         ts,
		Exchange:     fill.Exchange,
		Currency:     "USD",
		Option:       optionDetail(fill.Contract),
	}
	if fill.Commission != nil {
		exec.Commission = fill.Commission.Commission
		if fill.Commission.Currency != "" {
			exec.Currency = fill.Commission.Currency
		}
		exec.RealizedPnL = fill.Commission.RealizedPnL
	}
	return exec
}

// Executions converts raw fills.
func Executions(fills []gateway.Fill, logger zerolog.Logger) []models.Execution {
	out := make([]models.Execution, 0, len(fills))
	for _, fill := range fills {
		out = append(out, Execution(fill, logger))
	}
	return out
}

// optionalModel converts a model value, treating NaN as absent.
func optionalModel(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// Greeks converts the gateway's option model output. Returns nil when the
// model computed nothing at all.
func Greeks(mg *gateway.ModelGreeks) *models.OptionGreeks {
	if mg == nil {
		return nil
	}
	greeks := &models.OptionGreeks{
		Delta:             optionalModel(mg.Delta),
		Gamma:             optionalModel(mg.Gamma),
		Theta:             optionalModel(mg.Theta),
		Vega:              optionalModel(mg.Vega),
		Rho:               optionalModel(mg.Rho),
		ImpliedVolatility: optionalModel(mg.ImpliedVol),
		UnderlyingPrice:   optionalModel(mg.UndPrice),
		OptionPrice:       optionalModel(mg.OptPrice),
		PvDividend:        optionalModel(mg.PvDividend),
	}
	if greeks.Delta == nil && greeks.Gamma == nil && greeks.Theta == nil &&
		greeks.Vega == nil && greeks.Rho == nil && greeks.ImpliedVolatility == nil &&
		greeks.UnderlyingPrice == nil && greeks.OptionPrice == nil && greeks.PvDividend == nil {
		return nil
	}
	return greeks
}

// OptionQuote converts a snapshot into one side of a chain strike.
func OptionQuote(snap *gateway.Snapshot) *models.OptionQuote {
	if snap == nil {
		return nil
	}
	return &models.OptionQuote{
		Bid:    optionalPrice(snap.Bid),
		Ask:    optionalPrice(snap.Ask),
		Last:   optionalPrice(snap.Last),
		Volume: optionalCount(snap.Volume),
		Greeks: Greeks(snap.Greeks),
	}
}
