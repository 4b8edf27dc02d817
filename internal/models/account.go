package models

import "time"

// AccountSummary represents account-level values reported by the gateway.
// Every numeric field defaults to 0 when the gateway does not report the
// corresponding tag for the account.
type AccountSummary struct {
	Account                         string    `json:"account"`
	NetLiquidation                  float64   `json:"net_liquidation"`
	TotalCashValue                  float64   `json:"total_cash_value"`
	SettledCash                     float64   `json:"settled_cash"`
	AccruedCash                     float64   `json:"accrued_cash"`
	BuyingPower                     float64   `json:"buying_power"`
	EquityWithLoanValue             float64   `json:"equity_with_loan_value"`
	PreviousDayEquityWithLoanValue  float64   `json:"previous_day_equity_with_loan_value"`
	GrossPositionValue              float64   `json:"gross_position_value"`
	RegTMargin                      float64   `json:"reg_t_margin"`
	SMA                             float64   `json:"sma"`
	InitMarginReq                   float64   `json:"init_margin_req"`
	MaintMarginReq                  float64   `json:"maint_margin_req"`
	AvailableFunds                  float64   `json:"available_funds"`
	ExcessLiquidity                 float64   `json:"excess_liquidity"`
	Currency                        string    `json:"currency"`
	Timestamp                       time.Time `json:"timestamp"`
}
