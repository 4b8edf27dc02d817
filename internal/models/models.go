// Package models provides domain models for the trading application.
package models

import (
	"time"
)

// ContractKind represents the security type of a contract.
type ContractKind string

const (
	KindStock   ContractKind = "STK"
	KindOption  ContractKind = "OPT"
	KindFuture  ContractKind = "FUT"
	KindCash    ContractKind = "CASH"
	KindIndex   ContractKind = "IND"
	KindWarrant ContractKind = "WAR"
)

// OptionRight represents the right of an option contract.
type OptionRight string

const (
	RightCall OptionRight = "C"
	RightPut  OptionRight = "P"
)

// OrderAction represents the side of an order.
type OrderAction string

const (
	ActionBuy  OrderAction = "BUY"
	ActionSell OrderAction = "SELL"
)

// ExecutionSide represents the side of a fill as reported by the gateway.
type ExecutionSide string

const (
	SideBought ExecutionSide = "BOT"
	SideSold   ExecutionSide = "SLD"
)

// OptionDetail carries the option-specific contract fields. It is present on
// a record only when the contract kind is OPT, so "not an option" is
// distinguishable from "option with zero strike".
type OptionDetail struct {
	Expiry string      `json:"expiry"`
	Strike float64     `json:"strike"`
	Right  OptionRight `json:"right"`
}

// Position represents a single portfolio position.
type Position struct {
	Symbol        string        `json:"symbol"`
	ContractKind  ContractKind  `json:"contract_kind"`
	Quantity      float64       `json:"quantity"`
	MarketPrice   float64       `json:"market_price"`
	MarketValue   float64       `json:"market_value"`
	AverageCost   float64       `json:"average_cost"`
	UnrealizedPnL float64       `json:"unrealized_pnl"`
	RealizedPnL   float64       `json:"realized_pnl"`
	Account       string        `json:"account"`
	Currency      string        `json:"currency"`
	Exchange      string        `json:"exchange,omitempty"`
	Option        *OptionDetail `json:"option,omitempty"`
}

// Portfolio represents a point-in-time read of an account's positions and
// headline values. Positions keep the gateway-supplied order.
type Portfolio struct {
	Account       string     `json:"account"`
	Positions     []Position `json:"positions"`
	TotalValue    float64    `json:"total_value"`
	TotalCash     float64    `json:"total_cash"`
	BuyingPower   float64    `json:"buying_power"`
	DayPnL        float64    `json:"day_pnl"`
	UnrealizedPnL float64    `json:"unrealized_pnl"`
	RealizedPnL   float64    `json:"realized_pnl"`
	Timestamp     time.Time  `json:"timestamp"`
}

// MarketQuote represents a one-shot price snapshot for a contract.
// Bid/Ask/Volume are present only when the gateway reported a strictly
// positive value; zero and negative ticks mean "unknown", not "zero".
// A Price of 0 is a valid "no data available" result, not an error.
type MarketQuote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Bid       *float64  `json:"bid,omitempty"`
	Ask       *float64  `json:"ask,omitempty"`
	Volume    *int64    `json:"volume,omitempty"`
	High      *float64  `json:"high,omitempty"`
	Low       *float64  `json:"low,omitempty"`
	Open      *float64  `json:"open,omitempty"`
	Close     *float64  `json:"close,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ConnectionStatus echoes the session state and configuration for callers.
type ConnectionStatus struct {
	Connected       bool      `json:"connected"`
	ConnectionAlive bool      `json:"connection_alive"`
	Account         string    `json:"account,omitempty"`
	Host            string    `json:"host"`
	Port            int       `json:"port"`
	ClientID        int       `json:"client_id"`
	Paper           bool      `json:"paper"`
	Timestamp       time.Time `json:"timestamp"`
}
