package models

import "time"

// Order represents an order known to the gateway, open or historical.
type Order struct {
	OrderID           int64         `json:"order_id"`
	ClientID          int64         `json:"client_id"`
	PermID            int64         `json:"perm_id"`
	Symbol            string        `json:"symbol"`
	ContractKind      ContractKind  `json:"contract_kind"`
	Action            OrderAction   `json:"action"`
	OrderType         string        `json:"order_type"`
	TotalQuantity     float64       `json:"total_quantity"`
	FilledQuantity    float64       `json:"filled_quantity"`
	RemainingQuantity float64       `json:"remaining_quantity"`
	LimitPrice        *float64      `json:"limit_price,omitempty"`
	AuxPrice          *float64      `json:"aux_price,omitempty"`
	Status            string        `json:"status"`
	Option            *OptionDetail `json:"option,omitempty"`
	TimeInForce       string        `json:"time_in_force"`
	ParentID          int64         `json:"parent_id"`
	OCAGroup          string        `json:"oca_group"`
}

// Trade is an order enriched with fill aggregation. Commission and
// RealizedPnL are sums over the order's fills; an order with zero fills
// reports 0 for both, never a missing value.
type Trade struct {
	OrderID           int64         `json:"order_id"`
	Symbol            string        `json:"symbol"`
	ContractKind      ContractKind  `json:"contract_kind"`
	Action            OrderAction   `json:"action"`
	OrderType         string        `json:"order_type"`
	Status            string        `json:"status"`
	TotalQuantity     float64       `json:"total_quantity"`
	FilledQuantity    float64       `json:"filled_quantity"`
	RemainingQuantity float64       `json:"remaining_quantity"`
	AvgFillPrice      float64       `json:"avg_fill_price"`
	LastFillPrice     float64       `json:"last_fill_price"`
	LimitPrice        *float64      `json:"limit_price,omitempty"`
	Option            *OptionDetail `json:"option,omitempty"`
	Commission        float64       `json:"commission"`
	RealizedPnL       float64       `json:"realized_pnl"`
}

// Execution represents a single fill of an order.
type Execution struct {
	ExecID       string        `json:"exec_id"`
	OrderID      int64         `json:"order_id"`
	Symbol       string        `json:"symbol"`
	ContractKind ContractKind  `json:"contract_kind"`
	Action       ExecutionSide `json:"action"`
	Quantity     float64       `json:"quantity"`
	Price        float64       `json:"price"`
	Time         time.Time     `json:"time"`
	Exchange     string        `json:"exchange"`
	Option       *OptionDetail `json:"option,omitempty"`
	Commission   float64       `json:"commission"`
	Currency     string        `json:"currency"`
	RealizedPnL  float64       `json:"realized_pnl"`
}
