package gateway

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "ibkr-trader/internal/errors"
)

// Market data field IDs used on snapshot requests. Field 86 is the ask and
// 85 the ask size; the numbering is not sequential.
const snapshotFields = "31,84,85,86,87,88,70,71,87_raw,7283,7295,7296,7308,7309,7310,7311"

// ClientPortal implements Transport against the IBKR Client Portal Gateway,
// a localhost HTTPS service with a self-signed certificate.
type ClientPortal struct {
	httpClient *http.Client
	baseURL    string
	clientID   int
	logger     zerolog.Logger

	mu        sync.Mutex
	connected bool
	active    map[int]*Snapshot
}

// NewClientPortal creates a transport for the gateway listening on host:port.
func NewClientPortal(host string, port int, clientID int, timeout time.Duration, logger zerolog.Logger) *ClientPortal {
	tr := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	return &ClientPortal{
		httpClient: &http.Client{Transport: tr, Timeout: timeout},
		baseURL:    fmt.Sprintf("https://%s:%d/v1/api", host, port),
		clientID:   clientID,
		logger:     logger.With().Str("component", "gateway").Logger(),
		active:     make(map[int]*Snapshot),
	}
}

type authStatus struct {
	Authenticated bool `json:"authenticated"`
	Connected     bool `json:"connected"`
	Competing     bool `json:"competing"`
}

// Connect verifies the gateway session is authenticated and reachable.
func (g *ClientPortal) Connect(ctx context.Context) error {
	body, err := g.get(ctx, "/iserver/auth/status")
	if err != nil {
		return apperrors.Wrap(apperrors.ErrConnectFailed, err.Error())
	}

	var status authStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return apperrors.NewGatewayError("auth/status", "parsing response", err)
	}
	if !status.Authenticated || !status.Connected {
		return apperrors.Wrapf(apperrors.ErrConnectFailed,
			"gateway session not authenticated (authenticated=%v connected=%v)",
			status.Authenticated, status.Connected)
	}

	g.mu.Lock()
	g.connected = true
	g.mu.Unlock()

	g.logger.Info().Int("client_id", g.clientID).Msg("Gateway session verified")
	return nil
}

// Disconnect releases any live subscriptions and marks the transport closed.
// It does not log the user out of the gateway; the session may be shared with
// the gateway's own UI.
func (g *ClientPortal) Disconnect() error {
	g.mu.Lock()
	wasConnected := g.connected
	g.connected = false
	conids := make([]int, 0, len(g.active))
	for conid := range g.active {
		conids = append(conids, conid)
	}
	g.active = make(map[int]*Snapshot)
	g.mu.Unlock()

	if !wasConnected {
		return nil
	}
	for _, conid := range conids {
		g.unsubscribe(conid)
	}
	return nil
}

// IsConnected probes the gateway's auth status. Any failure reads as dead.
func (g *ClientPortal) IsConnected(ctx context.Context) bool {
	g.mu.Lock()
	connected := g.connected
	g.mu.Unlock()
	if !connected {
		return false
	}

	body, err := g.get(ctx, "/iserver/auth/status")
	if err != nil {
		return false
	}
	var status authStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return false
	}
	return status.Authenticated && status.Connected
}

// ManagedAccounts lists accounts accessible under the current login.
func (g *ClientPortal) ManagedAccounts(ctx context.Context) ([]string, error) {
	body, err := g.get(ctx, "/iserver/accounts")
	if err != nil {
		return nil, apperrors.NewGatewayError("iserver/accounts", "listing accounts", err)
	}

	var payload struct {
		Accounts []string `json:"accounts"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.NewGatewayError("iserver/accounts", "parsing response", err)
	}
	return payload.Accounts, nil
}

// summaryTags maps the gateway's summary keys to canonical ledger tags.
var summaryTags = map[string]string{
	"netliquidation":                 "NetLiquidation",
	"totalcashvalue":                 "TotalCashValue",
	"settledcash":                    "SettledCash",
	"accruedcash":                    "AccruedCash",
	"buyingpower":                    "BuyingPower",
	"equitywithloanvalue":            "EquityWithLoanValue",
	"previousdayequitywithloanvalue": "PreviousDayEquityWithLoanValue",
	"grosspositionvalue":             "GrossPositionValue",
	"regtmargin":                     "RegTMargin",
	"sma":                            "SMA",
	"initmarginreq":                  "InitMarginReq",
	"maintmarginreq":                 "MaintMarginReq",
	"availablefunds":                 "AvailableFunds",
	"excessliquidity":                "ExcessLiquidity",
	"currency":                       "Currency",
}

// AccountValues reads the account summary ledger. Values stay as strings;
// normalization decides which tags parse as numbers.
func (g *ClientPortal) AccountValues(ctx context.Context, account string) ([]AccountValue, error) {
	body, err := g.get(ctx, "/portfolio/"+account+"/summary")
	if err != nil {
		return nil, apperrors.NewGatewayError("portfolio/summary", "reading ledger", err)
	}

	var raw map[string]struct {
		Amount   float64 `json:"amount"`
		Value    string  `json:"value"`
		Currency string  `json:"currency"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, apperrors.NewGatewayError("portfolio/summary", "parsing response", err)
	}

	values := make([]AccountValue, 0, len(raw))
	for key, entry := range raw {
		tag, ok := summaryTags[strings.ToLower(key)]
		if !ok {
			tag = key
		}
		value := entry.Value
		if value == "" {
			value = strconv.FormatFloat(entry.Amount, 'f', -1, 64)
		}
		values = append(values, AccountValue{
			Tag:      tag,
			Value:    value,
			Currency: entry.Currency,
			Account:  account,
		})
	}
	return values, nil
}

type positionRow struct {
	ConID         int         `json:"conid"`
	Ticker        string      `json:"ticker"`
	ContractDesc  string      `json:"contractDesc"`
	AssetClass    string      `json:"assetClass"`
	Position      float64     `json:"position"`
	MktPrice      float64     `json:"mktPrice"`
	MktValue      float64     `json:"mktValue"`
	AvgCost       float64     `json:"avgCost"`
	UnrealizedPnl float64     `json:"unrealizedPnl"`
	RealizedPnl   float64     `json:"realizedPnl"`
	Currency      string      `json:"currency"`
	Exchange      string      `json:"listingExchange"`
	Expiry        string      `json:"expiry"`
	Strike        json.Number `json:"strike"`
	PutOrCall     string      `json:"putOrCall"`
	Multiplier    json.Number `json:"multiplier"`
}

// PortfolioItems reads position rows for one account.
func (g *ClientPortal) PortfolioItems(ctx context.Context, account string) ([]PortfolioItem, error) {
	body, err := g.get(ctx, "/portfolio/"+account+"/positions/0")
	if err != nil {
		return nil, apperrors.NewGatewayError("portfolio/positions", "reading positions", err)
	}

	var rows []positionRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, apperrors.NewGatewayError("portfolio/positions", "parsing response", err)
	}

	items := make([]PortfolioItem, 0, len(rows))
	for _, row := range rows {
		symbol := row.Ticker
		if symbol == "" {
			symbol = firstField(row.ContractDesc)
		}
		strike, _ := row.Strike.Float64()
		c := Contract{
			ConID:      row.ConID,
			Symbol:     symbol,
			SecType:    row.AssetClass,
			Exchange:   row.Exchange,
			Currency:   row.Currency,
			Multiplier: row.Multiplier.String(),
		}
		if row.AssetClass == "OPT" {
			c.Expiry = row.Expiry
			c.Strike = strike
			c.Right = row.PutOrCall
		}
		items = append(items, PortfolioItem{
			Contract:      c,
			Account:       account,
			Position:      row.Position,
			MarketPrice:   row.MktPrice,
			MarketValue:   row.MktValue,
			AverageCost:   row.AvgCost,
			UnrealizedPnL: row.UnrealizedPnl,
			RealizedPnL:   row.RealizedPnl,
		})
	}
	return items, nil
}

type searchResult struct {
	ConID       json.Number `json:"conid"`
	Symbol      string      `json:"symbol"`
	Description string      `json:"description"`
	Sections    []struct {
		SecType  string `json:"secType"`
		Months   string `json:"months"`
		Exchange string `json:"exchange"`
	} `json:"sections"`
}

func (g *ClientPortal) search(ctx context.Context, symbol string) ([]searchResult, error) {
	body, err := g.get(ctx, "/iserver/secdef/search?symbol="+symbol)
	if err != nil {
		return nil, apperrors.NewGatewayError("secdef/search", "searching symbol", err)
	}
	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, apperrors.NewGatewayError("secdef/search", "parsing response", err)
	}
	return results, nil
}

// QualifyContract resolves a contract to its ConID via symbol search; option
// contracts additionally resolve the leg through secdef/info.
func (g *ClientPortal) QualifyContract(ctx context.Context, c Contract) (Contract, error) {
	results, err := g.search(ctx, c.Symbol)
	if err != nil {
		return c, err
	}

	var underlying int
	for _, r := range results {
		if !strings.EqualFold(r.Symbol, c.Symbol) {
			continue
		}
		conid, err := strconv.Atoi(r.ConID.String())
		if err != nil {
			continue
		}
		underlying = conid
		break
	}
	if underlying == 0 {
		return c, apperrors.Wrapf(apperrors.ErrContractNotFound, "symbol %s", c.Symbol)
	}

	if c.SecType != "OPT" {
		c.ConID = underlying
		return c, nil
	}
	return g.qualifyOption(ctx, c, underlying)
}

func (g *ClientPortal) qualifyOption(ctx context.Context, c Contract, underlying int) (Contract, error) {
	month, err := monthCode(c.Expiry)
	if err != nil {
		return c, apperrors.NewContractError(c.Symbol, c.SecType, "bad expiry "+c.Expiry, err)
	}

	path := fmt.Sprintf("/iserver/secdef/info?conid=%d&sectype=OPT&month=%s&strike=%s&right=%s",
		underlying, month, strconv.FormatFloat(c.Strike, 'f', -1, 64), c.Right)
	body, err := g.get(ctx, path)
	if err != nil {
		return c, apperrors.NewGatewayError("secdef/info", "resolving option leg", err)
	}

	var legs []struct {
		ConID        int     `json:"conid"`
		MaturityDate string  `json:"maturityDate"`
		Strike       float64 `json:"strike"`
		Right        string  `json:"right"`
		Multiplier   string  `json:"multiplier"`
	}
	if err := json.Unmarshal(body, &legs); err != nil {
		return c, apperrors.NewGatewayError("secdef/info", "parsing response", err)
	}

	for _, leg := range legs {
		if leg.MaturityDate == c.Expiry && leg.Right == c.Right {
			c.ConID = leg.ConID
			if leg.Multiplier != "" {
				c.Multiplier = leg.Multiplier
			}
			return c, nil
		}
	}
	return c, apperrors.Wrapf(apperrors.ErrContractNotFound,
		"option %s %s %g %s", c.Symbol, c.Expiry, c.Strike, c.Right)
}

// SearchContract is the fallback contract-details lookup, served by the
// trsrv stock directory. Only stock contracts have a secondary source.
func (g *ClientPortal) SearchContract(ctx context.Context, c Contract) (Contract, error) {
	if c.SecType != "STK" {
		return c, apperrors.Wrapf(apperrors.ErrContractNotFound, "%s %s", c.SecType, c.Symbol)
	}

	body, err := g.get(ctx, "/trsrv/stocks?symbols="+c.Symbol)
	if err != nil {
		return c, apperrors.NewGatewayError("trsrv/stocks", "contract details search", err)
	}

	var payload map[string][]struct {
		Contracts []struct {
			ConID int `json:"conid"`
		} `json:"contracts"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return c, apperrors.NewGatewayError("trsrv/stocks", "parsing response", err)
	}

	for _, entry := range payload[c.Symbol] {
		if len(entry.Contracts) > 0 {
			c.ConID = entry.Contracts[0].ConID
			return c, nil
		}
	}
	return c, apperrors.Wrapf(apperrors.ErrContractNotFound, "symbol %s", c.Symbol)
}

// RequestSnapshot issues the preflight snapshot request that starts the
// gateway's market data stream for the contract.
func (g *ClientPortal) RequestSnapshot(ctx context.Context, c Contract) error {
	if c.ConID == 0 {
		return apperrors.NewContractError(c.Symbol, c.SecType, "snapshot for unqualified contract", nil)
	}
	path := fmt.Sprintf("/iserver/marketdata/snapshot?conids=%d&fields=%s", c.ConID, snapshotFields)
	if _, err := g.get(ctx, path); err != nil {
		return apperrors.NewGatewayError("marketdata/snapshot", "preflight request", err)
	}

	g.mu.Lock()
	if _, ok := g.active[c.ConID]; !ok {
		g.active[c.ConID] = &Snapshot{ConID: c.ConID, Time: time.Now()}
	}
	g.mu.Unlock()
	return nil
}

// ActiveSnapshot returns the last read for an already-subscribed contract.
func (g *ClientPortal) ActiveSnapshot(c Contract) (*Snapshot, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	snap, ok := g.active[c.ConID]
	return snap, ok
}

// ReadSnapshot polls current market data values for a subscribed contract.
func (g *ClientPortal) ReadSnapshot(ctx context.Context, c Contract) (*Snapshot, error) {
	path := fmt.Sprintf("/iserver/marketdata/snapshot?conids=%d&fields=%s", c.ConID, snapshotFields)
	body, err := g.get(ctx, path)
	if err != nil {
		return nil, apperrors.NewGatewayError("marketdata/snapshot", "reading snapshot", err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, apperrors.NewGatewayError("marketdata/snapshot", "parsing response", err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewGatewayError("marketdata/snapshot", "empty snapshot response", nil)
	}

	snap := parseSnapshot(c.ConID, rows[0])

	g.mu.Lock()
	g.active[c.ConID] = snap
	g.mu.Unlock()
	return snap, nil
}

// CancelSnapshot releases the market data subscription for the contract.
func (g *ClientPortal) CancelSnapshot(c Contract) error {
	g.mu.Lock()
	_, ok := g.active[c.ConID]
	delete(g.active, c.ConID)
	g.mu.Unlock()
	if !ok {
		return nil
	}
	return g.unsubscribe(c.ConID)
}

func (g *ClientPortal) unsubscribe(conid int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	path := fmt.Sprintf("/iserver/marketdata/%d/unsubscribe", conid)
	if _, err := g.get(ctx, path); err != nil {
		g.logger.Warn().Int("conid", conid).Err(err).Msg("Unsubscribe failed")
		return apperrors.NewGatewayError("marketdata/unsubscribe", "releasing subscription", err)
	}
	return nil
}

type orderRow struct {
	OrderID       int64       `json:"orderId"`
	PermID        int64       `json:"permId"`
	ParentID      int64       `json:"parentId"`
	ConID         int         `json:"conid"`
	Ticker        string      `json:"ticker"`
	SecType       string      `json:"secType"`
	Exchange      string      `json:"listingExchange"`
	Currency      string      `json:"cashCcy"`
	Side          string      `json:"side"`
	OrderType     string      `json:"orderType"`
	TotalSize     float64     `json:"totalSize"`
	FilledQty     float64     `json:"filledQuantity"`
	RemainingQty  float64     `json:"remainingQuantity"`
	Price         json.Number `json:"price"`
	AuxPrice      json.Number `json:"auxPrice"`
	Status        string      `json:"status"`
	TimeInForce   string      `json:"timeInForce"`
	OCAGroup      string      `json:"ocaGroup"`
	Expiry        string      `json:"expiry"`
	Strike        json.Number `json:"strike"`
	PutOrCall     string      `json:"putOrCall"`
}

// Orders lists order rows; openOnly keeps only working orders.
func (g *ClientPortal) Orders(ctx context.Context, openOnly bool) ([]OrderRecord, error) {
	body, err := g.get(ctx, "/iserver/account/orders")
	if err != nil {
		return nil, apperrors.NewGatewayError("account/orders", "listing orders", err)
	}

	var payload struct {
		Orders []orderRow `json:"orders"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.NewGatewayError("account/orders", "parsing response", err)
	}

	records := make([]OrderRecord, 0, len(payload.Orders))
	for _, row := range payload.Orders {
		strike, _ := row.Strike.Float64()
		c := Contract{
			ConID:    row.ConID,
			Symbol:   row.Ticker,
			SecType:  row.SecType,
			Exchange: row.Exchange,
			Currency: row.Currency,
		}
		if row.SecType == "OPT" {
			c.Expiry = row.Expiry
			c.Strike = strike
			c.Right = row.PutOrCall
		}
		lmt, _ := row.Price.Float64()
		aux, _ := row.AuxPrice.Float64()
		rec := OrderRecord{
			OrderID:       row.OrderID,
			ClientID:      int64(g.clientID),
			PermID:        row.PermID,
			ParentID:      row.ParentID,
			Contract:      c,
			Action:        strings.ToUpper(row.Side),
			OrderType:     row.OrderType,
			TimeInForce:   row.TimeInForce,
			OCAGroup:      row.OCAGroup,
			Status:        row.Status,
			TotalQuantity: row.TotalSize,
			Filled:        row.FilledQty,
			Remaining:     row.RemainingQty,
			LmtPrice:      lmt,
			AuxPrice:      aux,
		}
		if openOnly && !rec.Active() {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

type tradeRow struct {
	ExecutionID string  `json:"execution_id"`
	OrderID     int64   `json:"order_id"`
	Symbol      string  `json:"symbol"`
	SecType     string  `json:"sec_type"`
	Side        string  `json:"side"`
	Size        float64 `json:"size"`
	// Price and commission arrive as strings on this endpoint.
	Price      string  `json:"price"`
	TradeTime  string  `json:"trade_time"`
	Exchange   string  `json:"exchange"`
	Commission string  `json:"commission"`
	Currency   string  `json:"currency"`
	ConID      int     `json:"conid"`
	Expiry     string  `json:"expiry"`
	Strike     float64 `json:"strike"`
	PutOrCall  string  `json:"put_or_call"`
}

// Fills lists execution rows for the current session.
func (g *ClientPortal) Fills(ctx context.Context) ([]Fill, error) {
	body, err := g.get(ctx, "/iserver/account/trades")
	if err != nil {
		return nil, apperrors.NewGatewayError("account/trades", "listing trades", err)
	}

	var rows []tradeRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, apperrors.NewGatewayError("account/trades", "parsing response", err)
	}

	fills := make([]Fill, 0, len(rows))
	for _, row := range rows {
		c := Contract{
			ConID:    row.ConID,
			Symbol:   row.Symbol,
			SecType:  row.SecType,
			Currency: row.Currency,
		}
		if row.SecType == "OPT" {
			c.Expiry = row.Expiry
			c.Strike = row.Strike
			c.Right = row.PutOrCall
		}
		side := "BOT"
		if strings.HasPrefix(strings.ToUpper(row.Side), "S") {
			side = "SLD"
		}
		price, _ := strconv.ParseFloat(row.Price, 64)
		fill := Fill{
			ExecID:   row.ExecutionID,
			OrderID:  row.OrderID,
			Contract: c,
			Side:     side,
			Shares:   row.Size,
			Price:    price,
			// The gateway separates date and time with a dash; the
			// canonical execution timestamp format uses a space.
			Time:     strings.Replace(row.TradeTime, "-", " ", 1),
			Exchange: row.Exchange,
		}
		if commission, err := strconv.ParseFloat(row.Commission, 64); err == nil {
			currency := row.Currency
			if currency == "" {
				currency = "USD"
			}
			fill.Commission = &CommissionReport{
				Commission: commission,
				Currency:   currency,
			}
		}
		fills = append(fills, fill)
	}
	return fills, nil
}

// CancelOrder submits a cancel request for a working order.
func (g *ClientPortal) CancelOrder(ctx context.Context, account string, orderID int64) error {
	path := fmt.Sprintf("/iserver/account/%s/order/%d", account, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, g.baseURL+path, nil)
	if err != nil {
		return apperrors.NewGatewayError("account/order", "building cancel request", err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return apperrors.NewGatewayError("account/order", "cancel request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return apperrors.NewGatewayError("account/order",
			fmt.Sprintf("cancel rejected with status %d", resp.StatusCode), nil)
	}
	return nil
}

// OptionChainParams lists the option chain parameter sets for an underlying.
// One set is produced per search row that carries an OPT section; the strike
// grid is resolved for monthHint, or the earliest month when the hint is
// empty.
func (g *ClientPortal) OptionChainParams(ctx context.Context, underlying Contract, monthHint string) ([]ChainParams, error) {
	results, err := g.search(ctx, underlying.Symbol)
	if err != nil {
		return nil, err
	}

	var params []ChainParams
	for _, r := range results {
		if !strings.EqualFold(r.Symbol, underlying.Symbol) {
			continue
		}
		conid, err := strconv.Atoi(r.ConID.String())
		if err != nil {
			continue
		}
		for _, section := range r.Sections {
			if section.SecType != "OPT" {
				continue
			}
			months := splitMonths(section.Months)
			if len(months) == 0 {
				continue
			}
			month := monthHint
			if month == "" || !containsMonth(months, month) {
				month = months[0]
			}
			strikes, err := g.strikes(ctx, conid, month)
			if err != nil {
				g.logger.Warn().Str("symbol", underlying.Symbol).Str("month", month).
					Err(err).Msg("Strike grid fetch failed")
				continue
			}
			exchange := section.Exchange
			if exchange == "" {
				exchange = "SMART"
			}
			params = append(params, ChainParams{
				Exchange:        exchange,
				UnderlyingConID: conid,
				Expirations:     monthsToExpirations(months),
				Strikes:         strikes,
			})
		}
	}
	return params, nil
}

func (g *ClientPortal) strikes(ctx context.Context, conid int, month string) ([]float64, error) {
	path := fmt.Sprintf("/iserver/secdef/strikes?conid=%d&sectype=OPT&month=%s", conid, month)
	body, err := g.get(ctx, path)
	if err != nil {
		return nil, apperrors.NewGatewayError("secdef/strikes", "fetching strikes", err)
	}

	var payload struct {
		Call []float64 `json:"call"`
		Put  []float64 `json:"put"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.NewGatewayError("secdef/strikes", "parsing response", err)
	}
	if len(payload.Call) >= len(payload.Put) {
		return payload.Call, nil
	}
	return payload.Put, nil
}

func (g *ClientPortal) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// parseSnapshot maps the gateway's numbered fields onto a Snapshot. Absent
// fields stay zero; greeks are attached only when the model reported at
// least one value.
func parseSnapshot(conid int, row map[string]interface{}) *Snapshot {
	snap := &Snapshot{ConID: conid, Time: time.Now()}
	snap.Last = fieldFloat(row, "31")
	snap.Bid = fieldFloat(row, "84")
	snap.Ask = fieldFloat(row, "86")
	snap.High = fieldFloat(row, "70")
	snap.Low = fieldFloat(row, "71")
	snap.Close = fieldFloat(row, "7295")
	if v := fieldFloat(row, "87_raw"); v > 0 {
		snap.Volume = v
	} else {
		snap.Volume = fieldFloat(row, "87")
	}

	greeks := EmptyModelGreeks()
	present := false
	for key, target := range map[string]*float64{
		"7308": &greeks.Delta,
		"7309": &greeks.Gamma,
		"7310": &greeks.Theta,
		"7311": &greeks.Vega,
		"7283": &greeks.ImpliedVol,
	} {
		if _, ok := row[key]; !ok {
			continue
		}
		*target = fieldFloat(row, key)
		present = true
	}
	if present {
		snap.Greeks = &greeks
	}
	return snap
}

// fieldFloat extracts a numeric field value, tolerating the gateway's mix of
// numbers, prefixed strings ("C123.45" marks a prior close) and wrapped
// {"v": ...} objects.
func fieldFloat(row map[string]interface{}, key string) float64 {
	val, ok := row[key]
	if !ok {
		return 0
	}
	switch v := val.(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		trimmed := strings.TrimLeft(v, "CHch")
		f, err := strconv.ParseFloat(strings.TrimSpace(trimmed), 64)
		if err != nil || math.IsNaN(f) {
			return 0
		}
		return f
	case map[string]interface{}:
		if inner, ok := v["v"]; ok {
			return fieldFloat(map[string]interface{}{"v": inner}, "v")
		}
	}
	return 0
}

var monthNames = [...]string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN",
	"JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

// MonthHint converts a yyyymmdd expiry into the gateway's contract month
// code, or empty when the expiry is absent or malformed.
func MonthHint(expiry string) string {
	if expiry == "" {
		return ""
	}
	code, err := monthCode(expiry)
	if err != nil {
		return ""
	}
	return code
}

// monthCode converts a yyyymmdd (or yyyymm) expiry to the gateway's MMMYY
// contract month code.
func monthCode(expiry string) (string, error) {
	if len(expiry) < 6 {
		return "", fmt.Errorf("expiry too short: %q", expiry)
	}
	month, err := strconv.Atoi(expiry[4:6])
	if err != nil || month < 1 || month > 12 {
		return "", fmt.Errorf("bad expiry month: %q", expiry)
	}
	return monthNames[month-1] + expiry[2:4], nil
}

// monthsToExpirations converts MMMYY month codes to sortable yyyymm strings.
func monthsToExpirations(months []string) []string {
	out := make([]string, 0, len(months))
	for _, m := range months {
		if len(m) < 5 {
			continue
		}
		num := 0
		for i, name := range monthNames {
			if strings.EqualFold(m[:3], name) {
				num = i + 1
				break
			}
		}
		if num == 0 {
			continue
		}
		out = append(out, fmt.Sprintf("20%s%02d", m[3:5], num))
	}
	return out
}

func splitMonths(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ";")
	months := parts[:0]
	for _, p := range parts {
		if p != "" {
			months = append(months, p)
		}
	}
	return months
}

func containsMonth(months []string, month string) bool {
	for _, m := range months {
		if strings.EqualFold(m, month) {
			return true
		}
	}
	return false
}

func firstField(desc string) string {
	fields := strings.Fields(desc)
	if len(fields) == 0 {
		return desc
	}
	return fields[0]
}

// Ensure ClientPortal implements Transport
var _ Transport = (*ClientPortal)(nil)
