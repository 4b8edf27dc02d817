package gateway

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestMarketPriceFallbackChain(t *testing.T) {
	tests := []struct {
		name string
		snap *Snapshot
		want float64
	}{
		{"midpoint", &Snapshot{Bid: 10, Ask: 12, Last: 9, Close: 8}, 11},
		{"last", &Snapshot{Ask: 12, Last: 9, Close: 8}, 9},
		{"close", &Snapshot{Close: 8}, 8},
		{"nothing", &Snapshot{}, 0},
		{"nil snapshot", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snap.MarketPrice(); got != tt.want {
				t.Errorf("MarketPrice() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrderRecordActive(t *testing.T) {
	active := []string{"PendingSubmit", "PreSubmitted", "Submitted", "ApiPending"}
	for _, status := range active {
		if !(OrderRecord{Status: status}).Active() {
			t.Errorf("status %q should be active", status)
		}
	}
	for _, status := range []string{"Filled", "Cancelled", "Inactive", ""} {
		if (OrderRecord{Status: status}).Active() {
			t.Errorf("status %q should not be active", status)
		}
	}
}

func TestFieldFloatToleratesGatewayFormats(t *testing.T) {
	row := map[string]interface{}{
		"31":   "187.32",
		"84":   187.10,
		"7295": "C186.50", // prior close marker prefix
		"87":   "bad",
	}
	if got := fieldFloat(row, "31"); got != 187.32 {
		t.Errorf("string field = %v", got)
	}
	if got := fieldFloat(row, "84"); got != 187.10 {
		t.Errorf("numeric field = %v", got)
	}
	if got := fieldFloat(row, "7295"); got != 186.50 {
		t.Errorf("prefixed field = %v", got)
	}
	if got := fieldFloat(row, "87"); got != 0 {
		t.Errorf("garbage field = %v, want 0", got)
	}
	if got := fieldFloat(row, "9999"); got != 0 {
		t.Errorf("absent field = %v, want 0", got)
	}
}

func TestParseSnapshotMapsFieldIDs(t *testing.T) {
	row := map[string]interface{}{
		"31":   "187.32",
		"84":   "187.10",
		"86":   "187.50",
		"85":   "400", // ask size, must not be read as the ask
		"7295": "C186.00",
		"7308": "0.55",
	}
	snap := parseSnapshot(265598, row)

	if snap.Last != 187.32 || snap.Bid != 187.10 || snap.Ask != 187.50 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Close != 186.00 {
		t.Errorf("Close = %v, want 186.00", snap.Close)
	}
	if snap.Greeks == nil {
		t.Fatal("delta reported but greeks nil")
	}
	if snap.Greeks.Delta != 0.55 {
		t.Errorf("Delta = %v, want 0.55", snap.Greeks.Delta)
	}
}

func TestParseSnapshotWithoutGreeks(t *testing.T) {
	snap := parseSnapshot(1, map[string]interface{}{"31": "10"})
	if snap.Greeks != nil {
		t.Errorf("greeks = %+v, want nil when no model fields present", snap.Greeks)
	}
}

func TestMonthCode(t *testing.T) {
	tests := []struct {
		expiry string
		want   string
		ok     bool
	}{
		{"20260116", "JAN26", true},
		{"20261218", "DEC26", true},
		{"202602", "FEB26", true},
		{"2026", "", false},
		{"20261318", "", false},
	}
	for _, tt := range tests {
		got, err := monthCode(tt.expiry)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("monthCode(%q) = %q, %v; want %q", tt.expiry, got, err, tt.want)
		}
		if !tt.ok && err == nil {
			t.Errorf("monthCode(%q) expected error", tt.expiry)
		}
	}
}

func TestMonthHint(t *testing.T) {
	if got := MonthHint("20260220"); got != "FEB26" {
		t.Errorf("MonthHint = %q, want FEB26", got)
	}
	if got := MonthHint(""); got != "" {
		t.Errorf("MonthHint empty = %q, want empty", got)
	}
}

func TestMonthsToExpirations(t *testing.T) {
	got := monthsToExpirations([]string{"JAN26", "FEB26", "DEC26", "bogus"})
	want := []string{"202601", "202602", "202612"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// newTestPortal wires a ClientPortal at a httptest TLS server.
func newTestPortal(t *testing.T, handler http.Handler) (*ClientPortal, *httptest.Server) {
	t.Helper()
	server := httptest.NewTLSServer(handler)
	portal := NewClientPortal("127.0.0.1", 1, 1, 5*time.Second, zerolog.Nop())
	portal.baseURL = server.URL + "/v1/api"
	portal.httpClient = &http.Client{
		Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}},
		Timeout:   5 * time.Second,
	}
	return portal, server
}

func TestClientPortalConnectChecksAuthStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/api/iserver/auth/status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"authenticated": true, "connected": true}`))
	})
	portal, server := newTestPortal(t, mux)
	defer server.Close()

	if err := portal.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !portal.IsConnected(context.Background()) {
		t.Error("IsConnected = false after successful connect")
	}
}

func TestClientPortalConnectRejectsUnauthenticated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/api/iserver/auth/status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"authenticated": false, "connected": true}`))
	})
	portal, server := newTestPortal(t, mux)
	defer server.Close()

	if err := portal.Connect(context.Background()); err == nil {
		t.Fatal("expected error for unauthenticated gateway session")
	}
}

func TestClientPortalAccountValuesMapsSummaryKeys(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/api/portfolio/DU123/summary", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"netliquidation": {"amount": 125430.55, "currency": "USD"},
			"availablefunds": {"amount": 98210.10, "currency": "USD"}
		}`))
	})
	portal, server := newTestPortal(t, mux)
	defer server.Close()

	values, err := portal.AccountValues(context.Background(), "DU123")
	if err != nil {
		t.Fatalf("AccountValues: %v", err)
	}
	byTag := make(map[string]AccountValue)
	for _, v := range values {
		byTag[v.Tag] = v
	}
	if byTag["NetLiquidation"].Value != "125430.55" {
		t.Errorf("NetLiquidation = %q", byTag["NetLiquidation"].Value)
	}
	if byTag["AvailableFunds"].Value != "98210.1" {
		t.Errorf("AvailableFunds = %q", byTag["AvailableFunds"].Value)
	}
}

func TestClientPortalFillsNormalizeSideAndTime(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/api/iserver/account/trades", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{
			"execution_id": "0001.01",
			"order_id": 5,
			"symbol": "AAPL",
			"sec_type": "STK",
			"side": "S",
			"size": 10,
			"price": "187.32",
			"trade_time": "20260115-14:30:05",
			"commission": "1.05",
			"currency": "USD",
			"conid": 265598
		}]`))
	})
	portal, server := newTestPortal(t, mux)
	defer server.Close()

	fills, err := portal.Fills(context.Background())
	if err != nil {
		t.Fatalf("Fills: %v", err)
	}
	if len(fills) != 1 {
		t.Fatalf("fills = %d, want 1", len(fills))
	}
	fill := fills[0]
	if fill.Side != "SLD" {
		t.Errorf("Side = %q, want SLD", fill.Side)
	}
	if fill.Time != "20260115 14:30:05" {
		t.Errorf("Time = %q, want separator normalized", fill.Time)
	}
	if fill.Commission == nil || fill.Commission.Commission != 1.05 {
		t.Errorf("Commission = %+v", fill.Commission)
	}
}
