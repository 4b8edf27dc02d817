package gateway

import (
	"context"
	"sync"
	"time"

	apperrors "ibkr-trader/internal/errors"
)

// Sim is an in-memory Transport used for tests and paper dry runs. Every
// response is scripted up front; call recording lets tests assert on
// subscription lifecycles.
type Sim struct {
	mu sync.Mutex

	// Scripted state.
	Accounts     []string
	Ledger       map[string][]AccountValue
	Positions    map[string][]PortfolioItem
	Contracts    map[string]Contract   // keyed by LocalSymbol
	Snapshots    map[int][]*Snapshot   // consumed one per ReadSnapshot; last repeats
	OrderRows    []OrderRecord
	FillRows     []Fill
	Chains       map[string][]ChainParams

	// Failure injection.
	ConnectErrs   []error // consumed one per Connect call
	QualifyErr    error
	SnapshotErr   map[int]error // per-conid ReadSnapshot failure
	AliveOverride *bool         // forces IsConnected when set

	// Recorded activity.
	connects     int
	reads        map[int]int
	subscribed   map[int]bool
	Subscribes   []int
	Cancels      []int
	CancelledIDs []int64

	connected bool
}

// NewSim returns a Sim with empty scripted state.
func NewSim() *Sim {
	return &Sim{
		Ledger:      make(map[string][]AccountValue),
		Positions:   make(map[string][]PortfolioItem),
		Contracts:   make(map[string]Contract),
		Snapshots:   make(map[int][]*Snapshot),
		Chains:      make(map[string][]ChainParams),
		SnapshotErr: make(map[int]error),
		reads:       make(map[int]int),
		subscribed:  make(map[int]bool),
	}
}

// ConnectCount reports how many Connect calls the sim has seen.
func (s *Sim) ConnectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connects
}

func (s *Sim) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects++
	if len(s.ConnectErrs) > 0 {
		err := s.ConnectErrs[0]
		s.ConnectErrs = s.ConnectErrs[1:]
		if err != nil {
			return err
		}
	}
	s.connected = true
	return nil
}

func (s *Sim) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

func (s *Sim) IsConnected(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AliveOverride != nil {
		return *s.AliveOverride
	}
	return s.connected
}

func (s *Sim) ManagedAccounts(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Accounts...), nil
}

func (s *Sim) AccountValues(ctx context.Context, account string) ([]AccountValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AccountValue(nil), s.Ledger[account]...), nil
}

func (s *Sim) PortfolioItems(ctx context.Context, account string) ([]PortfolioItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PortfolioItem(nil), s.Positions[account]...), nil
}

func (s *Sim) QualifyContract(ctx context.Context, c Contract) (Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.QualifyErr != nil {
		return c, s.QualifyErr
	}
	if qualified, ok := s.Contracts[c.LocalSymbol()]; ok {
		return qualified, nil
	}
	return c, apperrors.Wrapf(apperrors.ErrContractNotFound, "symbol %s", c.Symbol)
}

func (s *Sim) SearchContract(ctx context.Context, c Contract) (Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if qualified, ok := s.Contracts["search:"+c.LocalSymbol()]; ok {
		return qualified, nil
	}
	return c, apperrors.Wrapf(apperrors.ErrContractNotFound, "symbol %s", c.Symbol)
}

func (s *Sim) RequestSnapshot(ctx context.Context, c Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Subscribes = append(s.Subscribes, c.ConID)
	s.subscribed[c.ConID] = true
	return nil
}

func (s *Sim) ActiveSnapshot(c Contract) (*Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.subscribed[c.ConID] {
		return nil, false
	}
	series := s.Snapshots[c.ConID]
	idx := s.reads[c.ConID]
	if len(series) == 0 {
		return &Snapshot{ConID: c.ConID, Time: time.Now()}, true
	}
	if idx >= len(series) {
		idx = len(series) - 1
	}
	return series[idx], true
}

// ReadSnapshot consumes the next scripted snapshot for the contract; once the
// script is exhausted the last entry repeats. An empty script yields an
// all-zero snapshot, which never satisfies a fetcher's price check.
func (s *Sim) ReadSnapshot(ctx context.Context, c Contract) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.SnapshotErr[c.ConID]; err != nil {
		return nil, err
	}
	series := s.Snapshots[c.ConID]
	idx := s.reads[c.ConID]
	s.reads[c.ConID]++
	if len(series) == 0 {
		return &Snapshot{ConID: c.ConID, Time: time.Now()}, nil
	}
	if idx >= len(series) {
		idx = len(series) - 1
	}
	return series[idx], nil
}

func (s *Sim) CancelSnapshot(c Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cancels = append(s.Cancels, c.ConID)
	delete(s.subscribed, c.ConID)
	return nil
}

func (s *Sim) Orders(ctx context.Context, openOnly bool) ([]OrderRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]OrderRecord, 0, len(s.OrderRows))
	for _, row := range s.OrderRows {
		if openOnly && !row.Active() {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *Sim) Fills(ctx context.Context) ([]Fill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Fill(nil), s.FillRows...), nil
}

func (s *Sim) CancelOrder(ctx context.Context, account string, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CancelledIDs = append(s.CancelledIDs, orderID)
	for i, row := range s.OrderRows {
		if row.OrderID == orderID {
			s.OrderRows[i].Status = "Cancelled"
			return nil
		}
	}
	return apperrors.NewGatewayError("account/order", "order not found at gateway", nil)
}

func (s *Sim) OptionChainParams(ctx context.Context, underlying Contract, monthHint string) ([]ChainParams, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ChainParams(nil), s.Chains[underlying.Symbol]...), nil
}

var _ Transport = (*Sim)(nil)
