package wallet

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/selfkeeper/internal/caip"
	"github.com/dmitrijs2005/selfkeeper/internal/logging"
)

// InjectedName is the candidate name of the auto-detected provider.
const InjectedName = "injected"

// ProviderOption registers an extra wallet with the selector.
type ProviderOption struct {
	Display string
	Open    func(ctx context.Context) (RawProvider, error)
}

// Options configure a Selector. They are fixed for the selector's lifetime.
type Options struct {
	Network                 string
	ProviderOptions         map[string]ProviderOption
	DisableInjectedProvider bool
}

// Candidate is a wallet the user may choose from.
type Candidate struct {
	Name    string
	Display string
}

// Chooser asks the user to pick one of several candidates and returns its index.
type Chooser func(ctx context.Context, candidates []Candidate) (int, error)

// Detector reports the injected provider, if one is present.
type Detector func() (ProviderOption, bool)

type candidate struct {
	Candidate
	open func(ctx context.Context) (RawProvider, error)
}

// Selector runs one wallet selection flow at a time.
type Selector struct {
	opts    Options
	chainID uint64
	detect  Detector
	choose  Chooser
	logger  logging.Logger

	mu     sync.Mutex
	closed bool
}

func NewSelector(opts Options, detect Detector, choose Chooser, logger logging.Logger) (*Selector, error) {
	chainID, err := caip.ChainID(opts.Network)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Selector{
		opts:    opts,
		chainID: chainID,
		detect:  detect,
		choose:  choose,
		logger:  logger.With("module", "wallet"),
	}, nil
}

// ChainID is the chain id of the configured network.
func (s *Selector) ChainID() uint64 {
	return s.chainID
}

// Candidates lists the wallets Connect would offer, injected provider first.
func (s *Selector) Candidates() []Candidate {
	found := s.candidates()
	out := make([]Candidate, len(found))
	for i, c := range found {
		out[i] = c.Candidate
	}
	return out
}

func (s *Selector) candidates() []candidate {
	var out []candidate

	if !s.opts.DisableInjectedProvider && s.detect != nil {
		if opt, ok := s.detect(); ok {
			out = append(out, candidate{Candidate{InjectedName, opt.Display}, opt.Open})
		}
	}

	names := make([]string, 0, len(s.opts.ProviderOptions))
	for name := range s.opts.ProviderOptions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		opt := s.opts.ProviderOptions[name]
		out = append(out, candidate{Candidate{name, opt.Display}, opt.Open})
	}

	return out
}

// Connect selects a wallet, opens it and asks it for account access.
func (s *Selector) Connect(ctx context.Context) (RawProvider, error) {
	if s.isClosed() {
		return nil, ErrSelectorClosed
	}

	found := s.candidates()
	if len(found) == 0 {
		return nil, ErrNoProvider
	}

	chosen := found[0]
	if len(found) > 1 {
		if s.choose == nil {
			return nil, fmt.Errorf("%d wallets available and no chooser", len(found))
		}
		idx, err := s.choose(ctx, s.Candidates())
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(found) {
			return nil, fmt.Errorf("wallet choice %d out of range", idx)
		}
		chosen = found[idx]
	}

	s.logger.Debug(ctx, "opening wallet", "wallet", chosen.Name)

	raw, err := chosen.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s wallet: %w", chosen.Name, err)
	}

	if _, err := raw.Request(ctx, MethodRequestAccounts); err != nil {
		discard(raw)
		return nil, err
	}

	if s.isClosed() {
		discard(raw)
		return nil, ErrSelectorClosed
	}

	s.logger.Info(ctx, "wallet connected", "wallet", chosen.Name)
	return raw, nil
}

// discard releases a provider that will not be handed out.
func discard(raw RawProvider) {
	if c, ok := raw.(interface{ Close() }); ok {
		c.Close()
	}
}

func (s *Selector) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the selector. Further Connect calls fail, and a flow still
// in progress fails once it returns from the wallet.
func (s *Selector) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
