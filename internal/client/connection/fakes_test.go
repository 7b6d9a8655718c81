package connection

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/selfkeeper/internal/client/ethauth"
	"github.com/dmitrijs2005/selfkeeper/internal/client/models"
	"github.com/dmitrijs2005/selfkeeper/internal/client/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

type fakeSelector struct {
	raw wallet.RawProvider
	err error

	mu       sync.Mutex
	closed   bool
	connects int
}

func (f *fakeSelector) Connect(ctx context.Context) (wallet.RawProvider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if f.err != nil {
		return nil, f.err
	}
	if _, err := f.raw.Request(ctx, wallet.MethodRequestAccounts); err != nil {
		return nil, err
	}
	return f.raw, nil
}

func (f *fakeSelector) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSelector) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// selectorFactory hands out fresh selectors sharing one wallet and records
// every selector it built.
type selectorFactory struct {
	raw wallet.RawProvider
	err error

	mu    sync.Mutex
	built []*fakeSelector
	opts  []wallet.Options
}

func (f *selectorFactory) New(opts wallet.Options) (WalletSelector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opts = append(f.opts, opts)
	s := &fakeSelector{raw: f.raw, err: f.err}
	f.built = append(f.built, s)
	return s, nil
}

func (f *selectorFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.built)
}

func (f *selectorFactory) last() *fakeSelector {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.built[len(f.built)-1]
}

type fakeRecords struct {
	mu      sync.Mutex
	revoked int
}

func (f *fakeRecords) GetRecord(context.Context, string) (models.Record, error) {
	return models.Record{}, nil
}

func (f *fakeRecords) MergeRecord(context.Context, string, map[string]any) (models.Record, error) {
	return models.Record{}, nil
}

func (f *fakeRecords) Revoke(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked++
	return nil
}

func (f *fakeRecords) revokes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoked
}

// fakeEstablisher signs the challenge "challenge" with the credential and
// returns a fixed identity. With gate set it waits for the gate first;
// honorCtx makes it give up when the attempt context ends.
type fakeEstablisher struct {
	err      error
	gate     chan struct{}
	started  chan struct{}
	honorCtx bool

	mu      sync.Mutex
	calls   int
	account string
	records *fakeRecords
}

func newEstablisher() *fakeEstablisher {
	return &fakeEstablisher{records: &fakeRecords{}}
}

func (f *fakeEstablisher) Establish(ctx context.Context, cred models.Credential) (*models.Identity, error) {
	f.mu.Lock()
	f.calls++
	f.account = cred.AccountID()
	f.mu.Unlock()

	if f.started != nil {
		close(f.started)
	}
	if f.gate != nil {
		if f.honorCtx {
			select {
			case <-f.gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		} else {
			<-f.gate
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if _, err := cred.Authenticate(ctx, "challenge"); err != nil {
		return nil, err
	}
	return &models.Identity{ID: "did:pkh:" + cred.AccountID(), Records: f.records}, nil
}

func newLocalWallet(t *testing.T, approve wallet.Approver) *wallet.LocalProvider {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return wallet.NewLocalProvider(key, 5, approve)
}

func approveAll(context.Context, string) (bool, error) { return true, nil }

// recordingWallet passes requests through and remembers the methods asked.
type recordingWallet struct {
	wallet.RawProvider

	mu      sync.Mutex
	methods []string
}

func (r *recordingWallet) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	r.mu.Lock()
	r.methods = append(r.methods, method)
	r.mu.Unlock()
	return r.RawProvider.Request(ctx, method, params...)
}

func (r *recordingWallet) requested() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.methods...)
}

// countingCredentials wraps the default credential factory and keeps the
// raw provider it was handed.
type countingCredentials struct {
	mu    sync.Mutex
	calls int
	raw   wallet.RawProvider
}

func (c *countingCredentials) New(ctx context.Context, raw wallet.RawProvider, addr common.Address) (models.Credential, error) {
	c.mu.Lock()
	c.calls++
	c.raw = raw
	c.mu.Unlock()
	return ethauth.NewEthereumAuthProvider(ctx, raw, addr)
}

// recorder collects transitions.
type recorder struct {
	mu     sync.Mutex
	events []Status
	ch     chan Status
}

func newRecorder(c *Controller) *recorder {
	r := &recorder{ch: make(chan Status, 16)}
	c.Subscribe(func(s Session) {
		r.mu.Lock()
		r.events = append(r.events, s.Status)
		r.mu.Unlock()
		r.ch <- s.Status
	})
	return r
}

func (r *recorder) statuses() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Status, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) waitFor(t *testing.T, want Status) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case s := <-r.ch:
			if s == want {
				return
			}
		case <-timeout:
			t.Fatalf("no %s transition", want)
		}
	}
}
