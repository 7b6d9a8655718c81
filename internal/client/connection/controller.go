// Package connection owns the wallet-to-identity connection: it drives the
// wallet selection and sign-in handshake and publishes every status change.
package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/selfkeeper/internal/client/ethauth"
	"github.com/dmitrijs2005/selfkeeper/internal/client/models"
	"github.com/dmitrijs2005/selfkeeper/internal/client/wallet"
	"github.com/dmitrijs2005/selfkeeper/internal/client/web3"
	"github.com/dmitrijs2005/selfkeeper/internal/logging"
	"github.com/ethereum/go-ethereum/common"
)

const releaseTimeout = 5 * time.Second

var (
	// ErrConnectInProgress is returned by Connect while another attempt runs.
	ErrConnectInProgress = errors.New("connect already in progress")
	// ErrAlreadyConnected is returned by Connect while a session is established.
	ErrAlreadyConnected = errors.New("already connected")
	// ErrConnectAborted reports an attempt abandoned by Disconnect or Close;
	// its result, if any, was discarded.
	ErrConnectAborted = errors.New("connect aborted")
	// ErrClosed is returned by Connect after Close.
	ErrClosed = errors.New("connection controller is closed")
)

// WalletSelector lets the user pick a wallet and grants account access.
type WalletSelector interface {
	Connect(ctx context.Context) (wallet.RawProvider, error)
	Close() error
}

// SelectorFactory builds a fresh selector with the controller's options.
type SelectorFactory func(opts wallet.Options) (WalletSelector, error)

// Establisher exchanges a credential for an authenticated identity.
type Establisher interface {
	Establish(ctx context.Context, cred models.Credential) (*models.Identity, error)
}

// CredentialFactory builds the credential presented for raw's account addr.
type CredentialFactory func(ctx context.Context, raw wallet.RawProvider, addr common.Address) (models.Credential, error)

// ethereumCredential is the default CredentialFactory.
func ethereumCredential(ctx context.Context, raw wallet.RawProvider, addr common.Address) (models.Credential, error) {
	cred, err := ethauth.NewEthereumAuthProvider(ctx, raw, addr)
	if err != nil {
		return nil, err
	}
	return cred, nil
}

// Option customises a Controller built by New.
type Option func(*Controller)

// WithCredentialFactory replaces the default Ethereum credential. The factory
// receives the raw wallet provider, not the wrapped one.
func WithCredentialFactory(f CredentialFactory) Option {
	return func(c *Controller) { c.newCredential = f }
}

type subscriber struct {
	id int
	fn func(Session)
}

// Controller is safe for concurrent use. At most one connect attempt runs
// at a time.
type Controller struct {
	opts          wallet.Options
	newSelector   SelectorFactory
	establisher   Establisher
	newCredential CredentialFactory
	logger        logging.Logger

	mu          sync.Mutex
	session     Session
	selector    WalletSelector
	generation  uint64
	cancel      context.CancelFunc
	closed      bool
	subscribers []subscriber
	nextSubID   int
	pending     []Session
	delivering  bool
}

// New builds a disconnected controller and its first wallet selector.
func New(opts wallet.Options, newSelector SelectorFactory, establisher Establisher, logger logging.Logger, options ...Option) (*Controller, error) {
	if logger == nil {
		logger = logging.Nop{}
	}
	c := &Controller{
		opts:          opts,
		newSelector:   newSelector,
		establisher:   establisher,
		newCredential: ethereumCredential,
		logger:        logger.With("module", "connection"),
	}
	for _, o := range options {
		o(c)
	}

	sel, err := newSelector(opts)
	if err != nil {
		return nil, fmt.Errorf("wallet selector: %w", err)
	}
	c.selector = sel
	return c, nil
}

// Session returns the current snapshot.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Subscribe registers fn for every status transition, delivered in order.
// fn must not block for long; it may call back into the controller.
func (c *Controller) Subscribe(fn func(Session)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	c.subscribers = append(c.subscribers, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, s := range c.subscribers {
				if s.id == id {
					c.subscribers = append(c.subscribers[:i:i], c.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

// Connect runs wallet selection, signer discovery and the identity
// handshake in sequence. Any failure leaves the controller disconnected.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	switch c.session.Status {
	case StatusConnecting:
		c.mu.Unlock()
		return ErrConnectInProgress
	case StatusConnected:
		c.mu.Unlock()
		return ErrAlreadyConnected
	}

	if c.selector == nil {
		sel, err := c.newSelector(c.opts)
		if err != nil {
			c.mu.Unlock()
			return fmt.Errorf("wallet selector: %w", err)
		}
		c.selector = sel
	}
	sel := c.selector

	c.generation++
	gen := c.generation
	attemptCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.transitionLocked(Session{Status: StatusConnecting})
	c.mu.Unlock()
	c.flush()

	id, err := c.handshake(attemptCtx, sel)
	if err == nil && attemptCtx.Err() != nil {
		err = attemptCtx.Err()
	}

	c.mu.Lock()
	cancel()
	if gen != c.generation {
		c.mu.Unlock()
		c.release(ctx, id)
		c.logger.Info(ctx, "connect attempt discarded")
		return ErrConnectAborted
	}
	c.cancel = nil

	if err != nil {
		c.transitionLocked(Session{Status: StatusDisconnected})
		c.mu.Unlock()
		c.flush()
		c.release(ctx, id)
		c.logger.Warn(ctx, "connect failed", "error", err)
		return err
	}

	if cerr := c.selector.Close(); cerr != nil {
		c.logger.Warn(ctx, "releasing wallet selector", "error", cerr)
	}
	c.selector = nil
	c.transitionLocked(Session{Status: StatusConnected, Identity: id})
	c.mu.Unlock()
	c.flush()

	c.logger.Info(ctx, "connected", "did", id.ID)
	return nil
}

func (c *Controller) handshake(ctx context.Context, sel WalletSelector) (*models.Identity, error) {
	raw, err := sel.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("select wallet: %w", err)
	}
	if closer, ok := raw.(interface{ Close() }); ok {
		defer closer.Close()
	}

	provider := web3.NewWeb3Provider(raw)
	addr, err := provider.Signer().Address(ctx)
	if err != nil {
		return nil, fmt.Errorf("signer address: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cred, err := c.newCredential(ctx, provider.Provider(), addr)
	if err != nil {
		return nil, fmt.Errorf("credential: %w", err)
	}

	id, err := c.establisher.Establish(ctx, cred)
	if err != nil {
		return nil, fmt.Errorf("establish session: %w", err)
	}
	return id, nil
}

// Disconnect returns the controller to disconnected. An attempt in flight is
// abandoned; a connected identity is released. Calling it while already
// disconnected does nothing.
func (c *Controller) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}

	var id *models.Identity
	switch c.session.Status {
	case StatusDisconnected:
		c.mu.Unlock()
		return nil
	case StatusConnecting:
		c.abortAttemptLocked()
	case StatusConnected:
		id = c.session.Identity
		c.generation++
		c.selector = nil
		if sel, err := c.newSelector(c.opts); err != nil {
			// retried on the next Connect
			c.logger.Warn(ctx, "wallet selector", "error", err)
		} else {
			c.selector = sel
		}
	}

	c.transitionLocked(Session{Status: StatusDisconnected})
	c.mu.Unlock()
	c.flush()

	c.release(ctx, id)
	c.logger.Info(ctx, "disconnected")
	return nil
}

// Close disconnects and releases the wallet selector. The controller cannot
// be used afterwards.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true

	var id *models.Identity
	if c.session.Status == StatusConnecting {
		c.abortAttemptLocked()
	}
	if c.session.Status == StatusConnected {
		id = c.session.Identity
		c.generation++
	}
	if c.session.Status != StatusDisconnected {
		c.transitionLocked(Session{Status: StatusDisconnected})
	}

	var err error
	if c.selector != nil {
		err = c.selector.Close()
		c.selector = nil
	}
	c.mu.Unlock()
	c.flush()

	c.release(ctx, id)
	return err
}

func (c *Controller) abortAttemptLocked() {
	c.generation++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// release revokes the server-side session of id, if any. Failures are logged.
func (c *Controller) release(ctx context.Context, id *models.Identity) {
	if id == nil {
		return
	}
	revoker, ok := id.Records.(models.Revoker)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := revoker.Revoke(ctx); err != nil {
		c.logger.Warn(ctx, "revoking session", "did", id.ID, "error", err)
	}
}

func (c *Controller) transitionLocked(s Session) {
	c.session = s
	c.pending = append(c.pending, s)
}

// flush delivers queued transitions outside the lock. Only one goroutine
// delivers at a time, which keeps events in transition order.
func (c *Controller) flush() {
	c.mu.Lock()
	if c.delivering {
		c.mu.Unlock()
		return
	}
	c.delivering = true

	for len(c.pending) > 0 {
		ev := c.pending[0]
		c.pending = c.pending[1:]
		subs := make([]subscriber, len(c.subscribers))
		copy(subs, c.subscribers)

		c.mu.Unlock()
		for _, s := range subs {
			s.fn(ev)
		}
		c.mu.Lock()
	}

	c.delivering = false
	c.mu.Unlock()
}
