package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/selfkeeper/internal/caip"
	"github.com/dmitrijs2005/selfkeeper/internal/client/client"
	"github.com/dmitrijs2005/selfkeeper/internal/client/config"
	"github.com/dmitrijs2005/selfkeeper/internal/client/connection"
	"github.com/dmitrijs2005/selfkeeper/internal/client/profile"
	"github.com/dmitrijs2005/selfkeeper/internal/client/wallet"
	"github.com/dmitrijs2005/selfkeeper/internal/filex"
	"github.com/dmitrijs2005/selfkeeper/internal/logging"
)

type Mode string

const (
	ModeUnknown Mode = ""
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	client  client.Client
	ctrl    *connection.Controller
	editor  *profile.Editor
	chainID uint64
	reader  *bufio.Reader
	out     io.Writer

	mu   sync.Mutex
	mode Mode
}

func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	chainID, err := caip.ChainID(c.Network)
	if err != nil {
		return nil, err
	}

	apiClient, err := client.NewIdentityClient(c.ServerEndpointAddr, logger)
	if err != nil {
		return nil, err
	}

	a := &App{
		config:  c,
		logger:  logger,
		client:  apiClient,
		chainID: chainID,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}

	if err := a.buildController(); err != nil {
		_ = apiClient.Close()
		return nil, err
	}
	return a, nil
}

// walletOptions builds the selector options. ProviderOptions stays empty
// unless a local keystore exists on disk; then it is offered as the
// "keystore" wallet next to the injected provider. Without a keystore the
// selector sees exactly the injected provider with no extra options.
func (a *App) walletOptions() wallet.Options {
	opts := wallet.Options{
		Network:                 a.config.Network,
		DisableInjectedProvider: a.config.DisableInjectedProvider,
	}
	if filex.Exists(a.config.KeystorePath) {
		opts.ProviderOptions = map[string]wallet.ProviderOption{
			wallet.KeystoreName: wallet.KeystoreOption(a.config.KeystorePath, a.chainID, a.askPassphrase, a.approve),
		}
	}
	return opts
}

func (a *App) newSelector(opts wallet.Options) (connection.WalletSelector, error) {
	sel, err := wallet.NewSelector(opts, wallet.InjectedDetector(a.config.InjectedProviderURL), a.chooseWallet, a.logger)
	if err != nil {
		return nil, err
	}
	return sel, nil
}

func (a *App) buildController() error {
	ctrl, err := connection.New(a.walletOptions(), a.newSelector, a.client, a.logger)
	if err != nil {
		return err
	}
	a.ctrl = ctrl
	return nil
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.logger.Info(ctx, "connectivity changed", "mode", string(mode))
	}
}

func (a *App) currentMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// StartOnlineStatusWatcher pings the identity node every interval until ctx
// is done and tracks whether it is reachable.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		a.checkOnline(ctx)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.client.Ping(pingCtx)
	cancel()

	if err != nil {
		a.setMode(ctx, ModeOffline)
		return
	}
	a.setMode(ctx, ModeOnline)
}

func (a *App) getStatus() string {
	s := a.ctrl.Session().Status.String()
	if m := a.currentMode(); m != ModeUnknown {
		s += " " + string(m)
	}
	return fmt.Sprintf("(%s)", s)
}

func (a *App) isConnected() bool {
	return a.ctrl.Session().Connected()
}

// Run starts the connectivity watcher and the REPL. It returns when the
// user exits or input ends, after signing out.
func (a *App) Run(ctx context.Context) {
	watchCtx, cancel := context.WithCancel(ctx)

	defer func() {
		cancel()
		if err := a.ctrl.Close(ctx); err != nil {
			a.logger.Warn(ctx, "closing connection", "error", err)
		}
		_ = a.client.Close()
	}()

	go a.StartOnlineStatusWatcher(watchCtx, a.config.OnlineCheckInterval)

	fmt.Fprintln(a.out, "Welcome to selfkeeper (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}
