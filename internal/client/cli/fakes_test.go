package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/selfkeeper/internal/client/config"
	"github.com/dmitrijs2005/selfkeeper/internal/client/models"
	"github.com/dmitrijs2005/selfkeeper/internal/logging"
	"github.com/stretchr/testify/require"
)

const testPassphrase = "correct horse"

type fakeRecords struct {
	mu       sync.Mutex
	content  map[string]any
	version  int64
	mergeErr error
	revokes  int
}

func (f *fakeRecords) GetRecord(ctx context.Context, schema string) (models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return models.Record{StreamID: "stream-1", Content: maps.Clone(f.content), Version: f.version}, nil
}

func (f *fakeRecords) MergeRecord(ctx context.Context, schema string, patch map[string]any) (models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mergeErr != nil {
		return models.Record{}, f.mergeErr
	}
	if f.content == nil {
		f.content = map[string]any{}
	}
	maps.Copy(f.content, patch)
	f.version++
	return models.Record{StreamID: "stream-1", Content: maps.Clone(f.content), Version: f.version}, nil
}

func (f *fakeRecords) Revoke(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokes++
	return nil
}

func (f *fakeRecords) revokeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revokes
}

// fakeIdentityClient signs a fixed challenge with the credential and hands
// out an identity backed by records.
type fakeIdentityClient struct {
	records *fakeRecords
	pingErr error

	mu     sync.Mutex
	closed bool
	pings  int
}

func (f *fakeIdentityClient) Establish(ctx context.Context, cred models.Credential) (*models.Identity, error) {
	if _, err := cred.Authenticate(ctx, "selfkeeper wants you to sign in"); err != nil {
		return nil, err
	}
	return &models.Identity{ID: "did:pkh:" + cred.AccountID(), Records: f.records}, nil
}

func (f *fakeIdentityClient) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return f.pingErr
}

func (f *fakeIdentityClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// newTestApp builds an App over a fake identity client with input fed from
// the given lines and no wallet registered yet.
func newTestApp(t *testing.T, lines ...string) (*App, *fakeIdentityClient) {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.KeystorePath = filepath.Join(t.TempDir(), "wallet.json")
	cfg.InjectedProviderURL = ""
	cfg.OnlineCheckInterval = 10 * time.Millisecond

	fc := &fakeIdentityClient{records: &fakeRecords{}}
	a := &App{
		config:  cfg,
		logger:  logging.Nop{},
		client:  fc,
		chainID: 5,
		reader:  bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n")),
		out:     io.Discard,
	}
	require.NoError(t, a.buildController())
	t.Cleanup(func() { _ = a.ctrl.Close(context.Background()) })
	return a, fc
}

// stubInputs answers every passphrase prompt with pass and every wallet
// confirmation with approve.
func stubInputs(t *testing.T, pass string, approve bool) {
	t.Helper()
	oldPw, oldConfirm := getPassword, getConfirmation
	getPassword = func(string, io.Writer) ([]byte, error) { return []byte(pass), nil }
	getConfirmation = func(*bufio.Reader, string, io.Writer) (bool, error) { return approve, nil }
	t.Cleanup(func() {
		getPassword = oldPw
		getConfirmation = oldConfirm
	})
}

// captureOutput collects everything written through printlnFn.
func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	old := printlnFn
	printlnFn = func(a ...any) (int, error) {
		s := strings.TrimSuffix(fmt.Sprintln(a...), "\n")
		lines = append(lines, s)
		return len(s), nil
	}
	t.Cleanup(func() { printlnFn = old })
	return &lines
}
