package services

import (
	"context"
	"crypto/ecdsa"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/selfkeeper/internal/caip"
	"github.com/dmitrijs2005/selfkeeper/internal/dbx"
	"github.com/dmitrijs2005/selfkeeper/internal/server/config"
	"github.com/dmitrijs2005/selfkeeper/internal/server/repositories/repomanager"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func newSQLiteDB(t *testing.T) (*sql.DB, repomanager.RepositoryManager) {
	t.Helper()
	ctx := context.Background()
	db, err := dbx.Open(ctx, dbx.DriverSQLite, filepath.Join(t.TempDir(), "node.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m := &repomanager.SQLiteRepositoryManager{}
	require.NoError(t, m.RunMigrations(ctx, db))
	return db, m
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	return cfg
}

type wallet struct {
	key     *ecdsa.PrivateKey
	account caip.AccountID
}

func newWallet(t *testing.T, chainID uint64) *wallet {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &wallet{key: key, account: caip.NewAccountID(chainID, crypto.PubkeyToAddress(key.PublicKey))}
}

func (w *wallet) sign(t *testing.T, msg string) string {
	t.Helper()
	sig, err := crypto.Sign(accounts.TextHash([]byte(msg)), w.key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig)
}

type recordingObserver struct {
	mu         sync.Mutex
	handshakes []string
	merges     []string
}

func (o *recordingObserver) ObserveHandshake(step, result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.handshakes = append(o.handshakes, step+":"+result)
}

func (o *recordingObserver) ObserveMerge(schema, result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.merges = append(o.merges, schema+":"+result)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
