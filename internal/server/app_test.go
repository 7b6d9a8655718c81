package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/selfkeeper/internal/logging"
	"github.com/dmitrijs2005/selfkeeper/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDSN = filepath.Join(t.TempDir(), "node.db")
	cfg.GRPCAddr = "127.0.0.1:0"
	cfg.MetricsAddr = ""
	return cfg
}

func TestNewApp_SQLite(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t), logging.Nop{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.db.Close() })

	assert.NotNil(t, app.grpc)
	assert.NotNil(t, app.metrics)
}

func TestNewApp_BadNetwork(t *testing.T) {
	cfg := testConfig(t)
	cfg.Network = "ropsten"

	_, err := NewApp(context.Background(), cfg, logging.Nop{})
	assert.Error(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t), logging.Nop{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		app.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
