package testsupport

import (
	"path/filepath"
	"testing"

	"darkroom/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Telegram.BotToken = "test-token"
	cfgVal.Telegram.AdminID = 1000
	cfgVal.Telegram.TempMessageTTL = 0
	cfgVal.Dashboard.Bind = "127.0.0.1:0"
	cfgVal.Dashboard.AdminToken = "test-admin-token"

	builder := &configBuilder{t: t, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithCapacity sets the queue capacity on the test config.
func WithCapacity(capacity int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Queue.Capacity = capacity
	}
}

// WithNtfyTopic enables operator notifications against the given topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// WithAdminID overrides the Telegram admin account on the test config.
func WithAdminID(id int64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Telegram.AdminID = id
	}
}
