package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "splashbot/core/config"
	coretelegram "splashbot/core/telegram"
)

type fakeCarrier struct {
	cfg *coreconfig.Config
}

func (f fakeCarrier) CoreConfig() *coreconfig.Config { return f.cfg }

type fakeApp struct {
	calls *[]string
}

func (f *fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{Config: &coreconfig.Config{}}, nil
}

func (f *fakeApp) Close() error {
	*f.calls = append(*f.calls, "app.close")
	return nil
}

func TestRunClosesAppAfterBotLoop(t *testing.T) {
	var calls []string

	err := Run(Options{
		DefaultConfigPath: "unused.yaml",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			return fakeCarrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(cfg ConfigCarrier) (TelegramApp, error) {
			return &fakeApp{calls: &calls}, nil
		},
		ShutdownLogger: func() error {
			calls = append(calls, "logger.shutdown")
			return nil
		},
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			calls = append(calls, "run")
			return nil
		},
	})
	require.NoError(t, err)

	// The app releases shared resources only after the run loop (which
	// drains the dispatcher) has returned; the logger flushes last.
	assert.Equal(t, []string{"run", "app.close", "logger.shutdown"}, calls)
}
