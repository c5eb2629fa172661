package app_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bmcprobe/internal/adapters/filesystem"
	"bmcprobe/internal/app"
	"bmcprobe/internal/domain"
	bmcerrors "bmcprobe/internal/errors"
	"bmcprobe/internal/testutil"
)

func TestNewApp_Defaults(t *testing.T) {
	var logs bytes.Buffer
	a, err := app.NewApp(context.Background(),
		app.WithFileSystem(filesystem.NewMemory("/home/operator")),
		app.WithLogOutput(&logs))

	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, a.Config.LogLevel)
	assert.Equal(t, 2, a.Config.Retries)
	assert.NotNil(t, a.ConfigRepo)
	assert.NotNil(t, a.RedfishServiceFactory)
	assert.NotNil(t, a.PowerSweeper)
	assert.NotNil(t, a.Poller)
	assert.NotNil(t, a.IPMIRunner)

	_, err = uuid.Parse(a.RunID)
	require.NoError(t, err)

	path, err := a.ConfigProvider.GetTargetsPath()
	require.NoError(t, err)
	assert.Equal(t, "/home/operator/.config/bmcprobe/targets.yaml", path)
}

func TestNewApp_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name  string
		opt   app.Option
		field string
	}{
		{name: "log format", opt: app.WithLogFormat("xml"), field: "log-format"},
		{name: "negative retries", opt: app.WithRetries(-1), field: "retries"},
		{name: "negative http timeout", opt: app.WithHTTPTimeout(-time.Second), field: "http-timeout"},
		{name: "negative sweep workers", opt: app.WithSweepWorkers(-3), field: "sweep-workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := app.NewApp(context.Background(),
				app.WithFileSystem(filesystem.NewMemory("/home/operator")),
				app.WithLogOutput(&bytes.Buffer{}),
				tt.opt)

			require.Error(t, err)
			assert.Nil(t, a)
			assert.True(t, bmcerrors.IsConfiguration(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestNewApp_VerboseJSONLogsCarryRunID(t *testing.T) {
	var logs bytes.Buffer
	a, err := app.NewApp(context.Background(),
		app.WithFileSystem(filesystem.NewMemory("/home/operator")),
		app.WithVerbose(true),
		app.WithLogFormat("json"),
		app.WithLogOutput(&logs))

	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, a.Config.LogLevel)

	a.Logger.Debug("probe")
	assert.Contains(t, logs.String(), `"run_id":"`+a.RunID+`"`)
}

func TestRedfishServiceFactory_FreshSessionPerTarget(t *testing.T) {
	bmc := testutil.NewFakeBMC(t)
	factory := app.NewRedfishServiceFactory(testutil.Logger(), &app.Config{
		HTTPTimeout:       5 * time.Second,
		RequestsPerSecond: 1000,
	})
	target := domain.Target{URL: bmc.URL(), Username: "root"}

	first := factory.CreateServices(target, true)
	second := factory.CreateServices(target, true)
	assert.NotSame(t, first.Sessions, second.Sessions)

	ctx := context.Background()
	_, err := first.Sessions.Acquire(ctx, domain.Credential{Username: "root", Secret: "0penBmc"}, bmc.URL())
	require.NoError(t, err)

	system, err := first.Systems.GetSystem(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.PowerStateOn, system.PowerState)

	_, err = second.Systems.GetSystem(ctx)
	require.Error(t, err, "the second set never authenticated")
}

func TestRedfishServiceFactory_SecureRejectsSelfSigned(t *testing.T) {
	bmc := testutil.NewFakeBMC(t)
	factory := app.NewRedfishServiceFactory(testutil.Logger(), nil)
	target := domain.Target{URL: bmc.URL(), Username: "root"}

	services := factory.CreateServices(target, false)
	_, err := services.Sessions.Acquire(context.Background(),
		domain.Credential{Username: "root", Secret: "0penBmc"}, bmc.URL())

	require.Error(t, err)
}
