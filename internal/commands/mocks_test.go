package commands

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"bmcprobe/internal/app"
	"bmcprobe/internal/domain"
	"bmcprobe/internal/services/poll"
	"bmcprobe/internal/testutil"
)

var rootCredential = domain.Credential{Username: "root", Secret: "0penBmc"}

type mockConfigRepository struct {
	mock.Mock
}

func (m *mockConfigRepository) GetTargets(ctx context.Context) ([]domain.Target, error) {
	args := m.Called(ctx)
	targets, _ := args.Get(0).([]domain.Target)
	return targets, args.Error(1)
}

func (m *mockConfigRepository) FindTarget(ctx context.Context, ref string) (domain.Target, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(domain.Target), args.Error(1)
}

func (m *mockConfigRepository) AddTarget(ctx context.Context, target domain.Target) error {
	return m.Called(ctx, target).Error(0)
}

func (m *mockConfigRepository) RemoveTarget(ctx context.Context, ref string) error {
	return m.Called(ctx, ref).Error(0)
}

func (m *mockConfigRepository) SaveConfig(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockConfigRepository) LoadConfig(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockPasswordReader struct {
	mock.Mock
}

func (m *mockPasswordReader) ReadPassword(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *mockPasswordReader) IsInteractive() bool {
	return m.Called().Bool(0)
}

type mockPowerSweeper struct {
	mock.Mock
}

func (m *mockPowerSweeper) SweepTargets(
	ctx context.Context,
	targets []domain.Target,
	credentials map[string]domain.Credential,
	insecureSkipTLS bool,
) []domain.SweepResult {
	args := m.Called(ctx, targets, credentials, insecureSkipTLS)
	results, _ := args.Get(0).([]domain.SweepResult)
	return results
}

type mockOutOfBandReader struct {
	mock.Mock
}

func (m *mockOutOfBandReader) ReadSensor(ctx context.Context, name string) (float64, bool, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(float64), args.Bool(1), args.Error(2)
}

func newTestFactory() domain.RedfishServiceFactory {
	return app.NewRedfishServiceFactory(testutil.Logger(), &app.Config{
		HTTPTimeout:       5 * time.Second,
		RequestsPerSecond: 1000,
	})
}

func newTestPoller() (*poll.Poller, *testutil.FakeClock) {
	clock := testutil.NewFakeClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	return poll.New(testutil.Logger(), poll.WithClock(clock)), clock
}

func checkRequest(bmc *testutil.FakeBMC) CheckRequest {
	return CheckRequest{
		Target:          domain.Target{URL: bmc.URL(), Username: "root"},
		Credential:      rootCredential,
		InsecureSkipTLS: true,
	}
}
