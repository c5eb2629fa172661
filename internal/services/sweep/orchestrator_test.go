package sweep_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bmcprobe/internal/app"
	"bmcprobe/internal/domain"
	bmcerrors "bmcprobe/internal/errors"
	"bmcprobe/internal/services/sweep"
	"bmcprobe/internal/testutil"
)

func newOrchestrator(workers int) *sweep.Orchestrator {
	factory := app.NewRedfishServiceFactory(testutil.Logger(), &app.Config{
		HTTPTimeout:       5 * time.Second,
		RequestsPerSecond: 1000,
	})
	return sweep.NewOrchestrator(factory, workers, testutil.Logger())
}

func TestSweepTargets_Empty(t *testing.T) {
	results := newOrchestrator(2).SweepTargets(context.Background(), nil, nil, true)

	assert.Nil(t, results)
}

func TestSweepTargets_ReportsEveryTargetInOrder(t *testing.T) {
	on := testutil.NewFakeBMC(t)
	off := testutil.NewFakeBMC(t)
	off.PowerStates = []string{domain.PowerStateOff}
	rejecting := testutil.NewFakeBMC(t)
	rejecting.Password = "rotated"
	unconfigured := testutil.NewFakeBMC(t)

	targets := []domain.Target{
		{URL: on.URL(), Username: "root"},
		{URL: off.URL(), Username: "root"},
		{URL: rejecting.URL(), Username: "root"},
		{URL: unconfigured.URL(), Username: "root"},
	}
	credential := domain.Credential{Username: "root", Secret: "0penBmc"}
	credentials := map[string]domain.Credential{
		targets[0].ID(): credential,
		targets[1].ID(): credential,
		targets[2].ID(): credential,
	}

	results := newOrchestrator(2).SweepTargets(context.Background(), targets, credentials, true)

	require.Len(t, results, 4)
	for i, result := range results {
		assert.Equal(t, targets[i].URL, result.Target.URL)
	}

	require.NoError(t, results[0].Err)
	assert.Equal(t, domain.PowerStateOn, results[0].PowerState)
	assert.Equal(t, "OK", results[0].Health)

	require.NoError(t, results[1].Err)
	assert.Equal(t, domain.PowerStateOff, results[1].PowerState)

	assert.True(t, bmcerrors.IsAuthentication(results[2].Err))

	require.Error(t, results[3].Err)
	assert.Contains(t, results[3].Err.Error(), "no credential")
	assert.Equal(t, 0, unconfigured.SessionPosts())

	for _, bmc := range []*testutil.FakeBMC{on, off, rejecting} {
		assert.Equal(t, 0, bmc.ActiveSessions(), "every session must be closed")
	}
}

func TestSweepTargets_ReadFailureIsPerTarget(t *testing.T) {
	healthy := testutil.NewFakeBMC(t)
	busy := testutil.NewFakeBMC(t)
	busy.SystemFailures = 100

	targets := []domain.Target{
		{URL: busy.URL(), Username: "root"},
		{URL: healthy.URL(), Username: "root"},
	}
	credential := domain.Credential{Username: "root", Secret: "0penBmc"}
	credentials := map[string]domain.Credential{
		targets[0].ID(): credential,
		targets[1].ID(): credential,
	}

	results := newOrchestrator(0).SweepTargets(context.Background(), targets, credentials, true)

	require.Len(t, results, 2)
	require.Error(t, results[0].Err)
	require.NoError(t, results[1].Err)
	assert.Equal(t, domain.PowerStateOn, results[1].PowerState)
	assert.Equal(t, 0, busy.ActiveSessions())
}
