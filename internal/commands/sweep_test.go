package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bmcprobe/internal/domain"
	"bmcprobe/internal/testutil"
)

var sweepTargets = []domain.Target{
	{URL: "https://10.0.0.5", Username: "root"},
	{URL: "https://10.0.0.6", Username: "admin"},
}

func TestSweepCommand_Execute_PromptsPerTarget(t *testing.T) {
	repo := &mockConfigRepository{}
	repo.On("GetTargets", mock.Anything).Return(sweepTargets, nil)

	passwords := &mockPasswordReader{}
	passwords.On("ReadPassword", mock.Anything, "Password for root@https://10.0.0.5: ").Return("first", nil)
	passwords.On("ReadPassword", mock.Anything, "Password for admin@https://10.0.0.6: ").Return("second", nil)

	wantCredentials := map[string]domain.Credential{
		sweepTargets[0].ID(): {Username: "root", Secret: "first"},
		sweepTargets[1].ID(): {Username: "admin", Secret: "second"},
	}
	sweeper := &mockPowerSweeper{}
	sweeper.On("SweepTargets", mock.Anything, sweepTargets, wantCredentials, true).Return([]domain.SweepResult{
		{Target: sweepTargets[0], PowerState: domain.PowerStateOn},
		{Target: sweepTargets[1], Err: errors.New("connection refused")},
	})

	cmd := NewSweepCommand(repo, passwords, sweeper, testutil.Logger())
	result, err := cmd.Execute(context.Background(), SweepRequest{InsecureSkipTLS: true})

	require.NoError(t, err, "per-target failures are not fatal")
	assert.Len(t, result.Results, 2)
	assert.Equal(t, 1, result.Failed)
	repo.AssertExpectations(t)
	passwords.AssertExpectations(t)
	sweeper.AssertExpectations(t)
}

func TestSweepCommand_Execute_SharedPassword(t *testing.T) {
	repo := &mockConfigRepository{}
	repo.On("GetTargets", mock.Anything).Return(sweepTargets, nil)
	passwords := &mockPasswordReader{}

	sweeper := &mockPowerSweeper{}
	sweeper.On("SweepTargets", mock.Anything, sweepTargets, mock.MatchedBy(func(c map[string]domain.Credential) bool {
		return len(c) == 2 && c[sweepTargets[1].ID()].Secret == "shared"
	}), false).Return([]domain.SweepResult{{}, {}})

	cmd := NewSweepCommand(repo, passwords, sweeper, testutil.Logger())
	result, err := cmd.Execute(context.Background(), SweepRequest{Password: "shared"})

	require.NoError(t, err)
	assert.Equal(t, 0, result.Failed)
	passwords.AssertNotCalled(t, "ReadPassword", mock.Anything, mock.Anything)
}

func TestSweepCommand_Execute_NoTargets(t *testing.T) {
	repo := &mockConfigRepository{}
	repo.On("GetTargets", mock.Anything).Return([]domain.Target{}, nil)
	sweeper := &mockPowerSweeper{}

	cmd := NewSweepCommand(repo, &mockPasswordReader{}, sweeper, testutil.Logger())
	result, err := cmd.Execute(context.Background(), SweepRequest{})

	require.NoError(t, err)
	assert.Empty(t, result.Results)
	sweeper.AssertNotCalled(t, "SweepTargets", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSweepCommand_Execute_PasswordError(t *testing.T) {
	repo := &mockConfigRepository{}
	repo.On("GetTargets", mock.Anything).Return(sweepTargets, nil)
	passwords := &mockPasswordReader{}
	passwords.On("ReadPassword", mock.Anything, mock.Anything).Return("", errors.New("non-interactive terminal"))

	cmd := NewSweepCommand(repo, passwords, &mockPowerSweeper{}, testutil.Logger())
	_, err := cmd.Execute(context.Background(), SweepRequest{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to collect passwords")
}

func TestSweepCommand_Execute_RepositoryError(t *testing.T) {
	repo := &mockConfigRepository{}
	repo.On("GetTargets", mock.Anything).Return(nil, errors.New("disk on fire"))

	cmd := NewSweepCommand(repo, &mockPasswordReader{}, &mockPowerSweeper{}, testutil.Logger())
	_, err := cmd.Execute(context.Background(), SweepRequest{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get targets")
}
