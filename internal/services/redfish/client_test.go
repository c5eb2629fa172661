package redfish_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "bmcprobe/internal/adapters/http"
	"bmcprobe/internal/domain"
	bmcerrors "bmcprobe/internal/errors"
	"bmcprobe/internal/services/redfish"
	"bmcprobe/internal/services/session"
	"bmcprobe/internal/testutil"
)

type nameIs string

func (n nameIs) Matches(name string) bool { return string(n) == name }

func newClient(t *testing.T, bmc *testutil.FakeBMC) (*redfish.Client, *session.Manager) {
	t.Helper()

	adapter := httpadapter.NewAdapter(httpadapter.Options{
		Timeout:            5 * time.Second,
		InsecureSkipVerify: true,
		RequestsPerSecond:  1000,
		Burst:              1000,
	}, testutil.Logger())

	manager := session.NewManager(adapter, testutil.Logger())
	_, err := manager.Acquire(context.Background(),
		domain.Credential{Username: "root", Secret: "0penBmc"}, bmc.URL())
	require.NoError(t, err)

	target := domain.Target{URL: bmc.URL(), Username: "root"}
	return redfish.NewClient(adapter, manager, target, testutil.Logger()), manager
}

func TestGetSystem(t *testing.T) {
	bmc := testutil.NewFakeBMC(t)
	client, _ := newClient(t, bmc)

	system, err := client.GetSystem(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "system", system.ID)
	assert.Equal(t, domain.PowerStateOn, system.PowerState)
	require.NotNil(t, system.Status)
	assert.Equal(t, "OK", system.Status.Health)
}

func TestGetSystem_MissingStatus(t *testing.T) {
	bmc := testutil.NewFakeBMC(t)
	bmc.OmitStatus = true
	client, _ := newClient(t, bmc)

	system, err := client.GetSystem(context.Background())

	require.NoError(t, err)
	assert.Nil(t, system.Status)
}

func TestGetSystem_ReauthenticatesAfterRevocation(t *testing.T) {
	bmc := testutil.NewFakeBMC(t)
	client, manager := newClient(t, bmc)

	bmc.RevokeTokens()
	system, err := client.GetSystem(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.PowerStateOn, system.PowerState)
	assert.Equal(t, 2, bmc.SessionPosts())
	assert.Equal(t, session.StateValid, manager.State())

	token, err := manager.CurrentToken()
	require.NoError(t, err)
	assert.Equal(t, "token-2", token)
}

func TestGetSystem_ServerError(t *testing.T) {
	bmc := testutil.NewFakeBMC(t)
	bmc.SystemFailures = 10
	client, _ := newClient(t, bmc)

	_, err := client.GetSystem(context.Background())

	require.Error(t, err)
	assert.True(t, bmcerrors.IsHTTPStatus(err, http.StatusServiceUnavailable))
}

func TestReset(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "no content", status: 0},
		{name: "ok", status: http.StatusOK},
		{name: "accepted", status: http.StatusAccepted},
		{name: "bad request", status: http.StatusBadRequest, wantErr: true},
		{name: "conflict", status: http.StatusConflict, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bmc := testutil.NewFakeBMC(t)
			bmc.ResetStatus = tt.status
			client, _ := newClient(t, bmc)

			err := client.Reset(context.Background(), domain.ResetOn)

			assert.Equal(t, []string{domain.ResetOn}, bmc.Resets())
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, bmcerrors.IsHTTPStatus(err, tt.status))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestListSensors(t *testing.T) {
	bmc := testutil.NewFakeBMC(t)
	bmc.AddSensor("CPU_Temp", "CPU Temperature", 45)
	bmc.AddSensor("Inlet_Temp", "Inlet Temperature", 24.5)
	client, _ := newClient(t, bmc)

	sensors, err := client.ListSensors(context.Background())

	require.NoError(t, err)
	require.Len(t, sensors, 2)
	assert.Equal(t, "CPU Temperature", sensors[0].Name)
	value, ok := sensors[1].Value()
	assert.True(t, ok)
	assert.InDelta(t, 24.5, value, 0.001)
}

func TestListSensors_Empty(t *testing.T) {
	bmc := testutil.NewFakeBMC(t)
	client, _ := newClient(t, bmc)

	sensors, err := client.ListSensors(context.Background())

	require.NoError(t, err)
	assert.Empty(t, sensors)
}

func TestListSensors_MissingMember(t *testing.T) {
	bmc := testutil.NewFakeBMC(t)
	bmc.AddSensor("CPU_Temp", "CPU Temperature", 45)
	bmc.SensorOrder = append(bmc.SensorOrder, "ghost")
	client, _ := newClient(t, bmc)

	_, err := client.ListSensors(context.Background())

	require.Error(t, err)
	assert.True(t, bmcerrors.IsNotFound(err))
}

func TestFindSensor(t *testing.T) {
	bmc := testutil.NewFakeBMC(t)
	bmc.AddSensor("Inlet_Temp", "Inlet Temperature", 24)
	bmc.AddSensor("CPU_Temp", "CPU Temperature", 45)
	bmc.SensorOrder = append(bmc.SensorOrder, "ghost")
	client, _ := newClient(t, bmc)

	sensor, err := client.FindSensor(context.Background(), nameIs("CPU Temperature"))

	require.NoError(t, err, "members after the match must not be fetched")
	require.NotNil(t, sensor)
	assert.Equal(t, "CPU_Temp", sensor.ID)
}

func TestFindSensor_NoMatch(t *testing.T) {
	bmc := testutil.NewFakeBMC(t)
	bmc.AddSensor("Inlet_Temp", "Inlet Temperature", 24)
	client, _ := newClient(t, bmc)

	sensor, err := client.FindSensor(context.Background(), nameIs("CPU Temperature"))

	require.NoError(t, err)
	assert.Nil(t, sensor)
}

func TestPaths_UseConfiguredIDs(t *testing.T) {
	target := domain.Target{URL: "https://bmc.example:443/", SystemID: "1", ChassisID: "Self"}
	client := redfish.NewClient(nil, nil, target, testutil.Logger())

	assert.Equal(t, "/redfish/v1/Systems/1", client.SystemPath())
	assert.Equal(t, "/redfish/v1/Chassis/Self/Sensors", client.SensorsPath())
}
