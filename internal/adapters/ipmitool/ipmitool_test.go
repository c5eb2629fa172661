package ipmitool

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bmcprobe/internal/testutil"
)

const cpuTempOutput = `Locating sensor record...
Sensor ID              : CPU Temp (0x1)
 Entity ID             : 3.1 (Processor)
 Sensor Type (Threshold)  : Temperature (0x01)
 Sensor Reading        : 45 (+/- 0) degrees C
 Status                : ok
 Lower Non-Recoverable : na
 Upper Critical        : 95.000
`

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	called := m.Called(env, name, args)
	out, _ := called.Get(0).([]byte)
	return out, called.Error(1)
}

func TestParseSensorReading(t *testing.T) {
	tests := []struct {
		name      string
		output    string
		want      float64
		wantFound bool
		wantErr   bool
	}{
		{name: "integer reading", output: cpuTempOutput, want: 45, wantFound: true},
		{name: "decimal reading", output: " Sensor Reading        : 38.500 (+/- 0.500) degrees C\n", want: 38.5, wantFound: true},
		{name: "no reading line", output: "Locating sensor record...\nSensor ID : CPU Temp\n"},
		{name: "empty output", output: ""},
		{name: "na reading", output: " Sensor Reading        : na\n"},
		{name: "empty reading", output: " Sensor Reading        :\n"},
		{name: "garbage reading", output: " Sensor Reading        : hot (+/- 0) degrees C\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := ParseSensorReading([]byte(tt.output))

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			assert.InDelta(t, tt.want, got, 0.0001)
		})
	}
}

func TestReader_LocalArgs(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", []string(nil), "ipmitool", []string{"sensor", "get", "CPU Temp"}).
		Return([]byte(cpuTempOutput), nil)

	reader := NewReader(runner, Options{}, testutil.Logger())
	value, found, err := reader.ReadSensor(context.Background(), DefaultSensorName)

	require.NoError(t, err)
	assert.True(t, found)
	assert.InDelta(t, 45.0, value, 0.0001)
	runner.AssertExpectations(t)
}

func TestReader_RemoteArgs(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", []string{"IPMI_PASSWORD=0penBmc"}, "/usr/bin/ipmitool", []string{
		"-I", "lanplus", "-H", "10.0.0.5", "-U", "root", "-E",
		"sensor", "get", "CPU Temp",
	}).Return([]byte(cpuTempOutput), nil)

	reader := NewReader(runner, Options{
		Binary: "/usr/bin/ipmitool",
		Remote: Remote{Host: "10.0.0.5", Username: "root", Password: "0penBmc"},
	}, testutil.Logger())
	_, found, err := reader.ReadSensor(context.Background(), "CPU Temp")

	require.NoError(t, err)
	assert.True(t, found)
	runner.AssertExpectations(t)
}

func TestReader_ExitErrorStillParsesOutput(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", mock.Anything, "ipmitool", mock.Anything).
		Return([]byte("Sensor CPU Temp not found\n"), &exec.ExitError{})

	reader := NewReader(runner, Options{}, testutil.Logger())
	_, found, err := reader.ReadSensor(context.Background(), "CPU Temp")

	require.NoError(t, err)
	assert.False(t, found)
}

func TestReader_MissingBinary(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", mock.Anything, "ipmitool", mock.Anything).
		Return(nil, exec.ErrNotFound)

	reader := NewReader(runner, Options{}, testutil.Logger())
	_, _, err := reader.ReadSensor(context.Background(), "CPU Temp")

	require.Error(t, err)
	assert.True(t, errors.Is(err, exec.ErrNotFound))
}

func TestReader_AppliesTimeout(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", mock.Anything, "ipmitool", mock.Anything).
		Run(func(mock.Arguments) { time.Sleep(50 * time.Millisecond) }).
		Return(nil, errors.New("signal: killed"))

	reader := NewReader(runner, Options{Timeout: 10 * time.Millisecond}, testutil.Logger())
	_, _, err := reader.ReadSensor(context.Background(), "CPU Temp")

	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReader_PasswordNeverInArgv(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", mock.Anything, "ipmitool", mock.Anything).
		Return([]byte(cpuTempOutput), nil)

	reader := NewReader(runner, Options{
		Remote: Remote{Host: "10.0.0.5", Username: "root", Password: "0penBmc"},
	}, testutil.Logger())
	_, _, err := reader.ReadSensor(context.Background(), "CPU Temp")
	require.NoError(t, err)

	require.Len(t, runner.Calls, 1)
	env := runner.Calls[0].Arguments.Get(0).([]string)
	argv := runner.Calls[0].Arguments.Get(2).([]string)
	for _, arg := range argv {
		assert.NotContains(t, arg, "0penBmc")
	}
	assert.NotContains(t, argv, "-P")
	assert.Contains(t, argv, "-E")
	assert.Equal(t, []string{PasswordEnv + "=0penBmc"}, env)
}

func TestExecRunner_PassesEnvironment(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	out, err := ExecRunner{}.Run(context.Background(), []string{PasswordEnv + "=0penBmc"},
		sh, "-c", "printf %s \"$"+PasswordEnv+"\"")

	require.NoError(t, err)
	assert.Equal(t, "0penBmc", string(out))
}
