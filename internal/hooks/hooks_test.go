package hooks

import (
	"bytes"
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commands() (trueCmd, falseCmd string) {
	if runtime.GOOS == "windows" {
		return "cmd /c exit 0", "cmd /c exit 1"
	}
	return "true", "false"
}

func TestRun(t *testing.T) {
	trueCmd, falseCmd := commands()

	tests := []struct {
		name      string
		hook      Hook
		wantErr   bool
		errSubstr string
	}{
		{name: "command succeeds", hook: Hook{Command: trueCmd}},
		{name: "empty command", hook: Hook{Command: ""}, wantErr: true, errSubstr: "empty command"},
		{name: "whitespace-only command", hook: Hook{Command: "   "}, wantErr: true, errSubstr: "empty command"},
		{name: "non-zero exit with error_on_fail", hook: Hook{Command: falseCmd, ErrorOnFail: true}, wantErr: true, errSubstr: "exited with code 1"},
		{name: "non-zero exit without error_on_fail", hook: Hook{Command: falseCmd}},
		{name: "custom acceptable exit codes", hook: Hook{Command: falseCmd, ExitCodes: []int{1}, ErrorOnFail: true}},
		{name: "zero exit not in accepted codes", hook: Hook{Command: trueCmd, ExitCodes: []int{2}, ErrorOnFail: true}, wantErr: true, errSubstr: "exited with code 0"},
		{name: "missing binary with error_on_fail", hook: Hook{Command: "thinkroute-no-such-binary", ErrorOnFail: true}, wantErr: true},
		{name: "missing binary without error_on_fail", hook: Hook{Command: "thinkroute-no-such-binary"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := &Runner{}
			err := r.run(context.Background(), BeforeSweep, 0, tc.hook)
			if !tc.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tc.errSubstr != "" {
				assert.Contains(t, err.Error(), tc.errSubstr)
			}
		})
	}
}

func TestExecute_PassesEnvironment(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses env(1)")
	}

	var out bytes.Buffer
	r := &Runner{Output: &out, Env: map[string]string{"THINKROUTE_RUN_ID": "run-42"}}
	require.NoError(t, r.Execute(context.Background(), AfterSweep, []Hook{{Command: "env"}}))

	assert.Contains(t, out.String(), "[hook:after_sweep]")
	assert.Contains(t, out.String(), "THINKROUTE_RUN_ID=run-42")
}

func TestExecute_StopsAtFirstFatalHook(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses echo(1)")
	}
	_, falseCmd := commands()

	var out bytes.Buffer
	r := &Runner{Output: &out}
	err := r.Execute(context.Background(), BeforeSweep, []Hook{
		{Command: falseCmd, ErrorOnFail: true},
		{Command: "echo second"},
	})
	require.Error(t, err)
	assert.NotContains(t, out.String(), "second")
}

func TestExecute_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{}
	err := r.Execute(ctx, BeforeSweep, []Hook{{Command: "echo hello"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context canceled")
}

func TestExecute_ContextTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Millisecond)
	defer cancel()
	time.Sleep(5 * time.Millisecond)

	r := &Runner{}
	assert.Error(t, r.Execute(ctx, BeforeSweep, []Hook{{Command: "echo hello"}}))
}

func TestConfig_Empty(t *testing.T) {
	assert.True(t, Config{}.Empty())
	assert.False(t, Config{AfterSweep: []Hook{{Command: "true"}}}.Empty())
}
