package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DukeRupert/jyotai/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(store repository.Store) *app {
	a := newApp()
	a.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	a.openStore = func(context.Context, *app) (repository.Store, func(), error) {
		return store, func() {}, nil
	}
	return a
}

func execute(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(a)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLifePathCmd(t *testing.T) {
	tests := []struct {
		name    string
		dob     string
		want    string
		wantErr string
	}{
		{name: "single digit", dob: "1990-05-15", want: "3: "},
		{name: "master number", dob: "2000-01-08", want: "11: "},
		{name: "no digits", dob: "unknown", wantErr: "Date of birth must contain digits."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, newTestApp(repository.NewMemory()), "lifepath", tt.dob)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestTipCmd(t *testing.T) {
	a := newTestApp(repository.NewMemory())

	out, err := execute(t, a, "tip")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-03-01")

	out, err = execute(t, a, "tip", "--date", "2024-01-15")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-01-15")

	_, err = execute(t, a, "tip", "--date", "15/01/2024")
	require.Error(t, err)
}

func TestUserCmds(t *testing.T) {
	store := repository.NewMemory()
	a := newTestApp(store)

	_, err := execute(t, a, "user", "show", "asha@example.com")
	require.Error(t, err, "unknown users are not created by show")

	out, err := execute(t, a, "user", "set-plan", "Asha@Example.com", "premium", "--payment-ref", "pay_123")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "asha@example.com", got["email"])
	assert.Equal(t, "premium", got["plan"])
	assert.EqualValues(t, 20, got["quota_total"])
	assert.EqualValues(t, 20, got["quota_remaining"])
	assert.Equal(t, "pay_123", got["payment_info"].(map[string]any)["payment_ref"])

	out, err = execute(t, a, "user", "show", "asha@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, `"plan": "premium"`)

	_, err = execute(t, a, "user", "set-plan", "asha@example.com", "gold")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid plan")
}
