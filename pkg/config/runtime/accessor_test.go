package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/bastion/pkg/config"
)

func newTestAccessor(t *testing.T) (*Accessor, config.Settings) {
	t.Helper()
	cfg := config.Default()
	cfg.Maintenance.AllowedIPs = []string{"10.0.0.1"}
	static := cfg.Settings()
	return NewAccessor(NewMemoryStore(), static, DefaultOptions(static)...), static
}

type failingStore struct{ MemoryStore }

func (*failingStore) Load(context.Context, string) (any, bool, error) {
	return nil, false, errors.New("connection refused")
}

func TestAccessor_Lookup(t *testing.T) {
	acc, _ := newTestAccessor(t)
	ctx := context.Background()

	t.Run("static layer", func(t *testing.T) {
		res, err := acc.Lookup(ctx, "HEALTH_CHECK_ENDPOINT")
		require.NoError(t, err)
		assert.True(t, res.Found)
		assert.Equal(t, config.DefaultHealthCheckEndpoint, res.Value)
	})

	t.Run("unknown name", func(t *testing.T) {
		res, err := acc.Lookup(ctx, "NOPE")
		require.NoError(t, err)
		assert.False(t, res.Found)

		_, err = acc.Get(ctx, "NOPE")
		assert.ErrorIs(t, err, ErrUnknownKey)
		assert.Contains(t, err.Error(), "NOPE")
	})

	t.Run("runtime layer wins", func(t *testing.T) {
		require.NoError(t, acc.Set(ctx, MaintenanceEnable, true))

		on, err := acc.Bool(ctx, MaintenanceEnable)
		require.NoError(t, err)
		assert.True(t, on)
	})

	t.Run("nil runtime value falls through", func(t *testing.T) {
		require.NoError(t, acc.Store().Save(ctx, MaintenanceMessage, nil))

		msg, err := acc.String(ctx, MaintenanceMessage)
		require.NoError(t, err)
		assert.Equal(t, config.DefaultMaintenanceMessage, msg)
	})
}

func TestAccessor_BackendErrorsPropagate(t *testing.T) {
	acc := NewAccessor(&failingStore{}, config.Settings{"DEBUG": true})

	_, err := acc.Lookup(context.Background(), "DEBUG")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAccessor_TypedGetters(t *testing.T) {
	acc, _ := newTestAccessor(t)
	ctx := context.Background()

	_, err := acc.Bool(ctx, "HEALTH_CHECK_ENDPOINT")
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = acc.String(ctx, "DEBUG")
	assert.ErrorIs(t, err, ErrTypeMismatch)

	ips, err := acc.Strings(ctx, MaintenanceAllowedIPs)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1"}, ips)
}

func TestAccessor_Set(t *testing.T) {
	tests := []struct {
		name    string
		option  string
		value   any
		want    any
		wantErr error
	}{
		{name: "bool", option: MaintenanceEnable, value: true, want: true},
		{name: "bool from string", option: MaintenanceEnable, value: "false", want: false},
		{name: "bad bool", option: MaintenanceEnable, value: "maybe", wantErr: ErrInvalidValue},
		{name: "bool from number", option: MaintenanceEnable, value: 1, wantErr: ErrInvalidValue},
		{name: "string", option: MaintenanceMessage, value: "back at 5", want: "back at 5"},
		{name: "string from list", option: MaintenanceMessage, value: []string{"x"}, wantErr: ErrInvalidValue},
		{name: "list", option: MaintenanceAllowedURLs, value: []string{"/status"}, want: []string{"/status"}},
		{name: "list from yaml", option: MaintenanceAllowedURLs, value: []any{"/a", "/b"}, want: []string{"/a", "/b"}},
		{name: "list from csv", option: MaintenanceAllowedIPs, value: "1.1.1.1, 2.2.2.2", want: []string{"1.1.1.1", "2.2.2.2"}},
		{name: "list with numbers", option: MaintenanceAllowedIPs, value: []any{"1.1.1.1", 7}, wantErr: ErrInvalidValue},
		{name: "not declared", option: "DEBUG", value: true, wantErr: ErrNotDeclared},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, _ := newTestAccessor(t)
			ctx := context.Background()

			err := acc.Set(ctx, tt.option, tt.value)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			got, err := acc.Get(ctx, tt.option)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAccessor_ResetRestoresDefaults(t *testing.T) {
	acc, _ := newTestAccessor(t)
	ctx := context.Background()

	require.NoError(t, acc.Set(ctx, MaintenanceEnable, true))
	require.NoError(t, acc.Set(ctx, MaintenanceMessage, "custom"))
	require.NoError(t, acc.Reset(ctx))

	on, err := acc.Bool(ctx, MaintenanceEnable)
	require.NoError(t, err)
	assert.False(t, on)

	msg, err := acc.String(ctx, MaintenanceMessage)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultMaintenanceMessage, msg)
}

func TestAccessor_Snapshot(t *testing.T) {
	acc, _ := newTestAccessor(t)
	ctx := context.Background()

	require.NoError(t, acc.Set(ctx, MaintenanceEnable, true))

	entries, err := acc.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	assert.Equal(t, []string{
		MaintenanceAllowedIPs,
		MaintenanceAllowedURLs,
		MaintenanceEnable,
		MaintenanceMessage,
	}, names)

	assert.Equal(t, SourceRuntime, entries[2].Source)
	assert.Equal(t, true, entries[2].Value)
	assert.Equal(t, false, entries[2].Default)
	assert.Equal(t, SourceStatic, entries[3].Source)

	_, err = acc.Describe(ctx, "DEBUG")
	assert.ErrorIs(t, err, ErrNotDeclared)
}

func TestDefaultOptions_WithoutStatic(t *testing.T) {
	opts := DefaultOptions(nil)
	require.Len(t, opts, 4)
	assert.Equal(t, false, opts[0].Default)
	assert.Equal(t, config.DefaultMaintenanceMessage, opts[1].Default)

	acc := NewAccessor(nil, nil, opts...)
	e, err := acc.Describe(context.Background(), MaintenanceEnable)
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, e.Source)
}

type countingStore struct {
	*MemoryStore
	loads, lists int
	listErr      error
}

func (s *countingStore) Load(ctx context.Context, name string) (any, bool, error) {
	s.loads++
	return s.MemoryStore.Load(ctx, name)
}

func (s *countingStore) All(ctx context.Context) (map[string]any, error) {
	s.lists++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.MemoryStore.All(ctx)
}

func TestAccessor_SnapshotReadsStoreOnce(t *testing.T) {
	cfg := config.Default()
	static := cfg.Settings()
	store := &countingStore{MemoryStore: NewMemoryStore()}
	acc := NewAccessor(store, static, DefaultOptions(static)...)
	ctx := context.Background()

	require.NoError(t, acc.Set(ctx, MaintenanceMessage, "back soon"))

	entries, err := acc.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, 1, store.lists)
	assert.Equal(t, 0, store.loads)
	assert.Equal(t, "back soon", entries[3].Value)
	assert.Equal(t, SourceRuntime, entries[3].Source)

	store.listErr = errors.New("connection refused")
	_, err = acc.Snapshot(ctx)
	assert.ErrorContains(t, err, "connection refused")
}
