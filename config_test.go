package hookbus_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/GoCodeAlone/hookbus"
	"github.com/GoCodeAlone/hookbus/feeders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlConfig = `
defaultPhase: run
namespaces:
  - id: sys
    phases: [pre, "main*", post]
    shared:
      region: eu
  - id: nodes
schedules:
  - name: heartbeat
    spec: "@every 1m"
    pattern: sys.heartbeat.call
    args: [1, "two"]
`

const tomlConfig = `
defaultPhase = "run"

[[namespaces]]
id = "sys"
phases = ["pre", "main*", "post"]

[namespaces.shared]
region = "eu"

[[namespaces]]
id = "nodes"

[[schedules]]
name = "heartbeat"
spec = "@every 1m"
pattern = "sys.heartbeat.call"
`

const jsonConfig = `{
  "defaultPhase": "run",
  "namespaces": [
    {"id": "sys", "phases": ["pre", "main*", "post"], "shared": {"region": "eu"}},
    {"id": "nodes"}
  ],
  "schedules": [
    {"name": "heartbeat", "spec": "@every 1m", "pattern": "sys.heartbeat.call"}
  ]
}`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "yaml", file: "hooks.yaml", content: yamlConfig},
		{name: "toml", file: "hooks.toml", content: tomlConfig},
		{name: "json", file: "hooks.json", content: jsonConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feeder, err := feeders.ForPath(writeConfig(t, tt.file, tt.content))
			require.NoError(t, err)

			cfg, err := hookbus.LoadConfig(feeder)
			require.NoError(t, err)

			assert.Equal(t, "run", cfg.DefaultPhase)
			require.Len(t, cfg.Namespaces, 2)
			assert.Equal(t, "sys", cfg.Namespaces[0].ID)
			assert.Equal(t, []string{"pre", "main*", "post"}, cfg.Namespaces[0].Phases)
			assert.Equal(t, "eu", cfg.Namespaces[0].Shared["region"])
			assert.Equal(t, "nodes", cfg.Namespaces[1].ID)
			require.Len(t, cfg.Schedules, 1)
			assert.Equal(t, "sys.heartbeat.call", cfg.Schedules[0].Pattern)
		})
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv("HOOKBUS_DEFAULT_PHASE", "exec")
	t.Setenv("HOOKBUS_SYNCHRONOUS_EVENTS", "true")

	cfg, err := hookbus.LoadConfig(
		feeders.NewYamlFeeder(writeConfig(t, "hooks.yaml", yamlConfig)),
		feeders.NewEnvFeeder("HOOKBUS"),
	)
	require.NoError(t, err)
	assert.Equal(t, "exec", cfg.DefaultPhase)
	assert.True(t, cfg.SynchronousEvents)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "duplicate namespace",
			content: "namespaces:\n  - id: a\n  - id: a\n",
			wantErr: hookbus.ErrConfigDuplicateNamespace,
		},
		{
			name:    "dotted namespace",
			content: "namespaces:\n  - id: a.b\n",
			wantErr: hookbus.ErrNamespaceIDInvalid,
		},
		{
			name:    "two default phases",
			content: "namespaces:\n  - id: a\n    phases: [\"x*\", \"y*\"]\n",
			wantErr: hookbus.ErrMultipleDefaultPhases,
		},
		{
			name:    "schedule without spec",
			content: "schedules:\n  - name: s\n    pattern: a.b\n",
			wantErr: hookbus.ErrConfigScheduleInvalid,
		},
		{
			name:    "schedule with bad pattern",
			content: "schedules:\n  - name: s\n    spec: \"@hourly\"\n    pattern: a\n",
			wantErr: hookbus.ErrPatternMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := hookbus.LoadConfig(feeders.NewYamlFeeder(writeConfig(t, "bad.yaml", tt.content)))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWithConfig_CreatesNamespaces(t *testing.T) {
	t.Parallel()
	cfg := &hookbus.Config{
		DefaultPhase: "run",
		Namespaces: []hookbus.NamespaceConfig{
			{ID: "sys", Phases: []string{"pre", "main*"}, Shared: map[string]any{"region": "eu"}},
			{ID: "jobs"},
		},
	}

	d, err := hookbus.New(hookbus.WithConfig(cfg))
	require.NoError(t, err)

	assert.Equal(t, []string{"jobs", "sys"}, d.Registry().IDs())

	jobs, err := d.Registry().Lookup("jobs")
	require.NoError(t, err)
	assert.Equal(t, "run", jobs.DefaultPhase())

	sys, err := d.Registry().Lookup("sys")
	require.NoError(t, err)
	assert.Equal(t, "main", sys.DefaultPhase())

	region, ok := sys.Shared().Get("region")
	require.True(t, ok)
	assert.Equal(t, "eu", region)
}

func TestReconcile(t *testing.T) {
	t.Parallel()
	d, err := hookbus.New()
	require.NoError(t, err)
	require.NoError(t, d.CreateNamespace("manual", nil, nil))

	require.NoError(t, d.ApplyConfig(&hookbus.Config{Namespaces: []hookbus.NamespaceConfig{
		{ID: "keep", Phases: []string{"a", "b*"}},
		{ID: "change", Phases: []string{"a*"}},
		{ID: "drop"},
	}}))

	_, err = d.AddHook("keep.x.call", func(ec *hookbus.ExecContext, args ...any) (any, error) { return "kept", nil })
	require.NoError(t, err)
	_, err = d.AddHook("change.x.call", func(ec *hookbus.ExecContext, args ...any) (any, error) { return "lost", nil })
	require.NoError(t, err)

	report, err := d.Reconcile(&hookbus.Config{Namespaces: []hookbus.NamespaceConfig{
		{ID: "keep", Phases: []string{"a", "b*"}},
		{ID: "change", Phases: []string{"a", "z*"}},
		{ID: "fresh"},
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{"fresh"}, report.Created)
	assert.Equal(t, []string{"change"}, report.Replaced)
	assert.Equal(t, []string{"drop"}, report.Removed)
	assert.Equal(t, []string{"keep"}, report.Unchanged)
	assert.Equal(t, []string{"change", "fresh", "keep", "manual"}, d.Registry().IDs())

	res, err := d.Fire(context.Background(), "keep.x.call")
	require.NoError(t, err)
	assert.Equal(t, "kept", res.Value)

	ok, err := d.HasMatch("change.x.call")
	require.NoError(t, err)
	assert.False(t, ok)

	// Recreating a config-declared namespace in code hands it to the caller.
	require.NoError(t, d.CreateNamespace("fresh", []string{"pre", "main*"}, nil))
	_, err = d.AddHook("fresh.x.call", func(ec *hookbus.ExecContext, args ...any) (any, error) { return "mine", nil })
	require.NoError(t, err)

	report, err = d.Reconcile(&hookbus.Config{})
	require.NoError(t, err)
	assert.Equal(t, []string{"change", "keep"}, report.Removed)
	assert.Equal(t, []string{"fresh", "manual"}, d.Registry().IDs())

	res, err = d.Fire(context.Background(), "fresh.x.call")
	require.NoError(t, err)
	assert.Equal(t, "mine", res.Value)
}

func TestReconcile_ReseedsUnchangedNamespace(t *testing.T) {
	t.Parallel()
	d, err := hookbus.New()
	require.NoError(t, err)

	require.NoError(t, d.ApplyConfig(&hookbus.Config{Namespaces: []hookbus.NamespaceConfig{
		{ID: "app", Shared: map[string]any{"k": 1, "gone": true, "same": "x"}},
	}}))
	ns, err := d.Registry().Lookup("app")
	require.NoError(t, err)
	ns.Shared().Set("runtime", "kept")
	_, err = d.AddHook("app.x.call", func(ec *hookbus.ExecContext, args ...any) (any, error) { return "hook", nil })
	require.NoError(t, err)

	report, err := d.Reconcile(&hookbus.Config{Namespaces: []hookbus.NamespaceConfig{
		{ID: "app", Shared: map[string]any{"k": 2, "same": "x"}},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, report.Unchanged)
	assert.Equal(t, []string{"app"}, report.Reseeded)

	assert.Equal(t, map[string]any{"k": 2, "same": "x", "runtime": "kept"}, ns.Shared().Snapshot())

	ok, err := d.HasMatch("app.x.call")
	require.NoError(t, err)
	assert.True(t, ok)

	report, err = d.Reconcile(&hookbus.Config{Namespaces: []hookbus.NamespaceConfig{
		{ID: "app", Shared: map[string]any{"k": 2, "same": "x"}},
	}})
	require.NoError(t, err)
	assert.Empty(t, report.Reseeded)
}

func TestReconcile_NilAndInvalid(t *testing.T) {
	t.Parallel()
	d, err := hookbus.New()
	require.NoError(t, err)

	_, err = d.Reconcile(nil)
	assert.ErrorIs(t, err, hookbus.ErrConfigNil)

	_, err = d.Reconcile(&hookbus.Config{Namespaces: []hookbus.NamespaceConfig{{ID: ""}}})
	assert.ErrorIs(t, err, hookbus.ErrEmptyNamespaceID)
}
