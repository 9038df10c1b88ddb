package hookbus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
)

// Config errors
var (
	ErrConfigDuplicateNamespace = errors.New("namespace declared more than once")
	ErrConfigScheduleInvalid    = errors.New("schedule is invalid")
)

// Feeder populates a configuration structure from some source. The feeders
// package provides YAML, TOML, JSON, and environment implementations.
type Feeder interface {
	Feed(target interface{}) error
}

// Config declares namespaces and scheduled fires. It can be fed from files and
// the environment with LoadConfig.
type Config struct {
	// DefaultPhase names the single phase of namespaces declared without one.
	DefaultPhase string `yaml:"defaultPhase" json:"defaultPhase" toml:"defaultPhase" env:"DEFAULT_PHASE"`

	// SynchronousEvents delivers observer events inline.
	SynchronousEvents bool `yaml:"synchronousEvents" json:"synchronousEvents" toml:"synchronousEvents" env:"SYNCHRONOUS_EVENTS"`

	Namespaces []NamespaceConfig `yaml:"namespaces" json:"namespaces" toml:"namespaces"`
	Schedules  []ScheduleConfig  `yaml:"schedules" json:"schedules" toml:"schedules"`
}

// NamespaceConfig declares one namespace.
type NamespaceConfig struct {
	ID string `yaml:"id" json:"id" toml:"id"`

	// Phases in execution order; the default phase carries a trailing "*".
	Phases []string `yaml:"phases" json:"phases" toml:"phases"`

	// Shared seeds the namespace's shared context.
	Shared map[string]any `yaml:"shared" json:"shared" toml:"shared"`
}

// ScheduleConfig declares a pattern fired on a cron schedule.
type ScheduleConfig struct {
	Name    string `yaml:"name" json:"name" toml:"name"`
	Spec    string `yaml:"spec" json:"spec" toml:"spec"`
	Pattern string `yaml:"pattern" json:"pattern" toml:"pattern"`
	Args    []any  `yaml:"args" json:"args" toml:"args"`
}

// LoadConfig applies feeders in order onto a fresh Config and validates it.
// Later feeders override earlier ones.
func LoadConfig(feeders ...Feeder) (*Config, error) {
	cfg := &Config{}
	for _, f := range feeders {
		if err := f.Feed(cfg); err != nil {
			return nil, fmt.Errorf("config feeder error: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks namespace ids, phase lists, and schedule patterns.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Namespaces))
	for _, ns := range c.Namespaces {
		if err := validateNamespaceID(ns.ID); err != nil {
			return err
		}
		if seen[ns.ID] {
			return fmt.Errorf("%w: %q", ErrConfigDuplicateNamespace, ns.ID)
		}
		seen[ns.ID] = true
		if _, err := ParsePhases(c.phasesFor(ns)); err != nil {
			return fmt.Errorf("namespace %q: %w", ns.ID, err)
		}
	}
	for _, s := range c.Schedules {
		if s.Spec == "" {
			return fmt.Errorf("%w: %q has no spec", ErrConfigScheduleInvalid, s.Name)
		}
		if _, err := ParsePattern(s.Pattern); err != nil {
			return fmt.Errorf("%w: %q: %w", ErrConfigScheduleInvalid, s.Name, err)
		}
	}
	return nil
}

// phasesFor returns the phase declaration for ns, falling back to the
// configured default phase.
func (c *Config) phasesFor(ns NamespaceConfig) []string {
	if len(ns.Phases) > 0 {
		return ns.Phases
	}
	if c.DefaultPhase != "" {
		return []string{c.DefaultPhase + defaultPhaseMarker}
	}
	return nil
}

// ApplyConfig creates every namespace cfg declares. Existing namespaces with the
// same ids are replaced, as with CreateNamespace.
func (d *Dispatcher) ApplyConfig(cfg *Config) error {
	if cfg == nil {
		return ErrConfigNil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ids := make([]string, 0, len(cfg.Namespaces))
	for _, ns := range cfg.Namespaces {
		if err := d.createNamespace(ns.ID, cfg.phasesFor(ns), ns.Shared); err != nil {
			return err
		}
		d.configMu.Lock()
		d.configOwned[ns.ID] = ns
		d.configMu.Unlock()
		ids = append(ids, ns.ID)
	}

	d.emitEvent(context.Background(), EventTypeConfigApplied, map[string]interface{}{
		"namespaces": ids,
	})
	return nil
}

// ReconcileReport lists what Reconcile changed, each slice sorted.
type ReconcileReport struct {
	Created   []string `json:"created"`
	Replaced  []string `json:"replaced"`
	Removed   []string `json:"removed"`
	Unchanged []string `json:"unchanged"`

	// Reseeded lists unchanged namespaces whose shared seed values were updated.
	Reseeded []string `json:"reseeded"`
}

// Reconcile brings the registry in line with cfg without disturbing namespaces
// that did not change. Namespaces that are new are created. Namespaces whose
// phase ordering changed are replaced, which drops their hooks. Namespaces
// with the same phases keep their hooks and shared context; when their Shared
// seed changed, the new seed values are written into the live shared context
// and seed keys the previous config declared but cfg drops are deleted. Keys
// hooks added at runtime are left alone. Namespaces an earlier config declared
// but cfg no longer does are removed; namespaces created in code, including
// config-declared ids later recreated with CreateNamespace, are never removed.
func (d *Dispatcher) Reconcile(cfg *Config) (ReconcileReport, error) {
	var report ReconcileReport
	if cfg == nil {
		return report, ErrConfigNil
	}
	if err := cfg.Validate(); err != nil {
		return report, err
	}

	declared := make(map[string]bool, len(cfg.Namespaces))
	for _, nsCfg := range cfg.Namespaces {
		declared[nsCfg.ID] = true
		want, _ := ParsePhases(cfg.phasesFor(nsCfg))

		existing, err := d.registry.Lookup(nsCfg.ID)
		switch {
		case err != nil:
			report.Created = append(report.Created, nsCfg.ID)
		case existing.phases.Equal(want):
			report.Unchanged = append(report.Unchanged, nsCfg.ID)
			d.configMu.Lock()
			previous := d.configOwned[nsCfg.ID]
			d.configOwned[nsCfg.ID] = nsCfg
			d.configMu.Unlock()
			if reseed(existing.Shared(), previous.Shared, nsCfg.Shared) {
				report.Reseeded = append(report.Reseeded, nsCfg.ID)
			}
			continue
		default:
			report.Replaced = append(report.Replaced, nsCfg.ID)
		}

		if err := d.createNamespace(nsCfg.ID, cfg.phasesFor(nsCfg), nsCfg.Shared); err != nil {
			return report, err
		}
		d.configMu.Lock()
		d.configOwned[nsCfg.ID] = nsCfg
		d.configMu.Unlock()
	}

	d.configMu.Lock()
	stale := make([]string, 0)
	for id := range d.configOwned {
		if !declared[id] {
			stale = append(stale, id)
		}
	}
	d.configMu.Unlock()

	for _, id := range stale {
		if err := d.RemoveNamespace(id); err != nil && !errors.Is(err, ErrNamespaceNotFound) {
			return report, err
		}
		d.configMu.Lock()
		delete(d.configOwned, id)
		d.configMu.Unlock()
		report.Removed = append(report.Removed, id)
	}

	sort.Strings(report.Created)
	sort.Strings(report.Replaced)
	sort.Strings(report.Removed)
	sort.Strings(report.Unchanged)
	sort.Strings(report.Reseeded)

	d.logger.Info("Config reconciled", "created", report.Created, "replaced", report.Replaced,
		"removed", report.Removed, "unchanged", report.Unchanged, "reseeded", report.Reseeded)
	return report, nil
}

// reseed applies a changed seed to a live shared context. It reports whether
// anything was written or deleted.
func reseed(shared *SharedContext, previous, next map[string]any) bool {
	changed := false
	for k, v := range next {
		if old, ok := previous[k]; ok && reflect.DeepEqual(old, v) {
			continue
		}
		if cur, ok := shared.Get(k); ok && reflect.DeepEqual(cur, v) {
			continue
		}
		shared.Set(k, v)
		changed = true
	}
	for k := range previous {
		if _, ok := next[k]; ok {
			continue
		}
		shared.Delete(k)
		changed = true
	}
	return changed
}
