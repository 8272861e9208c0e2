package runtime

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownKey is returned by Get when a name is in neither layer.
	ErrUnknownKey = errors.New("unknown config key")

	// ErrNotDeclared is returned by Set for names that are not declared options.
	ErrNotDeclared = errors.New("config key is not a runtime option")

	// ErrInvalidValue is returned when a value does not match an option's kind.
	ErrInvalidValue = errors.New("invalid config value")

	// ErrTypeMismatch is returned by the typed getters.
	ErrTypeMismatch = errors.New("config value has unexpected type")
)

// Sources reported by Snapshot.
const (
	SourceRuntime = "runtime"
	SourceStatic  = "static"
	SourceDefault = "default"
)

// StaticLayer is the immutable fallback layer. config.Settings implements it.
type StaticLayer interface {
	Lookup(name string) (any, bool)
}

// Result is the outcome of a lookup.
type Result struct {
	Value any
	Found bool
}

// Entry describes one declared option and its current value.
type Entry struct {
	Name    string `json:"name"`
	Value   any    `json:"value"`
	Default any    `json:"default"`
	Help    string `json:"help"`
	Kind    Kind   `json:"kind"`
	Source  string `json:"source"`
}

// Accessor resolves settings through the runtime layer, then the static layer.
// It is safe for concurrent use as long as the store is.
type Accessor struct {
	store   Store
	static  StaticLayer
	options map[string]Option
}

// NewAccessor creates an accessor. static may be nil.
func NewAccessor(store Store, static StaticLayer, options ...Option) *Accessor {
	if store == nil {
		store = NewMemoryStore()
	}
	opts := make(map[string]Option, len(options))
	for _, o := range options {
		opts[o.Name] = o
	}
	return &Accessor{store: store, static: static, options: opts}
}

// Store returns the runtime backend.
func (a *Accessor) Store() Store { return a.store }

// Option returns the declared option for name.
func (a *Accessor) Option(name string) (Option, bool) {
	o, ok := a.options[name]
	return o, ok
}

// Lookup resolves name. Only backend failures are returned as errors; a
// missing name is reported through Result.Found.
func (a *Accessor) Lookup(ctx context.Context, name string) (Result, error) {
	v, ok, err := a.store.Load(ctx, name)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read runtime config %s: %w", name, err)
	}
	if ok && v != nil {
		if o, declared := a.options[name]; declared {
			if v, err = o.coerce(v); err != nil {
				return Result{}, fmt.Errorf("failed to read runtime config %s: %w", name, err)
			}
		}
		return Result{Value: v, Found: true}, nil
	}

	if a.static != nil {
		if v, ok := a.static.Lookup(name); ok {
			return Result{Value: v, Found: true}, nil
		}
	}

	return Result{}, nil
}

// Get resolves name, returning ErrUnknownKey when it is in neither layer.
func (a *Accessor) Get(ctx context.Context, name string) (any, error) {
	res, err := a.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	if !res.Found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, name)
	}
	return res.Value, nil
}

// Bool resolves a boolean setting.
func (a *Accessor) Bool(ctx context.Context, name string) (bool, error) {
	v, err := a.Get(ctx, name)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s is %T, not bool", ErrTypeMismatch, name, v)
	}
	return b, nil
}

// String resolves a string setting.
func (a *Accessor) String(ctx context.Context, name string) (string, error) {
	v, err := a.Get(ctx, name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T, not string", ErrTypeMismatch, name, v)
	}
	return s, nil
}

// Strings resolves a list setting.
func (a *Accessor) Strings(ctx context.Context, name string) ([]string, error) {
	v, err := a.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case []string:
		return t, nil
	case []any:
		out, err := (Option{Name: name, Kind: KindStrings}).coerce(t)
		if err != nil {
			return nil, err
		}
		return out.([]string), nil
	}
	return nil, fmt.Errorf("%w: %s is %T, not []string", ErrTypeMismatch, name, v)
}

// Set stores a new runtime value for a declared option.
func (a *Accessor) Set(ctx context.Context, name string, value any) error {
	o, ok := a.options[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotDeclared, name)
	}
	v, err := o.coerce(value)
	if err != nil {
		return err
	}
	if err := a.store.Save(ctx, name, v); err != nil {
		return fmt.Errorf("failed to write runtime config %s: %w", name, err)
	}
	return nil
}

// Reset writes every declared option's default into the runtime layer.
func (a *Accessor) Reset(ctx context.Context) error {
	for _, name := range a.names() {
		o := a.options[name]
		if err := a.store.Save(ctx, name, o.Default); err != nil {
			return fmt.Errorf("failed to reset runtime config %s: %w", name, err)
		}
	}
	return nil
}

// Snapshot returns every declared option with its current value, sorted by
// name. The runtime layer is read once.
func (a *Accessor) Snapshot(ctx context.Context) ([]Entry, error) {
	stored, err := a.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read runtime config: %w", err)
	}

	names := a.names()
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		v, ok := stored[name]
		e, err := a.entry(a.options[name], v, ok)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Describe returns the entry for one declared option.
func (a *Accessor) Describe(ctx context.Context, name string) (Entry, error) {
	o, ok := a.options[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotDeclared, name)
	}

	v, stored, err := a.store.Load(ctx, name)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read runtime config %s: %w", name, err)
	}
	return a.entry(o, v, stored)
}

func (a *Accessor) entry(o Option, v any, stored bool) (Entry, error) {
	e := Entry{Name: o.Name, Default: o.Default, Help: o.Help, Kind: o.Kind}

	if stored && v != nil {
		cv, err := o.coerce(v)
		if err != nil {
			return Entry{}, err
		}
		e.Value, e.Source = cv, SourceRuntime
		return e, nil
	}
	if a.static != nil {
		if sv, ok := a.static.Lookup(o.Name); ok {
			e.Value, e.Source = sv, SourceStatic
			return e, nil
		}
	}
	e.Value, e.Source = o.Default, SourceDefault
	return e, nil
}

func (a *Accessor) names() []string {
	names := make([]string, 0, len(a.options))
	for name := range a.options {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
