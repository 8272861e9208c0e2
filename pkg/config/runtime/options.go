package runtime

import (
	"fmt"
	"strconv"
	"strings"

	"mercator-hq/bastion/pkg/config"
)

// Names of the options declared by DefaultOptions.
const (
	MaintenanceEnable      = "MAINTENANCE_ENABLE"
	MaintenanceMessage     = "MAINTENANCE_MESSAGE"
	MaintenanceAllowedURLs = "MAINTENANCE_ALLOWED_URLS"
	MaintenanceAllowedIPs  = "MAINTENANCE_ALLOWED_IPS"
)

// Kind is the value type of an option.
type Kind string

const (
	KindBool    Kind = "bool"
	KindString  Kind = "string"
	KindStrings Kind = "strings"
)

// Option declares a runtime-mutable setting.
type Option struct {
	Name    string
	Default any
	Help    string
	Kind    Kind
}

// DefaultOptions declares the maintenance options, taking their defaults from
// the static layer.
func DefaultOptions(static StaticLayer) []Option {
	def := func(name string, fallback any) any {
		if static != nil {
			if v, ok := static.Lookup(name); ok {
				return v
			}
		}
		return fallback
	}

	return []Option{
		{
			Name:    MaintenanceEnable,
			Default: def(MaintenanceEnable, false),
			Help:    "Enable maintenance mode",
			Kind:    KindBool,
		},
		{
			Name:    MaintenanceMessage,
			Default: def(MaintenanceMessage, config.DefaultMaintenanceMessage),
			Help:    "Message returned while maintenance mode is on",
			Kind:    KindString,
		},
		{
			Name:    MaintenanceAllowedURLs,
			Default: def(MaintenanceAllowedURLs, []string{}),
			Help:    "Path prefixes that bypass maintenance mode",
			Kind:    KindStrings,
		},
		{
			Name:    MaintenanceAllowedIPs,
			Default: def(MaintenanceAllowedIPs, []string{}),
			Help:    "Remote addresses that bypass maintenance mode",
			Kind:    KindStrings,
		},
	}
}

// coerce converts v to the option's kind. Strings are parsed for bool and
// strings options so values from forms, env files, and YAML all work.
func (o Option) coerce(v any) (any, error) {
	switch o.Kind {
	case KindBool:
		switch t := v.(type) {
		case bool:
			return t, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(t))
			if err != nil {
				return nil, fmt.Errorf("%w: %s expects a boolean, got %q", ErrInvalidValue, o.Name, t)
			}
			return b, nil
		}
	case KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case KindStrings:
		switch t := v.(type) {
		case []string:
			out := make([]string, len(t))
			copy(out, t)
			return out, nil
		case []any:
			out := make([]string, 0, len(t))
			for _, item := range t {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("%w: %s expects a list of strings", ErrInvalidValue, o.Name)
				}
				out = append(out, s)
			}
			return out, nil
		case string:
			return config.ParseList(t), nil
		}
	default:
		return nil, fmt.Errorf("%w: %s has unknown kind %q", ErrInvalidValue, o.Name, o.Kind)
	}
	return nil, fmt.Errorf("%w: %s expects %s, got %T", ErrInvalidValue, o.Name, o.Kind, v)
}
