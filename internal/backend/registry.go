// Package backend implements the pluggable SMS transports and the
// registry that resolves a channel's backend configuration to a live
// transport instance.
package backend

import (
	"fmt"
	"log/slog"

	"smsrelay/internal/domain"
)

// Constructor builds a transport from opaque backend arguments. It
// returns an error when the arguments are rejected.
type Constructor func(args map[string]string, logger *slog.Logger) (domain.Backend, error)

// Registry maps module identifiers to transport constructors.
type Registry struct {
	constructors map[string]Constructor
	logger       *slog.Logger
}

// NewRegistry creates a registry with the built-in transports registered.
func NewRegistry(logger *slog.Logger) *Registry {
	r := &Registry{
		constructors: make(map[string]Constructor),
		logger:       logger,
	}
	r.registerDefaults()
	return r
}

// Register adds (or replaces) a transport constructor by name.
func (r *Registry) Register(name string, ctor Constructor) {
	r.constructors[name] = ctor
}

func (r *Registry) registerDefaults() {
	r.constructors["none"] = func(args map[string]string, _ *slog.Logger) (domain.Backend, error) {
		for key := range args {
			return nil, fmt.Errorf("invalid argument: %s", key)
		}
		return NewNone(), nil
	}

	r.constructors["voipms"] = func(args map[string]string, logger *slog.Logger) (domain.Backend, error) {
		return NewVoipMS(args, logger)
	}

	r.constructors["telegram"] = func(args map[string]string, logger *slog.Logger) (domain.Backend, error) {
		return NewTelegram(args, logger)
	}
}

// Load resolves cfg to a live transport. An unknown module identifier or
// arguments the constructor rejects is a configuration error.
func (r *Registry) Load(cfg domain.BackendConfig) (domain.Backend, error) {
	ctor, ok := r.constructors[cfg.Module]
	if !ok {
		return nil, fmt.Errorf("no such backend module: %s", cfg.Module)
	}
	be, err := ctor(cfg.Args, r.logger)
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", cfg.Module, err)
	}
	return be, nil
}
