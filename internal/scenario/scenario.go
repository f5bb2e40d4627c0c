// Package scenario holds the named initial populations a canvas can be
// seeded with.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"cello/internal/config"

	"github.com/google/uuid"
)

// ErrUnknown is returned by Lookup for names that were never registered.
var ErrUnknown = errors.New("unknown scenario")

// Spawner is the part of the canvas a scenario needs.
type Spawner interface {
	Spawn(ctx context.Context, name string) (uuid.UUID, error)
}

// Scenario seeds a canvas with cells.
type Scenario interface {
	Name() string
	Populate(ctx context.Context, sp Spawner) ([]uuid.UUID, error)
}

// Factory constructs a Scenario from the resolved configuration.
type Factory func(cfg config.Config) Scenario

var scenarios = map[string]Factory{}

// Register adds a scenario factory under the provided name.
func Register(name string, f Factory) {
	if name == "" || f == nil {
		return
	}
	scenarios[name] = f
}

// Scenarios exposes the registry of available scenario factories.
func Scenarios() map[string]Factory {
	return scenarios
}

// Names lists the registered scenarios in order.
func Names() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup builds the named scenario.
func Lookup(name string, cfg config.Config) (Scenario, error) {
	f, ok := scenarios[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (have %v)", ErrUnknown, name, Names())
	}
	return f(cfg), nil
}

// spawnAll spawns one cell per name and stops at the first failure,
// returning the ids spawned so far.
func spawnAll(ctx context.Context, sp Spawner, names []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(names))
	for _, name := range names {
		id, err := sp.Spawn(ctx, name)
		if err != nil {
			return ids, fmt.Errorf("spawn %q: %w", name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
