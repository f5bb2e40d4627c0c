package scenario

import (
	"context"
	"fmt"

	"cello/internal/config"

	"github.com/google/uuid"
)

// DefaultName is the cell spawned by the single scenario.
const DefaultName = "Booboo"

// Single spawns one cell named Booboo.
type Single struct{}

func (Single) Name() string { return "single" }

func (Single) Populate(ctx context.Context, sp Spawner) ([]uuid.UUID, error) {
	return spawnAll(ctx, sp, []string{DefaultName})
}

// NameList spawns one cell per configured name.
type NameList struct {
	List []string
}

func (NameList) Name() string { return "names" }

func (n NameList) Populate(ctx context.Context, sp Spawner) ([]uuid.UUID, error) {
	return spawnAll(ctx, sp, n.List)
}

// Swarm spawns Count anonymous cells named cell-000, cell-001 and so on.
type Swarm struct {
	Count int
}

func (Swarm) Name() string { return "swarm" }

func (s Swarm) Populate(ctx context.Context, sp Spawner) ([]uuid.UUID, error) {
	names := make([]string, s.Count)
	for i := range names {
		names[i] = fmt.Sprintf("cell-%03d", i)
	}
	return spawnAll(ctx, sp, names)
}

// Empty spawns nothing; cells are added interactively.
type Empty struct{}

func (Empty) Name() string { return "empty" }

func (Empty) Populate(context.Context, Spawner) ([]uuid.UUID, error) { return nil, nil }

func init() {
	Register("single", func(config.Config) Scenario { return Single{} })
	Register("names", func(cfg config.Config) Scenario { return NameList{List: cfg.Spawn} })
	Register("swarm", func(cfg config.Config) Scenario { return Swarm{Count: cfg.SwarmSize} })
	Register("empty", func(config.Config) Scenario { return Empty{} })
}
