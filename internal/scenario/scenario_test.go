package scenario

import (
	"context"
	"errors"
	"testing"

	"cello/internal/config"

	"github.com/google/uuid"
)

type recordingSpawner struct {
	names  []string
	failAt int
}

func (r *recordingSpawner) Spawn(_ context.Context, name string) (uuid.UUID, error) {
	if r.failAt > 0 && len(r.names) == r.failAt {
		return uuid.Nil, errors.New("canvas full")
	}
	r.names = append(r.names, name)
	return uuid.New(), nil
}

func TestRegistryHasBuiltins(t *testing.T) {
	for _, name := range []string{"empty", "names", "single", "swarm"} {
		if _, ok := Scenarios()[name]; !ok {
			t.Fatalf("scenario %q not registered", name)
		}
	}
	if got := Names(); len(got) < 4 || got[0] != "empty" {
		t.Fatalf("names not sorted: %v", got)
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("volcano", config.Default())
	if !errors.Is(err, ErrUnknown) {
		t.Fatalf("expected ErrUnknown, got %v", err)
	}
}

func TestSingleSpawnsBooboo(t *testing.T) {
	sc, err := Lookup("single", config.Default())
	if err != nil {
		t.Fatal(err)
	}
	sp := &recordingSpawner{}
	ids, err := sc.Populate(context.Background(), sp)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || len(sp.names) != 1 || sp.names[0] != DefaultName {
		t.Fatalf("unexpected spawn: ids=%v names=%v", ids, sp.names)
	}
}

func TestNamesAndSwarm(t *testing.T) {
	cfg := config.Default()
	cfg.Spawn = []string{"Ada", "Bob", "Cy"}
	cfg.SwarmSize = 12

	sp := &recordingSpawner{}
	sc, _ := Lookup("names", cfg)
	if list, ok := sc.(NameList); !ok || sc.Name() != "names" || len(list.List) != 3 {
		t.Fatalf("names scenario = %#v", sc)
	}
	if _, err := sc.Populate(context.Background(), sp); err != nil {
		t.Fatal(err)
	}
	if len(sp.names) != 3 || sp.names[2] != "Cy" {
		t.Fatalf("names scenario spawned %v", sp.names)
	}

	sp = &recordingSpawner{}
	sc, _ = Lookup("swarm", cfg)
	ids, err := sc.Populate(context.Background(), sp)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 12 || sp.names[11] != "cell-011" {
		t.Fatalf("swarm spawned %d cells, last %q", len(ids), sp.names[len(sp.names)-1])
	}
}

func TestPopulateStopsAtFirstFailure(t *testing.T) {
	sp := &recordingSpawner{failAt: 2}
	ids, err := Swarm{Count: 5}.Populate(context.Background(), sp)
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(ids) != 2 {
		t.Fatalf("expected the two ids spawned before the failure, got %d", len(ids))
	}
}
