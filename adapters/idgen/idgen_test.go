package idgen_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/artpar/wildgate/adapters/idgen"
)

func TestUUID_New(t *testing.T) {
	id := idgen.UUID{}.New()

	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("ID %s is not a UUID: %v", id, err)
	}
	if parsed.Version() != 4 {
		t.Errorf("ID %s has version %d, want 4", id, parsed.Version())
	}
}

func TestUUID_New_Unique(t *testing.T) {
	g := idgen.UUID{}

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := g.New()
		if seen[id] {
			t.Errorf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestSequential_New(t *testing.T) {
	g := idgen.NewSequential("ref-")

	for _, want := range []string{"ref-1", "ref-2", "ref-3"} {
		if id := g.New(); id != want {
			t.Errorf("New() = %s, want %s", id, want)
		}
	}
}

func TestSequential_ConcurrentAccess(t *testing.T) {
	g := idgen.NewSequential("")

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		seen = make(map[string]bool)
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := g.New()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != 1000 {
		t.Errorf("expected 1000 unique IDs, got %d", len(seen))
	}
}
