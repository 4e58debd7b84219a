package brick

import (
	"math"
	"testing"

	"github.com/brickrender/distraytracer/shared/raytrace"
	"github.com/brickrender/distraytracer/shared/vec3"
)

func TestLatticeHas36GeometricBricks(t *testing.T) {
	workers := []string{"a", "b", "c"}
	bricks, table := Lattice(workers, 1)
	if len(bricks) != 36 {
		t.Fatalf("expected 36 geometric bricks, got %v", len(bricks))
	}
	if len(table) != 36 {
		t.Fatalf("expected 36 table entries, got %v", len(table))
	}
}

func TestLatticeBorderBricksAreInfinite(t *testing.T) {
	bricks, _ := Lattice([]string{"a"}, 1)
	var sawNegInf, sawPosInf bool
	for _, b := range bricks {
		if math.IsInf(b.XMin, -1) {
			sawNegInf = true
		}
		if math.IsInf(b.XMax, 1) {
			sawPosInf = true
		}
	}
	if !sawNegInf || !sawPosInf {
		t.Fatal("expected at least one brick with an infinite X border")
	}
}

func TestLatticeEveryBrickHasAWorker(t *testing.T) {
	workers := []string{"a", "b"}
	bricks, table := Lattice(workers, 3)
	for _, b := range bricks {
		if len(table[b.ID]) != 3 {
			t.Fatalf("brick %v: expected 3 replicated workers, got %v", b.ID, len(table[b.ID]))
		}
	}
}

func TestLatticeRoundRobinAssignment(t *testing.T) {
	workers := []string{"w0", "w1", "w2"}
	bricks, table := Lattice(workers, 1)
	for _, b := range bricks {
		want := workers[b.ID%len(workers)]
		if table[b.ID][0] != want {
			t.Fatalf("brick %v: expected worker %v, got %v", b.ID, want, table[b.ID][0])
		}
	}
}

func TestHitCentralBrick(t *testing.T) {
	b := Brick{XMin: -4, XMax: 4, ZMin: -4, ZMax: 4}
	r := raytrace.Ray{Origin: vec3.New(0, 0, -100), Direction: vec3.New(0, 0, 1)}
	entryT, ok := Hit(b, r)
	if !ok {
		t.Fatal("expected ray along Z to hit the central brick")
	}
	if entryT <= 0 {
		t.Fatalf("expected positive entry t, got %v", entryT)
	}
}

func TestHitMissesDisjointBrick(t *testing.T) {
	b := Brick{XMin: 100, XMax: 108, ZMin: -4, ZMax: 4}
	r := raytrace.Ray{Origin: vec3.New(0, 0, 0), Direction: vec3.New(0, 0, 1)}
	_, ok := Hit(b, r)
	if ok {
		t.Fatal("expected ray to miss a brick far off the X axis")
	}
}

func TestBricksHitOrderedByEntryT(t *testing.T) {
	near := Brick{ID: 1, XMin: -4, XMax: 4, ZMin: -4, ZMax: 4}
	far := Brick{ID: 2, XMin: -4, XMax: 4, ZMin: 96, ZMax: 104}
	r := raytrace.Ray{Origin: vec3.New(0, 0, -100), Direction: vec3.New(0, 0, 1)}
	hits := BricksHit([]Brick{far, near}, r)
	if len(hits) != 2 {
		t.Fatalf("expected both bricks hit, got %v", len(hits))
	}
	if hits[0].ID != near.ID {
		t.Fatalf("expected nearest brick first, got id %v", hits[0].ID)
	}
}

func TestIndexOverlapping(t *testing.T) {
	bricks, _ := Lattice([]string{"a"}, 1)
	idx := NewIndex(bricks)
	hits := idx.Overlapping(-1, 1, -1, 1)
	if len(hits) == 0 {
		t.Fatal("expected the origin region to overlap at least one brick")
	}
}
