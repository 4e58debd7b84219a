package vec3

import (
	"math"
	"testing"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestDotCross(t *testing.T) {
	a := New(1, 0, 0)
	b := New(0, 1, 0)
	if a.Dot(b) != 0 {
		t.Fatalf("expected orthogonal vectors to have zero dot product, got %v", a.Dot(b))
	}
	c := a.Cross(b)
	if c != (Vec3{0, 0, 1}) {
		t.Fatalf("expected x cross y = z, got %v", c)
	}
}

func TestUnit(t *testing.T) {
	v := New(3, 4, 0)
	u := v.Unit()
	if !almostEqual(u.Length(), 1.0, 1e-9) {
		t.Fatalf("expected unit length, got %v", u.Length())
	}
	if !almostEqual(u.X, 0.6, 1e-9) || !almostEqual(u.Y, 0.8, 1e-9) {
		t.Fatalf("unexpected unit vector %v", u)
	}
}

func TestReflect(t *testing.T) {
	v := New(1, -1, 0)
	n := New(0, 1, 0)
	r := Reflect(v, n)
	if !almostEqual(r.X, 1, 1e-9) || !almostEqual(r.Y, 1, 1e-9) || !almostEqual(r.Z, 0, 1e-9) {
		t.Fatalf("unexpected reflection %v", r)
	}
}

func TestNearZero(t *testing.T) {
	if !(New(0, 0, 0).NearZero()) {
		t.Fatal("zero vector should be near zero")
	}
	if New(1, 0, 0).NearZero() {
		t.Fatal("unit vector should not be near zero")
	}
}

func TestRandomUnitVectorIsUnit(t *testing.T) {
	for i := 0; i < 100; i++ {
		v := RandomUnitVector()
		if !almostEqual(v.Length(), 1.0, 1e-6) {
			t.Fatalf("expected unit length, got %v", v.Length())
		}
	}
}

func TestRandomInUnitDisk(t *testing.T) {
	for i := 0; i < 100; i++ {
		p := RandomInUnitDisk()
		if p.Z != 0 {
			t.Fatalf("expected disk sample to lie in the XY plane, got z=%v", p.Z)
		}
		if p.LengthSquared() >= 1.0 {
			t.Fatalf("expected disk sample within unit disk, got length^2=%v", p.LengthSquared())
		}
	}
}
