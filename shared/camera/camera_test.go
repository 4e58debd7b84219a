package camera

import "testing"

func TestInitializeDerivesImageHeight(t *testing.T) {
	c := Default()
	c.AspectRatio = 2.0
	c.ImageWidth = 200
	c.Initialize()
	if c.ImageHeight != 100 {
		t.Fatalf("expected image height 100, got %v", c.ImageHeight)
	}
}

func TestInitializeClampsDegenerateHeight(t *testing.T) {
	c := Default()
	c.AspectRatio = 1000
	c.ImageWidth = 10
	c.Initialize()
	if c.ImageHeight < 1 {
		t.Fatalf("expected image height clamped to at least 1, got %v", c.ImageHeight)
	}
}

func TestGetRayAimsNearPixelCenter(t *testing.T) {
	c := Default()
	c.Initialize()
	r := c.GetRay(50, 50)
	if r.Direction.LengthSquared() == 0 {
		t.Fatal("expected a non-degenerate ray direction")
	}
	center := c.Pixel00Loc.Add(c.PixelDeltaU.Scale(50)).Add(c.PixelDeltaV.Scale(50))
	if off := r.Origin.Add(r.Direction).Sub(center); off.Length() > c.PixelDeltaU.Add(c.PixelDeltaV).Length() {
		t.Fatalf("expected ray to aim within one pixel of pixel (50,50)'s center, off by %v", off)
	}
}

func TestScanOrderIsPermutation(t *testing.T) {
	order := ScanOrder(4, 4, func() float64 { return 0.5 })
	seen := make(map[int]bool)
	for _, v := range order {
		if v < 0 || v >= 16 {
			t.Fatalf("index out of range: %v", v)
		}
		seen[v] = true
	}
	if len(seen) != 16 {
		t.Fatalf("expected a permutation of 16 distinct indices, got %v", len(seen))
	}
}

func TestNewRayStateStartsAtFullAttenuation(t *testing.T) {
	c := Default()
	c.Initialize()
	rs := NewRayState(c.GetRay(0, 0), 5)
	if rs.Attenuation.X != 1 || rs.Attenuation.Y != 1 || rs.Attenuation.Z != 1 {
		t.Fatalf("expected initial attenuation of (1,1,1), got %v", rs.Attenuation)
	}
	if rs.DepthRemaining != 5 {
		t.Fatalf("expected depth remaining 5, got %v", rs.DepthRemaining)
	}
}
