package game

import (
	"math"
	"testing"
)

func TestForwardFromYaw(t *testing.T) {
	f := ForwardFromYaw(0)
	if math.Abs(f.Z-1) > 1e-9 || math.Abs(f.X) > 1e-9 {
		t.Fatalf("yaw 0 forward = %+v, want +Z", f)
	}
	f = ForwardFromYaw(math.Pi / 2)
	if math.Abs(f.X-1) > 1e-9 {
		t.Fatalf("yaw pi/2 forward = %+v, want +X", f)
	}
}

func TestYawTo_RoundTrip(t *testing.T) {
	o := Vec3{1, 0, 2}
	for _, p := range []Vec3{{5, 0, 2}, {1, 0, -7}, {-3, 0, -3}, {4, 9, 6}} {
		f := ForwardFromYaw(YawTo(o, p))
		want := p.Sub(o).Flat().Norm()
		if f.Sub(want).Len() > 1e-9 {
			t.Fatalf("facing %v from %v: forward %+v, want %+v", p, o, f, want)
		}
	}
}

func TestHorizontalAngle_IgnoresHeight(t *testing.T) {
	o := Vec3{}
	fwd := Vec3{Z: 1}
	if a := HorizontalAngle(fwd, o, Vec3{0, 50, 10}); a > 1e-9 {
		t.Fatalf("height should not matter, got %.4f rad", a)
	}
	if a := HorizontalAngle(fwd, o, Vec3{10, 0, 0}); math.Abs(a-math.Pi/2) > 1e-9 {
		t.Fatalf("side angle %.4f, want pi/2", a)
	}
}

func TestInCone(t *testing.T) {
	o := Vec3{}
	fwd := Vec3{Z: 1}
	if !InCone(o, fwd, Vec3{0.5, 0, 10}, deg(10), 40) {
		t.Fatal("point just off axis should be inside a 10 degree cone")
	}
	if InCone(o, fwd, Vec3{5, 0, 10}, deg(10), 40) {
		t.Fatal("point at ~27 degrees should be outside")
	}
	if InCone(o, fwd, Vec3{0, 0, 50}, deg(10), 40) {
		t.Fatal("point beyond range should be outside")
	}
	if !InCone(o, fwd, Vec3{0, 0, 500}, deg(10), 0) {
		t.Fatal("maxRange 0 disables the range test")
	}
}

func TestNormalizeAngle(t *testing.T) {
	cases := map[float64]float64{
		2.5 * math.Pi:  0.5 * math.Pi,
		-2.5 * math.Pi: -0.5 * math.Pi,
		0.5:            0.5,
	}
	for in, want := range cases {
		if got := normalizeAngle(in); math.Abs(got-want) > 1e-9 {
			t.Fatalf("normalizeAngle(%.3f) = %.3f, want %.3f", in, got, want)
		}
	}
}
