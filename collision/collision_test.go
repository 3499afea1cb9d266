package collision

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"go.viam.com/test"

	"go.kartsim.dev/collision/kcl"
	"go.kartsim.dev/collision/logging"
)

const eps = 1e-9

var up = r3.Vector{X: 0, Y: 1, Z: 0}

// bigFloor is a horizontal triangle at y=0 covering x, z in [-10, 10] and beyond.
func bigFloor() kcl.Plane {
	return kcl.NewPlane(r3.Vector{X: -10, Y: 0, Z: -10}, r3.Vector{X: -10, Y: 0, Z: 30}, r3.Vector{X: 30, Y: 0, Z: -10}, kcl.NewCollisionType(kcl.CategoryRoad, 0))
}

// cornerFloor has its right angle at the origin and spans x, z in [0, 10].
func cornerFloor() kcl.Plane {
	return kcl.NewPlane(r3.Vector{X: 0, Y: 0, Z: 0}, r3.Vector{X: 0, Y: 0, Z: 10}, r3.Vector{X: 10, Y: 0, Z: 0}, 0)
}

func staticScene(t *testing.T, planes ...kcl.Plane) *Scene {
	t.Helper()
	store, err := kcl.Build(planes, kcl.DefaultBuildOptions(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return NewScene(store)
}

func vectorsAlmostEqual(t *testing.T, actual, expected r3.Vector, tol float64) {
	t.Helper()
	test.That(t, actual.X, test.ShouldAlmostEqual, expected.X, tol)
	test.That(t, actual.Y, test.ShouldAlmostEqual, expected.Y, tol)
	test.That(t, actual.Z, test.ShouldAlmostEqual, expected.Z, tol)
}

func TestRaycast(t *testing.T) {
	logger := logging.NewTestLogger(t)
	scene := staticScene(t, bigFloor())
	engine := NewEngine(logger)

	t.Run("straight down", func(t *testing.T) {
		hit, ok := engine.Raycast(r3.Vector{X: 0, Y: 10, Z: 0}, r3.Vector{X: 0, Y: -20, Z: 0}, scene, DefaultErrorMargin, nil)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, hit.T, test.ShouldAlmostEqual, 0.5, eps)
		vectorsAlmostEqual(t, hit.Point, r3.Vector{}, eps)
		test.That(t, hit.Normal, test.ShouldResemble, up)
		test.That(t, hit.Plane, test.ShouldEqual, scene.Static().Plane(0))
		test.That(t, hit.Plane.CollisionType(), test.ShouldEqual, kcl.NewCollisionType(kcl.CategoryRoad, 0))
		test.That(t, hit.Source, test.ShouldBeNil)
	})

	t.Run("parallel", func(t *testing.T) {
		for _, origin := range []r3.Vector{{X: 0, Y: 10, Z: 0}, {X: 0, Y: 0, Z: 0}, {X: -5, Y: 1e-9, Z: 3}} {
			_, ok := engine.Raycast(origin, r3.Vector{X: 20, Y: 0, Z: 0}, scene, DefaultErrorMargin, nil)
			test.That(t, ok, test.ShouldBeFalse)
		}
	})

	t.Run("back face", func(t *testing.T) {
		_, ok := engine.Raycast(r3.Vector{X: 0, Y: -10, Z: 0}, r3.Vector{X: 0, Y: 20, Z: 0}, scene, DefaultErrorMargin, nil)
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("too short", func(t *testing.T) {
		_, ok := engine.Raycast(r3.Vector{X: 0, Y: 10, Z: 0}, r3.Vector{X: 0, Y: -5, Z: 0}, scene, DefaultErrorMargin, nil)
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("ignored", func(t *testing.T) {
		_, ok := engine.Raycast(r3.Vector{X: 0, Y: 10, Z: 0}, r3.Vector{X: 0, Y: -20, Z: 0}, scene, DefaultErrorMargin,
			[]*kcl.Plane{scene.Static().Plane(0)})
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("deterministic", func(t *testing.T) {
		ignore := []*kcl.Plane{}
		first, ok1 := engine.Raycast(r3.Vector{X: 1, Y: 3, Z: 2}, r3.Vector{X: 0.5, Y: -7, Z: 0.25}, scene, DefaultErrorMargin, ignore)
		second, ok2 := engine.Raycast(r3.Vector{X: 1, Y: 3, Z: 2}, r3.Vector{X: 0.5, Y: -7, Z: 0.25}, scene, DefaultErrorMargin, ignore)
		test.That(t, ok1, test.ShouldBeTrue)
		test.That(t, ok2, test.ShouldBeTrue)
		test.That(t, second, test.ShouldResemble, first)
	})
}

func TestRaycastNearestWins(t *testing.T) {
	lower := bigFloor()
	upper := kcl.NewPlane(r3.Vector{X: -10, Y: 2, Z: -10}, r3.Vector{X: -10, Y: 2, Z: 30}, r3.Vector{X: 30, Y: 2, Z: -10}, kcl.NewCollisionType(kcl.CategoryBoost, 0))
	engine := NewEngine(logging.NewTestLogger(t))

	// the lower plane comes first in the table and must still lose
	scene := staticScene(t, lower, upper)
	hit, ok := engine.Raycast(r3.Vector{X: 0, Y: 10, Z: 0}, r3.Vector{X: 0, Y: -20, Z: 0}, scene, DefaultErrorMargin, nil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, hit.T, test.ShouldAlmostEqual, 0.4, eps)
	test.That(t, hit.Plane.CollisionType().Category(), test.ShouldEqual, kcl.CategoryBoost)
}

func TestRaycastSharedEdge(t *testing.T) {
	engine := NewEngine(logging.NewTestLogger(t))
	near := cornerFloor()
	for _, gap := range []float64{0, 1e-4} {
		// far takes the hypotenuse of near as an edge through its own first vertex
		far := kcl.NewPlane(r3.Vector{X: 10 + gap, Y: 0, Z: 0}, r3.Vector{X: gap, Y: 0, Z: 10}, r3.Vector{X: 10 + gap, Y: 0, Z: 10}, 0)
		test.That(t, far.Normal(), test.ShouldResemble, up)
		scene := staticScene(t, near, far)

		hit, ok := engine.Raycast(r3.Vector{X: 5, Y: 10, Z: 5}, r3.Vector{X: 0, Y: -20, Z: 0}, scene, 1e-3, nil)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, hit.Plane, test.ShouldEqual, scene.Static().Plane(1))
		test.That(t, hit.T, test.ShouldAlmostEqual, 0.5, eps)
	}
}

func TestSweepEllipsoid(t *testing.T) {
	engine := NewEngine(logging.NewTestLogger(t))
	unit := r3.Vector{X: 1, Y: 1, Z: 1}

	t.Run("face contact", func(t *testing.T) {
		scene := staticScene(t, bigFloor())
		hit, ok := engine.SweepEllipsoid(r3.Vector{X: 0, Y: 2, Z: 0}, r3.Vector{X: 0, Y: -4, Z: 0}, scene, unit, nil)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, hit.T, test.ShouldAlmostEqual, 0.25, eps)
		test.That(t, hit.Embedded, test.ShouldBeFalse)
		vectorsAlmostEqual(t, hit.Point, r3.Vector{}, eps)
		vectorsAlmostEqual(t, hit.Center, r3.Vector{X: 0, Y: 1, Z: 0}, eps)
		vectorsAlmostEqual(t, hit.Normal, up, eps)
		test.That(t, hit.PlaneNormal, test.ShouldResemble, up)
	})

	t.Run("ellipsoid", func(t *testing.T) {
		scene := staticScene(t, bigFloor())
		hit, ok := engine.SweepEllipsoid(r3.Vector{X: 0, Y: 2, Z: 0}, r3.Vector{X: 0, Y: -4, Z: 0}, scene, r3.Vector{X: 2, Y: 0.5, Z: 2}, nil)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, hit.T, test.ShouldAlmostEqual, 0.375, eps)
		vectorsAlmostEqual(t, hit.Center, r3.Vector{X: 0, Y: 0.5, Z: 0}, eps)
		vectorsAlmostEqual(t, hit.Point, r3.Vector{}, eps)
		vectorsAlmostEqual(t, hit.Normal, up, eps)
	})

	t.Run("embedded", func(t *testing.T) {
		scene := staticScene(t, bigFloor())
		hit, ok := engine.SweepEllipsoid(r3.Vector{X: 0, Y: 0.5, Z: 0}, r3.Vector{X: 0, Y: -1, Z: 0}, scene, unit, nil)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, hit.T, test.ShouldEqual, 0)
		test.That(t, hit.Embedded, test.ShouldBeTrue)
		vectorsAlmostEqual(t, hit.Point, r3.Vector{}, eps)
		vectorsAlmostEqual(t, hit.Normal, up, eps)
	})

	t.Run("parallel behind plane", func(t *testing.T) {
		scene := staticScene(t, bigFloor())
		hit, ok := engine.SweepEllipsoid(r3.Vector{X: 0, Y: -0.5, Z: 0}, r3.Vector{X: 1, Y: 0, Z: 0}, scene, unit, nil)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, hit.T, test.ShouldEqual, 0)
		test.That(t, hit.Embedded, test.ShouldBeTrue)
		vectorsAlmostEqual(t, hit.Point, r3.Vector{}, eps)
		vectorsAlmostEqual(t, hit.Center, r3.Vector{X: 0, Y: -0.5, Z: 0}, eps)
		vectorsAlmostEqual(t, hit.Normal, r3.Vector{X: 0, Y: -1, Z: 0}, eps)
		test.That(t, hit.PlaneNormal, test.ShouldResemble, up)

		_, ok = engine.SweepEllipsoid(r3.Vector{X: 0, Y: -1.5, Z: 0}, r3.Vector{X: 1, Y: 0, Z: 0}, scene, unit, nil)
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("vertex contact", func(t *testing.T) {
		scene := staticScene(t, cornerFloor())
		s := math.Sqrt(3)
		start := r3.Vector{X: -s, Y: s, Z: -s}
		hit, ok := engine.SweepEllipsoid(start, start.Mul(-1), scene, unit, nil)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, hit.T, test.ShouldAlmostEqual, 2.0/3.0, 1e-9)
		vectorsAlmostEqual(t, hit.Point, r3.Vector{}, 1e-9)
		vectorsAlmostEqual(t, hit.Normal, r3.Vector{X: -1, Y: 1, Z: -1}.Normalize(), 1e-9)
		test.That(t, hit.PlaneNormal, test.ShouldResemble, up)
		test.That(t, hit.Embedded, test.ShouldBeFalse)
	})

	t.Run("edge contact", func(t *testing.T) {
		scene := staticScene(t, cornerFloor())
		hit, ok := engine.SweepEllipsoid(r3.Vector{X: -3, Y: 0.6, Z: 5}, r3.Vector{X: 4, Y: 0, Z: 0}, scene, unit, nil)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, hit.T, test.ShouldAlmostEqual, 0.55, 1e-9)
		vectorsAlmostEqual(t, hit.Point, r3.Vector{X: 0, Y: 0, Z: 5}, 1e-9)
		vectorsAlmostEqual(t, hit.Normal, r3.Vector{X: -0.8, Y: 0.6, Z: 0}, 1e-9)
		test.That(t, hit.Embedded, test.ShouldBeFalse)
	})

	t.Run("back face and miss", func(t *testing.T) {
		scene := staticScene(t, bigFloor())
		_, ok := engine.SweepEllipsoid(r3.Vector{X: 0, Y: -2, Z: 0}, r3.Vector{X: 0, Y: 4, Z: 0}, scene, unit, nil)
		test.That(t, ok, test.ShouldBeFalse)
		_, ok = engine.SweepEllipsoid(r3.Vector{X: 0, Y: 5, Z: 0}, r3.Vector{X: 0, Y: -2, Z: 0}, scene, unit, nil)
		test.That(t, ok, test.ShouldBeFalse)
		_, ok = engine.SweepEllipsoid(r3.Vector{X: 0, Y: 2, Z: 0}, r3.Vector{X: 0, Y: -4, Z: 0}, scene, unit,
			[]*kcl.Plane{scene.Static().Plane(0)})
		test.That(t, ok, test.ShouldBeFalse)
	})
}

func courseScene(t *testing.T) *Scene {
	t.Helper()
	var planes []kcl.Plane
	for x := 0.0; x < 40; x += 10 {
		for z := 0.0; z < 40; z += 10 {
			planes = append(planes,
				kcl.NewPlane(r3.Vector{X: x, Y: 0, Z: z}, r3.Vector{X: x, Y: 0, Z: z + 10}, r3.Vector{X: x + 10, Y: 0, Z: z}, 0),
				kcl.NewPlane(r3.Vector{X: x + 10, Y: 0, Z: z + 10}, r3.Vector{X: x + 10, Y: 0, Z: z}, r3.Vector{X: x, Y: 0, Z: z + 10}, 0))
		}
	}
	for z := 0.0; z < 40; z += 10 {
		planes = append(planes,
			kcl.NewPlane(r3.Vector{X: 0, Y: 0, Z: z}, r3.Vector{X: 0, Y: 10, Z: z}, r3.Vector{X: 0, Y: 0, Z: z + 10}, kcl.NewCollisionType(kcl.CategoryWall, 0)))
	}
	return staticScene(t, planes...)
}

func TestSweepProperties(t *testing.T) {
	engine := NewEngine(logging.NewTestLogger(t))
	scene := courseScene(t)
	rng := rand.New(rand.NewSource(3))

	hits := 0
	for i := 0; i < 2000; i++ {
		origin := r3.Vector{X: rng.Float64() * 40, Y: rng.Float64() * 5, Z: rng.Float64() * 40}
		dir := r3.Vector{X: rng.Float64()*10 - 5, Y: rng.Float64()*10 - 5, Z: rng.Float64()*10 - 5}
		radii := r3.Vector{X: 0.5 + rng.Float64(), Y: 0.5 + rng.Float64(), Z: 0.5 + rng.Float64()}

		hit, ok := engine.SweepEllipsoid(origin, dir, scene, radii, nil)
		if !ok {
			continue
		}
		hits++
		test.That(t, hit.T, test.ShouldBeBetweenOrEqual, 0, 1)
		test.That(t, hit.Normal.Norm(), test.ShouldAlmostEqual, 1, 1e-9)
		test.That(t, hit.PlaneNormal.Norm(), test.ShouldAlmostEqual, 1, 1e-9)
		vectorsAlmostEqual(t, hit.Center, origin.Add(dir.Mul(hit.T)), 1e-9)

		again, _ := engine.SweepEllipsoid(origin, dir, scene, radii, nil)
		test.That(t, again, test.ShouldResemble, hit)
	}
	test.That(t, hits, test.ShouldBeGreaterThan, 100)
}

func TestDynamicColliders(t *testing.T) {
	logger := logging.NewTestLogger(t)
	local := kcl.NewPlane(r3.Vector{X: -5, Y: 0, Z: -5}, r3.Vector{X: -5, Y: 0, Z: 15}, r3.Vector{X: 15, Y: 0, Z: -5}, kcl.NewCollisionType(kcl.CategoryRoad, 3))
	platform := NewPlatform([]kcl.Plane{local}, 0)
	test.That(t, platform.CollisionRadius(), test.ShouldAlmostEqual, math.Sqrt(250)+1, eps)
	platform.MoveWith(r3.Vector{X: 100, Y: 5, Z: 100})
	test.That(t, platform.Frame(), test.ShouldEqual, uint64(1))

	scene := NewScene(nil, platform)
	engine := NewEngine(logger)

	t.Run("frame reuse", func(t *testing.T) {
		hit, ok := engine.Raycast(r3.Vector{X: 100, Y: 10, Z: 100}, r3.Vector{X: 0, Y: -10, Z: 0}, scene, DefaultErrorMargin, nil)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, hit.T, test.ShouldAlmostEqual, 0.5, eps)
		vectorsAlmostEqual(t, hit.Point, r3.Vector{X: 100, Y: 5, Z: 100}, eps)
		test.That(t, hit.Source, test.ShouldEqual, platform)
		test.That(t, hit.Plane.CollisionType(), test.ShouldEqual, kcl.NewCollisionType(kcl.CategoryRoad, 3))
		test.That(t, engine.Cache().Retransforms(), test.ShouldEqual, 1)

		again, ok := engine.Raycast(r3.Vector{X: 100, Y: 10, Z: 100}, r3.Vector{X: 0, Y: -10, Z: 0}, scene, DefaultErrorMargin, nil)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, again, test.ShouldResemble, hit)
		test.That(t, engine.Cache().Retransforms(), test.ShouldEqual, 1)

		_, ok = engine.SweepEllipsoid(r3.Vector{X: 100, Y: 7, Z: 100}, r3.Vector{X: 0, Y: -4, Z: 0}, scene, r3.Vector{X: 1, Y: 1, Z: 1}, nil)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, engine.Cache().Retransforms(), test.ShouldEqual, 1)
	})

	t.Run("moved platform", func(t *testing.T) {
		before := engine.Cache().Planes(platform)[0]
		platform.MoveWith(r3.Vector{X: 0, Y: 1, Z: 0})

		hit, ok := engine.Raycast(r3.Vector{X: 100, Y: 10, Z: 100}, r3.Vector{X: 0, Y: -10, Z: 0}, scene, DefaultErrorMargin, nil)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, hit.T, test.ShouldAlmostEqual, 0.4, eps)
		test.That(t, engine.Cache().Retransforms(), test.ShouldEqual, 2)
		// cached planes keep their identity so ignore lists survive a move
		test.That(t, hit.Plane, test.ShouldEqual, before)

		_, ok = engine.Raycast(r3.Vector{X: 100, Y: 10, Z: 100}, r3.Vector{X: 0, Y: -10, Z: 0}, scene, DefaultErrorMargin, []*kcl.Plane{before})
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("rotation keeps orientation", func(t *testing.T) {
		platform.Rotate(math.Pi / 2)
		pos, yaw := platform.Pose()
		vectorsAlmostEqual(t, pos, r3.Vector{X: 100, Y: 6, Z: 100}, 1e-12)
		test.That(t, yaw, test.ShouldAlmostEqual, math.Pi/2, 1e-12)
		test.That(t, platform.Frame(), test.ShouldEqual, uint64(3))
		hit, ok := engine.Raycast(r3.Vector{X: 100, Y: 10, Z: 100}, r3.Vector{X: 0, Y: -10, Z: 0}, scene, DefaultErrorMargin, nil)
		test.That(t, ok, test.ShouldBeTrue)
		vectorsAlmostEqual(t, hit.Normal, up, 1e-12)
		// local (15, 0, -5) turns onto (-5, 0, -15)
		pts := hit.Plane.Points()
		vectorsAlmostEqual(t, pts[2], r3.Vector{X: 95, Y: 6, Z: 85}, 1e-9)
	})

	t.Run("outside influence", func(t *testing.T) {
		count := engine.Cache().Retransforms()
		_, ok := engine.Raycast(r3.Vector{X: 200, Y: 10, Z: 100}, r3.Vector{X: 0, Y: -10, Z: 0}, scene, DefaultErrorMargin, nil)
		test.That(t, ok, test.ShouldBeFalse)
		test.That(t, engine.Cache().Retransforms(), test.ShouldEqual, count)
	})

	t.Run("forget and reset", func(t *testing.T) {
		test.That(t, engine.Cache().Len(), test.ShouldEqual, 1)
		engine.Cache().Forget(platform.ID())
		test.That(t, engine.Cache().Len(), test.ShouldEqual, 0)

		count := engine.Cache().Retransforms()
		engine.Cache().Planes(platform)
		test.That(t, engine.Cache().Retransforms(), test.ShouldEqual, count+1)
		engine.Cache().Reset()
		test.That(t, engine.Cache().Len(), test.ShouldEqual, 0)
	})
}

func TestTransformCacheLogging(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	cache := NewTransformCache(logger)
	platform := NewPlatform([]kcl.Plane{cornerFloor(), bigFloor()}, 50)

	cache.Planes(platform)
	cache.Planes(platform)
	test.That(t, logs.FilterMessage("retransformed collider planes").Len(), test.ShouldEqual, 1)
	test.That(t, cache.Retransforms(), test.ShouldEqual, 2)
}

func TestScene(t *testing.T) {
	a := NewPlatform([]kcl.Plane{cornerFloor()}, 1)
	b := NewPlatform([]kcl.Plane{bigFloor()}, 1)
	scene := NewScene(nil, a)

	scene.Add(b)
	scene.Add(a)
	test.That(t, len(scene.Colliders()), test.ShouldEqual, 2)
	test.That(t, scene.Static(), test.ShouldBeNil)

	test.That(t, scene.Remove(a.ID()), test.ShouldBeTrue)
	test.That(t, scene.Remove(uuid.New()), test.ShouldBeFalse)
	test.That(t, scene.Colliders(), test.ShouldResemble, []DynamicCollider{b})
}
