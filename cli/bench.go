package cli

import (
	"math/rand"
	"time"

	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.kartsim.dev/collision/collision"
	"go.kartsim.dev/collision/kcl"
)

// benchPlatform is a 20 unit square deck in its local space.
func benchPlatform() []kcl.Plane {
	tag := kcl.NewCollisionType(kcl.CategoryRoad, 0)
	return []kcl.Plane{
		kcl.NewPlane(r3.Vector{X: -10, Z: -10}, r3.Vector{X: -10, Z: 10}, r3.Vector{X: 10, Z: -10}, tag),
		kcl.NewPlane(r3.Vector{X: 10, Z: 10}, r3.Vector{X: 10, Z: -10}, r3.Vector{X: -10, Z: 10}, tag),
	}
}

// BenchAction times random sphere sweeps inside the bounds of a geometry file. With --platform
// a moving platform is added at the center of the volume and shifted before every query, so each
// sweep near it pays for a retransform.
func BenchAction(c *cli.Context) error {
	tool, err := fromContext(c)
	if err != nil {
		return err
	}
	store, _, err := loadGeometry(c, tool)
	if err != nil {
		return err
	}
	queries := c.Int(benchFlagQueries)
	if queries <= 0 {
		return errors.Errorf("--%s must be positive", benchFlagQueries)
	}
	radius := c.Float64(benchFlagRadius)
	radii := r3.Vector{X: radius, Y: radius, Z: radius}

	engine := collision.NewEngine(tool.sublogger("collision"))
	scene := collision.NewScene(store)
	low, high := store.Bounds()
	extent := high.Sub(low)

	var platform *collision.Platform
	if c.Bool(benchFlagPlatform) {
		platform = collision.NewPlatform(benchPlatform(), 0)
		platform.SetPose(low.Add(extent.Mul(0.5)), 0)
		scene.Add(platform)
	}

	//nolint:gosec
	rng := rand.New(rand.NewSource(c.Int64(benchFlagSeed)))
	randomPoint := func() r3.Vector {
		return r3.Vector{
			X: low.X + rng.Float64()*extent.X,
			Y: low.Y + rng.Float64()*extent.Y,
			Z: low.Z + rng.Float64()*extent.Z,
		}
	}

	latencies := make(stats.Float64Data, 0, queries)
	hits := 0
	for i := 0; i < queries; i++ {
		if platform != nil {
			platform.MoveWith(r3.Vector{X: rng.Float64() - 0.5, Z: rng.Float64() - 0.5})
		}
		origin := randomPoint()
		dir := randomPoint().Sub(origin)
		start := time.Now()
		if _, ok := engine.SweepEllipsoid(origin, dir, scene, radii, nil); ok {
			hits++
		}
		latencies = append(latencies, float64(time.Since(start).Microseconds()))
	}

	mean, err := stats.Mean(latencies)
	if err != nil {
		return errors.Wrap(err, "could not summarize latencies")
	}
	p50, err := stats.Percentile(latencies, 50)
	if err != nil {
		return errors.Wrap(err, "could not summarize latencies")
	}
	p99, err := stats.Percentile(latencies, 99)
	if err != nil {
		return errors.Wrap(err, "could not summarize latencies")
	}
	maxLatency, err := stats.Max(latencies)
	if err != nil {
		return errors.Wrap(err, "could not summarize latencies")
	}

	printf(c.App.Writer, "sweeps:       %d", queries)
	printf(c.App.Writer, "hits:         %d", hits)
	printf(c.App.Writer, "mean:         %.1fus", mean)
	printf(c.App.Writer, "p50:          %.1fus", p50)
	printf(c.App.Writer, "p99:          %.1fus", p99)
	printf(c.App.Writer, "max:          %.1fus", maxLatency)
	printf(c.App.Writer, "retransforms: %d", engine.Cache().Retransforms())
	return nil
}
