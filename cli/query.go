package cli

import (
	"github.com/urfave/cli/v2"

	"go.kartsim.dev/collision/collision"
	"go.kartsim.dev/collision/motion"
)

// RaycastAction casts one segment against a geometry file and prints the nearest hit.
func RaycastAction(c *cli.Context) error {
	tool, err := fromContext(c)
	if err != nil {
		return err
	}
	store, _, err := loadGeometry(c, tool)
	if err != nil {
		return err
	}
	origin, err := vectorFlag(c, queryFlagOrigin)
	if err != nil {
		return err
	}
	dir, err := vectorFlag(c, queryFlagDir)
	if err != nil {
		return err
	}
	margin := tool.conf.ErrorMargin
	if c.IsSet(queryFlagMargin) {
		margin = c.Float64(queryFlagMargin)
	}

	engine := collision.NewEngine(tool.sublogger("collision"))
	hit, ok := engine.Raycast(origin, dir, collision.NewScene(store), margin, nil)
	if !ok {
		printf(c.App.Writer, "no hit")
		return nil
	}
	printf(c.App.Writer, "hit plane %d (%s) at t=%.4f", hit.Plane.Index(), hit.Plane.CollisionType(), hit.T)
	printf(c.App.Writer, "  point  %s", formatVector(hit.Point))
	printf(c.App.Writer, "  normal %s", formatVector(hit.Normal))
	return nil
}

// SweepAction sweeps an ellipsoid against a geometry file. With --slide the whole motion is
// resolved and every contact along the way is printed.
func SweepAction(c *cli.Context) error {
	tool, err := fromContext(c)
	if err != nil {
		return err
	}
	store, _, err := loadGeometry(c, tool)
	if err != nil {
		return err
	}
	origin, err := vectorFlag(c, queryFlagOrigin)
	if err != nil {
		return err
	}
	dir, err := vectorFlag(c, queryFlagDir)
	if err != nil {
		return err
	}
	radii, err := vectorFlag(c, queryFlagRadii)
	if err != nil {
		return err
	}

	engine := collision.NewEngine(tool.sublogger("collision"))
	world := collision.NewScene(store)
	if c.Bool(queryFlagSlide) {
		res := motion.MoveAndSlide(engine, world, origin, dir, tool.conf.MotionOptions(radii))
		printf(c.App.Writer, "moved to %s in %d sweeps", formatVector(res.Position), res.Iterations)
		for _, contact := range res.Contacts {
			printSweptHit(c, contact)
		}
		if floor, ok := res.Floor(); ok {
			printf(c.App.Writer, "floor plane %d", floor.Plane.Index())
		}
		return nil
	}

	hit, ok := engine.SweepEllipsoid(origin, dir, world, radii, nil)
	if !ok {
		printf(c.App.Writer, "no hit")
		return nil
	}
	printSweptHit(c, hit)
	return nil
}

func printSweptHit(c *cli.Context, hit collision.SweptHit) {
	printf(c.App.Writer, "hit plane %d (%s) at t=%.4f", hit.Plane.Index(), hit.Plane.CollisionType(), hit.T)
	printf(c.App.Writer, "  center %s", formatVector(hit.Center))
	printf(c.App.Writer, "  point  %s", formatVector(hit.Point))
	printf(c.App.Writer, "  normal %s", formatVector(hit.Normal))
	if hit.Embedded {
		printf(c.App.Writer, "  embedded")
	}
}
