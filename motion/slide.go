// Package motion resolves a body's motion for one tick against the collision world.
package motion

import (
	"github.com/golang/geo/r3"

	"go.kartsim.dev/collision/collision"
	"go.kartsim.dev/collision/kcl"
)

// DefaultMaxIterations bounds how many planes one call may slide across.
const DefaultMaxIterations = 10

const (
	// minMotion is the remaining motion length below which sliding stops.
	minMotion = 1e-6
	// defaultSkin keeps the body this far off a contact after each step.
	defaultSkin = 1e-3
)

// Options configure MoveAndSlide.
type Options struct {
	// Radii of the body's ellipsoid.
	Radii r3.Vector
	// MaxIterations bounds the number of sweeps. Zero means DefaultMaxIterations.
	MaxIterations int
	// Skin is the distance kept between the body and a contact. Zero means a millimeter.
	Skin float64
}

// Result is where a body ended up and what it touched on the way.
type Result struct {
	Position r3.Vector
	Contacts []collision.SweptHit
	// Iterations is the number of sweeps performed.
	Iterations int
}

// Floor returns the last contact whose surface faces upward, if any.
func (r Result) Floor() (collision.SweptHit, bool) {
	for i := len(r.Contacts) - 1; i >= 0; i-- {
		if r.Contacts[i].PlaneNormal.Y > 0 {
			return r.Contacts[i], true
		}
	}
	return collision.SweptHit{}, false
}

// MoveAndSlide moves an ellipsoid from position by motion. On each contact the body stops just
// short of it and the rest of the motion is projected onto the contact's tangent plane. A plane
// is resolved at most once per call.
func MoveAndSlide(engine *collision.Engine, world collision.World, position, motion r3.Vector, opts Options) Result {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.Skin <= 0 {
		opts.Skin = defaultSkin
	}

	res := Result{Position: position}
	var ignore []*kcl.Plane
	remaining := motion
	for res.Iterations < opts.MaxIterations && remaining.Norm() > minMotion {
		res.Iterations++
		hit, ok := engine.SweepEllipsoid(res.Position, remaining, world, opts.Radii, ignore)
		if !ok {
			res.Position = res.Position.Add(remaining)
			return res
		}
		res.Contacts = append(res.Contacts, hit)
		ignore = append(ignore, hit.Plane)

		res.Position = hit.Center.Add(hit.Normal.Mul(opts.Skin))
		remaining = remaining.Mul(1 - hit.T)
		if into := remaining.Dot(hit.Normal); into < 0 {
			remaining = remaining.Sub(hit.Normal.Mul(into))
		}
	}
	return res
}
