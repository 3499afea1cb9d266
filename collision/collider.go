// Package collision answers "where along this motion does it first touch the world" for points and
// ellipsoids, against static course geometry and moving colliders such as platforms.
package collision

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"

	"go.kartsim.dev/collision/kcl"
)

// CollisionData is the collision geometry of a dynamic collider: local space planes plus the
// matrix that places them in the world. Frame must change whenever Matrix does.
type CollisionData struct {
	Matrix mgl64.Mat4
	Frame  uint64
	Planes []kcl.Plane
}

// DynamicCollider is a moving object other bodies can collide with.
type DynamicCollider interface {
	// ID identifies the collider across ticks.
	ID() uuid.UUID
	// Position is the center of the collider's influence sphere.
	Position() r3.Vector
	// CollisionRadius is the radius of the influence sphere. Queries sampled outside of it
	// ignore the collider.
	CollisionRadius() float64
	Collision() CollisionData
}

// Movable is a dynamic collider that can carry what rests on it.
type Movable interface {
	DynamicCollider
	// MoveWith moves the collider by offset.
	MoveWith(offset r3.Vector)
}

// influences reports whether p lies strictly inside the collider's influence sphere.
func influences(c DynamicCollider, p r3.Vector) bool {
	return p.Sub(c.Position()).Norm() < c.CollisionRadius()
}
