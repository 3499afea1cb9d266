package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"

	"go.kartsim.dev/collision/kcl"
)

// Platform is a rigid dynamic collider posed by a translation and a rotation about the y axis.
// Every pose change starts a new frame.
type Platform struct {
	id          uuid.UUID
	planes      []kcl.Plane
	radius      float64
	translation r3.Vector
	yaw         float64
	frame       uint64
	matrix      mgl64.Mat4
}

// NewPlatform creates a platform at the world origin from planes given in its local space. A
// radius of zero or less is replaced by the distance to the farthest local vertex plus one.
func NewPlatform(planes []kcl.Plane, radius float64) *Platform {
	if radius <= 0 {
		for i := range planes {
			for _, pt := range planes[i].Points() {
				radius = math.Max(radius, pt.Norm())
			}
		}
		radius++
	}
	return &Platform{
		id:     uuid.New(),
		planes: planes,
		radius: radius,
		matrix: mgl64.Ident4(),
	}
}

// ID returns the platform's identity.
func (p *Platform) ID() uuid.UUID {
	return p.id
}

// Position returns the platform's translation.
func (p *Platform) Position() r3.Vector {
	return p.translation
}

// CollisionRadius returns the influence radius around Position.
func (p *Platform) CollisionRadius() float64 {
	return p.radius
}

// Collision returns the local planes with the current pose.
func (p *Platform) Collision() CollisionData {
	return CollisionData{Matrix: p.matrix, Frame: p.frame, Planes: p.planes}
}

// Pose returns the translation and yaw in radians.
func (p *Platform) Pose() (r3.Vector, float64) {
	return p.translation, p.yaw
}

// Frame returns the current frame id.
func (p *Platform) Frame() uint64 {
	return p.frame
}

// SetPose moves the platform and starts a new frame.
func (p *Platform) SetPose(translation r3.Vector, yaw float64) {
	p.translation = translation
	p.yaw = yaw
	p.matrix = mgl64.Translate3D(translation.X, translation.Y, translation.Z).Mul4(mgl64.HomogRotate3DY(yaw))
	p.frame++
}

// MoveWith translates the platform by offset.
func (p *Platform) MoveWith(offset r3.Vector) {
	p.SetPose(p.translation.Add(offset), p.yaw)
}

// Rotate turns the platform by delta radians about its y axis.
func (p *Platform) Rotate(delta float64) {
	p.SetPose(p.translation, p.yaw+delta)
}
