package collision

import (
	"github.com/google/uuid"
	"github.com/samber/lo"

	"go.kartsim.dev/collision/kcl"
)

// World is everything a query can collide with.
type World interface {
	// Static returns the course geometry, or nil if there is none.
	Static() *kcl.Store
	Colliders() []DynamicCollider
}

// Scene is a World holding a static store and a list of dynamic colliders.
type Scene struct {
	static    *kcl.Store
	colliders []DynamicCollider
}

// NewScene returns a scene over static with the given colliders.
func NewScene(static *kcl.Store, colliders ...DynamicCollider) *Scene {
	return &Scene{static: static, colliders: colliders}
}

// Static returns the course geometry.
func (s *Scene) Static() *kcl.Store {
	return s.static
}

// Colliders returns the dynamic colliders in insertion order.
func (s *Scene) Colliders() []DynamicCollider {
	return s.colliders
}

// Add appends a collider. A collider already in the scene is replaced in place.
func (s *Scene) Add(c DynamicCollider) {
	_, idx, found := lo.FindIndexOf(s.colliders, func(existing DynamicCollider) bool {
		return existing.ID() == c.ID()
	})
	if found {
		s.colliders[idx] = c
		return
	}
	s.colliders = append(s.colliders, c)
}

// Remove drops the collider with the given id and reports whether it was present.
func (s *Scene) Remove(id uuid.UUID) bool {
	before := len(s.colliders)
	s.colliders = lo.Reject(s.colliders, func(c DynamicCollider, _ int) bool {
		return c.ID() == id
	})
	return len(s.colliders) != before
}
