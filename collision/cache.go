package collision

import (
	"github.com/google/uuid"

	"go.kartsim.dev/collision/kcl"
	"go.kartsim.dev/collision/logging"
)

type cacheEntry struct {
	frame uint64
	valid bool
	plane kcl.Plane
}

// colliderCache holds the world space planes of one collider. Entries are allocated once per
// local plane so the pointers handed out stay stable across frames.
type colliderCache struct {
	entries []*cacheEntry
	planes  []*kcl.Plane
}

// TransformCache keeps world space copies of dynamic collider planes, keyed by collider and local
// plane index. A copy is reused while the collider reports the frame it was made for and
// rewritten whole when the frame changes. It is not safe for concurrent use.
type TransformCache struct {
	logger       logging.Logger
	colliders    map[uuid.UUID]*colliderCache
	retransforms int
}

// NewTransformCache returns an empty cache.
func NewTransformCache(logger logging.Logger) *TransformCache {
	return &TransformCache{logger: logger, colliders: map[uuid.UUID]*colliderCache{}}
}

// Planes returns the collider's planes in world space. The returned pointers stay valid and keep
// their identity until the collider is forgotten, so they can be used in ignore lists across
// frames. The slice itself is shared and must not be modified.
func (c *TransformCache) Planes(collider DynamicCollider) []*kcl.Plane {
	data := collider.Collision()
	id := collider.ID()

	cc, ok := c.colliders[id]
	if !ok {
		cc = &colliderCache{}
		c.colliders[id] = cc
	}
	for len(cc.entries) < len(data.Planes) {
		entry := &cacheEntry{}
		cc.entries = append(cc.entries, entry)
		cc.planes = append(cc.planes, &entry.plane)
	}

	updated := 0
	for i := range data.Planes {
		entry := cc.entries[i]
		if entry.valid && entry.frame == data.Frame {
			continue
		}
		entry.plane = data.Planes[i].TransformPlane(data.Matrix)
		entry.frame = data.Frame
		entry.valid = true
		updated++
	}
	if updated > 0 {
		c.retransforms += updated
		c.logger.Debugw("retransformed collider planes", "collider", id.String(), "frame", data.Frame, "planes", updated)
	}
	return cc.planes[:len(data.Planes):len(data.Planes)]
}

// Retransforms returns how many plane transforms the cache has performed.
func (c *TransformCache) Retransforms() int {
	return c.retransforms
}

// Forget drops the entries of one collider.
func (c *TransformCache) Forget(id uuid.UUID) {
	delete(c.colliders, id)
}

// Reset drops every entry.
func (c *TransformCache) Reset() {
	c.colliders = map[uuid.UUID]*colliderCache{}
}

// Len returns the number of colliders with cached planes.
func (c *TransformCache) Len() int {
	return len(c.colliders)
}
