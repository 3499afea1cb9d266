package collision

import (
	"github.com/golang/geo/r3"
	"github.com/samber/lo"

	"go.kartsim.dev/collision/kcl"
	"go.kartsim.dev/collision/logging"
)

// DefaultErrorMargin is the barycentric slack raycasts use to close seams between adjoining planes.
const DefaultErrorMargin = 0.0001

// Engine runs collision queries. Its only state is the transform cache of dynamic colliders, so
// an Engine must be driven from a single goroutine.
type Engine struct {
	logger logging.Logger
	cache  *TransformCache
}

// NewEngine returns an engine with an empty transform cache.
func NewEngine(logger logging.Logger) *Engine {
	return &Engine{logger: logger, cache: NewTransformCache(logger.Sublogger("cache"))}
}

// Cache returns the engine's transform cache.
func (e *Engine) Cache() *TransformCache {
	return e.cache
}

// candidateSet is a group of planes from one source. A nil source is the static world.
type candidateSet struct {
	source DynamicCollider
	planes []*kcl.Plane
}

// candidates samples the world at a single point: the static octree leaf containing it and the
// planes of every dynamic collider whose influence sphere contains it.
func (e *Engine) candidates(world World, sample r3.Vector) []candidateSet {
	var sets []candidateSet
	if static := world.Static(); static != nil {
		if planes := static.PlanesAt(sample.X, sample.Y, sample.Z); len(planes) > 0 {
			sets = append(sets, candidateSet{planes: planes})
		}
	}
	for _, c := range world.Colliders() {
		if !influences(c, sample) {
			continue
		}
		sets = append(sets, candidateSet{source: c, planes: e.cache.Planes(c)})
	}
	return sets
}

func ignored(ignore []*kcl.Plane, p *kcl.Plane) bool {
	return len(ignore) > 0 && lo.Contains(ignore, p)
}
