package editor

import (
	"github.com/google/uuid"

	"github.com/spaghettifunk/sinapsi/engine/graph"
	"github.com/spaghettifunk/sinapsi/engine/math"
)

// Within half a canvas unit the node counts as arrived and snaps exactly.
const snapDistance float32 = 0.5

/**
 * @brief Moves graph nodes smoothly toward their layout targets. When graph
 * animation is disabled in the options, nodes snap into place immediately.
 */
type GraphAnimator struct {
	options *GraphOptions
	bounds  math.Extents2D
	speed   float32
	targets map[uuid.UUID]math.Vec2
}

/**
 * @brief Creates a graph animator over the given canvas bounds.
 *
 * @param options The graph view options deciding whether movement animates.
 * @param bounds The canvas extents node targets are clamped into.
 * @param speed The fraction of the remaining distance covered per second.
 */
func NewGraphAnimator(options *GraphOptions, bounds math.Extents2D, speed float32) *GraphAnimator {
	return &GraphAnimator{
		options: options,
		bounds:  bounds,
		speed:   speed,
		targets: make(map[uuid.UUID]math.Vec2),
	}
}

// SetTarget records where the node should end up. Targets outside the canvas
// bounds are clamped onto it.
func (ga *GraphAnimator) SetTarget(nodeID uuid.UUID, target math.Vec2) {
	ga.targets[nodeID] = ga.bounds.ClampPoint(target)
}

func (ga *GraphAnimator) Target(nodeID uuid.UUID) (math.Vec2, bool) {
	target, found := ga.targets[nodeID]
	return target, found
}

func (ga *GraphAnimator) ClearTargets() {
	ga.targets = make(map[uuid.UUID]math.Vec2)
}

// Animate advances every targeted node of data by deltaTime seconds and
// reports whether any node is still on its way.
func (ga *GraphAnimator) Animate(data *graph.Data, deltaTime float64) bool {
	moving := false
	for _, node := range data.Nodes {
		target, found := ga.targets[node.ID]
		if !found {
			continue
		}

		if !ga.options.GraphAnimation() {
			node.Position = target
			delete(ga.targets, node.ID)
			continue
		}

		t := math.Clamp(ga.speed*float32(deltaTime), 0, 1)
		next := node.Position.Lerp(target, t)
		if next.Compare(target, snapDistance) {
			node.Position = target
			delete(ga.targets, node.ID)
			continue
		}
		node.Position = next
		moving = true
	}
	return moving
}
