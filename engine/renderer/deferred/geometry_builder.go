package deferred

// GeometryPassBuilderOption is a functional option applied to a GeometryPass during construction.
type GeometryPassBuilderOption func(*geometryPass)

// WithGeometryWorkers sets the number of pool workers that marshal per-object blocks.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - GeometryPassBuilderOption: a function that applies the option
func WithGeometryWorkers(n int) GeometryPassBuilderOption {
	return func(g *geometryPass) {
		g.workers = max(n, 1)
	}
}
