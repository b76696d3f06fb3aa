package camera

// ControllerBuilderOption is a functional option applied to an orbit controller.
type ControllerBuilderOption func(*orbitController)

// WithOrbit sets the initial spherical coordinates around the target.
//
// Parameters:
//   - radius: distance from the target
//   - azimuth: horizontal angle in radians
//   - elevation: vertical angle in radians
//
// Returns:
//   - ControllerBuilderOption: a function that sets the orbit
func WithOrbit(radius, azimuth, elevation float32) ControllerBuilderOption {
	return func(cc *orbitController) {
		cc.radius = radius
		cc.azimuth = azimuth
		cc.elevation = elevation
	}
}

// WithOrbitTarget sets the orbit center.
//
// Parameters:
//   - x, y, z: the target
//
// Returns:
//   - ControllerBuilderOption: a function that sets the target
func WithOrbitTarget(x, y, z float32) ControllerBuilderOption {
	return func(cc *orbitController) {
		cc.target = [3]float32{x, y, z}
	}
}

// WithRadiusBounds clamps the zoom range.
//
// Parameters:
//   - min, max: the radius bounds
//
// Returns:
//   - ControllerBuilderOption: a function that sets the bounds
func WithRadiusBounds(min, max float32) ControllerBuilderOption {
	return func(cc *orbitController) {
		cc.minRadius = min
		cc.maxRadius = max
	}
}

// WithElevationBounds clamps the vertical orbit angle.
//
// Parameters:
//   - min, max: the elevation bounds in radians
//
// Returns:
//   - ControllerBuilderOption: a function that sets the bounds
func WithElevationBounds(min, max float32) ControllerBuilderOption {
	return func(cc *orbitController) {
		cc.minElevation = min
		cc.maxElevation = max
	}
}

// WithZoomSpeed scales Zoom deltas.
func WithZoomSpeed(speed float32) ControllerBuilderOption {
	return func(cc *orbitController) {
		cc.zoomSpeed = speed
	}
}

// WithPanSpeed scales Pan distances.
func WithPanSpeed(speed float32) ControllerBuilderOption {
	return func(cc *orbitController) {
		cc.panSpeed = speed
	}
}
