package shadow

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/chewxy/math32"
)

// Frustum describes the orthographic volume a directional shadow map covers.
type Frustum struct {
	// Extent is the half-size of the volume on the light-space X and Y axes.
	Extent float32
	// Offset moves the volume center ahead of the camera along its ground-plane forward.
	Offset float32
	// Near and Far bound the light-space depth range around the center.
	Near, Far float32
	// Resolution is the shadow map size in texels.
	Resolution int
}

// LightView returns the view matrix looking from the origin along dir.
//
// Parameters:
//   - dir: the light direction
//
// Returns:
//   - [16]float32: the rotation-only light view
func LightView(dir [3]float32) [16]float32 {
	dir = common.Normalize3(dir)
	up := [3]float32{0, 1, 0}
	if math32.Abs(common.Dot3(dir, up)) > 0.99 {
		up = [3]float32{0, 0, 1}
	}
	var view [16]float32
	common.LookAt(view[:], [3]float32{}, dir, up)
	return view
}

// Center returns the world-space point the shadow volume is centered on: the camera
// position moved offset units along the camera forward vector flattened onto the
// ground plane. A camera looking straight down keeps its own position.
//
// Parameters:
//   - cameraPos: the camera position
//   - cameraForward: the camera forward vector
//   - offset: the distance ahead of the camera
//
// Returns:
//   - [3]float32: the volume center
func Center(cameraPos, cameraForward [3]float32, offset float32) [3]float32 {
	flat := [3]float32{cameraForward[0], 0, cameraForward[2]}
	if common.LengthSq3(flat) < 1e-12 {
		return cameraPos
	}
	return common.Add3(cameraPos, common.Scale3(common.Normalize3(flat), offset))
}

// ViewProjection builds the texel-snapped light view-projection for one directional light.
//
// Parameters:
//   - dir: the light direction
//   - center: the volume center, usually from Center
//   - f: the frustum settings
//
// Returns:
//   - [16]float32: projection * view * translate(-center), snapped to whole texels
func ViewProjection(dir, center [3]float32, f Frustum) [16]float32 {
	view := LightView(dir)

	var translate, proj, vp [16]float32
	common.Translation(translate[:], -center[0], -center[1], -center[2])
	common.Ortho(proj[:], -f.Extent, f.Extent, -f.Extent, f.Extent, f.Near, f.Far)
	common.Mul4(vp[:], view[:], translate[:])
	common.Mul4(vp[:], proj[:], vp[:])

	SnapToTexel(&vp, f.Resolution)
	return vp
}

// SnapToTexel removes the sub-texel part of the translation of vp. The world origin
// is projected, scaled into texel units, rounded, and the remainder is folded back
// into the clip-space translation, so moving the camera never shifts the shadow map
// by a fraction of a texel.
//
// Parameters:
//   - vp: the light view-projection, modified in place
//   - resolution: the shadow map size in texels
func SnapToTexel(vp *[16]float32, resolution int) {
	if resolution <= 0 {
		return
	}
	half := float32(resolution) / 2
	origin := common.MulVec4(vp[:], [4]float32{0, 0, 0, 1})
	x, y := origin[0]*half, origin[1]*half
	vp[12] += (math32.Round(x) - x) / half
	vp[13] += (math32.Round(y) - y) / half
}

// TexelOrigin returns the projected world origin of vp in texel units. After
// SnapToTexel both components are whole numbers.
//
// Parameters:
//   - vp: the light view-projection
//   - resolution: the shadow map size in texels
//
// Returns:
//   - [2]float32: the origin in texels
func TexelOrigin(vp [16]float32, resolution int) [2]float32 {
	half := float32(resolution) / 2
	origin := common.MulVec4(vp[:], [4]float32{0, 0, 0, 1})
	return [2]float32{origin[0] * half, origin[1] * half}
}
