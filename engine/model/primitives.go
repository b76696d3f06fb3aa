package model

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/chewxy/math32"
)

// Sphere generates a UV sphere centered at the origin. The vertex ring of each
// stack repeats its first vertex so the seam gets its own texture coordinate.
//
// Parameters:
//   - radius: the sphere radius
//   - slices: the number of segments around the Y axis (at least 3)
//   - stacks: the number of segments from pole to pole (at least 2)
//   - color: the vertex color
//
// Returns:
//   - ImportedMesh: 2 + (stacks-1)*(slices+1) vertices and 6*slices*(stacks-1) indices
func Sphere(radius float32, slices, stacks int, color [4]float32) ImportedMesh {
	slices = max(slices, 3)
	stacks = max(stacks, 2)

	vertices := make([]GPUVertex, 0, 2+(stacks-1)*(slices+1))
	vertices = append(vertices, GPUVertex{Position: [3]float32{0, radius, 0}, Normal: [3]float32{0, 1, 0}, Color: color})

	phiStep := math32.Pi / float32(stacks)
	thetaStep := 2 * math32.Pi / float32(slices)
	for i := 1; i <= stacks-1; i++ {
		phi := float32(i) * phiStep
		for j := 0; j <= slices; j++ {
			theta := float32(j) * thetaStep
			p := [3]float32{
				radius * math32.Sin(phi) * math32.Cos(theta),
				radius * math32.Cos(phi),
				radius * math32.Sin(phi) * math32.Sin(theta),
			}
			vertices = append(vertices, GPUVertex{
				Position: p,
				Normal:   common.Normalize3(p),
				Color:    color,
				TexCoord: [2]float32{theta / (2 * math32.Pi), phi / math32.Pi},
			})
		}
	}
	vertices = append(vertices, GPUVertex{Position: [3]float32{0, -radius, 0}, Normal: [3]float32{0, -1, 0}, Color: color, TexCoord: [2]float32{0, 1}})

	indices := make([]uint32, 0, 6*slices*(stacks-1))
	for i := 1; i <= slices; i++ {
		indices = append(indices, 0, uint32(i+1), uint32(i))
	}
	base := 1
	ring := slices + 1
	for i := 0; i < stacks-2; i++ {
		for j := 0; j < slices; j++ {
			a := uint32(base + i*ring + j)
			b := uint32(base + i*ring + j + 1)
			c := uint32(base + (i+1)*ring + j)
			d := uint32(base + (i+1)*ring + j + 1)
			indices = append(indices, a, b, c, c, b, d)
		}
	}
	south := uint32(len(vertices) - 1)
	base = int(south) - ring
	for i := 0; i < slices; i++ {
		indices = append(indices, south, uint32(base+i), uint32(base+i+1))
	}

	return ImportedMesh{Name: "Sphere", Vertices: vertices, Indices: indices}
}

// Cube generates a unit cube centered at the origin with per-face normals.
//
// Parameters:
//   - color: the vertex color
//
// Returns:
//   - ImportedMesh: 24 vertices and 36 indices
func Cube(color [4]float32) ImportedMesh {
	faces := []struct {
		normal, u, v [3]float32
	}{
		{[3]float32{0, 0, 1}, [3]float32{1, 0, 0}, [3]float32{0, 1, 0}},
		{[3]float32{0, 0, -1}, [3]float32{-1, 0, 0}, [3]float32{0, 1, 0}},
		{[3]float32{1, 0, 0}, [3]float32{0, 0, -1}, [3]float32{0, 1, 0}},
		{[3]float32{-1, 0, 0}, [3]float32{0, 0, 1}, [3]float32{0, 1, 0}},
		{[3]float32{0, 1, 0}, [3]float32{1, 0, 0}, [3]float32{0, 0, -1}},
		{[3]float32{0, -1, 0}, [3]float32{1, 0, 0}, [3]float32{0, 0, 1}},
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	vertices := make([]GPUVertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range faces {
		start := uint32(len(vertices))
		center := common.Scale3(f.normal, 0.5)
		for _, c := range corners {
			p := common.Add3(center, common.Add3(common.Scale3(f.u, c[0]*0.5), common.Scale3(f.v, c[1]*0.5)))
			vertices = append(vertices, GPUVertex{
				Position: p,
				Normal:   f.normal,
				Color:    color,
				TexCoord: [2]float32{(c[0] + 1) / 2, 1 - (c[1]+1)/2},
			})
		}
		indices = append(indices, start, start+1, start+2, start, start+2, start+3)
	}
	return ImportedMesh{Name: "Cube", Vertices: vertices, Indices: indices}
}
