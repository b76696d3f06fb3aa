package frame

import (
	"embed"
	"io/fs"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
)

//go:embed shaders
var embedded embed.FS

// Shaders is the built-in WGSL source tree. Config.ShaderRoot replaces it with a
// directory of the same layout.
var Shaders fs.FS = mustSub(embedded, "shaders")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic("frame: failed to open embedded shaders: " + err.Error())
	}
	return sub
}

// Labels of the programs owned by the frame. Post-processing programs are loaded
// by the postprocess assembler.
const (
	ProgramGeometry    = "Geometry"
	ProgramShadow      = "Shadow"
	ProgramAmbient     = "Lighting.Ambient"
	ProgramDirectional = "Lighting.Directional"
	ProgramPoint       = "Lighting.Point"
	ProgramSkybox      = "Skybox"
)

func meshProgram(label, path string) shader.ProgramDesc {
	return shader.ProgramDesc{
		Label:      label,
		Stages:     shader.StageVertex | shader.StagePixel,
		VertexPath: path,
		PixelPath:  path,
		Layout:     renderer.VertexLayoutMesh,
	}
}

func fullscreenProgram(label, path string) shader.ProgramDesc {
	return shader.ProgramDesc{Label: label, Stages: shader.StagePixel, PixelPath: path}
}

var programDescs = []shader.ProgramDesc{
	meshProgram(ProgramShadow, "shadow.wgsl"),
	meshProgram(ProgramGeometry, "geometry.wgsl"),
	fullscreenProgram(ProgramAmbient, "lighting/ambient.wgsl"),
	fullscreenProgram(ProgramDirectional, "lighting/directional.wgsl"),
	meshProgram(ProgramPoint, "lighting/point.wgsl"),
	meshProgram(ProgramSkybox, "skybox.wgsl"),
}
