package postprocess

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/state"
)

// Stage is one full-screen draw: a program reading Inputs on consecutive texture
// slots and writing Output, or the graph destination when ToDestination is set.
type Stage struct {
	// Name is the display name used for debug events and dependency edges.
	Name string
	// Program is a pixel program drawn over the full-screen triangle.
	Program *shader.Program
	// Inputs are bound on texture slots 0..len(Inputs)-1 in order.
	Inputs []resource.Binding
	// Output is the render target. It is ignored when ToDestination is set.
	Output resource.Binding
	// ToDestination routes the draw into the destination passed to Graph.Render.
	ToDestination bool
	// Blend names the blend state of the draw.
	Blend string

	params renderer.Buffer
}

// StageBuilderOption is a functional option applied to a Stage during construction.
type StageBuilderOption func(*Stage)

// NewStage creates a stage writing output.
//
// Parameters:
//   - name: the display name
//   - program: the pixel program
//   - inputs: the resources read by the stage, in slot order
//   - output: the render target, or nil with ToDestination
//   - options: builder options
//
// Returns:
//   - *Stage: the stage
func NewStage(name string, program *shader.Program, inputs []resource.Binding, output resource.Binding, options ...StageBuilderOption) *Stage {
	s := &Stage{
		Name:    name,
		Program: program,
		Inputs:  inputs,
		Output:  output,
		Blend:   state.BlendDisable,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// WithBlend selects a named blend state for the stage.
//
// Parameters:
//   - name: a blend state registered in the state manager
//
// Returns:
//   - StageBuilderOption: a function that applies the option
func WithBlend(name string) StageBuilderOption {
	return func(s *Stage) {
		s.Blend = name
	}
}

// ToDestination routes the stage into the graph destination.
//
// Returns:
//   - StageBuilderOption: a function that applies the option
func ToDestination() StageBuilderOption {
	return func(s *Stage) {
		s.ToDestination = true
	}
}

// target returns the texture the stage renders into this frame.
func (s *Stage) target(dest renderer.Texture) renderer.Texture {
	if s.ToDestination {
		return dest
	}
	return s.Output.Texture()
}

// Technique is a named, ordered list of stages timed as one unit.
type Technique struct {
	Name   string
	Stages []*Stage
}

// NewTechnique creates a technique.
//
// Parameters:
//   - name: the technique name, also used as its timestamp marker
//   - stages: the stages in execution order
//
// Returns:
//   - *Technique: the technique
func NewTechnique(name string, stages ...*Stage) *Technique {
	return &Technique{Name: name, Stages: stages}
}
