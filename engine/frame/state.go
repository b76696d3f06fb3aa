package frame

// State is the stage of the frame currently being recorded.
type State int

const (
	StateIdle State = iota
	StateShadow
	StateGeometry
	StateLighting
	StatePostProcess
	StatePresent
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateShadow:
		return "Shadow"
	case StateGeometry:
		return "Geometry"
	case StateLighting:
		return "Lighting"
	case StatePostProcess:
		return "PostProcess"
	case StatePresent:
		return "Present"
	}
	return "Unknown"
}
