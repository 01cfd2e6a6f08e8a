package tracer

// Camera is the viewer's position and orientation. Matrix is the rotation
// derived from Alpha and Theta on the last update.
type Camera struct {
	Position Vec3
	Alpha    float32
	Theta    float32
	Matrix   Matrix
}

// Input is the accumulated control state for one frame: the per-frame
// movement in camera space and the per-frame change of both view angles.
type Input struct {
	Move           Vec3
	LookHorizontal float32
	LookVertical   float32
	Exit           bool
}

// State is everything that changes between frames.
type State struct {
	Camera Camera
	Frame  int
}

// NewState returns the initial state: camera at the origin looking down +Z.
func NewState() State {
	return State{Camera: Camera{Matrix: Identity}}
}

// Update advances prev by one frame of input. done reports that the exit
// control was triggered; next is then prev unchanged.
//
// The move step is rotated by the orientation held before this frame's
// look change is applied.
func Update(prev State, in Input) (next State, done bool) {
	if in.Exit {
		return prev, true
	}

	next = prev
	cam := &next.Camera
	cam.Matrix = RotationMatrix(cam.Alpha, cam.Theta)
	cam.Position = cam.Position.Add(cam.Matrix.Apply(in.Move))
	cam.Alpha += in.LookHorizontal
	cam.Theta += in.LookVertical
	next.Frame++
	return next, false
}
