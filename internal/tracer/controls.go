package tracer

// Key is a control key, independent of the windowing library.
type Key int

const (
	KeyUnknown Key = iota
	KeyForward
	KeyBackward
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyLookUp
	KeyLookDown
	KeyLookLeft
	KeyLookRight
	KeyExit
)

// Action is a key transition.
type Action int

const (
	Press Action = iota
	Release
)

// Controls folds key transitions into an Input. Holding a key applies its
// step every frame; pressing adds the step and releasing removes it, so
// opposite keys held together cancel out.
type Controls struct {
	MoveStep float32
	LookStep float32

	in Input
}

// NewControls returns controls with the given per-frame steps.
func NewControls(moveStep, lookStep float32) *Controls {
	return &Controls{MoveStep: moveStep, LookStep: lookStep}
}

// Handle applies one key transition.
func (c *Controls) Handle(k Key, a Action) {
	if k == KeyExit {
		c.in.Exit = true
		return
	}
	sign := float32(1)
	if a == Release {
		sign = -1
	}
	m, l := sign*c.MoveStep, sign*c.LookStep

	switch k {
	case KeyForward:
		c.in.Move.Z += m
	case KeyBackward:
		c.in.Move.Z -= m
	case KeyLeft:
		c.in.Move.X -= m
	case KeyRight:
		c.in.Move.X += m
	case KeyUp:
		c.in.Move.Y += m
	case KeyDown:
		c.in.Move.Y -= m
	case KeyLookUp:
		c.in.LookVertical -= l
	case KeyLookDown:
		c.in.LookVertical += l
	case KeyLookLeft:
		c.in.LookHorizontal -= l
	case KeyLookRight:
		c.in.LookHorizontal += l
	}
}

// Input returns the current accumulated input.
func (c *Controls) Input() Input { return c.in }
