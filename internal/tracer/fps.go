package tracer

import "time"

// FrameCounter measures the instantaneous frame rate and reports it every
// Interval frames.
type FrameCounter struct {
	Interval int

	now   func() time.Time
	prev  time.Time
	frame int
}

// NewFrameCounter returns a counter reporting every interval frames. An
// interval of 0 disables reporting.
func NewFrameCounter(interval int) *FrameCounter {
	return &FrameCounter{Interval: interval, now: time.Now}
}

// Tick marks the end of a frame. It returns the frame index and the rate
// derived from the time since the previous tick, with report set when the
// caller should announce them.
func (c *FrameCounter) Tick() (frame int, fps float64, report bool) {
	cur := c.now()
	frame = c.frame
	if !c.prev.IsZero() {
		if dt := cur.Sub(c.prev).Seconds(); dt > 0 {
			fps = 1 / dt
		}
		report = c.Interval > 0 && frame%c.Interval == 0
	}
	c.prev = cur
	c.frame++
	return frame, fps, report
}
