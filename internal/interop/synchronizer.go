// Package interop brackets each kernel dispatch with the hand-over of shared
// memory between the graphics pipeline and the compute queue.
package interop

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/xupit3r/directcl/internal/compute"
	"github.com/xupit3r/directcl/internal/logging"
)

// Graphics is the graphics API side of the hand-over.
type Graphics interface {
	// Finish blocks until every previously issued graphics command has
	// completed.
	Finish() error
}

// Step identifies one stage of a dispatch.
type Step int

const (
	StepGraphicsFinish Step = iota + 1
	StepAcquire
	StepWaitAcquire
	StepRun
	StepRelease
	StepWaitRelease
)

func (s Step) String() string {
	switch s {
	case StepGraphicsFinish:
		return "graphics finish"
	case StepAcquire:
		return "acquire"
	case StepWaitAcquire:
		return "wait acquire"
	case StepRun:
		return "run kernel"
	case StepRelease:
		return "release"
	case StepWaitRelease:
		return "wait release"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// StepError reports the stage a dispatch failed at.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("interop %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Synchronizer owns the dispatch bracket for one queue and a fixed set of
// shared buffers.
type Synchronizer struct {
	gfx    Graphics
	queue  *compute.Queue
	shared []*compute.Buffer
	log    logrus.FieldLogger
}

// New returns a synchronizer handing shared between gfx and queue.
func New(gfx Graphics, queue *compute.Queue, shared ...*compute.Buffer) (*Synchronizer, error) {
	if gfx == nil || queue == nil {
		return nil, errors.New("interop: graphics and queue are required")
	}
	if len(shared) == 0 {
		return nil, errors.New("interop: at least one shared buffer is required")
	}
	for i, b := range shared {
		if !b.Shared() {
			return nil, errors.Errorf("interop: buffer %d is not shared with graphics", i)
		}
	}
	return &Synchronizer{
		gfx:    gfx,
		queue:  queue,
		shared: shared,
		log:    logging.Get(),
	}, nil
}

// SetLogger replaces the logger used for step traces.
func (s *Synchronizer) SetLogger(log logrus.FieldLogger) {
	s.log = log
}

// Dispatch runs k once with exclusive compute ownership of the shared
// buffers:
//
//	graphics finish, acquire, wait, run, release, wait
//
// Steps never run out of order and none is skipped. On nil return the
// shared buffers are back with graphics and safe to present.
func (s *Synchronizer) Dispatch(k *compute.Kernel) error {
	s.trace(StepGraphicsFinish)
	if err := s.gfx.Finish(); err != nil {
		return &StepError{Step: StepGraphicsFinish, Err: err}
	}

	s.trace(StepAcquire)
	acquired, err := s.queue.AcquireShared(s.shared...)
	if err != nil {
		return &StepError{Step: StepAcquire, Err: err}
	}
	s.trace(StepWaitAcquire)
	if err := wait(acquired); err != nil {
		return &StepError{Step: StepWaitAcquire, Err: err}
	}

	s.trace(StepRun)
	if err := s.queue.Run(k); err != nil {
		return &StepError{Step: StepRun, Err: err}
	}

	s.trace(StepRelease)
	released, err := s.queue.ReleaseShared(s.shared...)
	if err != nil {
		return &StepError{Step: StepRelease, Err: err}
	}
	s.trace(StepWaitRelease)
	if err := wait(released); err != nil {
		return &StepError{Step: StepWaitRelease, Err: err}
	}
	return nil
}

// wait blocks on ev and drops it. When the wait fails the event is still
// dropped and the wait error is returned, wrapping any release failure.
func wait(ev *compute.Event) error {
	if err := ev.Wait(); err != nil {
		if rerr := ev.Release(); rerr != nil {
			return errors.Wrapf(err, "event release also failed (%v)", rerr)
		}
		return err
	}
	return ev.Release()
}

func (s *Synchronizer) trace(step Step) {
	s.log.WithField("step", step.String()).Trace("interop")
}
