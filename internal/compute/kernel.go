package compute

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// MaxRank is the largest supported dispatch rank.
const MaxRank = 3

// Kernel is a compiled program entry point together with its per-dispatch
// state: the argument cursor and the global/local work sizes.
type Kernel struct {
	id      KernelID
	program ProgramID
	name    string
	drv     Driver

	arg      uint32
	rank     int
	global    [MaxRank]uintptr
	local     [MaxRank]uintptr
	setGlobal bool
	setLocal  bool
}

// ID returns the native kernel handle.
func (k *Kernel) ID() KernelID { return k.id }

// Name returns the entry point name.
func (k *Kernel) Name() string { return k.name }

// Cursor returns the index the next Bind call will use.
func (k *Kernel) Cursor() uint32 { return k.arg }

// Rank returns the dispatch rank, or 0 if no size has been declared yet.
func (k *Kernel) Rank() int { return k.rank }

// GlobalSize returns the declared global work size, or nil if none was set.
func (k *Kernel) GlobalSize() []uintptr {
	if !k.setGlobal {
		return nil
	}
	return append([]uintptr(nil), k.global[:k.rank]...)
}

// LocalSize returns the declared local work size, or nil if none was set.
func (k *Kernel) LocalSize() []uintptr {
	if !k.setLocal {
		return nil
	}
	return append([]uintptr(nil), k.local[:k.rank]...)
}

func (k *Kernel) claimRank(dims []int) error {
	rank := len(dims)
	if rank < 1 || rank > MaxRank {
		return errors.Wrapf(ErrInvalidRank, "got %d", rank)
	}
	for i, d := range dims {
		if d <= 0 {
			return errors.Wrapf(ErrInvalidWorkSize, "dimension %d is %d", i, d)
		}
	}
	if k.rank != 0 && k.rank != rank {
		return errors.Wrapf(ErrRankMismatch, "declared %d, got %d", k.rank, rank)
	}
	k.rank = rank
	return nil
}

// SetGlobalSize declares the global work size. The number of dimensions is
// the dispatch rank.
func (k *Kernel) SetGlobalSize(dims ...int) error {
	if err := k.claimRank(dims); err != nil {
		return err
	}
	for i, d := range dims {
		k.global[i] = uintptr(d)
	}
	k.setGlobal = true
	return nil
}

// SetLocalSize declares the work-group size. Its rank must agree with the
// global size.
func (k *Kernel) SetLocalSize(dims ...int) error {
	if err := k.claimRank(dims); err != nil {
		return err
	}
	for i, d := range dims {
		k.local[i] = uintptr(d)
	}
	k.setLocal = true
	return nil
}

// Release drops the kernel and its program.
func (k *Kernel) Release() error {
	if k.id == 0 {
		return nil
	}
	errK := check("clReleaseKernel", k.drv.ReleaseKernel(k.id))
	errP := check("clReleaseProgram", k.drv.ReleaseProgram(k.program))
	k.id, k.program = 0, 0
	if errK != nil {
		return errK
	}
	return errP
}

// CreateKernel compiles source for device with the given build options and
// extracts the entry point. On a compile error the full build log is printed
// and returned in a *BuildError; no kernel is returned.
func (r *Runtime) CreateKernel(device Device, ctx *Context, source, entry, options string) (*Kernel, error) {
	program, st := r.drv.CreateProgramWithSource(ctx.id, source)
	if err := check("clCreateProgramWithSource", st); err != nil {
		return nil, err
	}

	st = r.drv.BuildProgram(program, device.id, options)
	if st == BuildProgramFailure {
		log, lst := r.drv.ProgramBuildLog(program, device.id)
		r.releaseProgram(program)
		if err := check("clGetProgramBuildInfo", lst); err != nil {
			return nil, err
		}
		if r.buildLog != nil {
			fmt.Fprintln(r.buildLog, strings.TrimRight(log, "\x00\n"))
		}
		return nil, &BuildError{Log: log}
	}
	if err := check("clBuildProgram", st); err != nil {
		r.releaseProgram(program)
		return nil, err
	}

	id, st := r.drv.CreateKernel(program, entry)
	if err := check("clCreateKernel", st); err != nil {
		r.releaseProgram(program)
		return nil, err
	}
	r.log.Debugf("built kernel %q (options %q)", entry, options)
	return &Kernel{id: id, program: program, name: entry, drv: r.drv}, nil
}

// releaseProgram drops a program on a failed build path. The build error is
// what the caller gets, so a release failure is only logged.
func (r *Runtime) releaseProgram(p ProgramID) {
	if err := check("clReleaseProgram", r.drv.ReleaseProgram(p)); err != nil {
		r.log.Warnf("releasing program after failed build: %v", err)
	}
}
