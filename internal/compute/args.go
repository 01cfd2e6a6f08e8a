package compute

import (
	"unsafe"

	"github.com/pkg/errors"
)

// Arg is the set of Go types that may be bound as kernel arguments: native
// words of 1, 2, 4 or 8 bytes, and memory handles. Structures do not satisfy
// the constraint, so binding one fails to compile. int and uint are left out
// on purpose; their width does not match the OpenCL C int.
type Arg interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 |
		~float32 | ~float64 | ~uintptr
}

// Bind sets the argument at the kernel's cursor and advances the cursor.
func Bind[T Arg](k *Kernel, v T) error {
	if err := k.setArg(k.arg, unsafe.Sizeof(v), unsafe.Pointer(&v)); err != nil {
		return err
	}
	k.arg++
	return nil
}

// BindAt sets the argument at a fixed index. The cursor is not moved.
func BindAt[T Arg](k *Kernel, index uint32, v T) error {
	return k.setArg(index, unsafe.Sizeof(v), unsafe.Pointer(&v))
}

// BindBuffer binds b's memory handle at the cursor and advances it.
func (k *Kernel) BindBuffer(b *Buffer) error {
	if b.id == 0 {
		return ErrReleased
	}
	return Bind(k, b.id)
}

// BindBufferAt binds b's memory handle at a fixed index.
func (k *Kernel) BindBufferAt(index uint32, b *Buffer) error {
	if b.id == 0 {
		return ErrReleased
	}
	return BindAt(k, index, b.id)
}

// BindBytes binds a raw payload at the cursor and advances it. The payload
// size is checked against the same rule Arg enforces at compile time.
func (k *Kernel) BindBytes(payload []byte) error {
	if len(payload) == 0 {
		return errors.Wrap(ErrAggregateArg, "empty payload")
	}
	if err := k.setArg(k.arg, uintptr(len(payload)), unsafe.Pointer(&payload[0])); err != nil {
		return err
	}
	k.arg++
	return nil
}

// bindableSize reports whether size is a native word or a handle.
func bindableSize(size uintptr) bool {
	switch size {
	case 1, 2, 4, 8:
		return true
	}
	return size == HandleSize
}

func (k *Kernel) setArg(index uint32, size uintptr, value unsafe.Pointer) error {
	if k.id == 0 {
		return ErrReleased
	}
	if !bindableSize(size) {
		return errors.Wrapf(ErrAggregateArg, "argument %d has size %d", index, size)
	}
	return check("clSetKernelArg", k.drv.SetKernelArg(k.id, index, size, value))
}
