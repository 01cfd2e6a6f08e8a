package compute

import "io"

// SetAbort redirects Abort's output and exit for the duration of a test.
func SetAbort(w io.Writer, exit func(int)) (restore func()) {
	prevOut, prevExit := abortOutput, abortExit
	abortOutput, abortExit = w, exit
	return func() { abortOutput, abortExit = prevOut, prevExit }
}
