package sqlx

// Must panics if err is non-nil.
//
// The panic can be recovered from using Recover(), allowing the helpers in
// this package to be used without per-call error handling inside driver
// implementations.
func Must(err error) {
	if err != nil {
		panic(PanicSentinel{err})
	}
}

// Recover recovers from a panic caused by Must().
//
// It is intended to be used in a defer statement. The error that caused the
// panic is assigned to *err.
func Recover(err *error) {
	if err == nil {
		panic("err must be a non-nil pointer")
	}

	switch v := recover().(type) {
	case PanicSentinel:
		*err = v.Cause
	case nil:
		return
	default:
		panic(v)
	}
}

// PanicSentinel is a wrapper value used to identify panics that are caused by
// Must().
type PanicSentinel struct {
	// Cause is the error that caused the panic.
	Cause error
}
