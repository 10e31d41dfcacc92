// Package record defines the shared RecordRef type produced by the
// index parser and consumed by the worker pool.
package record

// Ref locates one record inside a dispatched DataWindow. Offset is
// relative to the window's base, not the DATA file: Offset+Length
// must never exceed the window's length.
type Ref struct {
	Offset uint64
	Length uint64
}
