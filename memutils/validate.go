package memutils

// Validatable is implemented by types whose internal invariants can be
// checked on demand. DebugValidate acts on any such type.
type Validatable interface {
	Validate() error
}
