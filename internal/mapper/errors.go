package mapper

import "fmt"

// UnresolvedTypeError reports a referenced type with no mapping in the
// built-in or user-defined registries. Only raised in strict mode; lenient
// runs drop the column instead.
type UnresolvedTypeError struct {
	TypeName string
}

func (e *UnresolvedTypeError) Error() string {
	return fmt.Sprintf("%s is an invalid schema type", e.TypeName)
}

// RecursionLimitError reports a traversal exceeding the depth ceiling. It is
// always fatal: it signals a malformed or unexpectedly deep type structure,
// never a condition to truncate silently.
type RecursionLimitError struct {
	Limit int
}

func (e *RecursionLimitError) Error() string {
	return fmt.Sprintf("maximum recursion depth %d exceeded", e.Limit)
}
