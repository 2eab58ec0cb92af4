package registry

import (
	"errors"
	"fmt"
	"strings"

	"windjammer/internal/ast"
)

// ErrNotFound marks a callee the registry does not know; callers treat it as extern-assumed.
var ErrNotFound = errors.New("registry: not found")

// DuplicateError is returned when a name is registered twice in one module.
type DuplicateError struct {
	What   string
	Name   string
	Module []string
	Prev   ast.Node
}

func (e *DuplicateError) Error() string {
	if len(e.Module) == 0 {
		return fmt.Sprintf("duplicate %s `%s`", e.What, e.Name)
	}
	return fmt.Sprintf("duplicate %s `%s` in module %s", e.What, e.Name, joinModule(e.Module))
}

// AmbiguousError lists the candidates of a method call that no receiver label disambiguates.
type AmbiguousError struct {
	Method     string
	Candidates []*Signature
}

func (e *AmbiguousError) Error() string {
	keys := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		keys[i] = c.Key()
	}
	return fmt.Sprintf("ambiguous method `%s`: candidates %s", e.Method, strings.Join(keys, ", "))
}
