// Package testkit holds invariant checks used by tests.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"windjammer/internal/ast"
	"windjammer/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a parsed file:
// 1) file.Span is non-empty and within the content of sf
// 2) every item span is non-empty, points at sf and lies inside file.Span
// 3) items follow each other in source order
func CheckSpanInvariants(f *ast.File, sf *source.File) error {
	if f == nil || sf == nil {
		return fmt.Errorf("nil file")
	}
	if len(f.Items) == 0 {
		return nil
	}
	if f.Span.End <= f.Span.Start {
		return fmt.Errorf("file span is empty: %v", f.Span)
	}
	if f.Span.File != sf.ID {
		return fmt.Errorf("file span points to different file id: got=%d want=%d", f.Span.File, sf.ID)
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if f.Span.End > lenContent {
		return fmt.Errorf("file span end beyond content: %d > %d", f.Span.End, lenContent)
	}

	var prevEnd uint32
	for i, it := range f.Items {
		sp := it.Pos()
		switch {
		case sp.End <= sp.Start:
			return fmt.Errorf("item %d (%T) has an empty span %v", i, it, sp)
		case sp.File != sf.ID:
			return fmt.Errorf("item %d (%T) points to file %d", i, it, sp.File)
		case sp.Start < f.Span.Start || sp.End > f.Span.End:
			return fmt.Errorf("item %d (%T) span %v outside file span %v", i, it, sp, f.Span)
		case sp.Start < prevEnd:
			return fmt.Errorf("item %d (%T) starts at %d before the previous item ends at %d", i, it, sp.Start, prevEnd)
		}
		prevEnd = sp.End
	}
	return nil
}
