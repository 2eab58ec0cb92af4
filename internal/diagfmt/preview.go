package diagfmt

import (
	"errors"
	"fmt"
	"strings"

	"fortio.org/safecast"

	"windjammer/internal/diag"
	"windjammer/internal/source"
)

type suggestionPreview struct {
	before []string
	after  []string
}

// buildSuggestionPreview applies the replacement of s to the lines it covers.
func buildSuggestionPreview(fs *source.FileSet, s diag.Suggestion) (suggestionPreview, error) {
	if fs == nil {
		return suggestionPreview{}, errors.New("nil FileSet")
	}
	if s.Replacement == nil {
		return suggestionPreview{}, errors.New("suggestion has no replacement")
	}
	if int(s.Span.File) >= fs.Len() {
		return suggestionPreview{}, fmt.Errorf("file %d not found in FileSet", s.Span.File)
	}
	file := fs.Get(s.Span.File)

	startPos, endPos := fs.Resolve(s.Span)
	endLine := max(endPos.Line, startPos.Line)

	blockStart := lineStartOffset(file, startPos.Line)
	blockEnd := max(lineEndOffsetInclusive(file, endLine), blockStart)

	lenFileContent, err := safecast.Conv[uint32](len(file.Content))
	if err != nil {
		return suggestionPreview{}, fmt.Errorf("len file content overflow: %w", err)
	}
	blockEnd = min(blockEnd, lenFileContent)

	original := file.Content[blockStart:blockEnd]
	relStart := int(s.Span.Start) - int(blockStart)
	relEnd := int(s.Span.End) - int(blockStart)
	if relStart < 0 || relStart > len(original) {
		return suggestionPreview{}, fmt.Errorf("suggestion start %d out of range for preview block", relStart)
	}
	if relEnd < relStart || relEnd > len(original) {
		return suggestionPreview{}, fmt.Errorf("suggestion end %d out of range for preview block", relEnd)
	}

	after := make([]byte, 0, len(original)+len(*s.Replacement))
	after = append(after, original[:relStart]...)
	after = append(after, *s.Replacement...)
	after = append(after, original[relEnd:]...)

	return suggestionPreview{
		before: splitPreviewLines(original),
		after:  splitPreviewLines(after),
	}, nil
}

func splitPreviewLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	// хвостовой \n не даёт лишней пустой строки
	return strings.Split(strings.TrimRight(string(content), "\n"), "\n")
}

func lineStartOffset(f *source.File, line uint32) uint32 {
	if line <= 1 {
		return 0
	}
	idx := line - 2
	if int(idx) < len(f.LineIdx) {
		return f.LineIdx[idx] + 1
	}
	return contentLen(f)
}

func lineEndOffsetInclusive(f *source.File, line uint32) uint32 {
	if line == 0 {
		return 0
	}
	idx := line - 1
	if int(idx) < len(f.LineIdx) {
		return f.LineIdx[idx] + 1
	}
	return contentLen(f)
}

func contentLen(f *source.File) uint32 {
	n, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("len file content overflow: %w", err))
	}
	return n
}
