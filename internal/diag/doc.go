// Package diag defines the diagnostic model shared by every compiler pass.
//
// A Diagnostic is the compiler's CompileError: a severity (error, warning,
// note), a stable Code, a one-line message, the primary span, optional notes
// pointing at related spans, free-form help lines and suggestions carrying an
// optional literal replacement.
//
// Passes never format or print. They report through a Reporter (usually a
// BagReporter, wrapped in a DedupReporter during fixed-point analysis) and the
// driver renders the collected Bag with internal/diagfmt.
//
// Codes are grouped by phase: 1xxx lexer, 2xxx parser, 3xxx semantic analysis
// and emission, 4xxx I/O, 5xxx project layout. Warnings keep a W prefix in
// their printed ID, everything else uses E.
package diag
