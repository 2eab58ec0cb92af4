// Package token defines lexical token kinds and trivia for WJ sources.
// Invariants:
//   - Token.Text is the exact source slice covered by Token.Span.
//   - A numeric literal owns its type suffix (0u64 is one IntLit token).
//   - Decorators are lexed as '@' (Kind: At) followed by an Ident.
//   - WJ type names (int, string, float) are identifiers; the type layer maps them.
//   - Token.NewlineBefore is set when any newline trivia precedes the token;
//     the parser uses it in place of mandatory semicolons.
package token
