// Package fuzztests holds fuzz harnesses for the compiler: lexer, parser and
// the whole single-file pipeline must not panic or hang on arbitrary input.
//
// Не делает: генерацию корпусов, запись файлов.
package fuzztests
