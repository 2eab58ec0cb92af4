package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Лексические
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexBadNumber                Code = 1004
	LexUnterminatedChar         Code = 1005
	LexStrayTypeSuffix          Code = 1006

	// Синтаксис
	SynUnexpectedToken   Code = 2001
	SynExpectIdentifier  Code = 2002
	SynExpectType        Code = 2003
	SynExpectExpression  Code = 2004
	SynUnclosedDelimiter Code = 2005
	SynExpectItem        Code = 2006
	SynBadDecorator      Code = 2007
	SynBadPattern        Code = 2008
	SynExternWithBody    Code = 2009

	// Семантика
	SemNameResolution    Code = 3001
	SemAmbiguousMethod   Code = 3002
	SemDuplicateDecl     Code = 3003
	SemUnknownType       Code = 3004
	SemExternAssumed     Code = 3005
	SemTraitMismatch     Code = 3006
	SemUnresolvedLabel   Code = 3007
	SemUnknownMethod     Code = 3008
	SemInternal          Code = 3900
	SemInternalSyntax    Code = 3901
	SemUnsupportedTarget Code = 3902

	// Ввод-вывод
	IOLoadFileError Code = 4001
	IOWriteError    Code = 4002
	IOReadDirError  Code = 4003

	// Раскладка модулей и проект
	PrjHandWrittenCollision Code = 5001
	PrjUnresolvedCratePath  Code = 5002
	PrjManifestError        Code = 5003
	PrjCargoTomlError       Code = 5004
	PrjNoSources            Code = 5005
)

var codeDescription = map[Code]string{
	UnknownCode:                 "unknown error",
	LexUnknownChar:              "unknown character",
	LexUnterminatedString:       "unterminated string literal",
	LexUnterminatedBlockComment: "unterminated block comment",
	LexBadNumber:                "malformed number literal",
	LexUnterminatedChar:         "unterminated char literal",
	LexStrayTypeSuffix:          "stray type token after literal",
	SynUnexpectedToken:          "unexpected token",
	SynExpectIdentifier:         "expected identifier",
	SynExpectType:               "expected type",
	SynExpectExpression:         "expected expression",
	SynUnclosedDelimiter:        "unclosed delimiter",
	SynExpectItem:               "expected item",
	SynBadDecorator:             "malformed decorator",
	SynBadPattern:               "malformed pattern",
	SynExternWithBody:           "extern function with a body",
	SemNameResolution:           "unresolved name",
	SemAmbiguousMethod:          "ambiguous method",
	SemDuplicateDecl:            "duplicate declaration",
	SemUnknownType:              "unknown type",
	SemExternAssumed:            "name assumed to be extern",
	SemTraitMismatch:            "impl does not match trait",
	SemUnresolvedLabel:          "unresolved type label",
	SemUnknownMethod:            "unknown method",
	SemInternal:                 "internal invariant violated",
	SemInternalSyntax:           "generated Rust does not parse",
	SemUnsupportedTarget:        "unsupported target",
	IOLoadFileError:             "cannot read file",
	IOWriteError:                "cannot write file",
	IOReadDirError:              "cannot read directory",
	PrjHandWrittenCollision:     "hand-written file preserved",
	PrjUnresolvedCratePath:      "Cargo dependency path does not exist",
	PrjManifestError:            "invalid wj.toml",
	PrjCargoTomlError:           "invalid Cargo.toml",
	PrjNoSources:                "no .wj sources",
}

// ID returns the stable identifier printed in brackets, e.g. E3002 or W5001.
func (c Code) ID() string {
	ic := int(c)
	prefix := "E"
	switch c {
	case SemExternAssumed, SemTraitMismatch, PrjHandWrittenCollision, PrjUnresolvedCratePath:
		prefix = "W"
	}
	return fmt.Sprintf("%s%04d", prefix, ic)
}

func (c Code) Title() string {
	if desc, ok := codeDescription[c]; ok {
		return desc
	}
	return codeDescription[UnknownCode]
}

// Phase names the pipeline stage owning the code.
func (c Code) Phase() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return "lex"
	case ic >= 2000 && ic < 3000:
		return "syntax"
	case ic >= 3000 && ic < 4000:
		return "sema"
	case ic >= 4000 && ic < 5000:
		return "io"
	case ic >= 5000 && ic < 6000:
		return "project"
	}
	return "unknown"
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
