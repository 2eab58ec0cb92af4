package token

// Kind represents the category of a source token.
type Kind uint8

const (
	Invalid Kind = iota
	EOF

	Ident
	IntLit
	FloatLit
	StringLit
	CharLit

	keywordsBegin
	KwFn
	KwLet
	KwMut
	KwConst
	KwStatic
	KwStruct
	KwEnum
	KwTrait
	KwImpl
	KwMatch
	KwIf
	KwElse
	KwFor
	KwIn
	KwWhile
	KwLoop
	KwReturn
	KwBreak
	KwContinue
	KwUse
	KwMod
	KwPub
	KwSelf
	KwSelfType
	KwUnsafe
	KwAs
	KwWhere
	KwType
	KwDyn
	KwExtern
	KwAsync
	KwAwait
	KwTrue
	KwFalse
	KwCrate
	KwSuper
	KwMove
	keywordsEnd

	Plus
	Minus
	Star
	Slash
	Percent
	Assign
	PlusAssign
	MinusAssign
	StarAssign
	SlashAssign
	PercentAssign
	AmpAssign
	PipeAssign
	CaretAssign
	ShlAssign
	ShrAssign
	EqEq
	Bang
	BangEq
	Lt
	LtEq
	Gt
	GtEq
	Shl
	Shr
	Amp
	Pipe
	Caret
	AndAnd
	OrOr
	Question
	Colon
	ColonColon
	Semicolon
	Comma
	Dot
	DotDot
	DotDotEq
	Arrow
	FatArrow
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	At
	Underscore
	Hash
)

var kindNames = map[Kind]string{
	Invalid:       "invalid",
	EOF:           "end of file",
	Ident:         "identifier",
	IntLit:        "integer literal",
	FloatLit:      "float literal",
	StringLit:     "string literal",
	CharLit:       "char literal",
	Plus:          "+",
	Minus:         "-",
	Star:          "*",
	Slash:         "/",
	Percent:       "%",
	Assign:        "=",
	PlusAssign:    "+=",
	MinusAssign:   "-=",
	StarAssign:    "*=",
	SlashAssign:   "/=",
	PercentAssign: "%=",
	AmpAssign:     "&=",
	PipeAssign:    "|=",
	CaretAssign:   "^=",
	ShlAssign:     "<<=",
	ShrAssign:     ">>=",
	EqEq:          "==",
	Bang:          "!",
	BangEq:        "!=",
	Lt:            "<",
	LtEq:          "<=",
	Gt:            ">",
	GtEq:          ">=",
	Shl:           "<<",
	Shr:           ">>",
	Amp:           "&",
	Pipe:          "|",
	Caret:         "^",
	AndAnd:        "&&",
	OrOr:          "||",
	Question:      "?",
	Colon:         ":",
	ColonColon:    "::",
	Semicolon:     ";",
	Comma:         ",",
	Dot:           ".",
	DotDot:        "..",
	DotDotEq:      "..=",
	Arrow:         "->",
	FatArrow:      "=>",
	LParen:        "(",
	RParen:        ")",
	LBrace:        "{",
	RBrace:        "}",
	LBracket:      "[",
	RBracket:      "]",
	At:            "@",
	Underscore:    "_",
	Hash:          "#",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	for text, kw := range keywords {
		if kw == k {
			return text
		}
	}
	return "token"
}
