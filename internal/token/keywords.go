package token

var keywords = map[string]Kind{
	"fn":       KwFn,
	"let":      KwLet,
	"mut":      KwMut,
	"const":    KwConst,
	"static":   KwStatic,
	"struct":   KwStruct,
	"enum":     KwEnum,
	"trait":    KwTrait,
	"impl":     KwImpl,
	"match":    KwMatch,
	"if":       KwIf,
	"else":     KwElse,
	"for":      KwFor,
	"in":       KwIn,
	"while":    KwWhile,
	"loop":     KwLoop,
	"return":   KwReturn,
	"break":    KwBreak,
	"continue": KwContinue,
	"use":      KwUse,
	"mod":      KwMod,
	"pub":      KwPub,
	"self":     KwSelf,
	"Self":     KwSelfType,
	"unsafe":   KwUnsafe,
	"as":       KwAs,
	"where":    KwWhere,
	"type":     KwType,
	"dyn":      KwDyn,
	"extern":   KwExtern,
	"async":    KwAsync,
	"await":    KwAwait,
	"true":     KwTrue,
	"false":    KwFalse,
	"crate":    KwCrate,
	"super":    KwSuper,
	"move":     KwMove,
}

// LookupKeyword возвращает тип и bool если это ключевое слово.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
