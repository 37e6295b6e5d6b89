package token

type Type int

const (
	Unknown Type = iota
	End
	EOF
	Int
	Ident
	AddSub
	MulDiv
	Bitwise
	IncDec
	Assign
	LParen
	RParen
)

var typeNames = map[Type]string{
	Unknown: "unknown",
	End:     "end-of-statement",
	EOF:     "end-of-stream",
	Int:     "integer",
	Ident:   "identifier",
	AddSub:  "additive operator",
	MulDiv:  "multiplicative operator",
	Bitwise: "bitwise operator",
	IncDec:  "increment/decrement",
	Assign:  "'='",
	LParen:  "'('",
	RParen:  "')'",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "invalid"
}

type Token struct {
	Type   Type
	Value  string
	Line   int
	Column int
	Len    int
}

// Describe renders the token for diagnostics, preferring its text when it has any.
func (t Token) Describe() string {
	if t.Value != "" {
		return "'" + t.Value + "'"
	}
	return t.Type.String()
}
