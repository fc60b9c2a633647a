package cpu

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Statement grammar, applied to a single source line after comment and
// label stripping.

// statement is either an equate or an instruction.
type statement struct {
	Pos lexer.Position

	Equate      *equate      `  @@`
	Instruction *instruction `| @@`
}

// equate: .equ NAME value
type equate struct {
	Name  string `".equ" @Ident`
	Value *value `@@`
}

// instruction: mnemonic [operand [, operand]...]
type instruction struct {
	Pos lexer.Position

	Mnemonic string     `@Ident`
	Operands []*operand `( @@ ( "," @@ )* )?`
}

// operand: #value, [value], or value.
type operand struct {
	Pos lexer.Position

	Immediate *value `  "#" @@`
	Memory    *value `| "[" @@ "]"`
	Plain     *value `| @@`
}

// value: $(expression), number, or symbol.
type value struct {
	Pos lexer.Position

	Expr   *string `  @Expr`
	Number *string `| @Number`
	Symbol *string `| @Ident`
}

var statementLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t]+`},
	{Name: "Expr", Pattern: `\$\((?:[^()]|\([^()]*\))*\)`},
	{Name: "Number", Pattern: `[-+]?(?:0[xX][0-9a-fA-F_]+|0[bB][01_]+|0[oO][0-7_]+|[0-9][0-9_]*)`},
	{Name: "Ident", Pattern: `[a-zA-Z_.][a-zA-Z0-9_.]*`},
	{Name: "Punct", Pattern: `[#\[\],]`},
})

var statementParser = participle.MustBuild[statement](
	participle.Lexer(statementLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(4),
)

// parseStatement parses the text of a single statement.
func parseStatement(text string) (stmt *statement, err error) {
	return statementParser.ParseString("", text)
}

// operandValue returns the value of an operand, and whether it is bracketed.
func (op *operand) operandValue() (val *value, memory bool) {
	switch {
	case op.Immediate != nil:
		return op.Immediate, false
	case op.Memory != nil:
		return op.Memory, true
	}
	return op.Plain, false
}
