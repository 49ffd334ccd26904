// Package extract recognises the signature and n transforms inside the core
// block of a player bundle by the shape of the surrounding code.
package extract

import (
	"fmt"

	"github.com/dop251/goja/ast"

	"github.com/ytget/sigsolver/internal/jsast"
	"github.com/ytget/sigsolver/internal/shape"
)

// Family names a transform family. The value doubles as the result slot
// the synthesized module assigns to.
type Family string

const (
	// N is the throttling parameter transform.
	N Family = "n"
	// Sig is the signature transform.
	Sig Family = "sig"
)

// Function is a discovered transform: a single-argument callable that
// forwards its argument to the named helper, optionally after a leading
// constant argument.
type Function struct {
	Family Family
	Name   string
	// Lead is the constant first argument of the original call, or nil.
	Lead ast.Expression
	// LeadSource is the source text of Lead.
	LeadSource string
}

// Equal reports whether f and o are structurally the same function.
func (f *Function) Equal(o *Function) bool {
	if f == nil || o == nil {
		return f == o
	}
	return f.Family == o.Family && f.Name == o.Name && jsast.Equal(f.Lead, o.Lead)
}

// Source renders f as a function expression.
func (f *Function) Source() string {
	arg := string(f.Family)
	if f.Lead != nil {
		return fmt.Sprintf("function(%s){return %s(%s,%s);}", arg, f.Name, f.LeadSource, arg)
	}
	return fmt.Sprintf("function(%s){return %s(%s);}", arg, f.Name, arg)
}

// String implements fmt.Stringer.
func (f *Function) String() string { return f.Source() }

// Candidates collects the matches of one scan.
type Candidates struct {
	N   []*Function
	Sig []*Function
}

// Scan tests every core statement against both families.
func Scan(b *jsast.Block) Candidates {
	var c Candidates
	for i := 0; i < b.Len(); i++ {
		stmt := b.Statement(i)
		if fn := ExtractN(stmt); fn != nil {
			c.N = append(c.N, fn)
		}
		if fn := ExtractSig(stmt); fn != nil {
			c.Sig = append(c.Sig, fn)
		}
	}
	return c
}

// Of returns the candidates of family f.
func (c Candidates) Of(f Family) []*Function {
	if f == N {
		return c.N
	}
	return c.Sig
}

// functionBody returns the name and body of a statement that declares or
// assigns a function with the given parameter count.
func functionBody(stmt ast.Node, params int) (string, *ast.BlockStatement) {
	var (
		name string
		fn   *ast.FunctionLiteral
	)
	switch x := stmt.(type) {
	case *ast.ExpressionStatement:
		assign, ok := x.Expression.(*ast.AssignExpression)
		if !ok {
			return "", nil
		}
		id, ok := assign.Left.(*ast.Identifier)
		if !ok {
			return "", nil
		}
		lit, ok := assign.Right.(*ast.FunctionLiteral)
		if !ok {
			return "", nil
		}
		name, fn = id.Name.String(), lit
	case *ast.FunctionDeclaration:
		fn = x.Function
		if fn != nil && fn.Name != nil {
			name = fn.Name.Name.String()
		}
	default:
		return "", nil
	}
	if fn == nil || fn.Body == nil || fn.ParameterList == nil || len(fn.ParameterList.List) != params {
		return "", nil
	}
	return name, fn.Body
}

// secondToLast returns the second-to-last statement of b, or nil.
func secondToLast(b *ast.BlockStatement) ast.Statement {
	if b == nil || len(b.List) < 2 {
		return nil
	}
	return b.List[len(b.List)-2]
}

var _ shape.Object = jsast.Node{}
