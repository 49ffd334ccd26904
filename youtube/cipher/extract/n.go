package extract

import (
	"github.com/dop251/goja/ast"

	"github.com/ytget/sigsolver/internal/jsast"
	"github.com/ytget/sigsolver/internal/shape"
)

// nDeclaration matches `var x = [y]`, where y is the n transform.
var nDeclaration = shape.Fields{
	"type": shape.Literal("VariableDeclaration"),
	"kind": shape.Literal("var"),
	"declarations": shape.ArrayOf{shape.Fields{
		"type": shape.Literal("VariableDeclarator"),
		"id":   shape.Fields{"type": shape.Literal("Identifier")},
		"init": shape.Fields{
			"type":     shape.Literal("ArrayExpression"),
			"elements": shape.ArrayOf{shape.Fields{"type": shape.Literal("Identifier")}},
		},
	}},
}

// nCatchBody matches the body of the catch clause that guards the n
// transform: `return X[12] + Y`.
var nCatchBody = shape.ArrayOf{shape.Fields{
	"type": shape.Literal("ReturnStatement"),
	"argument": shape.Fields{
		"type":     shape.Literal("BinaryExpression"),
		"operator": shape.Literal("+"),
		"left": shape.Fields{
			"type":     shape.Literal("MemberExpression"),
			"object":   shape.Fields{"type": shape.Literal("Identifier")},
			"computed": shape.Literal(true),
			"property": shape.Fields{"type": shape.Literal("Literal")},
			"optional": shape.Literal(false),
		},
		"right": shape.Fields{"type": shape.Literal("Identifier")},
	},
}}

// ExtractN returns the n transform stmt exposes, or nil.
//
// The primary shape is a var declaration holding the transform in a
// single-element array. Failing that, a named one-parameter function whose
// second-to-last statement is a try/catch returning `X[lit] + Y` from its
// catch clause is the transform itself.
func ExtractN(stmt jsast.Node) *Function {
	if shape.Match(stmt, nDeclaration) {
		return nFromDeclaration(stmt.Raw())
	}
	return nFromCatchGuard(stmt)
}

func nFromDeclaration(raw ast.Node) *Function {
	decl, ok := raw.(*ast.VariableStatement)
	if !ok || len(decl.List) != 1 {
		return nil
	}
	arr, ok := decl.List[0].Initializer.(*ast.ArrayLiteral)
	if !ok || len(arr.Value) != 1 {
		return nil
	}
	id, ok := arr.Value[0].(*ast.Identifier)
	if !ok {
		return nil
	}
	return &Function{Family: N, Name: id.Name.String()}
}

func nFromCatchGuard(stmt jsast.Node) *Function {
	name, body := functionBody(stmt.Raw(), 1)
	if name == "" || body == nil {
		return nil
	}
	try, ok := secondToLast(body).(*ast.TryStatement)
	if !ok || try.Catch == nil || try.Catch.Body == nil {
		return nil
	}
	catchBody, _ := stmt.Wrap(try.Catch.Body).Field("body")
	if !shape.Match(catchBody, nCatchBody) {
		return nil
	}
	return &Function{Family: N, Name: name}
}
