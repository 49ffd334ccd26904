package extract

import (
	"github.com/dop251/goja/ast"

	"github.com/ytget/sigsolver/internal/jsast"
	"github.com/ytget/sigsolver/internal/shape"
)

// sigFunction matches an assigned function expression or a function
// declaration taking three parameters.
var sigFunction = shape.AnyOf{
	shape.Fields{
		"type": shape.Literal("ExpressionStatement"),
		"expression": shape.Fields{
			"type":     shape.Literal("AssignmentExpression"),
			"operator": shape.Literal("="),
			"left":     shape.Fields{"type": shape.Literal("Identifier")},
			"right": shape.Fields{
				"type":   shape.Literal("FunctionExpression"),
				"params": shape.ArrayOf{shape.Any, shape.Any, shape.Any},
			},
		},
	},
	shape.Fields{
		"type":   shape.Literal("FunctionDeclaration"),
		"params": shape.ArrayOf{shape.Any, shape.Any, shape.Any},
	},
}

var decodeCall = shape.Fields{
	"type":      shape.Literal("CallExpression"),
	"callee":    shape.Fields{"type": shape.Literal("Identifier"), "name": shape.Literal("decodeURIComponent")},
	"arguments": shape.ArrayOf{shape.Fields{"type": shape.Literal("Identifier")}},
	"optional":  shape.Literal(false),
}

// sigGuard matches `a && (b = F(lit, decodeURIComponent(c)), g())`, with
// the leading literal optional. F is the signature transform.
var sigGuard = shape.Fields{
	"type": shape.Literal("ExpressionStatement"),
	"expression": shape.Fields{
		"type":     shape.Literal("LogicalExpression"),
		"operator": shape.Literal("&&"),
		"left":     shape.Fields{"type": shape.Literal("Identifier")},
		"right": shape.Fields{
			"type": shape.Literal("SequenceExpression"),
			"expressions": shape.ArrayOf{
				shape.Fields{
					"type":     shape.Literal("AssignmentExpression"),
					"operator": shape.Literal("="),
					"left":     shape.Fields{"type": shape.Literal("Identifier")},
					"right": shape.Fields{
						"type":   shape.Literal("CallExpression"),
						"callee": shape.Fields{"type": shape.Literal("Identifier")},
						"arguments": shape.AnyOf{
							shape.ArrayOf{shape.Fields{"type": shape.Literal("Literal")}, decodeCall},
							shape.ArrayOf{decodeCall},
						},
						"optional": shape.Literal(false),
					},
				},
				shape.Fields{"type": shape.Literal("CallExpression")},
			},
		},
	},
}

// ExtractSig returns the signature transform stmt guards, or nil.
func ExtractSig(stmt jsast.Node) *Function {
	if !shape.Match(stmt, sigFunction) {
		return nil
	}
	_, body := functionBody(stmt.Raw(), 3)
	guard := secondToLast(body)
	if guard == nil || !shape.Match(stmt.Wrap(guard), sigGuard) {
		return nil
	}
	call := guardCall(guard)
	if call == nil {
		return nil
	}
	callee, ok := call.Callee.(*ast.Identifier)
	if !ok {
		return nil
	}
	fn := &Function{Family: Sig, Name: callee.Name.String()}
	if len(call.ArgumentList) == 2 {
		fn.Lead = call.ArgumentList[0]
		fn.LeadSource = stmt.Wrap(fn.Lead).Source()
	}
	return fn
}

// guardCall digs the transform call out of a matched guard statement.
func guardCall(guard ast.Statement) *ast.CallExpression {
	es, ok := guard.(*ast.ExpressionStatement)
	if !ok {
		return nil
	}
	logical, ok := es.Expression.(*ast.BinaryExpression)
	if !ok {
		return nil
	}
	seq, ok := logical.Right.(*ast.SequenceExpression)
	if !ok || len(seq.Sequence) == 0 {
		return nil
	}
	assign, ok := seq.Sequence[0].(*ast.AssignExpression)
	if !ok {
		return nil
	}
	call, _ := assign.Right.(*ast.CallExpression)
	return call
}
