package jsast

import (
	"reflect"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"
)

// Node is a syntax node viewed through ESTree field names. It implements
// shape.Object: Field("type") yields the ESTree node type and the other
// names yield children as Node values, lists as []any, and scalars as
// string, float64, bool or nil.
type Node struct {
	raw  ast.Node
	prog *Program
}

// Raw returns the underlying goja node.
func (n Node) Raw() ast.Node { return n.raw }

// Wrap returns c as a Node of the same program.
func (n Node) Wrap(c ast.Node) Node { return Node{raw: c, prog: n.prog} }

// Source returns the source text covered by the node.
func (n Node) Source() string { return n.prog.Text(n.raw) }

// Kind returns the ESTree type name.
func (n Node) Kind() string {
	switch x := n.raw.(type) {
	case *ast.Program:
		return "Program"
	case *ast.ExpressionStatement:
		return "ExpressionStatement"
	case *ast.VariableStatement, *ast.LexicalDeclaration:
		return "VariableDeclaration"
	case *ast.Binding:
		return "VariableDeclarator"
	case *ast.FunctionDeclaration:
		return "FunctionDeclaration"
	case *ast.FunctionLiteral:
		return "FunctionExpression"
	case *ast.ArrowFunctionLiteral:
		return "ArrowFunctionExpression"
	case *ast.ClassLiteral:
		return "ClassExpression"
	case *ast.AssignExpression:
		return "AssignmentExpression"
	case *ast.BinaryExpression:
		if logical(x.Operator) {
			return "LogicalExpression"
		}
		return "BinaryExpression"
	case *ast.CallExpression:
		return "CallExpression"
	case *ast.DotExpression, *ast.BracketExpression:
		return "MemberExpression"
	case *ast.SequenceExpression:
		return "SequenceExpression"
	case *ast.Identifier:
		return "Identifier"
	case *ast.StringLiteral, *ast.NumberLiteral, *ast.BooleanLiteral, *ast.NullLiteral, *ast.RegExpLiteral:
		return "Literal"
	case *ast.ArrayLiteral:
		return "ArrayExpression"
	case *ast.ObjectLiteral:
		return "ObjectExpression"
	case *ast.PropertyKeyed, *ast.PropertyShort:
		return "Property"
	case *ast.UnaryExpression:
		if x.Operator == token.INCREMENT || x.Operator == token.DECREMENT {
			return "UpdateExpression"
		}
		return "UnaryExpression"
	case *ast.ConditionalExpression:
		return "ConditionalExpression"
	case *ast.ThisExpression:
		return "ThisExpression"
	case *ast.CatchStatement:
		return "CatchClause"
	case *ast.OptionalChain:
		return "ChainExpression"
	}
	return strings.TrimPrefix(reflect.TypeOf(n.raw).String(), "*ast.")
}

// Field implements shape.Object.
func (n Node) Field(name string) (any, bool) {
	if name == "type" {
		return n.Kind(), true
	}
	v, ok := n.fields()[name]
	return v, ok
}

func (n Node) fields() map[string]any {
	switch x := n.raw.(type) {
	case *ast.Program:
		return map[string]any{"body": n.statements(x.Body)}
	case *ast.ExpressionStatement:
		return map[string]any{"expression": n.wrap(x.Expression)}
	case *ast.VariableStatement:
		return map[string]any{"kind": "var", "declarations": n.bindings(x.List)}
	case *ast.LexicalDeclaration:
		return map[string]any{"kind": x.Token.String(), "declarations": n.bindings(x.List)}
	case *ast.Binding:
		return map[string]any{"id": n.wrap(x.Target), "init": n.wrap(x.Initializer)}
	case *ast.FunctionDeclaration:
		return n.function(x.Function)
	case *ast.FunctionLiteral:
		return n.function(x)
	case *ast.ArrowFunctionLiteral:
		f := map[string]any{"params": n.params(x.ParameterList), "async": x.Async}
		switch body := x.Body.(type) {
		case *ast.BlockStatement:
			f["body"], f["expression"] = n.wrap(body), false
		case *ast.ExpressionBody:
			f["body"], f["expression"] = n.wrap(body.Expression), true
		}
		return f
	case *ast.ClassLiteral:
		return map[string]any{"id": n.wrap(x.Name)}
	case *ast.AssignExpression:
		op := "="
		if x.Operator != token.ASSIGN {
			op = x.Operator.String() + "="
		}
		return map[string]any{"operator": op, "left": n.wrap(x.Left), "right": n.wrap(x.Right)}
	case *ast.BinaryExpression:
		return map[string]any{"operator": x.Operator.String(), "left": n.wrap(x.Left), "right": n.wrap(x.Right)}
	case *ast.CallExpression:
		callee, optional := unwrapOptional(x.Callee)
		return map[string]any{"callee": n.wrap(callee), "arguments": n.expressions(x.ArgumentList), "optional": optional}
	case *ast.NewExpression:
		return map[string]any{"callee": n.wrap(x.Callee), "arguments": n.expressions(x.ArgumentList)}
	case *ast.DotExpression:
		object, optional := unwrapOptional(x.Left)
		return map[string]any{"object": n.wrap(object), "property": n.wrap(&x.Identifier), "computed": false, "optional": optional}
	case *ast.BracketExpression:
		object, optional := unwrapOptional(x.Left)
		return map[string]any{"object": n.wrap(object), "property": n.wrap(x.Member), "computed": true, "optional": optional}
	case *ast.OptionalChain:
		return map[string]any{"expression": n.wrap(x.Expression)}
	case *ast.SequenceExpression:
		return map[string]any{"expressions": n.expressions(x.Sequence)}
	case *ast.Identifier:
		return map[string]any{"name": x.Name.String()}
	case *ast.StringLiteral:
		return map[string]any{"value": x.Value.String(), "raw": x.Literal}
	case *ast.NumberLiteral:
		return map[string]any{"value": number(x.Value), "raw": x.Literal}
	case *ast.BooleanLiteral:
		return map[string]any{"value": x.Value, "raw": x.Literal}
	case *ast.NullLiteral:
		return map[string]any{"value": nil, "raw": x.Literal}
	case *ast.RegExpLiteral:
		return map[string]any{"raw": x.Literal, "regex": map[string]any{"pattern": x.Pattern, "flags": x.Flags}}
	case *ast.ArrayLiteral:
		return map[string]any{"elements": n.expressions(x.Value)}
	case *ast.ObjectLiteral:
		props := make([]any, len(x.Value))
		for i, p := range x.Value {
			props[i] = n.wrap(p)
		}
		return map[string]any{"properties": props}
	case *ast.PropertyKeyed:
		return map[string]any{"key": n.wrap(x.Key), "value": n.wrap(x.Value), "computed": x.Computed, "kind": string(x.Kind), "shorthand": false}
	case *ast.PropertyShort:
		return map[string]any{"key": n.wrap(&x.Name), "value": n.wrap(&x.Name), "computed": false, "kind": "init", "shorthand": true}
	case *ast.UnaryExpression:
		return map[string]any{"operator": x.Operator.String(), "argument": n.wrap(x.Operand), "prefix": !x.Postfix}
	case *ast.ConditionalExpression:
		return map[string]any{"test": n.wrap(x.Test), "consequent": n.wrap(x.Consequent), "alternate": n.wrap(x.Alternate)}
	case *ast.BlockStatement:
		return map[string]any{"body": n.statements(x.List)}
	case *ast.ReturnStatement:
		return map[string]any{"argument": n.wrap(x.Argument)}
	case *ast.ThrowStatement:
		return map[string]any{"argument": n.wrap(x.Argument)}
	case *ast.IfStatement:
		return map[string]any{"test": n.wrap(x.Test), "consequent": n.wrap(x.Consequent), "alternate": n.wrap(x.Alternate)}
	case *ast.TryStatement:
		return map[string]any{"block": n.wrap(x.Body), "handler": n.wrap(x.Catch), "finalizer": n.wrap(x.Finally)}
	case *ast.CatchStatement:
		return map[string]any{"param": n.wrap(x.Parameter), "body": n.wrap(x.Body)}
	}
	return nil
}

func (n Node) function(fn *ast.FunctionLiteral) map[string]any {
	return map[string]any{
		"id":        n.wrap(fn.Name),
		"params":    n.params(fn.ParameterList),
		"body":      n.wrap(fn.Body),
		"async":     fn.Async,
		"generator": fn.Generator,
	}
}

// params renders a parameter list the ESTree way: plain bindings become
// their target and defaulted ones an AssignmentPattern.
func (n Node) params(pl *ast.ParameterList) []any {
	if pl == nil {
		return []any{}
	}
	out := make([]any, 0, len(pl.List)+1)
	for _, b := range pl.List {
		if b.Initializer == nil {
			out = append(out, n.wrap(b.Target))
			continue
		}
		out = append(out, assignmentPattern{n.wrap(b.Target), n.wrap(b.Initializer)})
	}
	if pl.Rest != nil {
		out = append(out, restElement{n.wrap(pl.Rest)})
	}
	return out
}

func (n Node) bindings(list []*ast.Binding) []any {
	out := make([]any, len(list))
	for i, b := range list {
		out[i] = n.wrap(b)
	}
	return out
}

func (n Node) statements(list []ast.Statement) []any {
	out := make([]any, len(list))
	for i, s := range list {
		out[i] = n.wrap(s)
	}
	return out
}

func (n Node) expressions(list []ast.Expression) []any {
	out := make([]any, len(list))
	for i, e := range list {
		out[i] = n.wrap(e)
	}
	return out
}

// wrap returns c as a Node, or an untyped nil when c is absent.
func (n Node) wrap(c ast.Node) any {
	if isNilNode(c) {
		return nil
	}
	return Node{raw: c, prog: n.prog}
}

func isNilNode(c ast.Node) bool {
	if c == nil {
		return true
	}
	rv := reflect.ValueOf(c)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func unwrapOptional(e ast.Expression) (ast.Expression, bool) {
	if o, ok := e.(*ast.Optional); ok {
		return o.Expression, true
	}
	return e, false
}

func logical(op token.Token) bool {
	return op == token.LOGICAL_AND || op == token.LOGICAL_OR || op == token.COALESCE
}

func number(v any) any {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case float64:
		return x
	}
	return v
}

type assignmentPattern struct {
	left, right any
}

func (p assignmentPattern) Field(name string) (any, bool) {
	switch name {
	case "type":
		return "AssignmentPattern", true
	case "left":
		return p.left, true
	case "right":
		return p.right, true
	}
	return nil, false
}

type restElement struct {
	argument any
}

func (r restElement) Field(name string) (any, bool) {
	switch name {
	case "type":
		return "RestElement", true
	case "argument":
		return r.argument, true
	}
	return nil, false
}
