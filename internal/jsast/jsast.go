// Package jsast parses player scripts with goja's parser and exposes the
// resulting tree in ESTree terms, plus the unwrapped core block of a player
// bundle together with the source text of each of its statements.
package jsast

import (
	"fmt"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/file"
	"github.com/dop251/goja/parser"

	"github.com/ytget/sigsolver/errs"
)

// Program is a parsed script together with its source text.
type Program struct {
	src  string
	tree *ast.Program
}

// Parse parses src as a script. Parse failures wrap errs.ErrSyntax.
func Parse(src string) (*Program, error) {
	tree, err := parser.ParseFile(nil, "", src, 0, parser.WithDisableSourceMaps)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrSyntax, err)
	}
	return &Program{src: src, tree: tree}, nil
}

// Source returns the text the program was parsed from.
func (p *Program) Source() string { return p.src }

// Body returns the top-level statements.
func (p *Program) Body() []Node {
	out := make([]Node, len(p.tree.Body))
	for i, s := range p.tree.Body {
		out[i] = Node{raw: s, prog: p}
	}
	return out
}

// Text returns the source text covered by n.
func (p *Program) Text(n ast.Node) string {
	from, to := offset(n.Idx0()), offset(n.Idx1())
	if from < 0 || to > len(p.src) || from > to {
		return ""
	}
	return p.src[from:to]
}

// Wrap returns n as a Node of p.
func (p *Program) Wrap(n ast.Node) Node { return Node{raw: n, prog: p} }

// Block is the core block of a player bundle: the statement list of the
// immediately-invoked wrapper function.
type Block struct {
	prog  *Program
	block *ast.BlockStatement
	// skip counts leading statements removed by unwrapping.
	skip int
	// cuts[i] is the source offset where statement i of block begins;
	// the final element is the offset of the closing brace.
	cuts []int
}

// CoreBlock recognises the bundle wrapper and returns its core block.
//
// Two shapes are accepted: a single expression statement whose call
// invokes a member of a function expression, as in
// (function(){...}).call(this), and a pair of statements whose second is a
// direct call of a function expression. In the latter the function's
// first statement binds the global object and is dropped. Any other
// shape fails with errs.ErrStructure.
func (p *Program) CoreBlock() (*Block, error) {
	body := p.tree.Body
	switch len(body) {
	case 1:
		if call := callOf(body[0]); call != nil {
			var left ast.Expression
			switch callee := call.Callee.(type) {
			case *ast.DotExpression:
				left = callee.Left
			case *ast.BracketExpression:
				left = callee.Left
			}
			if fn, ok := left.(*ast.FunctionLiteral); ok && fn.Body != nil {
				return p.newBlock(fn.Body, 0), nil
			}
		}
	case 2:
		if call := callOf(body[1]); call != nil {
			if fn, ok := call.Callee.(*ast.FunctionLiteral); ok && fn.Body != nil && len(fn.Body.List) > 0 {
				return p.newBlock(fn.Body, 1), nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %d top-level statements", errs.ErrStructure, len(body))
}

func callOf(s ast.Statement) *ast.CallExpression {
	es, ok := s.(*ast.ExpressionStatement)
	if !ok {
		return nil
	}
	call, _ := es.Expression.(*ast.CallExpression)
	return call
}

func (p *Program) newBlock(b *ast.BlockStatement, skip int) *Block {
	return &Block{prog: p, block: b, skip: skip, cuts: p.cuts(b)}
}

// Program returns the program the block belongs to.
func (b *Block) Program() *Program { return b.prog }

// Len returns the number of core statements.
func (b *Block) Len() int { return len(b.block.List) - b.skip }

// Statement returns core statement i.
func (b *Block) Statement(i int) Node {
	return Node{raw: b.block.List[b.skip+i], prog: b.prog}
}

// StatementText returns the source of core statement i, including any
// parentheses or terminator that belong to it.
func (b *Block) StatementText(i int) string {
	j := b.skip + i
	return b.prog.src[b.cuts[j]:b.cuts[j+1]]
}

// Prefix returns the source preceding the core statements, up to and
// including the opening brace of the wrapper body.
func (b *Block) Prefix() string { return b.prog.src[:offset(b.block.LeftBrace)+1] }

// Suffix returns the source from the closing brace of the wrapper body to
// the end of the script.
func (b *Block) Suffix() string { return b.prog.src[offset(b.block.RightBrace):] }

// cuts computes statement boundaries of b. Between two statements the
// closing parentheses and semicolon belong to the first and the opening
// parentheses to the second, since goja positions exclude both.
func (p *Program) cuts(b *ast.BlockStatement) []int {
	list := b.List
	cuts := make([]int, len(list)+1)
	cuts[0] = offset(b.LeftBrace) + 1
	end := offset(b.RightBrace)
	for i := 1; i < len(list); i++ {
		gapFrom := offset(list[i-1].Idx1())
		gapTo := offset(list[i].Idx0())
		if gapTo < cuts[i-1] {
			gapTo = cuts[i-1]
		}
		if gapTo > end {
			gapTo = end
		}
		if gapFrom > gapTo {
			gapFrom = gapTo
		}
		if gapFrom < cuts[i-1] {
			gapFrom = cuts[i-1]
		}
		cuts[i] = splitGap(p.src, gapFrom, gapTo)
	}
	cuts[len(list)] = end
	return cuts
}

// splitGap returns the offset just past the last ')' or ';' between from
// and to, skipping comments, or from when there is none.
func splitGap(src string, from, to int) int {
	cut := from
	for i := from; i < to; i++ {
		switch src[i] {
		case ')', ';':
			cut = i + 1
		case '/':
			if i+1 >= to {
				continue
			}
			switch src[i+1] {
			case '/':
				for i < to && src[i] != '\n' {
					i++
				}
			case '*':
				i += 2
				for i+1 < to && (src[i] != '*' || src[i+1] != '/') {
					i++
				}
				i++
			}
		}
	}
	return cut
}

// offset converts a 1-based goja position into a byte offset.
func offset(idx file.Idx) int { return int(idx) - 1 }
