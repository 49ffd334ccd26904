// Package synth assembles the replayable player module: a fixed preamble
// of stub globals, the plain statements of the core block inside the
// original wrapper, and assignments exposing the discovered transforms on
// the _result carrier.
package synth

import (
	"fmt"
	"strings"

	"github.com/dop251/goja/ast"

	"github.com/ytget/sigsolver/errs"
	"github.com/ytget/sigsolver/internal/jsast"
	"github.com/ytget/sigsolver/youtube/cipher/extract"
)

// Carrier is the parameter name the module assigns its results to.
const Carrier = "_result"

// PreambleVersion identifies the stub set below. Bump it whenever the
// preamble changes.
const PreambleVersion = 1

// preamble stubs the globals player code touches at definition time.
// It is written in ES5 so every engine can run it.
const preamble = `globalThis.XMLHttpRequest = { prototype: {} };
var window = (function (g) {
	var w = Object.create(null);
	for (var k in g) { w[k] = g[k]; }
	return w;
})(globalThis);
window.location = {
	href: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	protocol: "https:",
	host: "www.youtube.com",
	hostname: "www.youtube.com",
	origin: "https://www.youtube.com",
	pathname: "/watch",
	search: "?v=dQw4w9WgXcQ",
	hash: "",
	toString: function () { return this.href; }
};
var document = {};
var self = globalThis;
`

// Preamble returns the stub statements prepended to every module.
func Preamble() string { return preamble }

// Module is a synthesized program. Source is the body of a function taking
// the carrier object as its only parameter.
type Module struct {
	Source          string
	PreambleVersion int
	// N and Sig are the exposed transforms, nil when the family is absent.
	N   *extract.Function
	Sig *extract.Function
	// Retained and Dropped count core statements kept and filtered out.
	Retained int
	Dropped  int
}

// AmbiguityError reports more than one structurally distinct candidate for
// a family.
type AmbiguityError struct {
	Family     extract.Family
	Candidates []string
}

// Error implements error.
func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("found %d %s function possibilities: %s",
		len(e.Candidates), e.Family, strings.Join(e.Candidates, ", "))
}

// Unwrap returns errs.ErrAmbiguous.
func (e *AmbiguityError) Unwrap() error { return errs.ErrAmbiguous }

// Synthesize parses src, extracts both families from the core block and
// builds the module. Parse and wrapper failures are returned as is.
func Synthesize(src string) (*Module, error) {
	prog, err := jsast.Parse(src)
	if err != nil {
		return nil, err
	}
	block, err := prog.CoreBlock()
	if err != nil {
		return nil, err
	}
	return Build(block, extract.Scan(block))
}

// Build assembles the module for block with the given candidates.
func Build(block *jsast.Block, found extract.Candidates) (*Module, error) {
	m := &Module{PreambleVersion: PreambleVersion}
	var err error
	if m.N, err = unique(extract.N, found.N); err != nil {
		return nil, err
	}
	if m.Sig, err = unique(extract.Sig, found.Sig); err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString(block.Prefix())
	b.WriteByte('\n')
	for i := 0; i < block.Len(); i++ {
		if !Plain(block.Statement(i).Raw()) {
			m.Dropped++
			continue
		}
		m.Retained++
		b.WriteString(block.StatementText(i))
		b.WriteString("\n;\n")
	}
	for _, fn := range []*extract.Function{m.N, m.Sig} {
		if fn == nil {
			continue
		}
		fmt.Fprintf(&b, "%s.%s = %s;\n", Carrier, fn.Family, fn.Source())
	}
	b.WriteString(block.Suffix())
	m.Source = b.String()
	return m, nil
}

// unique collapses structurally equal candidates. Zero candidates yield
// nil; more than one distinct candidate is an AmbiguityError.
func unique(family extract.Family, fns []*extract.Function) (*extract.Function, error) {
	var distinct []*extract.Function
	for _, fn := range fns {
		seen := false
		for _, d := range distinct {
			if d.Equal(fn) {
				seen = true
				break
			}
		}
		if !seen {
			distinct = append(distinct, fn)
		}
	}
	switch len(distinct) {
	case 0:
		return nil, nil
	case 1:
		return distinct[0], nil
	}
	e := &AmbiguityError{Family: family}
	for _, fn := range distinct {
		e.Candidates = append(e.Candidates, fn.Source())
	}
	return nil, e
}

// Plain reports whether a core statement survives filtering: every
// statement other than an expression statement is kept, and expression
// statements only when they are assignments or bare literals.
func Plain(stmt ast.Node) bool {
	es, ok := stmt.(*ast.ExpressionStatement)
	if !ok {
		return true
	}
	switch es.Expression.(type) {
	case *ast.AssignExpression,
		*ast.StringLiteral, *ast.NumberLiteral, *ast.BooleanLiteral, *ast.NullLiteral, *ast.RegExpLiteral:
		return true
	}
	return false
}
