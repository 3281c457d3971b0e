package image

import (
	"errors"
	"fmt"
	"io"

	"github.com/chazu/javdin/compiler"
)

var (
	// ErrNotImage is returned when the data does not carry the image magic.
	ErrNotImage = errors.New("image: not a javdin image")
	// ErrVersion is returned for images written by an unsupported format version.
	ErrVersion = errors.New("image: unsupported version")
)

// Image is a decoded program image.
type Image struct {
	Source  string
	Program *compiler.Program
}

// Decode deserializes an image produced by Encode.
func Decode(data []byte) (*Image, error) {
	var h header
	if err := cborDecMode.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("image: unmarshal: %w", err)
	}
	if h.Magic != Magic {
		return nil, ErrNotImage
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w %d", ErrVersion, h.Version)
	}
	if h.Program == nil || h.Program.Kind != kindProgram {
		return nil, fmt.Errorf("image: missing program")
	}

	d := &decoder{}
	prog := &compiler.Program{SpanVal: span(h.Program), Statements: d.stmts(h.Program.Kids)}
	if d.err != nil {
		return nil, d.err
	}
	return &Image{Source: h.Source, Program: prog}, nil
}

// Read decodes an image from r.
func Read(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("image: read: %w", err)
	}
	return Decode(data)
}

// decoder rebuilds a syntax tree, remembering the first structural error.
type decoder struct {
	err error
}

func (d *decoder) fail(w *node, format string, args ...interface{}) {
	if d.err == nil {
		d.err = fmt.Errorf("image: node kind %d at %d:%d: %s", w.Kind, w.Start.Line, w.Start.Column, fmt.Sprintf(format, args...))
	}
}

func span(w *node) compiler.Span {
	return compiler.Span{
		Start: compiler.Position{Offset: w.Start.Offset, Line: w.Start.Line, Column: w.Start.Column},
		End:   compiler.Position{Offset: w.End.Offset, Line: w.End.Line, Column: w.End.Column},
	}
}

// kid returns child i, failing when it is missing.
func (d *decoder) kid(w *node, i int) *node {
	if i >= len(w.Kids) || w.Kids[i] == nil {
		d.fail(w, "missing child %d", i)
		return nil
	}
	return w.Kids[i]
}

// optKid returns child i, or nil when it is absent.
func (d *decoder) optKid(w *node, i int) *node {
	if i >= len(w.Kids) {
		return nil
	}
	return w.Kids[i]
}

func (d *decoder) stmts(list []*node) []compiler.Stmt {
	out := make([]compiler.Stmt, 0, len(list))
	for _, w := range list {
		if s := d.stmt(w); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (d *decoder) exprs(list []*node) []compiler.Expr {
	out := make([]compiler.Expr, 0, len(list))
	for _, w := range list {
		if e := d.expr(w); e != nil {
			out = append(out, e)
		}
	}
	return out
}

func (d *decoder) block(w *node) *compiler.Block {
	if w == nil {
		return nil
	}
	if w.Kind != kindBlock {
		d.fail(w, "expected block")
		return nil
	}
	return &compiler.Block{SpanVal: span(w), Statements: d.stmts(w.Kids)}
}

// reqBlock decodes a block that must be present.
func (d *decoder) reqBlock(w *node, i int) *compiler.Block {
	b := d.block(d.kid(w, i))
	if b == nil {
		return &compiler.Block{SpanVal: span(w)}
	}
	return b
}

func (d *decoder) stmt(w *node) compiler.Stmt {
	if w == nil {
		if d.err == nil {
			d.err = fmt.Errorf("image: nil statement")
		}
		return nil
	}
	sp := span(w)

	switch w.Kind {
	case kindDeclaration:
		decl := &compiler.Declaration{SpanVal: sp}
		for _, vw := range w.Kids {
			if vw == nil || vw.Kind != kindVarDef {
				d.fail(w, "expected variable definition")
				return nil
			}
			decl.Vars = append(decl.Vars, compiler.VarDef{
				SpanVal: span(vw),
				Name:    vw.Text,
				Init:    d.optExpr(d.optKid(vw, 0)),
			})
		}
		return decl

	case kindAssignment:
		return &compiler.Assignment{SpanVal: sp, Target: d.expr(d.kid(w, 0)), Value: d.expr(d.kid(w, 1))}

	case kindIf:
		return &compiler.If{
			SpanVal: sp,
			Cond:    d.expr(d.kid(w, 0)),
			Then:    d.reqBlock(w, 1),
			Else:    d.block(d.optKid(w, 2)),
		}

	case kindWhile:
		return &compiler.While{SpanVal: sp, Cond: d.expr(d.kid(w, 0)), Body: d.reqBlock(w, 1)}

	case kindFor:
		f := &compiler.For{SpanVal: sp, Kind: compiler.ForKind(w.Tag), Var: w.Text}
		switch f.Kind {
		case compiler.ForInfinite:
		case compiler.ForRange:
			f.Start, f.End = d.expr(d.kid(w, 0)), d.expr(d.kid(w, 1))
		case compiler.ForIterable:
			f.Start = d.expr(d.kid(w, 0))
		default:
			d.fail(w, "unknown loop kind %d", w.Tag)
			return nil
		}
		f.Body = d.reqBlock(w, 2)
		return f

	case kindReturn:
		return &compiler.Return{SpanVal: sp, Value: d.optExpr(d.optKid(w, 0))}

	case kindBreak:
		return &compiler.Break{SpanVal: sp}

	case kindContinue:
		return &compiler.Continue{SpanVal: sp}

	case kindPrint:
		return &compiler.Print{SpanVal: sp, Exprs: d.exprs(w.Kids)}

	case kindBlock:
		return d.block(w)

	case kindExprStmt:
		return &compiler.ExprStmt{SpanVal: sp, Expr: d.expr(d.kid(w, 0))}
	}
	d.fail(w, "not a statement")
	return nil
}

func (d *decoder) optExpr(w *node) compiler.Expr {
	if w == nil {
		return nil
	}
	return d.expr(w)
}

// expr decodes an expression. On failure it records the error and returns
// a none literal so the caller can keep building.
func (d *decoder) expr(w *node) compiler.Expr {
	if w == nil {
		if d.err == nil {
			d.err = fmt.Errorf("image: nil expression")
		}
		return &compiler.Literal{Kind: compiler.LitNone}
	}
	sp := span(w)

	switch w.Kind {
	case kindLiteral:
		lit := &compiler.Literal{SpanVal: sp, Kind: compiler.LiteralKind(w.Tag)}
		switch lit.Kind {
		case compiler.LitInteger:
			lit.Int = w.Int
		case compiler.LitReal:
			lit.Real = w.Real
		case compiler.LitBoolean:
			lit.Bool = w.Bool
		case compiler.LitString:
			lit.Str = w.Text
		case compiler.LitNone:
		default:
			d.fail(w, "unknown literal kind %d", w.Tag)
		}
		return lit

	case kindReference:
		return &compiler.Reference{SpanVal: sp, Name: w.Text}

	case kindBinaryOp:
		return &compiler.BinaryOp{SpanVal: sp, Left: d.expr(d.kid(w, 0)), Op: w.Text, Right: d.expr(d.kid(w, 1))}

	case kindUnaryOp:
		return &compiler.UnaryOp{SpanVal: sp, Op: w.Text, Operand: d.expr(d.kid(w, 0))}

	case kindCall:
		call := &compiler.Call{SpanVal: sp, Callee: d.expr(d.kid(w, 0))}
		if len(w.Kids) > 1 {
			call.Args = d.exprs(w.Kids[1:])
		}
		return call

	case kindIndex:
		return &compiler.Index{SpanVal: sp, Array: d.expr(d.kid(w, 0)), Index: d.expr(d.kid(w, 1))}

	case kindArrayLiteral:
		return &compiler.ArrayLiteral{SpanVal: sp, Elements: d.exprs(w.Kids)}

	case kindTupleLiteral:
		tup := &compiler.TupleLiteral{SpanVal: sp}
		for _, ew := range w.Kids {
			if ew == nil || ew.Kind != kindTupleElement {
				d.fail(w, "expected tuple element")
				break
			}
			tup.Elements = append(tup.Elements, compiler.TupleElement{Name: ew.Text, Value: d.expr(d.kid(ew, 0))})
		}
		return tup

	case kindFuncLiteral:
		fn := &compiler.FuncLiteral{SpanVal: sp, Params: w.Names, IsExprBody: w.Bool}
		if fn.IsExprBody {
			fn.ExprBody = d.expr(d.kid(w, 0))
		} else {
			fn.Body = d.stmts(w.Kids)
		}
		return fn

	case kindTypeCheck:
		return &compiler.TypeCheck{SpanVal: sp, Expr: d.expr(d.kid(w, 0)), Type: compiler.TypeIndicator(w.Tag)}

	case kindMemberAccess:
		return &compiler.MemberAccess{
			SpanVal: sp,
			Tuple:   d.expr(d.kid(w, 0)),
			Name:    w.Text,
			Index:   int(w.Int),
			Numeric: w.Bool,
		}
	}
	d.fail(w, "not an expression")
	return &compiler.Literal{SpanVal: sp, Kind: compiler.LitNone}
}
