package image

import (
	"fmt"
	"io"

	"github.com/chazu/javdin/compiler"
)

// Encode serializes prog. source names the file it came from and may be
// empty.
func Encode(prog *compiler.Program, source string) ([]byte, error) {
	h := header{
		Magic:   Magic,
		Version: Version,
		Source:  source,
		Program: encodeNode(prog),
	}
	data, err := cborEncMode.Marshal(&h)
	if err != nil {
		return nil, fmt.Errorf("image: marshal: %w", err)
	}
	return data, nil
}

// Write encodes prog to w.
func Write(w io.Writer, prog *compiler.Program, source string) error {
	data, err := Encode(prog, source)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("image: write: %w", err)
	}
	return nil
}

func toPos(p compiler.Position) pos {
	return pos{Offset: p.Offset, Line: p.Line, Column: p.Column}
}

func newNode(k kind, n compiler.Node) *node {
	span := n.Span()
	return &node{Kind: k, Start: toPos(span.Start), End: toPos(span.End)}
}

func encodeStmts(list []compiler.Stmt) []*node {
	out := make([]*node, len(list))
	for i, s := range list {
		out[i] = encodeNode(s)
	}
	return out
}

func encodeExprs(list []compiler.Expr) []*node {
	out := make([]*node, len(list))
	for i, e := range list {
		out[i] = encodeNode(e)
	}
	return out
}

// encodeBlock keeps a nil block nil instead of wrapping a typed nil.
func encodeBlock(b *compiler.Block) *node {
	if b == nil {
		return nil
	}
	return encodeNode(b)
}

func encodeNode(n compiler.Node) *node {
	if n == nil {
		return nil
	}

	switch n := n.(type) {
	case *compiler.Program:
		w := newNode(kindProgram, n)
		w.Kids = encodeStmts(n.Statements)
		return w

	case *compiler.Declaration:
		w := newNode(kindDeclaration, n)
		for i := range n.Vars {
			v := &n.Vars[i]
			vw := newNode(kindVarDef, v)
			vw.Text = v.Name
			vw.Kids = []*node{encodeNode(v.Init)}
			w.Kids = append(w.Kids, vw)
		}
		return w

	case *compiler.Assignment:
		w := newNode(kindAssignment, n)
		w.Kids = []*node{encodeNode(n.Target), encodeNode(n.Value)}
		return w

	case *compiler.If:
		w := newNode(kindIf, n)
		w.Kids = []*node{encodeNode(n.Cond), encodeBlock(n.Then), encodeBlock(n.Else)}
		return w

	case *compiler.While:
		w := newNode(kindWhile, n)
		w.Kids = []*node{encodeNode(n.Cond), encodeBlock(n.Body)}
		return w

	case *compiler.For:
		w := newNode(kindFor, n)
		w.Tag = int(n.Kind)
		w.Text = n.Var
		w.Kids = []*node{encodeNode(n.Start), encodeNode(n.End), encodeBlock(n.Body)}
		return w

	case *compiler.Return:
		w := newNode(kindReturn, n)
		w.Kids = []*node{encodeNode(n.Value)}
		return w

	case *compiler.Break:
		return newNode(kindBreak, n)

	case *compiler.Continue:
		return newNode(kindContinue, n)

	case *compiler.Print:
		w := newNode(kindPrint, n)
		w.Kids = encodeExprs(n.Exprs)
		return w

	case *compiler.Block:
		w := newNode(kindBlock, n)
		w.Kids = encodeStmts(n.Statements)
		return w

	case *compiler.ExprStmt:
		w := newNode(kindExprStmt, n)
		w.Kids = []*node{encodeNode(n.Expr)}
		return w

	case *compiler.Literal:
		w := newNode(kindLiteral, n)
		w.Tag = int(n.Kind)
		w.Int, w.Real, w.Bool, w.Text = n.Int, n.Real, n.Bool, n.Str
		return w

	case *compiler.Reference:
		w := newNode(kindReference, n)
		w.Text = n.Name
		return w

	case *compiler.BinaryOp:
		w := newNode(kindBinaryOp, n)
		w.Text = n.Op
		w.Kids = []*node{encodeNode(n.Left), encodeNode(n.Right)}
		return w

	case *compiler.UnaryOp:
		w := newNode(kindUnaryOp, n)
		w.Text = n.Op
		w.Kids = []*node{encodeNode(n.Operand)}
		return w

	case *compiler.Call:
		w := newNode(kindCall, n)
		w.Kids = append([]*node{encodeNode(n.Callee)}, encodeExprs(n.Args)...)
		return w

	case *compiler.Index:
		w := newNode(kindIndex, n)
		w.Kids = []*node{encodeNode(n.Array), encodeNode(n.Index)}
		return w

	case *compiler.ArrayLiteral:
		w := newNode(kindArrayLiteral, n)
		w.Kids = encodeExprs(n.Elements)
		return w

	case *compiler.TupleLiteral:
		w := newNode(kindTupleLiteral, n)
		for _, el := range n.Elements {
			ew := &node{Kind: kindTupleElement, Text: el.Name, Kids: []*node{encodeNode(el.Value)}}
			w.Kids = append(w.Kids, ew)
		}
		return w

	case *compiler.FuncLiteral:
		w := newNode(kindFuncLiteral, n)
		w.Names = n.Params
		w.Bool = n.IsExprBody
		if n.IsExprBody {
			w.Kids = []*node{encodeNode(n.ExprBody)}
		} else {
			w.Kids = encodeStmts(n.Body)
		}
		return w

	case *compiler.TypeCheck:
		w := newNode(kindTypeCheck, n)
		w.Tag = int(n.Type)
		w.Kids = []*node{encodeNode(n.Expr)}
		return w

	case *compiler.MemberAccess:
		w := newNode(kindMemberAccess, n)
		w.Text = n.Name
		w.Int = int64(n.Index)
		w.Bool = n.Numeric
		w.Kids = []*node{encodeNode(n.Tuple)}
		return w
	}
	panic(fmt.Sprintf("image: unknown node type %T", n))
}
