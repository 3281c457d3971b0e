package compiler

// Visitor is called for each node during Inspect.
// If it returns false, the children of the node are not visited.
type Visitor func(node Node) bool

// Inspect traverses an AST in depth-first order, visiting statements in
// source order and expressions left to right.
func Inspect(node Node, v Visitor) {
	if node == nil || !v(node) {
		return
	}

	switch n := node.(type) {
	case *Program:
		inspectStmts(n.Statements, v)

	case *Block:
		inspectStmts(n.Statements, v)

	case *Declaration:
		for _, d := range n.Vars {
			if d.Init != nil {
				Inspect(d.Init, v)
			}
		}

	case *Assignment:
		Inspect(n.Target, v)
		Inspect(n.Value, v)

	case *If:
		Inspect(n.Cond, v)
		Inspect(n.Then, v)
		if n.Else != nil {
			Inspect(n.Else, v)
		}

	case *While:
		Inspect(n.Cond, v)
		Inspect(n.Body, v)

	case *For:
		if n.Start != nil {
			Inspect(n.Start, v)
		}
		if n.End != nil {
			Inspect(n.End, v)
		}
		Inspect(n.Body, v)

	case *Return:
		if n.Value != nil {
			Inspect(n.Value, v)
		}

	case *Print:
		inspectExprs(n.Exprs, v)

	case *ExprStmt:
		Inspect(n.Expr, v)

	case *BinaryOp:
		Inspect(n.Left, v)
		Inspect(n.Right, v)

	case *UnaryOp:
		Inspect(n.Operand, v)

	case *Call:
		Inspect(n.Callee, v)
		inspectExprs(n.Args, v)

	case *Index:
		Inspect(n.Array, v)
		Inspect(n.Index, v)

	case *ArrayLiteral:
		inspectExprs(n.Elements, v)

	case *TupleLiteral:
		for _, el := range n.Elements {
			Inspect(el.Value, v)
		}

	case *FuncLiteral:
		if n.IsExprBody {
			Inspect(n.ExprBody, v)
		} else {
			inspectStmts(n.Body, v)
		}

	case *TypeCheck:
		Inspect(n.Expr, v)

	case *MemberAccess:
		Inspect(n.Tuple, v)

	case *Literal, *Reference, *Break, *Continue:
		// leaves
	}
}

func inspectStmts(stmts []Stmt, v Visitor) {
	for _, s := range stmts {
		Inspect(s, v)
	}
}

func inspectExprs(exprs []Expr, v Visitor) {
	for _, e := range exprs {
		Inspect(e, v)
	}
}
