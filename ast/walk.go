package ast

// WalkExpr calls fn on the expression, then recurses into child expressions.
// Returns true as soon as fn returns true.
func WalkExpr(e Expr, fn func(Expr) bool) bool {
	if e == nil {
		return false
	}
	if fn(e) {
		return true
	}
	switch ex := e.(type) {
	case *Index:
		return walkExprs(ex.Indices, fn)
	case *Field:
		return WalkExpr(ex.Target, fn)
	case *CallExpr:
		return walkExprs(ex.Args, fn)
	case *Binary:
		return WalkExpr(ex.Left, fn) || WalkExpr(ex.Right, fn)
	case *Unary:
		return WalkExpr(ex.Operand, fn)
	case *Paren:
		return WalkExpr(ex.Inner, fn)
	}
	return false
}

func walkExprs(es []Expr, fn func(Expr) bool) bool {
	for _, e := range es {
		if WalkExpr(e, fn) {
			return true
		}
	}
	return false
}

// WalkStatements visits every statement in pre-order, descending into
// block bodies. Returns true as soon as fn returns true.
func WalkStatements(stmts []Statement, fn func(Statement) bool) bool {
	for _, s := range stmts {
		if fn(s) {
			return true
		}
		for _, body := range Bodies(s) {
			if WalkStatements(body, fn) {
				return true
			}
		}
	}
	return false
}

// Bodies returns the nested statement lists of a block statement.
func Bodies(s Statement) [][]Statement {
	switch st := s.(type) {
	case *If:
		return [][]Statement{st.Then, st.Else}
	case *While:
		return [][]Statement{st.Body}
	case *Repeat:
		return [][]Statement{st.Body}
	case *For:
		return [][]Statement{st.Body}
	case *Case:
		out := make([][]Statement, 0, len(st.Clauses)+1)
		for _, c := range st.Clauses {
			out = append(out, c.Body)
		}
		if st.Otherwise != nil {
			out = append(out, st.Otherwise.Body)
		}
		return out
	case *ProcedureDefinition:
		return [][]Statement{st.Body}
	case *FunctionDefinition:
		return [][]Statement{st.Body}
	}
	return nil
}

// StmtExprs returns the expressions a statement itself holds, not those of
// nested statements.
func StmtExprs(s Statement) []Expr {
	var out []Expr
	add := func(es ...Expr) {
		for _, e := range es {
			if e != nil {
				out = append(out, e)
			}
		}
	}
	switch st := s.(type) {
	case *Constant:
		add(st.Value)
	case *DeclareArray:
		for _, b := range st.Bounds {
			add(b.Lower, b.Upper)
		}
	case *Assignment:
		add(st.Value)
	case *AssignRecordField:
		add(st.Value)
	case *AssignArrayElement:
		add(st.Indices...)
		add(st.Value)
	case *AssignArrayRecordField:
		add(st.Indices...)
		add(st.Value)
	case *Output:
		add(st.Values...)
	case *Input:
		add(st.Target)
	case *Call:
		add(st.Args...)
	case *OpenFile:
		add(st.File)
	case *CloseFile:
		add(st.File)
	case *ReadFile:
		add(st.File, st.Target)
	case *WriteFile:
		add(st.File, st.Value)
	case *Case:
		add(st.Subject)
		for _, c := range st.Clauses {
			add(c.Values...)
			add(c.Low, c.High)
		}
	case *While:
		add(st.Cond)
	case *Repeat:
		add(st.Until)
	case *For:
		add(st.From, st.To, st.Step)
	case *Return:
		add(st.Value)
	case *If:
		add(st.Cond)
	}
	return out
}

// Calls returns the names of every function called in e, in order.
func Calls(e Expr) []string {
	var names []string
	WalkExpr(e, func(x Expr) bool {
		if c, ok := x.(*CallExpr); ok {
			names = append(names, c.Name)
		}
		return false
	})
	return names
}
