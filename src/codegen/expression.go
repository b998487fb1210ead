package codegen

import (
	"fmt"

	"jitc/src/ast"
	"jitc/src/symbol"
	"jitc/src/types"
	"tinygo.org/x/go-llvm"
)

// blockClosed reports whether bb already ends in a terminator instruction (a return, branch, or
// unreachable), meaning control never falls off the end of it. Checked before appending any
// instruction that assumes fallthrough, since LLVM rejects a basic block with more than one
// terminator.
func blockClosed(bb llvm.BasicBlock) bool {
	last := bb.LastInstruction()
	if last.IsNil() {
		return false
	}
	return !last.IsATerminatorInst().IsNil()
}

// haveInsertPoint reports whether the builder's current block is still open for more instructions.
// return and break close a block by emitting their own terminator; every lowering function that
// sequences more code after a sub-expression (a block's next statement, an if/while's post-branch)
// must check this before emitting, mirroring the closed/value contract original_source/backend.c's
// statement lowering threads through every call.
func (g *Generator) haveInsertPoint() bool {
	return !blockClosed(g.builder.GetInsertBlock())
}

// genExpression lowers n to a single llvm.Value, dispatching on its AST tag, over this compiler's
// full type model (tuples, arrays, data, foreign ZZ) rather than a fixed set of int/float primitives.
func (g *Generator) genExpression(n *ast.Node) (llvm.Value, error) {
	switch n.Tag {
	case ast.Int, ast.Word:
		return llvm.ConstInt(g.ctx.Int64Type(), uint64(n.Data.(int64)), true), nil
	case ast.UWord:
		return llvm.ConstInt(g.ctx.Int64Type(), uint64(n.Data.(int64)), false), nil
	case ast.Double:
		return llvm.ConstFloat(g.ctx.DoubleType(), n.Data.(float64)), nil
	case ast.Char:
		return llvm.ConstInt(g.ctx.Int32Type(), uint64(n.Data.(rune)), false), nil
	case ast.String:
		return g.builder.CreateGlobalStringPtr(n.Data.(string), ""), nil

	case ast.Binop:
		return g.genBinop(n)

	case ast.Block:
		var v llvm.Value
		var err error
		for _, c := range n.Children {
			if !g.haveInsertPoint() {
				break
			}
			v, err = g.genExpression(c)
			if err != nil {
				return llvm.Value{}, err
			}
		}
		return v, nil

	case ast.IfElseExpr:
		return g.genIfElseExpr(n)

	case ast.Tuple:
		return g.genTupleLiteral(n)

	case ast.Array, ast.ArrayConstructor:
		return g.genArrayLiteral(n)

	case ast.Ident:
		ptr, err := g.identPtr(n)
		if err != nil {
			return llvm.Value{}, err
		}
		return g.builder.CreateLoad(g.genType(n.Type), ptr, n.Sym.String()), nil

	case ast.Slot:
		return g.genSlotRead(n)

	case ast.Locn:
		return g.genLocnRead(n)

	case ast.Appl:
		return g.genAppl(n)

	case ast.Assignment:
		return g.genAssign(n)

	case ast.IfStmt:
		return g.genIfStmt(n)

	case ast.IfElseStmt:
		return g.genIfElseExpr(n)

	case ast.Then, ast.Else, ast.Do:
		var v llvm.Value
		var err error
		for _, c := range n.Children {
			if !g.haveInsertPoint() {
				break
			}
			v, err = g.genExpression(c)
			if err != nil {
				return llvm.Value{}, err
			}
		}
		return v, nil

	case ast.WhileStmt:
		return g.genWhile(n)

	case ast.Break:
		top := g.breaks.Peek()
		if top == nil {
			return llvm.Value{}, fmt.Errorf("codegen: break outside of a loop")
		}
		g.builder.CreateBr(top.(llvm.BasicBlock))
		return llvm.Value{}, nil

	case ast.Return:
		return g.genReturn(n)

	case ast.FnStmt:
		return llvm.Value{}, g.lowerFnVoid(n)

	case ast.DataStmt:
		return llvm.Value{}, nil

	default:
		return llvm.Value{}, fmt.Errorf("codegen: unhandled node tag %s", n.Tag)
	}
}

func (g *Generator) lowerFnVoid(n *ast.Node) error {
	_, err := g.lowerFn(n)
	return err
}

// genBinop lowers an operator application. If the resolved overload is foreign (ZZ arithmetic and
// comparisons), the call is routed through a runtime trampoline instead of emitting IR arithmetic
// instructions directly, since the operands' representation (an opaque ZZ pointer) is owned by Go,
// not by the IR.
func (g *Generator) genBinop(n *ast.Node) (llvm.Value, error) {
	lhs, err := g.genExpression(n.Children[0])
	if err != nil {
		return llvm.Value{}, err
	}
	rhs, err := g.genExpression(n.Children[1])
	if err != nil {
		return llvm.Value{}, err
	}
	op := n.Op().String()
	opnd := n.Children[0].Type

	if n.Resolved != nil && n.Resolved.Foreign {
		return g.genForeignCall(n.Resolved, op, []llvm.Value{lhs, rhs}, n.Type)
	}

	isFloat := opnd == types.TDouble
	isSigned := opnd != types.TUInt

	switch op {
	case "+":
		if isFloat {
			return g.builder.CreateFAdd(lhs, rhs, ""), nil
		}
		return g.builder.CreateAdd(lhs, rhs, ""), nil
	case "-":
		if isFloat {
			return g.builder.CreateFSub(lhs, rhs, ""), nil
		}
		return g.builder.CreateSub(lhs, rhs, ""), nil
	case "*":
		if isFloat {
			return g.builder.CreateFMul(lhs, rhs, ""), nil
		}
		return g.builder.CreateMul(lhs, rhs, ""), nil
	case "/":
		if isFloat {
			return g.builder.CreateFDiv(lhs, rhs, ""), nil
		}
		if isSigned {
			return g.builder.CreateSDiv(lhs, rhs, ""), nil
		}
		return g.builder.CreateUDiv(lhs, rhs, ""), nil
	case "%":
		if isSigned {
			return g.builder.CreateSRem(lhs, rhs, ""), nil
		}
		return g.builder.CreateURem(lhs, rhs, ""), nil
	case "==", "!=", "<", ">", "<=", ">=":
		if isFloat {
			return g.builder.CreateFCmp(floatPred(op), lhs, rhs, ""), nil
		}
		return g.builder.CreateICmp(intPred(op, isSigned), lhs, rhs, ""), nil
	default:
		return llvm.Value{}, fmt.Errorf("codegen: unknown operator %s", op)
	}
}

func intPred(op string, signed bool) llvm.IntPredicate {
	switch op {
	case "==":
		return llvm.IntEQ
	case "!=":
		return llvm.IntNE
	case "<":
		if signed {
			return llvm.IntSLT
		}
		return llvm.IntULT
	case ">":
		if signed {
			return llvm.IntSGT
		}
		return llvm.IntUGT
	case "<=":
		if signed {
			return llvm.IntSLE
		}
		return llvm.IntULE
	default: // ">="
		if signed {
			return llvm.IntSGE
		}
		return llvm.IntUGE
	}
}

func floatPred(op string) llvm.FloatPredicate {
	switch op {
	case "==":
		return llvm.FloatOEQ
	case "!=":
		return llvm.FloatONE
	case "<":
		return llvm.FloatOLT
	case ">":
		return llvm.FloatOGT
	case "<=":
		return llvm.FloatOLE
	default:
		return llvm.FloatOGE
	}
}

// genIfElseExpr lowers a ternary-style conditional with a join block merging both branches' values
// via a phi node, and doubles as IfElseStmt lowering (whose result value is simply discarded).
func (g *Generator) genIfElseExpr(n *ast.Node) (llvm.Value, error) {
	cond, err := g.genExpression(n.Children[0])
	if err != nil {
		return llvm.Value{}, err
	}
	fn := g.builder.GetInsertBlock().Parent()
	thenBB := llvm.AddBasicBlock(fn, "if.then")
	elseBB := llvm.AddBasicBlock(fn, "if.else")
	joinBB := llvm.AddBasicBlock(fn, "if.join")

	g.builder.CreateCondBr(cond, thenBB, elseBB)

	g.builder.SetInsertPointAtEnd(thenBB)
	thenV, err := g.genExpression(n.Children[1])
	if err != nil {
		return llvm.Value{}, err
	}
	thenEnd := g.builder.GetInsertBlock()
	thenClosed := blockClosed(thenEnd)
	if !thenClosed {
		g.builder.CreateBr(joinBB)
	}

	g.builder.SetInsertPointAtEnd(elseBB)
	elseV, err := g.genExpression(n.Children[2])
	if err != nil {
		return llvm.Value{}, err
	}
	elseEnd := g.builder.GetInsertBlock()
	elseClosed := blockClosed(elseEnd)
	if !elseClosed {
		g.builder.CreateBr(joinBB)
	}

	g.builder.SetInsertPointAtEnd(joinBB)
	if thenClosed && elseClosed {
		g.builder.CreateUnreachable()
		return llvm.Value{}, nil
	}
	if n.Type == types.TNil {
		return llvm.Value{}, nil
	}
	phi := g.builder.CreatePHI(g.genType(n.Type), "")
	var incV []llvm.Value
	var incB []llvm.BasicBlock
	if !thenClosed {
		incV = append(incV, thenV)
		incB = append(incB, thenEnd)
	}
	if !elseClosed {
		incV = append(incV, elseV)
		incB = append(incB, elseEnd)
	}
	phi.AddIncoming(incV, incB)
	return phi, nil
}

func (g *Generator) genIfStmt(n *ast.Node) (llvm.Value, error) {
	cond, err := g.genExpression(n.Children[0])
	if err != nil {
		return llvm.Value{}, err
	}
	fn := g.builder.GetInsertBlock().Parent()
	thenBB := llvm.AddBasicBlock(fn, "if.then")
	endBB := llvm.AddBasicBlock(fn, "if.end")
	g.builder.CreateCondBr(cond, thenBB, endBB)

	g.builder.SetInsertPointAtEnd(thenBB)
	if _, err := g.genExpression(n.Children[1]); err != nil {
		return llvm.Value{}, err
	}
	if g.haveInsertPoint() {
		g.builder.CreateBr(endBB)
	}

	g.builder.SetInsertPointAtEnd(endBB)
	return llvm.Value{}, nil
}

func (g *Generator) genWhile(n *ast.Node) (llvm.Value, error) {
	fn := g.builder.GetInsertBlock().Parent()
	headBB := llvm.AddBasicBlock(fn, "while.head")
	bodyBB := llvm.AddBasicBlock(fn, "while.body")
	endBB := llvm.AddBasicBlock(fn, "while.end")

	g.builder.CreateBr(headBB)
	g.builder.SetInsertPointAtEnd(headBB)
	cond, err := g.genExpression(n.Children[0])
	if err != nil {
		return llvm.Value{}, err
	}
	g.builder.CreateCondBr(cond, bodyBB, endBB)

	g.builder.SetInsertPointAtEnd(bodyBB)
	g.breaks.Push(endBB)
	if _, err := g.genExpression(n.Children[1]); err != nil {
		g.breaks.Pop()
		return llvm.Value{}, err
	}
	g.breaks.Pop()
	if g.haveInsertPoint() {
		g.builder.CreateBr(headBB)
	}

	g.builder.SetInsertPointAtEnd(endBB)
	return llvm.Value{}, nil
}

func (g *Generator) genReturn(n *ast.Node) (llvm.Value, error) {
	if len(n.Children) == 0 {
		if err := g.genDestroyScope(symbol.Symbol{}, false); err != nil {
			return llvm.Value{}, err
		}
		g.builder.CreateRetVoid()
		return llvm.Value{}, nil
	}
	v, err := g.genExpression(n.Children[0])
	if err != nil {
		return llvm.Value{}, err
	}
	retExpr := n.Children[0]
	var skip symbol.Symbol
	var hasSkip bool
	if retExpr.Tag == ast.Ident {
		skip, hasSkip = retExpr.Sym, true
	}
	if err := g.genDestroyScope(skip, hasSkip); err != nil {
		return llvm.Value{}, err
	}
	g.builder.CreateRet(v)
	return llvm.Value{}, nil
}
