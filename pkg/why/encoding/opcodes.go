package encoding

import (
	"errors"
	"fmt"

	"github.com/whylang/wasmc/pkg/why/ast"
)

// OpCode is a 12-bit instruction opcode.
type OpCode uint16

// Funct is a 12-bit R-type sub-opcode.
type Funct uint16

// ErrUnknownOperator is returned when no (kind, operator, unsigned) entry
// exists in the static lookup tables.
var ErrUnknownOperator = errors.New("encoding: unknown operator for node kind")

// R-type family opcodes. Every R-type instruction picks a single opcode
// for its operator family; Funct distinguishes the operator within it.
const (
	OpRMath OpCode = iota + 1
	OpRLogic
	OpRComp
	OpRJump
	OpRMem
	OpRExt
)

// R-type arithmetic functs (OpRMath).
const (
	FnAdd Funct = iota
	FnSub
	FnMult
	FnMultU
	FnSll
	FnSrl
	FnSra
	FnMod
	FnDiv
	FnDivU
)

// R-type logic functs (OpRLogic).
const (
	FnOr Funct = iota
	FnAnd
	FnNand
	FnNor
	FnXnor
	FnXor
	FnNot
	FnLand
	FnLor
	FnLnot
)

// R-type comparison functs (OpRComp). `>=`/`>` are canonicalized to
// `<=`/`<` with operand swap before encoding, so only four functs exist.
const (
	FnSeq Funct = iota
	FnSne
	FnSlt
	FnSle
)

// R-type jump functs (OpRJump), used for register-target Jr/Jrc.
const (
	FnJr Funct = iota
	FnJrc
)

// R-type memory functs (OpRMem).
const (
	FnCopy Funct = iota
	FnLoad
	FnStore
)

// R-type extended functs (OpRExt): Sel is the conditional-select
// instruction, choosing between rs and rt into rd based on Condition.
const (
	FnSel Funct = iota
)

// rMathFuncts maps an arithmetic operator token to its funct.
var rMathFuncts = map[string]Funct{
	"+": FnAdd, "-": FnSub, "*": FnMult, "%": FnMod, "/": FnDiv,
	"<<": FnSll, ">>": FnSrl, ">>>": FnSra,
}

var rMathFunctsUnsigned = map[string]Funct{
	"*": FnMultU, "/": FnDivU,
}

var rLogicFuncts = map[string]Funct{
	"|": FnOr, "&": FnAnd, "~&": FnNand, "~|": FnNor, "~^": FnXnor,
	"^": FnXor, "~": FnNot, "&&": FnLand, "||": FnLor, "!": FnLnot,
}

// rCompFuncts maps the canonical (post-flip) comparison operators.
var rCompFuncts = map[string]Funct{
	"==": FnSeq, "!=": FnSne, "<": FnSlt, "<=": FnSle,
}

// CanonicalizeComparison implements the `>=`/`>` flip described in §4.4:
// `a >= b` becomes `b <= a`, `a > b` becomes `b < a`. Returns the
// canonical operator and whether operands must be swapped.
func CanonicalizeComparison(operator string) (canonical string, swap bool) {
	switch operator {
	case ">=":
		return "<=", true
	case ">":
		return "<", true
	default:
		return operator, false
	}
}

// LookupR resolves the (opcode, funct) pair for an R-type-family node.
func LookupR(kind ast.Kind, operator string, unsigned bool) (OpCode, Funct, error) {
	switch kind {
	case ast.KindRType:
		if unsigned {
			if fn, ok := rMathFunctsUnsigned[operator]; ok {
				return OpRMath, fn, nil
			}
		}
		if fn, ok := rMathFuncts[operator]; ok {
			return OpRMath, fn, nil
		}
		if fn, ok := rLogicFuncts[operator]; ok {
			return OpRLogic, fn, nil
		}
		return 0, 0, fmt.Errorf("%w: RType operator %q", ErrUnknownOperator, operator)
	case ast.KindCmp:
		canonical, _ := CanonicalizeComparison(operator)
		if fn, ok := rCompFuncts[canonical]; ok {
			return OpRComp, fn, nil
		}
		return 0, 0, fmt.Errorf("%w: Cmp operator %q", ErrUnknownOperator, operator)
	case ast.KindJr:
		return OpRJump, FnJr, nil
	case ast.KindJrc:
		return OpRJump, FnJrc, nil
	case ast.KindCopy:
		return OpRMem, FnCopy, nil
	case ast.KindLoad:
		return OpRMem, FnLoad, nil
	case ast.KindStore:
		return OpRMem, FnStore, nil
	case ast.KindSel:
		return OpRExt, FnSel, nil
	default:
		return 0, 0, fmt.Errorf("%w: kind %s has no R-type encoding", ErrUnknownOperator, kind)
	}
}

// I-type opcodes: each operator/kind combination owns its own opcode
// (unlike the R-type family, which shares one opcode per family and
// dispatches on funct).
const (
	OpIAddI OpCode = iota + 100
	OpISubI
	OpIMultI
	OpIMultUI
	OpISllI
	OpISrlI
	OpISraI
	OpIModI
	OpIDivI
	OpIDivUI
	OpIAndI
	OpIOrI
	OpIXorI
	OpISeqI
	OpISneI
	OpISltI
	OpISleI
	OpISet
	OpILi
	OpISi
	OpILni
	OpICh
	OpILh
	OpISh
	OpILui
	OpIIntI
	OpIRitI
	OpITimeI
	OpIRingI
	OpISetptI
	OpIDiviI
	OpIStack
	OpISizedStack
	OpISgtI
	OpISgeI
)

var iArithOpcodes = map[string]OpCode{
	"+": OpIAddI, "-": OpISubI, "*": OpIMultI, "%": OpIModI, "/": OpIDivI,
	"<<": OpISllI, ">>": OpISrlI, ">>>": OpISraI, "&": OpIAndI, "|": OpIOrI, "^": OpIXorI,
}

var iArithOpcodesUnsigned = map[string]OpCode{
	"*": OpIMultUI, "/": OpIDivUI,
}

var iCompOpcodes = map[string]OpCode{
	"==": OpISeqI, "!=": OpISneI, "<": OpISltI, "<=": OpISleI,
}

// iCompOpcodesDirect maps the comparisons that have no R-type-style flip:
// an I-type comparison only has one register operand, so `>`/`>=` cannot
// be canonicalized into `<`/`<=` by swapping operands. They get their own
// opcodes instead.
var iCompOpcodesDirect = map[string]OpCode{
	">": OpISgtI, ">=": OpISgeI,
}

// LookupI resolves the opcode for an I-type-family node.
func LookupI(kind ast.Kind, operator string, unsigned bool) (OpCode, error) {
	switch kind {
	case ast.KindIType:
		if unsigned {
			if op, ok := iArithOpcodesUnsigned[operator]; ok {
				return op, nil
			}
		}
		if op, ok := iArithOpcodes[operator]; ok {
			return op, nil
		}
		return 0, fmt.Errorf("%w: IType operator %q", ErrUnknownOperator, operator)
	case ast.KindCmpi:
		if op, ok := iCompOpcodesDirect[operator]; ok {
			return op, nil
		}
		if op, ok := iCompOpcodes[operator]; ok {
			return op, nil
		}
		return 0, fmt.Errorf("%w: Cmpi operator %q", ErrUnknownOperator, operator)
	case ast.KindSet:
		return OpISet, nil
	case ast.KindLi:
		return OpILi, nil
	case ast.KindSi:
		return OpISi, nil
	case ast.KindLni:
		return OpILni, nil
	case ast.KindCh:
		return OpICh, nil
	case ast.KindLh:
		return OpILh, nil
	case ast.KindSh:
		return OpISh, nil
	case ast.KindLui:
		return OpILui, nil
	case ast.KindIntI:
		return OpIIntI, nil
	case ast.KindRitI:
		return OpIRitI, nil
	case ast.KindTimeI:
		return OpITimeI, nil
	case ast.KindRingI:
		return OpIRingI, nil
	case ast.KindSetptI:
		return OpISetptI, nil
	case ast.KindDiviI:
		return OpIDiviI, nil
	case ast.KindMultI:
		return OpIMultI, nil
	case ast.KindStack:
		return OpIStack, nil
	case ast.KindSizedStack:
		return OpISizedStack, nil
	default:
		return 0, fmt.Errorf("%w: kind %s has no I-type encoding", ErrUnknownOperator, kind)
	}
}

// J-type opcodes: fixed, one per kind.
const (
	OpJ OpCode = iota + 200
	OpJc
	OpJr
	OpJrc
	OpTimeR
	OpRingR
	OpSleepR
	OpSetptR
	OpSvpg
	OpPage
	OpQuery
	OpPrint
	OpHalt
	OpNop
	OpMultR
	OpDiviR
	OpIO
)

// LookupJ resolves the opcode for a J-type-family or fixed-opcode node.
func LookupJ(kind ast.Kind) (OpCode, error) {
	switch kind {
	case ast.KindJType:
		return OpJ, nil
	case ast.KindJc:
		return OpJc, nil
	case ast.KindTimeR:
		return OpTimeR, nil
	case ast.KindRingR:
		return OpRingR, nil
	case ast.KindSleepR:
		return OpSleepR, nil
	case ast.KindSetptR:
		return OpSetptR, nil
	case ast.KindSvpg:
		return OpSvpg, nil
	case ast.KindPage:
		return OpPage, nil
	case ast.KindQuery:
		return OpQuery, nil
	case ast.KindPrint:
		return OpPrint, nil
	case ast.KindHalt:
		return OpHalt, nil
	case ast.KindNop:
		return OpNop, nil
	case ast.KindMultR:
		return OpMultR, nil
	case ast.KindIO:
		return OpIO, nil
	default:
		return 0, fmt.Errorf("%w: kind %s has no fixed opcode", ErrUnknownOperator, kind)
	}
}
