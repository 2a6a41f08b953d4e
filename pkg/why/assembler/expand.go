package assembler

import (
	"errors"
	"fmt"

	"github.com/whylang/wasmc/pkg/utils"
	"github.com/whylang/wasmc/pkg/why/ast"
	"github.com/whylang/wasmc/pkg/why/registers"
)

// ErrTooManyArguments is returned when a Call node names more arguments
// than there are argument registers.
var ErrTooManyArguments = errors.New("assembler: call has more arguments than argument registers")

// ErrUnknownIOIdent is returned when an IO node's ident has no entry in
// the fixed ident table.
var ErrUnknownIOIdent = errors.New("assembler: unknown io ident")

// ErrInvalidJeqOperand is returned when a Jeq node's addr/rt operand is
// neither a register nor a recognized immediate shape.
var ErrInvalidJeqOperand = errors.New("assembler: invalid jeq operand")

var regTable = registers.NewTable()

// argumentRegisterNames lists the 16 argument registers in call order,
// $a0..$a9 then $aa..$af.
var argumentRegisterNames = []string{
	"$a0", "$a1", "$a2", "$a3", "$a4", "$a5", "$a6", "$a7", "$a8", "$a9",
	"$aa", "$ab", "$ac", "$ad", "$ae", "$af",
}

func argumentRegister(i int) int {
	idx, err := regTable.Index(argumentRegisterNames[i])
	if err != nil {
		panic(err) // static table, never mismatches the register table
	}
	return idx
}

// ioIdentIDs maps the fixed set of IO pseudo-instruction idents to their
// numeric IDs, loaded into $a0 before the primitive IO instruction.
var ioIdentIDs = map[string]int32{
	"open":    0,
	"close":   1,
	"read":    2,
	"write":   3,
	"getsize": 4,
	"setsize": 5,
	"flush":   6,
}

func withLabels(n *ast.Node, labels []string) *ast.Node {
	n.Labels = labels
	return n
}

func rTypeOr(rs, rt, rd int, bang int) *ast.Node {
	n := ast.NewNode(ast.KindRType)
	n.RS, n.RT, n.RD = rs, rt, rd
	n.Operator = "|"
	n.Bang = bang
	return n
}

// ExpandMv lowers Mv(rs, rd) to RType(rs, $0, rd, OR), per §4.4.
func ExpandMv(n *ast.Node) []*ast.Node {
	out := rTypeOr(n.RS, registers.Zero, n.RD, n.Bang)
	out.Labels = n.Labels
	return []*ast.Node{out}
}

func setImmediate(imm ast.Immediate, rd int, bang int) *ast.Node {
	n := ast.NewNode(ast.KindSet)
	n.RD = rd
	n.Imm = imm
	n.Bang = bang
	return n
}

func printChar(rs int, bang int) *ast.Node {
	n := ast.NewNode(ast.KindPrint)
	n.RS = rs
	n.PrintType = "Char"
	n.Bang = bang
	return n
}

// ExpandPseudoPrint lowers PseudoPrint(c) to SetI(c -> $m7); Print($m7, Char).
func ExpandPseudoPrint(n *ast.Node) ([]*ast.Node, error) {
	if n.Imm.Kind != ast.ImmChar {
		return nil, fmt.Errorf("assembler: PseudoPrint immediate must be a char")
	}
	set := setImmediate(n.Imm, registers.Scratch, n.Bang)
	set.Labels = n.Labels
	return []*ast.Node{set, printChar(registers.Scratch, n.Bang)}, nil
}

// ExpandStringPrint lowers StringPrint(s): iterate characters, emitting
// SetI(ch -> $m7) only when ch differs from the previous one, and always
// emitting Print($m7, Char). The first emitted instruction inherits the
// node's label anchors. An empty literal expands to nothing.
func ExpandStringPrint(n *ast.Node) []*ast.Node {
	runes := []rune(n.Str)
	if len(runes) == 0 {
		return nil
	}

	var out []*ast.Node
	lastChar := runes[0] - 1
	first := true
	for _, ch := range runes {
		if ch != lastChar {
			set := setImmediate(ast.CharImmediate(ch), registers.Scratch, n.Bang)
			if first {
				set.Labels = n.Labels
			}
			first = false
			out = append(out, set)
			lastChar = ch
		}
		out = append(out, printChar(registers.Scratch, n.Bang))
	}
	return out
}

// loadJeqOperand materializes a Jeq immediate operand (label or number)
// into $m7: Li for a label, SetI for a number.
func loadJeqOperand(imm ast.Immediate, bang int) (*ast.Node, error) {
	switch imm.Kind {
	case ast.ImmLabel:
		n := ast.NewNode(ast.KindLi)
		n.RD = registers.Scratch
		n.Imm = imm
		n.Bang = bang
		return n, nil
	case ast.ImmNumber, ast.ImmChar:
		n := ast.NewNode(ast.KindSet)
		n.RD = registers.Scratch
		n.Imm = imm
		n.Bang = bang
		return n, nil
	default:
		return nil, utils.MakeError(ErrInvalidJeqOperand, "unsupported immediate kind in Jeq rhs")
	}
}

func seq(rs, rt, rd int, bang int) *ast.Node {
	n := ast.NewNode(ast.KindCmp)
	n.Operator = "=="
	n.RS, n.RT, n.RD = rs, rt, rd
	n.Bang = bang
	return n
}

func jrc(link bool, rs, target int, bang int) *ast.Node {
	n := ast.NewNode(ast.KindJrc)
	n.Link = link
	n.RS = rs
	n.RD = target
	n.Bang = bang
	return n
}

func jc(addr ast.Immediate, link bool, rs int, bang int) *ast.Node {
	n := ast.NewNode(ast.KindJc)
	n.Imm = addr
	n.Link = link
	n.RS = rs
	n.Bang = bang
	return n
}

// ExpandJeq lowers Jeq(addr, rs, rt, link) per the four cases of §4.4.
func ExpandJeq(n *ast.Node) ([]*ast.Node, error) {
	m7 := registers.Scratch
	var out []*ast.Node

	switch {
	case n.JeqAddr.IsRegister && n.JeqRT.IsRegister:
		out = append(out, seq(n.RS, n.JeqRT.Register, m7, n.Bang))
		out = append(out, jrc(n.Link, m7, n.JeqAddr.Register, n.Bang))

	case n.JeqAddr.IsRegister && !n.JeqRT.IsRegister:
		load, err := loadJeqOperand(n.JeqRT.Imm, n.Bang)
		if err != nil {
			return nil, err
		}
		out = append(out, load)
		out = append(out, seq(n.RS, m7, m7, n.Bang))
		out = append(out, jrc(n.Link, m7, n.JeqAddr.Register, n.Bang))

	case !n.JeqAddr.IsRegister && n.JeqRT.IsRegister:
		out = append(out, seq(n.RS, n.JeqRT.Register, m7, n.Bang))
		out = append(out, jc(n.JeqAddr.Imm, n.Link, m7, n.Bang))

	default:
		load, err := loadJeqOperand(n.JeqRT.Imm, n.Bang)
		if err != nil {
			return nil, err
		}
		out = append(out, load)
		out = append(out, seq(n.RS, m7, m7, n.Bang))
		out = append(out, jc(n.JeqAddr.Imm, n.Link, m7, n.Bang))
	}

	out[0].Labels = n.Labels
	return out, nil
}

func stackNode(reg int, push bool, bang int) *ast.Node {
	n := ast.NewNode(ast.KindStack)
	n.RS = reg
	n.Push = push
	n.Bang = bang
	return n
}

func pushPop(regs []int, labels []string, push bool, bang int) []*ast.Node {
	out := make([]*ast.Node, 0, len(regs))
	for i, reg := range regs {
		n := stackNode(reg, push, bang)
		if i == 0 {
			n.Labels = labels
		}
		out = append(out, n)
	}
	return out
}

// ExpandCall lowers Call(function, args) per §4.4: push caller-save
// registers ($rt if inSubroutine, then $a0..$a{k-1}), materialize each
// argument into its argument register, jump-and-link to function, then
// pop the same registers in reverse order.
func ExpandCall(n *ast.Node) ([]*ast.Node, error) {
	if len(n.Args) > len(argumentRegisterNames) {
		return nil, utils.MakeError(ErrTooManyArguments, "%d given, %d available", len(n.Args), len(argumentRegisterNames))
	}

	var saved []int
	if n.InSubroutine {
		rt, err := regTable.Index("$rt")
		if err != nil {
			return nil, err
		}
		saved = append(saved, rt)
	}
	for i := range n.Args {
		saved = append(saved, argumentRegister(i))
	}

	var out []*ast.Node
	out = append(out, pushPop(saved, n.Labels, true, n.Bang)...)

	for i, arg := range n.Args {
		reg := argumentRegister(i)
		var materialize *ast.Node
		switch arg.Kind {
		case ast.ArgAddressOf:
			materialize = setImmediate(ast.LabelImmediate(arg.Label), reg, n.Bang)
		case ast.ArgValueAt:
			materialize = ast.NewNode(ast.KindLi)
			materialize.RD = reg
			materialize.Imm = ast.LabelImmediate(arg.Label)
			materialize.Bang = n.Bang
		case ast.ArgNumber:
			materialize = setImmediate(ast.NumberImmediate(int32(arg.Number)), reg, n.Bang)
		case ast.ArgRegister:
			materialize = rTypeOr(arg.Register, registers.Zero, reg, n.Bang)
		default:
			return nil, fmt.Errorf("assembler: invalid Arg kind %d", arg.Kind)
		}
		out = append(out, materialize)
	}

	jump := ast.NewNode(ast.KindJType)
	jump.RS = registers.Zero
	jump.Imm = ast.LabelImmediate(n.Function)
	jump.Link = true
	jump.Bang = n.Bang
	if len(saved) == 0 {
		jump.Labels = n.Labels
	}
	out = append(out, jump)

	reversed := make([]int, len(saved))
	for i, reg := range saved {
		reversed[len(saved)-1-i] = reg
	}
	out = append(out, pushPop(reversed, nil, false, n.Bang)...)

	return out, nil
}

// ExpandIO lowers IO(ident) to SetI(id -> $a0); IO(nil), per §4.4. An IO
// node with no ident is already primitive and passes through unchanged.
func ExpandIO(n *ast.Node) ([]*ast.Node, error) {
	if n.Ident == "" {
		return []*ast.Node{n}, nil
	}

	id, ok := ioIdentIDs[n.Ident]
	if !ok {
		return nil, utils.MakeError(ErrUnknownIOIdent, "%q", n.Ident)
	}

	a0 := argumentRegister(0)
	set := setImmediate(ast.NumberImmediate(id), a0, n.Bang)
	set.Labels = n.Labels

	io := ast.NewNode(ast.KindIO)
	io.Bang = n.Bang

	return []*ast.Node{set, io}, nil
}

// ExpandedSize returns the number of primitive instructions a pseudo node
// expands to, computed the same way expansion itself computes it — used
// to reserve space in processText before expansion runs.
func ExpandedSize(n *ast.Node) (int, error) {
	switch n.Kind {
	case ast.KindMv:
		return 1, nil
	case ast.KindPseudoPrint:
		return 2, nil
	case ast.KindStringPrint:
		expanded := ExpandStringPrint(n)
		return len(expanded), nil
	case ast.KindJeq:
		expanded, err := ExpandJeq(n)
		if err != nil {
			return 0, err
		}
		return len(expanded), nil
	case ast.KindCall:
		expanded, err := ExpandCall(n)
		if err != nil {
			return 0, err
		}
		return len(expanded), nil
	case ast.KindIO:
		if n.Ident == "" {
			return 1, nil
		}
		return 2, nil
	default:
		return 1, nil
	}
}

// Expand lowers a pseudo-instruction node to its primitive sequence. Non
// pseudo nodes expand to themselves.
func Expand(n *ast.Node) ([]*ast.Node, error) {
	switch n.Kind {
	case ast.KindMv:
		return ExpandMv(n), nil
	case ast.KindPseudoPrint:
		return ExpandPseudoPrint(n)
	case ast.KindStringPrint:
		return ExpandStringPrint(n), nil
	case ast.KindJeq:
		return ExpandJeq(n)
	case ast.KindCall:
		return ExpandCall(n)
	case ast.KindIO:
		return ExpandIO(n)
	default:
		return []*ast.Node{n}, nil
	}
}
