// Package ast models the instruction AST the assembler consumes: a tagged
// union of node kinds carrying a common header (labels, debug bang, linker
// flags) plus per-kind operand fields, following the source's deep class
// hierarchy flattened to a single record per the node-model design note.
package ast

// Kind discriminates an InstructionNode's operand fields.
type Kind int

const (
	KindRType Kind = iota
	KindIType
	KindJType
	KindCopy
	KindLoad
	KindStore
	KindSet
	KindLi
	KindSi
	KindLni
	KindCh
	KindLh
	KindSh
	KindCmp
	KindCmpi
	KindSel
	KindJc
	KindJr
	KindJrc
	KindMv
	KindSizedStack
	KindStack
	KindMultR
	KindMultI
	KindDiviI
	KindLui
	KindNop
	KindIntI
	KindRitI
	KindTimeI
	KindTimeR
	KindRingI
	KindRingR
	KindPrint
	KindHalt
	KindSleepR
	KindPage
	KindSetptI
	KindSetptR
	KindLabel
	KindSvpg
	KindQuery
	KindPseudoPrint
	KindCall
	KindStringPrint
	KindJeq
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindRType:
		return "RType"
	case KindIType:
		return "IType"
	case KindJType:
		return "JType"
	case KindCopy:
		return "Copy"
	case KindLoad:
		return "Load"
	case KindStore:
		return "Store"
	case KindSet:
		return "Set"
	case KindLi:
		return "Li"
	case KindSi:
		return "Si"
	case KindLni:
		return "Lni"
	case KindCh:
		return "Ch"
	case KindLh:
		return "Lh"
	case KindSh:
		return "Sh"
	case KindCmp:
		return "Cmp"
	case KindCmpi:
		return "Cmpi"
	case KindSel:
		return "Sel"
	case KindJc:
		return "Jc"
	case KindJr:
		return "Jr"
	case KindJrc:
		return "Jrc"
	case KindMv:
		return "Mv"
	case KindSizedStack:
		return "SizedStack"
	case KindStack:
		return "Stack"
	case KindMultR:
		return "MultR"
	case KindMultI:
		return "MultI"
	case KindDiviI:
		return "DiviI"
	case KindLui:
		return "Lui"
	case KindNop:
		return "Nop"
	case KindIntI:
		return "IntI"
	case KindRitI:
		return "RitI"
	case KindTimeI:
		return "TimeI"
	case KindTimeR:
		return "TimeR"
	case KindRingI:
		return "RingI"
	case KindRingR:
		return "RingR"
	case KindPrint:
		return "Print"
	case KindHalt:
		return "Halt"
	case KindSleepR:
		return "SleepR"
	case KindPage:
		return "Page"
	case KindSetptI:
		return "SetptI"
	case KindSetptR:
		return "SetptR"
	case KindLabel:
		return "Label"
	case KindSvpg:
		return "Svpg"
	case KindQuery:
		return "Query"
	case KindPseudoPrint:
		return "PseudoPrint"
	case KindCall:
		return "Call"
	case KindStringPrint:
		return "StringPrint"
	case KindJeq:
		return "Jeq"
	case KindIO:
		return "IO"
	default:
		return "Unknown"
	}
}

// IsPseudo reports whether a node kind must be lowered during expansion
// instead of encoded directly.
func (k Kind) IsPseudo() bool {
	switch k {
	case KindMv, KindPseudoPrint, KindStringPrint, KindJeq, KindCall, KindIO:
		return true
	default:
		return false
	}
}

// ImmKind discriminates an Immediate's payload.
type ImmKind int

const (
	ImmNumber ImmKind = iota
	ImmChar
	ImmLabel
)

// Immediate is a tagged variant: a signed 32-bit integer, a character code
// point, or a reference to an interned label.
type Immediate struct {
	Kind   ImmKind
	Number int32
	Char   rune
	Label  string
}

func NumberImmediate(n int32) Immediate { return Immediate{Kind: ImmNumber, Number: n} }
func CharImmediate(c rune) Immediate    { return Immediate{Kind: ImmChar, Char: c} }
func LabelImmediate(l string) Immediate {
	return Immediate{Kind: ImmLabel, Label: l}
}

// Condition is the Why ISA's branch/select condition.
type Condition int

const (
	CondNone Condition = iota
	CondZero
	CondNonzero
	CondPositive
	CondNegative
)

// LinkFlags are the 2-bit linker flags carried on every encodable
// instruction's immediate/symbol reference.
type LinkFlags uint8

const (
	FlagIgnore LinkFlags = iota
	FlagKnownSymbol
	FlagUnknownSymbol
	FlagSymbolID
)

// ArgKind discriminates a call argument.
type ArgKind int

const (
	ArgRegister ArgKind = iota
	ArgAddressOf
	ArgValueAt
	ArgNumber
)

// Arg is one materialized argument to a Call pseudo-instruction.
type Arg struct {
	Kind     ArgKind
	Register int
	Label    string
	Number   int64
}

// JeqOperand is either a register or an immediate, used for Jeq's addr/rt
// operand slots which may independently be either shape.
type JeqOperand struct {
	IsRegister bool
	Register   int
	Imm        Immediate
}

// Node is the common-header-plus-fields instruction node. Which fields are
// meaningful is determined by Kind; the assembler's expansion and encoding
// code (expand.go, compile.go) reads only the fields each kind uses.
type Node struct {
	Kind Kind

	Labels       []string
	Bang         int // -1 if no debug entry
	Flags        LinkFlags
	InSubroutine bool

	RS, RT, RD int // register indices; -1 when unused
	Operator   string
	Unsigned   bool
	Condition  Condition
	Link       bool // J-type link bit

	Imm Immediate

	IsByte bool // memory/load/store operand width selector

	Push bool // Stack/SizedStack direction: true = push
	Size int  // SizedStack width in bytes

	PrintType string // Print pseudo-op payload type, e.g. "Char"

	Str string // StringPrint literal, SetptI/Query payload, Label name

	Function string
	Args     []Arg

	JeqAddr JeqOperand
	JeqRT   JeqOperand

	Ident string // IO identifier
}

// NewNode returns a zero-value node of the given kind with no labels, no
// debug bang, and all register slots marked unused.
func NewNode(kind Kind) *Node {
	return &Node{
		Kind: kind,
		Bang: -1,
		RS:   -1,
		RT:   -1,
		RD:   -1,
	}
}

// HasLabel reports whether id is among this node's anchored labels.
func (n *Node) HasLabel(id string) bool {
	for _, l := range n.Labels {
		if l == id {
			return true
		}
	}
	return false
}
