package ast

// Program is the root of the AST the assembler consumes: the upstream
// parser hands over a tree rooted at a node whose children are the five
// top-level section kinds below.
type Program struct {
	Meta    *MetaHeader
	Include *IncludeHeader
	Data    *DataHeader
	Debug   *DebugHeader
	Text    *TextHeader
}

// MetaHeader carries the object's declared identity. Any field left empty
// is filled from the project manifest by the driver.
type MetaHeader struct {
	Name    string
	Version string
	Author  string
	Orcid   string
}

// IncludeHeader is accepted by the parser but is a no-op for the
// assembler: the driver neither reads nor validates it.
type IncludeHeader struct {
	Paths []string
}

// DataHeader holds data declared ahead of the text section, laid out into
// the data section before any `.data`/`.code` directive inside Text runs.
type DataHeader struct {
	Items []DataDecl
}

// DataDecl anchors zero or more labels at a sequence of data pieces.
type DataDecl struct {
	Labels []string
	Pieces []DataPiece
}

// DataPieceKind discriminates the five data-piece shapes the original
// assembler's convertDataPieces recognizes.
type DataPieceKind int

const (
	PieceNumber DataPieceKind = iota
	PieceFloat
	PieceString
	PieceFill
	PieceRef
)

// DataPiece is one value emitted into the data section.
type DataPiece struct {
	Kind DataPieceKind

	Number int64   // PieceNumber
	Float  float64 // PieceFloat, stored as the bit pattern of a float64

	Str           string // PieceString
	NullTerminate bool   // PieceString: append a trailing \0

	FillCount int // PieceFill: number of zero bytes

	RefTarget string // PieceRef: %name alias; stores the address of RefTarget
}

// DebugHeader holds the debug AST section's declared records, Location
// declarations included; the driver synthesizes each Location record's run
// count and address.
type DebugHeader struct {
	Entries []DebugDecl
}

// DebugDeclKind discriminates a debug-section record.
type DebugDeclKind int

const (
	DebugFilename DebugDeclKind = iota
	DebugFunction
	DebugLocation
)

// DebugDecl is one record declared in the debug section. Filename/Function
// use Value; Location uses the four index fields. A declared Location
// lacks a run count and address — the driver synthesizes both once it
// walks the expanded instruction list and correlates bangs to runs.
type DebugDecl struct {
	Kind  DebugDeclKind
	Value string // Filename, Function

	FileIndex, Line, Column, FuncIndex uint32 // Location
}

// TextHeader holds the ordered sequence of directives and instructions
// that make up the code+data-interleaved text section.
type TextHeader struct {
	Items []TextItem
}

// DirectiveKind discriminates a non-instruction TextItem.
type DirectiveKind int

const (
	DirNone DirectiveKind = iota
	DirLabel
	DirString
	DirType
	DirSize
	DirValue
	DirAlign
	DirFill
	DirData
	DirCode
)

// SymbolDeclKind is the target symbol kind declared by a `.type`
// directive.
type SymbolDeclKind int

const (
	SymbolDeclUnknown SymbolDeclKind = iota
	SymbolDeclFunction
	SymbolDeclObject
)

// TextItem is one entry of the text section: either an instruction node
// (Instruction != nil) or a directive.
type TextItem struct {
	Instruction *Node

	Directive DirectiveKind

	Label string // DirLabel

	StringValue   string // DirString
	NullTerminate bool   // DirString

	TypeTarget string         // DirType
	SymbolKind SymbolDeclKind // DirType

	SizeTarget string // DirSize: symbol whose size is being declared
	SizeExpr   string // DirSize: expression text

	ValueExpr  string // DirValue: expression text
	ValueWidth int    // DirValue: 4 or 8

	AlignTo int // DirAlign

	FillCount int  // DirFill
	FillValue byte // DirFill
}
