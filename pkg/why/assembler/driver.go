// Package assembler drives the full object-building pipeline: pseudo
// instruction expansion, bit-exact encoding, symbol table construction,
// relocation metadata, debug encoding, and final concatenation.
package assembler

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/whylang/wasmc/internal/manifest"
	"github.com/whylang/wasmc/pkg/utils"
	"github.com/whylang/wasmc/pkg/why/ast"
	"github.com/whylang/wasmc/pkg/why/debuginfo"
	"github.com/whylang/wasmc/pkg/why/expr"
	"github.com/whylang/wasmc/pkg/why/intern"
	"github.com/whylang/wasmc/pkg/why/section"
	"github.com/whylang/wasmc/pkg/why/symtab"
)

// ErrNilProgram is returned when Assemble is handed a nil program.
var ErrNilProgram = errors.New("assembler: nil program")

// ErrLabelRedefined is returned when the same label is anchored twice.
var ErrLabelRedefined = errors.New("assembler: label redefined")

// ErrInvalidOrcid is returned when the meta header's ORCID does not
// normalize to exactly 16 digits.
var ErrInvalidOrcid = errors.New("assembler: orcid does not normalize to 16 digits")

// ErrInstructionInData is returned when an instruction appears while the
// text section's current target is the data section.
var ErrInstructionInData = errors.New("assembler: instruction emitted under a .data directive")

// codeSlot is one reserved 8-byte instruction word awaiting final
// encoding once labels resolve.
type codeSlot struct {
	offset uint64 // relative to the start of the code section
	node   *ast.Node
}

// valueReloc is a `.value`/`%ref` deferred slot awaiting expression
// evaluation, recorded with enough context to patch its section later.
type valueReloc struct {
	inData bool
	offset uint64 // relative to the owning section
	width  int
	expr   string
	kind   RelocationKind
}

// Driver holds all state accumulated across the assembler's passes for a
// single object being built.
type Driver struct {
	fallback manifest.Manifest
	interner *intern.Interner

	meta    *section.Section
	code    *section.Section
	data    *section.Section
	symbols *section.Section

	allLabels map[string]bool

	// codeRel/dataRel record a label's offset relative to the section it
	// was anchored in; absolute addresses are only known once offsets is
	// computed, so these are rebased by resolvedAddress.
	codeRel map[string]uint64
	dataRel map[string]uint64

	symbolKind map[string]ast.SymbolDeclKind

	// refTargets maps a data label anchoring a lone %ref piece to the
	// label it points at, so buildSymbolTableSkeleton can classify it as a
	// pointer rather than plain data.
	refTargets map[string]string

	sizeExprs map[string]string

	slots       []codeSlot
	valueRelocs []valueReloc

	table       *symtab.Table
	symbolIndex map[string]int

	offsets     Offsets
	relocations []Relocation

	unknownSymbols map[string]bool
}

func newDriver(fallback manifest.Manifest) *Driver {
	return &Driver{
		fallback:       fallback,
		interner:       intern.New(),
		meta:           section.New("meta"),
		code:           section.New("code"),
		data:           section.New("data"),
		allLabels:      make(map[string]bool),
		codeRel:        make(map[string]uint64),
		dataRel:        make(map[string]uint64),
		symbolKind:     make(map[string]ast.SymbolDeclKind),
		refTargets:     make(map[string]string),
		sizeExprs:      make(map[string]string),
		symbolIndex:    make(map[string]int),
		unknownSymbols: make(map[string]bool),
	}
}

// Assemble runs the full pipeline over program, returning the
// concatenated object bytes plus the metadata a linker needs.
func Assemble(program *ast.Program, fallback manifest.Manifest) (*Result, error) {
	d := newDriver(fallback)

	if err := d.validateSectionCounts(program); err != nil {
		return nil, err
	}
	d.findAllLabels(program)
	if err := d.processMetadata(program); err != nil {
		return nil, err
	}
	if err := d.processText(program); err != nil {
		return nil, err
	}

	d.offsets.Code = d.meta.Size()
	d.offsets.Data = d.offsets.Code + d.code.Size()
	d.offsets.Symbols = d.offsets.Data + d.data.Size()

	if err := d.buildSymbolTableSkeleton(); err != nil {
		return nil, err
	}

	symtabSize := uint64(symtabByteSize(d.table))
	d.offsets.Debug = d.offsets.Symbols + symtabSize

	debugSec := section.New("debug")
	var debugEntries []ast.DebugDecl
	if program.Debug != nil {
		debugEntries = program.Debug.Entries
	}
	if err := debuginfo.EncodeDeclared(debugSec, debugEntries); err != nil {
		return nil, err
	}
	bangs := utils.Map(d.slots, func(slot codeSlot) debuginfo.InstructionBang {
		return debuginfo.InstructionBang{
			Address: d.offsets.Code + slot.offset,
			Bang:    slot.node.Bang,
		}
	})
	if err := debuginfo.EncodeLocations(debugSec, debugEntries, bangs); err != nil {
		return nil, err
	}

	d.offsets.End = d.offsets.Debug + debugSec.Size()
	d.table.SetAddress(d.symbolIndex[".end"], d.offsets.End)

	d.symbols = section.New("symbols")
	if err := d.table.Encode(d.symbols); err != nil {
		return nil, err
	}

	d.processRelocation()
	if err := d.evaluateExpressions(); err != nil {
		return nil, err
	}
	if err := d.expandLabels(); err != nil {
		return nil, err
	}
	if err := d.patchMetaHeader(); err != nil {
		return nil, err
	}

	binary := section.Combine(d.meta, d.code, d.data, d.symbols, debugSec)

	unknown := utils.Keys(d.unknownSymbols)
	sort.Strings(unknown)

	return &Result{
		Binary:         binary,
		Offsets:        d.offsets,
		Relocations:    d.relocations,
		UnknownSymbols: unknown,
	}, nil
}

// validateSectionCounts documents (rather than enforces) that a Program
// carries at most one of each top-level section: ast.Program's shape, a
// single pointer field per section rather than a slice, makes a duplicate
// structurally impossible upstream of the assembler.
func (d *Driver) validateSectionCounts(program *ast.Program) error {
	if program == nil {
		return ErrNilProgram
	}
	return nil
}

// findAllLabels collects every label the object either anchors or merely
// references, so the symbol table skeleton can include externs (anchored
// nowhere in this object) alongside locally-defined symbols.
func (d *Driver) findAllLabels(program *ast.Program) {
	add := func(name string) {
		if name != "" {
			d.allLabels[name] = true
		}
	}
	addImmediate := func(imm ast.Immediate) {
		if imm.Kind == ast.ImmLabel {
			add(imm.Label)
		}
	}
	addOperand := func(op ast.JeqOperand) {
		if !op.IsRegister {
			addImmediate(op.Imm)
		}
	}

	if program.Data != nil {
		for _, decl := range program.Data.Items {
			for _, l := range decl.Labels {
				add(l)
			}
			for _, piece := range decl.Pieces {
				if piece.Kind == ast.PieceRef {
					add(piece.RefTarget)
				}
			}
		}
	}

	if program.Text == nil {
		return
	}
	for _, item := range program.Text.Items {
		if item.Directive == ast.DirLabel {
			add(item.Label)
		}
		n := item.Instruction
		if n == nil {
			continue
		}
		for _, l := range n.Labels {
			add(l)
		}
		addImmediate(n.Imm)
		if n.Kind == ast.KindJeq {
			addOperand(n.JeqAddr)
			addOperand(n.JeqRT)
		}
		if n.Kind == ast.KindCall {
			add(n.Function)
			for _, a := range n.Args {
				if a.Kind == ast.ArgAddressOf || a.Kind == ast.ArgValueAt {
					add(a.Label)
				}
			}
		}
	}
}

// processMetadata serializes the meta section: five zeroed offset slots
// (patched once layout is known), the normalized ORCID, then the
// null-separated name/version/author strings. AST fields left empty fall
// back to the project manifest, then to manifest.Default().
func (d *Driver) processMetadata(program *ast.Program) error {
	var declared manifest.Manifest
	if program.Meta != nil {
		declared = manifest.Manifest{
			Name:    program.Meta.Name,
			Version: program.Meta.Version,
			Author:  program.Meta.Author,
			Orcid:   program.Meta.Orcid,
		}
	}
	merged := manifest.Merge(declared, manifest.Merge(d.fallback, manifest.Default()))

	orcid := normalizeOrcid(merged.Orcid)
	if orcid != merged.Orcid {
		slog.Warn("orcid contained non-digit characters, stripped before packing", "raw", merged.Orcid)
	}
	if len(orcid) != 16 {
		return utils.MakeError(ErrInvalidOrcid, "%q normalizes to %d digits", merged.Orcid, len(orcid))
	}

	d.meta.Reserve(40)
	d.meta.AppendString(orcid)
	d.meta.AppendString(merged.Name)
	d.meta.AppendBytes([]byte{0})
	d.meta.AppendString(merged.Version)
	d.meta.AppendBytes([]byte{0})
	d.meta.AppendString(merged.Author)
	d.meta.AppendBytes([]byte{0})
	d.meta.AlignUp(8)
	return nil
}

func normalizeOrcid(orcid string) string {
	var b strings.Builder
	for _, r := range orcid {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// processText lays out the top-level data header, then the interleaved
// code+data text section, expanding pseudo-instructions as it goes and
// recording each label's offset relative to the section it anchors in.
func (d *Driver) processText(program *ast.Program) error {
	if err := d.layOutDataHeader(program); err != nil {
		return err
	}

	if program.Text != nil {
		current := d.code
		currentIsCode := true

		for _, item := range program.Text.Items {
			if item.Instruction != nil {
				if !currentIsCode {
					return utils.MakeError(ErrInstructionInData, "%v", item.Instruction.Kind)
				}
				if err := d.emitInstruction(item.Instruction); err != nil {
					return err
				}
				continue
			}

			switch item.Directive {
			case ast.DirLabel:
				if err := d.anchorLabel(item.Label, current, currentIsCode); err != nil {
					return err
				}
			case ast.DirString:
				current.AppendString(item.StringValue)
				if item.NullTerminate {
					current.AppendBytes([]byte{0})
				}
			case ast.DirType:
				d.symbolKind[item.TypeTarget] = item.SymbolKind
			case ast.DirSize:
				d.sizeExprs[item.SizeTarget] = item.SizeExpr
			case ast.DirValue:
				kind := RelocationLower4
				if item.ValueWidth == 8 {
					kind = RelocationFull
				}
				offset := current.DeferValue(item.ValueWidth, item.ValueExpr)
				d.valueRelocs = append(d.valueRelocs, valueReloc{
					inData: !currentIsCode, offset: offset, width: item.ValueWidth, expr: item.ValueExpr, kind: kind,
				})
			case ast.DirAlign:
				current.AlignUp(uint64(item.AlignTo))
			case ast.DirFill:
				fill := make([]byte, item.FillCount)
				for i := range fill {
					fill[i] = item.FillValue
				}
				current.AppendBytes(fill)
			case ast.DirData:
				current, currentIsCode = d.data, false
			case ast.DirCode:
				current, currentIsCode = d.code, true
			}
		}
	}

	d.code.AlignUp(8)
	d.data.AlignUp(8)
	return nil
}

func (d *Driver) layOutDataHeader(program *ast.Program) error {
	if program.Data == nil {
		return nil
	}
	for _, decl := range program.Data.Items {
		for _, label := range decl.Labels {
			if err := d.anchorLabel(label, d.data, false); err != nil {
				return err
			}
			if len(decl.Pieces) == 1 && decl.Pieces[0].Kind == ast.PieceRef {
				d.refTargets[label] = decl.Pieces[0].RefTarget
			}
		}
		for _, piece := range decl.Pieces {
			switch piece.Kind {
			case ast.PieceNumber:
				d.data.AppendU64(uint64(piece.Number))
			case ast.PieceFloat:
				d.data.AppendU64(math.Float64bits(piece.Float))
			case ast.PieceString:
				d.data.AppendString(piece.Str)
				if piece.NullTerminate {
					d.data.AppendBytes([]byte{0})
				}
			case ast.PieceFill:
				d.data.Reserve(piece.FillCount)
			case ast.PieceRef:
				offset := d.data.DeferValue(8, piece.RefTarget)
				d.valueRelocs = append(d.valueRelocs, valueReloc{
					inData: true, offset: offset, width: 8, expr: piece.RefTarget, kind: RelocationFull,
				})
			}
		}
	}
	return nil
}

// anchorLabel records name as anchored at sec's current position, both in
// the driver's own rebasing maps and via sec.AnchorLabel for the section's
// own label bookkeeping.
func (d *Driver) anchorLabel(name string, sec *section.Section, isCode bool) error {
	if _, exists := d.codeRel[name]; exists {
		return utils.MakeError(ErrLabelRedefined, "%q", name)
	}
	if _, exists := d.dataRel[name]; exists {
		return utils.MakeError(ErrLabelRedefined, "%q", name)
	}

	sec.AnchorLabel(d.interner.Intern(name))
	if isCode {
		d.codeRel[name] = sec.Counter()
	} else {
		d.dataRel[name] = sec.Counter()
	}
	return nil
}

// emitInstruction expands a (possibly pseudo) instruction node eagerly,
// anchors its labels at the start of the expansion, and reserves one
// 8-byte slot per resulting primitive. ExpandedSize is computed the same
// way as the expansion it reserves space for, matching the pipeline's
// reserve-then-expand vocabulary even though both happen in one step here.
func (d *Driver) emitInstruction(n *ast.Node) error {
	size, err := ExpandedSize(n)
	if err != nil {
		return err
	}
	expanded, err := Expand(n)
	if err != nil {
		return err
	}
	if len(expanded) != size {
		return fmt.Errorf("assembler: %s expanded to %d instructions, expected %d", n.Kind, len(expanded), size)
	}

	for _, label := range n.Labels {
		if err := d.anchorLabel(label, d.code, true); err != nil {
			return err
		}
	}
	for _, prim := range expanded {
		offset := d.code.Reserve(8)
		d.slots = append(d.slots, codeSlot{offset: offset, node: prim})
	}
	return nil
}

// buildSymbolTableSkeleton adds one entry per discovered label plus the
// `.end` sentinel. Since every locally-anchored label's address is fully
// known by the time processText completes (offsets.code/offsets.data are
// already computed), the skeleton-then-final two pass of the original
// collapses into a single pass that writes addresses immediately; `.end`
// is the only entry whose address (offsets.end) isn't known until the
// debug section's size is computed, so its address is patched in after
// this call once that's available.
func (d *Driver) buildSymbolTableSkeleton() error {
	d.table = symtab.New()

	names := utils.Keys(d.allLabels)
	sort.Strings(names)
	names = append(names, ".end")

	for _, name := range names {
		idx, err := d.table.Add(name, d.symbolType(name))
		if err != nil {
			return err
		}
		d.symbolIndex[name] = idx
		if addr, ok := d.resolvedAddress(name); ok {
			d.table.SetAddress(idx, addr)
		}
		if target, ok := d.refTargets[name]; ok {
			if _, resolved := d.resolvedAddress(target); resolved {
				d.table.SetType(idx, symtab.TypeKnownPointer)
			} else {
				d.table.SetType(idx, symtab.TypeUnknownPointer)
			}
		}
	}
	return nil
}

func (d *Driver) symbolType(name string) symtab.Type {
	switch d.symbolKind[name] {
	case ast.SymbolDeclFunction:
		return symtab.TypeCode
	case ast.SymbolDeclObject:
		return symtab.TypeData
	}
	if _, ok := d.codeRel[name]; ok {
		return symtab.TypeCode
	}
	if _, ok := d.dataRel[name]; ok {
		return symtab.TypeData
	}
	return symtab.TypeUnknown
}

func (d *Driver) resolvedAddress(name string) (uint64, bool) {
	if rel, ok := d.codeRel[name]; ok {
		return d.offsets.Code + rel, true
	}
	if rel, ok := d.dataRel[name]; ok {
		return d.offsets.Data + rel, true
	}
	return 0, false
}

// symtabByteSize computes a table's encoded size without encoding it, so
// offsets.debug can be derived before the symbols section (which needs
// offsets.end for `.end`'s own address) is actually built.
func symtabByteSize(t *symtab.Table) int {
	total := 0
	for _, e := range t.Entries() {
		total += 16 + symtab.NameWordCount(e.Name)*8
	}
	return total
}

// processRelocation builds one relocation entry per label-carrying
// instruction immediate, and one per `.value`/`%ref` deferred slot.
func (d *Driver) processRelocation() {
	for _, slot := range d.slots {
		if slot.node.Imm.Kind != ast.ImmLabel {
			continue
		}
		kind := RelocationLower4
		if slot.node.Kind == ast.KindLui {
			kind = RelocationUpper4
		}
		d.relocations = append(d.relocations, Relocation{
			Kind:          kind,
			SymbolIndex:   d.symbolIndex[slot.node.Imm.Label],
			SectionOffset: d.offsets.Code + slot.offset,
		})
	}

	for _, vr := range d.valueRelocs {
		base := d.offsets.Code
		if vr.inData {
			base = d.offsets.Data
		}
		d.relocations = append(d.relocations, Relocation{
			Kind:          vr.kind,
			SymbolIndex:   -1,
			SectionOffset: base + vr.offset,
		})
	}
}

// symbolEnv resolves label names to their final absolute addresses, the
// environment `.size`/`.value` expressions evaluate against.
type symbolEnv struct {
	d *Driver
}

func (e symbolEnv) Resolve(name string) (int64, bool) {
	addr, ok := e.d.resolvedAddress(name)
	return int64(addr), ok
}

// evaluateExpressions resolves every `.size` declaration and every
// `.value`/`%ref` deferred slot against the completed symbol environment,
// patching each deferred slot's reserved bytes and filling its
// relocation's Offset with the evaluated value. `.size` declarations are
// purely declarative here (no symbol-table field records them); this
// still validates every declared size expression resolves, matching the
// original's symbolSizeExpressions validation.
func (d *Driver) evaluateExpressions() error {
	env := symbolEnv{d: d}

	for target, src := range d.sizeExprs {
		if _, err := expr.Evaluate(src, env); err != nil {
			return fmt.Errorf("assembler: .size %s: %w", target, err)
		}
	}

	relocByOffset := make(map[uint64]*Relocation, len(d.relocations))
	for i := range d.relocations {
		relocByOffset[d.relocations[i].SectionOffset] = &d.relocations[i]
	}

	for _, vr := range d.valueRelocs {
		v, err := expr.Evaluate(vr.expr, env)
		if err != nil {
			return fmt.Errorf("assembler: .value %q: %w", vr.expr, err)
		}

		buf := make([]byte, vr.width)
		switch vr.width {
		case 4:
			binary.LittleEndian.PutUint32(buf, uint32(v))
		case 8:
			binary.LittleEndian.PutUint64(buf, uint64(v))
		default:
			return fmt.Errorf("assembler: .value width %d is neither 4 nor 8", vr.width)
		}

		sec := d.code
		base := d.offsets.Code
		if vr.inData {
			sec, base = d.data, d.offsets.Data
		}
		if err := sec.Patch(vr.offset, buf); err != nil {
			return err
		}
		if reloc, ok := relocByOffset[base+vr.offset]; ok {
			reloc.Offset = v
		}
	}

	return nil
}

// expandLabels resolves every code slot's label immediate to a final
// value: the symbol's address when known locally, or its SHA-256 hash id
// flagged UnknownSymbol when not, then compiles the primitive and patches
// its reserved word.
func (d *Driver) expandLabels() error {
	for _, slot := range d.slots {
		n := slot.node
		if n.Imm.Kind == ast.ImmLabel {
			label := n.Imm.Label
			if addr, ok := d.resolvedAddress(label); ok {
				n.Imm = ast.NumberImmediate(int32(addr))
				n.Flags = ast.FlagKnownSymbol
			} else {
				n.Imm = ast.NumberImmediate(int32(symtab.EncodeSymbol(label)))
				n.Flags = ast.FlagUnknownSymbol
				if !d.unknownSymbols[label] {
					slog.Warn("unresolved symbol, emitting hash id", "label", label)
				}
				d.unknownSymbols[label] = true
			}
		}

		word, err := compileInstruction(n)
		if err != nil {
			return err
		}
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], word)
		if err := d.code.Patch(slot.offset, buf[:]); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) patchMetaHeader() error {
	words := []uint64{d.offsets.Symbols, d.offsets.Code, d.offsets.Data, d.offsets.Debug, d.offsets.End}
	for i, v := range words {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], v)
		if err := d.meta.Patch(uint64(i*8), buf[:]); err != nil {
			return err
		}
	}
	return nil
}
