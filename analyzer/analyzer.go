// Package analyzer recovers where a hook patch sends execution.
//
// It recognizes four redirection idioms by their leading bytes instead of
// running a disassembler: jmp/call rel32, jmp rel8, push imm32; ret and
// mov reg, imm; jmp/call reg.
package analyzer

import (
	"fmt"

	"memsieve/debuglog"
	"memsieve/patch"
)

// Config describes the patched section being analyzed. It is not modified.
type Config struct {
	// Module translates patch RVAs to absolute addresses
	Module ModuleData
	// PatchedCode is the local copy of the section holding the patches
	PatchedCode []byte
	// SectionRVA is the RVA PatchedCode starts at
	SectionRVA uint64
	// Is64Bit enables REX size modifiers
	Is64Bit bool
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithLogger sets the diagnostic sink. Stub disassembly for the debug lines is
// only produced when l is not the discarding logger.
func WithLogger(l debuglog.Logger) Option {
	return func(a *Analyzer) {
		if l == nil {
			l = debuglog.Discard()
		}
		a.log = l
		a.debugging = l != debuglog.Discard()
	}
}

// Analyzer resolves hook targets of patches inside one section
type Analyzer struct {
	cfg       Config
	log       debuglog.Logger
	debugging bool

	disassemble func(m Match, code []byte, va uint64, is64 bool) string
}

// New creates an Analyzer. cfg.Module must not be nil.
func New(cfg Config, opts ...Option) *Analyzer {
	a := &Analyzer{
		cfg:         cfg,
		log:         debuglog.Discard(),
		disassemble: Match.Disassemble,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// window returns the patched bytes starting at rva
func (a *Analyzer) window(rva uint64) ([]byte, bool) {
	if rva < a.cfg.SectionRVA {
		return nil, false
	}
	offset := rva - a.cfg.SectionRVA
	if offset >= uint64(len(a.cfg.PatchedCode)) {
		return nil, false
	}
	return a.cfg.PatchedCode[offset:], true
}

// Analyze decodes the stub at the start of p and records its hook target.
// It returns the number of bytes the stub occupies, or 0 when no idiom was
// recognized; that is not an error, the patch simply has no resolved target.
func (a *Analyzer) Analyze(p *patch.Patch) int {
	code, ok := a.window(p.StartRva)
	if !ok {
		a.log.Debugln("Patch", p.ID, fmt.Sprintf("at %x", p.StartRva), "is outside the section")
		return 0
	}

	va := a.cfg.Module.RvaToVa(p.StartRva)
	m := Decode(code, va, a.cfg.Is64Bit)
	if !m.Recognized() {
		a.log.Debugln("Patch", p.ID, fmt.Sprintf("at %x", va), "matches no known idiom")
		return 0
	}

	p.SetHookTarget(m.Target)
	if a.debugging {
		a.log.Debugln("---->", m.Idiom.String(), fmt.Sprintf("%x: %s", va, a.disassemble(m, code, va, a.cfg.Is64Bit)),
			fmt.Sprintf("target: %x", m.Target))
	}
	return m.Length
}

// AnalyzeList runs Analyze over every patch and returns how many got a hook target
func (a *Analyzer) AnalyzeList(list *patch.List) int {
	resolved := 0
	for _, p := range list.Patches() {
		if a.Analyze(p) > 0 {
			resolved++
		}
	}
	return resolved
}
