package analyzer

import (
	"fmt"
	"strings"

	"golang.org/x/arch/x86/x86asm"
)

// Disassemble renders the matched stub in Intel syntax for diagnostics.
// code must start at the stub, va is where the stub lives. Bytes x86asm cannot
// decode are shown as db.
func (m Match) Disassemble(code []byte, va uint64, is64 bool) string {
	if !m.Recognized() || len(code) < m.Length {
		return ""
	}

	mode := 32
	if is64 {
		mode = 64
	}

	stub := code[:m.Length]
	var parts []string
	for off := 0; off < len(stub); {
		inst, err := x86asm.Decode(stub[off:], mode)
		if err != nil || inst.Len == 0 {
			parts = append(parts, fmt.Sprintf("db 0x%02x", stub[off]))
			off++
			continue
		}
		parts = append(parts, x86asm.IntelSyntax(inst, va+uint64(off), nil))
		off += inst.Len
	}
	return strings.Join(parts, "; ")
}
