package analyzer

import (
	"encoding/binary"
	"fmt"
)

const (
	opJmp       = 0xE9
	opCallDword = 0xFF
	opShortJmp  = 0xEB
	opPushDword = 0x68
	opRet       = 0xC3
	opMovFirst  = 0xB8
	opMovLast   = 0xBF

	opJmpRegFirst  = 0xE0
	opJmpRegLast   = 0xEF
	opCallRegFirst = 0xD0
	opCallRegLast  = 0xDF

	rexFirst  = 0x40
	rexWFirst = 0x48
	rexLast   = 0x4F
)

// Idiom is one of the recognized redirection shapes
type Idiom int

const (
	IdiomNone Idiom = iota
	// IdiomNearJump is jmp/call rel32 (E9 or FF lead byte)
	IdiomNearJump
	// IdiomShortJump is jmp rel8
	IdiomShortJump
	// IdiomPushRet is push imm32; ret
	IdiomPushRet
	// IdiomMovJump is mov reg, imm; jmp reg or call reg
	IdiomMovJump
)

func (i Idiom) String() string {
	switch i {
	case IdiomNearJump:
		return "near-jmp"
	case IdiomShortJump:
		return "short-jmp"
	case IdiomPushRet:
		return "push-ret"
	case IdiomMovJump:
		return "mov-jmp"
	}
	return "none"
}

// Match is the outcome of decoding a hook stub. A zero Length means no idiom
// was recognized.
type Match struct {
	Idiom  Idiom
	Length int
	Target uint64
}

// Recognized reports whether an idiom matched
func (m Match) Recognized() bool {
	return m.Length > 0
}

func (m Match) String() string {
	if !m.Recognized() {
		return "unrecognized"
	}
	return fmt.Sprintf("%s (%d bytes) -> %x", m.Idiom, m.Length, m.Target)
}

// matcher claims a window by its leading bytes and then decodes it. The first
// matcher that claims a window decides the result, even when decoding fails.
type matcher struct {
	idiom  Idiom
	claims func(code []byte, is64 bool) bool
	decode func(code []byte, va uint64, is64 bool) (Match, bool)
}

var matchers = []matcher{
	{
		idiom: IdiomNearJump,
		claims: func(code []byte, _ bool) bool {
			return code[0] == opJmp || code[0] == opCallDword
		},
		decode: decodeNearJump,
	},
	{
		idiom: IdiomShortJump,
		claims: func(code []byte, _ bool) bool {
			return code[0] == opShortJmp
		},
		decode: decodeShortJump,
	},
	{
		idiom: IdiomPushRet,
		claims: func(code []byte, _ bool) bool {
			return code[0] == opPushDword
		},
		decode: decodePushRet,
	},
	{
		idiom:  IdiomMovJump,
		claims: claimsMov,
		decode: decodeMovJump,
	},
}

// Decode classifies the stub at the start of code, which lives at va.
// is64 enables REX prefixes as size modifiers.
func Decode(code []byte, va uint64, is64 bool) Match {
	if len(code) == 0 {
		return Match{}
	}
	for _, m := range matchers {
		if !m.claims(code, is64) {
			continue
		}
		match, ok := m.decode(code, va, is64)
		if !ok {
			return Match{}
		}
		match.Idiom = m.idiom
		return match
	}
	return Match{}
}

// jumpDestination wraps like the CPU does
func jumpDestination(va uint64, instrLen int, delta int64) uint64 {
	return va + uint64(int64(instrLen)+delta)
}

func decodeNearJump(code []byte, va uint64, _ bool) (Match, bool) {
	const instrLen = 5
	if len(code) < instrLen {
		return Match{}, false
	}
	disp := int32(binary.LittleEndian.Uint32(code[1:5]))
	return Match{
		Length: instrLen,
		Target: jumpDestination(va, instrLen, int64(disp)),
	}, true
}

func decodeShortJump(code []byte, va uint64, _ bool) (Match, bool) {
	const instrLen = 2
	if len(code) < instrLen {
		return Match{}, false
	}
	disp := int8(code[1])
	return Match{
		Length: instrLen,
		Target: jumpDestination(va, instrLen, int64(disp)),
	}, true
}

func decodePushRet(code []byte, _ uint64, _ bool) (Match, bool) {
	const pushLen = 5
	if len(code) < pushLen+1 || code[pushLen] != opRet {
		return Match{}, false
	}
	return Match{
		Length: pushLen + 1,
		Target: uint64(binary.LittleEndian.Uint32(code[1:5])),
	}, true
}

// isModifier reports whether op is a REX prefix, which only exists in 64-bit code
func isModifier(op byte, is64 bool) bool {
	return is64 && op >= rexFirst && op <= rexLast
}

// isLongModifier reports whether op is a REX.W prefix selecting a 64-bit operand
func isLongModifier(op byte, is64 bool) bool {
	return is64 && op >= rexWFirst && op <= rexLast
}

func isMov(op byte) bool {
	return op >= opMovFirst && op <= opMovLast
}

func claimsMov(code []byte, is64 bool) bool {
	op := code[0]
	if isModifier(op, is64) {
		if len(code) < 2 {
			return false
		}
		op = code[1]
	}
	return isMov(op)
}

// decodeMovJump decodes [REX] mov reg, imm; [REX] jmp/call reg.
// The register moved into must be the one jumped through.
func decodeMovJump(code []byte, _ uint64, is64 bool) (Match, bool) {
	isLong := isLongModifier(code[0], is64)

	movLen := 5
	if isLong {
		movLen = 9
	}
	movAt := 0
	jmpAt := movLen
	if isModifier(code[0], is64) {
		movAt++
		jmpAt++
		movLen++
	}

	if len(code) <= jmpAt {
		return Match{}, false
	}
	// the jmp/call may carry its own modifier
	if isModifier(code[jmpAt], is64) {
		jmpAt++
		movLen++
	}
	if len(code) < jmpAt+2 || code[jmpAt] != opCallDword {
		return Match{}, false
	}

	movReg := code[movAt] - opMovFirst
	var jmpReg byte
	switch op := code[jmpAt+1]; {
	case op >= opJmpRegFirst && op <= opJmpRegLast:
		jmpReg = op - opJmpRegFirst
	case op >= opCallRegFirst && op <= opCallRegLast:
		jmpReg = op - opCallRegFirst
	default:
		return Match{}, false
	}
	if movReg != jmpReg {
		return Match{}, false
	}

	var target uint64
	if isLong {
		target = binary.LittleEndian.Uint64(code[movAt+1 : movAt+9])
	} else {
		target = uint64(binary.LittleEndian.Uint32(code[movAt+1 : movAt+5]))
	}

	return Match{
		Length: movLen + 2,
		Target: target,
	}, true
}
