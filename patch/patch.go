// Package patch holds the patch sites found by diffing a module against its
// clean copy. Sites are created by the scanner and annotated in place by the
// analyzer.
package patch

import (
	"fmt"
)

// Patch is one contiguous run of modified bytes inside a module
type Patch struct {
	ID         int
	StartRva   uint64
	EndRva     uint64 // exclusive
	ModuleBase uint64

	isHook       bool
	hookTargetVA uint64
}

// New creates a patch covering [startRva, endRva)
func New(id int, moduleBase, startRva, endRva uint64) *Patch {
	return &Patch{
		ID:         id,
		StartRva:   startRva,
		EndRva:     endRva,
		ModuleBase: moduleBase,
	}
}

// Size is the number of modified bytes
func (p *Patch) Size() uint64 {
	if p.EndRva < p.StartRva {
		return 0
	}
	return p.EndRva - p.StartRva
}

// SetHookTarget records the absolute address the patched code redirects to
func (p *Patch) SetHookTarget(va uint64) {
	p.hookTargetVA = va
	p.isHook = true
}

// HookTarget returns the resolved hook target, if any
func (p *Patch) HookTarget() (uint64, bool) {
	return p.hookTargetVA, p.isHook
}

// IsHook reports whether a hook target was resolved
func (p *Patch) IsHook() bool {
	return p.isHook
}

func (p *Patch) String() string {
	s := fmt.Sprintf("#%d %x-%x (%d bytes)", p.ID, p.StartRva, p.EndRva, p.Size())
	if p.isHook {
		s += fmt.Sprintf(" -> %x", p.hookTargetVA)
	}
	return s
}

// List is an ordered collection of patches
type List struct {
	patches []*Patch
}

// Insert appends a patch
func (l *List) Insert(p *Patch) {
	l.patches = append(l.patches, p)
}

// Len returns the number of patches
func (l *List) Len() int {
	return len(l.patches)
}

// Patches returns the patches in insertion order. The patches themselves are
// shared, so annotating them updates the list.
func (l *List) Patches() []*Patch {
	return l.patches
}

// Hooks returns the patches that have a resolved hook target
func (l *List) Hooks() []*Patch {
	var hooks []*Patch
	for _, p := range l.patches {
		if p.isHook {
			hooks = append(hooks, p)
		}
	}
	return hooks
}

// Reset drops every patch
func (l *List) Reset() {
	l.patches = nil
}
