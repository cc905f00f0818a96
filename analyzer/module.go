package analyzer

// ModuleData translates module-relative addresses of the module being analyzed
type ModuleData interface {
	RvaToVa(rva uint64) uint64
}

// LoadedModule is a module mapped at Base in the target process
type LoadedModule struct {
	Base uint64
}

func (m LoadedModule) RvaToVa(rva uint64) uint64 {
	return m.Base + rva
}
