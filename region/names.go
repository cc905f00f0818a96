package region

import (
	"fmt"
)

// LoadModuleName resolves the short module name of the region's allocation base.
// The metadata must already be filled.
func (s *Snapshot) LoadModuleName() error {
	if !s.IsInfoFilled() {
		return fmt.Errorf("%w: region info not filled", ErrNameResolution)
	}

	name := s.target.ModuleName(s.AllocationBase())
	if name == "" {
		s.log.Debugln("Could not retrieve module name for", s.AllocationBase().ToString())
		return fmt.Errorf("%w: no module at %s", ErrNameResolution, s.AllocationBase().ToString())
	}

	s.moduleName = name
	return nil
}

// LoadMappedName resolves the full path of the file mapped at the region's
// allocation base, filling the metadata first if needed
func (s *Snapshot) LoadMappedName() error {
	if !s.IsInfoFilled() {
		if err := s.FillInfo(); err != nil {
			return err
		}
	}

	name := s.target.MappedName(s.AllocationBase())
	if name == "" {
		s.log.Debugln("Could not retrieve mapped name for", s.AllocationBase().ToString())
		return fmt.Errorf("%w: no mapped file at %s", ErrNameResolution, s.AllocationBase().ToString())
	}

	s.mappedName = name
	return nil
}
