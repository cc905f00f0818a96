package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// addrValue is a pflag.Value accepting addresses in hex, with or without 0x
type addrValue uint64

var _ pflag.Value = (*addrValue)(nil)

func (a *addrValue) String() string {
	return fmt.Sprintf("0x%x", uint64(*a))
}

func (a *addrValue) Set(s string) error {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 64)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", s, err)
	}
	*a = addrValue(v)
	return nil
}

func (a *addrValue) Type() string {
	return "address"
}

func addrFlag(flags *pflag.FlagSet, p *uint64, name, usage string) {
	flags.Var((*addrValue)(p), name, usage)
}

// parseHexBytes accepts "eb 05", "eb05" or "\xeb\x05"
func parseHexBytes(args []string) ([]byte, error) {
	s := strings.Join(args, "")
	s = strings.ReplaceAll(s, `\x`, "")
	s = strings.ReplaceAll(s, "0x", "")
	s = strings.NewReplacer(" ", "", ",", "", ":", "").Replace(s)

	code, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid stub bytes: %w", err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("no stub bytes given")
	}
	return code, nil
}
