package layout

import (
	"fmt"
	"sort"
)

// Target describes the ABI target triple and its pointer properties.
type Target struct {
	Triple     string // e.g. "x86_64-unknown-linux-gnu"
	DataLayout string
	PtrSize    int // bytes
	PtrAlign   int // bytes
}

// PtrBits is the pointer width in bits.
func (t Target) PtrBits() int {
	if t.PtrSize <= 0 {
		return 64
	}
	return t.PtrSize * 8
}

func X86_64LinuxGNU() Target {
	return Target{
		Triple:     "x86_64-unknown-linux-gnu",
		DataLayout: "e-m:e-p270:32:32-p271:32:32-p272:64:64-i64:64-i128:128-f80:128-n8:16:32:64-S128",
		PtrSize:    8,
		PtrAlign:   8,
	}
}

func AArch64LinuxGNU() Target {
	return Target{
		Triple:     "aarch64-unknown-linux-gnu",
		DataLayout: "e-m:e-i8:8:32-i16:16:32-i64:64-i128:128-n32:64-S128",
		PtrSize:    8,
		PtrAlign:   8,
	}
}

func I686LinuxGNU() Target {
	return Target{
		Triple:     "i686-unknown-linux-gnu",
		DataLayout: "e-m:e-p:32:32-p270:32:32-p271:32:32-p272:64:64-i128:128-f64:32:64-f80:32-n8:16:32-S128",
		PtrSize:    4,
		PtrAlign:   4,
	}
}

var knownTargets = map[string]func() Target{
	"x86_64-unknown-linux-gnu":  X86_64LinuxGNU,
	"x86_64-linux-gnu":          X86_64LinuxGNU,
	"aarch64-unknown-linux-gnu": AArch64LinuxGNU,
	"aarch64-linux-gnu":         AArch64LinuxGNU,
	"i686-unknown-linux-gnu":    I686LinuxGNU,
	"i686-linux-gnu":            I686LinuxGNU,
}

// TargetByTriple resolves a triple; empty selects the default x86_64 target.
func TargetByTriple(triple string) (Target, error) {
	if triple == "" {
		return X86_64LinuxGNU(), nil
	}
	mk, ok := knownTargets[triple]
	if !ok {
		return Target{}, fmt.Errorf("unsupported target %q", triple)
	}
	return mk(), nil
}

// KnownTriples lists the canonical triple of every supported target.
func KnownTriples() []string {
	seen := make(map[string]struct{}, len(knownTargets))
	out := make([]string, 0, len(knownTargets))
	for _, mk := range knownTargets {
		t := mk().Triple
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
