// Package engines selects a db.Engine implementation by name.
package engines

import (
	"fmt"

	"github.com/ValentinKolb/respkv/lib/db"
	"github.com/ValentinKolb/respkv/lib/db/engines/memory"
)

// Options are the settings shared by all engine implementations
type Options struct {
	NumShards int // Number of shards (0 = number of CPUs)
}

// Implementations returns the names of all available engines
func Implementations() []db.Implementation {
	return []db.Implementation{db.ImplMemory}
}

// New creates the engine identified by impl
func New(impl db.Implementation, opts *Options) (db.Engine, error) {
	if opts == nil {
		opts = &Options{}
	}
	switch impl {
	case db.ImplMemory:
		return memory.New(&memory.Options{NumShards: opts.NumShards}), nil
	default:
		return nil, fmt.Errorf("unknown engine implementation %q (available: %v)", impl, Implementations())
	}
}
