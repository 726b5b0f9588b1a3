package scatgat

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// Tunables are the sizing constants governing write-mode mmap growth,
// exposed as runtime configuration rather than compiled in.
type Tunables struct {
	// InitialSizeInBlocks is the initial mmap size per write-mode file,
	// in units of WBlockSize. Default 1000.
	InitialSizeInBlocks int
	// GrowthSizeInBlocks is the mmap growth step, in units of
	// WBlockSize. Default 1000.
	GrowthSizeInBlocks int
	// WBlockSize is the standard write-block size in bytes, owned by the
	// SG file format but kept here as a configuration value rather than
	// a hard-coded constant shared across processes.
	WBlockSize int64
}

// DefaultTunables returns the conventional sizing used when a caller
// does not override Tunables explicitly.
func DefaultTunables() Tunables {
	return Tunables{
		InitialSizeInBlocks: 1000,
		GrowthSizeInBlocks:  1000,
		WBlockSize:          1 << 23, // 8 MiB, a typical VDIF write-block size
	}
}

func (t Tunables) initialSize() int64 {
	return int64(t.InitialSizeInBlocks) * t.WBlockSize
}

func (t Tunables) growthSize() int64 {
	return int64(t.GrowthSizeInBlocks) * t.WBlockSize
}

// Topology describes the module×disk grid and the path template used to
// locate SG files.
type Topology struct {
	// PathFormat is a format string with two integer slots and one
	// string slot, applied as fmt.Sprintf(PathFormat, module, disk,
	// pattern) -- e.g. "/mnt/disks/%d/%d/data/%s".
	PathFormat string   `json:"pathFormat"`
	Modules    []int    `json:"modules"`
	Disks      []int    `json:"disks"`
	Tunables   Tunables `json:"tunables"`
}

// Path composes the on-disk path for a given (module, disk, pattern)
// grid cell.
func (t Topology) Path(module, disk int, pattern string) string {
	return fmt.Sprintf(t.PathFormat, module, disk, pattern)
}

// LoadTopology reads a YAML-encoded Topology from path. This is an
// ambient convenience for deployments that keep the module×disk grid and
// tunables in a checked-in config file; scatgat's core API never requires
// it (Topology can equally be constructed in code).
func LoadTopology(path string) (Topology, error) {
	var t Topology
	buf, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("scatgat: reading topology %s: %w", path, err)
	}
	if err := yaml.Unmarshal(buf, &t); err != nil {
		return t, fmt.Errorf("scatgat: parsing topology %s: %w", path, err)
	}
	if t.Tunables == (Tunables{}) {
		t.Tunables = DefaultTunables()
	}
	return t, nil
}
