//go:build linux
// +build linux

package sgfile

import (
	"os"

	"golang.org/x/sys/unix"
)

// mapWrite establishes a read-write, process-shared mapping of the first
// size bytes of f. size must already equal the file's length.
func mapWrite(f *os.File, size int64) ([]byte, error) {
	return unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

// mapRead establishes a read-only mapping of the first size bytes of f.
func mapRead(f *os.File, size int64) ([]byte, error) {
	return unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
}

func unmap(buf []byte) error {
	return unix.Munmap(buf)
}

// remap grows or shrinks an existing mapping in place where possible,
// falling back to moving it (MREMAP_MAYMOVE) when the kernel cannot extend
// it without relocating the mapping. f is unused on Linux but kept in the
// signature so callers are portable across the non-Linux fallback, which
// has no mremap(2) and must re-open the mapping from the file.
func remap(f *os.File, buf []byte, newSize int64) ([]byte, error) {
	return unix.Mremap(buf, int(newSize), unix.MREMAP_MAYMOVE)
}

func ftruncate(f *os.File, size int64) error {
	if err := f.Truncate(size); err != nil {
		return err
	}
	if size == 0 {
		return nil
	}
	// pre-allocate backing blocks so later page faults on the mapping
	// cannot fail with SIGBUS due to a sparse, under-provisioned file
	return unix.Fallocate(int(f.Fd()), 0, 0, size)
}
