//go:build !linux
// +build !linux

package sgfile

import (
	"os"

	"golang.org/x/sys/unix"
)

func mapWrite(f *os.File, size int64) ([]byte, error) {
	return unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

func mapRead(f *os.File, size int64) ([]byte, error) {
	return unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
}

func unmap(buf []byte) error {
	return unix.Munmap(buf)
}

// remap has no portable equivalent of Linux's mremap(2), so growth is
// done the slow way: unmap, then map again at a (possibly different)
// address over the file, which the caller must already have resized via
// ftruncate. The old slice is invalid the moment this function is called.
func remap(f *os.File, buf []byte, newSize int64) ([]byte, error) {
	if err := unix.Munmap(buf); err != nil {
		return nil, err
	}
	return mapWrite(f, newSize)
}

func ftruncate(f *os.File, size int64) error {
	return f.Truncate(size)
}
