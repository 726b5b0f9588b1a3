package scatgat

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// makeFrame builds one VDIF frame of size packetSize (>= vdif.HeaderSize)
// with the given timestamp and a payload of repeated fill bytes, useful
// for round-trip byte-exactness checks.
func makeFrame(packetSize int, secs, frame uint32, fill byte) []byte {
	buf := make([]byte, packetSize)
	binary.LittleEndian.PutUint32(buf[0:4], secs&0x3FFFFFFF)
	binary.LittleEndian.PutUint32(buf[4:8], (5&0x3F)<<24|(frame&0x00FFFFFF))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(packetSize/8))
	for i := vdifHeaderSizeForTest; i < packetSize; i++ {
		buf[i] = fill
	}
	return buf
}

const vdifHeaderSizeForTest = 32

func testTopology(t *testing.T, modules, disks []int) Topology {
	t.Helper()
	dir := t.TempDir()
	for _, m := range modules {
		for _, d := range disks {
			if err := os.MkdirAll(filepath.Join(dir, modDiskSubdir(m, d)), 0755); err != nil {
				t.Fatal(err)
			}
		}
	}
	tun := DefaultTunables()
	tun.WBlockSize = 8192 * 4 // small block size to keep tests fast
	return Topology{
		PathFormat: filepath.Join(dir, "%d", "%d", "%s"),
		Modules:    modules,
		Disks:      disks,
		Tunables:   tun,
	}
}

func modDiskSubdir(m, d int) string {
	return filepath.Join(strconv.Itoa(m), strconv.Itoa(d))
}
