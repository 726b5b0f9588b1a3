// Package sgfile implements the external SG-file access layer that
// scatgat's plan, read, and write engines consume: opening SG files for
// read or write, growing and shrinking the write-mode memory map, locating
// the byte range of a given block, and reporting file metadata for
// diagnostics. None of this package knows about stitching blocks across
// files in time order; that is scatgat's job.
package sgfile

import (
	"fmt"
	"io"
	"os"

	"github.com/anyoung/scatgat/vdif"
)

// blockSpan records where one write-block's payload lives inside a
// read-mode mapping, discovered once at open time by walking the block
// headers (block sizes are not uniform: the final block in a file is
// usually short).
type blockSpan struct {
	start  int64
	frames int
}

// Meta is the in-memory record of a single SG file: its format fields
// and, while open, its file descriptor and memory-map state.
type Meta struct {
	Name         string
	Valid        bool // false if open failed; callers must check before use
	PacketSize   int
	PacketOffset int
	RefEpoch     uint32
	FirstSecs    uint32
	FirstFrame   uint32
	TotalBlocks  int64
	StdBlockPkts int // nominal frames per standard write-block

	readOnly bool
	file     *os.File
	base     []byte
	blocks   []blockSpan // read-mode only

	MappedSize int64
	BytesUsed  int64
}

// OpenRead opens path for reading and, on success, memory-maps the whole
// file read-only and indexes its write-blocks. On failure it returns a
// Meta with Valid == false and a non-nil error; the caller is expected
// to test Valid (or the error) and drop the entry rather than abort.
func OpenRead(path string) (*Meta, error) {
	m := &Meta{Name: path}
	f, err := os.Open(path)
	if err != nil {
		return m, fmt.Errorf("sgfile: open %s: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return m, fmt.Errorf("sgfile: stat %s: %w", path, err)
	}
	size := fi.Size()
	if size < FileHeaderSize {
		f.Close()
		return m, fmt.Errorf("sgfile: %s too small to hold a file header", path)
	}
	buf, err := mapRead(f, size)
	if err != nil {
		f.Close()
		return m, fmt.Errorf("sgfile: mmap %s: %w", path, err)
	}
	fh, ok := DecodeFileHeader(buf)
	if !ok {
		unmap(buf)
		f.Close()
		return m, fmt.Errorf("sgfile: %s is not a valid SG file", path)
	}

	var blocks []blockSpan
	offset := int64(FileHeaderSize)
	for offset+BlockHeaderSize <= size {
		bh := DecodeBlockHeader(buf[offset : offset+BlockHeaderSize])
		payloadStart := offset + BlockHeaderSize
		payloadLen := int64(bh.WBSize) - BlockHeaderSize
		if payloadLen < 0 || payloadStart+payloadLen > size || fh.PacketSize == 0 {
			break
		}
		frames := int(payloadLen) / int(fh.PacketSize)
		blocks = append(blocks, blockSpan{start: payloadStart, frames: frames})
		offset = payloadStart + payloadLen
	}

	var firstSecs, firstFrame uint32
	var refEpoch uint32
	if len(blocks) > 0 && blocks[0].frames > 0 {
		hdr, err := vdif.Decode(buf[blocks[0].start:])
		if err == nil {
			firstSecs = hdr.SecsInRe
			firstFrame = hdr.DFNumInSec
			refEpoch = hdr.RefEpoch
		}
	}
	stdBlockPkts := 0
	if len(blocks) > 0 {
		stdBlockPkts = blocks[0].frames
	}

	m.Valid = true
	m.PacketSize = int(fh.PacketSize)
	m.RefEpoch = refEpoch
	m.FirstSecs = firstSecs
	m.FirstFrame = firstFrame
	m.TotalBlocks = int64(len(blocks))
	m.StdBlockPkts = stdBlockPkts
	m.readOnly = true
	m.file = f
	m.base = buf
	m.blocks = blocks
	m.MappedSize = size
	m.BytesUsed = size
	return m, nil
}

// OpenWrite creates (truncating any existing file) path, grows it to
// initialSize, and maps it read-write. BytesUsed starts at zero even
// though MappedSize is already initialSize: the file is deliberately
// over-allocated up front.
func OpenWrite(path string, initialSize int64) (*Meta, error) {
	m := &Meta{Name: path}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_TRUNC|os.O_CREATE, 0664)
	if err != nil {
		return m, fmt.Errorf("sgfile: create %s: %w", path, err)
	}
	if err := ftruncate(f, initialSize); err != nil {
		f.Close()
		os.Remove(path)
		return m, fmt.Errorf("sgfile: truncate %s: %w", path, err)
	}
	buf, err := mapWrite(f, initialSize)
	if err != nil {
		f.Close()
		os.Remove(path)
		return m, fmt.Errorf("sgfile: mmap %s: %w", path, err)
	}
	m.Valid = true
	m.file = f
	m.base = buf
	m.MappedSize = initialSize
	m.BytesUsed = 0
	return m, nil
}

// PacketsByBlock returns the payload bytes of write-block k and the number
// of frames it contains, or ok == false if k is out of range.
func (m *Meta) PacketsByBlock(k int64) (data []byte, n int, ok bool) {
	if k < 0 || k >= int64(len(m.blocks)) {
		return nil, 0, false
	}
	b := m.blocks[k]
	end := b.start + int64(b.frames*m.PacketSize)
	return m.base[b.start:end:end], b.frames, true
}

// Grow extends a write-mode mapping to newSize, re-mapping the backing
// file as needed. newSize must be >= MappedSize.
func (m *Meta) Grow(newSize int64) error {
	if newSize <= m.MappedSize {
		return nil
	}
	if err := ftruncate(m.file, newSize); err != nil {
		return fmt.Errorf("sgfile: grow %s: truncate: %w", m.Name, err)
	}
	nb, err := remap(m.file, m.base, newSize)
	if err != nil {
		return fmt.Errorf("sgfile: grow %s: remap: %w", m.Name, err)
	}
	m.base = nb
	m.MappedSize = newSize
	return nil
}

// Append copies src onto the end of the used region, growing the mapping
// in increments of growBy until it fits.
func (m *Meta) Append(src []byte, growBy int64) error {
	n := int64(len(src))
	for m.BytesUsed+n > m.MappedSize {
		if err := m.Grow(m.MappedSize + growBy); err != nil {
			return err
		}
	}
	copy(m.base[m.BytesUsed:], src)
	m.BytesUsed += n
	return nil
}

// Shrink releases a write-mode mapping and truncates the backing file to
// exactly BytesUsed bytes, undoing the over-allocation made at OpenWrite
// time. Call it once a write plan is done appending; afterwards the Meta
// holds no mapping and only Close remains to be called.
func (m *Meta) Shrink() error {
	if err := unmap(m.base); err != nil {
		return fmt.Errorf("sgfile: shrink %s: unmap: %w", m.Name, err)
	}
	m.base = nil
	if err := m.file.Truncate(m.BytesUsed); err != nil {
		return fmt.Errorf("sgfile: shrink %s: truncate: %w", m.Name, err)
	}
	m.MappedSize = m.BytesUsed
	return nil
}

// Close releases the mapping and file descriptor. It is safe to call on
// an invalid or already-closed Meta.
func (m *Meta) Close() error {
	if !m.Valid {
		return nil
	}
	var err error
	if m.base != nil {
		err = unmap(m.base)
		m.base = nil
	}
	if m.file != nil {
		if cerr := m.file.Close(); err == nil {
			err = cerr
		}
		m.file = nil
	}
	return err
}

// Unlink removes the backing file. Used to discard an SG file that never
// received any writes.
func (m *Meta) Unlink() error {
	return os.Remove(m.Name)
}

// Report writes a human-readable dump of m's fields to w, for diagnostic
// tooling that needs to inspect a stripe's state without a debugger.
func (m *Meta) Report(w io.Writer) {
	fmt.Fprintf(w, "%s: packet_size=%d total_blocks=%d bytes_used=%d mapped_size=%d first=(%d,%d)\n",
		m.Name, m.PacketSize, m.TotalBlocks, m.BytesUsed, m.MappedSize, m.FirstSecs, m.FirstFrame)
}

func (m *Meta) String() string {
	return fmt.Sprintf("sgfile.Meta{%s valid=%v packet_size=%d total_blocks=%d}",
		m.Name, m.Valid, m.PacketSize, m.TotalBlocks)
}
