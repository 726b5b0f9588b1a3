package scatgat

import (
	"github.com/anyoung/scatgat/sgfile"
	"github.com/anyoung/scatgat/vdif"
)

// entry is one stripe shard's state inside a Plan: its file metadata, its
// next block position, and at most one buffered block of frames.
type entry struct {
	module, disk int
	meta         *sgfile.Meta

	iblock int64  // next block to read from / write to
	buffer []byte // at most one block's worth of frames; nil when empty
	frames int    // frames in buffer; 0 iff buffer is empty

	// write mode only: a transient, non-owning view into the caller's
	// input buffer for the block currently being dispatched to a worker.
	pending []byte

	span vdif.Span // timestamps of buffer's first/last frame, valid iff frames > 0
}

func newEntry(module, disk int, meta *sgfile.Meta) *entry {
	return &entry{module: module, disk: disk, meta: meta}
}

// live reports whether the entry currently holds a buffered block.
func (e *entry) live() bool {
	return e.frames > 0
}

// firstTimestamp returns the timestamp used to order read-plan entries at
// build time: the first frame ever written to the file.
func (e *entry) firstTimestamp() vdif.Timestamp {
	return vdif.Timestamp{Secs: e.meta.FirstSecs, Frame: e.meta.FirstFrame}
}

// setBuffer installs data as the entry's buffered block, decoding the
// first and last frame headers to establish its Span for ordering &
// continuity. data must hold exactly frames whole VDIF packets.
func (e *entry) setBuffer(data []byte, frames int) error {
	if frames == 0 {
		e.buffer, e.frames = nil, 0
		return nil
	}
	ps := e.meta.PacketSize
	first, err := vdif.Decode(data[:ps])
	if err != nil {
		return err
	}
	last, err := vdif.Decode(data[(frames-1)*ps:])
	if err != nil {
		return err
	}
	e.buffer = data
	e.frames = frames
	e.span = vdif.Span{First: first.Timestamp(), Last: last.Timestamp()}
	return nil
}

// clearBuffer discards the buffered block, as happens once its frames
// have been appended to a read's output buffer.
func (e *entry) clearBuffer() {
	e.buffer = nil
	e.frames = 0
}
