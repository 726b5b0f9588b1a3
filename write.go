package scatgat

import (
	"golang.org/x/exp/constraints"

	"github.com/anyoung/scatgat/sgfile"
	"github.com/anyoung/scatgat/vdif"
)

func minInt[T constraints.Integer](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// WriteFrames accepts a caller buffer of n VDIF frames and distributes
// them as whole blocks across stripe entries, round-robin starting from
// the entry with the smallest iblock. It returns the number of frames
// written; frames of a block whose write failed are not counted, and the
// failure is reported through the plan's Logger.
func (p *Plan) WriteFrames(buf []byte, n int) (int, error) {
	if err := p.requireMode(ModeWrite); err != nil {
		return -1, err
	}
	if n == 0 {
		return 0, nil
	}

	if p.isFirstWrite() {
		hdr, err := vdif.Decode(buf)
		if err != nil {
			return -1, err
		}
		packetSize := hdr.PacketSize()
		for _, e := range p.entries {
			e.meta.PacketSize = packetSize
			e.meta.PacketOffset = vdif.HeaderSize
			e.meta.FirstSecs = hdr.SecsInRe
			e.meta.FirstFrame = hdr.DFNumInSec
			e.meta.RefEpoch = hdr.RefEpoch
		}
	}
	packetSize := p.entries[0].meta.PacketSize
	framesPerBlock := int(p.tunables.WBlockSize) / packetSize
	if framesPerBlock == 0 {
		framesPerBlock = 1
	}

	firstIdx := p.smallestIBlockIndex()
	ne := len(p.entries)
	framesWritten, framesFailed := 0, 0
	for framesWritten < n {
		type dispatch struct{ idx, frames int }
		batch := make([]dispatch, 0, ne)
		for t := 0; t < ne && framesWritten < n; t++ {
			idx := (firstIdx + t) % ne
			nFr := minInt(n-framesWritten, framesPerBlock)
			e := p.entries[idx]
			e.pending = buf[framesWritten*packetSize : (framesWritten+nFr)*packetSize]
			batch = append(batch, dispatch{idx: idx, frames: nFr})
			framesWritten += nFr
		}
		errs := fanOut(batch, func(_ int, d dispatch) error {
			e := p.entries[d.idx]
			err := writeBlock(e, p.tunables, framesPerBlock)
			e.pending = nil
			return err
		})
		for i, err := range errs {
			if err != nil {
				p.errorf("scatgat: WriteFrames: entry %d: %v", batch[i].idx, err)
				framesFailed += batch[i].frames
			}
		}
	}
	return framesWritten - framesFailed, nil
}

// writeBlock persists one entry's pending block: a file header if this is
// the first block in the file, then a write-block header, then the
// payload.
func writeBlock(e *entry, tun Tunables, framesPerBlock int) error {
	growBy := tun.growthSize()
	if e.iblock == 0 {
		fh := sgfile.FileHeader{
			SyncWord:     sgfile.SyncWord,
			FileVersion:  sgfile.FileVersion,
			PacketFormat: sgfile.PacketFormatVDIF,
			PacketSize:   uint32(e.meta.PacketSize),
			BlockSize:    uint32(e.meta.PacketSize*framesPerBlock) + sgfile.BlockHeaderSize,
		}
		hdrBuf := make([]byte, sgfile.FileHeaderSize)
		fh.Encode(hdrBuf)
		if err := e.meta.Append(hdrBuf, growBy); err != nil {
			return err
		}
	}
	bh := sgfile.BlockHeader{
		BlockNum: uint64(e.iblock),
		WBSize:   uint32(len(e.pending)) + sgfile.BlockHeaderSize,
	}
	bhBuf := make([]byte, sgfile.BlockHeaderSize)
	bh.Encode(bhBuf)
	if err := e.meta.Append(bhBuf, growBy); err != nil {
		return err
	}
	if err := e.meta.Append(e.pending, growBy); err != nil {
		return err
	}
	e.iblock++
	return nil
}

// isFirstWrite reports whether every entry is still at block zero. If an
// earlier call partially failed (some entries advanced, some didn't
// because of an mmap failure), a later call will not re-emit the file
// header for the stragglers. Callers observing per-entry errors should
// recreate the plan rather than retry in place.
func (p *Plan) isFirstWrite() bool {
	for _, e := range p.entries {
		if e.iblock != 0 {
			return false
		}
	}
	return true
}

// smallestIBlockIndex returns the index of the entry with the smallest
// iblock, breaking ties at the lowest index.
func (p *Plan) smallestIBlockIndex() int {
	best := 0
	for i, e := range p.entries {
		if e.iblock < p.entries[best].iblock {
			best = i
		}
	}
	return best
}
