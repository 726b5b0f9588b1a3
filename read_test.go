package scatgat

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/anyoung/scatgat/sgfile"
)

func TestReadNextBlockRoundTrip(t *testing.T) {
	// T5: a full write/read round trip through a contiguous stream must
	// reproduce the original bytes exactly, in order.
	topo := testTopology(t, []int{1}, []int{1, 2, 3})
	packetSize := 64
	framesPerBlock := int(topo.Tunables.WBlockSize) / packetSize
	n := framesPerBlock*3 + framesPerBlock/2 // several full blocks plus a short one

	frames := make([]byte, 0, n*packetSize)
	for i := 0; i < n; i++ {
		frames = append(frames, makeFrame(packetSize, 200, uint32(i), byte(i))...)
	}

	wp, cnt := BuildWritePlan("roundtrip.sg", topo)
	if cnt != 3 {
		t.Fatalf("entries=%d", cnt)
	}
	written, err := wp.WriteFrames(frames, n)
	if err != nil {
		t.Fatal(err)
	}
	if written != n {
		t.Fatalf("written=%d want %d", written, n)
	}
	if err := wp.CloseWritePlan(); err != nil {
		t.Fatal(err)
	}

	rp, cnt := BuildReadPlan("roundtrip.sg", topo)
	if rp == nil || cnt != 3 {
		t.Fatalf("expected a 3-entry read plan, got (%v, %d)", rp, cnt)
	}

	var out []byte
	totalFrames := 0
	for {
		buf, fr, err := rp.ReadNextBlock()
		if err != nil {
			t.Fatal(err)
		}
		if fr == 0 {
			break
		}
		out = append(out, buf...)
		totalFrames += fr
	}
	if totalFrames != n {
		t.Fatalf("total frames read = %d, want %d", totalFrames, n)
	}
	if !bytes.Equal(out, frames) {
		t.Fatalf("round-tripped bytes differ from the original input")
	}
	if err := rp.CloseReadPlan(); err != nil {
		t.Fatal(err)
	}
}

// writeDirectSGFile builds one SG file by hand -- a file header, then one
// block per entry in blocks -- bypassing the round-robin write engine so
// tests can set up specific (possibly non-contiguous) block layouts.
func writeDirectSGFile(t *testing.T, path string, packetSize int, blocks [][]byte) *sgfile.Meta {
	t.Helper()
	m, err := sgfile.OpenWrite(path, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	fh := sgfile.FileHeader{
		SyncWord:     sgfile.SyncWord,
		FileVersion:  sgfile.FileVersion,
		PacketFormat: sgfile.PacketFormatVDIF,
		PacketSize:   uint32(packetSize),
		BlockSize:    uint32(len(blocks[0]) + sgfile.BlockHeaderSize),
	}
	hdrBuf := make([]byte, sgfile.FileHeaderSize)
	fh.Encode(hdrBuf)
	if err := m.Append(hdrBuf, 1<<20); err != nil {
		t.Fatal(err)
	}
	for i, payload := range blocks {
		bh := sgfile.BlockHeader{BlockNum: uint64(i), WBSize: uint32(len(payload)) + sgfile.BlockHeaderSize}
		bhBuf := make([]byte, sgfile.BlockHeaderSize)
		bh.Encode(bhBuf)
		if err := m.Append(bhBuf, 1<<20); err != nil {
			t.Fatal(err)
		}
		if err := m.Append(payload, 1<<20); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.Shrink(); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	rm, err := sgfile.OpenRead(path)
	if err != nil {
		t.Fatal(err)
	}
	return rm
}

func TestReadNextBlockDefersAcrossCalls(t *testing.T) {
	// S2: a live block whose span doesn't chain onto the run this call
	// stays buffered, and is picked up on a later call once the gap
	// closes.
	dir := t.TempDir()
	packetSize := 64

	frame := func(secs, fr uint32) []byte { return makeFrame(packetSize, secs, fr, 0) }

	// entry A: block0 = frames 0..3, block1 = frames 96..99 (same second)
	aBlock0 := concatFrames(frame(10, 0), frame(10, 1), frame(10, 2), frame(10, 3))
	aBlock1 := concatFrames(frame(10, 96), frame(10, 97), frame(10, 98), frame(10, 99))
	metaA := writeDirectSGFile(t, filepath.Join(dir, "a.sg"), packetSize, [][]byte{aBlock0, aBlock1})

	// entry B: a single block starting well past A's first block, so it
	// cannot chain onto A's block0 directly.
	bBlock0 := concatFrames(frame(10, 100), frame(10, 101), frame(10, 102), frame(10, 103))
	metaB := writeDirectSGFile(t, filepath.Join(dir, "b.sg"), packetSize, [][]byte{bBlock0})

	p := &Plan{mode: ModeRead, tunables: DefaultTunables()}
	p.entries = []*entry{newEntry(1, 1, metaA), newEntry(1, 2, metaB)}

	buf1, fr1, err := p.ReadNextBlock()
	if err != nil {
		t.Fatal(err)
	}
	if fr1 != 4 {
		t.Fatalf("call 1: frames=%d want 4 (only A's first block should flush)", fr1)
	}
	if !bytes.Equal(buf1, aBlock0) {
		t.Fatal("call 1: expected exactly A's first block's bytes")
	}
	if !p.entries[1].live() {
		t.Fatal("call 1: B's block should remain buffered (deferred), not cleared")
	}

	buf2, fr2, err := p.ReadNextBlock()
	if err != nil {
		t.Fatal(err)
	}
	if fr2 != 8 {
		t.Fatalf("call 2: frames=%d want 8 (A's second block + B's deferred block)", fr2)
	}
	want := concatFrames(aBlock1, bBlock0)
	if !bytes.Equal(buf2, want) {
		t.Fatal("call 2: expected A's second block followed by B's deferred block")
	}

	buf3, fr3, err := p.ReadNextBlock()
	if err != nil {
		t.Fatal(err)
	}
	if fr3 != 0 || len(buf3) != 0 {
		t.Fatalf("call 3: expected no more data, got frames=%d len=%d", fr3, len(buf3))
	}

	metaA.Close()
	metaB.Close()
}

func concatFrames(frames ...[]byte) []byte {
	var out []byte
	for _, f := range frames {
		out = append(out, f...)
	}
	return out
}
