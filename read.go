package scatgat

// ReadNextBlock produces the next contiguous run of frames across the
// stripe, stitched in ascending time, appending it to a freshly allocated
// buffer. It returns the number of frames read, 0 if no more data or no
// contiguous run could be formed this call, and -1 if the plan is not in
// read mode.
//
// Continuity is NOT checked against the run produced by a previous call:
// a block deferred here only has to agree with whatever else is live on
// the next call, not with what was already flushed.
func (p *Plan) ReadNextBlock() ([]byte, int, error) {
	if err := p.requireMode(ModeRead); err != nil {
		return nil, -1, err
	}

	type fetch struct {
		data   []byte
		frames int
		ok     bool
	}
	fetched := make([]fetch, len(p.entries))
	toFetch := make([]int, 0, len(p.entries))
	for i, e := range p.entries {
		if e.frames == 0 && e.iblock < e.meta.TotalBlocks {
			toFetch = append(toFetch, i)
		}
	}
	fanOut(toFetch, func(_ int, idx int) error {
		e := p.entries[idx]
		data, n, ok := e.meta.PacketsByBlock(e.iblock)
		if !ok {
			return nil
		}
		buf := make([]byte, len(data))
		copy(buf, data)
		fetched[idx] = fetch{data: buf, frames: n, ok: true}
		return nil
	})

	// pre-size the output buffer: a safe over-estimate across all
	// entries, so contiguous reuse of already-deferred data is covered
	outCap := 0
	for _, e := range p.entries {
		outCap += e.meta.StdBlockPkts * e.meta.PacketSize
	}

	for _, idx := range toFetch {
		f := fetched[idx]
		if !f.ok || f.frames == 0 {
			continue
		}
		e := p.entries[idx]
		if err := e.setBuffer(f.data, f.frames); err != nil {
			p.errorf("scatgat: ReadNextBlock: entry %d: %v", idx, err)
			continue
		}
		e.iblock++
	}

	run, _ := orderContiguous(p.entries)
	out := make([]byte, 0, outCap)
	framesRead := 0
	for _, idx := range run {
		e := p.entries[idx]
		out = append(out, e.buffer...)
		framesRead += e.frames
		e.clearBuffer()
	}
	return out, framesRead, nil
}

// ReadBlock unconditionally fetches block iblock from every entry and
// concatenates the results in entry order (not timestamp order),
// skipping entries for which that block does not exist. It performs no
// continuity check; use it only when the stripe is known to be aligned
// by construction.
func (p *Plan) ReadBlock(iblock int64) ([]byte, int, error) {
	if err := p.requireMode(ModeRead); err != nil {
		return nil, -1, err
	}

	type fetch struct {
		data   []byte
		frames int
	}
	fetched := make([]fetch, len(p.entries))
	fanOut(p.entries, func(i int, e *entry) error {
		data, n, ok := e.meta.PacketsByBlock(iblock)
		if !ok {
			return nil
		}
		buf := make([]byte, len(data))
		copy(buf, data)
		fetched[i] = fetch{data: buf, frames: n}
		return nil
	})

	outCap := 0
	for _, e := range p.entries {
		outCap += e.meta.StdBlockPkts * e.meta.PacketSize
	}
	out := make([]byte, 0, outCap)
	framesRead := 0
	for _, f := range fetched {
		out = append(out, f.data...)
		framesRead += f.frames
	}
	return out, framesRead, nil
}
