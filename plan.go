package scatgat

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"github.com/anyoung/scatgat/sgfile"
)

// Mode selects whether a Plan reads or writes its stripe.
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
)

func (m Mode) String() string {
	if m == ModeWrite {
		return "write"
	}
	return "read"
}

// Plan binds a process to a chosen module×disk grid of SG files, in
// either read or write mode.
//
// A Plan is not safe for concurrent use by multiple callers: engine
// operations mutate it in place and must be serialized by the caller.
type Plan struct {
	// Logger, if non-nil, receives diagnostics for per-entry failures
	// that the plan recovers from locally.
	Logger Logger
	// ID is a per-plan identifier attached at build time for diagnostics.
	// It is not stored in the entries' sgfile.Meta and does not appear in
	// sgfile.Meta.Report output.
	ID string

	mode     Mode
	entries  []*entry
	tunables Tunables
	closed   bool
}

type gridCell struct {
	module, disk int
	path         string
}

func gridCells(topo Topology, pattern string) []gridCell {
	cells := make([]gridCell, 0, len(topo.Modules)*len(topo.Disks))
	for _, mod := range topo.Modules {
		for _, disk := range topo.Disks {
			cells = append(cells, gridCell{module: mod, disk: disk, path: topo.Path(mod, disk, pattern)})
		}
	}
	return cells
}

// BuildReadPlan opens every file on the topology's module×disk grid in
// parallel and keeps the survivors as a read-mode Plan, sorted ascending
// by (first-seconds, first-frame) so a stable index maps to a stable
// stream position. It returns the number of files found; zero means no
// plan was built.
func BuildReadPlan(pattern string, topo Topology) (*Plan, int) {
	cells := gridCells(topo, pattern)
	type opened struct {
		cell gridCell
		meta *sgfile.Meta
		err  error
	}
	results := make([]opened, len(cells))
	fanOut(cells, func(i int, c gridCell) error {
		meta, err := sgfile.OpenRead(c.path)
		results[i] = opened{cell: c, meta: meta, err: err}
		return err
	})

	p := &Plan{mode: ModeRead, tunables: topo.Tunables, ID: uuid.NewString()}
	for _, r := range results {
		if r.err != nil || !r.meta.Valid {
			continue
		}
		p.entries = append(p.entries, newEntry(r.cell.module, r.cell.disk, r.meta))
	}
	if len(p.entries) == 0 {
		return nil, 0
	}
	slices.SortFunc(p.entries, func(a, b *entry) bool {
		ta, tb := a.firstTimestamp(), b.firstTimestamp()
		return ta.Less(tb)
	})
	return p, len(p.entries)
}

// BuildWritePlan creates, truncates, and memory-maps a new SG file for
// every cell in the topology's module×disk grid, each sized at
// tunables.InitialSizeInBlocks × WBlockSize. It returns the number of
// files created.
func BuildWritePlan(pattern string, topo Topology) (*Plan, int) {
	cells := gridCells(topo, pattern)
	metas := make([]*sgfile.Meta, len(cells))
	errs := fanOut(cells, func(i int, c gridCell) error {
		m, err := sgfile.OpenWrite(c.path, topo.Tunables.initialSize())
		metas[i] = m
		return err
	})

	p := &Plan{mode: ModeWrite, tunables: topo.Tunables, ID: uuid.NewString()}
	for i, m := range metas {
		if errs[i] != nil || !m.Valid {
			p.errorf("scatgat: BuildWritePlan: %s: %v", cells[i].path, errs[i])
			continue
		}
		p.entries = append(p.entries, newEntry(cells[i].module, cells[i].disk, m))
	}
	if len(p.entries) == 0 {
		return nil, 0
	}
	return p, len(p.entries)
}

// NumEntries returns the number of stripe entries in the plan.
func (p *Plan) NumEntries() int { return len(p.entries) }

// Mode returns the plan's read/write mode.
func (p *Plan) Mode() Mode { return p.mode }

// CloseReadPlan closes every file handle in a read-mode plan without
// freeing the entries themselves.
func (p *Plan) CloseReadPlan() error {
	if p.mode != ModeRead {
		return ErrWrongMode
	}
	return p.closeAll()
}

// CloseWritePlan finalizes a write-mode plan: entries that never
// received a write have their (empty) backing file removed; the rest are
// shrunk to exactly their used bytes and closed.
func (p *Plan) CloseWritePlan() error {
	if p.mode != ModeWrite {
		return ErrWrongMode
	}
	errs := fanOut(p.entries, func(_ int, e *entry) error {
		if e.meta.BytesUsed == 0 {
			if err := e.meta.Close(); err != nil {
				return err
			}
			return e.meta.Unlink()
		}
		if err := e.meta.Shrink(); err != nil {
			return err
		}
		return e.meta.Close()
	})
	p.closed = true
	return firstError(errs)
}

func (p *Plan) closeAll() error {
	errs := fanOut(p.entries, func(_ int, e *entry) error {
		return e.meta.Close()
	})
	p.closed = true
	return firstError(errs)
}

// Free releases all buffers and metadata owned by the plan. The plan
// must not be used afterward.
func (p *Plan) Free() {
	p.entries = nil
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Plan) requireMode(m Mode) error {
	if p.closed {
		return ErrClosed
	}
	if p.mode != m {
		return fmt.Errorf("%w: plan is in mode %v, operation requires %v", ErrWrongMode, p.mode, m)
	}
	return nil
}
