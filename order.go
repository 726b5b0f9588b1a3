package scatgat

import "github.com/anyoung/scatgat/vdif"

// orderContiguous selects, among entries holding a buffered block
// (live()==true), the longest ascending-time prefix whose adjacent
// blocks satisfy vdif.IsContiguous, and reports the rest as deferred.
//
// The returned run lists entry indices (into entries) in the order their
// buffered blocks should be appended to the read output; deferred holds
// the indices of live entries whose blocks should stay buffered for a
// future call.
//
// The live set is sorted with a selection sort over the live prefix by
// first-frame timestamp, deliberately not a generic library sort: the
// ordering guarantee callers depend on is this specific in-place
// selection over the live set, not "some stable sort".
func orderContiguous(entries []*entry) (run, deferred []int) {
	live := make([]int, 0, len(entries))
	for i, e := range entries {
		if e.live() {
			live = append(live, i)
		} else {
			deferred = append(deferred, i)
		}
	}

	// selection sort live, ascending by first-frame timestamp
	for i := 0; i < len(live); i++ {
		min := i
		for j := i + 1; j < len(live); j++ {
			if ts(entries, live[j]).Less(ts(entries, live[min])) {
				min = j
			}
		}
		live[i], live[min] = live[min], live[i]
	}

	cut := len(live)
	for i := 0; i+1 < len(live); i++ {
		a := entries[live[i]].span
		b := entries[live[i+1]].span
		if !vdif.IsContiguous(a, b) {
			cut = i + 1
			break
		}
	}
	run = live[:cut]
	deferred = append(deferred, live[cut:]...)
	return run, deferred
}

func ts(entries []*entry, i int) vdif.Timestamp {
	return entries[i].span.First
}
