package pipeline

import "github.com/canonical/manbook/internal/manpage"

// Results holds one pre-allocated slot per package name. Each slot is
// written by exactly one worker, so no locking is needed; readers must
// wait for the pool to finish.
type Results struct {
	order []string
	slots map[string]*slot
}

type slot struct {
	entry manpage.Entry
	done  bool
}

func newResults(names []string) *Results {
	r := &Results{slots: make(map[string]*slot, len(names))}
	for _, name := range names {
		if _, ok := r.slots[name]; ok {
			continue
		}
		r.slots[name] = &slot{}
		r.order = append(r.order, name)
	}
	return r
}

func (r *Results) set(name string, entry manpage.Entry) {
	s := r.slots[name]
	s.entry = entry
	s.done = true
}

// Get returns the entry for name and whether one was recorded.
func (r *Results) Get(name string) (manpage.Entry, bool) {
	s, ok := r.slots[name]
	if !ok || !s.done {
		return manpage.Entry{}, false
	}
	return s.entry, true
}

// Map copies the recorded entries into a plain map.
func (r *Results) Map() map[string]manpage.Entry {
	out := make(map[string]manpage.Entry, len(r.slots))
	for name, s := range r.slots {
		if s.done {
			out[name] = s.entry
		}
	}
	return out
}

// Len is the number of distinct names the results were sized for.
func (r *Results) Len() int { return len(r.order) }
