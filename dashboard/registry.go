package dashboard

import "github.com/OriginalDaemon/datalens/client"

// Registry is the cached dataset list and the current selection.
//
// The selection, when set, is always the ID of an item; an empty registry
// has no selection. Dataset IDs are positive, so 0 means "none".
type Registry struct {
	items    []client.Dataset
	selected int
}

// Items returns a copy of the datasets in server order
func (r Registry) Items() []client.Dataset {
	items := make([]client.Dataset, len(r.items))
	copy(items, r.items)
	return items
}

// Len returns the number of datasets
func (r Registry) Len() int {
	return len(r.items)
}

// Selected returns the selected dataset ID
func (r Registry) Selected() (int, bool) {
	return r.selected, r.selected != 0
}

// Lookup finds a dataset by ID
func (r Registry) Lookup(id int) (client.Dataset, bool) {
	for _, d := range r.items {
		if d.ID == id {
			return d, true
		}
	}
	return client.Dataset{}, false
}

// Contains reports whether a dataset with this ID is known
func (r Registry) Contains(id int) bool {
	_, ok := r.Lookup(id)
	return ok
}

// replace swaps in a new list and reconciles the selection. With autoSelect,
// a missing selection falls back to the first item; without it, a missing
// selection is cleared. It reports whether the selection changed.
func (r *Registry) replace(items []client.Dataset, autoSelect bool) bool {
	next := make([]client.Dataset, len(items))
	copy(next, items)

	before := r.selected
	r.items = next

	switch {
	case r.selected != 0 && r.Contains(r.selected):
	case len(r.items) > 0 && autoSelect:
		r.selected = r.items[0].ID
	default:
		r.selected = 0
	}

	return r.selected != before
}

// selectID selects id if it is known. It reports whether the selection
// changed; selecting the current or an unknown ID is a no-op.
func (r *Registry) selectID(id int) bool {
	if id == r.selected || !r.Contains(id) {
		return false
	}
	r.selected = id
	return true
}

// clearSelection drops the selection and reports whether there was one
func (r *Registry) clearSelection() bool {
	if r.selected == 0 {
		return false
	}
	r.selected = 0
	return true
}
