package drawing

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stockpeek/chartcore/internal/chartspace"
)

// ErrNotFound is returned when no stored annotation matches an id.
var ErrNotFound = errors.New("drawing not found")

// Journal receives drawing lifecycle records for host-side replay. The
// engine wires it to the JSONL journal; a nil journal is allowed.
type Journal interface {
	Record(op string, obj Object)
}

// Store owns the ordered set of persisted annotations. Objects are created
// whole on commit and mutated only by deletion.
type Store struct {
	objects  []Object
	selected string
	journal  Journal
}

// NewStore creates an empty annotation store.
func NewStore(journal Journal) *Store {
	return &Store{journal: journal}
}

// SetJournal attaches (or replaces) the lifecycle journal. Startup replay
// adds restored objects before the journal is attached so they are not
// re-recorded.
func (st *Store) SetJournal(journal Journal) { st.journal = journal }

// Add validates and persists an annotation, assigning an id when absent.
func (st *Store) Add(obj Object) (Object, error) {
	if !obj.Kind.Valid() {
		return Object{}, fmt.Errorf("unknown drawing kind %q", obj.Kind)
	}
	if len(obj.Points) != obj.Kind.PointCount() {
		return Object{}, fmt.Errorf("%s requires %d points, got %d", obj.Kind, obj.Kind.PointCount(), len(obj.Points))
	}
	if obj.Kind == KindText && obj.Text == "" {
		return Object{}, fmt.Errorf("text drawing requires text")
	}
	if obj.ID == "" {
		obj.ID = uuid.New().String()
	}
	if obj.Color == "" {
		obj.Color = "#1e6fd9"
	}
	if obj.CreatedAt.IsZero() {
		obj.CreatedAt = time.Now().UTC()
	}
	st.objects = append(st.objects, obj)
	if st.journal != nil {
		st.journal.Record("add", obj)
	}
	return obj, nil
}

// Delete removes an annotation by id.
func (st *Store) Delete(id string) error {
	for i, obj := range st.objects {
		if obj.ID == id {
			st.objects = append(st.objects[:i], st.objects[i+1:]...)
			if st.selected == id {
				st.selected = ""
			}
			if st.journal != nil {
				st.journal.Record("delete", obj)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Clear removes every annotation (session reset).
func (st *Store) Clear() {
	for _, obj := range st.objects {
		if st.journal != nil {
			st.journal.Record("delete", obj)
		}
	}
	st.objects = nil
	st.selected = ""
}

// Get returns an annotation by id.
func (st *Store) Get(id string) (Object, bool) {
	for _, obj := range st.objects {
		if obj.ID == id {
			return obj, true
		}
	}
	return Object{}, false
}

// List returns annotations in insertion order (oldest first).
func (st *Store) List() []Object {
	out := make([]Object, len(st.objects))
	copy(out, st.objects)
	return out
}

// Len returns the number of stored annotations.
func (st *Store) Len() int { return len(st.objects) }

// Select marks an annotation as selected; empty id clears the selection.
func (st *Store) Select(id string) error {
	if id == "" {
		st.selected = ""
		return nil
	}
	if _, ok := st.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	st.selected = id
	return nil
}

// Selected returns the selected annotation, if any.
func (st *Store) Selected() (Object, bool) {
	if st.selected == "" {
		return Object{}, false
	}
	return st.Get(st.selected)
}

// HitTest finds the topmost annotation on a pane near the pixel point,
// iterating newest-first so overlapping objects resolve to the most
// recently added.
func (st *Store) HitTest(paneID string, t chartspace.Transform, x, y float64) (Object, bool) {
	for i := len(st.objects) - 1; i >= 0; i-- {
		obj := st.objects[i]
		if obj.PaneID != paneID {
			continue
		}
		if hit(obj, t, x, y) {
			return obj, true
		}
	}
	return Object{}, false
}
