package types

import "github.com/google/uuid"

// Field is one named, typed value in a Record's ordered field list.
type Field struct {
	Name  string
	Value FieldValue
}

// Record identifies one row in one entity by its immutable id and carries
// an ordered set of fields. Field order is preserved from the source
// (export paging or CSV column order) because the archive writer is
// deterministic; a Record is never mutated after it is enqueued into a
// Batch (see pkg/types.Batch).
type Record struct {
	EntityName string
	ID         uuid.UUID

	fields []Field
	index  map[string]int
}

// NewRecord creates an empty Record for entityName/id ready for Set calls.
func NewRecord(entityName string, id uuid.UUID) *Record {
	return &Record{
		EntityName: entityName,
		ID:         id,
		index:      make(map[string]int),
	}
}

// Set assigns a field value, preserving first-seen order on repeat calls.
func (r *Record) Set(name string, value FieldValue) {
	if idx, ok := r.index[name]; ok {
		r.fields[idx].Value = value
		return
	}
	r.index[name] = len(r.fields)
	r.fields = append(r.fields, Field{Name: name, Value: value})
}

// Get returns the field's value and whether it is present.
func (r *Record) Get(name string) (FieldValue, bool) {
	idx, ok := r.index[name]
	if !ok {
		return FieldValue{}, false
	}
	return r.fields[idx].Value, true
}

// Remove deletes a field if present, preserving order of the remainder.
func (r *Record) Remove(name string) {
	idx, ok := r.index[name]
	if !ok {
		return
	}
	r.fields = append(r.fields[:idx], r.fields[idx+1:]...)
	delete(r.index, name)
	for n, i := range r.index {
		if i > idx {
			r.index[n] = i - 1
		}
	}
}

// Fields returns the ordered field list; callers must not mutate the
// returned slice's Value entries to satisfy the post-batch immutability
// invariant — copy the Record instead (see Clone).
func (r *Record) Fields() []Field {
	return r.fields
}

// Clone returns a deep-enough copy safe to hand into a new Batch while the
// original continues to be read elsewhere.
func (r *Record) Clone() *Record {
	c := &Record{
		EntityName: r.EntityName,
		ID:         r.ID,
		fields:     make([]Field, len(r.fields)),
		index:      make(map[string]int, len(r.index)),
	}
	copy(c.fields, r.fields)
	for k, v := range r.index {
		c.index[k] = v
	}
	return c
}
