package symtab

import (
	"github.com/xplshn/exprc/pkg/token"
	"github.com/xplshn/exprc/pkg/util"
)

// Entry is one variable: its current value and whether that value is known
// at compile time.
type Entry struct {
	Name  string
	Value int32
	Known bool
}

// Table maps variable names to memory slots in first-use order. The first
// len(reserved) entries are pre-seeded and mirrored by registers r0, r1, ...
type Table struct {
	entries  []Entry
	reserved int
	capacity int
	wordSize int
}

func New(reserved []string, capacity, wordSize int) *Table {
	t := &Table{reserved: len(reserved), capacity: capacity, wordSize: wordSize}
	for _, name := range reserved {
		t.entries = append(t.entries, Entry{Name: name})
	}
	return t
}

// Lookup returns the index of name, scanning linearly.
func (t *Table) Lookup(name string) (int, bool) {
	for i := range t.entries {
		if t.entries[i].Name == name {
			return i, true
		}
	}
	return -1, false
}

// LookupOrDefault returns the index of name, appending it as (0, unknown)
// when absent.
func (t *Table) LookupOrDefault(name string) (int, error) {
	if i, ok := t.Lookup(name); ok {
		return i, nil
	}
	return t.add(name, 0, false)
}

func (t *Table) add(name string, value int32, known bool) (int, error) {
	if len(t.entries) >= t.capacity {
		return -1, util.NewError(util.ErrTableFull, token.Token{}, "cannot add '%s', all %d slots in use", name, t.capacity)
	}
	t.entries = append(t.entries, Entry{Name: name, Value: value, Known: known})
	return len(t.entries) - 1, nil
}

// Value returns the current value of a registered name.
func (t *Table) Value(name string) (int32, error) {
	i, ok := t.Lookup(name)
	if !ok {
		return 0, util.NewError(util.ErrNotFound, token.Token{}, "'%s' has not been assigned", name)
	}
	return t.entries[i].Value, nil
}

// SetValue registers or updates name and returns value.
func (t *Table) SetValue(name string, value int32, known bool) (int32, error) {
	if i, ok := t.Lookup(name); ok {
		t.entries[i].Value, t.entries[i].Known = value, known
		return value, nil
	}
	if _, err := t.add(name, value, known); err != nil {
		return 0, err
	}
	return value, nil
}

func (t *Table) Entry(i int) Entry { return t.entries[i] }

// Entries returns a copy of the table in slot order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Slot returns the byte address of entry i.
func (t *Table) Slot(i int) int { return i * t.wordSize }

func (t *Table) IsReserved(i int) bool { return i >= 0 && i < t.reserved }

func (t *Table) Len() int { return len(t.entries) }
