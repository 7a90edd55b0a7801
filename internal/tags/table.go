// =============================================================================
// E-Bilanz Converter - Target Tag Table
// =============================================================================
//
// The target table holds the values that the generate command writes into a
// template. It is filled from a CSV file, a spreadsheet or an archived
// snapshot, then from the static tags of the configuration, and is read-only
// once injection starts.
//
// LOOKUP:
//   Lookup is by qualified tag name only. A name that appears in several
//   places of a template (the ELSTER header repeats Empfaenger, for example)
//   gets the same value everywhere.
//
// DUPLICATES:
//   Inserting an existing name overwrites the previous value and logs a
//   warning. Static tags from the configuration rely on this to override
//   values from the input file.
//
// =============================================================================

package tags

import (
	"slices"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/ginjaninja78/ebilanz-converter/internal/types"
)

// Table maps tag names to optional values.
type Table struct {
	entries map[string]*string
	logger  *zap.Logger
}

// New creates an empty table. A nil logger discards duplicate warnings.
func New(logger *zap.Logger) *Table {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Table{
		entries: make(map[string]*string),
		logger:  logger,
	}
}

// FromTags creates a table from tag records, inserting them in order.
func FromTags(records []types.Tag, logger *zap.Logger) *Table {
	table := New(logger)
	table.InsertTags(records)
	return table
}

// Insert sets the value for a tag name. A nil value marks the tag as present
// without a value.
func (t *Table) Insert(name string, value *string) {
	if previous, exists := t.entries[name]; exists {
		t.logger.Warn("Duplicate key",
			zap.String("tag", name),
			zap.Stringp("previous", previous),
			zap.Stringp("value", value),
		)
	}
	t.entries[name] = value
}

// InsertTags inserts every record in order.
func (t *Table) InsertTags(records []types.Tag) {
	for _, record := range records {
		t.Insert(record.Name, record.Value)
	}
}

// Get returns the value for a tag name and whether the name is present.
func (t *Table) Get(name string) (*string, bool) {
	value, ok := t.entries[name]
	return value, ok
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Names returns all tag names in sorted order.
func (t *Table) Names() []string {
	names := lo.Keys(t.entries)
	slices.Sort(names)
	return names
}

// Tags returns the entries as records, sorted by name.
func (t *Table) Tags() []types.Tag {
	return lo.Map(t.Names(), func(name string, _ int) types.Tag {
		return types.Tag{Name: name, Value: t.entries[name]}
	})
}
