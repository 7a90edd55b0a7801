// =============================================================================
// E-Bilanz Converter - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - xmlevent   (attributes on start/empty events)
//   - xbrl       (element attributes)
//   - extractor  (extracted tag records)
//   - csvparser, xlsxparser, archive (reading and writing tag records)
//
// =============================================================================

package types

// =============================================================================
// TAG RECORDS
// =============================================================================

// Tag is a single flat tag/value pair.
// It is the unit produced by extraction and written to CSV, XLSX or the
// snapshot archive.
type Tag struct {
	// Name is the qualified tag name exactly as it appears in the document,
	// namespace prefix included (e.g. "de-gcd:genInfo.report.audit.city").
	Name string

	// Value is the text content of the tag.
	// A nil Value means the tag carries no value.
	Value *string
}

// NewTag creates a Tag with a present value.
func NewTag(name, value string) Tag {
	return Tag{Name: name, Value: &value}
}

// ValueOrEmpty returns the tag value, or the empty string if it has none.
func (t Tag) ValueOrEmpty() string {
	if t.Value == nil {
		return ""
	}
	return *t.Value
}

// =============================================================================
// ATTRIBUTES
// =============================================================================

// Attribute is a single key/value pair on an element.
// Keys are qualified names kept verbatim (e.g. "xsi:nil", "contextRef").
type Attribute struct {
	Key   string
	Value string
}

// StringPtr returns a pointer to s.
// Optional values throughout the module are represented as *string.
func StringPtr(s string) *string {
	return &s
}
