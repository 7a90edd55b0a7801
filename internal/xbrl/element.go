// =============================================================================
// E-Bilanz Converter - Element Tree
// =============================================================================
//
// The generate command rewrites a template document in memory. The template
// is parsed into a tree of Elements, every value is stripped, the target
// values are injected, and the tree is written back out. Everything the
// mutators do not touch is reproduced as it was read: names with their
// prefixes, attributes in their original order, and the difference between
// <tag/> and <tag></tag>.
//
// TREE SHAPE:
//   Each Element owns its children. There are no parent pointers, so the tree
//   can be walked and mutated with plain recursion.
//
//   Elster                         (Plain)
//   ├── TransferHeader             (Plain)
//   │   └── Verfahren = "ElsterBilanz"
//   └── DatenTeil                  (Plain)
//       └── xbrli:xbrl             (XbrlContainer)
//           ├── de-gcd:genInfo.report.audit.city = "Berlin"      (Gcd)
//           └── de-gaap-ci:bs.ass [unitRef="EUR" decimals="2"]   (GaapCi)
//
// =============================================================================

package xbrl

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ginjaninja78/ebilanz-converter/internal/taxonomy"
	"github.com/ginjaninja78/ebilanz-converter/internal/types"
	"github.com/ginjaninja78/ebilanz-converter/internal/xmlevent"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrMissingRoot is returned when the document contains no start tag.
	ErrMissingRoot = errors.New("missing root element")

	// ErrUnexpectedEndTag is returned when an end tag does not close the
	// current element.
	ErrUnexpectedEndTag = errors.New("unexpected end tag")

	// ErrUnexpectedDeclaration is returned for an XML declaration inside the
	// root element.
	ErrUnexpectedDeclaration = errors.New("unexpected xml declaration")

	// ErrUnexpectedEOF is returned when the document ends inside an element.
	ErrUnexpectedEOF = errors.New("unexpected end of xml document")

	// ErrMultipleRoots is returned when a second root element follows the first.
	ErrMultipleRoots = errors.New("multiple root elements")

	// ErrSerialize is wrapped by every SerializeError.
	ErrSerialize = errors.New("failed to serialize element")
)

// ParseError is a structural error in the document. Tag is the element being
// parsed when the error occurred; Found is the offending end tag, if any.
type ParseError struct {
	Err   error
	Tag   string
	Found string
}

func (e *ParseError) Error() string {
	switch {
	case e.Found != "":
		return fmt.Sprintf("%v: expected </%s>, found </%s>", e.Err, e.Tag, e.Found)
	case e.Tag != "":
		return fmt.Sprintf("%v in <%s>", e.Err, e.Tag)
	default:
		return e.Err.Error()
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ELEMENT
// =============================================================================

// Element is a single node of a parsed document.
type Element struct {
	// Name is the qualified tag name, prefix included.
	Name string

	// Value is the text content. nil means the element has no text.
	Value *string

	// Attributes in document order. Duplicate keys are allowed.
	Attributes []types.Attribute

	// Taxonomy is derived from Name when the element is created.
	Taxonomy taxonomy.Taxonomy

	// Children in document order.
	Children []*Element
}

// NewElement creates an element without value or children and classifies it.
func NewElement(name string, attrs ...types.Attribute) *Element {
	return &Element{
		Name:       name,
		Attributes: attrs,
		Taxonomy:   taxonomy.Classify(name),
	}
}

// AddChild appends a child element and returns it.
func (e *Element) AddChild(child *Element) *Element {
	e.Children = append(e.Children, child)
	return child
}

// Walk calls fn for the element and all its descendants in pre-order.
func (e *Element) Walk(fn func(*Element)) {
	fn(e)
	for _, child := range e.Children {
		child.Walk(fn)
	}
}

// Attribute returns the value of the first attribute with the given key.
func (e *Element) Attribute(key string) (string, bool) {
	i := e.attributeIndex(key)
	if i < 0 {
		return "", false
	}
	return e.Attributes[i].Value, true
}

// RemoveAttribute removes the first attribute with the given key and reports
// whether one was found. Later attributes keep their relative order.
func (e *Element) RemoveAttribute(key string) bool {
	i := e.attributeIndex(key)
	if i < 0 {
		return false
	}
	e.Attributes = slices.Delete(e.Attributes, i, i+1)
	return true
}

// AppendAttribute adds an attribute after all existing ones.
func (e *Element) AppendAttribute(attr types.Attribute) {
	e.Attributes = append(e.Attributes, attr)
}

func (e *Element) attributeIndex(key string) int {
	return slices.IndexFunc(e.Attributes, func(attr types.Attribute) bool {
		return attr.Key == key
	})
}

// =============================================================================
// PARSING
// =============================================================================

// Parse reads a complete document into an element tree.
//
// PARAMETERS:
//   - source: The document events.
//
// RETURNS:
//   - The root element.
//   - A *ParseError for structural problems, or the wrapped source error
//     (e.g. xmlevent.ErrEncoding). No partial tree is returned.
//
// PARSING RULES:
//   1. Events before the first start tag are skipped.
//   2. Inside an element, start tags open child subtrees, empty tags become
//      leaf children and text replaces the element's value.
//   3. An end tag must carry the name of the element it closes.
//   4. A second start tag after the root has closed is an error.
func Parse(source xmlevent.Source) (*Element, error) {
	var root *Element

	for {
		ev, err := next(source)
		if err != nil {
			return nil, err
		}

		switch ev.Kind {
		case xmlevent.Start:
			if root != nil {
				return nil, &ParseError{Err: ErrMultipleRoots, Tag: ev.Name}
			}
			root = NewElement(ev.Name, ev.Attributes...)
			if err := parseContent(source, root); err != nil {
				return nil, err
			}

		case xmlevent.EOF:
			if root == nil {
				return nil, &ParseError{Err: ErrMissingRoot}
			}
			return root, nil

		default:
			// Declarations, stray text and empty tags outside the root are ignored.
		}
	}
}

// parseContent reads the content of element up to and including its end tag.
func parseContent(source xmlevent.Source, element *Element) error {
	for {
		ev, err := next(source)
		if err != nil {
			return err
		}

		switch ev.Kind {
		case xmlevent.Start:
			child := element.AddChild(NewElement(ev.Name, ev.Attributes...))
			if err := parseContent(source, child); err != nil {
				return err
			}

		case xmlevent.Empty:
			element.AddChild(NewElement(ev.Name, ev.Attributes...))

		case xmlevent.Text:
			text := ev.Text
			element.Value = &text

		case xmlevent.End:
			if ev.Name != element.Name {
				return &ParseError{Err: ErrUnexpectedEndTag, Tag: element.Name, Found: ev.Name}
			}
			return nil

		case xmlevent.Declaration:
			return &ParseError{Err: ErrUnexpectedDeclaration, Tag: element.Name}

		case xmlevent.EOF:
			return &ParseError{Err: ErrUnexpectedEOF, Tag: element.Name}
		}
	}
}

func next(source xmlevent.Source) (xmlevent.Event, error) {
	ev, err := source.Next()
	if err != nil {
		return ev, fmt.Errorf("failed to read document: %w", err)
	}
	return ev, nil
}
