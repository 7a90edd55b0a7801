// =============================================================================
// E-Bilanz Converter - XML Event Vocabulary
// =============================================================================
//
// The extractor and the element tree never touch a tokenizer directly. They
// consume a forward-only stream of six event kinds:
//
//   Start(tag, attributes)   <tag a="1">
//   End(tag)                 </tag>
//   Empty(tag, attributes)   <tag a="1"/>
//   Text(content)            character data between tags
//   Declaration              <?xml version="1.0" encoding="UTF-8"?>
//   EOF                      end of the document
//
// Tag and attribute names are qualified names kept verbatim, prefix included.
// The serializer produces the same vocabulary for a Sink.
//
// =============================================================================

package xmlevent

import (
	"errors"

	"github.com/ginjaninja78/ebilanz-converter/internal/types"
)

// Kind identifies the type of an Event.
type Kind int

const (
	Start Kind = iota
	End
	Empty
	Text
	Declaration
	EOF
)

// String returns the name of the event kind.
func (k Kind) String() string {
	switch k {
	case Start:
		return "start"
	case End:
		return "end"
	case Empty:
		return "empty"
	case Text:
		return "text"
	case Declaration:
		return "declaration"
	case EOF:
		return "eof"
	default:
		return "unknown"
	}
}

// Event is a single document event.
type Event struct {
	Kind Kind

	// Name is the qualified tag name for Start, End and Empty events.
	Name string

	// Attributes are the attributes of Start and Empty events in document order.
	Attributes []types.Attribute

	// Text is the content of a Text event, or the instruction body of a
	// Declaration (e.g. `version="1.0" encoding="UTF-8"`).
	Text string
}

// Source produces document events. Next returns an EOF event once the
// document is exhausted and keeps returning it afterwards.
type Source interface {
	Next() (Event, error)
}

// Sink consumes document events.
type Sink interface {
	WriteEvent(ev Event) error
}

// ErrEncoding is returned when the document is not valid in its declared
// encoding or declares an encoding that cannot be decoded.
var ErrEncoding = errors.New("invalid document encoding")

// ErrSyntax is returned for a tag that cannot be read, such as an unquoted
// attribute value or a tag missing its closing '>'.
var ErrSyntax = errors.New("malformed tag")

// Convenience constructors.

// StartEvent returns a Start event.
func StartEvent(name string, attrs ...types.Attribute) Event {
	return Event{Kind: Start, Name: name, Attributes: attrs}
}

// EndEvent returns an End event.
func EndEvent(name string) Event {
	return Event{Kind: End, Name: name}
}

// EmptyEvent returns an Empty event.
func EmptyEvent(name string, attrs ...types.Attribute) Event {
	return Event{Kind: Empty, Name: name, Attributes: attrs}
}

// TextEvent returns a Text event.
func TextEvent(text string) Event {
	return Event{Kind: Text, Text: text}
}

// DeclarationEvent returns the UTF-8 XML 1.0 declaration.
func DeclarationEvent() Event {
	return Event{Kind: Declaration, Text: `version="1.0" encoding="UTF-8"`}
}
