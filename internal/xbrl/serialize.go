package xbrl

import (
	"fmt"

	"github.com/ginjaninja78/ebilanz-converter/internal/xmlevent"
)

// SerializeError reports a sink failure while writing an element.
type SerializeError struct {
	Name string
	Err  error
}

func (e *SerializeError) Error() string {
	return fmt.Sprintf("%v <%s>: %v", ErrSerialize, e.Name, e.Err)
}

// Unwrap exposes both ErrSerialize and the sink error to errors.Is.
func (e *SerializeError) Unwrap() []error {
	return []error{ErrSerialize, e.Err}
}

// Serialize writes the tree to the sink in document order.
//
// Each element is written as
//   - <tag attrs>value</tag> when it has a value, even an empty one,
//   - <tag attrs/> when it has neither value nor children,
//   - <tag attrs>children</tag> otherwise.
//
// An element holding both a value and children writes the value first.
// Attributes are written in stored order. Formatting is left to the sink.
func Serialize(root *Element, sink xmlevent.Sink) error {
	return root.serialize(sink)
}

func (e *Element) serialize(sink xmlevent.Sink) error {
	if e.Value == nil && len(e.Children) == 0 {
		return e.write(sink, xmlevent.EmptyEvent(e.Name, e.Attributes...))
	}

	if err := e.write(sink, xmlevent.StartEvent(e.Name, e.Attributes...)); err != nil {
		return err
	}

	if e.Value != nil {
		if err := e.write(sink, xmlevent.TextEvent(*e.Value)); err != nil {
			return err
		}
	}

	for _, child := range e.Children {
		if err := child.serialize(sink); err != nil {
			return err
		}
	}

	return e.write(sink, xmlevent.EndEvent(e.Name))
}

func (e *Element) write(sink xmlevent.Sink, ev xmlevent.Event) error {
	if err := sink.WriteEvent(ev); err != nil {
		return &SerializeError{Name: e.Name, Err: err}
	}
	return nil
}
