// =============================================================================
// E-Bilanz Converter - XML Event Writer
// =============================================================================
//
// Writer is the Sink implementation used to produce output documents. It
// writes each event as soon as it arrives; nothing is buffered beyond the
// underlying bufio.Writer, so Flush must be called once the document is done.
//
// OUTPUT FORMAT:
//   Compact (default):
//     <?xml version="1.0" encoding="UTF-8"?><Elster><a>1</a><b/></Elster>
//
//   Indented (Indent = "  "):
//     <?xml version="1.0" encoding="UTF-8"?>
//     <Elster>
//       <a>1</a>
//       <b/>
//     </Elster>
//
//   Text always stays on the line of its start tag, so indentation never
//   changes a value.
//
// =============================================================================

package xmlevent

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/ebilanz-converter/internal/types"
)

// =============================================================================
// WRITER OPTIONS
// =============================================================================

// WriterOptions configures a Writer.
type WriterOptions struct {
	// Indent is the string used for one level of indentation.
	// Default: "" (compact output)
	Indent string
}

// =============================================================================
// WRITER
// =============================================================================

// Writer writes events as XML text.
type Writer struct {
	out     *bufio.Writer
	indent  string
	depth   int
	started bool // anything written yet
	inLeaf  bool // last structural event was a Start
}

// NewWriter creates a compact Writer.
func NewWriter(w io.Writer) *Writer {
	return NewWriterWithOptions(w, WriterOptions{})
}

// NewWriterWithOptions creates a Writer with custom options.
func NewWriterWithOptions(w io.Writer, options WriterOptions) *Writer {
	return &Writer{
		out:    bufio.NewWriter(w),
		indent: options.Indent,
	}
}

// WriteEvent writes a single event.
//
// RETURNS:
//   - An error if the event kind is unknown or the underlying writer fails.
//     Write failures may also surface only at Flush.
func (w *Writer) WriteEvent(ev Event) error {
	switch ev.Kind {
	case Declaration:
		text := ev.Text
		if text == "" {
			text = DeclarationEvent().Text
		}
		w.out.WriteString("<?xml ")
		w.out.WriteString(text)
		w.out.WriteString("?>")

	case Start:
		w.newline(w.depth)
		w.out.WriteByte('<')
		w.out.WriteString(ev.Name)
		w.writeAttributes(ev.Attributes)
		w.out.WriteByte('>')
		w.depth++
		w.inLeaf = true

	case Empty:
		w.newline(w.depth)
		w.out.WriteByte('<')
		w.out.WriteString(ev.Name)
		w.writeAttributes(ev.Attributes)
		w.out.WriteString("/>")
		w.inLeaf = false

	case Text:
		w.out.WriteString(escapeXML(ev.Text))

	case End:
		if w.depth > 0 {
			w.depth--
		}
		if !w.inLeaf {
			w.newline(w.depth)
		}
		w.out.WriteString("</")
		w.out.WriteString(ev.Name)
		w.out.WriteByte('>')
		w.inLeaf = false

	case EOF:
		if w.indent != "" && w.started {
			w.out.WriteByte('\n')
		}
		return w.Flush()

	default:
		return fmt.Errorf("unknown event kind %d", ev.Kind)
	}

	w.started = true

	// bufio keeps the first write error and returns it from every later call.
	if _, err := w.out.Write(nil); err != nil {
		return err
	}
	return nil
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.out.Flush()
}

// newline starts a new indented line when pretty-printing.
func (w *Writer) newline(depth int) {
	if w.indent == "" || !w.started {
		return
	}
	w.out.WriteByte('\n')
	w.out.WriteString(strings.Repeat(w.indent, depth))
}

func (w *Writer) writeAttributes(attrs []types.Attribute) {
	for _, attr := range attrs {
		w.out.WriteByte(' ')
		w.out.WriteString(attr.Key)
		w.out.WriteString(`="`)
		w.out.WriteString(escapeXML(attr.Value))
		w.out.WriteByte('"')
	}
}

// escapeXML escapes special characters for XML.
func escapeXML(s string) string {
	if !strings.ContainsAny(s, "&<>\"'") {
		return s
	}

	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		default:
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}
