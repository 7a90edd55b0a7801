// =============================================================================
// E-Bilanz Converter - XML Event Reader
// =============================================================================
//
// Reader is the Source implementation used by the converter. Token boundaries
// come from github.com/muktihari/xmltokenizer, a streaming, namespace-unaware
// tokenizer: names keep their prefixes as written and end tags are never
// matched against start tags. Both properties are needed here, since prefixes
// are opaque parts of the tag name and tag matching is the element tree's job.
//
// TOKENS:
//   The tokenizer hands out one raw token per tag, with the character data
//   (or CDATA section) directly following the tag attached to it:
//
//     <de-gaap-ci:bs.ass decimals="2">1000.00
//
//   The reader splits such a token into a Start/Empty event and a Text event.
//   The tag head is read quote-aware, so a '/' inside an attribute value
//   (xmlns="http://...") never marks a start tag as self-closing.
//
// TEXT:
//   Text is trimmed and whitespace-only text is dropped, so indentation never
//   shows up as a value. Entity and character references are decoded; CDATA
//   content is taken literally. Text that follows a comment or processing
//   instruction inside an element is not reported.
//
// ENCODINGS:
//   Documents declaring a non-UTF-8 encoding (ELSTER templates are often
//   ISO-8859-15) are transcoded with golang.org/x/net/html/charset before
//   tokenizing. Every token is checked to be valid UTF-8.
//
// =============================================================================

package xmlevent

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/muktihari/xmltokenizer"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/ginjaninja78/ebilanz-converter/internal/types"
)

// declarationPeekSize is how far into the input the declared encoding is searched.
const declarationPeekSize = 1024

// defaultMaxTokenSize matches the tokenizer's own growth limit.
const defaultMaxTokenSize = 1 << 20

const (
	cdataOpen  = "<![CDATA["
	cdataClose = "]]>"
)

var encodingPattern = regexp.MustCompile(`^\s*<\?xml[^>]*?encoding\s*=\s*["']([A-Za-z0-9._:-]+)["']`)

// =============================================================================
// READER OPTIONS
// =============================================================================

// ReaderOptions configures a Reader.
type ReaderOptions struct {
	// MaxTokenSize bounds the bytes a single token may span: a tag together
	// with the text right after it. Longer tokens fail the read.
	// Default: 1 MiB
	MaxTokenSize int
}

// DefaultReaderOptions returns the default reader options.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{
		MaxTokenSize: defaultMaxTokenSize,
	}
}

// =============================================================================
// READER
// =============================================================================

// Reader reads events from an XML byte stream.
type Reader struct {
	tokenizer *xmltokenizer.Tokenizer
	pending   []Event
	done      bool
}

// NewReader creates a Reader with the default options.
func NewReader(r io.Reader) (*Reader, error) {
	return NewReaderWithOptions(r, DefaultReaderOptions())
}

// NewReaderWithOptions creates a Reader with custom options.
//
// RETURNS:
//   - The reader.
//   - An error wrapping ErrEncoding if the declared encoding is unsupported,
//     or the read error if the start of the input cannot be read.
func NewReaderWithOptions(r io.Reader, options ReaderOptions) (*Reader, error) {
	input, err := decodeDeclaredEncoding(r)
	if err != nil {
		return nil, err
	}

	if options.MaxTokenSize <= 0 {
		options.MaxTokenSize = defaultMaxTokenSize
	}

	return &Reader{
		tokenizer: xmltokenizer.New(input,
			xmltokenizer.WithAutoGrowBufferMaxLimitSize(options.MaxTokenSize),
		),
	}, nil
}

// Next returns the next event of the document.
func (r *Reader) Next() (Event, error) {
	if len(r.pending) > 0 {
		ev := r.pending[0]
		r.pending = r.pending[1:]
		return ev, nil
	}
	if r.done {
		return Event{Kind: EOF}, nil
	}

	for {
		raw, err := r.tokenizer.RawToken()
		if errors.Is(err, io.EOF) {
			// Bytes returned with io.EOF lie outside any tag.
			r.done = true
			return Event{Kind: EOF}, nil
		}
		if err != nil {
			return Event{}, fmt.Errorf("failed to read xml: %w", err)
		}
		if len(raw) == 0 {
			continue
		}

		if !utf8.Valid(raw) {
			return Event{}, fmt.Errorf("%w: invalid UTF-8 in %q", ErrEncoding, excerpt(raw))
		}

		events, err := decodeToken(raw)
		if err != nil {
			return Event{}, err
		}
		if len(events) == 0 {
			continue
		}

		r.pending = append(r.pending, events[1:]...)
		return events[0], nil
	}
}

// =============================================================================
// TOKEN DECODING
// =============================================================================

// decodeToken turns one raw token into zero, one or two events.
func decodeToken(raw []byte) ([]Event, error) {
	switch {
	case bytes.HasPrefix(raw, []byte("<?")):
		if body, ok := declarationBody(raw); ok {
			return []Event{{Kind: Declaration, Text: body}}, nil
		}
		return nil, nil

	case bytes.HasPrefix(raw, []byte("<!")):
		// Comments and directives carry no tag data.
		return nil, nil
	}

	end, err := tagEnd(raw)
	if err != nil {
		return nil, err
	}

	head := raw[1:end]
	selfClosing := len(head) > 0 && head[len(head)-1] == '/'
	if selfClosing {
		head = head[:len(head)-1]
	}

	var tag Event
	if len(head) > 0 && head[0] == '/' {
		name := strings.TrimSpace(string(head[1:]))
		if name == "" || selfClosing {
			return nil, malformed(raw[:end+1])
		}
		tag = Event{Kind: End, Name: name}
	} else {
		name, attrs, err := parseHead(string(head))
		if err != nil {
			return nil, malformed(raw[:end+1])
		}
		tag = Event{Kind: Start, Name: name, Attributes: attrs}
		if selfClosing {
			tag.Kind = Empty
		}
	}

	events := []Event{tag}
	if text := charData(raw[end+1:]); text != "" {
		events = append(events, Event{Kind: Text, Text: text})
	}
	return events, nil
}

// tagEnd returns the index of the '>' closing the tag at the start of raw.
func tagEnd(raw []byte) (int, error) {
	var quote byte
	for i := 1; i < len(raw); i++ {
		switch c := raw[i]; {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return i, nil
		}
	}
	return 0, malformed(raw)
}

// parseHead reads `name a="1" b='2'` into a name and ordered attributes.
func parseHead(head string) (string, []types.Attribute, error) {
	head = strings.TrimSpace(head)

	cut := strings.IndexFunc(head, isSpace)
	if cut < 0 {
		cut = len(head)
	}
	name := head[:cut]
	if name == "" {
		return "", nil, ErrSyntax
	}

	var attrs []types.Attribute
	rest := head[cut:]
	for {
		rest = strings.TrimLeftFunc(rest, isSpace)
		if rest == "" {
			return name, attrs, nil
		}

		eq := strings.IndexByte(rest, '=')
		if eq <= 0 {
			return "", nil, ErrSyntax
		}
		key := strings.TrimRightFunc(rest[:eq], isSpace)
		if strings.IndexFunc(key, isSpace) >= 0 {
			return "", nil, ErrSyntax
		}

		rest = strings.TrimLeftFunc(rest[eq+1:], isSpace)
		if rest == "" || (rest[0] != '"' && rest[0] != '\'') {
			return "", nil, ErrSyntax
		}
		closing := strings.IndexByte(rest[1:], rest[0])
		if closing < 0 {
			return "", nil, ErrSyntax
		}

		attrs = append(attrs, types.Attribute{
			Key:   key,
			Value: unescape(rest[1 : 1+closing]),
		})
		rest = rest[2+closing:]
	}
}

// charData decodes the text attached to a tag token. CDATA sections are kept
// literally, everything else has its references decoded.
func charData(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return ""
	}

	var sb strings.Builder
	for {
		open := strings.Index(s, cdataOpen)
		if open < 0 {
			sb.WriteString(unescape(s))
			break
		}
		sb.WriteString(unescape(s[:open]))

		s = s[open+len(cdataOpen):]
		end := strings.Index(s, cdataClose)
		if end < 0 {
			sb.WriteString(s)
			break
		}
		sb.WriteString(s[:end])
		s = s[end+len(cdataClose):]
	}

	return strings.TrimSpace(sb.String())
}

// declarationBody returns the instruction body of an `<?xml ...?>` token.
func declarationBody(raw []byte) (string, bool) {
	const open = "<?xml"
	if !bytes.HasPrefix(raw, []byte(open)) || !bytes.HasSuffix(raw, []byte("?>")) {
		return "", false
	}

	body := string(raw[len(open) : len(raw)-2])
	if body != "" && !isSpace(rune(body[0])) {
		// <?xml-stylesheet ...?> and friends
		return "", false
	}
	return strings.TrimSpace(body), true
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// decodeDeclaredEncoding wraps r in a UTF-8 decoder if the XML declaration
// names another encoding.
func decodeDeclaredEncoding(r io.Reader) (io.Reader, error) {
	buffered := bufio.NewReader(r)

	head, err := buffered.Peek(declarationPeekSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	match := encodingPattern.FindSubmatch(head)
	if match == nil {
		return buffered, nil
	}

	label := string(match[1])
	if strings.EqualFold(label, "utf-8") || strings.EqualFold(label, "utf8") {
		return buffered, nil
	}

	decoded, err := charset.NewReaderLabel(label, buffered)
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported encoding %q: %v", ErrEncoding, label, err)
	}

	return decoded, nil
}

// unescape decodes entity and character references.
func unescape(s string) string {
	if strings.IndexByte(s, '&') < 0 {
		return s
	}
	return html.UnescapeString(s)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func malformed(tag []byte) error {
	return fmt.Errorf("failed to read xml: %w: %q", ErrSyntax, excerpt(tag))
}

// excerpt shortens a token for error messages.
func excerpt(raw []byte) string {
	const limit = 64
	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}
	return string(raw)
}
