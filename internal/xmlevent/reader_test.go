package xmlevent

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/ebilanz-converter/internal/types"
)

// readAll drains a reader up to and including the EOF event.
func readAll(t *testing.T, doc string) []Event {
	t.Helper()

	r, err := NewReader(strings.NewReader(doc))
	require.NoError(t, err)

	var events []Event
	for {
		ev, err := r.Next()
		require.NoError(t, err)
		events = append(events, ev)
		if ev.Kind == EOF {
			return events
		}
	}
}

func TestReaderEventSequence(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<Elster xmlns="http://www.elster.de/elsterxml/schema/v11">
  <TransferHeader version="11">
    <Verfahren>ElsterBilanz</Verfahren>
    <Empfaenger id="F"/>
  </TransferHeader>
</Elster>`

	events := readAll(t, doc)

	want := []Event{
		{Kind: Declaration, Text: `version="1.0" encoding="UTF-8"`},
		StartEvent("Elster", types.Attribute{Key: "xmlns", Value: "http://www.elster.de/elsterxml/schema/v11"}),
		StartEvent("TransferHeader", types.Attribute{Key: "version", Value: "11"}),
		StartEvent("Verfahren"),
		TextEvent("ElsterBilanz"),
		EndEvent("Verfahren"),
		EmptyEvent("Empfaenger", types.Attribute{Key: "id", Value: "F"}),
		EndEvent("TransferHeader"),
		EndEvent("Elster"),
		{Kind: EOF},
	}
	assert.Equal(t, want, events)
}

func TestReaderKeepsPrefixes(t *testing.T) {
	doc := `<xbrli:xbrl xmlns:xbrli="http://www.xbrl.org/2003/instance">` +
		`<de-gaap-ci:bs.ass unitRef="EUR" xsi:nil="true"/>` +
		`</xbrli:xbrl>`

	events := readAll(t, doc)
	require.Len(t, events, 4)

	assert.Equal(t, "xbrli:xbrl", events[0].Name)
	assert.Equal(t, "xmlns:xbrli", events[0].Attributes[0].Key)
	assert.Equal(t, Empty, events[1].Kind)
	assert.Equal(t, "de-gaap-ci:bs.ass", events[1].Name)
	assert.Equal(t, []types.Attribute{
		{Key: "unitRef", Value: "EUR"},
		{Key: "xsi:nil", Value: "true"},
	}, events[1].Attributes)
	assert.Equal(t, "xbrli:xbrl", events[2].Name)
}

func TestReaderDistinguishesEmptyFromOpenClose(t *testing.T) {
	events := readAll(t, `<r><a></a><b/><c x="1" /></r>`)

	kinds := make([]Kind, len(events))
	for i, ev := range events {
		kinds[i] = ev.Kind
	}
	assert.Equal(t, []Kind{Start, Start, End, Empty, Empty, End, EOF}, kinds)
}

func TestReaderSelfClosingAcrossBufferRefills(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<r>")
	for i := 0; i < 2000; i++ {
		sb.WriteString(`<leaf a="padding/padding"/><v>1</v>`)
	}
	sb.WriteString("</r>")

	events := readAll(t, sb.String())

	counts := map[Kind]int{}
	for _, ev := range events {
		counts[ev.Kind]++
	}
	assert.Equal(t, 2000, counts[Empty])
	assert.Equal(t, 2001, counts[Start])
	assert.Equal(t, 2000, counts[Text])
}

func TestReaderSlashInAttributeValue(t *testing.T) {
	doc := `<Elster xmlns="http://www.elster.de/elsterxml/schema/v11">` +
		`<link href='a/b' rel="x/y"/>` +
		`<path>c/d</path>` +
		`</Elster>`

	events := readAll(t, doc)

	assert.Equal(t, []Event{
		StartEvent("Elster", types.Attribute{Key: "xmlns", Value: "http://www.elster.de/elsterxml/schema/v11"}),
		EmptyEvent("link",
			types.Attribute{Key: "href", Value: "a/b"},
			types.Attribute{Key: "rel", Value: "x/y"},
		),
		StartEvent("path"),
		TextEvent("c/d"),
		EndEvent("path"),
		EndEvent("Elster"),
		{Kind: EOF},
	}, events)
}

func TestReaderAttributeSyntax(t *testing.T) {
	events := readAll(t, "<a\n  one = \"1\"\ttwo='2 &apos;q&apos;'\n/>")

	require.Len(t, events, 2)
	assert.Equal(t, EmptyEvent("a",
		types.Attribute{Key: "one", Value: "1"},
		types.Attribute{Key: "two", Value: "2 'q'"},
	), events[0])
}

func TestReaderTrimsText(t *testing.T) {
	events := readAll(t, "<a>\n   spaced value  \n</a><b>\n  \n</b>")

	assert.Equal(t, []Event{
		StartEvent("a"),
		TextEvent("spaced value"),
		EndEvent("a"),
		StartEvent("b"),
		EndEvent("b"),
		{Kind: EOF},
	}, events)
}

func TestReaderTextAfterEndTag(t *testing.T) {
	events := readAll(t, `<p><b>x</b>tail</p>`)

	assert.Equal(t, []Event{
		StartEvent("p"),
		StartEvent("b"),
		TextEvent("x"),
		EndEvent("b"),
		TextEvent("tail"),
		EndEvent("p"),
		{Kind: EOF},
	}, events)
}

func TestReaderCDATA(t *testing.T) {
	events := readAll(t, `<a><![CDATA[M&amp;A <GmbH>]]></a><b>x &amp; <![CDATA[&lt;]]></b>`)

	require.Len(t, events, 7)
	assert.Equal(t, TextEvent("M&amp;A <GmbH>"), events[1])
	assert.Equal(t, TextEvent("x & &lt;"), events[4])
}

func TestReaderMaxTokenSize(t *testing.T) {
	doc := "<a>" + strings.Repeat("x", 64<<10) + "</a>"

	r, err := NewReaderWithOptions(strings.NewReader(doc), ReaderOptions{MaxTokenSize: 8 << 10})
	require.NoError(t, err)

	var readErr error
	for i := 0; i < 10 && readErr == nil; i++ {
		var ev Event
		ev, readErr = r.Next()
		require.NotEqual(t, EOF, ev.Kind, "oversized token must not read as a complete document")
	}
	assert.ErrorContains(t, readErr, "failed to read xml")
}

func TestReaderMalformedTag(t *testing.T) {
	for _, doc := range []string{
		`<r><c attr=></c></r>`,
		`<r><c attr="1></c></r>`,
		`<r><c attr></c></r>`,
		`<r></ ></r>`,
	} {
		t.Run(doc, func(t *testing.T) {
			r, err := NewReader(strings.NewReader(doc))
			require.NoError(t, err)

			var readErr error
			for i := 0; i < 10 && readErr == nil; i++ {
				_, readErr = r.Next()
			}
			assert.ErrorIs(t, readErr, ErrSyntax)
		})
	}
}

func TestReaderSkipsCommentsAndInstructions(t *testing.T) {
	events := readAll(t, `<!DOCTYPE r><r><!-- note --><?style x?><a>1</a></r>`)

	assert.Equal(t, []Event{
		StartEvent("r"),
		StartEvent("a"),
		TextEvent("1"),
		EndEvent("a"),
		EndEvent("r"),
		{Kind: EOF},
	}, events)
}

func TestReaderUnescapesEntities(t *testing.T) {
	events := readAll(t, `<a t="x &amp; y &#34;z&#x22;">M&amp;A &lt;GmbH&gt; &#252;</a>`)
	assert.Equal(t, `x & y "z"`, events[0].Attributes[0].Value)
	assert.Equal(t, "M&A <GmbH> ü", events[1].Text)
}

func TestReaderDecodesDeclaredEncoding(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-15\"?><Ort>M\xfcnchen</Ort>"

	events := readAll(t, doc)
	require.Len(t, events, 5)
	assert.Equal(t, TextEvent("München"), events[2])
}

func TestReaderInvalidUTF8(t *testing.T) {
	r, err := NewReader(strings.NewReader("<r><a>1</a><b>\xff\xfe</b></r>"))
	require.NoError(t, err)

	for _, want := range []Event{StartEvent("r"), StartEvent("a"), TextEvent("1"), EndEvent("a")} {
		ev, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, want, ev)
	}

	_, err = r.Next()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEncoding))
}

func TestReaderUnsupportedEncoding(t *testing.T) {
	_, err := NewReader(strings.NewReader(`<?xml version="1.0" encoding="x-no-such-charset"?><a/>`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestReaderEOFIsSticky(t *testing.T) {
	r, err := NewReader(strings.NewReader(`<a/>`))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		ev, err := r.Next()
		require.NoError(t, err)
		if i > 0 {
			assert.Equal(t, EOF, ev.Kind)
		}
	}
}

func TestReaderDoesNotMatchEndTags(t *testing.T) {
	events := readAll(t, `<a></b>`)
	assert.Equal(t, []Event{StartEvent("a"), EndEvent("b"), {Kind: EOF}}, events)
}
