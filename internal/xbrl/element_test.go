package xbrl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/ebilanz-converter/internal/taxonomy"
	"github.com/ginjaninja78/ebilanz-converter/internal/types"
	"github.com/ginjaninja78/ebilanz-converter/internal/xmlevent"
)

func parseString(t *testing.T, doc string) *Element {
	t.Helper()

	reader, err := xmlevent.NewReader(strings.NewReader(doc))
	require.NoError(t, err)

	root, err := Parse(reader)
	require.NoError(t, err)
	return root
}

func render(t *testing.T, root *Element) string {
	t.Helper()

	var buf bytes.Buffer
	w := xmlevent.NewWriter(&buf)
	require.NoError(t, Serialize(root, w))
	require.NoError(t, w.Flush())
	return buf.String()
}

// sliceSource replays a fixed list of events followed by EOF.
type sliceSource struct {
	events []xmlevent.Event
}

func (s *sliceSource) Next() (xmlevent.Event, error) {
	if len(s.events) == 0 {
		return xmlevent.Event{Kind: xmlevent.EOF}, nil
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, nil
}

func TestParseLeafForms(t *testing.T) {
	want := &Element{
		Name:     "root",
		Taxonomy: taxonomy.Plain,
		Children: []*Element{{Name: "tag", Taxonomy: taxonomy.Plain}},
	}

	t.Run("self-closing", func(t *testing.T) {
		assert.Equal(t, want, parseString(t, "<root>\n  <tag/>\n</root>"))
	})

	t.Run("open and close", func(t *testing.T) {
		assert.Equal(t, want, parseString(t, "<root>\n  <tag></tag>\n</root>"))
	})
}

func TestParseClassifiesAndKeepsAttributes(t *testing.T) {
	root := parseString(t, `<?xml version="1.0" encoding="UTF-8"?>
<Elster xmlns="http://www.elster.de/elsterxml/schema/v11">
  <DatenTeil>
    <xbrli:xbrl xmlns:xbrli="http://www.xbrl.org/2003/instance">
      <de-gcd:genInfo.report.audit.city contextRef="D-AKTJAHR">Berlin</de-gcd:genInfo.report.audit.city>
      <de-gaap-ci:bs.ass contextRef="I-AKTJAHR" unitRef="EUR" decimals="2">1000.00</de-gaap-ci:bs.ass>
    </xbrli:xbrl>
  </DatenTeil>
</Elster>`)

	assert.Equal(t, "Elster", root.Name)
	assert.Equal(t, taxonomy.Plain, root.Taxonomy)
	assert.Equal(t, []types.Attribute{{Key: "xmlns", Value: "http://www.elster.de/elsterxml/schema/v11"}}, root.Attributes)

	instance := root.Children[0].Children[0]
	assert.Equal(t, taxonomy.XbrlContainer, instance.Taxonomy)
	require.Len(t, instance.Children, 2)

	city := instance.Children[0]
	assert.Equal(t, taxonomy.Gcd, city.Taxonomy)
	require.NotNil(t, city.Value)
	assert.Equal(t, "Berlin", *city.Value)

	assets := instance.Children[1]
	assert.Equal(t, taxonomy.GaapCi, assets.Taxonomy)
	assert.Equal(t, []types.Attribute{
		{Key: "contextRef", Value: "I-AKTJAHR"},
		{Key: "unitRef", Value: "EUR"},
		{Key: "decimals", Value: "2"},
	}, assets.Attributes)
}

func TestParseLastTextWins(t *testing.T) {
	root, err := Parse(&sliceSource{events: []xmlevent.Event{
		xmlevent.StartEvent("a"),
		xmlevent.TextEvent("first"),
		xmlevent.TextEvent("second"),
		xmlevent.EndEvent("a"),
	}})
	require.NoError(t, err)
	assert.Equal(t, "second", *root.Value)
}

func TestParseErrors(t *testing.T) {
	t.Run("mismatched end tag", func(t *testing.T) {
		reader, err := xmlevent.NewReader(strings.NewReader(`<a><b></a>`))
		require.NoError(t, err)

		_, err = Parse(reader)
		require.ErrorIs(t, err, ErrUnexpectedEndTag)

		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, "b", parseErr.Tag)
		assert.Equal(t, "a", parseErr.Found)
		assert.Contains(t, err.Error(), "</b>")
		assert.Contains(t, err.Error(), "</a>")
	})

	t.Run("declaration inside root", func(t *testing.T) {
		_, err := Parse(&sliceSource{events: []xmlevent.Event{
			xmlevent.StartEvent("a"),
			xmlevent.DeclarationEvent(),
		}})
		assert.ErrorIs(t, err, ErrUnexpectedDeclaration)
	})

	t.Run("document ends inside root", func(t *testing.T) {
		reader, err := xmlevent.NewReader(strings.NewReader(`<a><b>1</b>`))
		require.NoError(t, err)

		_, err = Parse(reader)
		assert.ErrorIs(t, err, ErrUnexpectedEOF)
	})

	t.Run("empty document", func(t *testing.T) {
		reader, err := xmlevent.NewReader(strings.NewReader(`<?xml version="1.0" encoding="UTF-8"?>`))
		require.NoError(t, err)

		_, err = Parse(reader)
		assert.ErrorIs(t, err, ErrMissingRoot)
	})

	t.Run("self-closing tag is not a root", func(t *testing.T) {
		_, err := Parse(&sliceSource{events: []xmlevent.Event{xmlevent.EmptyEvent("a")}})
		assert.ErrorIs(t, err, ErrMissingRoot)
	})

	t.Run("second root", func(t *testing.T) {
		reader, err := xmlevent.NewReader(strings.NewReader(`<a></a><b></b>`))
		require.NoError(t, err)

		_, err = Parse(reader)
		assert.ErrorIs(t, err, ErrMultipleRoots)
	})

	t.Run("encoding error is passed through", func(t *testing.T) {
		reader, err := xmlevent.NewReader(strings.NewReader("<a>\xff</a>"))
		require.NoError(t, err)

		_, err = Parse(reader)
		assert.ErrorIs(t, err, xmlevent.ErrEncoding)
	})
}

func TestAttributeHelpers(t *testing.T) {
	e := NewElement("x",
		types.Attribute{Key: "k", Value: "1"},
		types.Attribute{Key: "m", Value: "2"},
		types.Attribute{Key: "k", Value: "3"},
	)

	value, ok := e.Attribute("k")
	assert.True(t, ok)
	assert.Equal(t, "1", value)

	assert.True(t, e.RemoveAttribute("k"))
	assert.Equal(t, []types.Attribute{{Key: "m", Value: "2"}, {Key: "k", Value: "3"}}, e.Attributes)

	assert.False(t, e.RemoveAttribute("missing"))

	e.AppendAttribute(types.Attribute{Key: "z", Value: "9"})
	assert.Equal(t, "z", e.Attributes[len(e.Attributes)-1].Key)
}

func TestWalkIsPreOrder(t *testing.T) {
	root := parseString(t, `<a><b><c/></b><d/></a>`)

	var names []string
	root.Walk(func(e *Element) {
		names = append(names, e.Name)
	})
	assert.Equal(t, []string{"a", "b", "c", "d"}, names)
}
