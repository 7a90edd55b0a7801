// =============================================================================
// E-Bilanz Converter - Tag Extractor
// =============================================================================
//
// The extractor reads a document once, front to back, and returns the flat
// list of leaf facts it contains. Only elements of the shape
//
//   <tag>value</tag>
//
// produce a record. Self-closing elements (<tag/>) and elements with nested
// children are skipped, so the result is exactly the set of filled-in facts
// that can be written to a CSV or spreadsheet and later fed back into a
// template with the generate command.
//
// =============================================================================

package extractor

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ginjaninja78/ebilanz-converter/internal/types"
	"github.com/ginjaninja78/ebilanz-converter/internal/xmlevent"
)

// ErrTruncated is returned together with the records read so far when the
// event source fails in the middle of the document.
var ErrTruncated = errors.New("extraction truncated")

// pending holds the three slots that are matched to form a record.
type pending struct {
	start *string
	text  *string
	end   *string
}

func (p *pending) complete() bool {
	return p.start != nil && p.text != nil && p.end != nil && *p.start == *p.end
}

func (p *pending) reset() {
	*p = pending{}
}

// Extract reads every leaf tag/value pair from the source.
//
// PARAMETERS:
//   - source: The document events.
//   - logger: Receives a warning on truncation. May be nil.
//
// RETURNS:
//   - The records in document order.
//   - nil, or an error wrapping ErrTruncated and the source error. The
//     records are valid in both cases; on error they cover the document up
//     to the failure.
func Extract(source xmlevent.Source, logger *zap.Logger) ([]types.Tag, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var records []types.Tag
	var slots pending

	for {
		ev, err := source.Next()
		if err != nil {
			logger.Warn("extraction stopped early",
				zap.Int("records", len(records)),
				zap.Error(err),
			)
			return records, fmt.Errorf("%w after %d records: %w", ErrTruncated, len(records), err)
		}

		switch ev.Kind {
		case xmlevent.Start:
			name := ev.Name
			slots.start = &name
		case xmlevent.End:
			name := ev.Name
			slots.end = &name
		case xmlevent.Text:
			text := ev.Text
			slots.text = &text
		case xmlevent.EOF:
			logger.Debug("extraction finished", zap.Int("records", len(records)))
			return records, nil
		default:
			// Empty elements and declarations never form a record.
		}

		if slots.complete() {
			records = append(records, types.Tag{Name: *slots.start, Value: slots.text})
			slots.reset()
		}
	}
}
