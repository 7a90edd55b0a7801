// =============================================================================
// E-Bilanz Converter - Taxonomy Classification
// =============================================================================
//
// E-Bilanz documents embed an XBRL instance inside the ELSTER envelope. Facts
// inside the instance belong to one of two taxonomies, and each taxonomy has
// its own serialization convention:
//
//   <de-gcd:genInfo.report.audit.city contextRef="D-AKTJAHR">Berlin</de-gcd:...>
//       GCD facts are textual. An unset GCD fact is an empty element that keeps
//       its descriptive attributes.
//
//   <de-gaap-ci:is.netIncome... contextRef="D-AKTJAHR" unitRef="EUR" decimals="2">550.50</...>
//       GAAP-CI facts are monetary. A set fact carries decimals="2", an unset
//       fact carries xsi:nil="true" instead.
//
// Classification is a substring match on the qualified tag name. Namespace
// prefixes are never resolved.
//
// =============================================================================

package taxonomy

import (
	"strings"

	"github.com/ginjaninja78/ebilanz-converter/internal/types"
)

// =============================================================================
// TAXONOMY
// =============================================================================

// Taxonomy classifies an element by the dialect its tag name belongs to.
type Taxonomy int

const (
	// Plain elements belong to the outer envelope (ELSTER transfer header etc.).
	Plain Taxonomy = iota

	// XbrlContainer is the XBRL instance root (e.g. "xbrli:xbrl").
	XbrlContainer

	// Gcd elements belong to the global common document taxonomy.
	Gcd

	// GaapCi elements belong to the GAAP current-investment taxonomy.
	GaapCi
)

// Substring markers, checked in this order.
const (
	XbrlMarker   = "xbrl"
	GcdMarker    = "gcd"
	GaapCiMarker = "gaap-ci"
)

// String returns a readable name for the taxonomy.
func (t Taxonomy) String() string {
	switch t {
	case XbrlContainer:
		return "xbrl"
	case Gcd:
		return "gcd"
	case GaapCi:
		return "gaap-ci"
	default:
		return "plain"
	}
}

// Classify returns the taxonomy of a qualified tag name. First match wins;
// unmatched names are Plain.
func Classify(name string) Taxonomy {
	switch {
	case strings.Contains(name, XbrlMarker):
		return XbrlContainer
	case strings.Contains(name, GcdMarker):
		return Gcd
	case strings.Contains(name, GaapCiMarker):
		return GaapCi
	default:
		return Plain
	}
}

// =============================================================================
// XBRL ATTRIBUTE CONVENTIONS
// =============================================================================

// DecimalsKey is the attribute carrying the precision of a monetary fact.
const DecimalsKey = "decimals"

// NilKey is the attribute marking a monetary fact as explicitly unset.
const NilKey = "xsi:nil"

var (
	// NilAttribute marks an unset GAAP-CI fact.
	NilAttribute = types.Attribute{Key: NilKey, Value: "true"}

	// Decimals2 is the precision applied to every injected GAAP-CI fact.
	Decimals2 = types.Attribute{Key: DecimalsKey, Value: "2"}

	// Decimals0 is the whole-number precision convention. Nothing in the
	// pipeline applies it.
	Decimals0 = types.Attribute{Key: DecimalsKey, Value: "0"}
)
