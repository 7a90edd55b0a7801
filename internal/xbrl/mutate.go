// =============================================================================
// E-Bilanz Converter - Value Stripping and Injection
// =============================================================================
//
// A template is prepared in two passes. Strip clears every value so that no
// fact from the template survives by accident; Inject then fills in the
// values of the target table.
//
// ATTRIBUTE RULES:
//
//   Taxonomy   Strip                                 Inject (name found)
//   --------   -----------------------------------   -----------------------------------
//   GaapCi     drop decimals, append xsi:nil="true"  drop xsi:nil, append decimals="2"
//   Gcd        value only                            value only
//   Plain      value only                            value only
//
//   Only the first attribute with a given key is removed. Appended attributes
//   always go to the end of the list.
//
// =============================================================================

package xbrl

import (
	"github.com/ginjaninja78/ebilanz-converter/internal/taxonomy"
)

// Lookup provides target values by tag name. *tags.Table implements it.
type Lookup interface {
	Get(name string) (*string, bool)
}

// Strip removes the value of every element in the tree. GAAP-CI facts are
// additionally marked as nil.
//
// Stripping twice appends a second xsi:nil attribute to GAAP-CI facts.
func Strip(root *Element) {
	root.Walk(func(e *Element) {
		e.Value = nil

		if e.Taxonomy == taxonomy.GaapCi {
			e.RemoveAttribute(taxonomy.DecimalsKey)
			e.AppendAttribute(taxonomy.NilAttribute)
		}
	})
}

// Inject sets the value of every element whose name is found in the lookup.
// Every occurrence of a name receives the same value, wherever it sits in the
// tree. A name that is present without a value marks the element as present
// but empty, so it serializes as <tag></tag> rather than <tag/>.
//
// RETURNS:
//   - The number of elements that were updated.
func Inject(root *Element, lookup Lookup) int {
	updated := 0

	root.Walk(func(e *Element) {
		value, ok := lookup.Get(e.Name)
		if !ok {
			return
		}

		e.Value = presentValue(value)
		updated++

		if e.Taxonomy == taxonomy.GaapCi {
			e.RemoveAttribute(taxonomy.NilKey)
			e.AppendAttribute(taxonomy.Decimals2)
		}
	})

	return updated
}

// presentValue copies a looked-up value. A missing value becomes "".
func presentValue(value *string) *string {
	v := ""
	if value != nil {
		v = *value
	}
	return &v
}
