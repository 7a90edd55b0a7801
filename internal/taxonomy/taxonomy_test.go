package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		want Taxonomy
	}{
		{"xbrl root", "xbrli:xbrl", XbrlContainer},
		{"gcd fact", "de-gcd:genInfo.report.audit.city", Gcd},
		{"gaap-ci fact", "de-gaap-ci:is.netIncome.regular.operatingTC.otherCost.marketing", GaapCi},
		{"envelope tag", "Empfaenger", Plain},
		{"empty name", "", Plain},
		{"xbrl wins over gcd", "gcd-xbrl", XbrlContainer},
		{"gcd wins over gaap-ci", "de-gaap-ci:gcd", Gcd},
		{"case sensitive", "XBRL", Plain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.tag))
		})
	}
}

func TestTaxonomyString(t *testing.T) {
	assert.Equal(t, "plain", Plain.String())
	assert.Equal(t, "xbrl", XbrlContainer.String())
	assert.Equal(t, "gcd", Gcd.String())
	assert.Equal(t, "gaap-ci", GaapCi.String())
}

func TestAttributeConventions(t *testing.T) {
	assert.Equal(t, "xsi:nil", NilAttribute.Key)
	assert.Equal(t, "true", NilAttribute.Value)
	assert.Equal(t, "decimals", Decimals2.Key)
	assert.Equal(t, "2", Decimals2.Value)
	assert.Equal(t, "0", Decimals0.Value)
}
