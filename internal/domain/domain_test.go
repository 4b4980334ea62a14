package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifyVendor(t *testing.T) {
	tests := []struct {
		url  string
		want Vendor
	}{
		{"https://boards.greenhouse.io/acme", VendorGreenhouse},
		{"https://board.greenhouse.io/acme", VendorGreenhouse},
		{"https://jobs.lever.co/acme", VendorLever},
		{"https://jobs.ashbyhq.com/acme", VendorAshby},
		{"https://apply.workable.com/acme", VendorWorkable},
		{"https://acme.wd5.myworkdayjobs.com/External", VendorWorkday},
		{"https://acme.com/careers", VendorUnknown},
		{"", VendorUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IdentifyVendor(tt.url))
		})
	}
}

func TestParseVendor(t *testing.T) {
	assert.Equal(t, VendorLever, ParseVendor(" Lever "))
	assert.Equal(t, VendorUnknown, ParseVendor("taleo"))
	assert.Equal(t, VendorUnknown, ParseVendor(""))
}

func TestCompanyValidate(t *testing.T) {
	ok := Company{Name: "Acme", Domain: "acme.com", ATSType: VendorLever, ATSURL: "https://jobs.lever.co/acme"}
	require.NoError(t, ok.Validate())

	unresolved := Company{Name: "Acme", Domain: "acme.com", ATSType: VendorUnknown}
	require.NoError(t, unresolved.Validate())

	tests := []struct {
		name string
		co   Company
	}{
		{"missing name", Company{Domain: "acme.com"}},
		{"missing domain", Company{Name: "Acme"}},
		{"vendor without url", Company{Name: "Acme", Domain: "acme.com", ATSType: VendorLever}},
		{"url from another vendor", Company{
			Name: "Acme", Domain: "acme.com",
			ATSType: VendorLever, ATSURL: "https://boards.greenhouse.io/acme",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.co.Validate())
		})
	}
}

func TestContentHash(t *testing.T) {
	a := ContentHash("Engineer", "desc", "Tokyo")
	assert.Equal(t, a, ContentHash("Engineer", "desc", "Tokyo"))
	assert.Len(t, a, 64)

	// The separator keeps field boundaries unambiguous.
	assert.NotEqual(t, ContentHash("ab", "c", ""), ContentHash("a", "bc", ""))
	assert.NotEqual(t, a, ContentHash("Engineer", "desc", "Osaka"))
}
