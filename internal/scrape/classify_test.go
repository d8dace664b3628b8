package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		html string
		want PageKind
	}{
		{
			"page title heading",
			`<html><body><h1 class="page-title"><span class="base">Widget</span></h1></body></html>`,
			PageProduct,
		},
		{
			"product heading",
			`<html><body><h1 class="product">Widget</h1></body></html>`,
			PageProduct,
		},
		{
			"jsonld product without product markup",
			`<html><head><script type="application/ld+json">{"@type":"Product","name":"W"}</script></head><body><h1>W</h1></body></html>`,
			PageProduct,
		},
		{
			"jsonld product inside graph",
			`<html><head><script type="application/ld+json">{"@graph":[{"@type":"Product","name":"W"}]}</script></head><body></body></html>`,
			PageProduct,
		},
		{
			"primary listing layout",
			`<html><body><ul class="product-listing"><li class="item"><a href="/p/1">A</a></li></ul></body></html>`,
			PageCategory,
		},
		{
			"ordered products grid",
			`<html><body><ol class="products"><li class="product-item"><a href="/p/1">A</a></li></ol></body></html>`,
			PageCategory,
		},
		{
			"card fallbacks",
			`<html><body><div class="product-card"><a href="/p/1">A</a></div></body></html>`,
			PageCategory,
		},
		{
			"product beats listing when both match",
			`<html><body><h1 class="product">W</h1><ol class="products"><li class="product-item">A</li></ol></body></html>`,
			PageProduct,
		},
		{
			"plain heading is not a product fingerprint",
			`<html><body><h1>About us</h1><p>hello</p></body></html>`,
			PageUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(docFromHTML(t, tt.html)))
		})
	}
}

func TestPageKindString(t *testing.T) {
	assert.Equal(t, "product", PageProduct.String())
	assert.Equal(t, "category", PageCategory.String())
	assert.Equal(t, "unknown", PageUnknown.String())
}
