package storefront

import (
	"fmt"
	"strings"
)

// staticPaths are the fixed storefront routes included in every sitemap.
var staticPaths = []string{"/", "/shop", "/about", "/contact"}

// Sitemap assembles the storefront's sitemap XML from the synced catalog.
type Sitemap struct {
	BaseURL string
}

// Build renders a urlset document covering the static routes plus one entry
// per category and product slug. Order is stable: static, categories,
// products, each in the order given.
func (s Sitemap) Build(categories []Category, products []Product) string {
	base := strings.TrimRight(s.BaseURL, "/")

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")

	for _, path := range staticPaths {
		writeURL(&b, base+path)
	}
	for _, c := range categories {
		if c.Slug == "" {
			continue
		}
		writeURL(&b, fmt.Sprintf("%s/category/%s", base, c.Slug))
	}
	for _, p := range products {
		if p.Slug == "" {
			continue
		}
		writeURL(&b, fmt.Sprintf("%s/product/%s", base, p.Slug))
	}

	b.WriteString("</urlset>\n")
	return b.String()
}

func writeURL(b *strings.Builder, loc string) {
	b.WriteString("  <url><loc>")
	b.WriteString(loc)
	b.WriteString("</loc></url>\n")
}
