// Package content embeds the built-in article set so the browser works
// out of the box with no docs directory configured.
package content

import (
	"embed"
	"io/fs"
)

//go:embed articles
var articles embed.FS

// FS returns the built-in articles rooted at the article names used by
// the default catalog ("networking/dns.md" and so on).
func FS() fs.FS {
	sub, err := fs.Sub(articles, "articles")
	if err != nil {
		// the embed directive guarantees the directory exists
		panic(err)
	}
	return sub
}
