package main

import (
	_ "embed"
	"html/template"
	"sync"

	"github.com/rs/zerolog/log"
)

//go:embed www/index.html
var indexTemplateEmbed string

var (
	indexTemplate     *template.Template
	indexTemplateErr  error
	indexTemplateOnce sync.Once
)

// GetIndexTemplate parses the embedded status page once and caches it.
func GetIndexTemplate() (*template.Template, error) {
	indexTemplateOnce.Do(func() {
		log.Debug().Msg("Caching embedded index.html")
		indexTemplate, indexTemplateErr = template.New("index.html").Parse(indexTemplateEmbed)
	})

	return indexTemplate, indexTemplateErr
}
