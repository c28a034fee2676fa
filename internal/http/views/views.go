// Package views holds the embedded HTML pages rendered by the handlers.
package views

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/template/html/v2"

	"laporan/internal/model"
)

//go:embed templates/*.html
var templates embed.FS

// New returns a Fiber view engine over the embedded templates.
// Timestamps are rendered in loc.
func New(loc *time.Location) *html.Engine {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("formatTime", func(t time.Time) string {
		return model.FormatTime(t, loc)
	})
	engine.AddFunc("inputTime", func(t time.Time) string {
		return model.FormatInput(t, loc)
	})
	engine.AddFunc("inc", func(i int) int {
		return i + 1
	})
	return engine
}
