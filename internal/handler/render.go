package handler // handler contains the HTTP handlers and page rendering

import (
    "embed"         // embed bundles templates and static assets into the binary
    "fmt"           // fmt wraps template errors
    "html/template" // html/template renders the pages with contextual escaping
    "io"            // io is the writer Render targets
    "io/fs"         // fs narrows the embedded static tree
    "net/url"       // url escapes building names used as path segments
    "path"          // path strips template file extensions

    "github.com/labstack/echo/v4" // echo defines the Renderer interface
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// StaticFS returns the embedded assets served under /static.
func StaticFS() fs.FS {
    sub, err := fs.Sub(staticFS, "static")
    if err != nil {
        panic(err)
    }
    return sub
}

// Renderer executes one template set per page.  Every set contains the
// shared layout plus the page's own "title" and "content" blocks.
type Renderer struct {
    pages map[string]*template.Template
}

// funcs are available to every page.  pathEscape keeps free-text building
// names such as "100%" or "A/B" in one path segment.
var funcs = template.FuncMap{"pathEscape": url.PathEscape}

// NewRenderer parses all embedded page templates.
func NewRenderer() (*Renderer, error) {
    files, err := fs.Glob(templateFS, "templates/*.html")
    if err != nil {
        return nil, err
    }
    r := &Renderer{pages: make(map[string]*template.Template, len(files))}
    for _, f := range files {
        name := path.Base(f)
        if name == "layout.html" {
            continue
        }
        t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", f)
        if err != nil {
            return nil, fmt.Errorf("parse %s: %w", name, err)
        }
        r.pages[name[:len(name)-len(path.Ext(name))]] = t
    }
    return r, nil
}

// Render implements echo.Renderer.  name is the page name without extension.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
    t, ok := r.pages[name]
    if !ok {
        return fmt.Errorf("unknown page %q", name)
    }
    return t.ExecuteTemplate(w, "layout", data)
}
