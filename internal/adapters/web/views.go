package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

const placeholderImage = "/static/placeholder.svg"

// Page templates; each one is parsed together with the layout and partials.
const (
	pageHome           = "home"
	pageProperties     = "properties"
	pagePropertyDetail = "property_detail"
	pageLogin          = "login"
	pageRegister       = "register"
	pageError          = "error"
)

var pageNames = []string{pageHome, pageProperties, pagePropertyDetail, pageLogin, pageRegister, pageError}

var (
	argentina   = language.MustParse("es-AR")
	arPrinter   = message.NewPrinter(argentina)
	siteCaser   = cases.Title(language.Spanish)
	geohashBase = "https://geohash.org/"
)

// formatInteger groups digits the way es-AR does: 250000 -> "250.000".
func formatInteger(n int) string {
	return arPrinter.Sprintf("%d", n)
}

// positiveAmount mirrors the `amount > 0` check on stored text.
func positiveAmount(text string) bool {
	v, ok := domain.NumericValue(text)
	return ok && v > 0
}

func siteLabel(site string) string {
	if site == domain.SiteAll {
		return "All Sites"
	}
	return siteCaser.String(site)
}

func geohashURL(p domain.Property) string {
	hash := p.Geohash()
	if hash == "" {
		return ""
	}
	return geohashBase + hash
}

func coverPhoto(p domain.Property) string {
	if c := p.CoverPhoto(); c != "" {
		return c
	}
	return placeholderImage
}

// seq returns 0..n-1 for ranging n times in a template.
func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

var templateFuncs = template.FuncMap{
	"firstInt":       domain.FirstInteger,
	"formatInt":      formatInteger,
	"currencySymbol": domain.CurrencySymbol,
	"positive":       positiveAmount,
	"siteLabel":      siteLabel,
	"geohashURL":     geohashURL,
	"coverPhoto":     coverPhoto,
	"amount":         formatAmount,
	"inc":            func(i int) int { return i + 1 },
	"seq":            seq,
}

// viewData is what every page template receives.
type viewData struct {
	Title string
	User  *domain.User
	Page  interface{}
}

// Views renders the embedded page templates.
type Views struct {
	pages map[string]*template.Template
}

func NewViews() (*Views, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(templatesFS,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Views{pages: pages}, nil
}

// Render writes page with the given status. The page is rendered into a
// buffer first so a template error never leaves a half-written response.
func (v *Views) Render(w http.ResponseWriter, status int, page string, data viewData) error {
	tmpl, ok := v.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render page %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// StaticFiles serves the embedded assets, rooted at the static directory.
func StaticFiles() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// the directory is embedded at build time
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
