package outline

import (
	"errors"
	"strings"

	"github.com/niklasfasching/go-org/org"

	"orgcal/internal/model"
)

var errIncludeDisabled = errors.New("#+INCLUDE is disabled")

// RenderHTML renders the raw text of doc as an HTML fragment.
// #+INCLUDE directives are not followed.
func RenderHTML(doc model.Document) (string, error) {
	conf := org.New().Silent()
	conf.ReadFile = func(string) ([]byte, error) { return nil, errIncludeDisabled }

	d := conf.Parse(strings.NewReader(doc.RawText), doc.Filename)
	return d.Write(org.NewHTMLWriter())
}
