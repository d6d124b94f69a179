package web

import (
	"net/http"

	appLog "orgcal/internal/log"
	"orgcal/internal/outline"
)

type fileDTO struct {
	Filename  string `json:"filename"`
	Headlines int    `json:"headlines"`
	Bytes     int    `json:"bytes"`
	Error     string `json:"error,omitempty"`
}

type fileDetailDTO struct {
	Filename string `json:"filename"`
	Raw      string `json:"raw"`
	HTML     string `json:"html"`
}

// handleFiles lists the documents of the current snapshot. Files that could
// not be read at all are listed with an error and no content.
func (s *Server) handleFiles(w http.ResponseWriter, _ *http.Request) {
	snap := s.lib.Snapshot()

	parseErrs := make(map[string]string, len(snap.ParseErrors))
	for _, pe := range snap.ParseErrors {
		parseErrs[pe.Filename] = pe.Error()
	}

	out := make([]fileDTO, 0, len(snap.Documents)+len(snap.Failures))
	for _, d := range snap.Documents {
		out = append(out, fileDTO{
			Filename:  d.Filename,
			Headlines: len(d.Headlines),
			Bytes:     len(d.RawText),
			Error:     parseErrs[d.Filename],
		})
	}
	for _, f := range snap.Failures {
		out = append(out, fileDTO{Filename: f.Filename, Error: f.Err.Error()})
	}

	writeJSON(w, http.StatusOK, out)
}

// handleFile returns one document's raw text and its HTML rendering.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	doc, ok := s.lib.Snapshot().Document(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown file")
		return
	}

	html, err := outline.RenderHTML(doc)
	if err != nil {
		// The raw text is still useful without a rendering.
		appLog.Warn("org render failed", "file", name, "error", err.Error())
	}

	writeJSON(w, http.StatusOK, fileDetailDTO{
		Filename: doc.Filename,
		Raw:      doc.RawText,
		HTML:     html,
	})
}
