package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// HandleExport downloads the filtered view as CSV. The suggested filename
// carries the dataset name, so it is sent both as an ASCII fallback and
// RFC 5987 encoded.
func (h *APIHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelections(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data, filename, err := h.explorer.Export(r.Context(), sel)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", contentDisposition(filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("write export", "error", err, "filename", filename)
	}
}

func contentDisposition(filename string) string {
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`,
		asciiFallback(filename), url.PathEscape(filename))
}

func asciiFallback(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r == '"' || r == '\\':
			out = append(out, '_')
		case r < 0x20 || r > 0x7e:
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
