package http

import (
	"net/http"
	"sync/atomic"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/importer"
	applog "github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/log"
)

type rejectedView struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type importPayload struct {
	File     string         `json:"file"`
	Accepted int            `json:"accepted"`
	Rejected []rejectedView `json:"rejected"`
	Version  int64          `json:"version"`
}

func rejectedViews(records []importer.RejectedRecord) []rejectedView {
	out := make([]rejectedView, 0, len(records))
	for _, rec := range records {
		out = append(out, rejectedView{Line: rec.Line, Reason: rec.Reason})
	}
	return out
}

// handleImport accepts one uploaded statement (CSV, XLSX or XLS) under
// the form field "file" and lands the accepted rows as a single batch.
// Row rejections do not fail the request; the report carries them.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w, r)
		return
	}
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		BadRequestError("upload too large or malformed").Write(w, r)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		BadRequestError("missing file field").Write(w, r)
		return
	}
	defer file.Close()

	res, err := s.session.Import(ctx, header.Filename, file)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "import failed",
			applog.FieldOperation, applog.OpImport,
			applog.FieldFile, header.Filename,
			applog.FieldError, err.Error())
		DomainError(err).Write(w, r)
		return
	}
	atomic.AddInt64(&s.appMetrics.rowsLanded, int64(res.Accepted))

	NewJSONResponse().Payload(importPayload{
		File:     header.Filename,
		Accepted: res.Accepted,
		Rejected: rejectedViews(res.Rejected),
		Version:  s.session.Status().Version,
	}).Write(w, r)
}
