package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/navsync/internal/catalog"
	"github.com/JonMunkholm/navsync/internal/core"
	"github.com/JonMunkholm/navsync/internal/extract"
	"github.com/JonMunkholm/navsync/internal/logging"
	"github.com/JonMunkholm/navsync/internal/store"
	mw "github.com/JonMunkholm/navsync/internal/web/middleware"
	"github.com/JonMunkholm/navsync/internal/web/templates"
)

// dashboardRows is how many recent records and failures the dashboard shows.
const dashboardRows = 20

// multipartOverhead is allowed on top of the file size for form framing.
const multipartOverhead = 1 << 20

// ----------------------------------------------------------------------------
// Pages
// ----------------------------------------------------------------------------

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	navs, err := s.service.ListNavs(ctx, store.NavFilter{Limit: dashboardRows})
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	failures, err := s.service.ListFailures(ctx, dashboardRows)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	codes, err := s.service.NavCodes(ctx)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	lastSync, err := s.service.LastSync(ctx)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	limiter := s.service.Limiter().Status()
	data := templates.DashboardData{
		MailEnabled:  s.service.MailEnabled(),
		LastSync:     lastSync,
		ActiveIngest: limiter.Active,
		MaxIngest:    limiter.MaxConcurrent,
		Codes:        codes,
	}
	for _, n := range navs {
		data.Navs = append(data.Navs, templates.NavRow{
			Code:    n.ProductCode,
			Name:    n.ProductName,
			Date:    n.NavDate.Format("2006-01-02"),
			UnitNAV: n.UnitNAV.String(),
			Layout:  n.Layout,
			Source:  n.Source,
		})
	}
	for _, f := range failures {
		data.Failures = append(data.Failures, templates.FailureRow{
			When:   f.CreatedAt.Format("2006-01-02 15:04"),
			File:   f.FileName,
			Sheet:  f.SheetName,
			Reason: f.Reason,
			Code:   f.Code,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Dashboard(data).Render(ctx, w); err != nil {
		logging.FromContext(ctx).Error("render dashboard", "error", err)
	}
}

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status      string                   `json:"status"`
	Database    string                   `json:"database,omitempty"`
	MailEnabled bool                     `json:"mailEnabled"`
	Ingest      core.IngestLimiterStatus `json:"ingest"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:      "ok",
		MailEnabled: s.service.MailEnabled(),
		Ingest:      s.service.Limiter().Status(),
	}
	status := http.StatusOK
	if s.ping != nil {
		if err := s.ping(r.Context()); err != nil {
			logging.FromContext(r.Context()).Warn("health check: database unreachable", "error", err)
			resp.Status, resp.Database = "degraded", "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}
	writeJSON(w, status, resp)
}

// ----------------------------------------------------------------------------
// Catalog
// ----------------------------------------------------------------------------

type catalogField struct {
	Field   catalog.Field `json:"field"`
	Type    string        `json:"type"`
	Core    bool          `json:"core"`
	Aliases []string      `json:"aliases"`
}

// handleCatalog lists the field catalog as JSON, or as TOML with
// ?format=toml so it can be edited and loaded back.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	cat := s.service.Catalog()

	if r.URL.Query().Get("format") == "toml" {
		data, err := catalog.Marshal(cat)
		if err != nil {
			s.respondError(w, r, err, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/toml")
		w.Header().Set("Content-Disposition", `attachment; filename="catalog.toml"`)
		w.Write(data)
		return
	}

	fields := make([]catalogField, 0, cat.Len())
	for _, e := range cat.Entries() {
		fields = append(fields, catalogField{
			Field:   e.Field,
			Type:    e.Type.String(),
			Core:    catalog.IsCore(e.Field),
			Aliases: e.Aliases,
		})
	}
	writeJSON(w, http.StatusOK, fields)
}

// ----------------------------------------------------------------------------
// File processing
// ----------------------------------------------------------------------------

// readUpload returns the name and bytes of the multipart "file" field.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	maxSize := s.service.MaxFileSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return "", nil, fmt.Errorf("%w: request exceeds %d bytes", core.ErrFileTooLarge, maxSize)
		}
		return "", nil, errNoFile
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, errNoFile
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	return header.Filename, data, nil
}

// extractResponse is the body of POST /api/extract.
type extractResponse struct {
	FileName string             `json:"fileName"`
	Sheets   []core.SheetResult `json:"sheets"`
	Records  int                `json:"records"`
}

// handleExtract runs the engine over an uploaded file without storing
// anything. It takes an ingest slot like handleIngest. Sheets with no
// records carry the reason in their outcome.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	sheets, err := s.service.PreviewFile(r.Context(), name, data)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	resp := extractResponse{FileName: name, Sheets: sheets}
	for _, sh := range sheets {
		resp.Records += len(sh.Outcome.Records)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleIngest extracts and persists an uploaded file.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	meta := core.IngestMeta{
		Source: core.SourceUpload,
		Sender: mw.ClientIP(r),
	}
	result, err := s.service.IngestFile(r.Context(), meta, name, data)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleSync runs one mailbox sync and returns its summary.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.SyncMailbox(r.Context())
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ----------------------------------------------------------------------------
// Queries
// ----------------------------------------------------------------------------

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseDateParam accepts the same date spellings the engine does.
func parseDateParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	v := extract.ToDate(raw)
	if v.Kind != extract.ValueDate {
		return time.Time{}, fmt.Errorf("invalid date for %s: %q", name, raw)
	}
	return time.Parse("20060102", v.Text)
}

func (s *Server) handleListNavs(w http.ResponseWriter, r *http.Request) {
	from, err := parseDateParam(r, "from")
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	rows, err := s.service.ListNavs(r.Context(), store.NavFilter{
		Code:  r.URL.Query().Get("code"),
		From:  from,
		To:    to,
		Limit: parseIntParam(r, "limit", store.DefaultListLimit),
	})
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []store.NavRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleNavCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := s.service.NavCodes(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if codes == nil {
		codes = []string{}
	}
	writeJSON(w, http.StatusOK, codes)
}

func (s *Server) handleListFailures(w http.ResponseWriter, r *http.Request) {
	failures, err := s.service.ListFailures(r.Context(), parseIntParam(r, "limit", store.DefaultListLimit))
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if failures == nil {
		failures = []store.Failure{}
	}
	writeJSON(w, http.StatusOK, failures)
}
