package http

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"myrupee/internal/core"
	"myrupee/internal/dashboard"
	"myrupee/internal/filter"
	applog "myrupee/internal/log"
)

type listResponse struct {
	Transactions []core.Transaction `json:"transactions"`
	Count        int                `json:"count"`
	Query        filter.Query       `json:"query"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := filter.ParseQuery(q.Get("search"), q.Get("type"), q.Get("sort"))
	list := sessionFrom(r.Context()).Dashboard.View(query.Search, query.Type, query.Sort)
	NewJSONResponse().Body(listResponse{Transactions: list, Count: len(list), Query: query}).Write(w)
}

type createResponse struct {
	Transaction core.Transaction `json:"transaction"`
	Message     string           `json:"message"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entry := sessionFrom(ctx)
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentDashboard)

	p := NewRequestBodyParser(w, r, maxBodyBytes)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}

	n, err := p.Draft().Validate()
	if err != nil {
		var fe core.FieldErrors
		if errors.As(err, &fe) {
			logger.DebugContext(ctx, "Rejected transaction form", "fields", len(fe))
			FieldErrorsResponse(fe).Write(w)
			return
		}
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	tx, err := entry.Dashboard.AddTransaction(ctx, n)
	switch {
	case err == nil:
	case errors.Is(err, dashboard.ErrNotSignedIn):
		UnauthorizedError(err.Error()).Write(w)
		return
	case errors.Is(err, dashboard.ErrRemote):
		BadGatewayError("Failed to add transaction").Write(w)
		return
	default:
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	s.events.LogTransactionCreated(ctx, tx.UserID, tx.ID, tx.Name, string(tx.Type), tx.Amount, tx.Tag, tx.Date)
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+tx.ID).
		Body(createResponse{Transaction: tx, Message: tx.Type.Label() + " added successfully!"}).
		Write(w)
}

// handleImport accepts a multipart upload in the "file" field or a raw CSV
// body.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entry := sessionFrom(ctx)
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	var src io.Reader
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		file, _, err := r.FormFile("file")
		if err != nil {
			BadRequestError("missing file field").Write(w)
			return
		}
		defer file.Close()
		src = file
	} else {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			BadRequestError("could not read request body").Write(w)
			return
		}
		src = bytes.NewReader(body)
	}

	rep, err := entry.Dashboard.Import(ctx, src)
	if err != nil {
		switch {
		case errors.Is(err, filter.ErrMalformedCSV):
			BadRequestError("Error importing CSV: " + err.Error()).Write(w)
		case errors.Is(err, dashboard.ErrNotSignedIn):
			UnauthorizedError(err.Error()).Write(w)
		default:
			s.events.LogError(ctx, "CSV import failed", err, applog.ComponentImport, applog.OpImport, nil)
			InternalServerError("Error importing CSV").Write(w)
		}
		return
	}

	uid := ""
	if u := entry.Dashboard.Auth().User; u != nil {
		uid = u.UID
	}
	s.events.LogImport(ctx, uid, rep.Added, rep.Failed)
	NewJSONResponse().Body(rep).Write(w)
}

// handleExport streams every transaction as CSV, or XLSX with
// ?format=xlsx. List filters are ignored.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	list := sessionFrom(ctx).Dashboard.Transactions()
	now := s.now()

	var (
		buf         bytes.Buffer
		err         error
		filename    string
		contentType string
	)
	switch strings.ToLower(q.Get("format")) {
	case "", "csv":
		filename, contentType = filter.ExportFilename(now), "text/csv; charset=utf-8"
		err = filter.ExportCSV(&buf, list)
	case "xlsx":
		filename = filter.ExportXLSXFilename(now)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = filter.ExportXLSX(&buf, list)
	default:
		BadRequestError("format must be csv or xlsx").Write(w)
		return
	}
	if err != nil {
		s.events.LogError(ctx, "Export failed", err, applog.ComponentDashboard, applog.OpExport, nil)
		InternalServerError("export failed").Write(w)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
