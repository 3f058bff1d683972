package http

import (
	"errors"
	"io"
	"io/fs"
	"net/http"

	"rupeetrack/internal/core"
	applog "rupeetrack/internal/log"
)

// handlePing is the liveness check.
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	body, errResp := ReadBodyOrFail(r)
	if errResp != nil {
		errResp.Write(w)
		return
	}

	categories, err := s.catWriter.AddCategory(r.Context(), core.NewCategory(body))
	if err != nil {
		s.storageError(w, r, "Failed to add category", err)
		return
	}

	NewJSONResponse().Body(map[string]any{
		"success":    true,
		"categories": categories,
	}).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.catLister.ListCategories(r.Context())
	if err != nil {
		s.storageError(w, r, "Failed to list categories", err)
		return
	}
	NewJSONResponse().Body(map[string]any{"categories": categories}).Write(w)
}

// handleAddTransaction accepts a urlencoded or multipart form with an optional
// bill_image file part.
func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	if errResp := ParseFormOrFail(r); errResp != nil {
		s.logger.WarnContext(r.Context(), "Rejected transaction form",
			applog.FieldStatusCode, errResp.StatusCode(),
			applog.FieldErrorType, applog.ErrorTypeInvalidPayload)
		errResp.Write(w)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	receipt, closer, err := ReceiptFromRequest(r)
	if err != nil {
		BadRequestError("malformed file upload").Write(w)
		return
	}
	if closer != nil {
		defer closer.Close()
	}

	fields := FirstValues(r.PostForm)
	if r.MultipartForm != nil {
		// A file part sent without a name is decoded as a plain value.
		delete(fields, ReceiptField)
	}

	transactions, err := s.txWriter.AddTransaction(r.Context(), fields, receipt)
	if err != nil {
		s.storageError(w, r, "Failed to add transaction", err)
		return
	}

	NewJSONResponse().Body(map[string]any{
		"success":      true,
		"transactions": transactions,
	}).Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := s.txLister.ListTransactions(r.Context())
	if err != nil {
		s.storageError(w, r, "Failed to list transactions", err)
		return
	}
	NewJSONResponse().Body(map[string]any{"transactions": transactions}).Write(w)
}

// handleUpload serves a stored receipt. Directories and names escaping the upload
// directory are reported as missing.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	if !fs.ValidPath(name) || name == "." {
		NotFoundError("file not found").Write(w)
		return
	}

	f, err := s.uploads.Open(name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			applog.LogError(r.Context(), "Failed to open upload", err,
				applog.ComponentUpload, applog.OpUpload, applog.ErrorTypeStorageIO)
		}
		NotFoundError("file not found").Write(w)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		applog.LogError(r.Context(), "Failed to stat upload", err,
			applog.ComponentUpload, applog.OpUpload, applog.ErrorTypeStorageIO)
		NotFoundError("file not found").Write(w)
		return
	}
	content, ok := f.(io.ReadSeeker)
	if info.IsDir() || !ok {
		NotFoundError("file not found").Write(w)
		return
	}

	// ServeFileFS would redirect names ending in index.html.
	http.ServeContent(w, r, name, info.ModTime(), content)
}

func (s *Server) storageError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	errorType := applog.ErrorTypeInternal
	if errors.Is(err, core.ErrStorageIO) {
		errorType = applog.ErrorTypeStorageIO
	}
	applog.LogError(r.Context(), msg, err, applog.ComponentHTTP, applog.OpSave, errorType)
	InternalServerError(err.Error()).Write(w)
}
