package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/vhu/portal/internal/ctxkeys"
	"github.com/vhu/portal/internal/service"
	"github.com/vhu/portal/internal/storage"
	"github.com/vhu/portal/internal/validation"
)

type MediaHandler struct {
	assetService *service.AssetService
	store        storage.Store
	maxSize      int64
}

func NewMediaHandler(assetService *service.AssetService, store storage.Store, maxSize int64) *MediaHandler {
	return &MediaHandler{
		assetService: assetService,
		store:        store,
		maxSize:      maxSize,
	}
}

type uploadResponse struct {
	MediaID  int64  `json:"mediaId"`
	Location string `json:"location"`
}

// Upload stages a file so a form can reference it before its record exists.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Leave room for the multipart envelope
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+1<<20)

	err := r.ParseMultipartForm(h.maxSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			slog.Error("failed to close file", "error", closeErr)
		}
	}()

	mimeType, err := validation.ValidateFile(header, validation.ImageConstraints, validation.DocumentConstraints)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	asset, err := h.assetService.Stage(r.Context(), file, header.Filename, mimeType)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var userID int64
	if principal := ctxkeys.Principal(r.Context()); principal != nil {
		userID = principal.UserID
	}
	slog.Info("media uploaded",
		"asset_id", asset.ID,
		"user_id", userID,
		"size", asset.Size,
	)

	writeJSON(w, http.StatusCreated, uploadResponse{
		MediaID:  asset.ID,
		Location: asset.PublicURL,
	})
}

// Serve streams a stored file; the path is checked against the storage
// root before any lookup.
func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("path")
	if _, err := storage.Key(key); err != nil || hasHiddenSegment(key) {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=86400")
	h.store.Serve(w, r, key)
}

// hasHiddenSegment reports whether any segment of key is a dot file, such
// as the temp files a store writes before renaming.
func hasHiddenSegment(key string) bool {
	for segment := range strings.SplitSeq(key, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}
