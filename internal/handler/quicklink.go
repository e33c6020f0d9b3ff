package handler

import (
	"net/http"

	"github.com/vhu/portal/internal/model"
	"github.com/vhu/portal/internal/service"
)

type QuickLinkHandler struct {
	quickLinkService *service.QuickLinkService
}

func NewQuickLinkHandler(quickLinkService *service.QuickLinkService) *QuickLinkHandler {
	return &QuickLinkHandler{quickLinkService: quickLinkService}
}

// List returns active links; staff see inactive ones too.
func (h *QuickLinkHandler) List(w http.ResponseWriter, r *http.Request) {
	links, err := h.quickLinkService.QuickLinks(!isStaff(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if links == nil {
		links = []*model.QuickLink{}
	}
	writeJSON(w, http.StatusOK, links)
}

func (h *QuickLinkHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	link, err := h.quickLinkService.ByID(id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (h *QuickLinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.QuickLinkInput
	if !decodeJSON(w, r, &in) {
		return
	}

	link, err := h.quickLinkService.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

func (h *QuickLinkHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in service.QuickLinkInput
	if !decodeJSON(w, r, &in) {
		return
	}

	link, err := h.quickLinkService.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (h *QuickLinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := h.quickLinkService.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
