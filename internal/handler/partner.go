package handler

import (
	"net/http"

	"github.com/vhu/portal/internal/model"
	"github.com/vhu/portal/internal/service"
)

type PartnerHandler struct {
	partnerService *service.PartnerService
}

func NewPartnerHandler(partnerService *service.PartnerService) *PartnerHandler {
	return &PartnerHandler{partnerService: partnerService}
}

// List returns partners in display order.
func (h *PartnerHandler) List(w http.ResponseWriter, r *http.Request) {
	partners, err := h.partnerService.Partners()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if partners == nil {
		partners = []*model.Partner{}
	}
	writeJSON(w, http.StatusOK, partners)
}

func (h *PartnerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	partner, err := h.partnerService.ByID(id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, partner)
}

func (h *PartnerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.PartnerInput
	if !decodeJSON(w, r, &in) {
		return
	}

	partner, err := h.partnerService.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, partner)
}

func (h *PartnerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in service.PartnerInput
	if !decodeJSON(w, r, &in) {
		return
	}

	partner, err := h.partnerService.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, partner)
}

func (h *PartnerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := h.partnerService.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
