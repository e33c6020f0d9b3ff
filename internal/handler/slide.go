package handler

import (
	"net/http"

	"github.com/vhu/portal/internal/model"
	"github.com/vhu/portal/internal/service"
)

type SlideHandler struct {
	slideService *service.SlideService
}

func NewSlideHandler(slideService *service.SlideService) *SlideHandler {
	return &SlideHandler{slideService: slideService}
}

// List returns active slides; staff see inactive ones too.
func (h *SlideHandler) List(w http.ResponseWriter, r *http.Request) {
	slides, err := h.slideService.Slides(!isStaff(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if slides == nil {
		slides = []*model.Slide{}
	}
	writeJSON(w, http.StatusOK, slides)
}

func (h *SlideHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	slide, err := h.slideService.ByID(id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slide)
}

func (h *SlideHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.SlideInput
	if !decodeJSON(w, r, &in) {
		return
	}

	slide, err := h.slideService.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, slide)
}

func (h *SlideHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in service.SlideInput
	if !decodeJSON(w, r, &in) {
		return
	}

	slide, err := h.slideService.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slide)
}

func (h *SlideHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := h.slideService.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
