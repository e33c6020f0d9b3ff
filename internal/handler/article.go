package handler

import (
	"net/http"

	"github.com/vhu/portal/internal/ctxkeys"
	"github.com/vhu/portal/internal/model"
	"github.com/vhu/portal/internal/service"
)

type ArticleHandler struct {
	articleService *service.ArticleService
}

func NewArticleHandler(articleService *service.ArticleService) *ArticleHandler {
	return &ArticleHandler{articleService: articleService}
}

type articlePage struct {
	Articles []*model.Article `json:"articles"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

type articleView struct {
	*model.Article
	Translation *model.ArticleTranslation `json:"translation"`
	HTML        string                    `json:"html"`
}

// List returns published articles. Staff may ask for other statuses.
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	status := model.ArticleStatusPublished
	if isStaff(r) {
		status = r.URL.Query().Get("status")
	}

	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	articles, err := h.articleService.Articles(status, limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if articles == nil {
		articles = []*model.Article{}
	}

	writeJSON(w, http.StatusOK, articlePage{
		Articles: articles,
		Limit:    limit,
		Offset:   offset,
	})
}

func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	article, err := h.articleService.ByID(id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if article.Status != model.ArticleStatusPublished && !isStaff(r) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	writeJSON(w, http.StatusOK, article)
}

// BySlug returns the article together with the rendered body of the
// variant the slug belongs to.
func (h *ArticleHandler) BySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	article, err := h.articleService.BySlug(slug)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if article.Status != model.ArticleStatusPublished && !isStaff(r) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var translation *model.ArticleTranslation
	for _, t := range article.Translations {
		if t.Slug == slug {
			translation = t
			break
		}
	}
	if translation == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	html, err := h.articleService.Render(translation)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, articleView{
		Article:     article,
		Translation: translation,
		HTML:        html,
	})
}

func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.ArticleInput
	if !decodeJSON(w, r, &in) {
		return
	}

	var authorID int64
	if principal := ctxkeys.Principal(r.Context()); principal != nil {
		authorID = principal.UserID
	}

	article, err := h.articleService.Create(r.Context(), authorID, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, article)
}

func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in service.ArticleInput
	if !decodeJSON(w, r, &in) {
		return
	}

	article, err := h.articleService.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, article)
}

func (h *ArticleHandler) TogglePin(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	article, err := h.articleService.TogglePin(id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, article)
}

func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := h.articleService.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func isStaff(r *http.Request) bool {
	principal := ctxkeys.Principal(r.Context())
	return principal != nil && principal.HasAnyRole(model.RoleAdmin, model.RoleEditor)
}
