package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/modhearth/modhearth/internal/core"
	"github.com/modhearth/modhearth/internal/core/registry"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q := registry.SearchQuery{
		Text: params.Get("q"),
	}

	if raw := params.Get("category"); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || categoryID < 0 {
			HandleError(w, r, &BadRequestError{Message: fmt.Sprintf("invalid category id: %s", raw)})
			return
		}
		q.CategoryID = categoryID
	}

	if raw := params.Get("sort"); raw != "" {
		sort, err := core.ParseSortField(raw)
		if err != nil {
			HandleError(w, r, &BadRequestError{Message: err.Error()})
			return
		}
		q.Sort = sort
	}

	if raw := params.Get("order"); raw != "" {
		order, err := core.ParseSortOrder(raw)
		if err != nil {
			HandleError(w, r, &BadRequestError{Message: err.Error()})
			return
		}
		q.Order = order
	}

	if raw := params.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			HandleError(w, r, &BadRequestError{Message: fmt.Sprintf("invalid page: %s", raw)})
			return
		}
		q.Page = page
	}

	if raw := params.Get("pageSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			HandleError(w, r, &BadRequestError{Message: fmt.Sprintf("invalid page size: %s", raw)})
			return
		}
		q.PageSize = size
	}

	result, err := s.mods.SearchMods(r.Context(), q)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetMod(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		HandleError(w, r, &BadRequestError{Message: fmt.Sprintf("invalid mod id: %s", raw)})
		return
	}

	mod, err := s.mods.GetMod(r.Context(), id)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mod)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.mods.GetCategories(r.Context())
	if err != nil {
		HandleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleRateLimits(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.rateLimits.ListRateLimitStatuses(r.Context())
	if err != nil {
		HandleError(w, r, err)
		return
	}

	if statuses == nil {
		statuses = []*core.RateLimitStatus{}
	}
	writeJSON(w, http.StatusOK, statuses)
}
