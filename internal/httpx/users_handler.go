package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

type UserService interface {
	Register(ctx context.Context, in shop.RegisterInput) (*shop.User, error)
	GetUser(ctx context.Context, actor shop.Actor, id string) (*shop.User, error)
	ListUsers(ctx context.Context, actor shop.Actor, f shop.UserFilter) ([]shop.User, error)
}

type UsersHandler struct {
	Svc UserService
	Log *logrus.Logger
}

func (h *UsersHandler) Register(r *chi.Mux) {
	r.Post("/register", h.register)
	r.Get("/users", h.listUsers)
	r.Get("/users/{id}", h.getUser)
}

func (h *UsersHandler) register(w http.ResponseWriter, r *http.Request) {
	var in shop.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	u, err := h.Svc.Register(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *UsersHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	sortBy, dir := querySort(r)
	f := shop.UserFilter{
		Search: r.URL.Query().Get("search"),
		Role:   shop.Role(r.URL.Query().Get("role")),
		From:   queryTime(r, "from"),
		To:     queryTime(r, "to"),
		SortBy: sortBy,
		Dir:    dir,
		Page:   queryPage(r),
	}
	users, err := h.Svc.ListUsers(r.Context(), actor, f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UsersHandler) getUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	u, err := h.Svc.GetUser(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
