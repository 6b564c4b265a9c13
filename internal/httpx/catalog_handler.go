package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

type CatalogService interface {
	CreateProduct(ctx context.Context, actor shop.Actor, in shop.CreateProductInput) (*shop.Product, error)
	UpdateProduct(ctx context.Context, actor shop.Actor, id string, in shop.UpdateProductInput) (*shop.Product, error)
	DeleteProduct(ctx context.Context, actor shop.Actor, id string) error
	GetProduct(ctx context.Context, id string) (*shop.Product, error)
	ListProducts(ctx context.Context, f shop.ProductFilter) ([]shop.Product, error)
	CreateCategory(ctx context.Context, actor shop.Actor, in shop.CreateCategoryInput) (*shop.Category, error)
	ListCategories(ctx context.Context) ([]shop.Category, error)
}

type CatalogHandler struct {
	Svc CatalogService
	Log *logrus.Logger
}

func (h *CatalogHandler) Register(r *chi.Mux) {
	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Get("/products/{id}", h.getProduct)
	r.Patch("/products/{id}", h.updateProduct)
	r.Delete("/products/{id}", h.deleteProduct)
	r.Get("/categories", h.listCategories)
	r.Post("/categories", h.createCategory)
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	sortBy, dir := querySort(r)
	f := shop.ProductFilter{
		Search:     r.URL.Query().Get("search"),
		CategoryID: r.URL.Query().Get("category_id"),
		PriceMin:   queryFloat(r, "price_min"),
		PriceMax:   queryFloat(r, "price_max"),
		SortBy:     sortBy,
		Dir:        dir,
		Page:       queryPage(r),
	}
	products, err := h.Svc.ListProducts(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Svc.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var in shop.CreateProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	p, err := h.Svc.CreateProduct(r.Context(), actor, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var in shop.UpdateProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	p, err := h.Svc.UpdateProduct(r.Context(), actor, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if err := h.Svc.DeleteProduct(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Svc.ListCategories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *CatalogHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var in shop.CreateCategoryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	c, err := h.Svc.CreateCategory(r.Context(), actor, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}
