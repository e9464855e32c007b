package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"retryengine/src/model"
)

type merchantStore interface {
	Create(ctx context.Context, merchant *model.Merchant) error
	FindByID(ctx context.Context, id string) (*model.Merchant, error)
	FindAll(ctx context.Context) ([]model.Merchant, error)
}

// CreateMerchantRequest onboards a new merchant.
type CreateMerchantRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ListMerchantsHandler lists all merchants.
func ListMerchantsHandler(merchants merchantStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := merchants.FindAll(r.Context())
		if err != nil {
			http.Error(w, "failed to list merchants", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, all)
	}
}

// GetMerchantHandler returns a single merchant by id.
func GetMerchantHandler(merchants merchantStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchant, err := merchants.FindByID(r.Context(), chi.URLParam(r, "merchantID"))
		if err != nil {
			http.Error(w, "failed to load merchant", http.StatusInternalServerError)
			return
		}
		if merchant == nil {
			http.Error(w, "Merchant not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, merchant)
	}
}

// CreateMerchantHandler onboards a merchant together with its default retry
// configuration.
func CreateMerchantHandler(merchants merchantStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateMerchantRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Name == "" || req.Email == "" {
			http.Error(w, "name and email are required", http.StatusBadRequest)
			return
		}

		merchant := model.Merchant{Name: req.Name, Email: req.Email}
		if err := merchants.Create(r.Context(), &merchant); err != nil {
			http.Error(w, "failed to create merchant", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, merchant)
	}
}
