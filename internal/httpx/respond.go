package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError turns a typed shop error into its fixed HTTP shape. Anything
// that is not a *shop.Error has already been normalised by the storage
// layer, so the fallback stays generic.
func writeError(w http.ResponseWriter, err error) {
	var e *shop.Error
	if !errors.As(err, &e) {
		e = shop.E(shop.KindStorageFailed, "internal error")
	}
	writeJSON(w, statusOf(e.Kind), map[string]any{"error": e})
}

func statusOf(k shop.Kind) int {
	switch k {
	case shop.KindUnauthorized:
		return http.StatusForbidden
	case shop.KindBadRequest, shop.KindInvalidReference, shop.KindValueTooLong:
		return http.StatusBadRequest
	case shop.KindNotFound, shop.KindOrderNotFound, shop.KindProductNotFound:
		return http.StatusNotFound
	case shop.KindNotEnoughStock, shop.KindTotalPriceMismatch:
		return http.StatusConflict
	case shop.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
