package httpx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func queryFloat(r *http.Request, key string) float64 {
	f, _ := strconv.ParseFloat(r.URL.Query().Get(key), 64)
	return f
}

func queryTime(r *http.Request, key string) time.Time {
	t, _ := time.Parse(time.RFC3339, r.URL.Query().Get(key))
	return t
}

func queryPage(r *http.Request) shop.Page {
	return shop.Page{Page: queryInt(r, "page"), Limit: queryInt(r, "limit")}.Normalize()
}

func querySort(r *http.Request) (string, shop.SortDir) {
	return r.URL.Query().Get("sort_by"), shop.SortDir(r.URL.Query().Get("dir"))
}
