package response

import (
	"encoding/json"
	"net/http"
	"strconv"
)

type ListResponse struct {
	Data  interface{} `json:"data"`
	Total int         `json:"total"`
	Skip  int         `json:"skip"`
	Limit int         `json:"limit"`
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"error": msg})
}

func List(w http.ResponseWriter, status int, data interface{}, total, skip, limit int) {
	JSON(w, status, ListResponse{Data: data, Total: total, Skip: skip, Limit: limit})
}

// ParseSkipLimit reads ?skip and ?limit with the defaults agents and the
// frontend rely on.
func ParseSkipLimit(r *http.Request) (skip, limit int) {
	skip, _ = strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if skip < 0 {
		skip = 0
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return
}
