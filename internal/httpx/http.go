package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func ReadBody[InitType any](r http.Request) (InitType, error) {
	var body InitType
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return body, err
	}
	return body, nil
}
func JSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// PathString returns a route variable, writing 400 when it is empty.
func PathString(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	value := mux.Vars(r)[key]
	if value == "" {
		Error(w, http.StatusBadRequest, fmt.Sprintf("missing %s", key))
		return "", false
	}
	return value, true
}

// PathInt returns a positive integer route variable, writing 400 otherwise.
func PathInt(w http.ResponseWriter, r *http.Request, key string) (int, bool) {
	value, err := strconv.Atoi(mux.Vars(r)[key])
	if err != nil || value <= 0 {
		Error(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", key))
		return 0, false
	}
	return value, true
}
