// Package web holds the request helpers shared by the JSON handlers.
package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const MaxBodyBytes = 1 << 20

// Decode reads a JSON body into dst, answering 400 on failure.
func Decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	return DecodeLimit(w, r, dst, MaxBodyBytes)
}

func DecodeLimit(w http.ResponseWriter, r *http.Request, dst interface{}, limit int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apt.RespondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		apt.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return false
	}
	return true
}

// ParseID reads a UUID route parameter, answering 400 when it is malformed.
func ParseID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, param)
	if raw == "" {
		apt.RespondError(w, http.StatusBadRequest, "Missing "+param)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}

// QueryInt reads a positive integer query parameter with a default.
func QueryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return def
	}
	return v
}

// QueryBool reports whether a query flag is set to a truthy value.
func QueryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

func RespondCreated(w http.ResponseWriter, data interface{}) {
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, data)
}
