package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"grue/internal/service"
	"grue/internal/sweeper"
	"grue/pkg/logger"

	"github.com/gorilla/mux"
)

type Handler struct {
	Service *service.Service
	Sweeper *sweeper.Sweeper
}

// generateRequest is the JSON API body; the field name matches the
// original submit form.
type generateRequest struct {
	Link string `json:"grue-link"`
}

type generateResponse struct {
	Link     string `json:"link"`
	Redirect string `json:"redirect"`
}

func NewHandler(s *service.Service, sw *sweeper.Sweeper) *Handler {
	return &Handler{Service: s, Sweeper: sw}
}

func (h *Handler) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", h.Index).Methods("GET")
	r.HandleFunc("/", h.ShortenForm).Methods("POST")
	r.HandleFunc("/api/generate", h.Generate).Methods("POST")
	r.HandleFunc("/worker/clean/database", h.CleanDatabase).Methods("GET")
	r.HandleFunc("/healthz", h.Healthz).Methods("GET")
	r.HandleFunc("/{shortlink}", h.Redirect).Methods("GET")

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Info().Str("method", req.Method).Str("path", req.URL.Path).Msg("request")
			next.ServeHTTP(w, req)
		})
	})

	return r
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	renderIndex(w, http.StatusOK, indexData{})
}

// ShortenForm handles the browser form post (field "grue-link").
func (h *Handler) ShortenForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderIndex(w, http.StatusBadRequest, indexData{Error: "Invalid URL!"})
		return
	}

	res, err := h.Service.Shorten(r.Context(), r.PostFormValue("grue-link"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyURL):
			renderIndex(w, http.StatusBadRequest, indexData{Error: "Please enter a URL."})
		case errors.Is(err, service.ErrInvalidURL):
			renderIndex(w, http.StatusBadRequest, indexData{Error: "Invalid URL!"})
		default:
			renderIndex(w, http.StatusInternalServerError, indexData{Error: "Something went wrong, try again."})
		}
		return
	}

	renderIndex(w, http.StatusOK, indexData{
		Success:  "Successfully shortened the long url!",
		Link:     res.Link,
		Redirect: res.LongURL,
	})
}

// Generate handles POST /api/generate. Contract: success returns
// {link, redirect}, an invalid URL returns {"error": "Invalid URL!"}, an
// empty submission returns an empty object.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid URL!"})
		return
	}

	res, err := h.Service.Shorten(r.Context(), req.Link)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyURL):
			writeJSON(w, http.StatusOK, struct{}{})
		case errors.Is(err, service.ErrInvalidURL):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid URL!"})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{Link: res.Link, Redirect: res.LongURL})
}

// Redirect sends the visitor from a short code to its long URL.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["shortlink"]

	longURL, err := h.Service.Resolve(r.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			renderNotFound(w)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, longURL, http.StatusFound)
}

// CleanDatabase lets an external scheduler poke the sweeper; outside its
// window the call is a no-op.
func (h *Handler) CleanDatabase(w http.ResponseWriter, r *http.Request) {
	deleted, ran, err := h.Sweeper.RunIfDue(r.Context(), time.Now())
	if err != nil {
		http.Error(w, "cleanup failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if !ran {
		fmt.Fprintln(w, "skipped")
		return
	}
	fmt.Fprintf(w, "removed %d expired links\n", deleted)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
