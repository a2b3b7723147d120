// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for SlideSmith.
// Handlers are grouped by concern (auth, studio, library, editor, public)
// and receive their dependencies through the handler struct. Everything
// under /api speaks JSON; the public share page is server-rendered HTML.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"slidesmith/internal/agent"
	"slidesmith/internal/ai"
	"slidesmith/internal/autosave"
	"slidesmith/internal/engine"
	"slidesmith/internal/normalize"
	"slidesmith/internal/sharing"
	"slidesmith/internal/store"
)

// maxBodyBytes caps JSON request bodies. Pasted text and extracted PDF
// text are the largest legitimate payloads.
const maxBodyBytes = 2 << 20

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// errorBody is the shape of every JSON error response.
type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write json response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// decodeJSON reads the request body into dst and validates it. The returned
// error is safe to show to the client.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body too large")
		}
		return fmt.Errorf("invalid JSON: %v", err)
	}
	if err := validate.Struct(dst); err != nil {
		return validationMessage(err)
	}
	return nil
}

// validationMessage turns the first validator failure into a short message.
func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "email":
		return fmt.Errorf("%s must be a valid email address", field)
	case "min", "max", "gte", "lte":
		return fmt.Errorf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param())
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", field, fe.Param())
	}
	return fmt.Errorf("%s is invalid", field)
}

// idParam parses the named URL parameter as a UUID.
func idParam(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

// statusFor maps domain errors onto HTTP status codes and client messages.
// Unknown errors are logged and reported as 500 without detail.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, agent.ErrInvalidSettings),
		errors.Is(err, agent.ErrPromptRejected),
		errors.Is(err, engine.ErrUnsupported),
		errors.Is(err, normalize.ErrEmptyInput),
		errors.Is(err, normalize.ErrUnknownMode),
		errors.Is(err, normalize.ErrInvalidURL),
		errors.Is(err, normalize.ErrNoVideoID),
		errors.Is(err, normalize.ErrNoExtractedText),
		errors.Is(err, store.ErrEmptyCarousel):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, normalize.ErrCaptionsDisabled),
		errors.Is(err, normalize.ErrTranscriptNotFound):
		return http.StatusUnprocessableEntity, err.Error()

	case errors.Is(err, sharing.ErrPrivate):
		return http.StatusForbidden, "this carousel is private"

	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, sharing.ErrNotFound),
		errors.Is(err, autosave.ErrSessionNotFound):
		return http.StatusNotFound, "not found"

	case errors.Is(err, store.ErrStorageLimit):
		return http.StatusConflict, autosave.MessageLimit

	case errors.Is(err, agent.ErrImagesUnavailable),
		errors.Is(err, ai.ErrImagesUnsupported):
		return http.StatusNotImplemented, err.Error()

	case errors.Is(err, agent.ErrEmptyResult),
		errors.Is(err, agent.ErrMalformedResponse),
		errors.Is(err, ai.ErrUnknownProvider),
		errors.Is(err, normalize.ErrTranscriptFailed),
		errors.Is(err, normalize.ErrFetchFailed):
		return http.StatusBadGateway, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

// fail writes the response for err and logs server-side failures.
func fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusNotImplemented {
		slog.Error(op+" failed", "error", err, "path", r.URL.Path)
	}
	writeError(w, status, msg)
}
