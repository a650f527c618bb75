package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"strings"

	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
)

type Envelope map[string]any

const maxRequestBodySize = 1 << 20 // 1MB

// ReadJSON decodes a single JSON value into v. Every decoding problem is
// reported as a MalformedJSON error carrying the reason as its cause.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return errorx.NewMalformedJSON().WithCause(describeDecodeError(err))
	}

	// the body must hold exactly one JSON value
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errorx.NewMalformedJSON().WithCause(errors.New("body must only contain a single JSON value"))
	}

	return nil
}

func describeDecodeError(err error) error {
	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError

	switch {
	case errors.As(err, &syntaxError):
		return fmt.Errorf("badly-formed JSON (at character %d): %w", syntaxError.Offset, err)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("body contains badly-formed JSON: %w", err)
	case errors.As(err, &unmarshalTypeError):
		if unmarshalTypeError.Field != "" {
			return fmt.Errorf("body contains incorrect JSON type for field %q: %w", unmarshalTypeError.Field, err)
		}
		return fmt.Errorf("body contains incorrect JSON type (at character %d): %w", unmarshalTypeError.Offset, err)
	case errors.Is(err, io.EOF):
		return fmt.Errorf("body must not be empty: %w", err)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
		return fmt.Errorf("body contains unknown field %s: %w", fieldName, err)
	case errors.As(err, &maxBytesError):
		return fmt.Errorf("body must not be larger than %d bytes: %w", maxBytesError.Limit, err)
	default:
		return fmt.Errorf("body contains invalid JSON: %w", err)
	}
}

func WriteJSON(w http.ResponseWriter, status int, data Envelope, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}

	js = append(js, '\n')

	maps.Copy(w.Header(), headers)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

// Success writes data with success=true, code and an optional message.
func Success(w http.ResponseWriter, r *http.Request, status int, data Envelope) {
	if data == nil {
		data = make(Envelope, 2)
	}
	data["success"] = true
	if _, ok := data["code"]; !ok {
		data["code"] = successCode(status)
	}

	err := WriteJSON(w, status, data, nil)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to write success response", "status", status, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func successCode(status int) errorx.Code {
	if status == http.StatusCreated {
		return errorx.CodeCreated
	}
	return errorx.CodeSuccess
}
