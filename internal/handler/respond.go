package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

const maxBodyBytes = 1 << 20 // 1MB

var (
	errBodyTooLarge = errors.New("request body too large")
	errTrailingData = errors.New("unexpected data after JSON value")
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorResponse is the body shape of /predict failures.
func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// messageResponse is the body shape of account route failures.
func messageResponse(msg string) map[string]string {
	return map[string]string{"message": msg}
}

// decodeJSON reads a size-limited body holding exactly one JSON value into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	err := dec.Decode(v)
	if err == nil {
		if err = dec.Decode(&struct{}{}); err == io.EOF {
			return nil
		}
		if err == nil {
			err = errTrailingData
		}
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errBodyTooLarge
	}
	return err
}
