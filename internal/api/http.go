package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/adapters/github"
	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
)

func (s *Server) parseRef(arg string) (core.PRRef, error) {
	return github.ParsePRArg(arg, s.defaultRepo)
}

// writeDomainError maps the error taxonomy onto HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var domErr *core.DomainError
	if errors.As(err, &domErr) {
		switch {
		case domErr.Code == core.CodePRNotFound || domErr.Code == core.CodeRunNotFound:
			status = http.StatusNotFound
		case domErr.Code == core.CodeAccessDenied:
			status = http.StatusForbidden
		case domErr.Category == core.ErrCatValidation:
			status = http.StatusUnprocessableEntity
		case domErr.Category == core.ErrCatCancelled:
			status = http.StatusGatewayTimeout
		}
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parsePositive(s string, out *int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		if err == nil {
			err = strconv.ErrRange
		}
		return 0, err
	}
	*out = n
	return n, nil
}
