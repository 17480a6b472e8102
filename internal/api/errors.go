package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"minilake/internal/domain"
)

type messageResponse struct {
	Message string `json:"message"`
}

type problemsResponse struct {
	Problems []domain.Problem `json:"problems"`
}

// writeError maps domain errors to HTTP statuses: NotFoundError to a 404
// {message}, ValidationError to a 400 {problems}, anything else to a 500.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		writeJSON(w, http.StatusNotFound, messageResponse{Message: notFound.Message})
		return
	}
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		problems := validation.Problems
		if len(problems) == 0 {
			problems = []domain.Problem{domain.NewProblem(validation.Message)}
		}
		writeJSON(w, http.StatusBadRequest, problemsResponse{Problems: problems})
		return
	}
	logger.Error("internal error", "error", err)
	writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Internal server error"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.ErrValidation("invalid JSON body: %v", err)
	}
	return nil
}
