package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sw33tLie/mailhunt/internal/utils"
	"github.com/sw33tLie/mailhunt/pkg/hunt"
	"github.com/sw33tLie/mailhunt/pkg/platforms"
)

type ErrorResponse struct {
	Error string    `json:"error"`
	Kind  hunt.Kind `json:"kind"`
}

// handleHunt serves GET /{email} and GET /{email}/{sources}. A bare GET /
// answers with an invalid_input error.
// Sources may also come from the ?sources= query parameter.
func (s *Server) handleHunt(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	email := strings.TrimSpace(vars["email"])
	if email == "" {
		writeError(w, &hunt.Error{Kind: hunt.KindInvalidInput, Op: "validate email", Err: errors.New("email is empty")})
		return
	}

	rawSources := vars["sources"]
	if rawSources == "" {
		rawSources = r.URL.Query().Get("sources")
	}
	sources, err := platforms.ParseSources(rawSources)
	if err != nil {
		writeError(w, &hunt.Error{Kind: hunt.KindInvalidInput, Op: "parse sources", Err: err})
		return
	}

	res, err := s.Hunter.Hunt(r.Context(), hunt.Query{Email: email, Sources: sources})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// statusFor maps an error kind to its HTTP status.
// Invalid input keeps 200 so existing clients read the error body as before.
func statusFor(kind hunt.Kind) int {
	switch kind {
	case hunt.KindInvalidInput:
		return http.StatusOK
	case hunt.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind := hunt.KindOf(err)
	if kind == "" {
		kind = hunt.KindConfiguration
	}
	if kind != hunt.KindInvalidInput {
		utils.Log.Errorf("Hunt failed (%s): %v", kind, err)
	}
	writeJSON(w, statusFor(kind), ErrorResponse{Error: err.Error(), Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Log.Warnf("Could not encode response: %v", err)
	}
}
