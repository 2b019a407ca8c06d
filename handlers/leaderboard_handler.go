package handlers

import (
	"net/http"

	"github.com/Dosada05/hoops-predictor/services"
)

type LeaderboardHandler struct {
	standings services.StandingsService
}

func NewLeaderboardHandler(standings services.StandingsService) *LeaderboardHandler {
	return &LeaderboardHandler{standings: standings}
}

func (h *LeaderboardHandler) TournamentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rows, err := h.standings.TournamentLeaderboard(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": rows}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeaderboardHandler) AllTimeHandler(w http.ResponseWriter, r *http.Request) {
	rows, err := h.standings.AllTimeLeaderboard(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": rows}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
