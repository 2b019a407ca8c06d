package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Dosada05/hoops-predictor/middleware"
	"github.com/Dosada05/hoops-predictor/services"
)

type GameHandler struct {
	gameService  services.GameService
	guessService services.GuessService
}

func NewGameHandler(gs services.GameService, guesses services.GuessService) *GameHandler {
	return &GameHandler{
		gameService:  gs,
		guessService: guesses,
	}
}

type guessRequest struct {
	GuessA *int `json:"guessA"`
	GuessB *int `json:"guessB"`
}

type finalScoreRequest struct {
	ScoreA *int `json:"scoreA"`
	ScoreB *int `json:"scoreB"`
}

// UpcomingHandler обрабатывает GET /api/games/upcoming?tournament_id=
func (h *GameHandler) UpcomingHandler(w http.ResponseWriter, r *http.Request) {
	var tournamentID *int
	if r.URL.Query().Get("tournament_id") != "" {
		id, err := queryInt(r, "tournament_id", 0)
		if err != nil || id <= 0 {
			badRequestResponse(w, r, errors.New("invalid tournament_id query parameter"))
			return
		}
		tournamentID = &id
	}

	games, err := h.gameService.ListUpcoming(r.Context(), middleware.OptionalUserID(r.Context()), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.GetGame(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GuessesHandler обрабатывает GET /api/games/{gameID}/guesses
func (h *GameHandler) GuessesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	guesses, err := h.guessService.ListForGame(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"guesses": guesses}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitGuessHandler обрабатывает POST /api/games/{gameID}/guess
func (h *GameHandler) SubmitGuessHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to submit a guess")
		return
	}

	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input guessRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.GuessA == nil || input.GuessB == nil {
		badRequestResponse(w, r, errors.New("guessA and guessB are required"))
		return
	}

	guess, err := h.guessService.SubmitGuess(r.Context(), currentUserID, id, *input.GuessA, *input.GuessB)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"guess": guess}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input services.CreateGameInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.CreateGame(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateGameInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.UpdateGame(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.gameService.DeleteGame(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GameHandler) LockHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.LockGame(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// FinishHandler обрабатывает POST /api/admin/games/{gameID}/finish
func (h *GameHandler) FinishHandler(w http.ResponseWriter, r *http.Request) {
	h.applyFinalScore(w, r, h.gameService.FinishGame)
}

// CorrectHandler обрабатывает POST /api/admin/games/{gameID}/correct
func (h *GameHandler) CorrectHandler(w http.ResponseWriter, r *http.Request) {
	h.applyFinalScore(w, r, h.gameService.CorrectFinalScore)
}

type finalScoreFunc func(ctx context.Context, gameID, scoreA, scoreB int) (*services.FinishResult, error)

func (h *GameHandler) applyFinalScore(w http.ResponseWriter, r *http.Request, apply finalScoreFunc) {
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input finalScoreRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.ScoreA == nil || input.ScoreB == nil {
		badRequestResponse(w, r, errors.New("scoreA and scoreB are required"))
		return
	}

	result, err := apply(r.Context(), id, *input.ScoreA, *input.ScoreB)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"game": result.Game, "deltas": result.Deltas}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
