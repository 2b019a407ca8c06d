package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Dosada05/hoops-predictor/models"
	"github.com/Dosada05/hoops-predictor/services"
)

type MockGameService struct {
	mock.Mock
}

func (m *MockGameService) CreateGame(ctx context.Context, input services.CreateGameInput) (*models.Game, error) {
	args := m.Called(ctx, input)
	game, _ := args.Get(0).(*models.Game)
	return game, args.Error(1)
}

func (m *MockGameService) UpdateGame(ctx context.Context, gameID int, input services.UpdateGameInput) (*models.Game, error) {
	args := m.Called(ctx, gameID, input)
	game, _ := args.Get(0).(*models.Game)
	return game, args.Error(1)
}

func (m *MockGameService) DeleteGame(ctx context.Context, gameID int) error {
	return m.Called(ctx, gameID).Error(0)
}

func (m *MockGameService) GetGame(ctx context.Context, gameID int) (*models.Game, error) {
	args := m.Called(ctx, gameID)
	game, _ := args.Get(0).(*models.Game)
	return game, args.Error(1)
}

func (m *MockGameService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Game, error) {
	args := m.Called(ctx, tournamentID)
	games, _ := args.Get(0).([]*models.Game)
	return games, args.Error(1)
}

func (m *MockGameService) ListUpcoming(ctx context.Context, viewerID *int, tournamentID *int) ([]*models.UpcomingGame, error) {
	args := m.Called(ctx, viewerID, tournamentID)
	games, _ := args.Get(0).([]*models.UpcomingGame)
	return games, args.Error(1)
}

func (m *MockGameService) LockGame(ctx context.Context, gameID int) (*models.Game, error) {
	args := m.Called(ctx, gameID)
	game, _ := args.Get(0).(*models.Game)
	return game, args.Error(1)
}

func (m *MockGameService) LockDueGames(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGameService) FinishGame(ctx context.Context, gameID, scoreA, scoreB int) (*services.FinishResult, error) {
	args := m.Called(ctx, gameID, scoreA, scoreB)
	res, _ := args.Get(0).(*services.FinishResult)
	return res, args.Error(1)
}

func (m *MockGameService) CorrectFinalScore(ctx context.Context, gameID, scoreA, scoreB int) (*services.FinishResult, error) {
	args := m.Called(ctx, gameID, scoreA, scoreB)
	res, _ := args.Get(0).(*services.FinishResult)
	return res, args.Error(1)
}

type MockGuessService struct {
	mock.Mock
}

func (m *MockGuessService) SubmitGuess(ctx context.Context, userID, gameID, guessA, guessB int) (*models.Guess, error) {
	args := m.Called(ctx, userID, gameID, guessA, guessB)
	guess, _ := args.Get(0).(*models.Guess)
	return guess, args.Error(1)
}

func (m *MockGuessService) ListForGame(ctx context.Context, gameID int) ([]*models.Guess, error) {
	args := m.Called(ctx, gameID)
	guesses, _ := args.Get(0).([]*models.Guess)
	return guesses, args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, input services.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, input)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, input services.LoginInput) (*models.User, error) {
	args := m.Called(ctx, input)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Send(ctx context.Context, userID int, content string) (*models.ChatMessage, error) {
	args := m.Called(ctx, userID, content)
	msg, _ := args.Get(0).(*models.ChatMessage)
	return msg, args.Error(1)
}

func (m *MockChatService) Edit(ctx context.Context, userID int, messageID int64, content string) (*models.ChatMessage, error) {
	args := m.Called(ctx, userID, messageID, content)
	msg, _ := args.Get(0).(*models.ChatMessage)
	return msg, args.Error(1)
}

func (m *MockChatService) Delete(ctx context.Context, userID int, messageID int64) error {
	return m.Called(ctx, userID, messageID).Error(0)
}

func (m *MockChatService) History(ctx context.Context, limit int) ([]*models.ChatMessage, error) {
	args := m.Called(ctx, limit)
	msgs, _ := args.Get(0).([]*models.ChatMessage)
	return msgs, args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetProfile(ctx context.Context, userID int) (*models.UserProfile, error) {
	args := m.Called(ctx, userID)
	profile, _ := args.Get(0).(*models.UserProfile)
	return profile, args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, userID int) (*models.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, userID int, input services.UpdateProfileInput) (*models.User, error) {
	args := m.Called(ctx, userID, input)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}
