package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации
	ErrValidationFailed        = errors.New("validation failed")
	ErrPasswordTooShort        = errors.New("password is too short")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrVerificationTokenBad    = errors.New("verification token is invalid or expired")
	ErrTournamentInvalidDates  = errors.New("tournament end date must not be before start date")
	ErrGameScoreTied           = errors.New("final score cannot be a tie")
	ErrChatMessageEmpty        = errors.New("chat message is empty")
	ErrChatMessageTooLong      = errors.New("chat message is too long")
	ErrTournamentWinnerMissing = errors.New("tournament winner is required")

	// Ошибки конфликтов
	ErrUserEmailConflict           = errors.New("email address is already in use")
	ErrUserUsernameConflict        = errors.New("username is already in use")
	ErrUserDiscordUsernameConflict = errors.New("discord username is already in use")
	ErrTournamentSlugConflict      = errors.New("tournament with this name already exists")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
	ErrAccountNotVerified   = errors.New("email address is not verified")
	ErrRateLimited          = errors.New("too many messages")

	// Ошибки состояния
	ErrGameLocked              = errors.New("game is locked for guesses")
	ErrGameAlreadyFinished     = errors.New("game is already finished")
	ErrGameNotFinished         = errors.New("game is not finished")
	ErrTournamentArchived      = errors.New("tournament is archived")
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	ErrUserNotFound        = errors.New("user not found")
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrGameNotFound        = errors.New("game not found")
	ErrChatMessageNotFound = errors.New("chat message not found")
)
