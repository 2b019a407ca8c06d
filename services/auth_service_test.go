package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/hoops-predictor/models"
)

type sentVerification struct {
	email, username, token string
}

type recordingMailer struct {
	sent []sentVerification
	err  error
}

func (m *recordingMailer) SendVerification(_ context.Context, email, username, token string) error {
	m.sent = append(m.sent, sentVerification{email: email, username: username, token: token})
	return m.err
}

func newTestAuthService(db *memDB, mailer Mailer) *authService {
	return NewAuthService(memUserRepo{db}, mailer, discardLogger()).(*authService)
}

func TestRegisterVerifyLogin(t *testing.T) {
	db := newMemDB()
	mailer := &recordingMailer{}
	svc := newTestAuthService(db, mailer)
	ctx := context.Background()
	discord := "  ann#0001 "

	user, err := svc.Register(ctx, RegisterInput{
		Email:           " Ann@Example.com ",
		Username:        "ann_23",
		Password:        "hunter2hunter2",
		DiscordUsername: &discord,
	})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.False(t, user.EmailVerified)
	assert.Empty(t, user.PasswordHash)
	require.NotNil(t, user.DiscordUsername)
	assert.Equal(t, "ann#0001", *user.DiscordUsername)

	stored := db.users[user.ID]
	assert.NotEqual(t, "hunter2hunter2", stored.PasswordHash)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ann@example.com", mailer.sent[0].email)
	require.NotNil(t, stored.VerificationToken)
	assert.Equal(t, *stored.VerificationToken, mailer.sent[0].token)

	loggedIn, err := svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.Empty(t, loggedIn.PasswordHash)

	_, err = svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "hunter2hunter2"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.VerifyEmail(ctx, mailer.sent[0].token))
	assert.True(t, db.users[user.ID].EmailVerified)
	assert.ErrorIs(t, svc.VerifyEmail(ctx, mailer.sent[0].token), ErrVerificationTokenBad)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestAuthService(newMemDB(), &recordingMailer{})
	long := "a-very-long-discord-name-that-never-ends"

	tests := []struct {
		name  string
		input RegisterInput
		want  error
	}{
		{"bad email", RegisterInput{Email: "not-an-email", Username: "ann", Password: "password1"}, ErrValidationFailed},
		{"short username", RegisterInput{Email: "a@b.co", Username: "an", Password: "password1"}, ErrValidationFailed},
		{"username with spaces", RegisterInput{Email: "a@b.co", Username: "an n", Password: "password1"}, ErrValidationFailed},
		{"short password", RegisterInput{Email: "a@b.co", Username: "ann", Password: "short"}, ErrPasswordTooShort},
		{"long discord name", RegisterInput{Email: "a@b.co", Username: "ann", Password: "password1", DiscordUsername: &long}, ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRegisterConflicts(t *testing.T) {
	db := newMemDB()
	svc := newTestAuthService(db, &recordingMailer{})
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "ann@example.com", Username: "ann", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Email: "ANN@example.com", Username: "other", Password: "password1"})
	assert.ErrorIs(t, err, ErrUserEmailConflict)
	_, err = svc.Register(ctx, RegisterInput{Email: "other@example.com", Username: "ann", Password: "password1"})
	assert.ErrorIs(t, err, ErrUserUsernameConflict)
}

func TestRegisterSurvivesMailerFailure(t *testing.T) {
	db := newMemDB()
	svc := newTestAuthService(db, &recordingMailer{err: errors.New("smtp down")})

	user, err := svc.Register(context.Background(), RegisterInput{Email: "ann@example.com", Username: "ann", Password: "password1"})
	require.NoError(t, err)
	assert.Contains(t, db.users, user.ID)
}

func TestVerifyEmailRejectsExpiredToken(t *testing.T) {
	db := newMemDB()
	mailer := &recordingMailer{}
	svc := newTestAuthService(db, mailer)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "ann@example.com", Username: "ann", Password: "password1"})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(verificationTTL + time.Minute) }
	assert.ErrorIs(t, svc.VerifyEmail(ctx, mailer.sent[0].token), ErrVerificationTokenBad)
	assert.False(t, db.users[user.ID].EmailVerified)
	assert.ErrorIs(t, svc.VerifyEmail(ctx, ""), ErrVerificationTokenBad)
}
