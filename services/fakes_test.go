package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/Dosada05/hoops-predictor/models"
	"github.com/Dosada05/hoops-predictor/repositories"
	"github.com/Dosada05/hoops-predictor/scoring"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memDB is an in-memory stand-in for Postgres. memTx snapshots it before a
// transaction and restores the snapshot when the transaction fails.
type memDB struct {
	mu          sync.Mutex
	nextID      int
	users       map[int]models.User
	tournaments map[int]models.Tournament
	games       map[int]models.Game
	guesses     map[int]models.Guess
	scores      map[[2]int]models.TournamentScore
	chat        map[int64]models.ChatMessage

	failAddDeltaFor int
	retryableErrors int
	txCalls         int
}

func newMemDB() *memDB {
	return &memDB{
		users:       map[int]models.User{},
		tournaments: map[int]models.Tournament{},
		games:       map[int]models.Game{},
		guesses:     map[int]models.Guess{},
		scores:      map[[2]int]models.TournamentScore{},
		chat:        map[int64]models.ChatMessage{},
	}
}

func (db *memDB) id() int {
	db.nextID++
	return db.nextID
}

type memSnapshot struct {
	users       map[int]models.User
	tournaments map[int]models.Tournament
	games       map[int]models.Game
	guesses     map[int]models.Guess
	scores      map[[2]int]models.TournamentScore
	chat        map[int64]models.ChatMessage
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (db *memDB) snapshot() memSnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	return memSnapshot{
		users:       copyMap(db.users),
		tournaments: copyMap(db.tournaments),
		games:       copyMap(db.games),
		guesses:     copyMap(db.guesses),
		scores:      copyMap(db.scores),
		chat:        copyMap(db.chat),
	}
}

func (db *memDB) restore(s memSnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users, db.tournaments, db.games = s.users, s.tournaments, s.games
	db.guesses, db.scores, db.chat = s.guesses, s.scores, s.chat
}

type memTx struct{ db *memDB }

func (t memTx) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	t.db.mu.Lock()
	t.db.txCalls++
	if t.db.retryableErrors > 0 {
		t.db.retryableErrors--
		t.db.mu.Unlock()
		return &pq.Error{Code: "40001"}
	}
	t.db.mu.Unlock()

	snap := t.db.snapshot()
	if err := fn(nil); err != nil {
		t.db.restore(snap)
		return err
	}
	return nil
}

// --- users ---

type memUserRepo struct{ db *memDB }

func (r memUserRepo) Create(_ context.Context, u *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.users {
		switch {
		case strings.EqualFold(existing.Email, u.Email):
			return repositories.ErrUserEmailConflict
		case existing.Username == u.Username:
			return repositories.ErrUserUsernameConflict
		case existing.DiscordUsername != nil && u.DiscordUsername != nil && *existing.DiscordUsername == *u.DiscordUsername:
			return repositories.ErrUserDiscordUsernameConflict
		}
	}
	u.ID = r.db.id()
	u.CreatedAt = time.Now()
	r.db.users[u.ID] = *u
	return nil
}

func (r memUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &u, nil
}

func (r memUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r memUserRepo) GetByVerificationToken(_ context.Context, token string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			return &u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r memUserRepo) MarkEmailVerified(_ context.Context, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.EmailVerified = true
	u.VerificationToken, u.VerificationExpiresAt = nil, nil
	r.db.users[id] = u
	return nil
}

func (r memUserRepo) UpdateAccess(_ context.Context, id int, role models.UserRole, verified bool) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.Role, u.EmailVerified = role, verified
	r.db.users[id] = u
	return nil
}

func (r memUserRepo) UpdateProfile(_ context.Context, id int, username string, discord *string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	for _, existing := range r.db.users {
		if existing.ID == id {
			continue
		}
		if existing.Username == username {
			return repositories.ErrUserUsernameConflict
		}
		if existing.DiscordUsername != nil && discord != nil && *existing.DiscordUsername == *discord {
			return repositories.ErrUserDiscordUsernameConflict
		}
	}
	u.Username, u.DiscordUsername = username, discord
	r.db.users[id] = u
	return nil
}

func (r memUserRepo) List(_ context.Context, f repositories.ListUsersFilter) ([]*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*models.User, 0)
	for _, u := range r.db.users {
		u := u
		if f.Search == "" || strings.Contains(u.Username, f.Search) || strings.Contains(u.Email, f.Search) {
			out = append(out, &u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if f.Offset >= len(out) {
		return []*models.User{}, nil
	}
	out = out[f.Offset:]
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// --- tournaments ---

type memTournamentRepo struct{ db *memDB }

func (r memTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.tournaments {
		if existing.Slug == t.Slug {
			return repositories.ErrTournamentSlugConflict
		}
	}
	t.ID = r.db.id()
	r.db.tournaments[t.ID] = *t
	return nil
}

func (r memTournamentRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return &t, nil
}

func (r memTournamentRepo) GetForShare(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	return r.GetByID(ctx, exec, id)
}

func (r memTournamentRepo) List(_ context.Context) ([]*models.Tournament, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*models.Tournament, 0, len(r.db.tournaments))
	for _, t := range r.db.tournaments {
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memTournamentRepo) Update(_ context.Context, t *models.Tournament) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.tournaments[t.ID]
	if !ok || existing.IsArchived() {
		return repositories.ErrTournamentNotMutable
	}
	existing.Name, existing.Slug, existing.StartDate, existing.EndDate = t.Name, t.Slug, t.StartDate, t.EndDate
	r.db.tournaments[t.ID] = existing
	return nil
}

func (r memTournamentRepo) UpdateStatus(_ context.Context, id int, status models.TournamentStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tournaments[id]
	if !ok || t.IsArchived() {
		return repositories.ErrTournamentNotMutable
	}
	t.Status = status
	r.db.tournaments[id] = t
	return nil
}

func (r memTournamentRepo) Archive(_ context.Context, _ repositories.SQLExecutor, id int, winner string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tournaments[id]
	if !ok || t.IsArchived() {
		return repositories.ErrTournamentNotMutable
	}
	t.Status, t.Winner = models.TournamentArchived, &winner
	r.db.tournaments[id] = t
	return nil
}

func (r memTournamentRepo) Delete(_ context.Context, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.db.tournaments, id)
	return nil
}

// --- games ---

type memGameRepo struct{ db *memDB }

func (r memGameRepo) Create(_ context.Context, g *models.Game) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.tournaments[g.TournamentID]; !ok {
		return repositories.ErrGameTournamentInvalid
	}
	g.ID = r.db.id()
	r.db.games[g.ID] = *g
	return nil
}

func (r memGameRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Game, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	g, ok := r.db.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	return &g, nil
}

func (r memGameRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Game, error) {
	return r.GetByID(ctx, exec, id)
}

func (r memGameRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.Game, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*models.Game, 0)
	for _, g := range r.db.games {
		g := g
		if g.TournamentID == tournamentID {
			out = append(out, &g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TipoffAt.Before(out[j].TipoffAt) })
	return out, nil
}

func (r memGameRepo) ListUpcoming(_ context.Context, tournamentID *int, limit int) ([]*models.UpcomingGame, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*models.UpcomingGame, 0)
	for _, g := range r.db.games {
		if g.Status == models.GameFinished || (tournamentID != nil && g.TournamentID != *tournamentID) {
			continue
		}
		out = append(out, &models.UpcomingGame{Game: g, TournamentName: r.db.tournaments[g.TournamentID].Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TipoffAt.Before(out[j].TipoffAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memGameRepo) Update(_ context.Context, g *models.Game) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.games[g.ID]
	if !ok || existing.Status == models.GameFinished {
		return repositories.ErrGameStateMismatch
	}
	existing.TeamA, existing.TeamB, existing.TipoffAt, existing.Stage = g.TeamA, g.TeamB, g.TipoffAt, g.Stage
	r.db.games[g.ID] = existing
	return nil
}

func (r memGameRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	g, ok := r.db.games[id]
	if !ok || g.Status == models.GameFinished {
		return repositories.ErrGameStateMismatch
	}
	delete(r.db.games, id)
	return nil
}

func (r memGameRepo) Lock(_ context.Context, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	g, ok := r.db.games[id]
	if !ok || g.Status != models.GameScheduled {
		return repositories.ErrGameStateMismatch
	}
	g.Status = models.GameLocked
	r.db.games[id] = g
	return nil
}

func (r memGameRepo) LockDue(_ context.Context, cutoff time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for id, g := range r.db.games {
		if g.Status == models.GameScheduled && !g.TipoffAt.After(cutoff) {
			g.Status = models.GameLocked
			r.db.games[id] = g
			n++
		}
	}
	return n, nil
}

func (r memGameRepo) SetFinalScore(_ context.Context, _ repositories.SQLExecutor, id, a, b int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	g, ok := r.db.games[id]
	if !ok || g.Status == models.GameFinished {
		return repositories.ErrGameStateMismatch
	}
	g.Status, g.ScoreA, g.ScoreB = models.GameFinished, &a, &b
	r.db.games[id] = g
	return nil
}

func (r memGameRepo) CorrectFinalScore(_ context.Context, _ repositories.SQLExecutor, id, a, b int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	g, ok := r.db.games[id]
	if !ok || g.Status != models.GameFinished {
		return repositories.ErrGameStateMismatch
	}
	g.ScoreA, g.ScoreB = &a, &b
	r.db.games[id] = g
	return nil
}

// --- guesses ---

type memGuessRepo struct{ db *memDB }

func (r memGuessRepo) Upsert(_ context.Context, g *models.Guess, openBefore time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	game, ok := r.db.games[g.GameID]
	if !ok || game.Status != models.GameScheduled || !game.TipoffAt.After(openBefore) {
		return repositories.ErrGuessWindowClosed
	}
	if _, ok := r.db.users[g.UserID]; !ok {
		return repositories.ErrGuessReferenceInvalid
	}
	g.TournamentID = game.TournamentID
	for id, existing := range r.db.guesses {
		if existing.GameID == g.GameID && existing.UserID == g.UserID {
			if existing.Evaluated() {
				return repositories.ErrGuessWindowClosed
			}
			existing.GuessA, existing.GuessB, existing.UpdatedAt = g.GuessA, g.GuessB, time.Now()
			r.db.guesses[id] = existing
			*g = existing
			return nil
		}
	}
	g.ID = r.db.id()
	g.CreatedAt, g.UpdatedAt = time.Now(), time.Now()
	r.db.guesses[g.ID] = *g
	return nil
}

func (r memGuessRepo) byGame(gameID int) []*models.Guess {
	out := make([]*models.Guess, 0)
	for _, g := range r.db.guesses {
		g := g
		if g.GameID == gameID {
			out = append(out, &g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memGuessRepo) ListByGame(_ context.Context, _ repositories.SQLExecutor, gameID int) ([]*models.Guess, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.byGame(gameID), nil
}

func (r memGuessRepo) ListPublicByGame(_ context.Context, gameID int) ([]*models.Guess, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := r.byGame(gameID)
	for _, g := range out {
		g.Username = r.db.users[g.UserID].Username
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r memGuessRepo) ListByUserForGames(_ context.Context, userID int, gameIDs []int) ([]*models.Guess, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	want := map[int]bool{}
	for _, id := range gameIDs {
		want[id] = true
	}
	out := make([]*models.Guess, 0)
	for _, g := range r.db.guesses {
		g := g
		if g.UserID == userID && want[g.GameID] {
			out = append(out, &g)
		}
	}
	return out, nil
}

func (r memGuessRepo) write(id int, res scoring.Result, wantEvaluated bool, mismatch error) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	g, ok := r.db.guesses[id]
	if !ok || g.Evaluated() != wantEvaluated {
		return mismatch
	}
	now := time.Now()
	g.CondOK, g.DiffOK, g.ExactOK, g.AwardedPoints, g.EvaluatedAt = res.CondOK, res.DiffOK, res.ExactOK, res.Points, &now
	r.db.guesses[id] = g
	return nil
}

func (r memGuessRepo) RecordEvaluation(_ context.Context, _ repositories.SQLExecutor, id int, res scoring.Result) error {
	return r.write(id, res, false, repositories.ErrGuessAlreadyEvaluated)
}

func (r memGuessRepo) ReplaceEvaluation(_ context.Context, _ repositories.SQLExecutor, id int, res scoring.Result) error {
	return r.write(id, res, true, repositories.ErrGuessNotEvaluated)
}

// --- standings ---

type memScoreRepo struct{ db *memDB }

func (r memScoreRepo) AddDelta(_ context.Context, _ repositories.SQLExecutor, tournamentID, userID, points, correct int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failAddDeltaFor == userID {
		return &pq.Error{Code: "57014"}
	}
	key := [2]int{tournamentID, userID}
	s, ok := r.db.scores[key]
	if !ok {
		s = models.TournamentScore{ID: r.db.id(), TournamentID: tournamentID, UserID: userID}
	}
	s.Points += points
	s.CorrectAny += correct
	if s.Points < 0 || s.CorrectAny < 0 {
		return repositories.ErrTournamentScoreNegative
	}
	r.db.scores[key] = s
	return nil
}

func (r memScoreRepo) GetByTournamentAndUser(_ context.Context, _ repositories.SQLExecutor, tournamentID, userID int) (*models.TournamentScore, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.scores[[2]int{tournamentID, userID}]
	if !ok {
		return nil, repositories.ErrTournamentScoreNotFound
	}
	return &s, nil
}

func (r memScoreRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]*models.TournamentScore, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*models.TournamentScore, 0)
	for _, s := range r.db.scores {
		s := s
		if s.TournamentID == tournamentID {
			out = append(out, &s)
		}
	}
	return out, nil
}

func (r memScoreRepo) Leaderboard(_ context.Context, tournamentID, limit int) ([]models.LeaderboardRow, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]models.LeaderboardRow, 0)
	for _, s := range r.db.scores {
		if s.TournamentID == tournamentID {
			out = append(out, models.LeaderboardRow{UserID: s.UserID, Username: r.db.users[s.UserID].Username, Points: s.Points, CorrectAny: s.CorrectAny})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].Username < out[j].Username
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memScoreRepo) AllTime(_ context.Context, limit int) ([]models.AllTimeRow, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	totals := map[int]int{}
	for _, s := range r.db.scores {
		totals[s.UserID] += s.CorrectAny
	}
	out := make([]models.AllTimeRow, 0)
	for uid, c := range totals {
		if c > 0 {
			out = append(out, models.AllTimeRow{UserID: uid, Username: r.db.users[uid].Username, CorrectAny: c})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CorrectAny != out[j].CorrectAny {
			return out[i].CorrectAny > out[j].CorrectAny
		}
		return out[i].Username < out[j].Username
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memScoreRepo) AllTimeCorrectForUser(_ context.Context, userID int) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	total := 0
	for _, s := range r.db.scores {
		if s.UserID == userID {
			total += s.CorrectAny
		}
	}
	return total, nil
}

// --- chat ---

type memChatRepo struct{ db *memDB }

func (r memChatRepo) Create(_ context.Context, userID int, content string) (*models.ChatMessage, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m := models.ChatMessage{
		ID:        int64(r.db.id()),
		UserID:    userID,
		Username:  r.db.users[userID].Username,
		Content:   content,
		CreatedAt: time.Now(),
	}
	r.db.chat[m.ID] = m
	return &m, nil
}

func (r memChatRepo) GetByID(_ context.Context, id int64) (*models.ChatMessage, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m, ok := r.db.chat[id]
	if !ok {
		return nil, repositories.ErrChatMessageNotFound
	}
	return &m, nil
}

func (r memChatRepo) UpdateContent(_ context.Context, id int64, authorID int, content string) (*models.ChatMessage, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m, ok := r.db.chat[id]
	if !ok || m.UserID != authorID {
		return nil, repositories.ErrChatMessageNotFound
	}
	now := time.Now()
	m.Content, m.EditedAt = content, &now
	r.db.chat[id] = m
	return &m, nil
}

func (r memChatRepo) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.chat[id]; !ok {
		return repositories.ErrChatMessageNotFound
	}
	delete(r.db.chat, id)
	return nil
}

func (r memChatRepo) ListRecent(_ context.Context, limit int) ([]*models.ChatMessage, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*models.ChatMessage, 0, len(r.db.chat))
	for _, m := range r.db.chat {
		m := m
		out = append(out, &m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// --- helpers ---

type recordedEvent struct {
	key     string
	payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, key string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{key: key, payload: payload})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (db *memDB) addUser(username string, verified bool, role models.UserRole) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	id := db.id()
	db.users[id] = models.User{ID: id, Email: username + "@example.com", Username: username, EmailVerified: verified, Role: role}
	return id
}

func (db *memDB) addTournament(status models.TournamentStatus) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	id := db.id()
	db.tournaments[id] = models.Tournament{ID: id, Name: "Cup", Slug: "cup", Status: status}
	return id
}

func (db *memDB) addGame(tournamentID int, stage models.GameStage, tipoff time.Time) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	id := db.id()
	db.games[id] = models.Game{ID: id, TournamentID: tournamentID, TeamA: "Hawks", TeamB: "Bulls", TipoffAt: tipoff, Status: models.GameScheduled, Stage: stage}
	return id
}

func (db *memDB) addGuess(tournamentID, gameID, userID, a, b int) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	id := db.id()
	db.guesses[id] = models.Guess{ID: id, TournamentID: tournamentID, GameID: gameID, UserID: userID, GuessA: a, GuessB: b}
	return id
}

func (db *memDB) score(tournamentID, userID int) models.TournamentScore {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.scores[[2]int{tournamentID, userID}]
}

func (db *memDB) guess(id int) models.Guess {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.guesses[id]
}

func (db *memDB) game(id int) models.Game {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.games[id]
}
