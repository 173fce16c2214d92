package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// SimConfig drives a load run against a running engine instance.
type SimConfig struct {
	NumUsers       int
	NumFanclubs    int
	PostsPerClub   int
	ReadIterations int
	EngineURL      string
}

// SimulationStats aggregates results across worker goroutines.
type SimulationStats struct {
	TotalRequests  int64
	FailedRequests int64
	JoinConflicts  int64
	PostsVisible   int64
	PostsHidden    int64
}

type simulatedUser struct {
	ID       uuid.UUID
	Username string
	Email    string
	Token    string
}

type simulatedFanclub struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
}

// Simulator exercises registration, fanclub creation, concurrent joins,
// publishing and filtered reads, then verifies the membership counters.
type Simulator struct {
	config   SimConfig
	stats    SimulationStats
	users    []*simulatedUser
	fanclubs []*simulatedFanclub
	client   *http.Client
	mu       sync.Mutex
}

func New(config SimConfig) *Simulator {
	return &Simulator{
		config: config,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *Simulator) Run(ctx context.Context) error {
	slog.Info("simulation starting",
		"users", s.config.NumUsers,
		"fanclubs", s.config.NumFanclubs,
		"engine", s.config.EngineURL)

	if err := s.createUsers(ctx); err != nil {
		return fmt.Errorf("user creation failed: %w", err)
	}
	if err := s.createFanclubs(ctx); err != nil {
		return fmt.Errorf("fanclub creation failed: %w", err)
	}

	s.joinConcurrently(ctx)
	s.publishPosts(ctx)
	s.readPosts(ctx)

	if err := s.verifyCounters(ctx); err != nil {
		return err
	}

	slog.Info("simulation finished",
		"requests", atomic.LoadInt64(&s.stats.TotalRequests),
		"failed", atomic.LoadInt64(&s.stats.FailedRequests),
		"joinConflicts", atomic.LoadInt64(&s.stats.JoinConflicts),
		"postsVisible", atomic.LoadInt64(&s.stats.PostsVisible),
		"postsHidden", atomic.LoadInt64(&s.stats.PostsHidden))
	return nil
}

func (s *Simulator) Stats() SimulationStats {
	return SimulationStats{
		TotalRequests:  atomic.LoadInt64(&s.stats.TotalRequests),
		FailedRequests: atomic.LoadInt64(&s.stats.FailedRequests),
		JoinConflicts:  atomic.LoadInt64(&s.stats.JoinConflicts),
		PostsVisible:   atomic.LoadInt64(&s.stats.PostsVisible),
		PostsHidden:    atomic.LoadInt64(&s.stats.PostsHidden),
	}
}

func (s *Simulator) request(ctx context.Context, method, path, token string, body interface{}, out interface{}) (int, error) {
	atomic.AddInt64(&s.stats.TotalRequests, 1)

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.EngineURL+path, reqBody)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		atomic.AddInt64(&s.stats.FailedRequests, 1)
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		atomic.AddInt64(&s.stats.FailedRequests, 1)
	}
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func (s *Simulator) createUsers(ctx context.Context) error {
	runID := rand.Intn(1_000_000)
	for i := 0; i < s.config.NumUsers; i++ {
		user := &simulatedUser{
			Username: fmt.Sprintf("sim_user_%d_%d", runID, i),
			Email:    fmt.Sprintf("sim_%d_%d@example.com", runID, i),
		}

		var registered struct {
			ID uuid.UUID `json:"id"`
		}
		status, err := s.request(ctx, http.MethodPost, "/user/register", "", map[string]string{
			"username": user.Username,
			"email":    user.Email,
			"password": "simulated-password-123",
		}, &registered)
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("register %s: status %d", user.Username, status)
		}
		user.ID = registered.ID

		var login struct {
			Token string `json:"token"`
		}
		status, err = s.request(ctx, http.MethodPost, "/user/login", "", map[string]string{
			"email":    user.Email,
			"password": "simulated-password-123",
		}, &login)
		if err != nil {
			return err
		}
		if status != http.StatusOK || login.Token == "" {
			return fmt.Errorf("login %s: status %d", user.Username, status)
		}
		user.Token = login.Token

		s.users = append(s.users, user)
	}
	slog.Info("created users", "count", len(s.users))
	return nil
}

func (s *Simulator) createFanclubs(ctx context.Context) error {
	for i := 0; i < s.config.NumFanclubs; i++ {
		owner := s.users[i%len(s.users)]

		var club struct {
			ID uuid.UUID `json:"id"`
		}
		status, err := s.request(ctx, http.MethodPost, "/fanclub", owner.Token, map[string]interface{}{
			"name":       fmt.Sprintf("Sim Club %s", uuid.NewString()[:8]),
			"purpose":    "simulated fandom",
			"monthlyFee": 100 * (i + 1),
		}, &club)
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("create fanclub %d: status %d", i, status)
		}

		s.fanclubs = append(s.fanclubs, &simulatedFanclub{ID: club.ID, OwnerID: owner.ID})
	}
	slog.Info("created fanclubs", "count", len(s.fanclubs))
	return nil
}

// joinConcurrently fires every user at every fanclub at once, including a
// deliberate duplicate join per user, to stress the unique constraint and
// the counter updates.
func (s *Simulator) joinConcurrently(ctx context.Context) {
	var wg sync.WaitGroup
	for _, user := range s.users {
		for _, club := range s.fanclubs {
			if club.OwnerID == user.ID {
				continue
			}
			attempts := 2 // second one must come back 409
			for i := 0; i < attempts; i++ {
				wg.Add(1)
				go func(u *simulatedUser, fanclubID uuid.UUID) {
					defer wg.Done()
					status, err := s.request(ctx, http.MethodPost, "/fanclub/join", u.Token, map[string]string{
						"fanclubId": fanclubID.String(),
					}, nil)
					if err != nil {
						return
					}
					if status == http.StatusConflict {
						atomic.AddInt64(&s.stats.JoinConflicts, 1)
					}
				}(user, club.ID)
			}
		}
	}
	wg.Wait()
	slog.Info("join phase done", "conflicts", atomic.LoadInt64(&s.stats.JoinConflicts))
}

func (s *Simulator) publishPosts(ctx context.Context) {
	for _, club := range s.fanclubs {
		var owner *simulatedUser
		for _, u := range s.users {
			if u.ID == club.OwnerID {
				owner = u
				break
			}
		}
		if owner == nil {
			continue
		}

		for i := 0; i < s.config.PostsPerClub; i++ {
			visibility := "public"
			if i%2 == 0 {
				visibility = "members"
			}
			status, err := s.request(ctx, http.MethodPost, "/post", owner.Token, map[string]string{
				"fanclubId":  club.ID.String(),
				"title":      fmt.Sprintf("Simulated post %d", i),
				"content":    "generated content",
				"visibility": visibility,
			}, nil)
			if err != nil || status != http.StatusOK {
				slog.Warn("post creation failed", "status", status, "error", err)
			}
		}
	}
}

func (s *Simulator) readPosts(ctx context.Context) {
	for i := 0; i < s.config.ReadIterations; i++ {
		club := s.fanclubs[rand.Intn(len(s.fanclubs))]

		// Alternate member and anonymous reads.
		token := ""
		if i%2 == 0 {
			token = s.users[rand.Intn(len(s.users))].Token
		}

		var posts []json.RawMessage
		status, err := s.request(ctx, http.MethodGet, "/post/list?fanclubId="+club.ID.String(), token, nil, &posts)
		if err != nil || status != http.StatusOK {
			continue
		}
		atomic.AddInt64(&s.stats.PostsVisible, int64(len(posts)))
		hidden := int64(s.config.PostsPerClub - len(posts))
		if hidden > 0 {
			atomic.AddInt64(&s.stats.PostsHidden, hidden)
		}
	}
}

// verifyCounters asks the engine to compare each stored member counter with
// the membership rows after the concurrent join storm.
func (s *Simulator) verifyCounters(ctx context.Context) error {
	token := s.users[0].Token
	for _, club := range s.fanclubs {
		status, err := s.request(ctx, http.MethodGet, "/fanclub/consistency?id="+club.ID.String(), token, nil, nil)
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("fanclub %s failed consistency check: status %d", club.ID, status)
		}
	}
	slog.Info("all member counters consistent", "fanclubs", len(s.fanclubs))
	return nil
}
