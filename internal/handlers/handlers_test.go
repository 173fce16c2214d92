package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Azuznn/fanclub-site12/internal/database"
	"github.com/Azuznn/fanclub-site12/internal/engine"
	"github.com/Azuznn/fanclub-site12/internal/middleware"
	"github.com/Azuznn/fanclub-site12/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type testEnv struct {
	server *Server
	mux    *http.ServeMux
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	system := actor.NewActorSystem()
	db := database.NewMemoryDB()
	metrics := utils.NewMetricsCollector()
	eng := engine.NewEngine(system, metrics, db)
	server := NewServer(system, eng, metrics, db)

	mux := http.NewServeMux()
	mux.HandleFunc("/user/register", server.HandleUserRegistration())
	mux.HandleFunc("/user/login", server.HandleUserLogin())
	mux.HandleFunc("/user/profile", middleware.RequireAuth(server.HandleUserProfile()))
	mux.HandleFunc("/fanclub", middleware.OptionalAuth(server.HandleFanclubs()))
	mux.HandleFunc("/fanclub/join", middleware.RequireAuth(server.HandleJoinFanclub()))
	mux.HandleFunc("/fanclub/leave", middleware.RequireAuth(server.HandleLeaveFanclub()))
	mux.HandleFunc("/post", middleware.OptionalAuth(server.HandlePosts()))
	mux.HandleFunc("/post/list", middleware.OptionalAuth(server.HandleFanclubPosts()))

	return &testEnv{server: server, mux: mux}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reqBody = bytes.NewBuffer(encoded)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) registerAndLogin(t *testing.T, username, email string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/user/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": "password123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("register %s: status %d body %s", username, rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodPost, "/user/login", "", map[string]string{
		"email":    email,
		"password": "password123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, rec.Code, rec.Body.String())
	}

	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &login); err != nil || login.Token == "" {
		t.Fatalf("login %s: bad response %s", username, rec.Body.String())
	}
	return login.Token
}

func TestMembershipAndVisibilityFlow(t *testing.T) {
	env := newTestEnv(t)

	ownerToken := env.registerAndLogin(t, "creator", "creator@example.com")
	fanToken := env.registerAndLogin(t, "fan", "fan@example.com")
	outsiderToken := env.registerAndLogin(t, "outsider", "outsider@example.com")

	// Creator opens a fanclub. Ownership comes from the token.
	rec := env.do(t, http.MethodPost, "/fanclub", ownerToken, map[string]interface{}{
		"name":       "Swamp Sounds",
		"purpose":    "field recordings",
		"monthlyFee": 900,
	})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var club struct {
		ID          uuid.UUID `json:"id"`
		MemberCount int       `json:"memberCount"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &club))
	assert.Equal(t, 1, club.MemberCount)

	// Anonymous creation is rejected.
	rec = env.do(t, http.MethodPost, "/fanclub", "", map[string]interface{}{
		"name": "Ghost Club", "purpose": "haunting",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Fan joins.
	rec = env.do(t, http.MethodPost, "/fanclub/join", fanToken, map[string]string{
		"fanclubId": club.ID.String(),
	})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var membership struct {
		IsOwner         bool    `json:"isOwner"`
		NextPaymentDate *string `json:"nextPaymentDate"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &membership))
	assert.False(t, membership.IsOwner)
	assert.NotNil(t, membership.NextPaymentDate)

	// Joining twice is a conflict.
	rec = env.do(t, http.MethodPost, "/fanclub/join", fanToken, map[string]string{
		"fanclubId": club.ID.String(),
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Owner publishes one public and one members-only post.
	rec = env.do(t, http.MethodPost, "/post", ownerToken, map[string]string{
		"fanclubId":  club.ID.String(),
		"title":      "Open teaser",
		"content":    "for everyone",
		"visibility": "public",
	})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/post", ownerToken, map[string]string{
		"fanclubId":  club.ID.String(),
		"title":      "Members cut",
		"content":    "for the faithful",
		"visibility": "members",
	})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var membersPost struct {
		ID uuid.UUID `json:"id"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &membersPost))

	// The fan cannot publish.
	rec = env.do(t, http.MethodPost, "/post", fanToken, map[string]string{
		"fanclubId":  club.ID.String(),
		"title":      "Fan art",
		"content":    "my drawing",
		"visibility": "public",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	listPath := fmt.Sprintf("/post/list?fanclubId=%s", club.ID)

	countPosts := func(token string) int {
		rec := env.do(t, http.MethodGet, listPath, token, nil)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var posts []json.RawMessage
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posts))
		return len(posts)
	}

	// Filtering happens server-side per verified viewer.
	assert.Equal(t, 2, countPosts(fanToken))
	assert.Equal(t, 1, countPosts(outsiderToken))
	assert.Equal(t, 1, countPosts(""))

	// Direct fetch of the members-only post: member sees it, others get 404.
	postPath := fmt.Sprintf("/post?id=%s", membersPost.ID)
	rec = env.do(t, http.MethodGet, postPath, fanToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, postPath, outsiderToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodGet, postPath, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// After the fan leaves, the members-only post disappears for them.
	rec = env.do(t, http.MethodPost, "/fanclub/leave", fanToken, map[string]string{
		"fanclubId": club.ID.String(),
	})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, countPosts(fanToken))

	// The owner cannot leave their own fanclub.
	rec = env.do(t, http.MethodPost, "/fanclub/leave", ownerToken, map[string]string{
		"fanclubId": club.ID.String(),
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProfileRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/user/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := env.registerAndLogin(t, "solo", "solo@example.com")
	rec = env.do(t, http.MethodGet, "/user/profile", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var profile struct {
		Username string `json:"username"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "solo", profile.Username)
}

func TestInvalidTokenRejectedOnPublicRoute(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/fanclub?search=", "not-a-real-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
