package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/sakugabase/internal/api/handler"
	"github.com/d60-Lab/sakugabase/internal/api/middleware"
	"github.com/d60-Lab/sakugabase/internal/authz"
	"github.com/d60-Lab/sakugabase/internal/model"
	"github.com/d60-Lab/sakugabase/internal/repository"
	"github.com/d60-Lab/sakugabase/internal/service"
	"github.com/d60-Lab/sakugabase/internal/testutil"
)

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	fx     *testutil.Fixture
}

func newTestServer(t *testing.T, rl *middleware.RateLimiter) *testServer {
	t.Helper()
	fx := testutil.NewFixture(t)
	cfg := testutil.TestConfig()
	cfg.Server.Mode = gin.TestMode

	db := fx.DB
	az := authz.MustNewEnforcer()
	clips := repository.NewClipRepository(db)
	animators := repository.NewAnimatorRepository(db)
	auth := service.NewAuthService(db, cfg.JWT)

	h := handler.New(handler.Services{
		Auth:        auth,
		Clips:       service.NewClipService(db, az, nil, nil),
		Trending:    service.NewTrendingService(clips, nil, cfg.Trending),
		Moderation:  service.NewModerationService(db, az, cfg.Moderation),
		Favorites:   service.NewFavoriteService(db, az, nil),
		Votes:       service.NewVoteService(db, az),
		Comments:    service.NewCommentService(db, az),
		Collections: service.NewCollectionService(db, az, nil),
		Animators:   service.NewAnimatorService(db, az, nil, nil),
		Influence:   service.NewInfluenceService(animators, repository.NewRelationRepository(db), nil, cfg.Graph),
		Rankings:    service.NewRankingService(animators, clips, nil),
		Users:       service.NewUserService(db, az),
	})
	engine := New(Options{Config: cfg, Handler: h, Tokens: auth, RateLimiter: rl})
	return &testServer{t: t, engine: engine, fx: fx}
}

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Pagination json.RawMessage `json:"pagination"`
	Error      *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
}

func (s *testServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

// register 注册并按需提升角色，返回 token
func (s *testServer) register(username string, role model.Role) (string, string) {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username, "email": username + "@example.org", "password": "password123",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var res struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &res))
	if role == model.RoleUser {
		return res.Token, res.User.ID
	}
	require.NoError(s.t, s.fx.DB.Model(&model.User{}).Where("id = ?", res.User.ID).Update("role", role).Error)
	w, env = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"login": username, "password": "password123"})
	require.Equal(s.t, http.StatusOK, w.Code)
	require.NoError(s.t, json.Unmarshal(env.Data, &res))
	return res.Token, res.User.ID
}

func TestHealthMetricsAndNoRoute(t *testing.T) {
	s := newTestServer(t, nil)

	w, _ := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := s.do(http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	w, _ = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sakugabase_http_requests_total")
}

func TestTrendingParameters(t *testing.T) {
	s := newTestServer(t, nil)
	s.fx.Clip("hot", testutil.WithCounts(100, 5, 1))

	w, env := s.do(http.MethodGet, "/api/v1/clips/trending", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	assert.Contains(t, items[0], "trendingScore")
	assert.JSONEq(t, `{"total":1,"limit":12,"offset":0,"hasMore":false}`, string(env.Pagination))

	for _, q := range []string{"limit=abc", "limit=0", "limit=51", "offset=-1", "windowDays=91", "windowDays=x"} {
		w, env := s.do(http.MethodGet, "/api/v1/clips/trending?"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		require.NotNil(t, env.Error, q)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code, q)
		assert.NotEmpty(t, env.Error.Details, q)
	}
}

func TestClipListPagination(t *testing.T) {
	s := newTestServer(t, nil)
	for i := 0; i < 3; i++ {
		s.fx.Clip("clip")
	}

	w, env := s.do(http.MethodGet, "/api/v1/clips?limit=500&page=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"page":1,"limit":100,"total":3,"totalPages":1,"hasNext":false,"hasPrev":false}`, string(env.Pagination))

	w, env = s.do(http.MethodGet, "/api/v1/clips?page=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "page", env.Error.Details[0].Field)

	w, env = s.do(http.MethodGet, "/api/v1/clips?page=4611686018427387904&limit=100", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "page", env.Error.Details[0].Field)
	assert.Equal(t, "must be at most 100000", env.Error.Details[0].Message)

	w, _ = s.do(http.MethodGet, "/api/v1/clips?sort=random", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/clips?status=PENDING", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)
}

func TestSubmitModerateFavoriteFlow(t *testing.T) {
	s := newTestServer(t, nil)
	userToken, userID := s.register("animefan", model.RoleUser)
	modToken, _ := s.register("modster", model.RoleModerator)

	w, env := s.do(http.MethodPost, "/api/v1/clips", "", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	w, env = s.do(http.MethodPost, "/api/v1/clips", userToken, map[string]any{
		"title": "Too long", "videoUrl": "https://cdn.example.com/a.mp4", "durationSeconds": 50,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "durationSeconds", env.Error.Details[0].Field)

	w, env = s.do(http.MethodPost, "/api/v1/clips", userToken, map[string]any{
		"title": "Rooftop Chase", "videoUrl": "https://cdn.example.com/a.mp4", "durationSeconds": 12.5,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var clip struct {
		ID     string `json:"id"`
		Slug   string `json:"slug"`
		Status string `json:"submissionStatus"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &clip))
	assert.Equal(t, "PENDING", clip.Status)

	// 待审核片段对匿名用户不可见
	w, _ = s.do(http.MethodGet, "/api/v1/clips/"+clip.Slug, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(http.MethodGet, "/api/v1/clips/"+clip.Slug, userToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(http.MethodPost, "/api/v1/clips/"+clip.ID+"/moderate", userToken, map[string]string{"action": "APPROVE"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	w, env = s.do(http.MethodPost, "/api/v1/clips/"+clip.ID+"/moderate", modToken, map[string]string{"action": "MAYBE"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "action", env.Error.Details[0].Field)

	w, env = s.do(http.MethodPost, "/api/v1/clips/"+clip.ID+"/moderate", modToken, map[string]string{"action": "APPROVE"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var mod struct {
		SubmitterTrustScore int `json:"submitterTrustScore"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &mod))
	var submitter model.User
	require.NoError(t, s.fx.DB.First(&submitter, "id = ?", userID).Error)
	assert.Equal(t, submitter.TrustScore, mod.SubmitterTrustScore)

	w, env = s.do(http.MethodPost, "/api/v1/clips/"+clip.ID+"/moderate", modToken, map[string]string{"action": "REJECT"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE", env.Error.Code)

	for _, want := range []bool{true, false} {
		w, env = s.do(http.MethodPost, "/api/v1/clips/"+clip.ID+"/favorite", userToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var res service.ToggleResult
		require.NoError(t, json.Unmarshal(env.Data, &res))
		assert.Equal(t, want, res.Favorited)
	}

	w, env = s.do(http.MethodPost, "/api/v1/clips/"+clip.ID+"/vote", userToken, map[string]int{"value": 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"value":1,"voteScore":1}`, string(env.Data))

	w, _ = s.do(http.MethodPost, "/api/v1/clips/"+clip.ID+"/vote", userToken, map[string]int{"value": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/clips/"+clip.ID+"/comments", userToken, map[string]string{"body": "sugoi"})
	assert.Equal(t, http.StatusCreated, w.Code)
	w, env = s.do(http.MethodGet, "/api/v1/clips/"+clip.ID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Pagination), `"total":1`)
}

func TestAnimatorGraphEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	modToken, _ := s.register("curator", model.RoleModerator)
	userToken, _ := s.register("viewer", model.RoleUser)

	create := func(name string) string {
		w, env := s.do(http.MethodPost, "/api/v1/animators", modToken, map[string]string{"name": name})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var a struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &a))
		return a.ID
	}
	kanada := create("Yoshinori Kanada")
	yamashita := create("Masahito Yamashita")

	w, _ := s.do(http.MethodPost, "/api/v1/animators", userToken, map[string]string{"name": "Nobody"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	rel := map[string]string{"toAnimatorId": yamashita, "relationType": "MENTOR"}
	w, env := s.do(http.MethodPost, "/api/v1/animators/"+kanada+"/relations", modToken, rel)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	w, env = s.do(http.MethodPost, "/api/v1/animators/"+kanada+"/relations", modToken, rel)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE", env.Error.Code)
	w, env = s.do(http.MethodPost, "/api/v1/animators/"+kanada+"/relations", modToken,
		map[string]string{"toAnimatorId": kanada, "relationType": "MENTOR"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	w, env = s.do(http.MethodGet, "/api/v1/animators/yoshinori-kanada/graph?depth=2&maxNodes=5", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var g service.InfluenceGraph
	require.NoError(t, json.Unmarshal(env.Data, &g))
	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, service.EdgeMentorTo, g.Edges[0].Label)

	w, _ = s.do(http.MethodGet, "/api/v1/animators/yoshinori-kanada/graph?depth=4", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(http.MethodGet, "/api/v1/animators/nobody/graph", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/animators/yoshinori-kanada", userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"favorited":false`)

	w, env = s.do(http.MethodGet, "/api/v1/rankings/animators?limit=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":2,"limit":1,"offset":0,"hasMore":true}`, string(env.Pagination))

	relPath := "/api/v1/animators/" + kanada + "/relations/" + created.ID
	w, _ = s.do(http.MethodDelete, relPath, userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(http.MethodDelete, relPath, modToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, _ = s.do(http.MethodDelete, relPath, modToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/animators/yoshinori-kanada/graph", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &g))
	assert.Len(t, g.Nodes, 1)
	assert.Empty(t, g.Edges)
}

func TestSetUserRole(t *testing.T) {
	s := newTestServer(t, nil)
	adminToken, adminID := s.register("boss", model.RoleAdmin)
	userToken, userID := s.register("artist", model.RoleUser)

	body := map[string]string{"role": "MODERATOR"}
	w, _ := s.do(http.MethodPut, "/api/v1/users/"+userID+"/role", userToken, body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, env := s.do(http.MethodPut, "/api/v1/users/"+userID+"/role", adminToken, map[string]string{"role": "OWNER"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	w, _ = s.do(http.MethodPut, "/api/v1/users/"+adminID+"/role", adminToken, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(http.MethodPut, "/api/v1/users/ghost/role", adminToken, body)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(http.MethodPut, "/api/v1/users/"+userID+"/role", adminToken, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), `"role":"MODERATOR"`)

	// 旧 token 仍是 USER，重新登录后获得新角色
	w, _ = s.do(http.MethodPost, "/api/v1/animators", userToken, map[string]string{"name": "Shinya Ohira"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, env = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"login": "artist", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	w, _ = s.do(http.MethodPost, "/api/v1/animators", res.Token, map[string]string{"name": "Shinya Ohira"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCollectionsEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	owner, _ := s.register("owner", model.RoleUser)
	other, _ := s.register("other", model.RoleUser)
	clip := s.fx.Clip("kept")

	w, env := s.do(http.MethodPost, "/api/v1/collections", owner, map[string]any{"title": "Best of 2024"})
	require.Equal(t, http.StatusCreated, w.Code)
	var col struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &col))

	w, env = s.do(http.MethodPost, "/api/v1/collections/"+col.ID+"/clips", owner, map[string]string{"clipId": clip.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"added":true}`, string(env.Data))

	w, _ = s.do(http.MethodGet, "/api/v1/collections/"+col.ID, other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/me/collections", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"clipCount":1`)

	w, _ = s.do(http.MethodDelete, "/api/v1/collections/"+col.ID+"/clips/"+clip.ID, owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodDelete, "/api/v1/collections/"+col.ID, owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitedAPI(t *testing.T) {
	rl := middleware.NewRateLimiter(0.001, 1)
	defer rl.Stop()
	s := newTestServer(t, rl)

	w, _ := s.do(http.MethodGet, "/api/v1/clips", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, env := s.do(http.MethodGet, "/api/v1/clips", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMITED", env.Error.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// 运维接口不限流
	w, _ = s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

