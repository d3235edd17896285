package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/outpost-social/outpost/internal/models"
	"github.com/outpost-social/outpost/internal/submit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeTokens struct {
	users map[string]*models.User
}

func (f *fakeTokens) GetByToken(_ context.Context, token string) (*models.User, error) {
	return f.users[token], nil
}

type fakePipeline struct {
	result *submit.Result
	err    error

	gotUser *models.User
	gotReq  *submit.Request
}

func (f *fakePipeline) Submit(_ context.Context, user *models.User, req *submit.Request) (*submit.Result, error) {
	f.gotUser = user
	f.gotReq = req
	return f.result, f.err
}

type fakeSubmissions struct {
	byID map[int64]*models.Submission
}

func (f *fakeSubmissions) GetByID(_ context.Context, id int64) (*models.Submission, error) {
	return f.byID[id], nil
}

type fakeGuilds struct {
	byID    map[int64]*models.Guild
	viewers map[int64]bool
}

func (f *fakeGuilds) GetByID(_ context.Context, id int64) (*models.Guild, error) {
	return f.byID[id], nil
}

func (f *fakeGuilds) CanView(_ context.Context, guildID, _ int64) (bool, error) {
	return f.viewers[guildID], nil
}

func newPostRouter(pipeline *fakePipeline, subs *fakeSubmissions, guilds *fakeGuilds, tokens *fakeTokens) *gin.Engine {
	engine := gin.New()
	auth := NewAuthenticator(tokens)
	postAPI := NewPostAPI(pipeline, subs, guilds)
	engine.POST("/api/v1/post", auth.Require(), postAPI.CreatePost)
	engine.GET("/api/v1/post/:id", auth.Populate(), postAPI.GetPost)
	return engine
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestCreatePost(t *testing.T) {
	alice := &models.User{ID: 7, Username: "alice", APIToken: "alice-token"}
	tokens := &fakeTokens{users: map[string]*models.User{"alice-token": alice}}

	t.Run("missing token rejected", func(t *testing.T) {
		engine := newPostRouter(&fakePipeline{}, &fakeSubmissions{}, &fakeGuilds{}, tokens)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/post", strings.NewReader(`{"title":"x","body":"y"}`))
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("created", func(t *testing.T) {
		pipeline := &fakePipeline{result: &submit.Result{
			Submission: &models.Submission{
				ID:       42,
				AuthorID: 7,
				Content:  &models.SubmissionContent{SubmissionID: 42, Title: "A link", URL: "https://example.com/x"},
			},
			Content: &models.SubmissionContent{SubmissionID: 42, Title: "A link"},
			Guild:   &models.Guild{ID: 2, Name: "golang"},
		}}
		pipeline.result.Submission.PostPublic = true

		engine := newPostRouter(pipeline, &fakeSubmissions{}, &fakeGuilds{}, tokens)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/post",
			strings.NewReader(`{"title":"A link","url":"http://example.com/x","guild":"golang"}`))
		req.Header.Set("Authorization", "Bearer alice-token")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
		}
		body := decodeBody(t, w)
		if body["id"] != "16" {
			t.Errorf("id = %v, want 16", body["id"])
		}
		if body["permalink"] != "/post/16" {
			t.Errorf("permalink = %v", body["permalink"])
		}
		if body["guild_name"] != "golang" {
			t.Errorf("guild_name = %v", body["guild_name"])
		}
		if pipeline.gotUser != alice {
			t.Error("pipeline did not receive the authenticated user")
		}
	})

	t.Run("duplicate answers with existing permalink", func(t *testing.T) {
		pipeline := &fakePipeline{result: &submit.Result{
			Submission: &models.Submission{ID: 99},
			Guild:      &models.Guild{ID: 1, Name: "general"},
			Existing:   true,
		}}
		engine := newPostRouter(pipeline, &fakeSubmissions{}, &fakeGuilds{}, tokens)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/post", strings.NewReader(`{"title":"again","body":"same"}`))
		req.Header.Set("Authorization", "Bearer alice-token")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		// The body is the bare permalink string of the existing post.
		var permalink string
		if err := json.Unmarshal(w.Body.Bytes(), &permalink); err != nil {
			t.Fatalf("body %q is not a JSON string: %v", w.Body.String(), err)
		}
		if permalink != "/post/2r" {
			t.Errorf("permalink = %q, want /post/2r", permalink)
		}
	})

	t.Run("pipeline errors map to status codes", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			want int
		}{
			{"invalid input", submit.NewError(submit.KindInvalidInput, "Please enter a better title."), http.StatusBadRequest},
			{"forbidden", submit.NewError(submit.KindForbidden, "+golang is banned."), http.StatusForbidden},
			{"storage", submit.NewError(submit.KindStorage, "connection reset"), http.StatusInternalServerError},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				engine := newPostRouter(&fakePipeline{err: tt.err}, &fakeSubmissions{}, &fakeGuilds{}, tokens)
				req := httptest.NewRequest(http.MethodPost, "/api/v1/post", strings.NewReader(`{"title":"x","body":"y"}`))
				req.Header.Set("Authorization", "Bearer alice-token")
				w := httptest.NewRecorder()
				engine.ServeHTTP(w, req)
				if w.Code != tt.want {
					t.Errorf("status = %d, want %d", w.Code, tt.want)
				}
				if tt.want == http.StatusInternalServerError {
					body := decodeBody(t, w)
					if body["error"] != "Internal server error." {
						t.Errorf("error = %v, want generic message", body["error"])
					}
				}
			})
		}
	})
}

func TestGetPost(t *testing.T) {
	alice := &models.User{ID: 7, Username: "alice"}
	tokens := &fakeTokens{users: map[string]*models.User{"alice-token": alice}}

	public := &models.Submission{
		ID: 42, GuildID: 2, PostPublic: true,
		Content: &models.SubmissionContent{SubmissionID: 42, Title: "hi"},
	}
	private := &models.Submission{
		ID: 50, GuildID: 3, PostPublic: false,
		Content: &models.SubmissionContent{SubmissionID: 50, Title: "secret"},
	}
	deleted := &models.Submission{ID: 60, GuildID: 2, PostPublic: true, IsDeleted: true}

	subs := &fakeSubmissions{byID: map[int64]*models.Submission{42: public, 50: private, 60: deleted}}
	guilds := &fakeGuilds{
		byID:    map[int64]*models.Guild{2: {ID: 2, Name: "golang"}, 3: {ID: 3, Name: "secret", IsPrivate: true}},
		viewers: map[int64]bool{},
	}

	get := func(path, token string) *httptest.ResponseRecorder {
		engine := newPostRouter(&fakePipeline{}, subs, guilds, tokens)
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	t.Run("public post served anonymously", func(t *testing.T) {
		w := get("/api/v1/post/16", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		body := decodeBody(t, w)
		if body["title"] != "hi" {
			t.Errorf("title = %v", body["title"])
		}
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		if w := get("/api/v1/post/zzzz", ""); w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})

	t.Run("malformed id is 404", func(t *testing.T) {
		if w := get("/api/v1/post/!!!", ""); w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})

	t.Run("deleted post is 404", func(t *testing.T) {
		if w := get("/api/v1/post/1o", ""); w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})

	t.Run("private post hidden from anonymous", func(t *testing.T) {
		if w := get("/api/v1/post/1e", ""); w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("private post hidden from non-member", func(t *testing.T) {
		if w := get("/api/v1/post/1e", "alice-token"); w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("private post served to member", func(t *testing.T) {
		guilds.viewers[3] = true
		defer delete(guilds.viewers, 3)
		if w := get("/api/v1/post/1e", "alice-token"); w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})
}

func TestSubmissionObjectOptionalFields(t *testing.T) {
	sub := &models.Submission{ID: 42, RepostID: sql.NullInt64{Int64: 11, Valid: true}}
	obj := submissionObject(sub)
	if obj["repost_id"] != int64(11) {
		t.Errorf("repost_id = %v, want 11", obj["repost_id"])
	}
	if _, ok := obj["title"]; ok {
		t.Error("content fields present without loaded content")
	}

	bare := submissionObject(&models.Submission{ID: 1})
	if _, ok := bare["repost_id"]; ok {
		t.Error("repost_id present on non-repost")
	}
}
