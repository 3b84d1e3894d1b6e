package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/ChadIImus/Devoops/internal/models"
	"github.com/ChadIImus/Devoops/internal/store"
	"github.com/ChadIImus/Devoops/internal/timeline"
	"github.com/golang-jwt/jwt/v5"
)

//
// --- Helpers ---
//

// generate JWT token for test user
func makeTestJWT(userID int64) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	tokenStr, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		panic(err)
	}
	return tokenStr
}

// create HTTP request with JWT token
func sendJSONRequest(t *testing.T, method, url string, body any, token string, expectedStatus int) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != expectedStatus {
		b, _ := io.ReadAll(resp.Body)
		defer resp.Body.Close()
		t.Fatalf("expected %d, got %d: %s", expectedStatus, resp.StatusCode, string(b))
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	return v
}

//
// --- Setup test server ---
//

func setupTestServer(t *testing.T) (*timeline.Service, *httptest.Server) {
	t.Helper()
	os.Setenv("JWT_SECRET", "test-secret")

	svc := timeline.New(store.NewMock())
	s := &Server{svc: svc}

	return svc, httptest.NewServer(s.routes())
}

func registerUser(t *testing.T, ts *httptest.Server, username string) (int64, string) {
	t.Helper()
	resp := sendJSONRequest(t, http.MethodPost, ts.URL+"/users",
		map[string]any{"username": username, "email": username + "@example.com"}, "", http.StatusCreated)
	body := decodeBody[struct {
		UserID int64  `json:"user_id"`
		Token  string `json:"token"`
	}](t, resp)
	return body.UserID, body.Token
}

//
// --- Tests ---
//

// register a new user and get a token back
func TestRegisterUser(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	id, token := registerUser(t, ts, "alice")
	if id == 0 || token == "" {
		t.Fatalf("expected user id and token, got id=%d token=%q", id, token)
	}
}

func TestRegisterUser_Duplicate(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	registerUser(t, ts, "alice")
	sendJSONRequest(t, http.MethodPost, ts.URL+"/users",
		map[string]any{"username": "alice"}, "", http.StatusConflict)
}

func TestRegisterUser_InvalidJSON(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/users", "application/json", bytes.NewBufferString("{not-json"))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// full flow: follow -> post -> personal timeline
func TestFollowAndTimelineFlow(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	_, aliceToken := registerUser(t, ts, "alice")
	_, bobToken := registerUser(t, ts, "bob")

	// Alice -> follow Bob
	sendJSONRequest(t, http.MethodPost, ts.URL+"/follow",
		map[string]any{"username": "bob"}, aliceToken, http.StatusOK)

	// Bob -> create post
	postText := "Hello from Bob!"
	sendJSONRequest(t, http.MethodPost, ts.URL+"/posts",
		map[string]any{"text": postText}, bobToken, http.StatusCreated)

	// Alice -> personal timeline contains Bob's post
	resp := sendJSONRequest(t, http.MethodGet, ts.URL+"/timeline", nil, aliceToken, http.StatusOK)
	posts := decodeBody[[]models.Post](t, resp)
	if len(posts) != 1 || posts[0].Text != postText {
		t.Fatalf("expected bob's post in alice's timeline, got %+v", posts)
	}
}

// a token for an id the store has never seen falls back to the public view
func TestPersonalTimeline_UnknownUserFallsBack(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	_, bobToken := registerUser(t, ts, "bob")
	sendJSONRequest(t, http.MethodPost, ts.URL+"/posts",
		map[string]any{"text": "hello world"}, bobToken, http.StatusCreated)

	resp := sendJSONRequest(t, http.MethodGet, ts.URL+"/timeline", nil, makeTestJWT(999), http.StatusOK)
	posts := decodeBody[[]models.Post](t, resp)
	if len(posts) != 1 || posts[0].Text != "hello world" {
		t.Fatalf("expected public fallback, got %+v", posts)
	}
}

func TestFollow_UnknownTarget(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	_, aliceToken := registerUser(t, ts, "alice")
	sendJSONRequest(t, http.MethodPost, ts.URL+"/follow",
		map[string]any{"username": "ghost"}, aliceToken, http.StatusNotFound)
}

func TestUnfollow_AbsentEdge(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	_, aliceToken := registerUser(t, ts, "alice")
	registerUser(t, ts, "bob")

	sendJSONRequest(t, http.MethodPost, ts.URL+"/unfollow",
		map[string]any{"username": "bob"}, aliceToken, http.StatusOK)
}

func TestCreatePost_EmptyText(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	_, bobToken := registerUser(t, ts, "bob")
	sendJSONRequest(t, http.MethodPost, ts.URL+"/posts",
		map[string]any{"text": "   "}, bobToken, http.StatusBadRequest)
}

func TestCreatePost_Unauthorized(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	sendJSONRequest(t, http.MethodPost, ts.URL+"/posts",
		map[string]any{"text": "hi"}, "", http.StatusUnauthorized)
}

func TestPublicTimeline(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	_, bobToken := registerUser(t, ts, "bob")
	sendJSONRequest(t, http.MethodPost, ts.URL+"/posts",
		map[string]any{"text": "public post"}, bobToken, http.StatusCreated)

	resp := sendJSONRequest(t, http.MethodGet, ts.URL+"/timeline/public", nil, "", http.StatusOK)
	posts := decodeBody[[]models.Post](t, resp)
	if len(posts) != 1 || posts[0].Text != "public post" {
		t.Fatalf("unexpected public timeline: %+v", posts)
	}
}

func TestUserTimeline(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	_, aliceToken := registerUser(t, ts, "alice")
	_, bobToken := registerUser(t, ts, "bob")
	sendJSONRequest(t, http.MethodPost, ts.URL+"/posts",
		map[string]any{"text": "bob's post"}, bobToken, http.StatusCreated)

	// anonymous view
	resp := sendJSONRequest(t, http.MethodGet, ts.URL+"/timeline/bob", nil, "", http.StatusOK)
	page := decodeBody[timeline.UserPage](t, resp)
	if page.User.Username != "bob" || len(page.Posts) != 1 || page.Following {
		t.Fatalf("unexpected anonymous user timeline: %+v", page)
	}

	// alice follows bob, her view carries the flag
	sendJSONRequest(t, http.MethodPost, ts.URL+"/follow",
		map[string]any{"username": "bob"}, aliceToken, http.StatusOK)
	resp = sendJSONRequest(t, http.MethodGet, ts.URL+"/timeline/bob", nil, aliceToken, http.StatusOK)
	page = decodeBody[timeline.UserPage](t, resp)
	if !page.Following {
		t.Fatalf("expected following flag: %+v", page)
	}
}

func TestUserTimeline_Unknown(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	sendJSONRequest(t, http.MethodGet, ts.URL+"/timeline/ghost", nil, "", http.StatusNotFound)
}

func TestLatestEndpoints(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	// no record yet -> sentinel
	resp := sendJSONRequest(t, http.MethodGet, ts.URL+"/latest", nil, "", http.StatusOK)
	body := decodeBody[map[string]int64](t, resp)
	if body["latest"] != -1 {
		t.Fatalf("expected sentinel -1, got %d", body["latest"])
	}

	sendJSONRequest(t, http.MethodPost, ts.URL+"/latest",
		map[string]any{"id": 2, "value": 1102}, "", http.StatusOK)

	resp = sendJSONRequest(t, http.MethodGet, ts.URL+"/latest", nil, "", http.StatusOK)
	body = decodeBody[map[string]int64](t, resp)
	if body["latest"] != 1102 {
		t.Fatalf("expected 1102, got %d", body["latest"])
	}
}
