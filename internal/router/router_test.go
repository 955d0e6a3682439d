package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/postboard/internal/models"
	"github.com/anonto42/postboard/internal/pagination"
	"github.com/anonto42/postboard/internal/router"
	"github.com/anonto42/postboard/internal/testutil"
	"github.com/anonto42/postboard/pkg/config"
	"github.com/anonto42/postboard/pkg/firebase"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

type testApp struct {
	t   *testing.T
	db  *gorm.DB
	cfg *config.Config
	e   *echo.Echo
}

type fakeFirebase struct {
	identities map[string]*firebase.Identity
}

func (f fakeFirebase) Verify(_ context.Context, idToken string) (*firebase.Identity, error) {
	if id, ok := f.identities[idToken]; ok {
		return id, nil
	}
	return nil, errors.New("bad token")
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:               "test",
		JWTSecret:         "test-secret",
		SessionTTL:        time.Hour,
		MediaRoot:         t.TempDir(),
		MaxUploadBytes:    1 << 20,
		MongoDatabase:     "postboard",
		IndexPageSize:     10,
		GroupPageSize:     2,
		ProfilePageSize:   10,
		FollowPageSize:    10,
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
	}
}

func newTestApp(t *testing.T, tweak ...func(*router.Dependencies)) *testApp {
	t.Helper()
	db := testutil.NewDB(t)
	deps := router.Dependencies{
		Config: testConfig(t),
		Logger: zap.NewNop(),
		SQL:    db,
	}
	for _, fn := range tweak {
		fn(&deps)
	}
	return &testApp{t: t, db: db, cfg: deps.Config, e: router.New(deps)}
}

func (a *testApp) do(req *http.Request, session *http.Cookie) *httptest.ResponseRecorder {
	a.t.Helper()
	if session != nil {
		req.AddCookie(session)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) get(target string, session *http.Cookie) *httptest.ResponseRecorder {
	return a.do(httptest.NewRequest(http.MethodGet, target, nil), session)
}

func (a *testApp) postForm(target string, form url.Values, session *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return a.do(req, session)
}

func (a *testApp) postMultipart(target string, fields map[string]string, filename string, file []byte, session *http.Cookie) *httptest.ResponseRecorder {
	a.t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(a.t, w.WriteField(k, v))
	}
	if filename != "" {
		fw, err := w.CreateFormFile("image", filename)
		require.NoError(a.t, err)
		_, err = fw.Write(file)
		require.NoError(a.t, err)
	}
	require.NoError(a.t, w.Close())
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return a.do(req, session)
}

// login signs user in through the login endpoint and returns the session cookie.
func (a *testApp) login(user *models.User) *http.Cookie {
	a.t.Helper()
	rec := a.postForm("/auth/login", url.Values{"username": {user.Username}, "password": {testutil.Password}}, nil)
	require.Equal(a.t, http.StatusFound, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	a.t.Fatal("no session cookie set")
	return nil
}

func (a *testApp) postText(id uint) string {
	a.t.Helper()
	var post models.Post
	require.NoError(a.t, a.db.First(&post, id).Error)
	return post.Text
}

type pageBody struct {
	Page struct {
		Items []models.Post   `json:"items"`
		Meta  pagination.Meta `json:"meta"`
	} `json:"page"`
}

type formErrors struct {
	Errors map[string][]string `json:"errors"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestCreatePost(t *testing.T) {
	app := newTestApp(t)
	leo := testutil.CreateUser(t, app.db, "leo")
	cats := testutil.CreateGroup(t, app.db, "Cats", "cats")
	session := app.login(leo)

	rec := app.get("/new", session)
	require.Equal(t, http.StatusOK, rec.Code)
	form := decode[map[string]interface{}](t, rec)
	assert.Len(t, form["groups"], 1)

	before := testutil.CountPosts(t, app.db)
	rec = app.postMultipart("/new", map[string]string{"text": "Brand new", "group": fmt.Sprint(cats.ID)}, "small.gif", smallGIF, session)
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, before+1, testutil.CountPosts(t, app.db))

	page := decode[pageBody](t, app.get("/", nil))
	require.NotEmpty(t, page.Page.Items)
	newest := page.Page.Items[0]
	assert.Equal(t, "Brand new", newest.Text)
	assert.Equal(t, leo.ID, newest.AuthorID)
	require.NotNil(t, newest.GroupID)
	assert.Equal(t, cats.ID, *newest.GroupID)
	require.NotEmpty(t, newest.Image)

	_, err := os.Stat(filepath.Join(app.cfg.MediaRoot, filepath.FromSlash(newest.Image)))
	assert.NoError(t, err, "uploaded image is stored")
}

func TestCreatePost_InvalidFormPersistsNothing(t *testing.T) {
	app := newTestApp(t)
	session := app.login(testutil.CreateUser(t, app.db, "leo"))

	rec := app.postMultipart("/new", map[string]string{"text": "  "}, "", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[formErrors](t, rec)
	assert.Equal(t, []string{"This field is required."}, body.Errors["text"])

	rec = app.postMultipart("/new", map[string]string{"text": "x", "group": "404"}, "", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[formErrors](t, rec)
	require.NotEmpty(t, body.Errors["group"])
	assert.Contains(t, body.Errors["group"][0], "Select a valid choice.")

	assert.Zero(t, testutil.CountPosts(t, app.db))
}

func TestEditPost_ByAuthor(t *testing.T) {
	app := newTestApp(t)
	leo := testutil.CreateUser(t, app.db, "leo")
	post := testutil.CreatePost(t, app.db, leo, nil, "Original")
	session := app.login(leo)
	editURL := fmt.Sprintf("/leo/%d/edit", post.ID)

	rec := app.get(editURL, session)
	require.Equal(t, http.StatusOK, rec.Code)
	form := decode[map[string]interface{}](t, rec)
	assert.Equal(t, true, form["is_edit"])
	assert.Equal(t, "Original", form["form"].(map[string]interface{})["text"])

	before := testutil.CountPosts(t, app.db)
	rec = app.postForm(editURL, url.Values{"text": {"Edited"}}, session)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, fmt.Sprintf("/leo/%d", post.ID), rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, before, testutil.CountPosts(t, app.db))
	assert.Equal(t, "Edited", app.postText(post.ID))
}

func TestEditPost_RejectsNonImage(t *testing.T) {
	app := newTestApp(t)
	leo := testutil.CreateUser(t, app.db, "leo")
	post := testutil.CreatePost(t, app.db, leo, nil, "Original")
	session := app.login(leo)

	rec := app.postMultipart(fmt.Sprintf("/leo/%d/edit", post.ID), map[string]string{"text": "Changed"}, "notes.txt", []byte("plain text"), session)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]interface{}](t, rec)
	errs := body["errors"].(map[string]interface{})
	assert.Contains(t, errs["image"].([]interface{})[0], "Upload a valid image.")
	assert.Equal(t, "Original", app.postText(post.ID))
}

func TestEditPost_NonAuthorIsRedirected(t *testing.T) {
	app := newTestApp(t)
	leo := testutil.CreateUser(t, app.db, "leo")
	ann := testutil.CreateUser(t, app.db, "ann")
	post := testutil.CreatePost(t, app.db, leo, nil, "Original")
	session := app.login(ann)
	editURL := fmt.Sprintf("/leo/%d/edit", post.ID)
	detail := fmt.Sprintf("/leo/%d", post.ID)

	rec := app.get(editURL, session)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, detail, rec.Header().Get(echo.HeaderLocation))

	rec = app.postForm(editURL, url.Values{"text": {"Hijacked"}}, session)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, detail, rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, "Original", app.postText(post.ID))

	rec = app.get(fmt.Sprintf("/leo/%d/edit", post.ID+50), session)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGuestGate(t *testing.T) {
	app := newTestApp(t)
	leo := testutil.CreateUser(t, app.db, "leo")
	post := testutil.CreatePost(t, app.db, leo, nil, "p")

	tests := []struct {
		method string
		target string
	}{
		{http.MethodGet, "/new"},
		{http.MethodPost, "/new"},
		{http.MethodGet, "/follow"},
		{http.MethodGet, fmt.Sprintf("/leo/%d/edit", post.ID)},
		{http.MethodPost, fmt.Sprintf("/leo/%d/comment", post.ID)},
		{http.MethodPost, "/leo/9999/comment"},
		{http.MethodPost, "/leo/follow"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := app.do(httptest.NewRequest(tt.method, tt.target, nil), nil)
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/auth/login?next="+url.QueryEscape(tt.target), rec.Header().Get(echo.HeaderLocation))
		})
	}
	assert.Zero(t, testutil.CountComments(t, app.db))
	assert.Zero(t, testutil.CountFollows(t, app.db))
}

func TestComment(t *testing.T) {
	app := newTestApp(t)
	leo := testutil.CreateUser(t, app.db, "leo")
	ann := testutil.CreateUser(t, app.db, "ann")
	post := testutil.CreatePost(t, app.db, leo, nil, "p")
	session := app.login(ann)
	commentURL := fmt.Sprintf("/leo/%d/comment", post.ID)
	detail := fmt.Sprintf("/leo/%d", post.ID)

	rec := app.postForm(commentURL, url.Values{"text": {"Nice post"}}, session)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, detail, rec.Header().Get(echo.HeaderLocation))
	assert.EqualValues(t, 1, testutil.CountComments(t, app.db))

	rec = app.postForm(commentURL, url.Values{"text": {"   "}}, session)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.EqualValues(t, 1, testutil.CountComments(t, app.db), "empty comment is dropped")

	rec = app.postForm("/leo/9999/comment", url.Values{"text": {"x"}}, session)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body := decode[map[string]interface{}](t, app.get(detail, nil))
	comments := body["comments"].([]interface{})
	require.Len(t, comments, 1)
	assert.Equal(t, "Nice post", comments[0].(map[string]interface{})["text"])
}

func TestFollowUnfollow(t *testing.T) {
	app := newTestApp(t)
	reader := testutil.CreateUser(t, app.db, "reader")
	testutil.CreateUser(t, app.db, "leo")
	session := app.login(reader)

	before := testutil.CountFollows(t, app.db)
	rec := app.postForm("/leo/follow", nil, session)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/leo", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, before+1, testutil.CountFollows(t, app.db))

	app.postForm("/leo/follow", nil, session)
	assert.Equal(t, before+1, testutil.CountFollows(t, app.db), "following twice changes nothing")

	profile := decode[map[string]interface{}](t, app.get("/leo", session))
	assert.Equal(t, true, profile["following"])
	assert.EqualValues(t, 1, profile["follower"])

	rec = app.postForm("/leo/unfollow", nil, session)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, before, testutil.CountFollows(t, app.db))

	app.postForm("/reader/follow", nil, session)
	assert.Equal(t, before, testutil.CountFollows(t, app.db), "self follow is ignored")

	rec = app.postForm("/nobody/follow", nil, session)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFollowIgnoresGet(t *testing.T) {
	app := newTestApp(t)
	reader := testutil.CreateUser(t, app.db, "reader")
	testutil.CreateUser(t, app.db, "leo")
	session := app.login(reader)

	before := testutil.CountFollows(t, app.db)
	assert.Equal(t, http.StatusNotFound, app.get("/leo/follow", session).Code)
	assert.Equal(t, before, testutil.CountFollows(t, app.db), "a link cannot follow")

	app.postForm("/leo/follow", nil, session)
	assert.Equal(t, http.StatusNotFound, app.get("/leo/unfollow", session).Code)
	assert.Equal(t, before+1, testutil.CountFollows(t, app.db), "a link cannot unfollow")
}

func TestFollowFeed(t *testing.T) {
	app := newTestApp(t)
	reader := testutil.CreateUser(t, app.db, "reader")
	leo := testutil.CreateUser(t, app.db, "leo")
	ann := testutil.CreateUser(t, app.db, "ann")
	testutil.CreatePost(t, app.db, ann, nil, "unrelated")
	session := app.login(reader)

	page := decode[pageBody](t, app.get("/follow", session))
	assert.Empty(t, page.Page.Items)
	assert.Equal(t, 1, page.Page.Meta.TotalPages)

	app.postForm("/leo/follow", nil, session)
	post := testutil.CreatePost(t, app.db, leo, nil, "followed")

	page = decode[pageBody](t, app.get("/follow", session))
	require.Len(t, page.Page.Items, 1)
	assert.Equal(t, post.ID, page.Page.Items[0].ID)
}

func TestPagination_Clamps(t *testing.T) {
	app := newTestApp(t)
	leo := testutil.CreateUser(t, app.db, "leo")
	for i := 0; i < 13; i++ {
		testutil.CreatePost(t, app.db, leo, nil, fmt.Sprintf("post %d", i))
	}

	tests := []struct {
		query string
		page  int
		items int
	}{
		{"", 1, 10},
		{"?page=2", 2, 3},
		{"?page=999", 2, 3},
		{"?page=0", 1, 10},
		{"?page=abc", 1, 10},
	}
	for _, tt := range tests {
		rec := app.get("/"+tt.query, nil)
		require.Equal(t, http.StatusOK, rec.Code, tt.query)
		page := decode[pageBody](t, rec)
		assert.Equal(t, tt.page, page.Page.Meta.CurrentPage, tt.query)
		assert.Len(t, page.Page.Items, tt.items, tt.query)
		assert.EqualValues(t, 13, page.Page.Meta.TotalItems)
	}
}

func TestGroupPage(t *testing.T) {
	app := newTestApp(t)
	leo := testutil.CreateUser(t, app.db, "leo")
	cats := testutil.CreateGroup(t, app.db, "Cats", "cats")
	dogs := testutil.CreateGroup(t, app.db, "Dogs", "dogs")
	for i := 0; i < 3; i++ {
		testutil.CreatePost(t, app.db, leo, cats, "cat post")
	}
	testutil.CreatePost(t, app.db, leo, dogs, "dog post")

	page := decode[pageBody](t, app.get("/group/cats", nil))
	assert.Len(t, page.Page.Items, 2, "two posts per group page")
	assert.EqualValues(t, 3, page.Page.Meta.TotalItems)
	for _, p := range page.Page.Items {
		require.NotNil(t, p.GroupID)
		assert.Equal(t, cats.ID, *p.GroupID)
	}

	page = decode[pageBody](t, app.get("/group/dogs", nil))
	require.Len(t, page.Page.Items, 1)
	assert.Equal(t, "dog post", page.Page.Items[0].Text)

	assert.Equal(t, http.StatusNotFound, app.get("/group/birds", nil).Code)
}

func TestProfileAndDetail(t *testing.T) {
	app := newTestApp(t)
	leo := testutil.CreateUser(t, app.db, "leo")
	post := testutil.CreatePost(t, app.db, leo, nil, "hello")
	testutil.CreatePost(t, app.db, leo, nil, "again")

	rec := app.get("/leo/", nil)
	require.Equal(t, http.StatusOK, rec.Code, "trailing slash is stripped")
	profile := decode[map[string]interface{}](t, rec)
	assert.EqualValues(t, 2, profile["posts_count"])
	assert.Equal(t, false, profile["following"])

	rec = app.get(fmt.Sprintf("/leo/%d", post.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "hello", detail["post"].(map[string]interface{})["text"])
	assert.Equal(t, "hello", detail["title"])
	assert.EqualValues(t, 2, detail["posts_count"])
	assert.Empty(t, detail["comments"])

	assert.Equal(t, http.StatusNotFound, app.get("/nobody", nil).Code)
	assert.Equal(t, http.StatusNotFound, app.get("/leo/abc", nil).Code)
	assert.Equal(t, http.StatusNotFound, app.get(fmt.Sprintf("/ann/%d", post.ID), nil).Code)
}

func TestNotFoundBody(t *testing.T) {
	app := newTestApp(t)
	rec := app.get("/a/b/c/d", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found","path":"/a/b/c/d"}`, rec.Body.String())
}

func TestSignupLoginLogout(t *testing.T) {
	app := newTestApp(t)

	rec := app.postForm("/auth/signup", url.Values{"username": {"newbie"}, "email": {"n@example.com"}, "password": {"longenough"}}, nil)
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	require.NotEmpty(t, rec.Result().Cookies())

	rec = app.postForm("/auth/signup", url.Values{"username": {"newbie"}, "password": {"longenough"}}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")

	rec = app.postForm("/auth/signup", url.Values{"username": {"follow"}, "password": {"longenough"}}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Enter a valid username")

	rec = app.postForm("/auth/login", url.Values{"username": {"newbie"}, "password": {"wrong-password"}}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please enter a correct username and password")

	rec = app.postForm("/auth/login?next=%2Fnew", url.Values{"username": {"newbie"}, "password": {"longenough"}}, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/new", rec.Header().Get(echo.HeaderLocation))

	rec = app.postForm("/auth/login", url.Values{"username": {"newbie"}, "password": {"longenough"}, "next": {"https://evil.example"}}, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	rec = app.postForm("/auth/logout", nil, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestFirebaseLogin(t *testing.T) {
	verifier := fakeFirebase{identities: map[string]*firebase.Identity{
		"good": {UID: "uid-123456789", Email: "leo@example.com", Name: "Leo Tolstoy"},
	}}
	app := newTestApp(t, func(d *router.Dependencies) { d.Firebase = verifier })
	testutil.CreateUser(t, app.db, "leo")

	send := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/firebase", strings.NewReader(`{"idToken":"`+token+`"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		return app.do(req, nil)
	}

	rec := send("good")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]interface{}](t, rec)
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "leo-uid-1234", user["username"], "taken username gets a suffix")
	assert.Equal(t, "Leo Tolstoy", user["full_name"])

	rec = send("good")
	require.Equal(t, http.StatusOK, rec.Code)
	var count int64
	require.NoError(t, app.db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 2, count, "second login reuses the account")

	assert.Equal(t, http.StatusUnauthorized, send("bad").Code)
}

func TestFirebaseLogin_DisabledWithoutVerifier(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodPost, "/auth/firebase", strings.NewReader(`{"idToken":"x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusNotFound, app.do(req, nil).Code)
}

func TestFlatPage(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.db.Create(&models.FlatPage{URL: "/about/author/", Title: "About the author", Content: "..."}).Error)

	rec := app.get("/about/author", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "About the author")

	assert.Equal(t, http.StatusNotFound, app.get("/about/tech", nil).Code)
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	rec := app.get("/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"status":"healthy"`)
}

func TestRateLimit(t *testing.T) {
	app := newTestApp(t, func(d *router.Dependencies) { d.Config.RateLimitRequests = 2 })

	for i := 0; i < 2; i++ {
		rec := app.postForm("/auth/logout", nil, nil)
		assert.Equal(t, http.StatusFound, rec.Code)
	}
	rec := app.postForm("/auth/logout", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	assert.Equal(t, http.StatusOK, app.get("/health", nil).Code, "reads are not throttled")
}

func TestRateLimit_IgnoresForwardedForFromClients(t *testing.T) {
	app := newTestApp(t, func(d *router.Dependencies) { d.Config.RateLimitRequests = 2 })

	var codes []int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.Header.Set(echo.HeaderXForwardedFor, fmt.Sprintf("203.0.113.%d", i+1))
		codes = append(codes, app.do(req, nil).Code)
	}
	assert.Equal(t, []int{
		http.StatusFound, http.StatusFound,
		http.StatusTooManyRequests, http.StatusTooManyRequests,
		http.StatusTooManyRequests, http.StatusTooManyRequests,
	}, codes)
}

func TestRateLimit_TrustedProxyForwardsClientIP(t *testing.T) {
	app := newTestApp(t, func(d *router.Dependencies) {
		d.Config.RateLimitRequests = 1
		// httptest requests come from 192.0.2.1
		d.Config.TrustedProxies = []string{"192.0.2.0/24"}
	})

	send := func(client string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.Header.Set(echo.HeaderXForwardedFor, client)
		return app.do(req, nil).Code
	}
	assert.Equal(t, http.StatusFound, send("203.0.113.1"))
	assert.Equal(t, http.StatusFound, send("203.0.113.2"), "each client behind the proxy has its own budget")
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.1"))
}

func TestBodyLimit(t *testing.T) {
	app := newTestApp(t)
	reader := testutil.CreateUser(t, app.db, "reader")
	session := app.login(reader)
	before := testutil.CountPosts(t, app.db)

	huge := bytes.Repeat([]byte{0}, int(app.cfg.BodyLimit())+1)
	rec := app.postMultipart("/new", map[string]string{"text": "big"}, "big.gif", huge, session)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, before, testutil.CountPosts(t, app.db))
}
