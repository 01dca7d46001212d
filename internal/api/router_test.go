package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/bookfeed-be/internal/api"
	"github.com/isdelr/bookfeed-be/internal/auth"
	"github.com/isdelr/bookfeed-be/internal/models"
	"github.com/isdelr/bookfeed-be/internal/services"
	"github.com/isdelr/bookfeed-be/internal/store"
	"github.com/isdelr/bookfeed-be/internal/store/sqlstore"
	"github.com/isdelr/bookfeed-be/internal/testutil"
	"github.com/isdelr/bookfeed-be/internal/websocket"
)

const testSecret = "router-test-secret"

type testApp struct {
	router  *chi.Mux
	store   *sqlstore.Store
	fx      *testutil.Fixtures
	tokens  *auth.Manager
	central models.Library
	west    models.Library
	outside models.Library
	author  models.Author
	admin   models.User
	user1   models.User
	loner   models.User
}

type appOption func(*api.Dependencies)

func newTestApp(t *testing.T, opts ...appOption) *testApp {
	t.Helper()
	s := testutil.NewStore(t)
	fx := testutil.NewFixtures(t, s)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	app := &testApp{store: s, fx: fx, tokens: auth.NewManager(testSecret, time.Hour)}
	app.central = fx.CreateLibrary(ctx, "Central Library")
	app.west = fx.CreateLibrary(ctx, "Westside Library")
	app.outside = fx.CreateLibrary(ctx, "Outside Library")
	app.author = fx.CreateAuthor(ctx, "Ernest Hemingway", "US")
	app.admin = fx.CreateUser(ctx, "admin", "password", "US", app.central.ID, app.west.ID)
	app.user1 = fx.CreateUser(ctx, "user1", "password", "UK", app.central.ID)
	app.loner = fx.CreateUser(ctx, "loner", "password", "US")

	hub := websocket.NewHub()
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)
	t.Cleanup(stopHub)

	events := services.NewEventService(s, hub)
	deps := api.Dependencies{
		Tokens:             app.tokens,
		Users:              services.NewUserService(s, app.tokens),
		Books:              services.NewBookService(s, events),
		Feed:               services.NewFeedService(s),
		Events:             events,
		Hub:                hub,
		Store:              s,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
	}
	for _, opt := range opts {
		opt(&deps)
	}
	app.router = api.NewRouter(deps)
	return app
}

func (a *testApp) token(t *testing.T, user models.User) string {
	t.Helper()
	token, err := a.tokens.GenerateJWT(user)
	require.NoError(t, err)
	return token
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rr)["error"]
}

func (a *testApp) bookBody(library string) map[string]interface{} {
	return map[string]interface{}{
		"title":         "The Old Man and the Sea",
		"author":        a.author.ID,
		"publishedDate": "1952-09-01",
		"pages":         127,
		"library":       library,
	}
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)

	rr := app.do(t, http.MethodPost, "/api/v1/login", "", map[string]string{"username": "admin", "password": "password"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	token := decode[map[string]string](t, rr)["token"]
	require.NotEmpty(t, token)

	claims, err := app.tokens.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, []string{app.central.ID, app.west.ID}, claims.Libraries)
	assert.Equal(t, "US", claims.Country)

	wrong := app.do(t, http.MethodPost, "/api/v1/login", "", map[string]string{"username": "admin", "password": "nope"})
	unknown := app.do(t, http.MethodPost, "/api/v1/login", "", map[string]string{"username": "ghost", "password": "password"})
	for _, rr := range []*httptest.ResponseRecorder{wrong, unknown} {
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"message":"Invalid credentials"}`, rr.Body.String())
	}

	bad := app.do(t, http.MethodPost, "/api/v1/login", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

type brokenUsers struct {
	err error
}

func (b brokenUsers) CreateUser(context.Context, models.User) error { return b.err }

func (b brokenUsers) GetUserByUsername(context.Context, string) (models.User, error) {
	return models.User{}, b.err
}

func TestUnexpectedErrorsBecome500(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"with message", errors.New("database is locked"), "database is locked"},
		{"without message", errors.New(""), "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, func(d *api.Dependencies) {
				d.Users = services.NewUserService(brokenUsers{err: tt.err}, d.Tokens)
			})
			rr := app.do(t, http.MethodPost, "/api/v1/login", "", map[string]string{"username": "admin", "password": "password"})
			assert.Equal(t, http.StatusInternalServerError, rr.Code)
			assert.Equal(t, tt.want, errorMessage(t, rr))
		})
	}
}

type panickingFeed struct{}

func (panickingFeed) GetFeed(context.Context, *auth.Claims, int, int) ([]models.FeedItem, error) {
	panic("ranking exploded")
}

func TestPanicsBecome500(t *testing.T) {
	app := newTestApp(t, func(d *api.Dependencies) { d.Feed = panickingFeed{} })
	rr := app.do(t, http.MethodGet, "/api/v1/feed", app.token(t, app.admin), nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "ranking exploded", errorMessage(t, rr))
}

func TestAuthRequired(t *testing.T) {
	app := newTestApp(t)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		UserID:    app.admin.ID,
		Libraries: app.admin.Libraries,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	expiredToken, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)

	forged, err := auth.NewManager("some-other-secret", time.Hour).GenerateJWT(app.admin)
	require.NoError(t, err)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/books"},
		{http.MethodPost, "/api/v1/books"},
		{http.MethodGet, "/api/v1/books/" + store.NewID()},
		{http.MethodPut, "/api/v1/books/" + store.NewID()},
		{http.MethodPatch, "/api/v1/books/" + store.NewID()},
		{http.MethodDelete, "/api/v1/books/" + store.NewID()},
		{http.MethodGet, "/api/v1/feed"},
		{http.MethodGet, "/api/v1/events"},
		{http.MethodGet, "/api/v1/ws"},
	}
	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			rr := app.do(t, route.method, route.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, "Missing auth token", errorMessage(t, rr))

			rr = app.do(t, route.method, route.path, expiredToken, nil)
			assert.Equal(t, http.StatusForbidden, rr.Code)
			assert.Equal(t, "Auth token expired", errorMessage(t, rr))

			rr = app.do(t, route.method, route.path, forged, nil)
			assert.Equal(t, http.StatusForbidden, rr.Code)
			assert.Equal(t, "Invalid auth token", errorMessage(t, rr))
		})
	}
}

func TestCreateBook(t *testing.T) {
	app := newTestApp(t)
	token := app.token(t, app.admin)

	t.Run("created", func(t *testing.T) {
		rr := app.do(t, http.MethodPost, "/api/v1/books", token, app.bookBody(app.central.ID))
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		book := decode[models.Book](t, rr)
		assert.Equal(t, "Ernest Hemingway", book.AuthorName)
		assert.Equal(t, "US", book.AuthorCountry)
		assert.Equal(t, 127, book.Pages)

		stored, err := app.store.GetBook(context.Background(), book.ID)
		require.NoError(t, err)
		assert.Equal(t, book.Title, stored.Title)
	})

	t.Run("not a member", func(t *testing.T) {
		rr := app.do(t, http.MethodPost, "/api/v1/books", token, app.bookBody(app.outside.ID))
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, "You are not a member of the target library", errorMessage(t, rr))

		books, err := app.store.ListBooksByLibraries(context.Background(), []string{app.outside.ID})
		require.NoError(t, err)
		assert.Empty(t, books)
	})

	t.Run("unknown author", func(t *testing.T) {
		body := app.bookBody(app.central.ID)
		body["author"] = store.NewID()
		rr := app.do(t, http.MethodPost, "/api/v1/books", token, body)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Author not found", errorMessage(t, rr))
	})

	badBodies := map[string]func(map[string]interface{}){
		"fractional pages": func(b map[string]interface{}) { b["pages"] = 12.5 },
		"string pages":     func(b map[string]interface{}) { b["pages"] = "300" },
		"zero pages":       func(b map[string]interface{}) { b["pages"] = 0 },
		"missing title":    func(b map[string]interface{}) { delete(b, "title") },
		"bad author id":    func(b map[string]interface{}) { b["author"] = "123" },
		"bad date":         func(b map[string]interface{}) { b["publishedDate"] = "someday" },
	}
	for name, modify := range badBodies {
		t.Run(name, func(t *testing.T) {
			body := app.bookBody(app.central.ID)
			modify(body)
			rr := app.do(t, http.MethodPost, "/api/v1/books", token, body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			assert.NotEmpty(t, errorMessage(t, rr))
		})
	}

	t.Run("empty body", func(t *testing.T) {
		rr := app.do(t, http.MethodPost, "/api/v1/books", token, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestBookReadUpdateDelete(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	adminToken := app.token(t, app.admin)
	user1Token := app.token(t, app.user1)
	published := time.Date(1926, 10, 22, 0, 0, 0, 0, time.UTC)
	westBook := app.fx.CreateBook(ctx, "The Sun Also Rises", app.author, app.west, published, 247)
	centralBook := app.fx.CreateBook(ctx, "A Farewell to Arms", app.author, app.central, published, 355)

	t.Run("list is scoped to memberships", func(t *testing.T) {
		rr := app.do(t, http.MethodGet, "/api/v1/books", user1Token, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		books := decode[[]models.Book](t, rr)
		require.Len(t, books, 1)
		assert.Equal(t, centralBook.ID, books[0].ID)

		rr = app.do(t, http.MethodGet, "/api/v1/books", app.token(t, app.loner), nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})

	t.Run("get is idempotent", func(t *testing.T) {
		first := app.do(t, http.MethodGet, "/api/v1/books/"+westBook.ID, adminToken, nil)
		second := app.do(t, http.MethodGet, "/api/v1/books/"+westBook.ID, adminToken, nil)
		require.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, first.Body.String(), second.Body.String())
	})

	t.Run("get forbidden and missing", func(t *testing.T) {
		rr := app.do(t, http.MethodGet, "/api/v1/books/"+westBook.ID, user1Token, nil)
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, "Access denied to this library", errorMessage(t, rr))

		rr = app.do(t, http.MethodGet, "/api/v1/books/"+store.NewID(), adminToken, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Book not found", errorMessage(t, rr))
	})

	t.Run("partial update via PATCH and PUT", func(t *testing.T) {
		rr := app.do(t, http.MethodPatch, "/api/v1/books/"+centralBook.ID, adminToken, map[string]interface{}{"pages": 400})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, 400, decode[models.Book](t, rr).Pages)

		rr = app.do(t, http.MethodPut, "/api/v1/books/"+centralBook.ID, adminToken, map[string]interface{}{"title": "Farewell"})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		updated := decode[models.Book](t, rr)
		assert.Equal(t, "Farewell", updated.Title)
		assert.Equal(t, 400, updated.Pages)
	})

	t.Run("update into a foreign library", func(t *testing.T) {
		rr := app.do(t, http.MethodPatch, "/api/v1/books/"+centralBook.ID, user1Token, map[string]interface{}{"library": app.west.ID})
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, "You are not a member of the target library", errorMessage(t, rr))
	})

	t.Run("delete", func(t *testing.T) {
		rr := app.do(t, http.MethodDelete, "/api/v1/books/"+westBook.ID, user1Token, nil)
		assert.Equal(t, http.StatusForbidden, rr.Code)

		rr = app.do(t, http.MethodDelete, "/api/v1/books/"+westBook.ID, adminToken, nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Empty(t, rr.Body.String())

		rr = app.do(t, http.MethodDelete, "/api/v1/books/"+westBook.ID, adminToken, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("events", func(t *testing.T) {
		rr := app.do(t, http.MethodGet, "/api/v1/events?limit=10", adminToken, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		events := decode[[]models.Event](t, rr)
		require.Len(t, events, 3)
		assert.Equal(t, models.EventBookDelete, events[0].Type)
		assert.Equal(t, westBook.ID, events[0].BookID)
	})
}

func TestFeed(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	uk := app.fx.CreateAuthor(ctx, "Virginia Woolf", "UK")

	for i := 0; i < 22; i++ {
		app.fx.CreateBook(ctx, fmt.Sprintf("US book %d", i), app.author, app.central, time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC), 100+i)
	}
	heavy := app.fx.CreateBook(ctx, "Heavy UK book", uk, app.central, time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC), 3000)

	token := app.token(t, app.admin)

	rr := app.do(t, http.MethodGet, "/api/v1/feed", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	all := decode[[]models.FeedItem](t, rr)
	require.Len(t, all, 23)
	assert.Equal(t, heavy.ID, all[22].ID, "foreign author ranks last despite the highest score")
	assert.Equal(t, 1, all[0].IsSameCountry)
	assert.Equal(t, 121, all[0].Pages)

	rr = app.do(t, http.MethodGet, "/api/v1/feed?page=2&limit=10", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	page2 := decode[[]models.FeedItem](t, rr)
	require.Len(t, page2, 10)
	for i := range page2 {
		assert.Equal(t, all[10+i].ID, page2[i].ID)
	}

	rr = app.do(t, http.MethodGet, "/api/v1/feed?page=zero&limit=-4", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]models.FeedItem](t, rr), 23, "invalid paging falls back to defaults")

	rr = app.do(t, http.MethodGet, "/api/v1/feed?page=99&limit=1000", app.token(t, app.loner), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	// The feed exposes ranking inputs but not the normalized intermediates.
	rr = app.do(t, http.MethodGet, "/api/v1/feed?limit=1", token, nil)
	var raw []map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	require.Len(t, raw, 1)
	for _, key := range []string{"isSameCountry", "ageYears", "score", "authorName", "authorCountry"} {
		assert.Contains(t, raw[0], key)
	}
	assert.NotContains(t, raw[0], "pagesNorm")
	assert.NotContains(t, raw[0], "ageNorm")
}

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestOperationalEndpoints(t *testing.T) {
	app := newTestApp(t)

	rr := app.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	health := decode[map[string]interface{}](t, rr)
	assert.Equal(t, "ok", health["status"])

	down := newTestApp(t, func(d *api.Dependencies) { d.Store = downStore{} })
	rr = down.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "degraded", decode[map[string]interface{}](t, rr)["status"])

	rr = app.do(t, http.MethodGet, "/api-docs/openapi.yaml", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "openapi: 3.0.3")
	assert.Contains(t, rr.Body.String(), "/feed:")

	rr = app.do(t, http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Not Found", errorMessage(t, rr))
}

func TestLoginRateLimit(t *testing.T) {
	app := newTestApp(t, func(d *api.Dependencies) { d.LoginRatePerMinute = 2 })
	body := map[string]string{"username": "admin", "password": "nope"}

	assert.Equal(t, http.StatusUnauthorized, app.do(t, http.MethodPost, "/api/v1/login", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, app.do(t, http.MethodPost, "/api/v1/login", "", body).Code)

	rr := app.do(t, http.MethodPost, "/api/v1/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "Too many login attempts", errorMessage(t, rr))

	// Other routes are not throttled.
	assert.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/health", "", nil).Code)
}

func TestWebSocketReceivesLibraryActivity(t *testing.T) {
	app := newTestApp(t)
	srv := httptest.NewServer(app.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws?token=" + app.token(t, app.user1)
	conn, resp, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	// Ping round-trip proves the client is registered before publishing.
	require.NoError(t, conn.WriteJSON(websocket.Message{Action: websocket.ActionPing}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg websocket.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, websocket.ActionPong, msg.Action)

	token := app.token(t, app.admin)
	// West is not one of user1's libraries; only the central book should arrive.
	rr := app.do(t, http.MethodPost, "/api/v1/books", token, app.bookBody(app.west.ID))
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = app.do(t, http.MethodPost, "/api/v1/books", token, app.bookBody(app.central.ID))
	require.Equal(t, http.StatusCreated, rr.Code)
	created := decode[models.Book](t, rr)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, models.EventBookCreate, msg.Action)
	payload, ok := msg.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, created.ID, payload["bookId"])
	assert.Equal(t, app.central.ID, payload["libraryId"])
}

func TestLoginRateLimitIgnoresForwardingHeaders(t *testing.T) {
	app := newTestApp(t, func(d *api.Dependencies) { d.LoginRatePerMinute = 2 })

	var codes []int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/login", strings.NewReader(`{"username":"admin","password":"nope"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("10.1.0.%d", i))
		rr := httptest.NewRecorder()
		app.router.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, []int{
		http.StatusUnauthorized, http.StatusUnauthorized,
		http.StatusTooManyRequests, http.StatusTooManyRequests,
		http.StatusTooManyRequests, http.StatusTooManyRequests,
	}, codes, "rotating forwarding headers must not reset the bucket")
}

func TestPublishedDateRoundTripsAtStoredPrecision(t *testing.T) {
	app := newTestApp(t)
	token := app.token(t, app.admin)

	body := app.bookBody(app.central.ID)
	body["publishedDate"] = "1952-09-01T10:00:00.123456789Z"
	rr := app.do(t, http.MethodPost, "/api/v1/books", token, body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[models.Book](t, rr)
	assert.Equal(t, time.Date(1952, 9, 1, 10, 0, 0, 123000000, time.UTC), created.PublishedDate)

	rr = app.do(t, http.MethodGet, "/api/v1/books/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, created, decode[models.Book](t, rr))
}

func TestBookMoveNotifiesPreviousLibrary(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	book := app.fx.CreateBook(ctx, "The Sun Also Rises", app.author, app.central,
		time.Date(1926, 10, 22, 0, 0, 0, 0, time.UTC), 247)

	srv := httptest.NewServer(app.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws?token=" + app.token(t, app.user1)
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(websocket.Message{Action: websocket.ActionPing}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg websocket.Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, websocket.ActionPong, msg.Action)

	// admin moves the book out of Central, the only library user1 belongs to.
	rr := app.do(t, http.MethodPatch, "/api/v1/books/"+book.ID, app.token(t, app.admin), map[string]interface{}{"library": app.west.ID})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, models.EventBookUpdate, msg.Action)
	payload, ok := msg.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, book.ID, payload["bookId"])
	assert.Equal(t, app.central.ID, payload["libraryId"])

	rr = app.do(t, http.MethodGet, "/api/v1/events", app.token(t, app.user1), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	events := decode[[]models.Event](t, rr)
	require.Len(t, events, 1)
	assert.Equal(t, book.ID, events[0].BookID)
	assert.Equal(t, app.central.ID, events[0].LibraryID)
}
