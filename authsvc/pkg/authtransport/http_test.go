package authtransport_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics/discard"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/ichigozero/tasktracker/authsvc"
	"github.com/ichigozero/tasktracker/authsvc/pkg/authendpoint"
	"github.com/ichigozero/tasktracker/authsvc/pkg/authservice"
	"github.com/ichigozero/tasktracker/authsvc/pkg/authtransport"
	"github.com/ichigozero/tasktracker/usersvc"
	"github.com/ichigozero/tasktracker/usersvc/inmem"
	"github.com/ichigozero/tasktracker/usersvc/pkg/userservice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testConfig = authsvc.TokenConfig{
	Secret:   "test-secret",
	Issuer:   "TaskTracker.IdentityService",
	Audience: "TaskTracker",
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	users, err := userservice.NewBasicService(inmem.NewUserRepository(), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = users.Register(context.Background(), "bob", "1234")
	require.NoError(t, err)

	svc := authservice.NewBasicService(users, authservice.NewTokenizer(testConfig, nil))
	endpoints := authendpoint.New(svc, log.NewNopLogger(), discard.NewHistogram())

	srv := httptest.NewServer(authtransport.NewHTTPHandler(endpoints, log.NewNopLogger()))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginHandler(t *testing.T) {
	srv := newServer(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"valid credentials", `{"userName":"bob","password":"1234"}`, http.StatusOK},
		{"wrong password", `{"userName":"bob","password":"nope"}`, http.StatusUnauthorized},
		{"unknown user", `{"userName":"eve","password":"1234"}`, http.StatusUnauthorized},
		{"empty fields", `{"userName":"","password":""}`, http.StatusUnauthorized},
		{"malformed body", `{"userName":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/auth/login", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.code, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.code == http.StatusOK {
				assert.NotEmpty(t, body["accessToken"])
			} else {
				assert.NotEmpty(t, body["error"])
				assert.NotContains(t, body, "accessToken")
			}
		})
	}
}

func TestLoginHandlerIssuesValidToken(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Post(srv.URL+"/auth/login", "application/json", strings.NewReader(`{"userName":"bob","password":"1234"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	claims, err := authservice.NewValidator(testConfig, nil).Validate(body.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.Name)
}

func TestHTTPClient(t *testing.T) {
	srv := newServer(t)

	client, err := authtransport.NewHTTPClient(srv.URL, log.NewNopLogger())
	require.NoError(t, err)

	token, err := client.Login(context.Background(), "bob", "1234")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = client.Login(context.Background(), "bob", "wrong")
	assert.Equal(t, usersvc.ErrInvalidCredentials, err)
}

func TestAuthenticator(t *testing.T) {
	raw, err := authservice.NewTokenizer(testConfig, nil).Generate(usersvc.User{ID: "u-1", UserName: "bob"})
	require.NoError(t, err)

	var seen context.Context
	next := func(ctx context.Context, request interface{}) (interface{}, error) {
		seen = ctx
		return "ok", nil
	}
	authenticated := authtransport.NewAuthenticator(authservice.NewValidator(testConfig, nil), log.NewNopLogger())(endpoint.Endpoint(next))

	t.Run("valid token", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), authsvc.TokenContextKey, raw)
		resp, err := authenticated(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, "ok", resp)
		assert.Equal(t, "u-1", seen.Value(authsvc.SubjectContextKey))
		assert.Equal(t, "bob", seen.Value(authsvc.UserNameContextKey))
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := authenticated(context.Background(), nil)
		assert.Equal(t, authsvc.ErrUnauthorized, err)
	})

	t.Run("tampered token", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), authsvc.TokenContextKey, raw+"x")
		_, err := authenticated(ctx, nil)
		assert.Equal(t, authsvc.ErrUnauthorized, err)
	})
}

func TestVerifyTokenBeforeDecode(t *testing.T) {
	raw, err := authservice.NewTokenizer(testConfig, nil).Generate(usersvc.User{ID: "u-1", UserName: "bob"})
	require.NoError(t, err)

	var decoded bool
	decode := authtransport.RequireSubject(func(ctx context.Context, r *http.Request) (interface{}, error) {
		decoded = true
		return ctx.Value(authsvc.SubjectContextKey), nil
	})
	before := []httptransport.RequestFunc{
		authtransport.HTTPToContext(),
		authtransport.VerifyToken(authservice.NewValidator(testConfig, nil), log.NewNopLogger()),
	}

	tests := []struct {
		name   string
		header string
		want   interface{}
	}{
		{"valid token", "Bearer " + raw, "u-1"},
		{"missing token", "", nil},
		{"tampered token", "Bearer " + raw + "x", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded = false
			r := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader("{not json"))
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			ctx := context.Background()
			for _, f := range before {
				ctx = f(ctx, r)
			}

			req, err := decode(ctx, r)
			if tt.want == nil {
				assert.Equal(t, authsvc.ErrUnauthorized, err)
				assert.False(t, decoded)
				return
			}
			require.NoError(t, err)
			assert.True(t, decoded)
			assert.Equal(t, tt.want, req)
		})
	}
}

func TestHTTPToContext(t *testing.T) {
	tests := []struct {
		header string
		token  interface{}
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc", "abc"},
		{"Basic dXNlcjpwYXNz", nil},
		{"Bearer ", nil},
		{"", nil},
	}

	before := authtransport.HTTPToContext()
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		ctx := before(context.Background(), r)
		assert.Equal(t, tt.token, ctx.Value(authsvc.TokenContextKey), tt.header)
	}
}

func TestContextToHTTP(t *testing.T) {
	var fn httptransport.RequestFunc = authtransport.ContextToHTTP()

	r := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	fn(context.WithValue(context.Background(), authsvc.TokenContextKey, "abc"), r)
	assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))

	r = httptest.NewRequest(http.MethodGet, "/tasks", nil)
	fn(context.Background(), r)
	assert.Empty(t, r.Header.Get("Authorization"))
}
