package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/mediaprobe/pkg/testkit"
)

func TestNewRequiresBaseURLAndToken(t *testing.T) {
	_, err := New("", "tok")
	require.Error(t, err)

	_, err = New("http://api.example.com", "  ")
	require.Error(t, err)

	c, err := New("http://api.example.com/", "tok")
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.com", c.baseURL, "trailing slash must be trimmed")
}

func TestTokenTravelsInHeaderAndQuery(t *testing.T) {
	var gotHeader, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-API-Token")
		gotQuery = r.URL.Query().Get("token")
		w.Write([]byte(`{"status":"OK","data":[]}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, "secret-token")
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/coupon", nil)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", gotHeader)
	assert.Equal(t, "secret-token", gotQuery)
}

func TestPostFormEncodesBody(t *testing.T) {
	var gotContentType string
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Write([]byte(`{"status":"OK","data":{"_id":"abc"}}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, "tok")
	require.NoError(t, err)

	env, err := c.PostForm(context.Background(), "/category", url.Values{
		"name": {"drama & crime"},
		"slug": {"drama-crime"},
	})
	require.NoError(t, err)

	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "drama & crime", gotForm.Get("name"))
	assert.Equal(t, "drama-crime", gotForm.Get("slug"))
	assert.True(t, env.IsOK())
}

func TestGetParamsReachTheQueryString(t *testing.T) {
	var gotGroup string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotGroup = r.URL.Query().Get("group")
		w.Write([]byte(`{"status":"OK","data":[]}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, "tok")
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/coupon", url.Values{"group": {"g42"}})
	require.NoError(t, err)
	assert.Equal(t, "g42", gotGroup)
}

func TestTransportCodeIsKeptSeparateFromDomainStatus(t *testing.T) {
	// The platform's not-found shape: transport 200, domain ERROR.
	mt := testkit.NewTransport(testkit.NotFoundEnvelope("GET", "/coupon/"))
	c, err := New("http://platform.test", "tok",
		WithHTTPClient(&http.Client{Transport: mt}))
	require.NoError(t, err)

	env, err := c.Get(context.Background(), "/coupon/doesnotexist", nil)
	require.NoError(t, err, "a domain error is not a client error")
	assert.Equal(t, 200, env.Code)
	assert.Equal(t, StatusError, env.Status)
	assert.True(t, env.DataIsNull())
	assert.Empty(t, mt.Uncalled())
}

func TestNonJSONBodyIsAnError(t *testing.T) {
	mt := testkit.NewTransport(testkit.CannedResponse{
		Method: "GET",
		Path:   "/coupon",
		Code:   http.StatusBadGateway,
		Body:   `<html>gateway timeout</html>`,
	})
	c, err := New("http://platform.test", "tok",
		WithHTTPClient(&http.Client{Transport: mt}))
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/coupon", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode envelope")
}

func TestUnexpectedCallFailsTheTransport(t *testing.T) {
	mt := testkit.NewTransport(testkit.OKEnvelope("GET", "/media", `[]`))
	c, err := New("http://platform.test", "tok",
		WithHTTPClient(&http.Client{Transport: mt}))
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/category", nil)
	require.Error(t, err, "a call outside the script must fail loudly")
	assert.Equal(t, []string{"GET /media"}, mt.Uncalled())
}

func TestPerCallTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
			w.Write([]byte(`{"status":"OK","data":null}`))
		}
	}))
	defer srv.Close()

	c, err := New(srv.URL, "tok", WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/media", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
