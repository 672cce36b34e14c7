package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Veraticus/sakhi/internal/common"
	"github.com/Veraticus/sakhi/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

func newTestClient(t *testing.T, url string, cfg Config) *Client {
	t.Helper()
	cfg.BaseURL = url
	c, err := NewClient(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{name: "default base url", baseURL: ""},
		{name: "trailing slash", baseURL: "http://localhost:8000/"},
		{name: "https", baseURL: "https://api.example.com"},
		{name: "missing scheme", baseURL: "localhost:8000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(Config{BaseURL: tt.baseURL}, nil)
			if tt.wantErr {
				require.ErrorIs(t, err, common.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			c.Close()
		})
	}
}

func TestPost_JSONChannels(t *testing.T) {
	tests := []struct {
		channel model.Channel
		path    string
		field   string
		input   string
	}{
		{channel: model.ChannelPhone, path: "/phone/predict", field: "phone_number", input: "+919876543210"},
		{channel: model.ChannelSMS, path: "/sms/predict", field: "text", input: "WIN FREE CASH"},
		{channel: model.ChannelURL, path: "/url/predict", field: "url", input: "http://free.xyz"},
		{channel: model.ChannelUPI, path: "/upi/predict", field: "upi", input: "john@upi"},
	}

	for _, tt := range tests {
		t.Run(string(tt.channel), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, tt.path, r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

				var body map[string]string
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, map[string]string{tt.field: tt.input}, body)

				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"ok":true}`))
			}))
			defer server.Close()

			c := newTestClient(t, server.URL, Config{Token: "tok"})
			resp, err := c.Post(context.Background(), Endpoints[tt.channel], model.TextInput(tt.input))
			require.NoError(t, err)
			assert.True(t, resp.OK())
			assert.Equal(t, `{"ok":true}`, string(resp.Body))
			assert.NotEmpty(t, resp.RequestID)
		})
	}
}

func TestPost_QRMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/qr/", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()

		assert.Equal(t, `pay "me".png`, header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		data, err := io.ReadAll(file)
		assert.NoError(t, err)
		assert.Equal(t, pngHeader, data)

		_, _ = w.Write([]byte(`{"filename":"pay.png","prediction":"Benign","confidence":0.9}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, Config{})
	resp, err := c.Post(context.Background(), Endpoints[model.ChannelQR], model.FileInput(`pay "me".png`, pngHeader))
	require.NoError(t, err)
	assert.True(t, resp.OK())
}

func TestPost_NonOKIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Model or tokenizer not loaded."}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, Config{})
	resp, err := c.Post(context.Background(), Endpoints[model.ChannelSMS], model.TextInput("hi"))
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "tokenizer")
}

func TestPost_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := newTestClient(t, url, Config{})
	_, err := c.Post(context.Background(), Endpoints[model.ChannelURL], model.TextInput("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrConnectivity)
}

func TestPost_RetriesConnectionFailures(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := newTestClient(t, url, Config{MaxRetries: 2, RetryDelay: time.Millisecond})
	_, err := c.Post(context.Background(), Endpoints[model.ChannelPhone], model.TextInput("1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMaxRetries)
	assert.ErrorIs(t, err, common.ErrConnectivity)
}

// droppingServer closes every connection without answering.
func droppingServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			_ = conn.Close()
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestPost_MaxRetriesCountsExtraAttempts(t *testing.T) {
	tests := []struct {
		name       string
		maxRetries int
		wantHits   int32
	}{
		{name: "no retries", maxRetries: 0, wantHits: 1},
		{name: "one retry", maxRetries: 1, wantHits: 2},
		{name: "three retries", maxRetries: 3, wantHits: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			server := droppingServer(t, &hits)

			c := newTestClient(t, server.URL, Config{MaxRetries: tt.maxRetries, RetryDelay: time.Millisecond})
			_, err := c.Post(context.Background(), Endpoints[model.ChannelUPI], model.TextInput("a@b"))
			require.ErrorIs(t, err, common.ErrConnectivity)
			assert.Equal(t, tt.wantHits, hits.Load())
		})
	}
}

func TestPost_RateLimitedPerEndpoint(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, Config{RateLimit: 1, RateBurst: 1})

	_, err := c.Post(context.Background(), Endpoints[model.ChannelSMS], model.TextInput("hi"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Post(ctx, Endpoints[model.ChannelSMS], model.TextInput("hi again"))
	require.ErrorIs(t, err, common.ErrRateLimit)

	// Another endpoint has its own bucket.
	_, err = c.Post(context.Background(), Endpoints[model.ChannelURL], model.TextInput("https://example.com"))
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestPost_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	c := newTestClient(t, server.URL, Config{})

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.Post(ctx, Endpoints[model.ChannelSMS], model.TextInput("hi"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEndpoints_CoverEveryChannel(t *testing.T) {
	for _, ch := range model.AllChannels {
		ep, ok := Endpoints[ch]
		require.True(t, ok, ch)
		assert.NotEmpty(t, ep.Path)
		assert.Equal(t, ch == model.ChannelQR, ep.Multipart)
	}
}
