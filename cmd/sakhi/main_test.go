package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Veraticus/sakhi/internal/transport"
	"github.com/bytedance/sonic"
	"github.com/gorilla/mux"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backend is a fake classification service answering POSTs to every channel
// endpoint with body. Other routes get a 404 and are not counted.
type backend struct {
	server *httptest.Server
	calls  atomic.Int32
}

func newBackend(t *testing.T, status int, body string) *backend {
	t.Helper()
	b := &backend{}

	r := mux.NewRouter()
	for _, ep := range transport.Endpoints {
		r.HandleFunc(ep.Path, func(w http.ResponseWriter, _ *http.Request) {
			b.calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}).Methods(http.MethodPost)
	}

	b.server = httptest.NewServer(r)
	t.Cleanup(b.server.Close)
	return b
}

// execute runs the root command with a clean viper and an isolated HOME.
func execute(t *testing.T, apiURL, stdin string, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	cfgFile = ""
	t.Cleanup(viper.Reset)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SAKHI_AUTH_REQUIRED", "false")
	t.Setenv("SAKHI_API_RETRY_DELAY", "1ms")
	t.Setenv("SAKHI_LOGGING_LEVEL", "error")
	if apiURL != "" {
		t.Setenv("SAKHI_API_BASE_URL", apiURL)
	}

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "", "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sakhi version dev")
}

func TestPhoneCmd(t *testing.T) {
	b := newBackend(t, http.StatusOK, `{"phone_number":"+911234567890","result":"Spam","confidence":0.7}`)

	out, err := execute(t, b.server.URL, "", "phone", "+911234567890")
	require.NoError(t, err)

	assert.Contains(t, out, "Spam / Unsafe")
	assert.Contains(t, out, "+911234567890")
	assert.Contains(t, out, "70.00%")
	assert.Equal(t, int32(1), b.calls.Load())
}

func TestSMSCmd_JSON(t *testing.T) {
	b := newBackend(t, http.StatusOK, `{"text":"WIN FREE CASH","prediction":"Spam","confidence":97.3}`)

	out, err := execute(t, b.server.URL, "", "sms", "--json", "WIN", "FREE", "CASH")
	require.NoError(t, err)

	var got checkOutput
	require.NoError(t, sonic.Unmarshal([]byte(out), &got))
	assert.Equal(t, "sms", got.Channel)
	assert.Equal(t, "result", got.Status)
	assert.Equal(t, "SUSPICIOUS", got.Label)
	assert.Equal(t, "WIN FREE CASH", got.Subject)
	require.NotNil(t, got.Confidence)
	assert.InDelta(t, 97.3, *got.Confidence, 1e-9)
}

func TestURLCmd_PromptsWhenNoArgs(t *testing.T) {
	b := newBackend(t, http.StatusOK, `{"url":"https://example.com","result":"Safe"}`)

	out, err := execute(t, b.server.URL, "https://example.com\n", "url")
	require.NoError(t, err)

	assert.Contains(t, out, "URL")
	assert.Contains(t, out, "Safe")
	assert.Equal(t, int32(1), b.calls.Load())
}

func TestUPICmd_InvalidInputNeverSent(t *testing.T) {
	b := newBackend(t, http.StatusOK, `{"upi":"x","prediction":0}`)

	out, err := execute(t, b.server.URL, "", "upi", "not-a-handle")
	require.ErrorIs(t, err, errInvalidInput)

	assert.Contains(t, out, "invalid UPI ID format")
	assert.Zero(t, b.calls.Load())
}

func TestCheckCmd_BackendErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
		status  int
	}{
		{name: "error body", status: http.StatusBadRequest, body: `{"error":"number not supported"}`, wantMsg: "number not supported"},
		{name: "gateway failure", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, wantMsg: "error connecting to API"},
		{name: "missing label", status: http.StatusOK, body: `{"confidence":0.4}`, wantMsg: "unexpected response from API"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBackend(t, tt.status, tt.body)

			out, err := execute(t, b.server.URL, "", "phone", "12345")
			require.ErrorIs(t, err, errCheckFailed)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Contains(t, out, tt.wantMsg)
		})
	}
}

func TestCheckCmd_BackendErrorJSONCarriesStatus(t *testing.T) {
	b := newBackend(t, http.StatusUnprocessableEntity, `{"detail":"number not supported"}`)

	out, err := execute(t, b.server.URL, "", "phone", "--json", "12345")
	require.ErrorIs(t, err, errCheckFailed)

	var got checkOutput
	require.NoError(t, sonic.Unmarshal([]byte(out), &got))
	assert.Equal(t, "error", got.Status)
	assert.Equal(t, "number not supported", got.Message)
	assert.Equal(t, http.StatusUnprocessableEntity, got.HTTPStatus)
}

func TestCheckCmd_RequiresAuthentication(t *testing.T) {
	b := newBackend(t, http.StatusOK, `{"result":"Spam"}`)

	viper.Reset()
	cfgFile = ""
	t.Cleanup(viper.Reset)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SAKHI_API_BASE_URL", b.server.URL)
	t.Setenv("SAKHI_AUTH_TOKEN", "")

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"phone", "12345"})

	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not authenticated")
	assert.Zero(t, b.calls.Load())
}

func TestQRCmd_RejectsImageWithoutCode(t *testing.T) {
	b := newBackend(t, http.StatusOK, `{"prediction":"Benign","confidence":0.9}`)

	path := filepath.Join(t.TempDir(), "blank.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0600))

	out, err := execute(t, b.server.URL, "", "qr", path)
	require.ErrorIs(t, err, errInvalidInput)
	assert.Contains(t, out, "no QR code detected")
	assert.Zero(t, b.calls.Load())
}

func TestBatchCmd(t *testing.T) {
	b := newBackend(t, http.StatusOK, `{"url":"","result":"Malicious"}`)

	input := "# links from today\nhttps://a.example\n\nhttps://b.example\n"
	out, err := execute(t, b.server.URL, input, "batch", "--channel", "url", "--no-progress", "-")
	require.NoError(t, err)

	assert.Contains(t, out, "https://a.example")
	assert.Contains(t, out, "https://b.example")
	assert.Contains(t, out, "Suspicious: 2")
	assert.Equal(t, int32(2), b.calls.Load())
}

func TestBatchCmd_UnknownChannel(t *testing.T) {
	_, err := execute(t, "", "x\n", "batch", "--channel", "fax", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown channel")
}

func TestHistoryCmd(t *testing.T) {
	b := newBackend(t, http.StatusOK, `{"upi":"john@upi","prediction":1,"probability":[0.2,0.8]}`)
	dbPath := filepath.Join(t.TempDir(), "history.db")
	t.Setenv("SAKHI_HISTORY_ENABLED", "true")
	t.Setenv("SAKHI_DATABASE_PATH", dbPath)

	_, err := execute(t, b.server.URL, "", "upi", "john@upi")
	require.NoError(t, err)

	out, err := execute(t, b.server.URL, "", "history", "--channel", "upi")
	require.NoError(t, err)
	assert.Contains(t, out, "john@upi")
	assert.Contains(t, out, "Showing 1 of 1 checks (1 suspicious, 0 safe)")

	backup := filepath.Join(t.TempDir(), "backup.db")
	out, err = execute(t, b.server.URL, "", "history", "backup", backup)
	require.NoError(t, err)
	assert.Contains(t, out, "Backed up 1 checks")
	assert.FileExists(t, backup)
}

func TestHistoryCmd_Empty(t *testing.T) {
	t.Setenv("SAKHI_DATABASE_PATH", filepath.Join(t.TempDir(), "history.db"))

	out, err := execute(t, "", "", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No checks recorded yet")
}

func TestMigrateCmd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	t.Setenv("SAKHI_DATABASE_PATH", dbPath)

	out, err := execute(t, "", "", "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema version: 0")
	assert.Contains(t, out, "Migrations pending")

	out, err = execute(t, "", "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrated from version 0 to 2")

	out, err = execute(t, "", "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Database is up to date")
}
