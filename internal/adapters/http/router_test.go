package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelis/huddle/internal/adapters/signal"
	"github.com/avelis/huddle/internal/config"
	"github.com/avelis/huddle/internal/core"
	"github.com/avelis/huddle/internal/domain"
)

func testSetup(t *testing.T) (*gin.Engine, *core.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Mode:       "release",
		StaticPath: t.TempDir(),
		UploadPath: t.TempDir(),
		ReadLimit:  32768,
		SendBuffer: 64,
		Secret:     "test-secret",
	}
	reg := core.NewRegistry(core.NewCodeGenerator(), 0)
	ctl := signal.NewController(reg, cfg)
	return SetupRouter(context.Background(), cfg, ctl, reg), reg
}

func TestHealth(t *testing.T) {
	r, _ := testSetup(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.GreaterOrEqual(t, body["uptime"].(float64), 0.0)
	assert.Equal(t, 0.0, body["connections"])
}

func TestRoomsListing(t *testing.T) {
	r, reg := testSetup(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rooms", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"rooms":[]}`, w.Body.String())

	member, err := domain.NewMember("u1", "Alice")
	require.NoError(t, err)
	room, err := reg.CreateRoom("Book Club", member, nopConn{})
	require.NoError(t, err)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rooms", nil))
	var body struct {
		Rooms []core.RoomInfo `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Rooms, 1)
	assert.Equal(t, room.Code, body.Rooms[0].Code)
	assert.Equal(t, 1, body.Rooms[0].MemberCount)
}

func TestRoomMembers(t *testing.T) {
	r, reg := testSetup(t)

	member, err := domain.NewMember("u1", "Alice")
	require.NoError(t, err)
	room, err := reg.CreateRoom("room", member, nopConn{})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rooms/"+string(room.Code)+"/members", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Alice")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rooms/NOSUCH/members", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpload(t *testing.T) {
	r, _ := testSetup(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "note.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, strings.HasPrefix(body["url"], "/uploads/"))
	assert.True(t, strings.HasSuffix(body["url"], "note.txt"))
}

func TestUpload_MissingFile(t *testing.T) {
	r, _ := testSetup(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIndexServed(t *testing.T) {
	gin.SetMode(gin.TestMode)

	static := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(static, "index.html"), []byte("<html>huddle</html>"), 0o644))

	cfg := &config.Config{
		Mode:       "release",
		StaticPath: static,
		UploadPath: t.TempDir(),
		Secret:     "test-secret",
	}
	reg := core.NewRegistry(core.NewCodeGenerator(), 0)
	ctl := signal.NewController(reg, cfg)
	r := SetupRouter(context.Background(), cfg, ctl, reg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "huddle")
}

func TestClientTokenMiddleware(t *testing.T) {
	r, _ := testSetup(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var minted bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "ct" && c.Value != "" {
			minted = true
		}
	}
	assert.True(t, minted, "client token cookie must be minted on first contact")
}

// nopConn satisfies core.SignalConnection for registry seeding.
type nopConn struct{}

func (nopConn) TrySend(core.Frame) error { return nil }
func (nopConn) Close()                   {}
