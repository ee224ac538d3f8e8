package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/philipparndt/gobim/internal/controller"
	"github.com/philipparndt/gobim/internal/scene"
	"github.com/philipparndt/gobim/internal/views"
	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(x float64) *scene.Geometry {
	return &scene.Geometry{
		Bounds:    geometry.BoundingBox{Min: geometry.NewVector3(x, 0, 0), Max: geometry.NewVector3(x+1, 1, 1)},
		Triangles: 12,
	}
}

func houseSpec() *scene.ModelSpec {
	return &scene.ModelSpec{
		ID: "house",
		Root: &scene.NodeSpec{ID: "project1", Kind: "project", Children: []*scene.NodeSpec{
			{ID: "story1", Kind: "story", Children: []*scene.NodeSpec{
				{ID: "wall1", Kind: "wall", Geometry: box(0)},
				{ID: "wall2", Kind: "wall", Geometry: box(2)},
			}},
			{ID: "story2", Kind: "story"},
			{ID: "roof1", Kind: "roof", Geometry: box(4)},
		}},
	}
}

func newTestServer(t *testing.T, loaded bool) (*Server, *controller.Session) {
	t.Helper()
	session := controller.NewSession(scene.New(), nil, nil)
	if loaded {
		require.NoError(t, session.Handle(controller.ModelLoaded{Model: houseSpec()}))
	}
	store, err := views.Open(filepath.Join(t.TempDir(), "views.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(session, store, nil), session
}

func do(t *testing.T, s *Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(data) > 0 && data[0] == '{' {
		require.NoError(t, json.Unmarshal(data, &out))
	}
	return resp.StatusCode, out
}

func objectState(t *testing.T, s *Server, id string) map[string]any {
	t.Helper()
	status, body := do(t, s, http.MethodGet, "/objects/"+id, "")
	require.Equal(t, http.StatusOK, status)
	return body["state"].(map[string]any)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, false)

	status, _ := do(t, s, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = do(t, s, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestNotReady(t *testing.T) {
	s, _ := newTestServer(t, false)

	status, _ := do(t, s, http.MethodGet, "/objects/wall1", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status, _ = do(t, s, http.MethodGet, "/mode", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status, _ = do(t, s, http.MethodGet, "/measurements", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)

	// operations are dropped, not rejected
	status, body := do(t, s, http.MethodPost, "/isolate/story1", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["ready"])

	status, body = do(t, s, http.MethodPost, "/pick", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["ready"])

	status, body = do(t, s, http.MethodPost, "/measurements",
		`{"distanceMeasurement":"d1","points":[[0,0,0],[3,4,0]]}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["ready"])

	status, body = do(t, s, http.MethodDelete, "/measurements", `{"distanceMeasurement":"d1"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["ready"])

	status, body = do(t, s, http.MethodPost, "/views/early", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["ready"])
}

func TestIsolateAndReset(t *testing.T) {
	s, _ := newTestServer(t, true)

	status, body := do(t, s, http.MethodPost, "/isolate/story1", "")
	require.Equal(t, http.StatusOK, status)
	mode := body["mode"].(map[string]any)
	assert.Equal(t, true, mode["isolated"])
	assert.Equal(t, "story1", mode["root"])

	assert.Equal(t, false, objectState(t, s, "wall1")["xrayed"])
	assert.Equal(t, true, objectState(t, s, "roof1")["xrayed"])

	status, body = do(t, s, http.MethodPost, "/reset", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["mode"].(map[string]any)["isolated"])
	assert.Equal(t, false, objectState(t, s, "roof1")["xrayed"])
}

func TestIsolateEmptySubtreeResets(t *testing.T) {
	s, _ := newTestServer(t, true)

	do(t, s, http.MethodPost, "/isolate/story1", "")
	status, body := do(t, s, http.MethodPost, "/isolate/story2", "")

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["mode"].(map[string]any)["isolated"])
	assert.Equal(t, false, objectState(t, s, "roof1")["xrayed"])
}

func TestHighlightAndPick(t *testing.T) {
	s, _ := newTestServer(t, true)

	status, _ := do(t, s, http.MethodPost, "/highlight/wall1", `{"on":true}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, objectState(t, s, "wall1")["highlighted"])

	_, body := do(t, s, http.MethodPost, "/pick", `{"id":"wall2"}`)
	assert.Equal(t, []any{"wall2"}, body["selection"])
	assert.Equal(t, false, objectState(t, s, "wall1")["highlighted"])
	assert.Equal(t, true, objectState(t, s, "wall2")["highlighted"])

	_, body = do(t, s, http.MethodPost, "/pick", "")
	assert.Empty(t, body["selection"])
	assert.Equal(t, false, objectState(t, s, "wall2")["highlighted"])

	status, _ = do(t, s, http.MethodPost, "/highlight/wall1", `{"on":`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestParamsSurviveLaterRequests(t *testing.T) {
	s, session := newTestServer(t, true)

	do(t, s, http.MethodPost, "/highlight/wall1", "")
	do(t, s, http.MethodGet, "/objects/roof1", "")
	do(t, s, http.MethodGet, "/health/live", "")

	_, body := do(t, s, http.MethodPost, "/pick", `{"id":"wall2"}`)
	assert.Equal(t, []any{"wall2"}, body["selection"])
	assert.Equal(t, false, objectState(t, s, "wall1")["highlighted"])

	do(t, s, http.MethodGet, "/objects/ghost-with-a-much-longer-id", "")
	assert.Equal(t, []string{"wall2"}, session.Controller().Selection())

	highlighted := 0
	for _, st := range session.Scene().States() {
		if st.Highlighted {
			highlighted++
		}
	}
	assert.Equal(t, 1, highlighted)

	do(t, s, http.MethodPost, "/isolate/story1", "")
	do(t, s, http.MethodGet, "/health/live", "")
	do(t, s, http.MethodPost, "/xray/roof1", "")

	_, body = do(t, s, http.MethodGet, "/mode", "")
	assert.Equal(t, "story1", body["mode"].(map[string]any)["root"])
	assert.Equal(t, controller.Isolated("story1"), session.Controller().Mode())
}

func TestXrayAndUnknownObject(t *testing.T) {
	s, _ := newTestServer(t, true)

	do(t, s, http.MethodPost, "/xray/wall2", "")
	assert.Equal(t, true, objectState(t, s, "wall2")["xrayed"])

	status, _ := do(t, s, http.MethodPost, "/xray/ghost", "")
	assert.Equal(t, http.StatusOK, status)

	status, body := do(t, s, http.MethodGet, "/objects/ghost", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ghost", body["id"])
	assert.Equal(t, false, body["known"])
	assert.Nil(t, body["state"])

	_, body = do(t, s, http.MethodGet, "/objects/wall1", "")
	assert.Equal(t, true, body["known"])
}

func TestMeasurements(t *testing.T) {
	s, session := newTestServer(t, true)

	status, _ := do(t, s, http.MethodPost, "/measurements",
		`{"distanceMeasurement":"d1","points":[[0,0,0],[3,4,0]]}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 1, session.Measurements().Len())

	status, _ = do(t, s, http.MethodPost, "/measurements",
		`{"angleMeasurement":"a1","points":[[0,0,0]]}`)
	assert.Equal(t, http.StatusBadRequest, status)

	req := httptest.NewRequest(http.MethodGet, "/measurements", nil)
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var list []measurementResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "d1", list[0].ID)
	assert.InDelta(t, 5.0, list[0].Value, 1e-9)

	status, _ = do(t, s, http.MethodDelete, "/measurements", `{"distanceMeasurement":"d1"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Zero(t, session.Measurements().Len())
}

func TestSaveAndRestoreView(t *testing.T) {
	s, _ := newTestServer(t, true)

	do(t, s, http.MethodPost, "/isolate/story1", "")
	do(t, s, http.MethodPost, "/pick", `{"id":"wall1"}`)

	status, body := do(t, s, http.MethodPost, "/views/story1", "")
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "story1", body["name"])

	do(t, s, http.MethodPost, "/reset", "")
	assert.Equal(t, false, objectState(t, s, "roof1")["xrayed"])

	status, body = do(t, s, http.MethodPost, "/views/story1/restore", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "story1", body["mode"].(map[string]any)["root"])
	assert.Equal(t, true, objectState(t, s, "roof1")["xrayed"])
	assert.Equal(t, true, objectState(t, s, "wall1")["highlighted"])

	status, _ = do(t, s, http.MethodPost, "/views/missing/restore", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, s, http.MethodDelete, "/views/story1", "")
	assert.Equal(t, http.StatusNoContent, status)
}

func TestRestoreViewAfterReload(t *testing.T) {
	s, session := newTestServer(t, true)

	do(t, s, http.MethodPost, "/isolate/story1", "")
	do(t, s, http.MethodPost, "/highlight/wall2", "")
	status, _ := do(t, s, http.MethodPost, "/views/walls", "")
	require.Equal(t, http.StatusCreated, status)

	// the model file changed and is loaded again
	require.NoError(t, session.Handle(controller.ModelLoaded{Model: houseSpec()}))
	do(t, s, http.MethodPost, "/reset", "")

	status, body := do(t, s, http.MethodPost, "/views/walls/restore", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "story1", body["mode"].(map[string]any)["root"])
	assert.Equal(t, []any{"wall2"}, body["selection"])
	assert.Equal(t, true, objectState(t, s, "wall2")["highlighted"])
	assert.Equal(t, true, objectState(t, s, "roof1")["xrayed"])
}
