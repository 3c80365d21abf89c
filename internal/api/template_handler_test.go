package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvforge/internal/database"
	"cvforge/internal/storage"
	"cvforge/internal/tasks"
)

func TestListTemplates(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.db.Create(&database.TemplatePreview{
		Template:  "modern",
		Kind:      "cv",
		ObjectKey: storage.TemplatePreviewKey("cv", "modern"),
	}).Error)

	w := s.do(http.MethodGet, "/v1/templates", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Items []struct {
			Name         string `json:"name"`
			Layout       string `json:"layout"`
			ThumbnailURL string `json:"thumbnailUrl"`
		} `json:"items"`
	}](t, w)
	require.Len(t, list.Items, 9)

	thumbs := map[string]string{}
	for _, item := range list.Items {
		thumbs[item.Name] = item.ThumbnailURL
	}
	assert.NotEmpty(t, thumbs["modern"])
	assert.Empty(t, thumbs["classic"])

	w = s.do(http.MethodGet, "/v1/templates?type=resume", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreviewTemplate(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/v1/templates/executive/preview?type=cover-letter&locale=fr", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[renderedBody](t, w)
	assert.NotEmpty(t, body.HTML)
	assert.Equal(t, "preview", body.Mode)

	w = s.do(http.MethodGet, "/v1/templates/baroque/preview", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegenerateThumbnail(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.createUser("root", database.RoleAdmin)

	w := s.do(http.MethodPost, "/v1/admin/templates/modern/thumbnail", adminToken, nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	require.Len(t, s.queue.tasks, 2)
	for _, task := range s.queue.tasks {
		assert.Equal(t, tasks.TypeTemplatePreview, task.Type())
	}

	w = s.do(http.MethodPost, "/v1/admin/templates/modern/thumbnail?type=cv", adminToken, nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Len(t, s.queue.tasks, 3)

	w = s.do(http.MethodPost, "/v1/admin/templates/baroque/thumbnail", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyticsRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	_, userToken := s.createUser("alice", database.RoleUser)
	_, adminToken := s.createUser("root", database.RoleAdmin)

	w := s.do(http.MethodGet, "/v1/analytics/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/v1/analytics/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/v1/analytics/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decode[map[string]any](t, w)
	assert.EqualValues(t, 2, report["total"])

	w = s.do(http.MethodGet, "/v1/analytics/weather", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
