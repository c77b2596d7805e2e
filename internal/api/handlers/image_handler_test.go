package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicpulse/reporter/backend/internal/api/handlers"
	"github.com/civicpulse/reporter/backend/internal/domain/entities"
)

type stubImageStore struct {
	name        string
	contentType string
	body        []byte
}

func (s *stubImageStore) Put(ctx context.Context, name, contentType string, body io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.name, s.contentType, s.body = name, contentType, data
	return "images/abc.png", nil
}

func imageRequest(t *testing.T, contentType string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="pothole.png"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/images", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestImageHandler_Upload(t *testing.T) {
	store := &stubImageStore{}
	handler := handlers.NewImageHandler(store)

	w := httptest.NewRecorder()
	handler.Upload(w, withSession(imageRequest(t, "image/png"), testSession(entities.RoleCitizen)))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "images/abc.png", resp["image_ref"])
	assert.Equal(t, "pothole.png", store.name)
	assert.Equal(t, "image/png", store.contentType)
	assert.Equal(t, []byte("png-bytes"), store.body)
}

func TestImageHandler_RequiresSession(t *testing.T) {
	handler := handlers.NewImageHandler(&stubImageStore{})

	w := httptest.NewRecorder()
	handler.Upload(w, imageRequest(t, "image/png"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestImageHandler_RejectsNonImage(t *testing.T) {
	handler := handlers.NewImageHandler(&stubImageStore{})

	w := httptest.NewRecorder()
	handler.Upload(w, withSession(imageRequest(t, "text/plain"), testSession(entities.RoleCitizen)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
