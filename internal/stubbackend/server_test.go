package stubbackend

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dhruv3sood/finq/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartRequest(t *testing.T, path string, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for field, name := range files {
		fw, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("Total Assets,1250000\nTotal Liabilities,490000"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestRAGUploadRequiresBalanceSheet(t *testing.T) {
	srv := New(Config{}, logger.NewNopLogger())

	resp, err := srv.App().Test(multipartRequest(t, "/api/rag/upload", map[string]string{"company_profile": "p.txt"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Balance sheet file is required", body["error"])
}

func TestPPTUploadReportsEveryError(t *testing.T) {
	srv := New(Config{}, logger.NewNopLogger())

	resp, err := srv.App().Test(multipartRequest(t, "/api/ppt/upload", map[string]string{"balance_sheet": "bs.exe"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Len(t, body["errors"], 2)
}

func TestOverrideAndRestore(t *testing.T) {
	srv := New(Config{}, logger.NewNopLogger())
	srv.Override(RouteHealth, func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down"})
	})

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	srv.Override(RouteHealth, nil)
	resp, err = srv.App().Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestDownloadBeforeGenerate(t *testing.T) {
	srv := New(Config{}, logger.NewNopLogger())

	resp, err := srv.App().Test(multipartRequest(t, "/api/ppt/upload", map[string]string{
		"balance_sheet":   "bs.csv",
		"company_profile": "cp.txt",
	}))
	require.NoError(t, err)
	id := decode(t, resp)["session_id"].(string)

	resp, err = srv.App().Test(httptest.NewRequest(http.MethodGet, "/api/ppt/download/"+id, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Presentation not generated yet", decode(t, resp)["error"])
}
