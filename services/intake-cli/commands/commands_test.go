package commands

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeguard/platform/services/authentication-service/authapi"
	httpHandler "github.com/tradeguard/platform/services/consignment-service/handler/http"
	"github.com/tradeguard/platform/services/consignment-service/service"
	"github.com/tradeguard/platform/services/consignment-service/store"
	"github.com/tradeguard/platform/shared/kafka"
	"github.com/tradeguard/platform/shared/logging"
	"github.com/tradeguard/platform/shared/middleware"
)

type cli struct {
	api        string
	sessionDir string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := logging.Discard()

	auth, err := authapi.New(context.Background(), authapi.Options{
		Backend: authapi.BackendMemory,
		Secret:  []byte("test-secret"),
		Hash:    authapi.LightHashParams,
		Logger:  logger,
	})
	require.NoError(t, err)
	svc, err := service.NewConsignmentService(store.NewMemoryStore(), kafka.NopPublisher{}, logger)
	require.NoError(t, err)

	r := gin.New()
	middleware.Setup(r, middleware.DefaultConfig("test", logger))
	require.NoError(t, httpHandler.RegisterValidators())
	auth.RegisterRoutes(r.Group("/users"))
	httpHandler.NewConsignmentHandler(svc, logger).RegisterRoutes(r.Group("/consignment"), auth.RequireToken())

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &cli{api: srv.URL, sessionDir: t.TempDir()}
}

func (c *cli) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--api", c.api, "--session-dir", c.sessionDir}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := c.run(t, args...)
	require.NoError(t, err, out)
	return out
}

func (c *cli) login(t *testing.T) {
	t.Helper()
	profile := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(profile, []byte(`
firstName: Ana
lastName: Silva
email: ana@example.com
phoneNumber: "+91 98765 43210"
companyName: Acme Exports
userRole: exporter
primaryCountry: IN
password: correct horse
`), 0o600))

	assert.Contains(t, c.mustRun(t, "register", profile), "Registered ana@example.com")
	out := c.mustRun(t, "login", "--email", "ana@example.com", "--password", "correct horse")
	assert.Contains(t, out, "Logged in as Ana Silva (exporter)")
}

var uuidPattern = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

func TestIntakeToReport(t *testing.T) {
	c := newCLI(t)
	c.login(t)

	assert.Contains(t, c.mustRun(t, "list"), "No consignments found")

	out := c.mustRun(t, "intake", writeAnswers(t, "answers.yaml", hsAnswers))
	assert.Contains(t, out, "Consignment added successfully")
	id := uuidPattern.FindString(out)
	require.NotEmpty(t, id, out)

	out = c.mustRun(t, "submit", writeAnswers(t, "answers.json", categoryAnswers))
	assert.Contains(t, out, "Consignment added successfully")

	out = c.mustRun(t, "list")
	assert.Contains(t, out, id)
	assert.Contains(t, out, "IN -> US")
	assert.Contains(t, out, "6205202066")

	page := filepath.Join(t.TempDir(), "report.html")
	assert.Contains(t, c.mustRun(t, "report", id, "-o", page), "Report written to")
	html, err := os.ReadFile(page)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Compliance Report - IN-US-240315-")
}

func TestHSCodeLookup(t *testing.T) {
	c := newCLI(t)
	c.login(t)

	assert.Equal(t, "62052000\n", c.mustRun(t, "hs-code", "Textiles", "Cotton Shirts", "--dest", "EU"))

	_, err := c.run(t, "hs-code", "Textiles", "Cotton Shirts", "--dest", "FR")
	assert.Error(t, err)
}

func TestScore(t *testing.T) {
	c := newCLI(t)
	answers := writeAnswers(t, "answers.yaml", hsAnswers)

	t.Run("local needs no login", func(t *testing.T) {
		page := filepath.Join(t.TempDir(), "draft.html")
		out := c.mustRun(t, "score", answers, "--report", page)
		assert.Contains(t, out, "Score 100: Compliant (Low risk)")
		assert.FileExists(t, page)
	})

	t.Run("remote needs login", func(t *testing.T) {
		_, err := c.run(t, "score", "--remote", answers)
		assert.ErrorContains(t, err, "not logged in")

		c.login(t)
		out := c.mustRun(t, "score", "--remote", "--json", answers)
		assert.Contains(t, out, `"score": 100`)
	})

	t.Run("bad answers list fields", func(t *testing.T) {
		bad := writeAnswers(t, "bad.yaml", "fields:\n  weight: heavy\n")
		out, err := c.run(t, "score", bad)
		assert.ErrorContains(t, err, "1 field(s) need attention")
		assert.Contains(t, out, "weight:")
	})
}

func TestLogout(t *testing.T) {
	c := newCLI(t)
	c.login(t)

	assert.Contains(t, c.mustRun(t, "logout"), "Logged out")
	_, err := c.run(t, "list")
	assert.ErrorContains(t, err, "not logged in")

	_, err = c.run(t, "login", "--email", "ana@example.com", "--password", "wrong")
	assert.ErrorContains(t, err, "Invalid credentials")
}
