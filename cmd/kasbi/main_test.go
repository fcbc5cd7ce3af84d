package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"kasbi-client/internal/config"
	"kasbi-client/internal/pkg/httpclient"
	"kasbi-client/internal/route"
	"kasbi-client/internal/service"
	"kasbi-client/internal/testutil/fakeapi"

	"github.com/alicebob/miniredis/v2"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cli struct {
	t   *testing.T
	cfg *config.Config
}

func newCLI(t *testing.T, api *fakeapi.Server) *cli {
	color.NoColor = true
	dir := t.TempDir()
	return &cli{t: t, cfg: &config.Config{
		App:     config.AppConfig{Environment: "test", LogFilePath: filepath.Join(dir, "kasbi.log")},
		API:     config.APIConfig{BaseURL: api.URL, Timeout: 5 * time.Second},
		Storage: config.StorageConfig{Driver: "file", TokenFilePath: filepath.Join(dir, "session.json")},
		Admin:   config.AdminConfig{DocumentPollInterval: 20 * time.Millisecond, PageSize: 10},
	}}
}

// run executes one process worth of kasbi, sharing the session file with
// every other run of the same cli.
func (c *cli) run(stdin string, args ...string) (string, error) {
	c.t.Helper()
	cfg := *c.cfg
	cmd, release := newRootCmd(func() *config.Config { return &cfg })

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	require.NoError(c.t, release(context.Background()))
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run("", args...)
	require.NoError(c.t, err, out)
	return out
}

func TestLoginWhoamiLogout(t *testing.T) {
	api := fakeapi.New(t)
	c := newCLI(t, api)

	out := c.mustRun("login", "--username", "admin1", "--password", fakeapi.DefaultPassword)
	assert.Contains(t, out, "Selamat datang, admin1 (superadmin)")
	assert.Contains(t, out, "-> /admin")

	out = c.mustRun("whoami")
	assert.Contains(t, out, "admin1")
	assert.Contains(t, out, route.ManageAdminsLabel)

	c.mustRun("logout")
	assert.Equal(t, 1, api.Hits("POST", "/v1/auth/logout"))

	out, err := c.run("", "whoami")
	assert.Error(t, err)
	assert.Contains(t, out, "Belum login.")
}

func TestWhoamiHidesManageAdminsFromAdmin(t *testing.T) {
	api := fakeapi.New(t)
	c := newCLI(t, api)

	c.mustRun("login", "--email", "admin@kasbi.id", "--password", fakeapi.DefaultPassword)
	out := c.mustRun("whoami")
	assert.Contains(t, out, "Manajemen Dokumen")
	assert.NotContains(t, out, route.ManageAdminsLabel)
}

func TestLoginPromptsForMissingCredentials(t *testing.T) {
	api := fakeapi.New(t)
	c := newCLI(t, api)

	out, err := c.run("budi\n"+fakeapi.DefaultPassword+"\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Selamat datang, budi (user)")
	assert.Contains(t, out, "-> /chatbot")
}

func TestLoginWrongPassword(t *testing.T) {
	api := fakeapi.New(t)
	c := newCLI(t, api)

	_, err := c.run("", "login", "-u", "budi", "-p", "wrong-password")
	require.Error(t, err)
	assert.Equal(t, "Email atau password salah", httpclient.UserMessage(err, ""))
}

func TestCorruptSessionFileStillAllowsLogin(t *testing.T) {
	api := fakeapi.New(t)
	c := newCLI(t, api)
	require.NoError(t, os.WriteFile(c.cfg.Storage.TokenFilePath, []byte("{not json"), 0o600))

	out, err := c.run("", "whoami")
	assert.Error(t, err)
	assert.Contains(t, out, "Belum login.")

	out = c.mustRun("login", "-u", "admin1", "-p", fakeapi.DefaultPassword)
	assert.Contains(t, out, "Selamat datang, admin1 (superadmin)")

	out = c.mustRun("whoami")
	assert.Contains(t, out, route.ManageAdminsLabel)
}

func TestFailedCommandReleasesStore(t *testing.T) {
	api := fakeapi.New(t)
	mr := miniredis.RunT(t)
	c := newCLI(t, api)
	c.cfg.Storage = config.StorageConfig{Driver: "redis", RedisURL: "redis://" + mr.Addr(), RedisKeyPrefix: "kasbi:"}

	_, err := c.run("", "chat", "halo")
	assert.ErrorIs(t, err, route.ErrAccessDenied)
	assert.Eventually(t, func() bool { return mr.CurrentConnectionCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestVerboseMirrorsLogFile(t *testing.T) {
	api := fakeapi.New(t)
	c := newCLI(t, api)

	c.mustRun("--verbose", "login", "-u", "budi", "-p", fakeapi.DefaultPassword)
	data, err := os.ReadFile(c.cfg.App.LogFilePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Container ready")
}

func TestChatRequiresLogin(t *testing.T) {
	api := fakeapi.New(t)
	c := newCLI(t, api)

	out, err := c.run("", "chat", "halo")
	assert.ErrorIs(t, err, route.ErrAccessDenied)
	assert.Contains(t, out, "Silakan login")
	assert.Zero(t, api.Hits("POST", "/v1/chatbot/query"))
}

func TestChatKeepsThreadAcrossRuns(t *testing.T) {
	api := fakeapi.New(t)
	c := newCLI(t, api)
	c.mustRun("login", "-u", "budi", "-p", fakeapi.DefaultPassword)

	out := c.mustRun("chat", "Apa", "itu", "BPMP", "Papua?")
	assert.Contains(t, out, "KASBI: Jawaban untuk: Apa itu BPMP Papua?")

	out = c.mustRun("chat", "Terima kasih")
	assert.Contains(t, out, "Jawaban untuk: Terima kasih")
	assert.Equal(t, 1, api.ThreadCount())

	out = c.mustRun("history")
	assert.Contains(t, out, "Anda: Apa itu BPMP Papua?")
	assert.Contains(t, out, "Anda: Terima kasih")

	c.mustRun("chat", "--new", "Pertanyaan baru")
	assert.Equal(t, 2, api.ThreadCount())

	out = c.mustRun("threads")
	assert.Contains(t, out, "* 2")
}

func TestChatInteractive(t *testing.T) {
	api := fakeapi.New(t)
	c := newCLI(t, api)
	c.mustRun("login", "-u", "budi", "-p", fakeapi.DefaultPassword)

	out, err := c.run("/1\n\nhalo\n/new\n/9\n/quit\n", "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "Jawaban untuk: Apa itu BPMP Papua?")
	assert.Contains(t, out, "Jawaban untuk: halo")
	assert.Contains(t, out, "Perintah tidak dikenal: /9")
	assert.Equal(t, 1, api.ThreadCount())
}

func TestChatBlankMessagePrintsNoReply(t *testing.T) {
	api := fakeapi.New(t)
	c := newCLI(t, api)
	c.mustRun("login", "-u", "budi", "-p", fakeapi.DefaultPassword)

	out, err := c.run("", "chat", "   ")
	assert.ErrorIs(t, err, service.ErrEmptyMessage)
	assert.NotContains(t, out, "KASBI:")
	assert.Zero(t, api.Hits("POST", "/v1/chatbot/query"))
}

func TestChatSessionExpired(t *testing.T) {
	api := fakeapi.New(t)
	c := newCLI(t, api)
	c.mustRun("login", "-u", "budi", "-p", fakeapi.DefaultPassword)

	api.ExpireAccessTokens()
	api.RejectRefresh(true)

	out, err := c.run("", "chat", "halo")
	assert.ErrorIs(t, err, httpclient.ErrSessionExpired)
	assert.Contains(t, out, "Sesi Anda telah berakhir")

	_, err = c.run("", "whoami")
	assert.Error(t, err)
}

func TestDocsForbiddenForUsers(t *testing.T) {
	api := fakeapi.New(t)
	c := newCLI(t, api)
	c.mustRun("login", "-u", "budi", "-p", fakeapi.DefaultPassword)

	_, err := c.run("", "docs", "list")
	assert.ErrorIs(t, err, route.ErrAccessDenied)
	assert.Zero(t, api.Hits("GET", "/v1/admin/documents"))
}

func TestDocsUploadListDelete(t *testing.T) {
	api := fakeapi.New(t)
	c := newCLI(t, api)
	c.mustRun("login", "-u", "admin", "-p", fakeapi.DefaultPassword)

	id := api.AddDocument("pedoman.pdf", "admin1", "done", 0)

	file := filepath.Join(t.TempDir(), "laporan.pdf")
	require.NoError(t, os.WriteFile(file, []byte("%PDF-1.4"), 0o644))
	out := c.mustRun("docs", "upload", file)
	assert.Contains(t, out, "laporan.pdf diunggah")

	out = c.mustRun("docs", "list", "--search", "LAPORAN")
	assert.Contains(t, out, "laporan.pdf")
	assert.NotContains(t, out, "pedoman.pdf")
	assert.Contains(t, out, "Total 2")

	out = c.mustRun("docs", "watch")
	assert.Contains(t, out, "diproses 0")

	out, err := c.run("n\n", "docs", "delete", strconv.Itoa(id))
	require.NoError(t, err)
	assert.Contains(t, out, `Hapus dokumen "pedoman.pdf"?`)
	assert.Contains(t, out, "Dibatalkan.")
	_, exists := api.DocumentStatus(id)
	assert.True(t, exists)

	out = c.mustRun("docs", "delete", "-y", strconv.Itoa(id))
	assert.Contains(t, out, "pedoman.pdf dihapus.")
	_, exists = api.DocumentStatus(id)
	assert.False(t, exists)
}

func TestAdminsManagedBySuperadminOnly(t *testing.T) {
	api := fakeapi.New(t)
	c := newCLI(t, api)

	c.mustRun("login", "-u", "admin", "-p", fakeapi.DefaultPassword)
	out := c.mustRun("admins", "list")
	assert.Contains(t, out, "admin1")
	assert.NotContains(t, out, "budi")

	_, err := c.run("", "admins", "create", "-u", "siti", "--email", "siti@kasbi.id", "-p", "rahasia123")
	assert.ErrorIs(t, err, route.ErrAccessDenied)
	assert.False(t, api.HasUser("siti"))

	c.mustRun("logout")
	c.mustRun("login", "-u", "admin1", "-p", fakeapi.DefaultPassword)

	c.mustRun("admins", "create", "-u", "siti", "--email", "siti@kasbi.id", "-p", "rahasia123")
	assert.True(t, api.HasUser("siti"))

	out = c.mustRun("admins", "list", "--search", "SITI")
	assert.Contains(t, out, "siti@kasbi.id")

	out = c.mustRun("admins", "delete", "--yes", "siti")
	assert.Contains(t, out, "Admin siti dihapus.")
	assert.False(t, api.HasUser("siti"))
}
