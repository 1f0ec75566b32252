package e2e

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/cakeday/internal/dispatch"
	"github.com/mattjoyce/cakeday/internal/interaction"
	"github.com/mattjoyce/cakeday/internal/signature"
	"github.com/mattjoyce/cakeday/internal/store"
	"github.com/mattjoyce/cakeday/internal/webhook"
)

type harness struct {
	t        *testing.T
	endpoint string
	priv     ed25519.PrivateKey
	db       *fakePostgREST
	client   *http.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := &fakePostgREST{}
	restSrv := httptest.NewServer(db)
	t.Cleanup(restSrv.Close)

	st, err := store.New(store.Config{URL: restSrv.URL, ServiceKey: serviceKey}, store.WithHTTPClient(restSrv.Client()))
	require.NoError(t, err)

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	verifier, err := signature.NewVerifier(hex.EncodeToString(pub))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := webhook.New(webhook.Config{}, verifier, dispatch.New(st, logger), logger)

	appSrv := httptest.NewServer(server.Handler())
	t.Cleanup(appSrv.Close)

	return &harness{
		t:        t,
		endpoint: appSrv.URL + webhook.DefaultPath,
		priv:     priv,
		db:       db,
		client:   appSrv.Client(),
	}
}

// post signs body with the application key and sends it.
func (h *harness) post(body string) (int, []byte) {
	h.t.Helper()
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req, err := http.NewRequest(http.MethodPost, h.endpoint, bytes.NewBufferString(body))
	require.NoError(h.t, err)
	req.Header.Set(signature.HeaderSignature, signature.Sign(h.priv, ts, []byte(body)))
	req.Header.Set(signature.HeaderTimestamp, ts)

	resp, err := h.client.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return resp.StatusCode, data
}

// command sends a DM slash command and returns the reply.
func (h *harness) command(caller, name string, options ...interaction.Option) interaction.Reply {
	h.t.Helper()

	type option struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	opts := make([]option, 0, len(options))
	for _, o := range options {
		opts = append(opts, option{Name: o.Name, Value: o.Value})
	}
	payload := map[string]any{
		"id":   "1",
		"type": 2,
		"user": map[string]any{"id": caller},
		"data": map[string]any{"name": name, "options": opts},
	}
	body, err := json.Marshal(payload)
	require.NoError(h.t, err)

	status, data := h.post(string(body))
	require.Equal(h.t, http.StatusOK, status, string(data))

	var reply interaction.Reply
	require.NoError(h.t, json.Unmarshal(data, &reply))
	require.Equal(h.t, interaction.ResponseChannelMessage, reply.Type)
	return reply
}

func opt(name, value string) interaction.Option {
	return interaction.Option{Name: name, Value: value}
}

func TestInteractions_Ping(t *testing.T) {
	h := newHarness(t)

	status, body := h.post(`{"id":"1","type":1}`)

	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"type":1}`, string(body))
}

func TestInteractions_BirthdayLifecycle(t *testing.T) {
	h := newHarness(t)

	reply := h.command("42", "list")
	assert.Equal(t, "No birthdays saved.", reply.Content())

	reply = h.command("42", "add", opt("name", "Alice"), opt("birthday", "02/29"))
	assert.Equal(t, "Saved Alice's birthday as 02/29.", reply.Content())
	assert.False(t, reply.Ephemeral())

	reply = h.command("42", "add", opt("name", "Bob"), opt("birthday", "12/31"))
	assert.Equal(t, "Saved Bob's birthday as 12/31.", reply.Content())

	// Re-adding a name replaces the date.
	reply = h.command("42", "add", opt("name", "Alice"), opt("birthday", "03/01"))
	assert.Equal(t, "Saved Alice's birthday as 03/01.", reply.Content())

	// Another user's records stay separate.
	h.command("7", "add", opt("name", "Carol"), opt("birthday", "01/01"))

	reply = h.command("42", "list")
	assert.Equal(t, "Your saved birthdays:\nAlice: 03/01\nBob: 12/31", reply.Content())

	reply = h.command("42", "remove", opt("name", "Alice"))
	assert.Equal(t, "Removed Alice's birthday.", reply.Content())

	reply = h.command("42", "remove", opt("name", "Alice"))
	assert.Equal(t, "No birthday found for Alice.", reply.Content())

	reply = h.command("42", "list")
	assert.Equal(t, "Your saved birthdays:\nBob: 12/31", reply.Content())

	reply = h.command("7", "list")
	assert.Equal(t, "Your saved birthdays:\nCarol: 01/01", reply.Content())
}

func TestInteractions_NamesWithReservedCharacters(t *testing.T) {
	h := newHarness(t)

	name := `Dr. "J", (Jr.)`
	h.command("42", "add", opt("name", name), opt("birthday", "07/04"))

	reply := h.command("42", "remove", opt("name", name))
	assert.Equal(t, "Removed "+name+"'s birthday.", reply.Content())
	assert.Empty(t, h.db.rows())
}

func TestInteractions_ValidationNeverReachesStore(t *testing.T) {
	h := newHarness(t)

	reply := h.command("42", "add", opt("name", "Alice"), opt("birthday", "02/30"))
	assert.Equal(t, "Invalid day for the given month.", reply.Content())

	reply = h.command("42", "add", opt("name", "Alice"), opt("birthday", "2/3"))
	assert.Equal(t, "Birthday must be in MM/DD format (example: 12/31).", reply.Content())

	reply = h.command("42", "add", opt("birthday", "02/03"))
	assert.Equal(t, "Missing name. Usage: /add <name> <birthday>", reply.Content())

	assert.Empty(t, h.db.rows())
}

func TestInteractions_GuildInvocationIsRedirected(t *testing.T) {
	h := newHarness(t)

	status, body := h.post(`{"type":2,"guild_id":"99","member":{"user":{"id":"42"}},"data":{"name":"add","options":[{"name":"name","value":"Alice"},{"name":"birthday","value":"02/29"}]}}`)
	require.Equal(t, http.StatusOK, status)

	var reply interaction.Reply
	require.NoError(t, json.Unmarshal(body, &reply))
	assert.Equal(t, "Please DM me to use this.", reply.Content())
	assert.True(t, reply.Ephemeral())
	assert.Empty(t, h.db.rows())
}

func TestInteractions_StoreFailure(t *testing.T) {
	h := newHarness(t)
	h.db.failOnce()

	reply := h.command("42", "list")
	assert.Equal(t, "Failed to fetch birthdays. Please try again.", reply.Content())
}

func TestInteractions_ForgedRequestIsRejected(t *testing.T) {
	h := newHarness(t)

	_, other, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	body := `{"type":2,"user":{"id":"42"},"data":{"name":"remove","options":[{"name":"name","value":"Alice"}]}}`
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req, err := http.NewRequest(http.MethodPost, h.endpoint, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set(signature.HeaderSignature, signature.Sign(other, ts, []byte(body)))
	req.Header.Set(signature.HeaderTimestamp, ts)

	resp, err := h.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
