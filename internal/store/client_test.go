package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "service-key"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{URL: srv.URL + "/", ServiceKey: testKey})
	require.NoError(t, err)
	return c
}

func assertAuth(t *testing.T, r *http.Request) {
	t.Helper()
	assert.Equal(t, testKey, r.Header.Get("apikey"))
	assert.Equal(t, "Bearer "+testKey, r.Header.Get("Authorization"))
}

func TestUpsert(t *testing.T) {
	var got Birthday
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assertAuth(t, r)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/birthdays", r.URL.Path)
		assert.Equal(t, "owner_user_id,name", r.URL.Query().Get("on_conflict"))
		assert.Equal(t, "resolution=merge-duplicates,return=minimal", r.Header.Get("Prefer"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusCreated)
	})

	err := c.Upsert(context.Background(), Birthday{OwnerID: "42", Name: "Alice", Month: 2, Day: 29})
	require.NoError(t, err)
	assert.Equal(t, Birthday{OwnerID: "42", Name: "Alice", Month: 2, Day: 29}, got)
}

func TestUpsert_Failure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"boom"}`, http.StatusConflict)
	})

	err := c.Upsert(context.Background(), Birthday{OwnerID: "42", Name: "Alice", Month: 2, Day: 29})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestListFor(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assertAuth(t, r)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "name,month,day", r.URL.Query().Get("select"))
		assert.Equal(t, `eq."42"`, r.URL.Query().Get("owner_user_id"))
		_, _ = w.Write([]byte(`[{"name":"Bob","month":5,"day":10},{"name":"Alice","month":2,"day":29}]`))
	})

	rows, err := c.ListFor(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, []Birthday{
		{OwnerID: "42", Name: "Bob", Month: 5, Day: 10},
		{OwnerID: "42", Name: "Alice", Month: 2, Day: 29},
	}, rows)
}

func TestListFor_Empty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	rows, err := c.ListFor(context.Background(), "42")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestListFor_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.ListFor(context.Background(), "42")
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestRemoveByName(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     int
	}{
		{name: "not found", response: `[]`, want: 0},
		{name: "one row", response: `[{"name":"Alice"}]`, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assertAuth(t, r)
				assert.Equal(t, http.MethodDelete, r.Method)
				assert.Equal(t, `eq."42"`, r.URL.Query().Get("owner_user_id"))
				assert.Equal(t, `eq."Alice, Jr. \"AJ\""`, r.URL.Query().Get("name"))
				assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
				_, _ = w.Write([]byte(tt.response))
			})

			n, err := c.RemoveByName(context.Background(), "42", `Alice, Jr. "AJ"`)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestRemoveByName_Failure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	n, err := c.RemoveByName(context.Background(), "42", "Alice")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Zero(t, n)
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(Config{URL: url, ServiceKey: testKey, Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.ListFor(context.Background(), "42")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c, err := New(Config{URL: srv.URL, ServiceKey: testKey, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	err = c.Upsert(context.Background(), Birthday{OwnerID: "1", Name: "x", Month: 1, Day: 1})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestReminderQueries(t *testing.T) {
	var recorded SentLogEntry
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/rest/v1/birthdays":
			assert.Equal(t, "eq.3", r.URL.Query().Get("month"))
			assert.Equal(t, "eq.14", r.URL.Query().Get("day"))
			_, _ = w.Write([]byte(`[{"owner_user_id":"7","name":"Pi","month":3,"day":14}]`))
		case r.Method == http.MethodGet && r.URL.Path == "/rest/v1/sent_log":
			assert.Equal(t, `eq."20260314"`, r.URL.Query().Get("yyyymmdd"))
			if r.URL.Query().Get("owner_user_id") == `eq."7"` {
				_, _ = w.Write([]byte(`[{"owner_user_id":"7","yyyymmdd":"20260314"}]`))
				return
			}
			_, _ = w.Write([]byte(`[]`))
		case r.Method == http.MethodPost && r.URL.Path == "/rest/v1/sent_log":
			assert.Equal(t, "owner_user_id,yyyymmdd", r.URL.Query().Get("on_conflict"))
			body, _ := io.ReadAll(r.Body)
			assert.NoError(t, json.Unmarshal(body, &recorded))
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	rows, err := c.BirthdaysOn(ctx, 3, 14)
	require.NoError(t, err)
	assert.Equal(t, []Birthday{{OwnerID: "7", Name: "Pi", Month: 3, Day: 14}}, rows)

	sent, err := c.ReminderSent(ctx, "7", "20260314")
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = c.ReminderSent(ctx, "8", "20260314")
	require.NoError(t, err)
	assert.False(t, sent)

	require.NoError(t, c.RecordReminder(ctx, "8", "20260314"))
	assert.Equal(t, SentLogEntry{OwnerID: "8", Date: "20260314"}, recorded)
}

func TestBirthdaysOn_NumericOwnerID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"owner_user_id":123456789012345678,"name":"Pi","month":3,"day":14},
			{"owner_user_id":"42","name":"Tau","month":3,"day":14}
		]`))
	})

	rows, err := c.BirthdaysOn(context.Background(), 3, 14)
	require.NoError(t, err)
	assert.Equal(t, []Birthday{
		{OwnerID: "123456789012345678", Name: "Pi", Month: 3, Day: 14},
		{OwnerID: "42", Name: "Tau", Month: 3, Day: 14},
	}, rows)
}

func TestBirthdaysOn_InvalidOwnerID(t *testing.T) {
	for _, owner := range []string{`1.5`, `true`, `{"id":1}`} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"owner_user_id":` + owner + `,"name":"Pi","month":3,"day":14}]`))
		})

		_, err := c.BirthdaysOn(context.Background(), 3, 14)
		assert.ErrorIs(t, err, ErrUnavailable, "owner %s", owner)
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{ServiceKey: testKey})
	assert.Error(t, err)

	_, err = New(Config{URL: "ftp://example.com", ServiceKey: testKey})
	assert.Error(t, err)

	_, err = New(Config{URL: "https://example.supabase.co"})
	assert.Error(t, err)

	c, err := New(Config{URL: "https://example.supabase.co", ServiceKey: testKey})
	require.NoError(t, err)
	assert.Equal(t, DefaultTable, c.table)
	assert.Equal(t, DefaultSentLogTable, c.sentLog)
	assert.Equal(t, DefaultTimeout, c.http.Timeout)
}
