package e2e

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/mattjoyce/cakeday/internal/store"
)

const serviceKey = "service-role-key"

// fakePostgREST is an in-memory stand-in for the birthdays and sent_log
// tables. It implements only the filters and preferences the store client
// sends.
type fakePostgREST struct {
	mu        sync.Mutex
	birthdays []store.Birthday
	sentLog   []store.SentLogEntry
	failNext  bool
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("apikey") != serviceKey || r.Header.Get("Authorization") != "Bearer "+serviceKey {
		http.Error(w, `{"message":"invalid api key"}`, http.StatusUnauthorized)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failNext {
		f.failNext = false
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	switch r.URL.Path {
	case "/rest/v1/birthdays":
		f.serveBirthdays(w, r, q)
	case "/rest/v1/sent_log":
		f.serveSentLog(w, r, q)
	default:
		http.NotFound(w, r)
	}
}

// failOnce makes the next request fail with 500.
func (f *fakePostgREST) failOnce() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = true
}

// rows returns a snapshot of the birthdays table.
func (f *fakePostgREST) rows() []store.Birthday {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.Birthday(nil), f.birthdays...)
}

// sent returns a snapshot of the sent_log table.
func (f *fakePostgREST) sent() []store.SentLogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.SentLogEntry(nil), f.sentLog...)
}

func (f *fakePostgREST) serveBirthdays(w http.ResponseWriter, r *http.Request, q url.Values) {
	switch r.Method {
	case http.MethodPost:
		var b store.Birthday
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for i := range f.birthdays {
			if f.birthdays[i].OwnerID == b.OwnerID && f.birthdays[i].Name == b.Name {
				f.birthdays[i] = b
				w.WriteHeader(http.StatusCreated)
				return
			}
		}
		f.birthdays = append(f.birthdays, b)
		w.WriteHeader(http.StatusCreated)

	case http.MethodGet:
		writeJSON(w, bigintRows(f.matching(q)))

	case http.MethodDelete:
		deleted := f.matching(q)
		kept := f.birthdays[:0]
		for _, b := range f.birthdays {
			if !matches(b, q) {
				kept = append(kept, b)
			}
		}
		f.birthdays = kept
		writeJSON(w, bigintRows(deleted))

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakePostgREST) serveSentLog(w http.ResponseWriter, r *http.Request, q url.Values) {
	switch r.Method {
	case http.MethodPost:
		var e store.SentLogEntry
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, existing := range f.sentLog {
			if existing == e {
				w.WriteHeader(http.StatusCreated)
				return
			}
		}
		f.sentLog = append(f.sentLog, e)
		w.WriteHeader(http.StatusCreated)

	case http.MethodGet:
		rows := []map[string]any{}
		for _, e := range f.sentLog {
			if filterValue(q, "owner_user_id") == e.OwnerID && filterValue(q, "yyyymmdd") == e.Date {
				rows = append(rows, map[string]any{"owner_user_id": json.Number(e.OwnerID), "yyyymmdd": e.Date})
			}
		}
		writeJSON(w, rows)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakePostgREST) matching(q url.Values) []store.Birthday {
	rows := []store.Birthday{}
	for _, b := range f.birthdays {
		if matches(b, q) {
			rows = append(rows, b)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].OwnerID < rows[j].OwnerID })
	return rows
}

// bigintRows renders owner_user_id as a JSON number, the way PostgREST
// returns a bigint column.
func bigintRows(rows []store.Birthday) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, b := range rows {
		out = append(out, map[string]any{
			"owner_user_id": json.Number(b.OwnerID),
			"name":          b.Name,
			"month":         b.Month,
			"day":           b.Day,
		})
	}
	return out
}

func matches(b store.Birthday, q url.Values) bool {
	if q.Has("owner_user_id") && filterValue(q, "owner_user_id") != b.OwnerID {
		return false
	}
	if q.Has("name") && filterValue(q, "name") != b.Name {
		return false
	}
	if q.Has("month") && filterValue(q, "month") != strconv.Itoa(b.Month) {
		return false
	}
	if q.Has("day") && filterValue(q, "day") != strconv.Itoa(b.Day) {
		return false
	}
	return true
}

// filterValue decodes an eq filter, unquoting "..." values.
func filterValue(q url.Values, key string) string {
	v := strings.TrimPrefix(q.Get(key), "eq.")
	if len(v) >= 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) {
		v = strings.NewReplacer(`\"`, `"`, `\\`, `\`).Replace(v[1 : len(v)-1])
	}
	return v
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
