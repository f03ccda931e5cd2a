// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/scanvote/cliparse"
	"github.com/danielhkuo/scanvote/db"
	"github.com/danielhkuo/scanvote/models"
	"github.com/danielhkuo/scanvote/store"
)

// TestSessionSecret signs session tokens in tests
const TestSessionSecret = "test-session-secret"

// SetupTestDB creates a fresh SQLite database file with the full schema.
// The file lives in t.TempDir() and is removed after the test.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := db.Open(ctx, db.SQLite, filepath.Join(t.TempDir(), "scanvote.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn, db.SQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// SetupTestStore wraps SetupTestDB in a Store
func SetupTestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(SetupTestDB(t), db.SQLite, 5*time.Second)
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3318,
		DatabaseURL:   "file::memory:",
		DatabaseType:  db.SQLite,
		SessionSecret: TestSessionSecret,
		BaseURL:       "http://scanvote.test",
		StoreTimeout:  5 * time.Second,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// Clock is a manually advanced time source, safe for concurrent use
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start.UTC().Truncate(time.Microsecond)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// CreateTestProfile inserts a profile and returns it
func CreateTestProfile(t *testing.T, st *store.Store, email string) models.Profile {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	p := models.Profile{
		ID:        uuid.NewString(),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := st.InTx(context.Background(), func(q *store.Queries) error {
		return q.InsertProfile(context.Background(), p)
	})
	if err != nil {
		t.Fatalf("Failed to create test profile: %v", err)
	}

	return p
}

// TestPoll describes a poll fixture
type TestPoll struct {
	Title              string
	CreatorID          string
	Visibility         string
	AllowMultipleVotes bool
	ExpiresAt          *time.Time
	CreatedAt          time.Time
	Options            []string
}

// CreateTestPoll inserts a poll with its options directly, without access
// tokens. It returns the poll and the option ids in display order.
func CreateTestPoll(t *testing.T, st *store.Store, tp TestPoll) (models.Poll, []string) {
	t.Helper()

	if tp.Title == "" {
		tp.Title = "Test Poll"
	}
	if tp.CreatorID == "" {
		tp.CreatorID = "creator-1"
	}
	if tp.Visibility == "" {
		tp.Visibility = models.VisibilityPublic
	}
	if tp.CreatedAt.IsZero() {
		tp.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}
	if len(tp.Options) == 0 {
		tp.Options = []string{"A", "B"}
	}

	poll := models.Poll{
		ID:                 uuid.NewString(),
		Title:              tp.Title,
		CreatorID:          tp.CreatorID,
		Visibility:         tp.Visibility,
		AllowMultipleVotes: tp.AllowMultipleVotes,
		ExpiresAt:          tp.ExpiresAt,
		CreatedAt:          tp.CreatedAt,
		UpdatedAt:          tp.CreatedAt,
	}

	var optionIDs []string
	ctx := context.Background()
	err := st.InTx(ctx, func(q *store.Queries) error {
		if err := q.InsertPoll(ctx, poll); err != nil {
			return err
		}
		for i, label := range tp.Options {
			opt := models.PollOption{
				ID:         uuid.NewString(),
				PollID:     poll.ID,
				Label:      label,
				OrderIndex: i,
				CreatedAt:  tp.CreatedAt,
			}
			if err := q.InsertOption(ctx, opt); err != nil {
				return err
			}
			optionIDs = append(optionIDs, opt.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	return poll, optionIDs
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
