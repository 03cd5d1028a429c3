// Package dbtest opens throwaway SQLite databases with the service schema so
// store, service and handler tests run without a Postgres instance.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/db"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/model"
)

// schema mirrors migrations/*.up.sql in SQLite syntax.
const schema = `
CREATE TABLE guardians (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    email           TEXT NOT NULL UNIQUE,
    hashed_password TEXT NOT NULL,
    name            TEXT,
    created_at      TIMESTAMP NOT NULL,
    updated_at      TIMESTAMP NOT NULL
);

CREATE TABLE children (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    guardian_id INTEGER NOT NULL REFERENCES guardians(id) ON DELETE CASCADE,
    name        TEXT NOT NULL,
    created_at  TIMESTAMP NOT NULL,
    updated_at  TIMESTAMP NOT NULL
);

CREATE TABLE approved_items (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    guardian_id      INTEGER NOT NULL REFERENCES guardians(id) ON DELETE CASCADE,
    video_id         TEXT NOT NULL,
    title            TEXT NOT NULL,
    thumbnail_url    TEXT,
    duration_seconds INTEGER,
    created_at       TIMESTAMP NOT NULL
);

CREATE TABLE schedule_records (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    child_id         INTEGER NOT NULL REFERENCES children(id) ON DELETE CASCADE,
    approved_item_id INTEGER NOT NULL REFERENCES approved_items(id) ON DELETE CASCADE,
    scheduled_date   DATE NOT NULL,
    original_date    DATE NOT NULL,
    is_active        BOOLEAN NOT NULL DEFAULT TRUE,
    is_watched       BOOLEAN NOT NULL DEFAULT FALSE,
    watched_at       TIMESTAMP,
    carried_over     BOOLEAN NOT NULL DEFAULT FALSE,
    created_at       TIMESTAMP NOT NULL,
    updated_at       TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX ux_schedule_records_active
    ON schedule_records (child_id, approved_item_id, scheduled_date)
    WHERE is_active;

CREATE TABLE carryover_watermarks (
    child_id       INTEGER PRIMARY KEY REFERENCES children(id) ON DELETE CASCADE,
    closed_through DATE NOT NULL,
    trigger_name   TEXT NOT NULL,
    updated_at     TIMESTAMP NOT NULL
);
`

var seq atomic.Int64

// Open returns a fresh in-memory database with the schema applied. It is
// closed when the test ends.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:kidcurate_%d?mode=memory&cache=shared", seq.Add(1))
	conn, err := sqlx.Open("sqlite", dsn)
	require.NoError(t, err)
	// one connection keeps the in-memory database alive and serializes
	// writers the way a single Postgres row lock would
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	_, err = conn.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)
	_, err = conn.Exec(schema)
	require.NoError(t, err)
	return conn
}

// NewStore opens a database and wraps it in a db.Store.
func NewStore(t testing.TB) db.Store {
	t.Helper()
	return db.NewStore(Open(t))
}

// Fixture seeds one guardian with children and approved items.
type Fixture struct {
	Store    db.Store
	Guardian int
	Children []model.Child
	Items    []model.ApprovedItem
}

// Seed creates a guardian owning the given number of children and items.
func Seed(t testing.TB, store db.Store, email string, children, items int) Fixture {
	t.Helper()
	gid, err := store.CreateGuardian(email, "hashed", nil)
	require.NoError(t, err)

	f := Fixture{Store: store, Guardian: gid}
	for i := 0; i < children; i++ {
		c, err := store.CreateChild(gid, fmt.Sprintf("child-%d", i+1))
		require.NoError(t, err)
		f.Children = append(f.Children, c)
	}
	for i := 0; i < items; i++ {
		dur := 60 * (i + 1)
		it, err := store.CreateApprovedItem(model.ApprovedItem{
			GuardianID:      gid,
			VideoID:         fmt.Sprintf("vid-%d-%d", gid, i+1),
			Title:           fmt.Sprintf("Video %d", i+1),
			DurationSeconds: &dur,
		})
		require.NoError(t, err)
		f.Items = append(f.Items, it)
	}
	return f
}

// FixedClock returns a clock that reads t until advanced.
type FixedClock struct {
	now atomic.Int64
}

func NewFixedClock(t time.Time) *FixedClock {
	c := &FixedClock{}
	c.Set(t)
	return c
}

func (c *FixedClock) Now() time.Time {
	return time.Unix(0, c.now.Load()).UTC()
}

func (c *FixedClock) Set(t time.Time) {
	c.now.Store(t.UnixNano())
}

func (c *FixedClock) Advance(d time.Duration) {
	c.now.Add(int64(d))
}
