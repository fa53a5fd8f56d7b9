package lifecycle

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"
)

var testSchema = []string{
	`CREATE TABLE users (
    id TEXT NOT NULL PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    name TEXT,
    email TEXT,
    attributes TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`,
	`CREATE TABLE "groups" (
    id TEXT NOT NULL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`,
	`CREATE TABLE user_groups (
    user_id TEXT NOT NULL,
    group_id TEXT NOT NULL,
    PRIMARY KEY (user_id, group_id)
);`,
	`CREATE TABLE applications (
    id TEXT NOT NULL PRIMARY KEY,
    name TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`,
	`CREATE TABLE sessions (
    session_key TEXT NOT NULL PRIMARY KEY,
    expiring INTEGER NOT NULL DEFAULT 0,
    expires TIMESTAMP NULL,
    last_ip TEXT,
    last_user_agent TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`,
	`CREATE TABLE authenticated_sessions (
    session_key TEXT NOT NULL PRIMARY KEY,
    user_id TEXT NOT NULL,
    device_id TEXT,
    last_ip TEXT,
    last_user_agent TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`,
	`CREATE TABLE providers (
    id TEXT NOT NULL PRIMARY KEY,
    name TEXT NOT NULL,
    is_backchannel INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`,
}

func setupTestDB(t *testing.T) (*bun.DB, func()) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())
	bunDB.RegisterModel((*UserGroup)(nil))
	for _, ddl := range testSchema {
		_, err = bunDB.Exec(ddl)
		require.NoError(t, err)
	}

	cleanup := func() {
		_ = bunDB.Close()
		_ = db.Close()
	}
	return bunDB, cleanup
}

type testEnv struct {
	db         *bun.DB
	mr         *miniredis.Miniredis
	rdb        *redis.Client
	dispatcher *Dispatcher
	store      *Store
	repos      RepositoryManager
	cache      *Cache
	notifier   *Notifier
	logger     *recordingLogger
	cfg        Config
}

func setupLifecycle(t *testing.T, tweaks ...func(*Config)) (*testEnv, func()) {
	t.Helper()

	db, dbCleanup := setupTestDB(t)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := NewConfig()
	for _, tweak := range tweaks {
		tweak(&cfg)
	}

	logger := &recordingLogger{}
	dispatcher := NewDispatcher().WithLogger(logger)
	store := NewStore(db, dispatcher)
	repos := NewRepositoryManager(db)

	env := &testEnv{
		db:         db,
		mr:         mr,
		rdb:        rdb,
		dispatcher: dispatcher,
		store:      store,
		repos:      repos,
		cache:      NewCache(rdb),
		notifier:   NewNotifier(rdb),
		logger:     logger,
		cfg:        cfg,
	}

	err = RegisterCoreRules(dispatcher, CoreRuleDeps{
		Repos:    repos,
		Store:    store,
		Cache:    env.cache,
		Notifier: env.notifier,
		Config:   cfg,
		Logger:   logger,
	})
	require.NoError(t, err)

	cleanup := func() {
		_ = rdb.Close()
		mr.Close()
		dbCleanup()
	}
	return env, cleanup
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingLogger) log(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+" "+fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Debug(format string, args ...any) { l.log("DBG", format, args...) }
func (l *recordingLogger) Info(format string, args ...any)  { l.log("INF", format, args...) }
func (l *recordingLogger) Warn(format string, args ...any)  { l.log("WRN", format, args...) }
func (l *recordingLogger) Error(format string, args ...any) { l.log("ERR", format, args...) }

func (l *recordingLogger) contains(fragment string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, entry := range l.entries {
		if strings.Contains(entry, fragment) {
			return true
		}
	}
	return false
}

type testRequest struct {
	cookies    map[string]string
	sessionKey string
	ip         string
	agent      string
}

func (r *testRequest) Cookie(name string) (string, bool) {
	val, ok := r.cookies[name]
	return val, ok
}

func (r *testRequest) SessionKey() string { return r.sessionKey }
func (r *testRequest) ClientIP() string   { return r.ip }
func (r *testRequest) UserAgent() string  { return r.agent }
