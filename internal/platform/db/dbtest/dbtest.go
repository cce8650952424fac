// Package dbtest opens a migrated in-memory sqlite database for tests.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/shopcredits/internal/platform/db"
	cfgpkg "github.com/fatflowers/shopcredits/pkg/config"
)

var seq atomic.Int64

// Open returns a fresh database per call. A single connection is used so
// concurrent callers queue on the pool the way row locks queue them on
// postgres.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), seq.Add(1))
	log := zap.NewNop().Sugar()
	gdb, err := gorm.Open(sqlite.Open(dsn), db.GormConfig(log, cfgpkg.DBConfig{}))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(log, gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}
