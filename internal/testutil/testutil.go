// Package testutil 为测试提供基于 SQLite 的 gorm 数据库和常用数据
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"Lee_Forum/internal/model"
	"Lee_Forum/internal/repository/mysql"
)

var seq atomic.Uint64

// NewDB 每个测试一个独立的数据库文件。
// SQLite 写锁是库级的，单连接让并发事务排队执行，并发用例只能验证排队后的结果；
// 事务内交错写入用 gorm 回调注入来覆盖
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "forum.db") + "?_pragma=busy_timeout(5000)"
	db, err := mysql.Connect(sqlite.Open(dsn), "silent")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := mysql.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// MustUser 插入一个用户，用户名不传时自动生成
func MustUser(t *testing.T, db *gorm.DB, username ...string) *model.User {
	t.Helper()
	name := fmt.Sprintf("user_%d", seq.Add(1))
	if len(username) > 0 {
		name = username[0]
	}
	u := &model.User{
		Username:   name,
		Avatar:     model.DefaultAvatar,
		Permission: model.PermissionNormal,
		IsActive:   true,
	}
	repo := &mysql.UserRepository{DB: db}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func MustBoard(t *testing.T, db *gorm.DB, owner *model.User, path string) *model.Board {
	t.Helper()
	b := &model.Board{
		Path:            path,
		Name:            path,
		WritePermission: model.PermissionNormal,
		CreateUserID:    owner.ID,
	}
	repo := &mysql.BoardRepository{DB: db}
	if err := repo.Create(context.Background(), b); err != nil {
		t.Fatalf("create board %s: %v", path, err)
	}
	return b
}

func MustPost(t *testing.T, db *gorm.DB, author *model.User, board *model.Board, title string) *model.Post {
	t.Helper()
	p := &model.Post{
		BoardPath:    board.Path,
		CreateUserID: author.ID,
		Title:        title,
		Content:      "content of " + title,
	}
	repo := &mysql.PostRepository{DB: db}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("create post %s: %v", title, err)
	}
	return p
}

// ReloadPost 读取帖子最新状态
func ReloadPost(t *testing.T, db *gorm.DB, id uint64) *model.Post {
	t.Helper()
	var p model.Post
	if err := db.First(&p, id).Error; err != nil {
		t.Fatalf("reload post %d: %v", id, err)
	}
	return &p
}

// Count 统计表中满足条件的行数
func Count(t *testing.T, db *gorm.DB, m any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := db.Model(m)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
