package mysql_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"gorm.io/gorm"

	"Lee_Forum/internal/model"
	"Lee_Forum/internal/pkg"
	"Lee_Forum/internal/repository/mysql"
	"Lee_Forum/internal/testutil"
)

func TestUserRepositoryUnique(t *testing.T) {
	db := testutil.NewDB(t)
	repo := &mysql.UserRepository{DB: db}
	ctx := context.Background()

	testutil.MustUser(t, db, "alice")
	err := repo.Create(ctx, &model.User{Username: "alice", IsActive: true})
	if !errors.Is(err, pkg.ErrUniqueViolation) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	if _, err := repo.FindByUsername(ctx, "bob"); !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUserRepositoryDefaults(t *testing.T) {
	db := testutil.NewDB(t)
	repo := &mysql.UserRepository{DB: db}
	ctx := context.Background()

	u := &model.User{Username: "plain", IsActive: true}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	got, err := repo.FindByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got.Permission != model.PermissionNormal {
		t.Errorf("expected NORMAL, got %s", got.Permission)
	}
	if got.Avatar != model.DefaultAvatar {
		t.Errorf("expected default avatar, got %s", got.Avatar)
	}
	if got.Bio != "" {
		t.Errorf("expected empty bio, got %q", got.Bio)
	}
}

func TestUserRepositoryUpdate(t *testing.T) {
	db := testutil.NewDB(t)
	repo := &mysql.UserRepository{DB: db}
	ctx := context.Background()

	u := testutil.MustUser(t, db)
	got, err := repo.Update(ctx, u.ID, map[string]any{"bio": "hi", "is_active": false})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Bio != "hi" || got.IsActive {
		t.Errorf("unexpected user after update: %+v", got)
	}

	if _, err := repo.Update(ctx, 999, map[string]any{"bio": "x"}); !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUserDeleteCascadesOwnedBoards(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	owner := testutil.MustUser(t, db)
	other := testutil.MustUser(t, db)
	b := testutil.MustBoard(t, db, owner, "owned")
	p1 := testutil.MustPost(t, db, other, b, "by other on owned board")
	p2 := testutil.MustPost(t, db, owner, b, "by owner")

	votes := &mysql.VoteRepository{DB: db}
	if err := votes.Cast(ctx, &model.Vote{UserID: other.ID, PostID: p2.ID, IsUpvoted: true}); err != nil {
		t.Fatalf("Cast failed: %v", err)
	}

	touched, err := (&mysql.UserRepository{DB: db}).Delete(ctx, owner.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(touched) != 2 {
		t.Errorf("expected both deleted posts reported, got %v", touched)
	}

	if n := testutil.Count(t, db, &model.Board{}, "path = ?", b.Path); n != 0 {
		t.Errorf("expected board removed, %d left", n)
	}
	if n := testutil.Count(t, db, &model.Post{}, "id IN ?", []uint64{p1.ID, p2.ID}); n != 0 {
		t.Errorf("expected posts removed, %d left", n)
	}
	if n := testutil.Count(t, db, &model.Vote{}, ""); n != 0 {
		t.Errorf("expected votes removed, %d left", n)
	}
	if n := testutil.Count(t, db, &model.User{}, "id = ?", other.ID); n != 1 {
		t.Error("expected other user kept")
	}
}

func TestUserDeleteKeepsVotedPost(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	author := testutil.MustUser(t, db)
	voter := testutil.MustUser(t, db)
	b := testutil.MustBoard(t, db, author, "general")
	p := testutil.MustPost(t, db, author, b, "hello")

	if err := (&mysql.VoteRepository{DB: db}).Cast(ctx, &model.Vote{UserID: voter.ID, PostID: p.ID, IsUpvoted: false}); err != nil {
		t.Fatalf("Cast failed: %v", err)
	}
	touched, err := (&mysql.UserRepository{DB: db}).Delete(ctx, voter.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(touched) != 1 || touched[0] != p.ID {
		t.Errorf("expected touched [%d], got %v", p.ID, touched)
	}

	got := testutil.ReloadPost(t, db, p.ID)
	if got.Downvote != 0 {
		t.Errorf("expected downvote rolled back to 0, got %d", got.Downvote)
	}
	if n := testutil.Count(t, db, &model.Vote{}, "user_id = ?", voter.ID); n != 0 {
		t.Errorf("expected voter's votes removed, %d left", n)
	}

	if _, err := (&mysql.UserRepository{DB: db}).Delete(ctx, voter.ID); !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestBoardRepositoryCreate(t *testing.T) {
	db := testutil.NewDB(t)
	repo := &mysql.BoardRepository{DB: db}
	ctx := context.Background()

	u := testutil.MustUser(t, db)
	testutil.MustBoard(t, db, u, "test")

	err := repo.Create(ctx, &model.Board{Path: "test", Name: "dup", CreateUserID: u.ID})
	if !errors.Is(err, pkg.ErrUniqueViolation) {
		t.Errorf("expected unique violation, got %v", err)
	}

	err = repo.Create(ctx, &model.Board{Path: "orphan", Name: "orphan", CreateUserID: 999})
	if !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("expected not found for missing owner, got %v", err)
	}

	b := &model.Board{Path: "fresh", Name: "Fresh", CreateUserID: u.ID}
	if err := repo.Create(ctx, b); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	got, err := repo.FindByPath(ctx, "fresh")
	if err != nil {
		t.Fatalf("FindByPath failed: %v", err)
	}
	if got.WritePermission != model.PermissionNormal {
		t.Errorf("expected default write permission NORMAL, got %s", got.WritePermission)
	}
}

func TestBoardRepositoryRename(t *testing.T) {
	db := testutil.NewDB(t)
	repo := &mysql.BoardRepository{DB: db}
	ctx := context.Background()

	u := testutil.MustUser(t, db)
	old := testutil.MustBoard(t, db, u, "old")
	testutil.MustBoard(t, db, u, "taken")
	p := testutil.MustPost(t, db, u, old, "moving")

	before, err := repo.FindByPath(ctx, "old")
	if err != nil {
		t.Fatalf("FindByPath failed: %v", err)
	}
	if _, err := repo.Update(ctx, "old", "taken", nil); !errors.Is(err, pkg.ErrUniqueViolation) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	got, err := repo.Update(ctx, "old", "renamed", map[string]any{"name": "Renamed"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Path != "renamed" || got.Name != "Renamed" {
		t.Errorf("unexpected board %+v", got)
	}
	if !got.CreatedAt.Equal(before.CreatedAt) {
		t.Errorf("expected created_at kept, got %s want %s", got.CreatedAt, before.CreatedAt)
	}
	if _, err := repo.FindByPath(ctx, "old"); !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("expected old path gone, got %v", err)
	}
	if moved := testutil.ReloadPost(t, db, p.ID); moved.BoardPath != "renamed" {
		t.Errorf("expected post re-pointed, got %s", moved.BoardPath)
	}
}

func TestBoardRepositoryDelete(t *testing.T) {
	db := testutil.NewDB(t)
	repo := &mysql.BoardRepository{DB: db}
	ctx := context.Background()

	u := testutil.MustUser(t, db)
	b := testutil.MustBoard(t, db, u, "gone")
	keep := testutil.MustBoard(t, db, u, "kept")
	p := testutil.MustPost(t, db, u, b, "doomed")
	k := testutil.MustPost(t, db, u, keep, "survivor")

	votes := &mysql.VoteRepository{DB: db}
	for _, pid := range []uint64{p.ID, k.ID} {
		if err := votes.Cast(ctx, &model.Vote{UserID: u.ID, PostID: pid, IsUpvoted: true}); err != nil {
			t.Fatalf("Cast failed: %v", err)
		}
	}

	n, err := repo.CountPosts(ctx, "gone")
	if err != nil || n != 1 {
		t.Fatalf("expected 1 post, got %d err=%v", n, err)
	}

	deleted, err := repo.Delete(ctx, "gone")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(deleted) != 1 || deleted[0] != p.ID {
		t.Errorf("expected deleted [%d], got %v", p.ID, deleted)
	}
	if n := testutil.Count(t, db, &model.Post{}, "board_path = ?", "gone"); n != 0 {
		t.Errorf("expected posts removed, %d left", n)
	}
	if n := testutil.Count(t, db, &model.Vote{}, ""); n != 1 {
		t.Errorf("expected 1 vote left, got %d", n)
	}
	if _, err := repo.Delete(ctx, "gone"); !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestPostRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := &mysql.PostRepository{DB: db}
	ctx := context.Background()

	u := testutil.MustUser(t, db)
	b := testutil.MustBoard(t, db, u, "general")

	tests := []struct {
		name string
		post *model.Post
		want error
	}{
		{"missing board", &model.Post{BoardPath: "nope", CreateUserID: u.ID, Title: "x"}, pkg.ErrNotFound},
		{"missing user", &model.Post{BoardPath: b.Path, CreateUserID: 999, Title: "x"}, pkg.ErrNotFound},
		{"ok", &model.Post{BoardPath: b.Path, CreateUserID: u.ID, Title: "x"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, tt.post)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	p := testutil.MustPost(t, db, u, b, "title")
	if p.Upvote != 0 || p.Downvote != 0 {
		t.Errorf("expected zero counters, got %d/%d", p.Upvote, p.Downvote)
	}

	got, err := repo.Update(ctx, p.ID, map[string]any{"title": "new title"})
	if err != nil || got.Title != "new title" {
		t.Fatalf("Update failed: %+v %v", got, err)
	}

	list, err := repo.List(ctx, mysql.PostFilter{BoardPath: b.Path}, 0, 10)
	if err != nil || len(list) != 2 {
		t.Fatalf("expected 2 posts, got %d err=%v", len(list), err)
	}

	if err := repo.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := repo.Delete(ctx, p.ID); !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestVoteCastDownvote(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	u := testutil.MustUser(t, db, "test_user_1")
	b := testutil.MustBoard(t, db, u, "test")
	p := testutil.MustPost(t, db, u, b, "test title")

	repo := &mysql.VoteRepository{DB: db}
	v := &model.Vote{UserID: u.ID, PostID: p.ID, IsUpvoted: false}
	if err := repo.Cast(ctx, v); err != nil {
		t.Fatalf("Cast failed: %v", err)
	}

	got := testutil.ReloadPost(t, db, p.ID)
	if got.Downvote != 1 || got.Upvote != 0 {
		t.Errorf("expected 0/1, got %d/%d", got.Upvote, got.Downvote)
	}

	stored, err := repo.FindByPair(ctx, u.ID, p.ID)
	if err != nil {
		t.Fatalf("FindByPair failed: %v", err)
	}
	if stored.IsUpvoted {
		t.Error("expected stored vote to be a downvote")
	}

	d, err := repo.Describe(ctx, v.ID)
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if want := "USER(test_user_1) / POST(test title) / BOARD(test) -> downvoted"; d.Label() != want {
		t.Errorf("expected %q, got %q", want, d.Label())
	}

	if n := testutil.Count(t, db, &model.VoteOutbox{}, "event_type = ?", model.EventVoteCast); n != 1 {
		t.Errorf("expected 1 outbox event, got %d", n)
	}
}

func TestVoteCastTwice(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	u := testutil.MustUser(t, db)
	b := testutil.MustBoard(t, db, u, "general")
	p := testutil.MustPost(t, db, u, b, "hello")

	repo := &mysql.VoteRepository{DB: db}
	if err := repo.Cast(ctx, &model.Vote{UserID: u.ID, PostID: p.ID, IsUpvoted: true}); err != nil {
		t.Fatalf("Cast failed: %v", err)
	}
	err := repo.Cast(ctx, &model.Vote{UserID: u.ID, PostID: p.ID, IsUpvoted: false})
	if !errors.Is(err, pkg.ErrUniqueViolation) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	got := testutil.ReloadPost(t, db, p.ID)
	if got.Upvote != 1 || got.Downvote != 0 {
		t.Errorf("expected 1/0, got %d/%d", got.Upvote, got.Downvote)
	}
	if n := testutil.Count(t, db, &model.VoteOutbox{}, ""); n != 1 {
		t.Errorf("expected failed cast to leave no outbox event, got %d", n)
	}
}

func TestVoteCastMissing(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	u := testutil.MustUser(t, db)
	b := testutil.MustBoard(t, db, u, "general")
	p := testutil.MustPost(t, db, u, b, "hello")

	repo := &mysql.VoteRepository{DB: db}
	if err := repo.Cast(ctx, &model.Vote{UserID: u.ID, PostID: 999, IsUpvoted: true}); !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("expected not found for post, got %v", err)
	}
	if err := repo.Cast(ctx, &model.Vote{UserID: 999, PostID: p.ID, IsUpvoted: true}); !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("expected not found for user, got %v", err)
	}
	if got := testutil.ReloadPost(t, db, p.ID); got.Upvote != 0 {
		t.Errorf("expected no increment, got %d", got.Upvote)
	}
}

func TestVoteCastConcurrent(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	author := testutil.MustUser(t, db)
	b := testutil.MustBoard(t, db, author, "busy")
	p := testutil.MustPost(t, db, author, b, "popular")

	const n = 20
	voters := make([]*model.User, n)
	for i := range voters {
		voters[i] = testutil.MustUser(t, db, fmt.Sprintf("voter_%d", i))
	}

	repo := &mysql.VoteRepository{DB: db}
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, v := range voters {
		wg.Add(1)
		go func(uid uint64) {
			defer wg.Done()
			errs <- repo.Cast(ctx, &model.Vote{UserID: uid, PostID: p.ID, IsUpvoted: true})
		}(v.ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("Cast failed: %v", err)
		}
	}

	if got := testutil.ReloadPost(t, db, p.ID); got.Upvote != n {
		t.Errorf("expected upvote %d, got %d", n, got.Upvote)
	}
}

// 在计数更新语句执行前插入一次别的事务已提交的 +1，读改写实现会把它覆盖掉
func TestVoteCastCounterIsAtomic(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	u := testutil.MustUser(t, db)
	b := testutil.MustBoard(t, db, u, "general")
	p := testutil.MustPost(t, db, u, b, "hello")

	var fired atomic.Bool
	err := db.Callback().Update().Before("gorm:update").Register("test:concurrent_bump", func(tx *gorm.DB) {
		if tx.Statement.Table != "posts" || !fired.CompareAndSwap(false, true) {
			return
		}
		if err := tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE posts SET upvote = upvote + 1 WHERE id = ?", p.ID).Error; err != nil {
			_ = tx.AddError(err)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	if err := (&mysql.VoteRepository{DB: db}).Cast(ctx, &model.Vote{UserID: u.ID, PostID: p.ID, IsUpvoted: true}); err != nil {
		t.Fatalf("Cast failed: %v", err)
	}
	if !fired.Load() {
		t.Fatal("expected counter update to run")
	}
	if got := testutil.ReloadPost(t, db, p.ID); got.Upvote != 2 {
		t.Errorf("expected upvote 2, got %d", got.Upvote)
	}
}

// 预检查通过后同一 (user, post) 被抢先写入，唯一索引拒绝时计数和事件都要回滚
func TestVoteCastRollsBackOnUniqueIndex(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	u := testutil.MustUser(t, db)
	b := testutil.MustBoard(t, db, u, "general")
	p := testutil.MustPost(t, db, u, b, "hello")

	var fired atomic.Bool
	err := db.Callback().Create().Before("gorm:create").Register("test:duplicate_vote", func(tx *gorm.DB) {
		if tx.Statement.Table != "voted_posts" || !fired.CompareAndSwap(false, true) {
			return
		}
		dup := &model.Vote{UserID: u.ID, PostID: p.ID, IsUpvoted: true}
		if err := tx.Session(&gorm.Session{NewDB: true}).Create(dup).Error; err != nil {
			_ = tx.AddError(err)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	err = (&mysql.VoteRepository{DB: db}).Cast(ctx, &model.Vote{UserID: u.ID, PostID: p.ID, IsUpvoted: true})
	if !errors.Is(err, pkg.ErrUniqueViolation) {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if !fired.Load() {
		t.Fatal("expected duplicate to be inserted")
	}
	if got := testutil.ReloadPost(t, db, p.ID); got.Upvote != 0 {
		t.Errorf("expected upvote 0 after rollback, got %d", got.Upvote)
	}
	if n := testutil.Count(t, db, &model.Vote{}, ""); n != 0 {
		t.Errorf("expected no votes, got %d", n)
	}
	if n := testutil.Count(t, db, &model.VoteOutbox{}, ""); n != 0 {
		t.Errorf("expected no outbox rows, got %d", n)
	}
}

func TestVoteRetract(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	u := testutil.MustUser(t, db)
	b := testutil.MustBoard(t, db, u, "general")
	p := testutil.MustPost(t, db, u, b, "hello")

	repo := &mysql.VoteRepository{DB: db}
	if err := repo.Cast(ctx, &model.Vote{UserID: u.ID, PostID: p.ID, IsUpvoted: true}); err != nil {
		t.Fatalf("Cast failed: %v", err)
	}
	v, err := repo.Retract(ctx, u.ID, p.ID)
	if err != nil {
		t.Fatalf("Retract failed: %v", err)
	}
	if !v.IsUpvoted {
		t.Error("expected retracted vote to be an upvote")
	}
	if got := testutil.ReloadPost(t, db, p.ID); got.Upvote != 0 {
		t.Errorf("expected upvote 0, got %d", got.Upvote)
	}
	if _, err := repo.Retract(ctx, u.ID, p.ID); !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	// 撤销后可以重新投反对票
	if err := repo.Cast(ctx, &model.Vote{UserID: u.ID, PostID: p.ID, IsUpvoted: false}); err != nil {
		t.Fatalf("recast failed: %v", err)
	}
	if got := testutil.ReloadPost(t, db, p.ID); got.Downvote != 1 || got.Upvote != 0 {
		t.Errorf("expected 0/1, got %d/%d", got.Upvote, got.Downvote)
	}
	if n := testutil.Count(t, db, &model.VoteOutbox{}, "event_type = ?", model.EventVoteRetracted); n != 1 {
		t.Errorf("expected 1 retract event, got %d", n)
	}
}

func TestVoteList(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	u1 := testutil.MustUser(t, db)
	u2 := testutil.MustUser(t, db)
	b := testutil.MustBoard(t, db, u1, "general")
	p := testutil.MustPost(t, db, u1, b, "hello")

	repo := &mysql.VoteRepository{DB: db}
	_ = repo.Cast(ctx, &model.Vote{UserID: u1.ID, PostID: p.ID, IsUpvoted: true})
	_ = repo.Cast(ctx, &model.Vote{UserID: u2.ID, PostID: p.ID, IsUpvoted: false})

	up := true
	list, err := repo.List(ctx, mysql.VoteFilter{IsUpvoted: &up}, 0, 10)
	if err != nil || len(list) != 1 || list[0].UserID != u1.ID {
		t.Errorf("unexpected upvote list %+v err=%v", list, err)
	}
	list, err = repo.List(ctx, mysql.VoteFilter{PostID: p.ID}, 0, 10)
	if err != nil || len(list) != 2 {
		t.Errorf("expected 2 votes on post, got %d err=%v", len(list), err)
	}
}

func TestOutboxRepository(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	u := testutil.MustUser(t, db)
	b := testutil.MustBoard(t, db, u, "general")
	p := testutil.MustPost(t, db, u, b, "hello")
	if err := (&mysql.VoteRepository{DB: db}).Cast(ctx, &model.Vote{UserID: u.ID, PostID: p.ID, IsUpvoted: true}); err != nil {
		t.Fatalf("Cast failed: %v", err)
	}

	repo := &mysql.OutboxRepository{DB: db}
	rows, err := repo.List(ctx, 10, 3)
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected 1 pending row, got %d err=%v", len(rows), err)
	}
	ob := rows[0]
	if ob.EventID == "" || ob.PostID != p.ID {
		t.Errorf("unexpected outbox row %+v", ob)
	}

	for i := 0; i < 3; i++ {
		if err := repo.MarkFailed(ctx, ob.ID); err != nil {
			t.Fatalf("MarkFailed failed: %v", err)
		}
	}
	if rows, _ := repo.List(ctx, 10, 3); len(rows) != 0 {
		t.Errorf("expected exhausted row skipped, got %d", len(rows))
	}
	if rows, _ := repo.List(ctx, 10, 5); len(rows) != 1 {
		t.Errorf("expected failed row retried under higher limit, got %d", len(rows))
	}

	if err := repo.MarkSent(ctx, ob.ID); err != nil {
		t.Fatalf("MarkSent failed: %v", err)
	}
	if rows, _ := repo.List(ctx, 10, 5); len(rows) != 0 {
		t.Errorf("expected sent row skipped, got %d", len(rows))
	}
}

func TestCounterReconcile(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	u := testutil.MustUser(t, db)
	b := testutil.MustBoard(t, db, u, "general")
	p := testutil.MustPost(t, db, u, b, "hello")
	if err := (&mysql.VoteRepository{DB: db}).Cast(ctx, &model.Vote{UserID: u.ID, PostID: p.ID, IsUpvoted: true}); err != nil {
		t.Fatalf("Cast failed: %v", err)
	}
	if err := db.Model(&model.Post{}).Where("id = ?", p.ID).
		UpdateColumns(map[string]any{"upvote": 7, "downvote": 3}).Error; err != nil {
		t.Fatalf("corrupt counters: %v", err)
	}

	repo := &mysql.CounterRepository{DB: db}
	rows, next, err := repo.Scan(ctx, 0, 10)
	if err != nil || len(rows) != 1 || next != p.ID {
		t.Fatalf("unexpected scan %+v next=%d err=%v", rows, next, err)
	}

	changed, err := repo.Reconcile(ctx, p.ID)
	if err != nil || !changed {
		t.Fatalf("expected correction, changed=%v err=%v", changed, err)
	}
	got := testutil.ReloadPost(t, db, p.ID)
	if got.Upvote != 1 || got.Downvote != 0 {
		t.Errorf("expected 1/0, got %d/%d", got.Upvote, got.Downvote)
	}
	if changed, _ := repo.Reconcile(ctx, p.ID); changed {
		t.Error("expected second reconcile to be a no-op")
	}
}
