package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"TeamHive/data/database/mgo/mongoutil"
	projectmodel "TeamHive/module/project/model"
	usermodel "TeamHive/module/user/model"
	userservice "TeamHive/module/user/service"
	mgoSrv "TeamHive/service/mgo"
	"TeamHive/tools/errs"
	"TeamHive/tools/ids"
)

var mongoOnce sync.Once

// requireMongo 接入真实 mongo 的用例；未设置 TEAMHIVE_TEST_MONGO_URI 时跳过。
func requireMongo(t *testing.T) context.Context {
	t.Helper()
	uri := os.Getenv("TEAMHIVE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEAMHIVE_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	mongoOnce.Do(func() {
		mgoSrv.StartAsync(ctx, &mongoutil.Config{
			Uri:      uri,
			Database: "teamhive_test",
		})
	})
	select {
	case <-mgoSrv.Ready():
	case <-time.After(15 * time.Second):
		t.Fatalf("mongo not ready: %v", mgoSrv.Err())
	}
	return ctx
}

func registerUser(t *testing.T, ctx context.Context) *usermodel.User {
	t.Helper()
	email := "p" + ids.GenerateString() + "@test.local"
	u, err := userservice.Register(ctx, "Test User", email, "pass1234", "pass1234")
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}

func createProject(t *testing.T, ctx context.Context, ownerID string) *projectmodel.Project {
	t.Helper()
	p, err := Create(ctx, ownerID, CreateInput{
		Title:     "proj " + ids.GenerateString(),
		StartDate: time.Now(),
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p
}

// owner 的 member+admin 身份不可撤销：移除、降级都必须失败且文档不变。
func TestOwnerImmutable(t *testing.T) {
	ctx := requireMongo(t)
	owner := registerUser(t, ctx)
	p := createProject(t, ctx, owner.UserID)

	if err := RemoveMember(ctx, p.ProjectID, owner.UserID, owner.UserID); !errs.ErrForbidden.Is(err) {
		t.Fatalf("remove owner: want Forbidden, got %v", err)
	}
	if err := DemoteAdmin(ctx, p.ProjectID, owner.UserID, owner.UserID); !errs.ErrForbidden.Is(err) {
		t.Fatalf("demote owner: want Forbidden, got %v", err)
	}

	got, err := Load(ctx, p.ProjectID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !contains(got.Members, owner.UserID) || !contains(got.Admins, owner.UserID) {
		t.Fatalf("owner standing changed: members=%v admins=%v", got.Members, got.Admins)
	}
}

// 普通成员没有管理权限，拒绝后 admins 列表保持原样。
func TestMemberCannotPromote(t *testing.T) {
	ctx := requireMongo(t)
	owner := registerUser(t, ctx)
	member := registerUser(t, ctx)
	outsider := registerUser(t, ctx)
	p := createProject(t, ctx, owner.UserID)

	if _, err := AddMember(ctx, p.ProjectID, owner.UserID, member.Email); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if _, err := AddAdmin(ctx, p.ProjectID, member.UserID, outsider.Email); !errs.ErrForbidden.Is(err) {
		t.Fatalf("member promotes: want Forbidden, got %v", err)
	}

	got, _ := Load(ctx, p.ProjectID)
	if len(got.Admins) != 1 || got.Admins[0] != owner.UserID {
		t.Fatalf("admins changed by a forbidden call: %v", got.Admins)
	}
}

func TestAddMemberTwiceConflict(t *testing.T) {
	ctx := requireMongo(t)
	owner := registerUser(t, ctx)
	member := registerUser(t, ctx)
	p := createProject(t, ctx, owner.UserID)

	if _, err := AddMember(ctx, p.ProjectID, owner.UserID, member.Email); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := AddMember(ctx, p.ProjectID, owner.UserID, member.Email); !errs.ErrConflict.Is(err) {
		t.Fatalf("second add: want Conflict, got %v", err)
	}
}

// 并发加人：每个请求都是 $addToSet，互不覆盖。
func TestConcurrentAddMember(t *testing.T) {
	ctx := requireMongo(t)
	owner := registerUser(t, ctx)
	p := createProject(t, ctx, owner.UserID)

	const n = 6
	users := make([]*usermodel.User, n)
	for i := range users {
		users[i] = registerUser(t, ctx)
	}

	errCh := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(u *usermodel.User) {
			defer wg.Done()
			_, err := AddMember(ctx, p.ProjectID, owner.UserID, u.Email)
			if err != nil {
				errCh <- fmt.Errorf("add %s: %w", u.UserID, err)
			}
		}(users[i])
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Error(err)
	}

	got, err := Load(ctx, p.ProjectID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	for _, u := range users {
		if !contains(got.Members, u.UserID) {
			t.Errorf("member %s lost in concurrent adds: %v", u.UserID, got.Members)
		}
	}
	if len(got.Members) != n+1 {
		t.Errorf("want %d members, got %v", n+1, got.Members)
	}
}

// 项目被并发删除时，零匹配的更新要报 NotFound 而不是 Conflict。
func TestConflictOrGoneAfterDelete(t *testing.T) {
	ctx := requireMongo(t)
	owner := registerUser(t, ctx)
	p := createProject(t, ctx, owner.UserID)

	if err := Delete(ctx, p.ProjectID, owner.UserID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	dup := errs.ErrConflict.WrapMsg("user is already a member")
	if err := conflictOrGone(ctx, p.ProjectID, dup); !errs.ErrNotFound.Is(err) {
		t.Fatalf("want NotFound for a deleted project, got %v", err)
	}

	live := createProject(t, ctx, owner.UserID)
	if err := conflictOrGone(ctx, live.ProjectID, dup); !errs.ErrConflict.Is(err) {
		t.Fatalf("want the duplicate Conflict for a live project, got %v", err)
	}
}
