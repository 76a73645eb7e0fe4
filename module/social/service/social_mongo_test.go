package service

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"TeamHive/data/database/mgo/mongoutil"
	userservice "TeamHive/module/user/service"
	mgoSrv "TeamHive/service/mgo"
	"TeamHive/tools/errs"
	"TeamHive/tools/ids"
)

var mongoOnce sync.Once

// requireMongo 接入真实 mongo 的用例；事务路径需要副本集（单节点 replSet 也行）。
// 未设置 TEAMHIVE_TEST_MONGO_URI 时跳过。
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

func registerUser(t *testing.T, ctx context.Context) string {
	t.Helper()
	email := "u" + ids.GenerateString() + "@test.local"
	u, err := userservice.Register(ctx, "Test User", email, "pass1234", "pass1234")
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u.UserID
}

func assertCleanPair(t *testing.T, ctx context.Context, a, b string) {
	t.Helper()
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		s, err := GetProfile(ctx, pair[0])
		if err != nil {
			t.Fatalf("profile %s: %v", pair[0], err)
		}
		if s.HasFriend(pair[1]) || s.HasPendingSent(pair[1]) || s.HasPendingReceived(pair[1]) {
			t.Fatalf("residual state on %s towards %s: %+v", pair[0], pair[1], s)
		}
	}
}

// send→cancel 之后双方状态和发送前完全一致。
func TestSendCancelRoundTrip(t *testing.T) {
	ctx := requireMongo(t)
	a, b := registerUser(t, ctx), registerUser(t, ctx)

	if err := SendRequest(ctx, a, b); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := CancelRequest(ctx, a, b); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	assertCleanPair(t, ctx, a, b)
}

// send→accept 之后双方互为好友且两侧都没有残留 pending。
func TestSendAcceptRoundTrip(t *testing.T) {
	ctx := requireMongo(t)
	a, b := registerUser(t, ctx), registerUser(t, ctx)

	if err := SendRequest(ctx, a, b); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := AcceptRequest(ctx, b, a); err != nil {
		t.Fatalf("accept: %v", err)
	}

	sa, _ := GetProfile(ctx, a)
	sb, _ := GetProfile(ctx, b)
	if !sa.HasFriend(b) || !sb.HasFriend(a) {
		t.Fatal("friendship not symmetric after accept")
	}
	if sa.HasPendingSent(b) || sb.HasPendingReceived(a) {
		t.Fatal("pending entries survived the accept")
	}

	// 幂等保护：第二次 accept 找不到 pending 条目
	err := AcceptRequest(ctx, b, a)
	if err == nil {
		t.Fatal("second accept must fail")
	}
	if !errs.ErrNotFound.Is(err) {
		t.Fatalf("second accept: want NotFound, got %v", err)
	}
	sa2, _ := GetProfile(ctx, a)
	if !sa2.HasFriend(b) {
		t.Fatal("second accept must not change friend state")
	}
}

// A 已向 B 发出请求，B 反向发送必须 Conflict，A 的原条目不动。
func TestCrossSendConflict(t *testing.T) {
	ctx := requireMongo(t)
	a, b := registerUser(t, ctx), registerUser(t, ctx)

	if err := SendRequest(ctx, a, b); err != nil {
		t.Fatalf("send: %v", err)
	}
	err := SendRequest(ctx, b, a)
	if err == nil {
		t.Fatal("cross-send must fail")
	}
	if !errs.ErrConflict.Is(err) {
		t.Fatalf("cross-send: want Conflict, got %v", err)
	}

	sa, _ := GetProfile(ctx, a)
	if !sa.HasPendingSent(b) {
		t.Fatal("original pending entry was disturbed")
	}
}

func TestRejectRoundTrip(t *testing.T) {
	ctx := requireMongo(t)
	a, b := registerUser(t, ctx), registerUser(t, ctx)

	if err := SendRequest(ctx, a, b); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := RejectRequest(ctx, b, a); err != nil {
		t.Fatalf("reject: %v", err)
	}
	assertCleanPair(t, ctx, a, b)

	// 空对再 reject：NotFound
	if err := RejectRequest(ctx, b, a); !errs.ErrNotFound.Is(err) {
		t.Fatalf("second reject: want NotFound, got %v", err)
	}
}

func TestRemoveFriendNotFriends(t *testing.T) {
	ctx := requireMongo(t)
	a, b := registerUser(t, ctx), registerUser(t, ctx)

	if err := RemoveFriend(ctx, a, b); !errs.ErrNotFound.Is(err) {
		t.Fatalf("want NotFound, got %v", err)
	}
}
