package model

import (
	"testing"
	"time"
)

func TestHasFriend(t *testing.T) {
	s := &Social{UserID: "a", Friends: []string{"b", "c"}}
	if !s.HasFriend("b") {
		t.Error("b should be a friend")
	}
	if s.HasFriend("z") {
		t.Error("z should not be a friend")
	}
	if s.HasFriend("") {
		t.Error("empty id should not match")
	}
}

func TestHasPendingSent(t *testing.T) {
	s := &Social{
		UserID: "a",
		Sent: []SentRequest{
			{UserID: "b", Status: RequestPending},
			{UserID: "c", Status: RequestCancelled},
		},
	}
	if !s.HasPendingSent("b") {
		t.Error("pending request to b not reported")
	}
	// 已取消的记录不算 live 请求
	if s.HasPendingSent("c") {
		t.Error("cancelled request to c reported as pending")
	}
	if s.HasPendingSent("z") {
		t.Error("no request to z")
	}
}

func TestHasPendingReceived(t *testing.T) {
	now := time.Now()
	s := &Social{
		UserID: "a",
		Received: []ReceivedRequest{
			{UserID: "b", RequestedAt: now, Status: RequestPending},
			{UserID: "c", RequestedAt: now, Status: RequestRejected},
		},
	}
	if !s.HasPendingReceived("b") {
		t.Error("pending request from b not reported")
	}
	if s.HasPendingReceived("c") {
		t.Error("rejected request from c reported as pending")
	}
}
