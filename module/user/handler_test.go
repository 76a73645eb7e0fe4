package user

import (
	"testing"

	usermodel "TeamHive/module/user/model"
)

// Without a reachable redis the stored flag must pass through untouched —
// the overlay only ever replaces it with a fresher answer.
func TestLivePresenceFallsBackToStoredFlag(t *testing.T) {
	u := usermodel.User{UserID: "u1", FullName: "A", IsOnline: true}
	got := livePresence(u)
	if got.IsOnline != u.IsOnline {
		t.Fatalf("IsOnline = %v, want stored %v", got.IsOnline, u.IsOnline)
	}
	if got.UserID != "u1" || got.FullName != "A" {
		t.Fatalf("profile mangled: %+v", got)
	}
}
