package service

import (
	"context"

	socialservice "TeamHive/module/social/service"
	usermodel "TeamHive/module/user/model"
	userservice "TeamHive/module/user/service"
)

// NonMemberFriends lists the requester's friends who are not yet project
// members — the invitation candidates. Admin-gated, profiles sanitized.
func NonMemberFriends(ctx context.Context, projectID, requesterID string) ([]usermodel.User, error) {
	p, err := Load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := RequireAdmin(p, requesterID); err != nil {
		return nil, err
	}

	social, err := socialservice.GetProfile(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	var candidates []string
	for _, friendID := range social.Friends {
		if !contains(p.Members, friendID) {
			candidates = append(candidates, friendID)
		}
	}
	if len(candidates) == 0 {
		return []usermodel.User{}, nil
	}

	users, err := userservice.ResolveMany(ctx, candidates)
	if err != nil {
		return nil, err
	}
	out := make([]usermodel.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Sanitized())
	}
	return out, nil
}
