package service

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	projectmodel "TeamHive/module/project/model"
	usermodel "TeamHive/module/user/model"
	userservice "TeamHive/module/user/service"
	"TeamHive/service/dispatcher"
	"TeamHive/tools/errs"
	"TeamHive/tools/ids"
)

func coll() *mongo.Collection { return (&projectmodel.Project{}).Collection() }

type CreateInput struct {
	Title       string
	Description string
	LogoURL     string
	StartDate   time.Time
	DueDate     *time.Time
	Priority    projectmodel.Priority
	Status      projectmodel.Status
	MemberIDs   []string
}

func Create(ctx context.Context, ownerID string, in CreateInput) (*projectmodel.Project, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, errs.ErrValidation.WrapMsg("title is required")
	}
	if in.StartDate.IsZero() {
		return nil, errs.ErrValidation.WrapMsg("startDate is required")
	}
	if !projectmodel.CheckDates(in.StartDate, in.DueDate) {
		return nil, errs.ErrValidation.WrapMsg("dueDate must be after startDate")
	}
	if in.Priority == "" {
		in.Priority = projectmodel.PriorityMedium
	}
	if in.Status == "" {
		in.Status = projectmodel.StatusActive
	}
	if !projectmodel.ValidPriority(in.Priority) || !projectmodel.ValidStatus(in.Status) {
		return nil, errs.ErrValidation.WrapMsg("unknown status or priority")
	}

	// Every referenced member has to resolve; the owner is added regardless.
	if _, err := userservice.ResolveMany(ctx, in.MemberIDs); err != nil {
		return nil, err
	}

	members := []string{ownerID}
	for _, id := range in.MemberIDs {
		if id != ownerID && !contains(members, id) {
			members = append(members, id)
		}
	}

	now := time.Now()
	p := &projectmodel.Project{
		ProjectID:   ids.GenerateString(),
		Title:       in.Title,
		Description: in.Description,
		LogoURL:     in.LogoURL,
		OwnerID:     ownerID,
		Members:     members,
		Admins:      []string{ownerID},
		Invited:     []string{},
		Status:      in.Status,
		Priority:    in.Priority,
		StartDate:   in.StartDate,
		DueDate:     in.DueDate,
		CreateTime:  now,
		UpdateTime:  now,
	}
	if _, err := coll().InsertOne(ctx, p); err != nil {
		return nil, errs.WrapMsg(err, "insert project")
	}
	return p, nil
}

// Load fetches a project or fails NotFound. Role checks operate on the
// loaded snapshot; set mutations below re-encode their precondition in the
// update filter so interleaved writers cannot produce lost updates.
func Load(ctx context.Context, projectID string) (*projectmodel.Project, error) {
	var p projectmodel.Project
	err := coll().FindOne(ctx, bson.M{"project_id": projectID}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrNotFound.WrapMsg("project not found", "projectID", projectID)
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find project")
	}
	return &p, nil
}

// conflictOrGone resolves a zero-match update on a project that was loaded
// a moment earlier: either the filter precondition held (the duplicate case,
// dup) or the project was deleted mid-flight, which is a NotFound, not a
// Conflict.
func conflictOrGone(ctx context.Context, projectID string, dup error) error {
	if _, err := Load(ctx, projectID); err != nil {
		return err
	}
	return dup
}

// GetForRequester is the read path: any member may look.
func GetForRequester(ctx context.Context, projectID, requesterID string) (*projectmodel.Project, error) {
	p, err := Load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := RequireMember(p, requesterID); err != nil {
		return nil, err
	}
	return p, nil
}

type Patch struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	LogoURL     *string                `json:"logoUrl"`
	StartDate   *time.Time             `json:"startDate"`
	DueDate     *time.Time             `json:"dueDate"`
	Priority    *projectmodel.Priority `json:"priority"`
	Status      *projectmodel.Status   `json:"status"`
}

func Update(ctx context.Context, projectID, requesterID string, patch Patch) (*projectmodel.Project, error) {
	p, err := Load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := RequireAdmin(p, requesterID); err != nil {
		return nil, err
	}

	set := bson.M{"update_time": time.Now()}
	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		if t == "" {
			return nil, errs.ErrValidation.WrapMsg("title cannot be empty")
		}
		set["title"] = t
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.LogoURL != nil {
		set["logo_url"] = *patch.LogoURL
	}
	if patch.Priority != nil {
		if !projectmodel.ValidPriority(*patch.Priority) {
			return nil, errs.ErrValidation.WrapMsg("unknown priority")
		}
		set["priority"] = *patch.Priority
	}
	if patch.Status != nil {
		if !projectmodel.ValidStatus(*patch.Status) {
			return nil, errs.ErrValidation.WrapMsg("unknown status")
		}
		set["status"] = *patch.Status
	}

	// 日期要按补丁后的组合重新校验
	start := p.StartDate
	if patch.StartDate != nil {
		start = *patch.StartDate
		set["start_date"] = start
	}
	due := p.DueDate
	if patch.DueDate != nil {
		due = patch.DueDate
		set["due_date"] = *patch.DueDate
	}
	if !projectmodel.CheckDates(start, due) {
		return nil, errs.ErrValidation.WrapMsg("dueDate must be after startDate")
	}

	after := options.After
	res := coll().FindOneAndUpdate(ctx,
		bson.M{"project_id": projectID},
		bson.M{"$set": set},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	)
	var out projectmodel.Project
	if err := res.Decode(&out); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errs.ErrNotFound.WrapMsg("project not found", "projectID", projectID)
		}
		return nil, errs.WrapMsg(err, "update project")
	}
	return &out, nil
}

// Delete removes the project and its tasks in one transaction; owner only.
func Delete(ctx context.Context, projectID, requesterID string) error {
	p, err := Load(ctx, projectID)
	if err != nil {
		return err
	}
	if err := RequireOwner(p, requesterID); err != nil {
		return err
	}

	db := coll().Database()
	sess, err := db.Client().StartSession()
	if err != nil {
		return errs.WrapMsg(err, "start session")
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		if _, err := db.Collection("project").DeleteOne(sc, bson.M{"project_id": projectID}); err != nil {
			return nil, err
		}
		if _, err := db.Collection("task").DeleteMany(sc, bson.M{"project_id": projectID}); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return errs.WrapMsg(err, "delete project", "projectID", projectID)
	}
	dispatcher.Publish(dispatcher.Event{Type: "project.deleted", ActorID: requesterID, ProjectID: projectID})
	return nil
}

// ListForUser returns every project the user belongs to, newest first.
func ListForUser(ctx context.Context, userID string) ([]projectmodel.Project, error) {
	cur, err := coll().Find(ctx,
		bson.M{"members": userID},
		options.Find().SetSort(bson.D{{Key: "create_time", Value: -1}}),
	)
	if err != nil {
		return nil, errs.WrapMsg(err, "list projects")
	}
	out := []projectmodel.Project{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, errs.WrapMsg(err, "decode projects")
	}
	return out, nil
}

// AddMember adds the user behind email to the members set. Admin-gated —
// uniformly with the other membership mutations.
func AddMember(ctx context.Context, projectID, requesterID, email string) (*usermodel.User, error) {
	p, err := Load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := RequireAdmin(p, requesterID); err != nil {
		return nil, err
	}
	u, err := userservice.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	// $addToSet with the "not yet a member" precondition in the filter:
	// two concurrent adds for different users both land, a duplicate add
	// surfaces as Conflict instead of silently clobbering the array.
	res, err := coll().UpdateOne(ctx,
		bson.M{"project_id": projectID, "members": bson.M{"$ne": u.UserID}},
		bson.M{
			"$addToSet": bson.M{"members": u.UserID},
			"$pull":     bson.M{"invited": u.UserID},
			"$set":      bson.M{"update_time": time.Now()},
		},
	)
	if err != nil {
		return nil, errs.WrapMsg(err, "add member")
	}
	if res.MatchedCount == 0 {
		return nil, conflictOrGone(ctx, projectID, errs.ErrConflict.WrapMsg("user is already a member"))
	}
	dispatcher.Publish(dispatcher.Event{Type: "project.member.added", ActorID: requesterID, SubjectID: u.UserID, ProjectID: projectID})
	return u, nil
}

// AddAdmin promotes (and if needed first admits) the user behind email.
func AddAdmin(ctx context.Context, projectID, requesterID, email string) (*usermodel.User, error) {
	p, err := Load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := RequireAdmin(p, requesterID); err != nil {
		return nil, err
	}
	u, err := userservice.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	res, err := coll().UpdateOne(ctx,
		bson.M{"project_id": projectID, "admins": bson.M{"$ne": u.UserID}},
		bson.M{
			"$addToSet": bson.M{"admins": u.UserID, "members": u.UserID},
			"$pull":     bson.M{"invited": u.UserID},
			"$set":      bson.M{"update_time": time.Now()},
		},
	)
	if err != nil {
		return nil, errs.WrapMsg(err, "add admin")
	}
	if res.MatchedCount == 0 {
		return nil, conflictOrGone(ctx, projectID, errs.ErrConflict.WrapMsg("user is already an admin"))
	}
	dispatcher.Publish(dispatcher.Event{Type: "project.admin.added", ActorID: requesterID, SubjectID: u.UserID, ProjectID: projectID})
	return u, nil
}

// RemoveMember evicts in one step: the id leaves both members and admins.
func RemoveMember(ctx context.Context, projectID, requesterID, memberID string) error {
	p, err := Load(ctx, projectID)
	if err != nil {
		return err
	}
	if err := RequireAdmin(p, requesterID); err != nil {
		return err
	}
	if err := RequireNotOwner(p, memberID); err != nil {
		return err
	}

	res, err := coll().UpdateOne(ctx,
		bson.M{"project_id": projectID, "members": memberID},
		bson.M{
			"$pull": bson.M{"members": memberID, "admins": memberID},
			"$set":  bson.M{"update_time": time.Now()},
		},
	)
	if err != nil {
		return errs.WrapMsg(err, "remove member")
	}
	if res.MatchedCount == 0 {
		return errs.ErrNotFound.WrapMsg("user is not a member")
	}
	dispatcher.Publish(dispatcher.Event{Type: "project.member.removed", ActorID: requesterID, SubjectID: memberID, ProjectID: projectID})
	return nil
}

// RemoveAdmin strips admin and membership both.
func RemoveAdmin(ctx context.Context, projectID, requesterID, adminID string) error {
	p, err := Load(ctx, projectID)
	if err != nil {
		return err
	}
	if err := RequireAdmin(p, requesterID); err != nil {
		return err
	}
	if err := RequireNotOwner(p, adminID); err != nil {
		return err
	}

	res, err := coll().UpdateOne(ctx,
		bson.M{"project_id": projectID, "admins": adminID},
		bson.M{
			"$pull": bson.M{"admins": adminID, "members": adminID},
			"$set":  bson.M{"update_time": time.Now()},
		},
	)
	if err != nil {
		return errs.WrapMsg(err, "remove admin")
	}
	if res.MatchedCount == 0 {
		return errs.ErrNotFound.WrapMsg("user is not an admin")
	}
	dispatcher.Publish(dispatcher.Event{Type: "project.admin.removed", ActorID: requesterID, SubjectID: adminID, ProjectID: projectID})
	return nil
}

// DemoteAdmin drops the admin role but keeps membership.
func DemoteAdmin(ctx context.Context, projectID, requesterID, adminID string) error {
	p, err := Load(ctx, projectID)
	if err != nil {
		return err
	}
	if err := RequireAdmin(p, requesterID); err != nil {
		return err
	}
	if err := RequireNotOwner(p, adminID); err != nil {
		return err
	}

	res, err := coll().UpdateOne(ctx,
		bson.M{"project_id": projectID, "admins": adminID},
		bson.M{
			"$pull": bson.M{"admins": adminID},
			"$set":  bson.M{"update_time": time.Now()},
		},
	)
	if err != nil {
		return errs.WrapMsg(err, "demote admin")
	}
	if res.MatchedCount == 0 {
		return errs.ErrNotFound.WrapMsg("user is not an admin")
	}
	dispatcher.Publish(dispatcher.Event{Type: "project.admin.demoted", ActorID: requesterID, SubjectID: adminID, ProjectID: projectID})
	return nil
}

// Invite records a pending invitation; members cannot be re-invited.
func Invite(ctx context.Context, projectID, requesterID, email string) (*usermodel.User, error) {
	p, err := Load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := RequireAdmin(p, requesterID); err != nil {
		return nil, err
	}
	u, err := userservice.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if contains(p.Members, u.UserID) {
		return nil, errs.ErrConflict.WrapMsg("user is already a member")
	}
	if contains(p.Invited, u.UserID) {
		return nil, errs.ErrConflict.WrapMsg("user is already invited")
	}

	res, err := coll().UpdateOne(ctx,
		bson.M{
			"project_id": projectID,
			"members":    bson.M{"$ne": u.UserID},
			"invited":    bson.M{"$ne": u.UserID},
		},
		bson.M{
			"$addToSet": bson.M{"invited": u.UserID},
			"$set":      bson.M{"update_time": time.Now()},
		},
	)
	if err != nil {
		return nil, errs.WrapMsg(err, "invite")
	}
	if res.MatchedCount == 0 {
		return nil, conflictOrGone(ctx, projectID, errs.ErrConflict.WrapMsg("user is already invited or a member"))
	}
	dispatcher.Publish(dispatcher.Event{Type: "project.invited", ActorID: requesterID, SubjectID: u.UserID, ProjectID: projectID})
	return u, nil
}

func Uninvite(ctx context.Context, projectID, requesterID, invitedID string) error {
	p, err := Load(ctx, projectID)
	if err != nil {
		return err
	}
	if err := RequireAdmin(p, requesterID); err != nil {
		return err
	}

	res, err := coll().UpdateOne(ctx,
		bson.M{"project_id": projectID, "invited": invitedID},
		bson.M{
			"$pull": bson.M{"invited": invitedID},
			"$set":  bson.M{"update_time": time.Now()},
		},
	)
	if err != nil {
		return errs.WrapMsg(err, "uninvite")
	}
	if res.MatchedCount == 0 {
		return errs.ErrNotFound.WrapMsg("no pending invitation for user")
	}
	dispatcher.Publish(dispatcher.Event{Type: "project.uninvited", ActorID: requesterID, SubjectID: invitedID, ProjectID: projectID})
	return nil
}
