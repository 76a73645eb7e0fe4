package service

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	projectmodel "TeamHive/module/project/model"
	projectservice "TeamHive/module/project/service"
	taskmodel "TeamHive/module/task/model"
	userservice "TeamHive/module/user/service"
	"TeamHive/tools/errs"
	"TeamHive/tools/ids"
)

func coll() *mongo.Collection { return (&taskmodel.Task{}).Collection() }

type CreateInput struct {
	Title       string
	Description string
	Feedback    string
	AssignedTo  string
	Status      taskmodel.Status
	Priority    projectmodel.Priority
	StartDate   time.Time
	DueDate     *time.Time
}

func Create(ctx context.Context, projectID, requesterID string, in CreateInput) (*taskmodel.Task, error) {
	p, err := projectservice.Load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := projectservice.RequireAdmin(p, requesterID); err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, errs.ErrValidation.WrapMsg("title is required")
	}
	if in.Status == "" {
		in.Status = taskmodel.StatusToDo
	}
	if in.Priority == "" {
		in.Priority = projectmodel.PriorityMedium
	}
	if !taskmodel.ValidStatus(in.Status) || !projectmodel.ValidPriority(in.Priority) {
		return nil, errs.ErrValidation.WrapMsg("unknown status or priority")
	}
	if in.StartDate.IsZero() {
		in.StartDate = time.Now()
	}
	if !projectmodel.CheckDates(in.StartDate, in.DueDate) {
		return nil, errs.ErrValidation.WrapMsg("dueDate must be after startDate")
	}
	if in.AssignedTo != "" {
		if _, err := userservice.GetByID(ctx, in.AssignedTo); err != nil {
			return nil, errs.ErrValidation.WrapMsg("assignee does not exist")
		}
		if projectservice.RoleOf(p, in.AssignedTo) == projectservice.RoleNone {
			return nil, errs.ErrValidation.WrapMsg("assignee is not a project member")
		}
	}

	now := time.Now()
	t := &taskmodel.Task{
		TaskID:      ids.GenerateString(),
		ProjectID:   projectID,
		Title:       in.Title,
		Description: in.Description,
		Feedback:    in.Feedback,
		AssignedTo:  in.AssignedTo,
		Status:      in.Status,
		Priority:    in.Priority,
		StartDate:   in.StartDate,
		DueDate:     in.DueDate,
		CreateTime:  now,
		UpdateTime:  now,
	}
	if _, err := coll().InsertOne(ctx, t); err != nil {
		return nil, errs.WrapMsg(err, "insert task")
	}
	return t, nil
}

// List returns the project's tasks, newest first. Plain members only see
// the tasks assigned to them; admins and the owner see everything.
func List(ctx context.Context, projectID, requesterID string) ([]taskmodel.Task, error) {
	p, err := projectservice.Load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := projectservice.RequireMember(p, requesterID); err != nil {
		return nil, err
	}

	filter := bson.M{"project_id": projectID}
	if projectservice.RoleOf(p, requesterID) == projectservice.RoleMember {
		filter["assigned_to"] = requesterID
	}

	cur, err := coll().Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "create_time", Value: -1}}),
	)
	if err != nil {
		return nil, errs.WrapMsg(err, "list tasks")
	}
	out := []taskmodel.Task{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, errs.WrapMsg(err, "decode tasks")
	}
	return out, nil
}

// GetByID scopes the lookup to the project so a guessed task id from another
// project reads as NotFound.
func GetByID(ctx context.Context, projectID, taskID, requesterID string) (*taskmodel.Task, error) {
	p, err := projectservice.Load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := projectservice.RequireMember(p, requesterID); err != nil {
		return nil, err
	}

	var t taskmodel.Task
	err = coll().FindOne(ctx, bson.M{"task_id": taskID, "project_id": projectID}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrNotFound.WrapMsg("task not found", "taskID", taskID)
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find task")
	}
	return &t, nil
}

type Patch struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Feedback    *string                `json:"feedback"`
	AssignedTo  *string                `json:"assignedTo"`
	Status      *taskmodel.Status      `json:"status"`
	Priority    *projectmodel.Priority `json:"priority"`
	StartDate   *time.Time             `json:"startDate"`
	DueDate     *time.Time             `json:"dueDate"`
}

// Update is open to project admins and to the task's assignee.
func Update(ctx context.Context, projectID, taskID, requesterID string, patch Patch) (*taskmodel.Task, error) {
	p, err := projectservice.Load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := projectservice.RequireMember(p, requesterID); err != nil {
		return nil, err
	}

	var t taskmodel.Task
	err = coll().FindOne(ctx, bson.M{"task_id": taskID, "project_id": projectID}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrNotFound.WrapMsg("task not found", "taskID", taskID)
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find task")
	}

	isAdmin := projectservice.RoleOf(p, requesterID) >= projectservice.RoleAdmin
	if !isAdmin && t.AssignedTo != requesterID {
		return nil, errs.ErrForbidden.WrapMsg("only admins or the assignee may update a task")
	}

	set := bson.M{"update_time": time.Now()}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, errs.ErrValidation.WrapMsg("title cannot be empty")
		}
		set["title"] = title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Feedback != nil {
		set["feedback"] = *patch.Feedback
	}
	if patch.Status != nil {
		if !taskmodel.ValidStatus(*patch.Status) {
			return nil, errs.ErrValidation.WrapMsg("unknown status")
		}
		set["status"] = *patch.Status
	}
	if patch.Priority != nil {
		if !projectmodel.ValidPriority(*patch.Priority) {
			return nil, errs.ErrValidation.WrapMsg("unknown priority")
		}
		set["priority"] = *patch.Priority
	}
	if patch.AssignedTo != nil {
		if *patch.AssignedTo != "" {
			if _, err := userservice.GetByID(ctx, *patch.AssignedTo); err != nil {
				return nil, errs.ErrValidation.WrapMsg("assignee does not exist")
			}
			if projectservice.RoleOf(p, *patch.AssignedTo) == projectservice.RoleNone {
				return nil, errs.ErrValidation.WrapMsg("assignee is not a project member")
			}
		}
		set["assigned_to"] = *patch.AssignedTo
	}

	start := t.StartDate
	if patch.StartDate != nil {
		start = *patch.StartDate
		set["start_date"] = start
	}
	due := t.DueDate
	if patch.DueDate != nil {
		due = patch.DueDate
		set["due_date"] = *patch.DueDate
	}
	if !projectmodel.CheckDates(start, due) {
		return nil, errs.ErrValidation.WrapMsg("dueDate must be after startDate")
	}

	after := options.After
	res := coll().FindOneAndUpdate(ctx,
		bson.M{"task_id": taskID, "project_id": projectID},
		bson.M{"$set": set},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	)
	var out taskmodel.Task
	if err := res.Decode(&out); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errs.ErrNotFound.WrapMsg("task not found", "taskID", taskID)
		}
		return nil, errs.WrapMsg(err, "update task")
	}
	return &out, nil
}

func Delete(ctx context.Context, projectID, taskID, requesterID string) error {
	p, err := projectservice.Load(ctx, projectID)
	if err != nil {
		return err
	}
	if err := projectservice.RequireAdmin(p, requesterID); err != nil {
		return err
	}

	res, err := coll().DeleteOne(ctx, bson.M{"task_id": taskID, "project_id": projectID})
	if err != nil {
		return errs.WrapMsg(err, "delete task")
	}
	if res.DeletedCount == 0 {
		return errs.ErrNotFound.WrapMsg("task not found", "taskID", taskID)
	}
	return nil
}
