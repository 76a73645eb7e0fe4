package model

import (
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	projectmodel "TeamHive/module/project/model"
	mgo "TeamHive/service/mgo"
)

type Status string

// 状态是自由枚举：任何状态都可以被有权限的人改成任何其它状态，
// 没有强制的单向工作流。
const (
	StatusToDo       Status = "ToDo"
	StatusInProgress Status = "InProgress"
	StatusDone       Status = "Done"
	StatusCancelled  Status = "Cancelled"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusDone, StatusCancelled:
		return true
	}
	return false
}

// Task 任务，生命周期受所属项目约束（项目删除时级联删除）。
type Task struct {
	TaskID    string `bson:"task_id" json:"id"`
	ProjectID string `bson:"project_id" json:"projectId"` // 创建后不可变

	Title       string `bson:"title" json:"title"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Feedback    string `bson:"feedback,omitempty" json:"feedback,omitempty"`

	// 赋值时必须是项目成员；成员之后被移除不回溯修改
	AssignedTo string `bson:"assigned_to,omitempty" json:"assignedTo,omitempty"`

	Status   Status                `bson:"status" json:"status"`
	Priority projectmodel.Priority `bson:"priority" json:"priority"`

	StartDate time.Time  `bson:"start_date" json:"startDate"`
	DueDate   *time.Time `bson:"due_date,omitempty" json:"dueDate,omitempty"`

	CreateTime time.Time `bson:"create_time" json:"createdAt"`
	UpdateTime time.Time `bson:"update_time" json:"updatedAt"`
}

func (t *Task) GetTableName() string { return "task" }

func (t *Task) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(t.GetTableName())
}
