package model

import (
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	mgo "TeamHive/service/mgo"
)

type Status string

const (
	StatusActive    Status = "Active"
	StatusCompleted Status = "Completed"
	StatusOnHold    Status = "OnHold"
	StatusCancelled Status = "Cancelled"
)

type Priority string

const (
	PriorityUrgent Priority = "Urgent"
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusCompleted, StatusOnHold, StatusCancelled:
		return true
	}
	return false
}

func ValidPriority(p Priority) bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Project 项目聚合。不变式：
//   - OwnerID ∈ Members ∩ Admins，且永远不可移除
//   - Admins ⊆ Members
//   - Invited 与 Members 互斥
type Project struct {
	ProjectID   string `bson:"project_id" json:"id"`
	Title       string `bson:"title" json:"title"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	LogoURL     string `bson:"logo_url,omitempty" json:"logoUrl,omitempty"`

	OwnerID string   `bson:"owner_id" json:"ownerId"` // 创建后不可变
	Members []string `bson:"members" json:"members"`
	Admins  []string `bson:"admins" json:"admins"`
	Invited []string `bson:"invited" json:"invited"`

	Status   Status   `bson:"status" json:"status"`
	Priority Priority `bson:"priority" json:"priority"`

	StartDate time.Time  `bson:"start_date" json:"startDate"`
	DueDate   *time.Time `bson:"due_date,omitempty" json:"dueDate,omitempty"`

	CreateTime time.Time `bson:"create_time" json:"createdAt"`
	UpdateTime time.Time `bson:"update_time" json:"updatedAt"`
}

func (p *Project) GetTableName() string { return "project" }

func (p *Project) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(p.GetTableName())
}

// CheckDates enforces dueDate > startDate when a due date is present.
func CheckDates(start time.Time, due *time.Time) bool {
	return due == nil || due.After(start)
}
