package model

import (
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	mgo "TeamHive/service/mgo"
)

const (
	RequestPending   = "pending"
	RequestAccepted  = "accepted"
	RequestRejected  = "rejected"
	RequestCancelled = "cancelled"
)

// SentRequest 发出方列表项。
type SentRequest struct {
	UserID string `bson:"user_id" json:"userId"`
	Status string `bson:"status" json:"status"` // pending/cancelled
}

// ReceivedRequest 接收方列表项。
type ReceivedRequest struct {
	UserID      string    `bson:"user_id" json:"userId"`
	RequestedAt time.Time `bson:"requested_at" json:"requestedAt"`
	Status      string    `bson:"status" json:"status"` // pending/accepted/rejected
}

// Social 每个用户一份社交档案（user_id 唯一索引）。
// 好友关系对称存储：A 在 B 的 friends 里，则 B 也在 A 的 friends 里，
// 由同一事务内的成对写入维持。
// 不变式：同一对用户之间最多存在一个方向的 pending 请求；
// friends 与 pending 请求对互斥。
type Social struct {
	UserID   string            `bson:"user_id" json:"userId"`
	Friends  []string          `bson:"friends" json:"friends"`
	Sent     []SentRequest     `bson:"sent" json:"sentRequests"`
	Received []ReceivedRequest `bson:"received" json:"receivedRequests"`

	UpdateTime time.Time `bson:"update_time" json:"-"`
}

func (s *Social) GetTableName() string { return "social" }

func (s *Social) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(s.GetTableName())
}

func (s *Social) HasFriend(userID string) bool {
	for _, f := range s.Friends {
		if f == userID {
			return true
		}
	}
	return false
}

// HasPendingSent reports a live outbound request to userID.
func (s *Social) HasPendingSent(userID string) bool {
	for _, r := range s.Sent {
		if r.UserID == userID && r.Status == RequestPending {
			return true
		}
	}
	return false
}

// HasPendingReceived reports a live inbound request from userID.
func (s *Social) HasPendingReceived(userID string) bool {
	for _, r := range s.Received {
		if r.UserID == userID && r.Status == RequestPending {
			return true
		}
	}
	return false
}
