package model

import (
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	mgo "TeamHive/service/mgo"
)

// User 用户主档。isOnline/lastSeen 只由 presence 广播器修改。
type User struct {
	UserID   string `bson:"user_id" json:"id"` // 全局唯一、不可变（雪花ID）
	FullName string `bson:"full_name" json:"fullName"`
	Email    string `bson:"email" json:"email"` // 唯一索引

	PasswordHash string `bson:"password_hash,omitempty" json:"-"` // 外部登录用户可为空
	GoogleID     string `bson:"google_id,omitempty" json:"-"`     // 稀疏唯一索引

	FaceURL string `bson:"face_url,omitempty" json:"profilePhotoUrl,omitempty"`
	Bio     string `bson:"bio,omitempty" json:"bio,omitempty"`

	IsOnline bool       `bson:"is_online" json:"isOnline"`
	LastSeen *time.Time `bson:"last_seen,omitempty" json:"lastSeen,omitempty"`

	CreateTime time.Time `bson:"create_time" json:"createdAt"`
	UpdateTime time.Time `bson:"update_time" json:"updatedAt"`
}

func (u *User) GetUserID() string { return u.UserID }

func (u *User) GetTableName() string { return "user" }

func (u *User) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(u.GetTableName())
}

// Sanitized returns a copy safe to hand to any caller. The json tags already
// hide the credential fields, but public-profile lookups go through here so
// a future tag slip cannot leak a hash.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.GoogleID = ""
	return u
}
