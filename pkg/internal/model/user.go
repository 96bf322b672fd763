package model

import "time"

// UserRecord 与机器人交互过的用户.
type UserRecord struct {
	ID        uint      `bson:"-"                  gorm:"primaryKey"           json:"-"`
	UserID    int64     `bson:"user_id"            gorm:"uniqueIndex"          json:"user_id"`
	Username  string    `bson:"username,omitempty" gorm:"size:255"             json:"username,omitempty"`
	FirstName string    `bson:"first_name"         gorm:"size:255"             json:"first_name"`
	Banned    bool      `bson:"banned"             gorm:"not null;default:false" json:"banned"`
	JoinDate  time.Time `bson:"join_date"                                      json:"join_date"`
}

// TableName 指定 SQL 表名.
func (UserRecord) TableName() string { return "users" }

// ChatRecord 机器人所在的群组或频道.
type ChatRecord struct {
	ID        uint      `bson:"-"               gorm:"primaryKey"  json:"-"`
	ChatID    int64     `bson:"chat_id"         gorm:"uniqueIndex" json:"chat_id"`
	Type      string    `bson:"type"            gorm:"size:32"     json:"type"`
	Title     string    `bson:"title,omitempty" gorm:"size:255"    json:"title,omitempty"`
	DateAdded time.Time `bson:"date_added"                         json:"date_added"`
}

// TableName 指定 SQL 表名.
func (ChatRecord) TableName() string { return "chats" }

// Totals 记录存储的汇总计数.
type Totals struct {
	Users int64 `json:"users"`
	Files int64 `json:"files"`
	Chats int64 `json:"chats"`
}
