package domain

import "time"

// Base 所有实体共有字段；ID 由存储层在创建时生成
type Base struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) Key() string        { return b.ID }
func (b *Base) AssignID(id string) { b.ID = id }

// Entity 由 *Base 的嵌入自动满足
type Entity interface {
	Key() string
	AssignID(id string)
}

// Owned 归属某个用户的记录
type Owned interface {
	OwnerID() string
	SetOwner(userID string)
}

// Date 只取日期部分（UTC）
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
