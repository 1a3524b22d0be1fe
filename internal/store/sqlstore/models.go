package sqlstore

import "time"

// Table rows. Ads are managed outside the bot; the bot only reads them.

type userRow struct {
	UserID    int64     `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	Username  string    `gorm:"column:username;size:255"`
	Language  string    `gorm:"column:language;size:8;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (userRow) TableName() string { return "users" }

type groupRow struct {
	GroupID   int64     `gorm:"column:group_id;primaryKey;autoIncrement:false"`
	GroupName string    `gorm:"column:group_name;size:255"`
	Language  string    `gorm:"column:language;size:8;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (groupRow) TableName() string { return "groups" }

type pointRow struct {
	OwnerType string `gorm:"column:owner_type;primaryKey;size:8"`
	OwnerID   int64  `gorm:"column:owner_id;primaryKey;autoIncrement:false"`
	Point     int64  `gorm:"column:point;not null;default:0"`
}

func (pointRow) TableName() string { return "points" }

type adRow struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	Content   string    `gorm:"column:content;type:text;not null"`
	URL       string    `gorm:"column:url;size:512"`
	IsActive  bool      `gorm:"column:is_active;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
}

func (adRow) TableName() string { return "ads" }

type adViewLogRow struct {
	ID           int64     `gorm:"column:id;primaryKey"`
	OwnerType    string    `gorm:"column:owner_type;size:8;not null;uniqueIndex:idx_ad_view_owner_day,priority:1"`
	OwnerID      int64     `gorm:"column:owner_id;not null;uniqueIndex:idx_ad_view_owner_day,priority:2"`
	AdID         int64     `gorm:"column:ad_id;not null;index"`
	PointsEarned int64     `gorm:"column:points_earned;not null"`
	ViewedAt     time.Time `gorm:"column:viewed_at;not null"`
	ViewDay      string    `gorm:"column:view_day;size:10;not null;uniqueIndex:idx_ad_view_owner_day,priority:3"`
}

func (adViewLogRow) TableName() string { return "ad_view_logs" }

func allModels() []any {
	return []any{&userRow{}, &groupRow{}, &pointRow{}, &adRow{}, &adViewLogRow{}}
}
