package model

import (
	"time"

	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Bookmark{},
}

// Bookmark is the persisted row of a frame bookmark. The annotation is kept
// as a versioned JSON document so old rows stay readable after the canvas
// format moves on.
type Bookmark struct {
	ID         string         `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	FrameKey   string         `json:"frameKey" gorm:"index;size:255;not null"`
	Name       string         `json:"name" gorm:"size:255"`
	Note       string         `json:"note"`
	UserType   string         `json:"userType" gorm:"size:64"`
	Annotation datatypes.JSON `json:"annotation"`
}

func (*Bookmark) TableName() string {
	return "bookmarks"
}
