package model

import "github.com/Guyuepp/go-comment-engine/domain"

type Role struct {
	UserID    string `gorm:"column:user_id;size:191;not null;uniqueIndex:uniq_user_page,priority:1"`
	Page      string `gorm:"column:page;size:191;not null;uniqueIndex:uniq_user_page,priority:2"`
	Name      string `gorm:"column:name;size:64;not null"`
	CanDelete bool   `gorm:"column:can_delete;not null"`
}

func (Role) TableName() string {
	return "role"
}

func (m *Role) ToDomain() domain.Role {
	return domain.Role{
		Name:      m.Name,
		CanDelete: m.CanDelete,
	}
}
