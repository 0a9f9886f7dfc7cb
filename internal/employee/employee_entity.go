package employee

import (
	"time"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

var genderLabels = map[Gender]string{
	GenderMale:   "Nam",
	GenderFemale: "Nữ",
	GenderOther:  "Khác",
}

func (g Gender) Valid() bool {
	_, ok := genderLabels[g]
	return ok
}

// Label is the display name shown next to the symbolic value.
func (g Gender) Label() string {
	return genderLabels[g]
}

type Employee struct {
	ID             int64      `gorm:"column:id;primaryKey;autoIncrement"`
	FullName       string     `gorm:"column:full_name;type:varchar(160);not null"`
	Email          string     `gorm:"column:email;type:varchar(255);not null;uniqueIndex:uq_employees_email"`
	DateOfBirth    time.Time  `gorm:"column:date_of_birth;type:date;not null"`
	Gender         Gender     `gorm:"column:gender;type:varchar(10);not null"`
	PhoneNumber    string     `gorm:"column:phone_number;type:varchar(10);not null"`
	Active         bool       `gorm:"column:active;not null"`
	HashedPassword string     `gorm:"column:hashed_password;type:text;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;not null;<-:create"`
	UpdatedAt      *time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (Employee) TableName() string {
	return "employees"
}
