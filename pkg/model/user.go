package model

import "time"

type User struct {
	ID                 string    `json:"id" bson:"_id"`
	Name               string    `json:"name" bson:"name"`
	Phone              string    `json:"phone" bson:"phone"`
	Email              string    `json:"email,omitempty" bson:"email,omitempty"`
	Role               string    `json:"role" bson:"role"`
	PasswordHash       string    `json:"-" bson:"password_hash"`
	MustChangePassword bool      `json:"must_change_password" bson:"must_change_password"`
	CreatedAt          time.Time `json:"created_at" bson:"created_at"`
}
