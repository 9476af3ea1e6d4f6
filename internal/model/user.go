package model

import "time"

// User is the persisted user record. The id is an application-assigned UUID
// stored as the Mongo _id.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	PasswordHash string    `json:"-" bson:"passwordHash"`
	Role         string    `json:"role" bson:"role"`
	Course       string    `json:"course" bson:"course"`
	Major        string    `json:"major" bson:"major"`
	Semester     int       `json:"semester" bson:"semester"`
	Gender       string    `json:"gender" bson:"gender"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	LastLogin    time.Time `json:"lastLogin" bson:"lastLogin"`
}

// RegistrationForm is the registration request body. Semester arrives as the
// form's label string ("Semester 3") and is parsed server-side.
type RegistrationForm struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Gender   string `json:"gender"`
	Course   string `json:"course"`
	Semester string `json:"semester"`
	Major    string `json:"major"`
}

// RegistrationResult mirrors the {success, message} contract of the
// registration endpoint.
type RegistrationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
