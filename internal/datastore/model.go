// model.go this code defines the data model for the application
package datastore

import "time"

// User represents a registered clinician account
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Email     string `gorm:"uniqueIndex;size:150;not null"`
	Password  string `gorm:"size:150;not null"` // bcrypt hash, never plaintext
	FirstName string `gorm:"size:150"`
	CreatedAt time.Time
	Patients  []Patient `gorm:"foreignKey:UserID"`
}

// Patient represents a case record owned by exactly one user
type Patient struct {
	ID        uint   `gorm:"primaryKey"`
	FirstName string `gorm:"size:150"`
	UserID    uint   `gorm:"index;not null"` // Foreign key to associate with User
	CreatedAt time.Time
	Results   []Result `gorm:"foreignKey:PatientID"`
}

// Result represents a single classification event tied to a patient.
// Percentage is stored as the display string the user reviewed, verbatim.
type Result struct {
	ID         uint   `gorm:"primaryKey"`
	Note       string `gorm:"type:text"`
	Percentage string `gorm:"size:150"`
	Date       time.Time `gorm:"autoCreateTime;index"`
	PatientID  uint      `gorm:"index;not null"` // Foreign key to associate with Patient
	UserID     *uint     // Optional foreign key to User, unused in practice
}
