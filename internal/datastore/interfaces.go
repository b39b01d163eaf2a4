// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/histolab/msinet-go/internal/conf"
	"github.com/histolab/msinet-go/internal/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.Newf("record not found").Category(errors.CategoryNotFound).Build()

// Interface abstracts the underlying database implementation and defines the
// operations the application performs against it.
type Interface interface {
	Open() error
	Close() error

	CreateUser(user *User) error
	GetUser(id uint) (*User, error)
	GetUserByEmail(email string) (*User, error)
	UserExists(email string) (bool, error)

	CreatePatient(patient *Patient) error
	GetPatient(id uint) (*Patient, error)
	GetPatientsByUser(userID uint) ([]Patient, error)

	SaveResult(result *Result) error
	GetResultsByPatient(patientID uint) ([]Result, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new datastore instance based on the provided settings.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		return nil
	}
}

// CreateUser inserts a new user record.
func (ds *DataStore) CreateUser(user *User) error {
	if err := ds.DB.Create(user).Error; err != nil {
		return errors.New(fmt.Errorf("creating user: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("email", user.Email).
			Build()
	}
	return nil
}

// GetUser retrieves a user by ID. Returns ErrNotFound when no such account
// exists.
func (ds *DataStore) GetUser(id uint) (*User, error) {
	var user User
	if err := ds.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting user with ID %d: %w", id, err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email. Returns ErrNotFound when no
// account with that email exists.
func (ds *DataStore) GetUserByEmail(email string) (*User, error) {
	var user User
	if err := ds.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return &user, nil
}

// UserExists reports whether an account with the given email exists.
func (ds *DataStore) UserExists(email string) (bool, error) {
	var count int64
	if err := ds.DB.Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("counting users by email: %w", err)
	}
	return count > 0, nil
}

// CreatePatient inserts a new patient record owned by a user.
func (ds *DataStore) CreatePatient(patient *Patient) error {
	if err := ds.DB.Create(patient).Error; err != nil {
		return errors.New(fmt.Errorf("creating patient: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("user_id", patient.UserID).
			Build()
	}
	return nil
}

// GetPatient retrieves a patient by ID with its results preloaded in
// chronological order. Returns ErrNotFound when no such patient exists.
func (ds *DataStore) GetPatient(id uint) (*Patient, error) {
	var patient Patient
	err := ds.DB.Preload("Results", func(db *gorm.DB) *gorm.DB {
		return db.Order("results.date ASC, results.id ASC")
	}).First(&patient, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting patient with ID %d: %w", id, err)
	}
	return &patient, nil
}

// GetPatientsByUser retrieves all patients owned by the given user.
func (ds *DataStore) GetPatientsByUser(userID uint) ([]Patient, error) {
	var patients []Patient
	if err := ds.DB.Where("user_id = ?", userID).Order("id ASC").Find(&patients).Error; err != nil {
		return nil, fmt.Errorf("getting patients for user %d: %w", userID, err)
	}
	return patients, nil
}

// SaveResult inserts a new classification result. The patient ID is stored
// verbatim, no existence check is performed.
func (ds *DataStore) SaveResult(result *Result) error {
	if err := ds.DB.Create(result).Error; err != nil {
		return errors.New(fmt.Errorf("saving result: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("patient_id", result.PatientID).
			Build()
	}
	return nil
}

// GetResultsByPatient retrieves all results for a patient in chronological order.
func (ds *DataStore) GetResultsByPatient(patientID uint) ([]Result, error) {
	var results []Result
	if err := ds.DB.Where("patient_id = ?", patientID).Order("date ASC, id ASC").Find(&results).Error; err != nil {
		return nil, fmt.Errorf("getting results for patient %d: %w", patientID, err)
	}
	return results, nil
}

// performAutoMigration automates database migrations with error handling.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&User{}, &Patient{}, &Result{}); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}

	if debug {
		log.Printf("%s database connection initialized: %s", dbType, connectionInfo)
	}

	return nil
}

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)
}
