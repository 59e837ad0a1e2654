package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // PostgreSQL driver
	_ "github.com/jinzhu/gorm/dialects/sqlite"   // SQLite driver
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("url record not found")

	// ErrDuplicateShortCode is returned when an insert violates the short_code unique index.
	ErrDuplicateShortCode = errors.New("short code already exists")

	ErrUnsupportedDialect = errors.New("unsupported database dialect")
)

// URLRecord represents a shortened URL owned by a user.
type URLRecord struct {
	ID          uint      `gorm:"primary_key" json:"id"`
	OriginalURL string    `gorm:"type:text;not null" json:"original_url"`
	ShortCode   string    `gorm:"type:varchar(16);unique_index;not null" json:"short_code"`
	UserID      *uint     `gorm:"index" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName pins the table name instead of gorm's pluralized default.
func (URLRecord) TableName() string {
	return "urls"
}

// OwnedBy reports whether the record belongs to userID. Records without an owner belong to nobody.
func (r *URLRecord) OwnedBy(userID uint) bool {
	return r.UserID != nil && *r.UserID == userID
}

// Store persists URL records through gorm.
type Store struct {
	db *gorm.DB
}

// Open connects to the database and migrates the schema.
func Open(dialect, dataSourceName string) (*Store, error) {
	if dialect != DialectPostgres && dialect != DialectSQLite {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, dialect)
	}

	conn, err := gorm.Open(dialect, dataSourceName)
	if err != nil {
		return nil, err
	}

	store, err := NewStore(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return store, nil
}

// NewStore wraps an open connection and migrates the schema.
func NewStore(conn *gorm.DB) (*Store, error) {
	conn.BlockGlobalUpdate(true)
	if err := conn.AutoMigrate(&URLRecord{}).Error; err != nil {
		return nil, fmt.Errorf("migrating urls table: %w", err)
	}
	return &Store{db: conn}, nil
}

// Create inserts a new record. A short_code collision yields ErrDuplicateShortCode.
func (s *Store) Create(record *URLRecord) error {
	if err := s.db.Create(record).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateShortCode, record.ShortCode)
		}
		return err
	}
	return nil
}

// FindByID retrieves a record by its primary key.
func (s *Store) FindByID(id uint) (*URLRecord, error) {
	var record URLRecord
	if err := s.db.Where("id = ?", id).First(&record).Error; err != nil {
		return nil, notFound(err)
	}
	return &record, nil
}

// FindByShortCode retrieves a record by its short code.
func (s *Store) FindByShortCode(code string) (*URLRecord, error) {
	var record URLRecord
	if err := s.db.Where("short_code = ?", code).First(&record).Error; err != nil {
		return nil, notFound(err)
	}
	return &record, nil
}

// FindAllByUserID returns the records owned by userID in insertion order.
func (s *Store) FindAllByUserID(userID uint) ([]URLRecord, error) {
	records := []URLRecord{}
	if err := s.db.Where("user_id = ?", userID).Order("id asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ShortCodeExists reports whether any record already uses code.
func (s *Store) ShortCodeExists(code string) (bool, error) {
	var count int
	if err := s.db.Model(&URLRecord{}).Where("short_code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes the record with the given id.
func (s *Store) Delete(id uint) error {
	res := s.db.Where("id = ?", id).Delete(&URLRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping checks the underlying connection.
func (s *Store) Ping() error {
	return s.db.DB().Ping()
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func notFound(err error) error {
	if gorm.IsRecordNotFoundError(err) {
		return ErrNotFound
	}
	return err
}

// isUniqueViolation recognises unique-index failures from either supported driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
