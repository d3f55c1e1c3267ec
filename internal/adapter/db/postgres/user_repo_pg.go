package postgres

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-wire-service/internal/domain/user"
	usecase "user-wire-service/internal/usecase/user"
	apperrors "user-wire-service/pkg/errors"
	"user-wire-service/pkg/logger"
)

// UserStore implements the usecase Store port on top of a pooled GORM database.
type UserStore struct {
	db  *gorm.DB    // GORM database handle backed by a connection pool
	log *zap.Logger // Structured logger for database operations
}

// NewUserStore creates a new instance of UserStore.
func NewUserStore(db *gorm.DB, log *zap.Logger) *UserStore {
	return &UserStore{db: db, log: log}
}

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID    int32  `gorm:"primaryKey;autoIncrement"` // SERIAL primary key
	Name  string `gorm:"type:text;not null"`       // User's full name (required)
	Email string `gorm:"type:text;not null"`       // User's email address (required)
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

func (m UserSchema) toDomain() user.User {
	id := m.ID
	return user.User{ID: &id, Name: m.Name, Email: m.Email}
}

// Migrate creates the users table if it does not exist yet.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&UserSchema{}); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

// Ping checks that the pool can reach the database.
func (s *UserStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Connect checks a connection out of the pool and pins a session to it.
func (s *UserStore) Connect(ctx context.Context) (usecase.Session, error) {
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		logger.WithContext(ctx, s.log).Error("failed to acquire database connection", zap.Error(err))
		return nil, apperrors.NewConnectError(err)
	}

	// Every statement issued through tx runs on conn until Close returns it to the pool
	tx := s.db.Session(&gorm.Session{NewDB: true, Context: ctx})
	tx.Statement.ConnPool = conn

	return &userSession{tx: tx, closer: conn.Close, log: s.log}, nil
}

// userSession issues single statements over one pinned connection.
type userSession struct {
	tx     *gorm.DB
	closer func() error
	log    *zap.Logger
}

// Insert adds a row and returns the id the database assigned.
func (r *userSession) Insert(ctx context.Context, u *user.User) (int32, error) {
	if u == nil {
		return 0, errors.New("user cannot be nil")
	}

	model := UserSchema{
		Name:  u.Name,
		Email: u.Email,
	}

	if err := r.tx.WithContext(ctx).Create(&model).Error; err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	logger.WithContext(ctx, r.log).Debug("user row inserted", zap.Int32("id", model.ID))
	return model.ID, nil
}

// FindByID retrieves a single row by id.
func (r *userSession) FindByID(ctx context.Context, id int32) (*user.User, error) {
	var model UserSchema
	if err := r.tx.WithContext(ctx).Where("id = ?", id).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("user", fmt.Sprintf("user not found: id=%d", id))
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u := model.toDomain()
	return &u, nil
}

// List retrieves every row without filtering or ordering.
func (r *userSession) List(ctx context.Context) ([]user.User, error) {
	var models []UserSchema
	if err := r.tx.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]user.User, len(models))
	for i, model := range models {
		users[i] = model.toDomain()
	}

	return users, nil
}

// Update overwrites name and email of the row with u.ID.
func (r *userSession) Update(ctx context.Context, u *user.User) error {
	if !u.Persisted() {
		return errors.New("user id is required for update")
	}

	result := r.tx.WithContext(ctx).
		Model(&UserSchema{}).
		Where("id = ?", *u.ID).
		Updates(map[string]any{"name": u.Name, "email": u.Email})
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}

	logger.WithContext(ctx, r.log).Debug("user update executed", zap.Int32("id", *u.ID), zap.Int64("rows", result.RowsAffected))
	return nil
}

// Delete removes the row with the given id.
func (r *userSession) Delete(ctx context.Context, id int32) error {
	result := r.tx.WithContext(ctx).Where("id = ?", id).Delete(&UserSchema{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}

	logger.WithContext(ctx, r.log).Debug("user delete executed", zap.Int32("id", id), zap.Int64("rows", result.RowsAffected))
	return nil
}

// Close returns the pinned connection to the pool.
func (r *userSession) Close() error {
	return r.closer()
}
