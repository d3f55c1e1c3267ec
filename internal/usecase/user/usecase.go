package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "user-wire-service/internal/domain/user"
	apperrors "user-wire-service/pkg/errors"
	"user-wire-service/pkg/logger"
)

// userBody is the JSON document accepted by Create and Update. An "id" key is ignored.
type userBody struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required"`
}

// Usecase runs each operation as: parse input, acquire one session, issue one statement.
// Parse failures and backend failures both surface as InternalError; only a lookup that
// ran and matched nothing is NotFound.
type Usecase struct {
	store    Store               // Persistence port
	log      *zap.Logger         // Logger for structured logging
	validate *validator.Validate // Validator for request bodies
}

// New creates a new instance of Usecase with the provided store and logger.
func New(s Store, log *zap.Logger) *Usecase {
	return &Usecase{store: s, log: log, validate: validator.New()}
}

// ParseID converts the id segment of a path into the int32 id domain.
func ParseID(text string) (int32, error) {
	id, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return 0, apperrors.NewParseError("id", fmt.Sprintf("%q is not a 32-bit integer", text), err)
	}
	return int32(id), nil
}

// decodeBody parses and validates a Create/Update request body.
func (uc *Usecase) decodeBody(body string) (*userBody, error) {
	var in userBody
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		return nil, apperrors.NewParseError("body", "malformed user document", err)
	}
	if err := uc.validate.Struct(in); err != nil {
		return nil, apperrors.NewParseError("body", formatValidationError(err), err)
	}
	return &in, nil
}

// formatValidationError converts validator.ValidationErrors into a human-readable message.
func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", e.Field()))
		}
	}
	return strings.Join(messages, ", ")
}

// connect opens a session, wrapping failures so they stay distinguishable from statement errors.
func (uc *Usecase) connect(ctx context.Context) (Session, error) {
	sess, err := uc.store.Connect(ctx)
	if err != nil {
		return nil, apperrors.NewConnectError(err)
	}
	return sess, nil
}

// release closes a session; a close failure does not change the outcome.
func (uc *Usecase) release(ctx context.Context, sess Session) {
	if err := sess.Close(); err != nil {
		logger.WithContext(ctx, uc.log).Warn("failed to release database session", zap.Error(err))
	}
}

// failed logs why an operation ends in InternalError: rejected input at warn,
// backend failures at error.
func failed(log *zap.Logger, op string, err error, fields ...zap.Field) Outcome {
	fields = append(fields, zap.Error(err))
	switch {
	case apperrors.IsParse(err):
		log.Warn(op+" rejected", fields...)
	case apperrors.IsConnect(err):
		log.Error(op+" failed: database unavailable", fields...)
	default:
		log.Error(op+" failed", fields...)
	}
	return InternalError()
}

// Create inserts a user built from the request body. The assigned id is not echoed back.
func (uc *Usecase) Create(ctx context.Context, body string) Outcome {
	log := logger.WithContext(ctx, uc.log)

	in, err := uc.decodeBody(body)
	if err != nil {
		return failed(log, "create user", err)
	}

	sess, err := uc.connect(ctx)
	if err != nil {
		return failed(log, "create user", err)
	}
	defer uc.release(ctx, sess)

	id, err := sess.Insert(ctx, &domain.User{Name: in.Name, Email: in.Email})
	if err != nil {
		return failed(log, "create user", err)
	}

	log.Info("user created", zap.Int32("id", id))
	return Success(MsgUserCreated)
}

// ReadOne looks a user up by id. A connect failure is InternalError; a lookup that
// returns no row or errors once connected is NotFound.
func (uc *Usecase) ReadOne(ctx context.Context, idText string) Outcome {
	log := logger.WithContext(ctx, uc.log)

	id, err := ParseID(idText)
	if err != nil {
		return failed(log, "get user", err)
	}

	sess, err := uc.connect(ctx)
	if err != nil {
		return failed(log, "get user", err, zap.Int32("id", id))
	}
	defer uc.release(ctx, sess)

	u, err := sess.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Info("user not found", zap.Int32("id", id))
		} else {
			log.Warn("user lookup failed, reporting not found", zap.Int32("id", id), zap.Error(err))
		}
		return NotFound()
	}

	payload, err := json.Marshal(u)
	if err != nil {
		return failed(log, "get user", err, zap.Int32("id", id))
	}

	return Success(string(payload))
}

// ReadAll returns every row as a JSON array, in the order the backend yields them.
func (uc *Usecase) ReadAll(ctx context.Context) Outcome {
	log := logger.WithContext(ctx, uc.log)

	sess, err := uc.connect(ctx)
	if err != nil {
		return failed(log, "list users", err)
	}
	defer uc.release(ctx, sess)

	users, err := sess.List(ctx)
	if err != nil {
		return failed(log, "list users", err)
	}
	if users == nil {
		users = []domain.User{}
	}

	payload, err := json.Marshal(users)
	if err != nil {
		log.Error("failed to encode users", zap.Int("count", len(users)), zap.Error(err))
		return InternalError()
	}

	log.Debug("listed users", zap.Int("count", len(users)))
	return Success(string(payload))
}

// Update overwrites name and email of the row with the given id. It reports success
// whether or not a row matched.
func (uc *Usecase) Update(ctx context.Context, idText, body string) Outcome {
	log := logger.WithContext(ctx, uc.log)

	id, err := ParseID(idText)
	if err != nil {
		return failed(log, "update user", err)
	}

	in, err := uc.decodeBody(body)
	if err != nil {
		return failed(log, "update user", err, zap.Int32("id", id))
	}

	sess, err := uc.connect(ctx)
	if err != nil {
		return failed(log, "update user", err, zap.Int32("id", id))
	}
	defer uc.release(ctx, sess)

	if err := sess.Update(ctx, &domain.User{ID: &id, Name: in.Name, Email: in.Email}); err != nil {
		return failed(log, "update user", err, zap.Int32("id", id))
	}

	log.Info("user updated", zap.Int32("id", id))
	return Success(MsgUserUpdated)
}

// Delete removes the row with the given id. It reports success whether or not a row matched.
func (uc *Usecase) Delete(ctx context.Context, idText string) Outcome {
	log := logger.WithContext(ctx, uc.log)

	id, err := ParseID(idText)
	if err != nil {
		return failed(log, "delete user", err)
	}

	sess, err := uc.connect(ctx)
	if err != nil {
		return failed(log, "delete user", err, zap.Int32("id", id))
	}
	defer uc.release(ctx, sess)

	if err := sess.Delete(ctx, id); err != nil {
		return failed(log, "delete user", err, zap.Int32("id", id))
	}

	log.Info("user deleted", zap.Int32("id", id))
	return Success(MsgUserDeleted)
}
