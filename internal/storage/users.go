package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/classifieds/internal/lib/password"
	"github.com/magabrotheeeer/classifieds/internal/models"
)

const userColumns = `uid, name, email, avatar_id, avatar_url, verified,
	otp, otp_expiry, reset_otp, reset_otp_expiry, created_at`

type selectOptions struct {
	withPassword bool
}

// SelectOption настройка выборки пользователя.
type SelectOption func(*selectOptions)

// WithPassword добавляет хеш пароля в выборку. По умолчанию он не читается.
func WithPassword() SelectOption {
	return func(o *selectOptions) {
		o.withPassword = true
	}
}

func buildSelectOptions(opts []SelectOption) selectOptions {
	var o selectOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func selectUserQuery(o selectOptions, where string) string {
	columns := userColumns
	if o.withPassword {
		columns += ", password_hash"
	}
	return "SELECT " + columns + " FROM users " + where
}

func scanUser(row scanner, withPassword bool) (*models.User, error) {
	var (
		u                         models.User
		otp, resetOTP             sql.NullInt64
		otpExpiry, resetOTPExpiry sql.NullTime
	)
	dest := []any{
		&u.UUID, &u.Name, &u.Email, &u.Avatar.ID, &u.Avatar.URL, &u.Verified,
		&otp, &otpExpiry, &resetOTP, &resetOTPExpiry, &u.CreatedAt,
	}
	if withPassword {
		dest = append(dest, &u.PasswordHash)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	u.OTP = intPtr(otp)
	u.OTPExpiry = timePtr(otpExpiry)
	u.ResetOTP = intPtr(resetOTP)
	u.ResetOTPExpiry = timePtr(resetOTPExpiry)
	return &u, nil
}

// CreateUser сохраняет нового пользователя и возвращает его UID.
//
// Пароль берется из NewPassword и хешируется перед записью.
func (s *Storage) CreateUser(ctx context.Context, user *models.User) (string, error) {
	const op = "storage.CreateUser"

	if user.NewPassword == "" {
		return "", fmt.Errorf("%s: password is empty", op)
	}
	hash, err := password.GetHash(user.NewPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO users (name, email, password_hash, avatar_id, avatar_url,
			      verified, otp, otp_expiry)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING uid, created_at`
	err = s.DB.QueryRowContext(ctx, query,
		user.Name, user.Email, hash, user.Avatar.ID, user.Avatar.URL,
		user.Verified, nullInt(user.OTP), nullTime(user.OTPExpiry),
	).Scan(&user.UUID, &user.CreatedAt)
	if isUniqueViolation(err) {
		return "", fmt.Errorf("%s: %w", op, ErrUserExists)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	user.PasswordHash = hash
	user.NewPassword = ""
	return user.UUID, nil
}

// GetUserByEmail возвращает пользователя по почте (с учетом регистра).
func (s *Storage) GetUserByEmail(ctx context.Context, email string, opts ...SelectOption) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	o := buildSelectOptions(opts)
	row := s.DB.QueryRowContext(ctx, selectUserQuery(o, "WHERE email = $1"), email)
	u, err := scanUser(row, o.withPassword)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByID возвращает пользователя по UID.
func (s *Storage) GetUserByID(ctx context.Context, userUID string, opts ...SelectOption) (*models.User, error) {
	const op = "storage.GetUserByID"
	o := buildSelectOptions(opts)
	row := s.DB.QueryRowContext(ctx, selectUserQuery(o, "WHERE uid = $1"), userUID)
	u, err := scanUser(row, o.withPassword)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByResetOTP ищет пользователя с действующим кодом сброса пароля.
//
// Срок действия проверяется в самом запросе: просроченный код не найдется.
func (s *Storage) GetUserByResetOTP(ctx context.Context, code int, now time.Time) (*models.User, error) {
	const op = "storage.GetUserByResetOTP"
	query := selectUserQuery(selectOptions{},
		`WHERE reset_otp = $1 AND reset_otp_expiry > $2
		 ORDER BY reset_otp_expiry DESC
		 LIMIT 1`)
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, code, now), false)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SaveUser сохраняет изменения профиля, состояния подтверждения и сброса пароля.
//
// Хеш пароля перезаписывается только если задан NewPassword.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.SaveUser"

	args := []any{
		user.Name, user.Avatar.ID, user.Avatar.URL, user.Verified,
		nullInt(user.OTP), nullTime(user.OTPExpiry),
		nullInt(user.ResetOTP), nullTime(user.ResetOTPExpiry),
		user.UUID,
	}
	query := `UPDATE users
			  SET name = $1, avatar_id = $2, avatar_url = $3, verified = $4,
			      otp = $5, otp_expiry = $6, reset_otp = $7, reset_otp_expiry = $8`

	var hash string
	if user.NewPassword != "" {
		var err error
		hash, err = password.GetHash(user.NewPassword)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		query += `, password_hash = $10`
		args = append(args, hash)
	}
	query += ` WHERE uid = $9`

	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	if hash != "" {
		user.PasswordHash = hash
		user.NewPassword = ""
	}
	return nil
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *p, Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
