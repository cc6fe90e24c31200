// Package account реализует жизненный цикл учетной записи: регистрацию,
// подтверждение почты одноразовым кодом, вход, смену и восстановление пароля.
//
// Пользователь создается неподтвержденным и становится подтвержденным
// ровно один раз. Независимо от этого пароль может находиться в ожидании
// сброса, пока выданный код не использован и не истек.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/magabrotheeeer/classifieds/internal/lib/jwt"
	"github.com/magabrotheeeer/classifieds/internal/lib/otp"
	"github.com/magabrotheeeer/classifieds/internal/lib/password"
	"github.com/magabrotheeeer/classifieds/internal/lib/sl"
	"github.com/magabrotheeeer/classifieds/internal/models"
	"github.com/magabrotheeeer/classifieds/internal/storage"
)

// Тексты писем.
const (
	VerifySubject = "Verify your account"
	ResetSubject  = "Request for resetting password"
)

// UserStore хранилище учетных записей.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (string, error)
	GetUserByEmail(ctx context.Context, email string, opts ...storage.SelectOption) (*models.User, error)
	GetUserByID(ctx context.Context, userUID string, opts ...storage.SelectOption) (*models.User, error)
	GetUserByResetOTP(ctx context.Context, code int, now time.Time) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
}

// ImageStore внешнее хранилище изображений.
type ImageStore interface {
	Upload(ctx context.Context, localPath string) (models.Image, error)
	Delete(ctx context.Context, id string) error
}

// MailSender отправка писем пользователю.
type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Session выданный пользователю токен.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// RegisterInput данные регистрации. AvatarPath путь к временному файлу аватара.
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	AvatarPath string
}

// ProfileInput изменения профиля. Пустые поля не меняются.
type ProfileInput struct {
	Name       string
	AvatarPath string
}

// Service машина состояний учетной записи.
type Service struct {
	log       *slog.Logger
	users     UserStore
	avatars   ImageStore
	mail      MailSender
	tokens    jwt.Maker
	verifyOTP *otp.Engine
	resetOTP  *otp.Engine
}

// New создает новый экземпляр Service.
func New(log *slog.Logger, users UserStore, avatars ImageStore, mail MailSender, tokens jwt.Maker,
	verifyOTP, resetOTP *otp.Engine) *Service {
	return &Service{
		log:       log,
		users:     users,
		avatars:   avatars,
		mail:      mail,
		tokens:    tokens,
		verifyOTP: verifyOTP,
		resetOTP:  resetOTP,
	}
}

// Register создает неподтвержденного пользователя и сразу выдает ему сессию.
//
// Порядок шагов: проверка почты, загрузка аватара, запись пользователя,
// письмо с кодом, выпуск токена. Уже загруженный аватар при ошибке
// последующих шагов не удаляется.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	const op = "account.Register"
	log := s.log.With(slog.String("op", op))

	if in.Name == "" || in.Email == "" || in.AvatarPath == "" || !validPassword(in.Password) {
		return nil, fmt.Errorf("%s: %w", op, ErrValidation)
	}

	_, err := s.users.GetUserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%s: %w", op, ErrConflict)
	case !errors.Is(err, storage.ErrUserNotFound):
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	avatar, err := s.avatars.Upload(ctx, in.AvatarPath)
	if err != nil {
		log.Error("failed to upload avatar", sl.Err(err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
	}

	code, err := s.verifyOTP.Generate()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user := &models.User{
		Name:   in.Name,
		Email:  in.Email,
		Avatar: avatar,
	}
	user.SetPassword(in.Password)
	user.SetOTP(code.Value, code.ExpiresAt)

	if _, err = s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrConflict)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = s.mail.Send(ctx, user.Email, VerifySubject, "Your OTP is "+code.String()); err != nil {
		log.Error("failed to send verification email", slog.String("user_uid", user.UUID), sl.Err(err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("user registered", slog.String("user_uid", user.UUID))
	return session, nil
}

// Verify подтверждает почту пользователя кодом из письма.
//
// При неверном или истекшем коде состояние пользователя не меняется.
func (s *Service) Verify(ctx context.Context, user *models.User, submitted int) error {
	const op = "account.Verify"

	if err := s.verifyOTP.Validate(submitted, user.OTP, user.OTPExpiry); err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidOrExpiredOtp)
	}

	verified := *user
	verified.MarkVerified()
	if err := s.users.SaveUser(ctx, &verified); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	*user = verified
	return nil
}

// Login проверяет почту и пароль и выдает новую сессию.
//
// Неизвестная почта и неверный пароль неотличимы для вызывающего.
func (s *Service) Login(ctx context.Context, email, plain string) (*Session, error) {
	const op = "account.Login"

	if email == "" || plain == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrValidation)
	}

	user, err := s.users.GetUserByEmail(ctx, email, storage.WithPassword())
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = password.CompareHash(user.PasswordHash, plain); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user.PasswordHash = ""

	session, err := s.issue(user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return session, nil
}

// Profile возвращает актуальные данные пользователя.
func (s *Service) Profile(ctx context.Context, userUID string) (*models.User, error) {
	const op = "account.Profile"
	user, err := s.users.GetUserByID(ctx, userUID)
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// UpdateProfile меняет имя и/или аватар. Старый аватар удаляется до загрузки нового.
func (s *Service) UpdateProfile(ctx context.Context, user *models.User, in ProfileInput) (*models.User, error) {
	const op = "account.UpdateProfile"
	log := s.log.With(slog.String("op", op), slog.String("user_uid", user.UUID))

	if in.Name == "" && in.AvatarPath == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrValidation)
	}

	updated := *user
	if in.Name != "" {
		updated.Name = in.Name
	}
	if in.AvatarPath != "" {
		if !updated.Avatar.IsZero() {
			if err := s.avatars.Delete(ctx, updated.Avatar.ID); err != nil {
				log.Error("failed to delete old avatar", sl.Err(err))
				return nil, fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
			}
		}
		avatar, err := s.avatars.Upload(ctx, in.AvatarPath)
		if err != nil {
			log.Error("failed to upload avatar", sl.Err(err))
			return nil, fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
		}
		updated.Avatar = avatar
	}

	if err := s.users.SaveUser(ctx, &updated); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &updated, nil
}

// UpdatePassword меняет пароль после проверки текущего.
//
// Ранее выданные токены остаются действительными до своего истечения.
func (s *Service) UpdatePassword(ctx context.Context, userUID, oldPassword, newPassword string) error {
	const op = "account.UpdatePassword"

	if oldPassword == "" || !validPassword(newPassword) {
		return fmt.Errorf("%s: %w", op, ErrValidation)
	}

	user, err := s.users.GetUserByID(ctx, userUID, storage.WithPassword())
	if errors.Is(err, storage.ErrUserNotFound) {
		return fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = password.CompareHash(user.PasswordHash, oldPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	user.SetPassword(newPassword)
	if err = s.users.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ForgetPassword выдает код сброса пароля и отправляет его на почту.
//
// Для неизвестной почты возвращает ErrNotFound.
func (s *Service) ForgetPassword(ctx context.Context, email string) error {
	const op = "account.ForgetPassword"
	log := s.log.With(slog.String("op", op))

	if email == "" {
		return fmt.Errorf("%s: %w", op, ErrValidation)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrUserNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	code, err := s.resetOTP.Generate()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	user.SetResetOTP(code.Value, code.ExpiresAt)
	if err = s.users.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	body := fmt.Sprintf("Your OTP for resetting the password is %s. "+
		"If you did not request this, please ignore this email.", code.String())
	if err = s.mail.Send(ctx, user.Email, ResetSubject, body); err != nil {
		log.Error("failed to send reset email", slog.String("user_uid", user.UUID), sl.Err(err))
		return fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
	}
	return nil
}

// ResetPassword устанавливает новый пароль по действующему коду сброса.
//
// Код одноразовый: после успеха поля сброса очищаются.
func (s *Service) ResetPassword(ctx context.Context, submitted int, newPassword string) error {
	const op = "account.ResetPassword"

	if !validPassword(newPassword) {
		return fmt.Errorf("%s: %w", op, ErrValidation)
	}

	user, err := s.users.GetUserByResetOTP(ctx, submitted, s.resetOTP.Now())
	if errors.Is(err, storage.ErrUserNotFound) {
		return fmt.Errorf("%s: %w", op, ErrInvalidOrExpiredOtp)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = s.resetOTP.Validate(submitted, user.ResetOTP, user.ResetOTPExpiry); err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidOrExpiredOtp)
	}

	user.SetPassword(newPassword)
	user.ClearResetOTP()
	if err = s.users.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) issue(user *models.User) (*Session, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user.UUID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func validPassword(p string) bool {
	return utf8.RuneCountInString(p) >= MinPasswordLength
}
