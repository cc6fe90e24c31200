// Package models содержит доменные модели: пользователя, объявления,
// изображения и письма. Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
//
// Поля OTP/OTPExpiry заполнены либо оба, либо ни одного и нужны только
// для подтверждения почты. ResetOTP/ResetOTPExpiry независимы от них
// и используются только при восстановлении пароля.
type User struct {
	UUID      string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Avatar    Image     `json:"avatar"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`

	// PasswordHash заполняется только при явном запросе (storage.WithPassword).
	PasswordHash string `json:"-"`
	// NewPassword новый пароль в открытом виде; хранилище хеширует его при сохранении.
	NewPassword string `json:"-"`

	OTP            *int       `json:"-"`
	OTPExpiry      *time.Time `json:"-"`
	ResetOTP       *int       `json:"-"`
	ResetOTPExpiry *time.Time `json:"-"`
}

// SetPassword помечает пароль на смену.
func (u *User) SetPassword(plain string) {
	u.NewPassword = plain
}

// SetOTP выставляет код подтверждения почты.
func (u *User) SetOTP(code int, expiresAt time.Time) {
	u.OTP = &code
	u.OTPExpiry = &expiresAt
}

// MarkVerified переводит пользователя в подтвержденное состояние и очищает код.
func (u *User) MarkVerified() {
	u.Verified = true
	u.OTP = nil
	u.OTPExpiry = nil
}

// SetResetOTP выставляет код сброса пароля.
func (u *User) SetResetOTP(code int, expiresAt time.Time) {
	u.ResetOTP = &code
	u.ResetOTPExpiry = &expiresAt
}

// ClearResetOTP очищает код сброса пароля после использования.
func (u *User) ClearResetOTP() {
	u.ResetOTP = nil
	u.ResetOTPExpiry = nil
}
