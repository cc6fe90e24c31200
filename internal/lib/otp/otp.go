// Package otp реализует одноразовые числовые коды с ограниченным сроком действия.
//
// Код хранится у пользователя вместе с моментом истечения и годится
// ровно для одной успешной проверки: после нее вызывающий обязан очистить поля.
package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// MaxValue верхняя граница кода (включительно): коды шестизначные.
const MaxValue = 999999

// ErrInvalidOrExpired код не совпал, отсутствует или его срок истек.
var ErrInvalidOrExpired = errors.New("invalid or expired otp")

// Code сгенерированный код и момент его истечения.
type Code struct {
	Value     int
	ExpiresAt time.Time
}

// String возвращает код, дополненный нулями до шести цифр.
func (c Code) String() string {
	return Format(c.Value)
}

// Engine выпускает и проверяет коды одного канала (подтверждение почты или сброс пароля).
type Engine struct {
	ttl    time.Duration
	now    func() time.Time
	random func(max int64) (int64, error)
}

// Option настройка Engine.
type Option func(*Engine)

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithRandom подменяет источник случайных чисел.
func WithRandom(random func(max int64) (int64, error)) Option {
	return func(e *Engine) {
		e.random = random
	}
}

// New создает Engine с заданным сроком жизни кодов.
func New(ttl time.Duration, opts ...Option) *Engine {
	e := &Engine{
		ttl:    ttl,
		now:    time.Now,
		random: cryptoRandom,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TTL срок жизни кодов канала.
func (e *Engine) TTL() time.Duration {
	return e.ttl
}

// Now текущее время по часам Engine.
func (e *Engine) Now() time.Time {
	return e.now()
}

// Generate возвращает равномерно распределенный код из [0, MaxValue] и момент истечения now+ttl.
func (e *Engine) Generate() (Code, error) {
	const op = "otp.Generate"
	n, err := e.random(MaxValue + 1)
	if err != nil {
		return Code{}, fmt.Errorf("%s: %w", op, err)
	}
	return Code{
		Value:     int(n),
		ExpiresAt: e.now().Add(e.ttl),
	}, nil
}

// Validate проверяет присланный код против сохраненного.
//
// Успех только если код и срок сохранены, коды равны и now < expiry.
// Момент истечения сам по себе уже считается просроченным.
func (e *Engine) Validate(submitted int, stored *int, expiry *time.Time) error {
	if stored == nil || expiry == nil {
		return ErrInvalidOrExpired
	}
	if submitted != *stored {
		return ErrInvalidOrExpired
	}
	if !e.now().Before(*expiry) {
		return ErrInvalidOrExpired
	}
	return nil
}

// Format дополняет код нулями до шести цифр.
func Format(v int) string {
	return fmt.Sprintf("%06d", v)
}

// Parse разбирает присланный пользователем код.
func Parse(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > MaxValue {
		return 0, ErrInvalidOrExpired
	}
	return n, nil
}

// Input код из тела запроса. Принимается и числом, и строкой из цифр,
// чтобы не терять ведущие нули.
type Input int

// UnmarshalJSON разбирает код через Parse.
func (in *Input) UnmarshalJSON(b []byte) error {
	v, err := Parse(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*in = Input(v)
	return nil
}

func cryptoRandom(max int64) (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		return 0, err
	}
	return n.Int64(), nil
}
