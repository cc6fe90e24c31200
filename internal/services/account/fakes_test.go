package account

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/magabrotheeeer/classifieds/internal/lib/password"
	"github.com/magabrotheeeer/classifieds/internal/models"
	"github.com/magabrotheeeer/classifieds/internal/storage"
)

// journal общий журнал внешних вызовов для проверки порядка шагов.
type journal struct {
	mu     sync.Mutex
	events []string
}

func (j *journal) add(e string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, e)
}

// memStore хранилище в памяти с той же семантикой паролей, что и storage.Storage.
type memStore struct {
	mu      sync.Mutex
	users   map[string]models.User
	seq     int
	journal *journal
	saveErr error
}

func newMemStore(j *journal) *memStore {
	return &memStore{users: make(map[string]models.User), journal: j}
}

func (m *memStore) CreateUser(_ context.Context, user *models.User) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return "", storage.ErrUserExists
		}
	}
	hash, err := password.GetHash(user.NewPassword)
	if err != nil {
		return "", err
	}
	m.seq++
	user.UUID = fmt.Sprintf("user-%d", m.seq)
	user.CreatedAt = time.Now()
	user.PasswordHash = hash
	user.NewPassword = ""
	m.users[user.UUID] = *user
	m.journal.add("create")
	return user.UUID, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string, _ ...storage.SelectOption) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *memStore) GetUserByID(_ context.Context, userUID string, _ ...storage.SelectOption) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userUID]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return &u, nil
}

func (m *memStore) GetUserByResetOTP(_ context.Context, code int, now time.Time) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found []models.User
	for _, u := range m.users {
		if u.ResetOTP != nil && *u.ResetOTP == code && u.ResetOTPExpiry.After(now) {
			found = append(found, u)
		}
	}
	if len(found) == 0 {
		return nil, storage.ErrUserNotFound
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ResetOTPExpiry.After(*found[j].ResetOTPExpiry) })
	return &found[0], nil
}

func (m *memStore) SaveUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	stored, ok := m.users[user.UUID]
	if !ok {
		return storage.ErrUserNotFound
	}
	next := *user
	next.PasswordHash = stored.PasswordHash
	if user.NewPassword != "" {
		hash, err := password.GetHash(user.NewPassword)
		if err != nil {
			return err
		}
		next.PasswordHash = hash
		user.PasswordHash = hash
		user.NewPassword = ""
	}
	next.NewPassword = ""
	m.users[user.UUID] = next
	return nil
}

func (m *memStore) get(uid string) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[uid]
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

type fakeImages struct {
	journal   *journal
	uploadErr error
	deleteErr error
	uploaded  []string
	deleted   []string
}

func (f *fakeImages) Upload(_ context.Context, localPath string) (models.Image, error) {
	f.journal.add("upload")
	if f.uploadErr != nil {
		return models.Image{}, f.uploadErr
	}
	f.uploaded = append(f.uploaded, localPath)
	id := fmt.Sprintf("avatars/%d", len(f.uploaded))
	return models.Image{ID: id, URL: "http://cdn/" + id}, nil
}

func (f *fakeImages) Delete(_ context.Context, id string) error {
	f.journal.add("delete")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type sentMail struct {
	To, Subject, Body string
}

type fakeMail struct {
	journal *journal
	err     error
	sent    []sentMail
}

func (f *fakeMail) Send(_ context.Context, to, subject, body string) error {
	f.journal.add("mail")
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (f *fakeMail) last() sentMail {
	return f.sent[len(f.sent)-1]
}

// sequence выдает заранее заданные коды по кругу.
func sequence(values ...int64) func(int64) (int64, error) {
	var i int
	return func(int64) (int64, error) {
		v := values[i%len(values)]
		i++
		return v, nil
	}
}
