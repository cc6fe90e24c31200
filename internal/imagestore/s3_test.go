package imagestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockObjectAPI struct {
	mock.Mock
}

func (m *MockObjectAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func (m *MockObjectAPI) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.DeleteObjectOutput), args.Error(1)
}

func newTestStore(client ObjectAPI) *Store {
	s := New(client, "classifieds", "http://cdn.local/classifieds/")
	s.now = func() time.Time { return time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC) }
	s.newID = func() string { return "fixed-id" }
	return s
}

func writeTempFile(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("image-bytes"), 0o600))
	return p
}

func TestStore_Upload(t *testing.T) {
	tests := []struct {
		name    string
		folder  string
		file    string
		wantKey string
		wantCT  string
	}{
		{name: "avatar", folder: FolderAvatars, file: "me.PNG", wantKey: "avatars/2025/03/fixed-id.png", wantCT: "image/png"},
		{name: "listing", folder: FolderListings, file: "bike.jpg", wantKey: "listings/2025/03/fixed-id.jpg", wantCT: "image/jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockObjectAPI)
			client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
				return aws.ToString(in.Bucket) == "classifieds" &&
					aws.ToString(in.Key) == tt.wantKey &&
					aws.ToString(in.ContentType) == tt.wantCT
			})).Return(&s3.PutObjectOutput{}, nil).Once()

			store := newTestStore(client).WithFolder(tt.folder)
			img, err := store.Upload(context.Background(), writeTempFile(t, tt.file))

			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, img.ID)
			assert.Equal(t, "http://cdn.local/classifieds/"+tt.wantKey, img.URL)
			client.AssertExpectations(t)
		})
	}
}

func TestStore_UploadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		client := new(MockObjectAPI)
		_, err := newTestStore(client).Upload(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
		assert.Error(t, err)
		client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
	})

	t.Run("put fails", func(t *testing.T) {
		client := new(MockObjectAPI)
		client.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied")).Once()

		img, err := newTestStore(client).Upload(context.Background(), writeTempFile(t, "a.png"))
		assert.Error(t, err)
		assert.True(t, img.IsZero())
	})
}

func TestStore_Delete(t *testing.T) {
	client := new(MockObjectAPI)
	client.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return aws.ToString(in.Key) == "avatars/2025/03/x.png"
	})).Return(&s3.DeleteObjectOutput{}, nil).Once()
	client.On("DeleteObject", mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()

	store := newTestStore(client)
	assert.NoError(t, store.Delete(context.Background(), "avatars/2025/03/x.png"))
	assert.Error(t, store.Delete(context.Background(), "other"))
	client.AssertExpectations(t)
}
