package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockS3Client is a mock implementation of S3API.
type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.GetObjectOutput), args.Error(1)
}

func (m *MockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func keyIs(key string) interface{} {
	return mock.MatchedBy(func(in interface{}) bool {
		switch v := in.(type) {
		case *s3.GetObjectInput:
			return *v.Bucket == "bistro" && *v.Key == key
		case *s3.PutObjectInput:
			return *v.Bucket == "bistro" && *v.Key == key
		}
		return false
	})
}

func TestS3Store_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		output      *s3.GetObjectOutput
		mockErr     error
		expected    string
		expectedErr error
		expectError bool
	}{
		{
			name:     "Object exists",
			output:   &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(`[]`))},
			expected: `[]`,
		},
		{
			name:        "Object missing",
			mockErr:     &types.NoSuchKey{},
			expectError: true,
			expectedErr: ErrNotFound,
		},
		{
			name:        "S3 failure",
			mockErr:     errors.New("connection reset"),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockS3Client)
			store := NewS3StoreWithClient(client, "bistro", "menus/", zerolog.Nop())

			client.On("GetObject", ctx, keyIs("menus/burnt_bobs_menu.json")).
				Return(tt.output, tt.mockErr)

			data, err := store.Get(ctx, "burnt_bobs_menu")

			if tt.expectError {
				require.Error(t, err)
				if tt.expectedErr != nil {
					assert.ErrorIs(t, err, tt.expectedErr)
				} else {
					assert.NotErrorIs(t, err, ErrNotFound)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, string(data))
			}

			client.AssertExpectations(t)
		})
	}
}

func TestS3Store_Put(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		client := new(MockS3Client)
		store := NewS3StoreWithClient(client, "bistro", "menus/", zerolog.Nop())

		client.On("PutObject", ctx, keyIs("menus/burnt_bobs_menu.json")).
			Return(&s3.PutObjectOutput{}, nil)

		require.NoError(t, store.Put(ctx, "burnt_bobs_menu", []byte(`[]`)))
		client.AssertExpectations(t)
	})

	t.Run("S3 failure", func(t *testing.T) {
		client := new(MockS3Client)
		store := NewS3StoreWithClient(client, "bistro", "menus/", zerolog.Nop())

		client.On("PutObject", ctx, keyIs("menus/burnt_bobs_menu.json")).
			Return(nil, errors.New("access denied"))

		err := store.Put(ctx, "burnt_bobs_menu", []byte(`[]`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to put object to S3")
		client.AssertExpectations(t)
	})
}
