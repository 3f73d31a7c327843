package files

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, aws.ToString(in.ContinuationToken))
	out, _ := args.Get(0).(*s3.ListObjectsV2Output)
	return out, args.Error(1)
}

func (m *mockS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, aws.ToString(in.Key))
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func (m *mockS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, _ := io.ReadAll(in.Body)
	args := m.Called(ctx, aws.ToString(in.Key), string(body))
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func objects(keys ...string) []types.Object {
	out := make([]types.Object, len(keys))
	for i, k := range keys {
		out[i] = types.Object{Key: aws.String(k)}
	}
	return out
}

func TestS3Source_ListPaginates(t *testing.T) {
	client := new(mockS3)
	client.On("ListObjectsV2", mock.Anything, "").Return(&s3.ListObjectsV2Output{
		Contents:              objects("exports/25Nov.xlsx", "exports/", "exports/readme.md"),
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("page-2"),
	}, nil).Once()
	client.On("ListObjectsV2", mock.Anything, "page-2").Return(&s3.ListObjectsV2Output{
		Contents:    objects("exports/24Nov.xlsx", "exports/~$24Nov.xlsx"),
		IsTruncated: aws.Bool(false),
	}, nil).Once()

	src := NewS3SourceWithClient(client, "surveys", "exports/", nil)
	keys, err := src.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"exports/24Nov.xlsx", "exports/25Nov.xlsx"}, keys)
	assert.Equal(t, "s3://surveys/exports/", src.Descriptor())
	client.AssertExpectations(t)
}

func TestS3Source_ListError(t *testing.T) {
	client := new(mockS3)
	client.On("ListObjectsV2", mock.Anything, "").Return(nil, errors.New("AccessDenied"))

	_, err := NewS3SourceWithClient(client, "surveys", "", nil).List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")
}

func TestS3Source_Fetch(t *testing.T) {
	client := new(mockS3)
	client.On("GetObject", mock.Anything, "24Nov.xlsx").Return(&s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader([]byte("workbook"))),
	}, nil)
	client.On("GetObject", mock.Anything, "gone.xlsx").Return(nil, &types.NoSuchKey{})

	src := NewS3SourceWithClient(client, "surveys", "", nil)

	data, err := src.Fetch(context.Background(), "24Nov.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "workbook", string(data))

	_, err = src.Fetch(context.Background(), "gone.xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestS3Source_Save(t *testing.T) {
	client := new(mockS3)
	client.On("PutObject", mock.Anything, "exports/27Nov.xlsx", "payload").Return(&s3.PutObjectOutput{}, nil).Once()

	src := NewS3SourceWithClient(client, "surveys", "exports/", nil)
	require.NoError(t, src.Save(context.Background(), "uploads/27Nov.xlsx", []byte("payload")))
	assert.ErrorIs(t, src.Save(context.Background(), "27Nov.csv", nil), ErrInvalidName)

	client.AssertExpectations(t)
}
