package media

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3iface.S3API
	input *s3.PutObjectInput
	body  []byte
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	f.input = in
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestS3StoreSave(t *testing.T) {
	fake := &fakeS3{}
	store := newS3Store(fake, S3Config{Bucket: "market-media", Endpoint: "https://object.example.io"})

	url, err := store.Save(context.Background(), "providers/1/abc.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://market-media.object.example.io/providers/1/abc.png", url)
	assert.Equal(t, "market-media", aws.StringValue(fake.input.Bucket))
	assert.Equal(t, "image/png", aws.StringValue(fake.input.ContentType))
	assert.Equal(t, s3.ObjectCannedACLPublicRead, aws.StringValue(fake.input.ACL))
	assert.Equal(t, "png-bytes", string(fake.body))
}

func TestS3StorePublicURL(t *testing.T) {
	store := newS3Store(&fakeS3{}, S3Config{Bucket: "b", Region: "eu-west-1"})
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com", store.publicURL)

	store = newS3Store(&fakeS3{}, S3Config{Bucket: "b", PublicURL: "https://cdn.example.com/"})
	assert.Equal(t, "https://cdn.example.com", store.publicURL)
}

func TestLocalStoreSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "/uploads/")
	require.NoError(t, err)

	url, err := store.Save(context.Background(), "providers/2/photo.jpg", "image/jpeg", []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/providers/2/photo.jpg", url)

	data, err := os.ReadFile(filepath.Join(dir, "providers", "2", "photo.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
}

func TestLocalStoreStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "/uploads")
	require.NoError(t, err)

	url, err := store.Save(context.Background(), "../../escape.png", "image/png", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/escape.png", url)
	_, err = os.Stat(filepath.Join(dir, "escape.png"))
	require.NoError(t, err)
}
