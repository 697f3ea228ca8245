package services

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	puts    map[string][]byte
	types   map[string]string
	deleted []string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{puts: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts[aws.ToString(in.Key)] = data
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestSniffImage(t *testing.T) {
	data, ct, ext, err := SniffImage(bytes.NewReader(pngHeader), 1024)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, ".png", ext)
	assert.Equal(t, pngHeader, data)

	_, ct, _, err = SniffImage(bytes.NewReader([]byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")), 1024)
	require.NoError(t, err)
	assert.Equal(t, "image/gif", ct)

	_, _, _, err = SniffImage(bytes.NewReader([]byte("%PDF-1.7\n")), 1024)
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, _, _, err = SniffImage(bytes.NewReader(nil), 1024)
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, _, _, err = SniffImage(bytes.NewReader(pngHeader), 8)
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestS3ImageStore_PutAndDelete(t *testing.T) {
	fake := newFakeS3()
	store := newS3ImageStore(fake, "tour-media", "https://cdn.example.com/")

	url, err := store.Put(context.Background(), "tours/1/a.png", "image/png", pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/tours/1/a.png", url)
	assert.Equal(t, pngHeader, fake.puts["tours/1/a.png"])
	assert.Equal(t, "image/png", fake.types["tours/1/a.png"])

	require.NoError(t, store.Delete(context.Background(), "tours/1/a.png"))
	assert.Equal(t, []string{"tours/1/a.png"}, fake.deleted)
}

func TestLocalImageStore_RejectsEscapingKeys(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalImageStore(dir, "/uploads/")

	url, err := store.Put(context.Background(), "../../etc/x.png", "image/png", pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/etc/x.png", url)

	require.NoError(t, store.Delete(context.Background(), "etc/x.png"))
	require.NoError(t, store.Delete(context.Background(), "etc/x.png"))
}
