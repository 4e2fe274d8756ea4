package objectstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cuongbtq/list-import/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	body          string
	contentLength *int64
	getErr        error
	deleteErr     error
	deleted       []string
	closed        bool
}

type trackingBody struct {
	io.Reader
	f *fakeS3
}

func (b *trackingBody) Close() error {
	b.f.closed = true
	return nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &s3.GetObjectOutput{
		Body:          &trackingBody{Reader: strings.NewReader(f.body), f: f},
		ContentLength: f.contentLength,
	}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deleted = append(f.deleted, aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestS3Source_Open(t *testing.T) {
	t.Run("streams object with known length", func(t *testing.T) {
		fake := &fakeS3{body: "a,b\n", contentLength: aws.Int64(4)}
		src := newS3Source(fake, testLogger())

		obj, err := src.Open(context.Background(), "bucket", "file.csv", 100)
		require.NoError(t, err)
		defer obj.Body.Close()

		assert.Equal(t, int64(4), obj.Size)
		data, err := io.ReadAll(obj.Body)
		require.NoError(t, err)
		assert.Equal(t, "a,b\n", string(data))
	})

	t.Run("rejects reported length above maximum before reading", func(t *testing.T) {
		fake := &fakeS3{body: "0123456789", contentLength: aws.Int64(10)}
		src := newS3Source(fake, testLogger())

		obj, err := src.Open(context.Background(), "bucket", "big.csv", 5)
		assert.Nil(t, obj)
		assert.ErrorIs(t, err, domain.ErrObjectTooLarge)
		assert.True(t, fake.closed)
	})

	t.Run("unknown length is limited while streaming", func(t *testing.T) {
		fake := &fakeS3{body: "0123456789"}
		src := newS3Source(fake, testLogger())

		obj, err := src.Open(context.Background(), "bucket", "big.csv", 5)
		require.NoError(t, err)
		assert.Equal(t, UnknownSize, obj.Size)

		_, err = io.ReadAll(obj.Body)
		assert.ErrorIs(t, err, domain.ErrObjectTooLarge)
	})

	t.Run("maps missing key to not found", func(t *testing.T) {
		fake := &fakeS3{getErr: &types.NoSuchKey{}}
		src := newS3Source(fake, testLogger())

		_, err := src.Open(context.Background(), "bucket", "missing.csv", 5)
		assert.ErrorIs(t, err, domain.ErrObjectNotFound)
	})

	t.Run("other errors are passed through", func(t *testing.T) {
		boom := errors.New("connection reset")
		src := newS3Source(&fakeS3{getErr: boom}, testLogger())

		_, err := src.Open(context.Background(), "bucket", "file.csv", 5)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, domain.ErrObjectNotFound)
	})
}

func TestS3Source_Delete(t *testing.T) {
	fake := &fakeS3{}
	src := newS3Source(fake, testLogger())

	require.NoError(t, src.Delete(context.Background(), "bucket", "file.csv"))
	assert.Equal(t, []string{"bucket/file.csv"}, fake.deleted)

	fake.deleteErr = errors.New("access denied")
	assert.Error(t, src.Delete(context.Background(), "bucket", "file.csv"))
}
