package storage

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"
	"github.com/tabzpay/progress-sub002/config"
)

func TestReadDocumentCapsSize(t *testing.T) {
	data, err := readDocument(strings.NewReader(`{"theme":"dark"}`))
	require.NoError(t, err)
	require.JSONEq(t, `{"theme":"dark"}`, string(data))

	exact := bytes.Repeat([]byte("a"), MaxDocumentSize)
	data, err = readDocument(bytes.NewReader(exact))
	require.NoError(t, err)
	require.Len(t, data, MaxDocumentSize)

	_, err = readDocument(bytes.NewReader(append(exact, 'b')))
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestOpenLocalDriverHasNoObjectStore(t *testing.T) {
	s, err := Open(context.Background(), config.StorageConfig{Driver: DriverLocal})
	require.NoError(t, err)
	require.Nil(t, s)
}

func TestOpenValidatesDriverConfig(t *testing.T) {
	_, err := Open(context.Background(), config.StorageConfig{Driver: "s3"})
	require.Error(t, err)

	_, err = Open(context.Background(), config.StorageConfig{Driver: DriverMinio})
	require.ErrorContains(t, err, "minio endpoint is required")

	_, err = Open(context.Background(), config.StorageConfig{Driver: DriverMinio, Minio: config.MinioConfig{Endpoint: "localhost:9000"}})
	require.ErrorContains(t, err, "access key")

	_, err = Open(context.Background(), config.StorageConfig{Driver: DriverGCS})
	require.ErrorContains(t, err, "gcs bucket is required")
}

func TestMinioErrorMapsMissingKey(t *testing.T) {
	missing := minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}
	require.ErrorIs(t, minioError(missing), ErrObjectNotFound)

	denied := minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}
	require.False(t, errors.Is(minioError(denied), ErrObjectNotFound))
}
