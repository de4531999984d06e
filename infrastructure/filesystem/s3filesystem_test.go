package filesystem

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memS3 struct {
	objects map[string][]byte
}

func (m *memS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	m.objects[*params.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *memS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := m.objects[*params.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *memS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	prefix := aws.ToString(params.Prefix)
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestBucketRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := &memS3{objects: map[string][]byte{"other/x.txt": []byte("x")}}
	bucket := NewBucket(client, "reports", "iarasync")

	key, err := bucket.WriteFile(ctx, "run.xlsx", "application/octet-stream", []byte("content"))
	require.NoError(t, err)
	assert.Equal(t, "iarasync/run.xlsx", key)

	var out bytes.Buffer
	require.NoError(t, bucket.ReadFile(ctx, key, &out))
	assert.Equal(t, "content", out.String())

	keys, err := bucket.ListFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"iarasync/run.xlsx"}, keys)

	err = bucket.ReadFile(ctx, "missing", &out)
	assert.ErrorContains(t, err, "missing")
}
