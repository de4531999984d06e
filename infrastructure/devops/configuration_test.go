package devops

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDBEntryDSN(t *testing.T) {
	tests := []struct {
		name     string
		entry    DBEntry
		expected string
	}{
		{
			name:     "Postgres defaults",
			entry:    DBEntry{Name: "iara_first", Host: "localhost", Username: "iara", Password: "secret"},
			expected: "host=localhost port=5432 user=iara password=secret dbname=iara_first sslmode=prefer",
		},
		{
			name:     "Postgres quoting",
			entry:    DBEntry{Name: "n", Database: "iara second", Host: "db:6432", Username: "iara", Password: "it's"},
			expected: `host=db port=6432 user=iara password='it\'s' dbname='iara second' sslmode=prefer`,
		},
		{
			name:     "MySQL",
			entry:    DBEntry{Name: "iara", Host: "db", Username: "root", Password: "pw", Dialect: "mysql"},
			expected: "root:pw@tcp(db:3306)/iara?parseTime=true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.entry.DSN())
		})
	}
}

func TestEnvProvider(t *testing.T) {
	env := map[string]string{
		"DB_HOST":     "pg.internal",
		"DB_PORT":     "5433",
		"DB_USER":     "iara",
		"DB_PASSWORD": "secret",
	}
	p := &EnvProvider{Dialect: "postgres", Getenv: func(k string) string { return env[k] }}

	entry, err := p.Lookup(context.Background(), "iara_second")
	require.NoError(t, err)
	assert.Equal(t, "iara_second", entry.Database)
	assert.Equal(t, 5433, entry.Port)
	assert.Equal(t, "postgres", entry.Dialect)

	env["DB_PORT"] = "abc"
	_, err = p.Lookup(context.Background(), "iara_second")
	assert.Error(t, err)

	delete(env, "DB_HOST")
	env["DB_PORT"] = ""
	_, err = p.Lookup(context.Background(), "iara_second")
	assert.Error(t, err)
}

type fakeSSM struct {
	value string
	err   error
	calls int
}

func (f *fakeSSM) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String(f.value)}}, nil
}

func TestSSMProvider(t *testing.T) {
	client := &fakeSSM{value: `
- name: IARA_First
  host: first.rds.amazonaws.com
  username: iara
  password: a
- name: iara_second
  host: second.rds.amazonaws.com
  username: iara
  password: b
  dialect: mysql
`}
	p := &SSMProvider{ParameterName: "databases", Dialect: "postgres", Client: client}

	first, err := p.Lookup(context.Background(), "iara_first")
	require.NoError(t, err)
	assert.Equal(t, "first.rds.amazonaws.com", first.Host)
	assert.Equal(t, "postgres", first.Dialect)

	second, err := p.Lookup(context.Background(), "IARA_SECOND")
	require.NoError(t, err)
	assert.Equal(t, "mysql", second.Dialect)

	_, err = p.Lookup(context.Background(), "missing")
	assert.Error(t, err)
	assert.Equal(t, 1, client.calls)
}

func TestSSMProviderError(t *testing.T) {
	p := &SSMProvider{ParameterName: "databases", Client: &fakeSSM{err: errors.New("denied")}}
	_, err := p.Lookup(context.Background(), "x")
	assert.ErrorContains(t, err, "denied")
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider("env", "postgres")
	require.NoError(t, err)
	assert.IsType(t, &EnvProvider{}, p)

	p, err = NewProvider("ssm", "postgres")
	require.NoError(t, err)
	assert.IsType(t, &SSMProvider{}, p)

	_, err = NewProvider("vault", "postgres")
	assert.Error(t, err)
}
