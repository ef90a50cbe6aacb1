package storage

import (
	"testing"

	"userapi/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObjectURL(t *testing.T) {
	tests := []struct {
		src        string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{src: "s3://seeds/import.sql", wantBucket: "seeds", wantKey: "import.sql"},
		{src: "s3://seeds/env/dev/import.sql", wantBucket: "seeds", wantKey: "env/dev/import.sql"},
		{src: "s3://seeds/", wantErr: true},
		{src: "s3:///import.sql", wantErr: true},
		{src: "https://seeds/import.sql", wantErr: true},
		{src: "import.sql", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			bucket, key, err := ParseObjectURL(tt.src)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidObjectURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestIsObjectURL(t *testing.T) {
	assert.True(t, IsObjectURL("s3://b/k"))
	assert.False(t, IsObjectURL("./import.sql"))
	assert.False(t, IsObjectURL("/abs/s3://x"))
}

func TestNewMinIO(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.MinIOConfig
		wantErr string
	}{
		{name: "missing endpoint", cfg: config.MinIOConfig{AccessKey: "a", SecretKey: "s"}, wantErr: "endpoint is required"},
		{name: "missing credentials", cfg: config.MinIOConfig{Endpoint: "localhost:9000"}, wantErr: "credentials are required"},
		{name: "ok", cfg: config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewMinIO(tt.cfg)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s)
		})
	}
}
