package aws

import (
	"devfolio/portfolio-api/config"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.StorageConfig
		want string
	}{
		{
			name: "explicit",
			cfg:  config.StorageConfig{Bucket: "b", PublicURL: "https://cdn.example.com/"},
			want: "https://cdn.example.com",
		},
		{
			name: "custom endpoint",
			cfg:  config.StorageConfig{Bucket: "b", Endpoint: "http://localhost:9000"},
			want: "http://localhost:9000/b",
		},
		{
			name: "aws",
			cfg:  config.StorageConfig{Bucket: "b", Region: "eu-west-1"},
			want: "https://b.s3.eu-west-1.amazonaws.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, publicURL(tt.cfg))
		})
	}
}
