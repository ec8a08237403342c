package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructDatabaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		baseURL      string
		databaseName string
		want         string
	}{
		{
			name:    "no database name returns base url",
			baseURL: "postgres://user:pass@db:5432/app?sslmode=require",
			want:    "postgres://user:pass@db:5432/app?sslmode=require",
		},
		{
			name:         "appends name and sslmode",
			baseURL:      "postgres://user:pass@db:5432",
			databaseName: "guildbot",
			want:         "postgres://user:pass@db:5432/guildbot?sslmode=disable",
		},
		{
			name:         "trailing slash trimmed",
			baseURL:      "postgres://user:pass@db:5432/",
			databaseName: "guildbot",
			want:         "postgres://user:pass@db:5432/guildbot?sslmode=disable",
		},
		{
			name:         "existing query parameters kept",
			baseURL:      "postgres://user:pass@db:5432?connect_timeout=5",
			databaseName: "guildbot",
			want:         "postgres://user:pass@db:5432/guildbot?connect_timeout=5&sslmode=disable",
		},
		{
			name:         "explicit sslmode not overridden",
			baseURL:      "postgres://user:pass@db:5432?sslmode=verify-full",
			databaseName: "guildbot",
			want:         "postgres://user:pass@db:5432/guildbot?sslmode=verify-full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ConstructDatabaseURL(tt.baseURL, tt.databaseName))
		})
	}
}
