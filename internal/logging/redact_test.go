package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://journal:s3cret@db:5432/tj?sslmode=disable", "postgres://journal:****@db:5432/tj?sslmode=disable"},
		{"host=db user=journal password=s3cret dbname=tj", "host=db user=journal password=**** dbname=tj"},
		{"host=db password='two words' dbname=tj", "host=db password=**** dbname=tj"},
		{"postgres://journal@db/tj?password=abc&sslmode=require", "postgres://journal@db/tj?password=****&sslmode=require"},
		{"postgres://db/tj", "postgres://db/tj"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, RedactDSN(tt.in))
		})
	}
}

func TestContainsCredentials(t *testing.T) {
	assert.True(t, ContainsCredentials("postgres://u:p@h/db"))
	assert.True(t, ContainsCredentials("password=x"))
	assert.False(t, ContainsCredentials("postgres://h/db"))
}
