package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionFromMetadata(t *testing.T) {
	tests := []struct {
		name string
		meta map[string]string
		want bool
	}{
		{"true", map[string]string{"allowQueries": "true"}, true},
		{"false", map[string]string{"allowQueries": "false"}, false},
		{"other casing is not true", map[string]string{"allowQueries": "TRUE"}, false},
		{"missing", map[string]string{}, false},
		{"nil metadata", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SessionFromMetadata(tt.meta).AllowQueries())
		})
	}
}

func TestSession_EnableIsOneWay(t *testing.T) {
	s := NewSession(false)
	s.enable()
	assert.True(t, s.AllowQueries())
	s.enable()
	assert.True(t, s.AllowQueries())
}
