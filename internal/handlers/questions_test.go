package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"How do I reverse a slice?", "how-do-i-reverse-a-slice"},
		{"  Weird   spacing  ", "weird-spacing"},
		{"C++ vs Go!!!", "c-vs-go"},
		{"UPPER case Title", "upper-case-title"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.in), tt.in)
	}
}
