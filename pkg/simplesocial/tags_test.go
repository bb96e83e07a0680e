package simplesocial_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tendant/simple-social/pkg/simplesocial"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", []string{}},
		{"   ", []string{}},
		{"travel", []string{"travel"}},
		{"travel, sea", []string{"travel", "sea"}},
		{" a , b\t,c\n", []string{"a", "b", "c"}},
		{"new york, san francisco", []string{"newyork", "sanfrancisco"}},
		{"a,,b", []string{"a", "", "b"}},
		{"a,a", []string{"a", "a"}},
		{",", []string{"", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, simplesocial.ParseTags(tt.raw))
		})
	}
}
