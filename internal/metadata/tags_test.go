package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectTags(t *testing.T) {
	tests := []struct {
		name        string
		title, desc string
		genre       string
		want        []string
	}{
		{"christmas and music", "Weihnachtslieder", "Wir singen im Advent", "Musik", []string{"Weihnachten", "Musik"}},
		{"fairy tale with genre", "Rotkäppchen", "", "Hörspiel", []string{"Märchen", "Hörspiel"}},
		{"upper case keywords", "PAW PATROL", "", "", []string{"Helden"}},
		{"nothing", "Xyz", "", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectTags(tt.title, tt.desc, tt.genre))
		})
	}
}

func TestExtractAge(t *testing.T) {
	assert.Equal(t, 4, ExtractAge("ab 4 Jahren"))
	assert.Equal(t, 10, ExtractAge("10+"))
	assert.Zero(t, ExtractAge("für alle"))
	assert.Zero(t, ExtractAge(""))
}
