package catalog

import (
	"testing"

	"github.com/desertthunder/placelist/internal/models"
	tu "github.com/desertthunder/placelist/internal/testing"
	"github.com/stretchr/testify/assert"
)

func TestBestMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		candidates []models.Artist
		wantID     string
		wantOK     bool
	}{
		{
			name:  "case insensitive, most popular",
			query: "blur",
			candidates: []models.Artist{
				tu.Artist("1", "Blur", 50),
				tu.Artist("2", "BLUR", 70),
				tu.Artist("3", "Blurred", 99),
			},
			wantID: "2",
			wantOK: true,
		},
		{
			name:  "first wins ties",
			query: "Muse",
			candidates: []models.Artist{
				tu.Artist("a", "Muse", 40),
				tu.Artist("b", "muse", 40),
			},
			wantID: "a",
			wantOK: true,
		},
		{
			name:       "no exact match",
			query:      "Oasis",
			candidates: []models.Artist{tu.Artist("x", "Oasis Tribute", 10)},
		},
		{
			name:  "empty",
			query: "Oasis",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := BestMatch(tt.query, tt.candidates)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantID, got.ID)
			}
		})
	}
}
