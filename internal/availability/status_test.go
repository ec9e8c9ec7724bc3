package availability

import (
	"testing"

	"medassist/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		alert    int
		previous models.OfferStatus
		want     models.OfferStatus
	}{
		{"zero quantity", 0, 10, "", models.StatusOutOfStock},
		{"negative quantity", -1, 10, models.StatusAvailable, models.StatusOutOfStock},
		{"at threshold", 10, 10, "", models.StatusLowStock},
		{"one unit", 1, 10, models.StatusAvailable, models.StatusLowStock},
		{"above threshold", 11, 10, models.StatusLowStock, models.StatusAvailable},
		{"discontinued stays discontinued", 500, 10, models.StatusDiscontinued, models.StatusDiscontinued},
		{"discontinued out of stock", 0, 10, models.StatusDiscontinued, models.StatusDiscontinued},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.quantity, tt.alert, tt.previous))
		})
	}
}
