package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"Pistol Creek West Boot Store", "pistol creek west"},
		{"Boot Barn, Inc.", "boot barn"},
		{"Cavender's Western Wear", "cavenders"},
		{"  Tack   Shop  ", "tack"},
		{"Ropers LLC", "ropers"},
		{"Shop", "shop"},
		{"Café Rodéo", "cafe rodeo"},
		{"Bøøt Haus", "bøøt haus"},
		{"牛仔靴店", "牛仔靴店"},
		{"Сапоги Ранчо", "сапоги ранчо"},
		{"Straße 9", "straße 9"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestNormalizeAddress(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "4350 st andrews rd columbia sc 29210", NormalizeAddress("4350 St. Andrews Road, Columbia, SC 29210"))
	assert.Equal(t, "12 n main st ste 4", NormalizeAddress("12 North Main Street, Suite 4"))
	assert.Equal(t, "9 w blvd", NormalizeAddress("9 West Boulevard"))
}

func TestExtractCityState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr, city, state string
	}{
		{"4350 St Andrews Rd, Columbia, SC 29210", "Columbia", "SC"},
		{"4350 Saint Andrews Road, Columbia, SC", "Columbia", "SC"},
		{"100 Main St, Fort Worth, TX 76102, USA", "Fort Worth", "TX"},
		{"12 Calle Álamo, San José, CA 95112", "San José", "CA"},
		{"somewhere in texas", "", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			t.Parallel()
			city, state := ExtractCityState(tt.addr)
			assert.Equal(t, tt.city, city)
			assert.Equal(t, tt.state, state)
		})
	}
}

func TestSimilarity(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, Similarity("boot barn", "boot barn"), 1e-9)
	assert.InDelta(t, 1.0, Similarity("", ""), 1e-9)
	assert.InDelta(t, 0.0, Similarity("abc", ""), 1e-9)
	assert.InDelta(t, Similarity("austin", "austn"), Similarity("austn", "austin"), 1e-9)
	assert.InDelta(t, 0.9090909, Similarity("austin", "austn"), 1e-6)
}
