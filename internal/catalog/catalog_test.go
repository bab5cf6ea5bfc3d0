package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	all := c.All()
	require.Len(t, all, 3)
	assert.Equal(t, "starter", all[0].ID)
	assert.Equal(t, "standard", all[1].ID)
	assert.Equal(t, "pro", all[2].ID)

	standard := c.Get("standard")
	require.NotNil(t, standard)
	assert.EqualValues(t, 990, standard.PriceCents)
	assert.Equal(t, 50, standard.Credits)
	assert.Equal(t, "usd", standard.Currency)

	assert.True(t, c.Exists("pro"))
	assert.False(t, c.Exists("enterprise"))
	assert.Nil(t, c.Get("enterprise"))
}

func TestRegister_OverwriteKeepsOrder(t *testing.T) {
	c := New()
	c.Register(&Package{ID: "a", Name: "A", PriceCents: 100, Credits: 1, Currency: "usd"})
	c.Register(&Package{ID: "b", Name: "B", PriceCents: 200, Credits: 2, Currency: "usd"})
	c.Register(&Package{ID: "a", Name: "A2", PriceCents: 150, Credits: 1, Currency: "usd"})

	all := c.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "A2", all[0].Name)
	assert.EqualValues(t, 150, all[0].PriceCents)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packages.json")
	data := `{"packages": [
		{"id": "mini", "name": "Mini", "price_cents": 299, "credits": 10},
		{"id": "mega", "name": "Mega", "price_cents": 4999, "credits": 500, "currency": "eur"}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	c, err := LoadFromFile(path)
	require.NoError(t, err)

	all := c.All()
	require.Len(t, all, 2)
	assert.Equal(t, "mini", all[0].ID)
	assert.Equal(t, "usd", all[0].Currency, "currency defaults to usd")
	assert.Equal(t, "eur", all[1].Currency)
}

func TestLoadFromFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `not json at all`},
		{"empty list", `{"packages": []}`},
		{"missing id", `{"packages": [{"name": "X", "price_cents": 100, "credits": 1}]}`},
		{"zero price", `{"packages": [{"id": "x", "price_cents": 0, "credits": 1}]}`},
		{"zero credits", `{"packages": [{"id": "x", "price_cents": 100, "credits": 0}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "packages.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o600))

			_, err := LoadFromFile(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
