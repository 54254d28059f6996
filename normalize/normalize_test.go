package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		context string
		want    string
	}{
		{
			name: "empty input",
			raw:  "",
			want: "",
		},
		{
			name: "whitespace only",
			raw:  "  \t\n ",
			want: "",
		},
		{
			name: "lowercases and strips accents",
			raw:  "Excelente MÚSICA y Café",
			want: "excelente musica cafe",
		},
		{
			name: "drops stop words and short tokens",
			raw:  "La carne estaba en su punto perfecto",
			want: "carne punto perfecto",
		},
		{
			name: "removes urls",
			raw:  "mirá http://example.com/menu?x=1 y www.bar.com.ar buenísimo",
			want: "mira buenisimo",
		},
		{
			name: "deletes punctuation and digits inside words",
			raw:  "¡Parrilla!!! 10/10, asado-carne",
			want: "parrilla asadocarne",
		},
		{
			name:    "prepends context",
			raw:     "Muy buen servicio",
			context: "Don Julio - Palermo",
			want:    "don julio palermo buen servicio",
		},
		{
			name:    "context alone",
			context: "El Cuartito",
			want:    "cuartito",
		},
		{
			name: "folds enye",
			raw:  "Niño pequeño",
			want: "nino pequeno",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.raw, tt.context))
		})
	}
}

func TestText_Deterministic(t *testing.T) {
	in := "Ambiente cálido y acogedor. Perfecto para una cena romántica."
	first := Text(in, "Tegui")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Text(in, "Tegui"))
	}
}

func TestTokens(t *testing.T) {
	assert.Nil(t, Tokens("", ""))
	assert.Equal(t, []string{"cerveza", "artesanal"}, Tokens("Cerveza artesanal", ""))
}

func TestIsStopWord(t *testing.T) {
	assert.True(t, IsStopWord("para"))
	assert.True(t, IsStopWord("tambien"))
	assert.False(t, IsStopWord("parrilla"))
}
