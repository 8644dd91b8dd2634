package textnorm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/dealer-stock-api/pkg/textnorm"
)

func TestLabel(t *testing.T) {
	// "i" + acento combinante se compone a "í"
	assert.Equal(t, "Estantería 3", textnorm.Label("  Estanteri\u0301a   3 "))
	assert.Equal(t, "", textnorm.Label("   "))
}

func TestFold(t *testing.T) {
	cases := map[string]string{
		"Estantería Á-3":    "estanteria a-3",
		"Estanteri\u0301a":  "estanteria",
		"  BODEGA   Norte ": "bodega norte",
		"Camión Ñandú":      "camion nandu",
	}
	for in, want := range cases {
		assert.Equal(t, want, textnorm.Fold(in), in)
	}
}
