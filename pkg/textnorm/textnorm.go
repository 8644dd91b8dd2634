// Package textnorm normaliza texto libre (etiquetas de ubicación, palabras de búsqueda)
// para que formas compuestas y descompuestas de un mismo carácter coincidan.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Label devuelve s en NFC, sin espacios al borde y con espacios internos colapsados.
func Label(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// Fold forma de comparación: sin tildes ni diacríticos y en minúsculas.
// "Estantería Á-3" -> "estanteria a-3".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(Label(out))
}
