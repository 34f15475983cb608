package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	set := NewSet([]string{"nikel"})
	assert.Equal(t, []string{"nikel"}, set.Match("Kebijakan NIKEL Baru", ""))

	upper := NewSet([]string{" RKAB "})
	assert.Equal(t, []string{"rkab"}, upper.Match("Persetujuan rkab 2025", ""))
}

func TestMatchTitleShortCircuitsBody(t *testing.T) {
	t.Parallel()

	set := NewSet([]string{"rkab", "nikel", "kobalt"})
	got := set.Match("Evaluasi RKAB Tahunan", "isi berita menyebut nikel dan kobalt")
	assert.Equal(t, []string{"rkab"}, got)
}

func TestMatchFallsBackToBody(t *testing.T) {
	t.Parallel()

	set := NewSet([]string{"rkab", "nikel", "kobalt"})
	got := set.Match("Menteri Kunjungi Sulawesi", "Produksi KOBALT dan Nikel meningkat")
	assert.Equal(t, []string{"nikel", "kobalt"}, got, "order follows configuration")
}

func TestMatchNoHit(t *testing.T) {
	t.Parallel()

	set := NewSet([]string{"rkab"})
	assert.Empty(t, set.Match("Harga BBM", "tidak ada kata kunci"))
	assert.Empty(t, set.Match("", ""))
}

func TestNewSetDropsEmptyKeywords(t *testing.T) {
	t.Parallel()

	set := NewSet([]string{"", "  ", "Nikel"})
	assert.Equal(t, 1, set.Len())
	assert.Equal(t, []string{"nikel"}, set.Words())
	assert.Empty(t, set.Match("apa saja", "apa saja"))
}
