package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveColumn(t *testing.T) {
	tests := []struct {
		name     string
		headers  []string
		keywords []string
		want     string
		found    bool
	}{
		{
			name:     "substring match",
			headers:  []string{"Referencia Guia", "Fecha"},
			keywords: []string{"GUIA", "TRACKING"},
			want:     "Referencia Guia",
			found:    true,
		},
		{
			name:     "column order wins over keyword order",
			headers:  []string{"Tracking No", "Guide"},
			keywords: []string{"GUIDE", "TRACKING"},
			want:     "Tracking No",
			found:    true,
		},
		{
			name:     "case insensitive",
			headers:  []string{"fecha", "subtotal factura"},
			keywords: []string{"SUBTOTAL"},
			want:     "subtotal factura",
			found:    true,
		},
		{
			name:     "accent folded",
			headers:  []string{"Número de Guía"},
			keywords: []string{"GUIA"},
			want:     "Número de Guía",
			found:    true,
		},
		{
			name:     "keyword with punctuation",
			headers:  []string{"Date", "Manifest-Ref"},
			keywords: []string{"GUIDE", "MANIFEST-REF"},
			want:     "Manifest-Ref",
			found:    true,
		},
		{
			name:     "no match",
			headers:  []string{"Fecha", "Cliente"},
			keywords: []string{"GUIDE"},
			found:    false,
		},
		{
			name:     "no headers",
			keywords: []string{"GUIDE"},
			found:    false,
		},
		{
			name:     "blank keyword ignored",
			headers:  []string{"Fecha"},
			keywords: []string{"  "},
			found:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveColumn(tt.headers, tt.keywords)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSuggestColumn(t *testing.T) {
	assert.Equal(t, "Guid", suggestColumn([]string{"Fecha", "Guid"}, []string{"GUIDE", "TRACKING"}))
	assert.Equal(t, "Trackng", suggestColumn([]string{"Trackng", "Cliente"}, []string{"GUIDE", "TRACKING"}))
	assert.Empty(t, suggestColumn([]string{"Fecha", "Cliente"}, []string{"GUIDE"}))
	assert.Empty(t, suggestColumn(nil, []string{"GUIDE"}))
}

func TestFoldName(t *testing.T) {
	assert.Equal(t, "GUIA", foldName(" guía "))
	assert.Equal(t, "NUMERO", foldName("Número"))
	assert.Equal(t, "MANIFEST-REF", foldName("manifest-ref"))
}
