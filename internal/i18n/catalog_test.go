package i18n

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/avifconv/internal/common"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		prefs []string
		want  language.Tag
	}{
		{nil, language.Spanish},
		{[]string{"en"}, language.English},
		{[]string{"fr-CA"}, language.French},
		{[]string{"de-DE,fr;q=0.8,en;q=0.5"}, language.French},
		{[]string{"ja"}, language.Spanish},
		{[]string{"!!", "en-GB"}, language.English},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.prefs), func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.prefs...))
		})
	}
}

func TestMessage_TaggedErrors(t *testing.T) {
	assert.Equal(t, "La calidad debe estar entre 0 y 1", Message(language.Spanish, common.ErrInvalidQuality))
	assert.Equal(t, "Quality must be between 0 and 1", Message(language.English, common.ErrInvalidQuality))
	assert.Equal(t, "La qualité doit être comprise entre 0 et 1", Message(language.French, common.ErrInvalidQuality))
}

func TestMessage_Params(t *testing.T) {
	err := common.ConversionFailed(errors.New("out of memory"))

	assert.Equal(t, "La conversión falló: out of memory", Message(language.Spanish, err))
	assert.Equal(t, "Conversion failed: out of memory", Message(language.English, err))
}

func TestMessage_WrappedAndPlain(t *testing.T) {
	wrapped := fmt.Errorf("batch: %w", common.ErrInvalidImagesArray)
	assert.Equal(t, "Invalid images array", Message(language.English, wrapped))

	assert.Equal(t, "disk full", Message(language.English, errors.New("disk full")))
	assert.Empty(t, Message(language.English, nil))
}

func TestTranslate_UnknownKeyFallsBack(t *testing.T) {
	assert.Equal(t, "Something odd", Translate(language.French, "errors.unknown", nil, "Something odd"))
	assert.Equal(t, "errors.unknown", Translate(language.French, "errors.unknown", nil, ""))

	custom := common.New("errors.custom", nil, "Custom failure")
	assert.Equal(t, "Custom failure", Message(language.Spanish, custom))
}

func TestWarning(t *testing.T) {
	warnings := common.CreateWarnings(common.EnvironmentChecks{BlobSupport: true, HandleSupport: true, LinkDownloadSupport: true})

	assert.Len(t, warnings, 1)
	assert.Equal(t, "Insecure context may limit functionality", Warning(language.English, warnings[0]))
	assert.Equal(t, "Un contexto inseguro puede limitar la funcionalidad", Warning(language.Spanish, warnings[0]))
}

func TestCatalogCoversEveryLocale(t *testing.T) {
	for key, e := range messages {
		assert.NotEmpty(t, e.es, key)
		assert.NotEmpty(t, e.en, key)
		assert.NotEmpty(t, e.fr, key)
	}
}
