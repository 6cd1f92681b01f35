// Package i18n renders error and warning keys in the user's language.
//
// Spanish is the default locale; English and French are also shipped.
// Unknown keys fall back to the English text carried by the error itself.
package i18n

import (
	"errors"

	"github.com/dmitrijs2005/avifconv/internal/common"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Supported lists the shipped locales, default first.
var Supported = []language.Tag{language.Spanish, language.English, language.French}

var matcher = language.NewMatcher(Supported)

type entry struct {
	es, en, fr string
}

// Messages use printf verbs; params lists the Params keys in verb order.
var messages = map[string]entry{
	common.KeyBrowserNotSupported: {
		es: "El entorno no admite la conversión de imágenes",
		en: "Runtime does not support image conversion",
		fr: "L'environnement ne prend pas en charge la conversion d'images",
	},
	common.KeyInvalidFileInput: {
		es: "Archivo de entrada no válido",
		en: "Invalid file input",
		fr: "Fichier d'entrée invalide",
	},
	common.KeyUnsupportedFormat: {
		es: `Formato de destino no admitido. Use "jpeg" o "png"`,
		en: `Unsupported target format. Use "jpeg" or "png"`,
		fr: `Format cible non pris en charge. Utilisez "jpeg" ou "png"`,
	},
	common.KeyInvalidQuality: {
		es: "La calidad debe estar entre 0 y 1",
		en: "Quality must be between 0 and 1",
		fr: "La qualité doit être comprise entre 0 et 1",
	},
	common.KeyConversionFailedBlob: {
		es: "La conversión falló: no se pudo crear el archivo",
		en: "Conversion failed: Unable to create blob",
		fr: "La conversion a échoué : impossible de créer le fichier",
	},
	common.KeyConversionFailedGeneric: {
		es: "La conversión falló: %s",
		en: "Conversion failed: %s",
		fr: "La conversion a échoué : %s",
	},
	common.KeyImageLoadFailed: {
		es: "No se pudo cargar la imagen para convertirla",
		en: "Failed to load image for conversion",
		fr: "Impossible de charger l'image à convertir",
	},
	common.KeyInvalidParameters: {
		es: "Parámetros no válidos: se requieren el id de imagen y el archivo",
		en: "Invalid parameters: imageId and file are required",
		fr: "Paramètres invalides : l'identifiant d'image et le fichier sont requis",
	},
	common.KeyInvalidAvifFile: {
		es: "El archivo no es una imagen AVIF válida",
		en: "File is not a valid AVIF image",
		fr: "Le fichier n'est pas une image AVIF valide",
	},
	common.KeyInvalidImagesArray: {
		es: "Lista de imágenes no válida",
		en: "Invalid images array",
		fr: "Liste d'images invalide",
	},
	common.KeyListenerNotFunction: {
		es: "El oyente debe ser una función",
		en: "Listener must be a function",
		fr: "L'écouteur doit être une fonction",
	},
	common.KeyWarnBlobNotSupported: {
		es: "El almacenamiento de datos binarios no está disponible",
		en: "Blob storage not supported",
		fr: "Le stockage de données binaires n'est pas disponible",
	},
	common.KeyWarnURLNotSupported: {
		es: "Los identificadores de objetos no están disponibles",
		en: "Object handles not supported",
		fr: "Les identifiants d'objets ne sont pas disponibles",
	},
	common.KeyWarnDownloadNotSupported: {
		es: "No se puede escribir en el directorio de salida",
		en: "Output directory is not writable",
		fr: "Le répertoire de sortie n'est pas accessible en écriture",
	},
	common.KeyWarnInsecureContext: {
		es: "Un contexto inseguro puede limitar la funcionalidad",
		en: "Insecure context may limit functionality",
		fr: "Un contexte non sécurisé peut limiter les fonctionnalités",
	},
}

var params = map[string][]string{
	common.KeyConversionFailedGeneric: {"message"},
}

var cat = build()

func build() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.Spanish))
	for key, e := range messages {
		for tag, text := range map[language.Tag]string{
			language.Spanish: e.es,
			language.English: e.en,
			language.French:  e.fr,
		} {
			// keys and texts are static; SetString only fails on malformed input
			if err := b.SetString(tag, key, text); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Match picks the best shipped locale for a list of language preferences,
// each either a single tag ("fr-CA") or an Accept-Language value.
func Match(prefs ...string) language.Tag {
	var tags []language.Tag
	for _, p := range prefs {
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	_, i, _ := matcher.Match(tags...)
	return Supported[i]
}

// Translate renders key in tag, or returns fallback for unknown keys.
func Translate(tag language.Tag, key string, args map[string]any, fallback string) string {
	if _, ok := messages[key]; !ok {
		if fallback != "" {
			return fallback
		}
		return key
	}

	var vals []any
	for _, name := range params[key] {
		vals = append(vals, args[name])
	}
	return message.NewPrinter(tag, message.Catalog(cat)).Sprintf(key, vals...)
}

// Message renders err for display. Tagged errors are translated; anything
// else is shown as is.
func Message(tag language.Tag, err error) string {
	if err == nil {
		return ""
	}
	var e *common.Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	return Translate(tag, e.Key, e.Params, e.Fallback)
}

// Warning renders an environment warning.
func Warning(tag language.Tag, w common.Warning) string {
	return Translate(tag, w.Key, nil, w.Fallback)
}
