package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// FallbackInstruction is drawn when the pool has been exhausted.
const FallbackInstruction Instruction = "Transform this image"

type Instruction string

func (i Instruction) String() string {
	return string(i)
}

// PastTense converts the leading verb into its past form for display.
// Instructions whose first word is not a known verb are returned as is.
func (i Instruction) PastTense() string {
	text := string(i)
	if text == "" {
		return text
	}

	first, rest, hasRest := strings.Cut(text, " ")
	past, ok := pastTenseVerbs[strings.ToLower(first)]
	if !ok {
		return text
	}

	past = capitalize(past)
	if !hasRest {
		return past
	}

	return past + " " + rest
}

func capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return word
	}

	return string(unicode.ToUpper(r)) + word[size:]
}

var pastTenseVerbs = map[string]string{
	"give":       "gave",
	"make":       "made",
	"duplicate":  "duplicated",
	"place":      "placed",
	"blow":       "blew",
	"turn":       "turned",
	"discipline": "disciplined",
	"simplify":   "simplified",
	"change":     "changed",
	"adapt":      "adapted",
	"look":       "looked",
	"introduce":  "introduced",
	"remove":     "removed",
	"add":        "added",
	"reduce":     "reduced",
	"wrap":       "wrapped",
	"let":        "let",
	"emphasize":  "emphasized",
	"blur":       "blurred",
	"have":       "had",
	"amplify":    "amplified",
	"convert":    "converted",
	"clean":      "cleaned",
	"abstract":   "abstracted",
	"erase":      "erased",
	"delete":     "deleted",
	"zoom":       "zoomed",
	"rebuild":    "rebuilt",
	"tone":       "toned",
	"offer":      "offered",
	"use":        "used",
	"cut":        "cut",
	"smudge":     "smudged",
	"create":     "created",
	"draw":       "drew",
	"paint":      "painted",
	"transform":  "transformed",
	"modify":     "modified",
	"apply":      "applied",
	"enhance":    "enhanced",
	"increase":   "increased",
	"sharpen":    "sharpened",
	"brighten":   "brightened",
	"darken":     "darkened",
	"rotate":     "rotated",
	"flip":       "flipped",
	"crop":       "cropped",
	"resize":     "resized",
	"scale":      "scaled",
	"shift":      "shifted",
	"move":       "moved",
	"adjust":     "adjusted",
	"distort":    "distorted",
	"stretch":    "stretched",
	"compress":   "compressed",
	"expand":     "expanded",
	"invert":     "inverted",
	"reverse":    "reversed",
	"mirror":     "mirrored",
	"skew":       "skewed",
	"tilt":       "tilted",
	"bend":       "bent",
	"twist":      "twisted",
	"warp":       "warped",
}
