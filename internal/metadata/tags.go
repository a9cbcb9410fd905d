package metadata

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DefaultGenre is used when neither the database nor the product page names one.
const DefaultGenre = "Hörspiel"

// topic is a tag and the keywords that select it.
type topic struct {
	Tag      string
	Keywords []string
}

// topics are matched in order, so tag order is stable.
//
//nolint:gochecknoglobals // Static keyword table
var topics = []topic{
	{"Weihnachten", []string{"weihnacht", "advent", "christmas", "nikolaus", "rentier", "krippe", "winter"}},
	{"Märchen", []string{"märchen", "fee", "hex", "prinz", "könig", "wolf", "rotkäppchen", "grimm", "fabel"}},
	{"Tiere", []string{"tier", "zoo", "bauernhof", "dino", "pferd", "hund", "katze", "löwe", "bär", "wal"}},
	{"Einschlafen", []string{"schlaf", "gute nacht", "träum", "sandmann", "lullaby", "ruhe", "bett"}},
	{"Musik", []string{"lied", "sing", "musik", "song", "tanzen", "rhythmus", "orchester", "minimusiker"}},
	{"Lernen", []string{"wissen", "lernen", "schule", "was ist was", "entdeck", "forscher", "englisch", "buchstabe", "zahl"}},
	{"Abenteuer", []string{"abenteuer", "pirat", "räuber", "schatz", "reise", "detektiv", "drache", "ritter"}},
	{"Disney", []string{"disney", "pixar", "micky", "minnie", "donald", "goofy"}},
	{"Helden", []string{"held", "super", "spidey", "batman", "paw patrol", "feuerwehrmann", "ninjago"}},
}

var digitsRe = regexp.MustCompile(`\d+`)

// DetectTags returns the topic tags whose keywords occur in title,
// description or genre, followed by the genre itself.
func DetectTags(title, description, genre string) []string {
	text := fold(title + " " + description + " " + genre)

	var tags []string
	for _, t := range topics {
		for _, k := range t.Keywords {
			if strings.Contains(text, fold(k)) {
				tags = append(tags, t.Tag)
				break
			}
		}
	}
	if genre != "" && !slices.Contains(tags, genre) {
		tags = append(tags, genre)
	}
	return tags
}

// ExtractAge returns the first number in text, or 0.
func ExtractAge(text string) int {
	m := digitsRe.FindString(text)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// fold case-folds s. A Caser is stateful, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}
