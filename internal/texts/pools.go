// Package texts provides the text pools typed in each mode.
package texts

import (
	"strings"

	"github.com/verte-zerg/typequest/internal/model"
)

var builtinWords = []string{
	"the", "be", "to", "of", "and", "a", "in", "that", "have", "I",
	"it", "for", "not", "on", "with", "he", "as", "you", "do", "at",
	"this", "but", "his", "by", "from", "they", "we", "say", "her", "she",
	"or", "an", "will", "my", "one", "all", "would", "there", "their", "what",
	"so", "up", "out", "if", "about", "who", "get", "which", "go", "me",
}

var builtinSentences = []string{
	"The quick brown fox jumps over the lazy dog.",
	"All that glitters is not gold.",
	"Actions speak louder than words.",
	"A journey of a thousand miles begins with a single step.",
	"Don't count your chickens before they hatch.",
	"The early bird catches the worm.",
	"Practice makes perfect.",
	"Where there's a will, there's a way.",
	"You can't judge a book by its cover.",
	"Better late than never.",
	"Two wrongs don't make a right.",
	"The pen is mightier than the sword.",
	"When in Rome, do as the Romans do.",
	"The grass is always greener on the other side.",
	"Fortune favors the bold.",
	"People who live in glass houses should not throw stones.",
	"Hope for the best, prepare for the worst.",
	"Birds of a feather flock together.",
	"Keep your friends close and your enemies closer.",
	"A picture is worth a thousand words.",
}

var builtinParagraphs = []string{
	"The sun was setting behind the mountains, casting long shadows across the valley. A gentle breeze rustled the leaves of the trees, creating a soothing melody. In the distance, a bird called out to its mate, its song echoing through the quiet evening air. It was a perfect moment of peace and tranquility.",
	"The old bookstore on the corner was a treasure trove of forgotten stories. Dusty shelves lined the walls, filled with volumes of all sizes and colors. The scent of aged paper and leather bindings filled the air, creating an atmosphere of mystery and adventure. Each book held a world waiting to be discovered.",
	"The city came alive at night, with bright lights illuminating the streets and buildings. People hurried along the sidewalks, some heading home after a long day, others just beginning their evening adventures. Street vendors called out to passersby, offering everything from hot food to handmade crafts. The energy was electric and contagious.",
	"The small café was tucked away on a side street, easy to miss if you weren't looking for it. Inside, the aroma of freshly ground coffee beans and baked goods welcomed visitors. Soft music played in the background, complementing the murmur of conversations. It was a perfect spot to escape the hustle and bustle of daily life.",
	"The garden was a riot of colors and scents, with flowers of every hue blooming in carefully tended beds. Butterflies fluttered from blossom to blossom, while bees buzzed busily collecting nectar. A stone path wound through the garden, leading to a small pond where water lilies floated on the surface. It was a haven of natural beauty.",
}

// Pools maps each mode to the texts it draws from.
type Pools map[model.Mode][]string

// Builtin returns a copy of the bundled pools.
func Builtin() Pools {
	return Pools{
		model.ModeWords:      append([]string(nil), builtinWords...),
		model.ModeSentences:  append([]string(nil), builtinSentences...),
		model.ModeParagraphs: append([]string(nil), builtinParagraphs...),
	}
}

// With returns a copy of p with the pool for mode replaced.
func (p Pools) With(mode model.Mode, entries []string) Pools {
	out := make(Pools, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	out[mode] = entries
	return out
}

// clean drops blank entries so a drawn target is never empty.
func clean(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e) == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}
