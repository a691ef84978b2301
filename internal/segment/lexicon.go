package segment

import "strings"

// Keyword families used by the potential scorers. Matching is
// case-insensitive whole-substring counting; the caps applied by the
// scorers keep long documents from inflating any one family.

var dramaticLexicon = []string{
	"betray", "revenge", "murder", "ghost", "poison", "swear", "curse",
	"death", "blood", "treason", "madness", "duel", "conspiracy",
	"villain", "honor", "grief", "fate", "prophecy",
}

var actionVerbs = []string{
	"ran", "grabbed", "struck", "leapt", "seized", "rushed", "fled",
	"threw", "slammed", "charged", "stumbled", "fought", "chased",
	"snatched", "burst", "dashed",
}

var emotionKeywords = []string{
	"afraid", "furious", "wept", "trembl", "despair", "terror", "joy",
	"rage", "anguish", "dread", "sorrow", "horror", "ecsta", "jealous",
	"shame", "longing",
}

var settingKeywords = []string{
	"room", "street", "forest", "castle", "garden", "house", "shore",
	"chamber", "window", "door", "night", "morning", "twilight", "fire",
	"rain", "storm", "candle", "moonlight",
}

func countKeywords(text string, keywords []string) int {
	lower := strings.ToLower(text)
	total := 0
	for _, kw := range keywords {
		total += strings.Count(lower, kw)
	}
	return total
}
