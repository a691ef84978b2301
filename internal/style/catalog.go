package style

// ThematicStyle is a named aesthetic transformation applied to scene
// prompts. Tone and Setting feed directly into prompt construction.
type ThematicStyle struct {
	Key         string
	Name        string
	Description string
	Tone        string
	Setting     string
}

// Catalog is the static style table plus the genre affinity lists.
type Catalog struct {
	styles   []ThematicStyle
	byKey    map[string]ThematicStyle
	affinity map[string][]string
}

// DefaultCatalog returns the built-in style table. Every style belongs
// to zero or more genre affinity lists.
func DefaultCatalog() *Catalog {
	styles := []ThematicStyle{
		{Key: "gothic", Name: "Gothic", Description: "decay, dread and the weight of the past", Tone: "ominous, brooding", Setting: "crumbling manors, fog-bound moors"},
		{Key: "noir", Name: "Noir", Description: "moral ambiguity under hard shadows", Tone: "cynical, clipped", Setting: "rain-slick streets, smoke-filled offices"},
		{Key: "pastoral", Name: "Pastoral", Description: "rural calm concealing quiet tensions", Tone: "gentle, observant", Setting: "farmsteads, hedgerows, village greens"},
		{Key: "baroque", Name: "Baroque", Description: "ornate excess and theatrical passion", Tone: "extravagant, fevered", Setting: "gilded courts, masked balls"},
		{Key: "minimalist", Name: "Minimalist", Description: "spare surfaces over deep currents", Tone: "flat, restrained", Setting: "bare rooms, empty roads"},
		{Key: "surreal", Name: "Surreal", Description: "dream logic bleeding into the everyday", Tone: "disoriented, wondering", Setting: "shifting rooms, impossible geographies"},
		{Key: "epistolary", Name: "Epistolary", Description: "intimacy refracted through letters and records", Tone: "confessional, partial", Setting: "writing desks, archives"},
		{Key: "mythic", Name: "Mythic", Description: "archetypes moving through fated patterns", Tone: "elevated, inevitable", Setting: "sacred groves, thresholds between worlds"},
		{Key: "satirical", Name: "Satirical", Description: "social pretension held up to the light", Tone: "arch, needling", Setting: "drawing rooms, public assemblies"},
		{Key: "melancholic", Name: "Melancholic", Description: "loss remembered in slow detail", Tone: "wistful, subdued", Setting: "overgrown gardens, winter coasts"},
		{Key: "grotesque", Name: "Grotesque", Description: "the body and the absurd made strange", Tone: "unsettling, darkly comic", Setting: "carnivals, anatomy theatres"},
		{Key: "romantic", Name: "Romantic", Description: "feeling elevated over propriety", Tone: "ardent, sweeping", Setting: "storm-lit cliffs, candlelit halls"},
		{Key: "martial", Name: "Martial", Description: "loyalty and cost on the edge of violence", Tone: "terse, urgent", Setting: "encampments, besieged walls"},
		{Key: "domestic", Name: "Domestic", Description: "small rooms where large things are decided", Tone: "close, particular", Setting: "kitchens, parlors, stairwells"},
		{Key: "maritime", Name: "Maritime", Description: "isolation and discipline at sea", Tone: "salt-worn, fatalistic", Setting: "ship decks, harbor taverns"},
		{Key: "courtly", Name: "Courtly", Description: "power negotiated through etiquette", Tone: "polished, double-edged", Setting: "throne rooms, privy chambers"},
		{Key: "frontier", Name: "Frontier", Description: "civilization thinning at its edge", Tone: "laconic, watchful", Setting: "trail camps, one-street towns"},
		{Key: "uncanny", Name: "Uncanny", Description: "the familiar turned subtly wrong", Tone: "quiet, prickling", Setting: "ordinary houses after dark"},
	}

	affinity := map[string][]string{
		"tragedy":   {"gothic", "mythic", "melancholic", "martial", "baroque"},
		"comedy":    {"satirical", "domestic", "pastoral", "grotesque"},
		"romance":   {"romantic", "epistolary", "pastoral", "melancholic", "courtly"},
		"mystery":   {"noir", "gothic", "uncanny", "epistolary"},
		"horror":    {"gothic", "grotesque", "uncanny", "surreal"},
		"adventure": {"maritime", "frontier", "martial", "mythic"},
		"history":   {"courtly", "martial", "epistolary", "baroque"},
		"satire":    {"satirical", "grotesque", "minimalist"},
	}

	byKey := make(map[string]ThematicStyle, len(styles))
	for _, s := range styles {
		byKey[s.Key] = s
	}

	return &Catalog{styles: styles, byKey: byKey, affinity: affinity}
}

// Get returns the style for a key.
func (c *Catalog) Get(key string) (ThematicStyle, bool) {
	s, ok := c.byKey[key]
	return s, ok
}

// Len returns the catalog size.
func (c *Catalog) Len() int {
	return len(c.styles)
}

// Keys returns all style keys in catalog order.
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.styles))
	for i, s := range c.styles {
		keys[i] = s.Key
	}
	return keys
}

// Affinity returns the style keys affiliated with a genre, or nil when
// the genre has no affinity list.
func (c *Catalog) Affinity(genre string) []string {
	return c.affinity[genre]
}
