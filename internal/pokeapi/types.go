package pokeapi

import (
	"strconv"
	"strings"
)

// NamedResource is the name/url pair the API uses for cross references.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ID extracts the numeric identifier from the trailing URL segment, or 0
// when the URL does not end in one.
func (r NamedResource) ID() int {
	trimmed := strings.TrimRight(r.URL, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return 0
	}
	id, err := strconv.Atoi(trimmed[idx+1:])
	if err != nil {
		return 0
	}
	return id
}

// Page is one window of the paginated resource index.
type Page struct {
	Count    int             `json:"count"`
	Next     string          `json:"next"`
	Previous string          `json:"previous"`
	Results  []NamedResource `json:"results"`
}

// TypeSlot attaches an elemental type to a Pokémon at a slot position.
type TypeSlot struct {
	Slot int           `json:"slot"`
	Type NamedResource `json:"type"`
}

// AbilitySlot attaches an ability to a Pokémon.
type AbilitySlot struct {
	Ability  NamedResource `json:"ability"`
	IsHidden bool          `json:"is_hidden"`
	Slot     int           `json:"slot"`
}

// StatValue is a single base stat entry.
type StatValue struct {
	BaseStat int           `json:"base_stat"`
	Effort   int           `json:"effort"`
	Stat     NamedResource `json:"stat"`
}

// ArtworkSprites holds the curated high-resolution renders.
type ArtworkSprites struct {
	OfficialArtwork struct {
		FrontDefault string `json:"front_default"`
	} `json:"official-artwork"`
}

// SpriteSet holds the image URLs attached to a Pokémon.
type SpriteSet struct {
	FrontDefault string         `json:"front_default"`
	Other        ArtworkSprites `json:"other"`
}

// MoveSlot attaches a learnable move to a Pokémon.
type MoveSlot struct {
	Move NamedResource `json:"move"`
}

// Pokemon is the default-form payload for a single Pokémon.
type Pokemon struct {
	ID             int           `json:"id"`
	Name           string        `json:"name"`
	Height         int           `json:"height"`
	Weight         int           `json:"weight"`
	BaseExperience int           `json:"base_experience"`
	Types          []TypeSlot    `json:"types"`
	Abilities      []AbilitySlot `json:"abilities"`
	Stats          []StatValue   `json:"stats"`
	Moves          []MoveSlot    `json:"moves"`
	Sprites        SpriteSet     `json:"sprites"`
	Species        NamedResource `json:"species"`
}

// FlavorText is one localized description snippet.
type FlavorText struct {
	FlavorText string        `json:"flavor_text"`
	Language   NamedResource `json:"language"`
	Version    NamedResource `json:"version"`
}

// Genus is the localized category line, e.g. "Mouse Pokémon".
type Genus struct {
	Genus    string        `json:"genus"`
	Language NamedResource `json:"language"`
}

// Species carries the lore attached to a Pokémon species.
type Species struct {
	ID                int           `json:"id"`
	Name              string        `json:"name"`
	IsLegendary       bool          `json:"is_legendary"`
	IsMythical        bool          `json:"is_mythical"`
	CaptureRate       int           `json:"capture_rate"`
	Habitat           NamedResource `json:"habitat"`
	Genera            []Genus       `json:"genera"`
	FlavorTextEntries []FlavorText  `json:"flavor_text_entries"`
}

// EnglishGenus returns the English category line, or "".
func (s *Species) EnglishGenus() string {
	for _, g := range s.Genera {
		if g.Language.Name == "en" {
			return g.Genus
		}
	}
	return ""
}

// EnglishFlavorText returns the first English description with its
// whitespace collapsed, or "".
func (s *Species) EnglishFlavorText() string {
	for _, f := range s.FlavorTextEntries {
		if f.Language.Name == "en" {
			return strings.Join(strings.Fields(f.FlavorText), " ")
		}
	}
	return ""
}

// DamageRelations describes how a type attacks and defends.
type DamageRelations struct {
	DoubleDamageTo   []NamedResource `json:"double_damage_to"`
	DoubleDamageFrom []NamedResource `json:"double_damage_from"`
	HalfDamageTo     []NamedResource `json:"half_damage_to"`
	HalfDamageFrom   []NamedResource `json:"half_damage_from"`
	NoDamageTo       []NamedResource `json:"no_damage_to"`
	NoDamageFrom     []NamedResource `json:"no_damage_from"`
}

// TypePokemon links a type to one of its members.
type TypePokemon struct {
	Pokemon NamedResource `json:"pokemon"`
	Slot    int           `json:"slot"`
}

// TypeInfo is the payload for a single elemental type.
type TypeInfo struct {
	ID              int             `json:"id"`
	Name            string          `json:"name"`
	DamageRelations DamageRelations `json:"damage_relations"`
	Pokemon         []TypePokemon   `json:"pokemon"`
}

// EffectEntry is one localized effect description.
type EffectEntry struct {
	Effect      string        `json:"effect"`
	ShortEffect string        `json:"short_effect"`
	Language    NamedResource `json:"language"`
}

// AbilityPokemon links an ability to one of its bearers.
type AbilityPokemon struct {
	Pokemon  NamedResource `json:"pokemon"`
	IsHidden bool          `json:"is_hidden"`
}

// Ability is the payload for a single ability.
type Ability struct {
	ID            int              `json:"id"`
	Name          string           `json:"name"`
	EffectEntries []EffectEntry    `json:"effect_entries"`
	Pokemon       []AbilityPokemon `json:"pokemon"`
}

// EnglishEffect returns the short English effect text, falling back to the
// long form, or "".
func (a *Ability) EnglishEffect() string {
	return englishEffect(a.EffectEntries)
}

// Move is the payload for a single move.
type Move struct {
	ID            int           `json:"id"`
	Name          string        `json:"name"`
	Power         *int          `json:"power"`
	PP            *int          `json:"pp"`
	Accuracy      *int          `json:"accuracy"`
	EffectChance  *int          `json:"effect_chance"`
	Type          NamedResource `json:"type"`
	DamageClass   NamedResource `json:"damage_class"`
	EffectEntries []EffectEntry `json:"effect_entries"`
}

// EnglishEffect returns the short English effect text with any
// $effect_chance placeholder substituted, or "".
func (m *Move) EnglishEffect() string {
	text := englishEffect(m.EffectEntries)
	if m.EffectChance != nil {
		text = strings.ReplaceAll(text, "$effect_chance", strconv.Itoa(*m.EffectChance))
	}
	return text
}

func englishEffect(entries []EffectEntry) string {
	for _, e := range entries {
		if e.Language.Name != "en" {
			continue
		}
		if e.ShortEffect != "" {
			return strings.Join(strings.Fields(e.ShortEffect), " ")
		}
		return strings.Join(strings.Fields(e.Effect), " ")
	}
	return ""
}
