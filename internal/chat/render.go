package chat

import (
	"fmt"
	"strings"

	"pokechat/internal/pokeapi"
	"pokechat/internal/textutil"
)

// typeEmoji decorates type names in rendered answers.
var typeEmoji = map[string]string{
	"electric": "⚡",
	"fire":     "🔥",
	"water":    "💧",
	"grass":    "🌿",
	"ice":      "❄️",
	"fighting": "🥊",
	"poison":   "☠️",
	"ground":   "🌋",
	"flying":   "🕊️",
	"psychic":  "🔮",
	"bug":      "🐛",
	"rock":     "🪨",
	"ghost":    "👻",
	"dragon":   "🐉",
	"dark":     "🌑",
	"steel":    "⚙️",
	"fairy":    "✨",
	"normal":   "⭐",
}

// TypeEmoji returns the emoji for an elemental type name, or "".
func TypeEmoji(name string) string {
	return typeEmoji[strings.ToLower(strings.TrimSpace(name))]
}

var statOrder = []string{"hp", "attack", "defense", "special-attack", "special-defense", "speed"}

var statLabels = map[string]string{
	"hp":              "HP",
	"attack":          "Attack",
	"defense":         "Defense",
	"special-attack":  "Sp. Atk",
	"special-defense": "Sp. Def",
	"speed":           "Speed",
}

// renderPokemonCard builds the full markdown card for a Pokémon. The
// species payload is optional; genus and flavor text lines are skipped
// without it.
func renderPokemonCard(p *pokeapi.Pokemon, species *pokeapi.Species) string {
	title := textutil.TitleCase(p.Name)
	lines := []string{fmt.Sprintf("# %s #%d", title, p.ID)}

	if sprite := cardSprite(p); sprite != "" {
		lines = append(lines, "", fmt.Sprintf("![%s](%s)", title, sprite))
	}

	if len(p.Types) > 0 {
		parts := make([]string, 0, len(p.Types))
		for _, t := range p.Types {
			parts = append(parts, decorateType(t.Type.Name))
		}
		lines = append(lines, "", "**Type:** "+strings.Join(parts, " / "))
	}
	if species != nil {
		if genus := species.EnglishGenus(); genus != "" {
			lines = append(lines, "**Genus:** "+genus)
		}
		if species.IsMythical {
			lines = append(lines, "**Mythical Pokémon**")
		} else if species.IsLegendary {
			lines = append(lines, "**Legendary Pokémon**")
		}
		if flavor := species.EnglishFlavorText(); flavor != "" {
			lines = append(lines, "", flavor)
		}
	}

	lines = append(lines, "",
		fmt.Sprintf("**Height:** %.1f m", float64(p.Height)/10),
		fmt.Sprintf("**Weight:** %.1f kg", float64(p.Weight)/10))
	if p.BaseExperience > 0 {
		lines = append(lines, fmt.Sprintf("**Base XP:** %d", p.BaseExperience))
	}

	if len(p.Abilities) > 0 {
		parts := make([]string, 0, len(p.Abilities))
		for _, a := range p.Abilities {
			name := textutil.TitleCase(a.Ability.Name)
			if a.IsHidden {
				name += " (hidden)"
			}
			parts = append(parts, name)
		}
		lines = append(lines, "", "**Abilities:** "+strings.Join(parts, ", "))
	}

	if rows := statRows(p.Stats); len(rows) > 0 {
		lines = append(lines, "", "**Base Stats:**", "| Stat | Base |", "| --- | ---: |")
		lines = append(lines, rows...)
	}

	if n := len(p.Moves); n > 0 {
		lines = append(lines, "", fmt.Sprintf("Knows %d moves.", n))
	}
	return strings.Join(lines, "\n")
}

func cardSprite(p *pokeapi.Pokemon) string {
	if art := p.Sprites.Other.OfficialArtwork.FrontDefault; art != "" {
		return art
	}
	return p.Sprites.FrontDefault
}

func decorateType(name string) string {
	display := textutil.TitleCase(name)
	if emoji := TypeEmoji(name); emoji != "" {
		return emoji + " " + display
	}
	return display
}

func statRows(stats []pokeapi.StatValue) []string {
	byName := make(map[string]int, len(stats))
	for _, s := range stats {
		byName[s.Stat.Name] = s.BaseStat
	}
	rows := make([]string, 0, len(statOrder))
	for _, name := range statOrder {
		if value, ok := byName[name]; ok {
			rows = append(rows, fmt.Sprintf("| %s | %d |", statLabels[name], value))
		}
	}
	return rows
}

// renderTypeCard summarizes an elemental type's damage relations.
func renderTypeCard(info *pokeapi.TypeInfo) string {
	title := fmt.Sprintf("## %s-type", textutil.TitleCase(info.Name))
	if emoji := TypeEmoji(info.Name); emoji != "" {
		title += " " + emoji
	}
	lines := []string{title, ""}

	relations := []struct {
		label string
		names []pokeapi.NamedResource
	}{
		{"Double damage to", info.DamageRelations.DoubleDamageTo},
		{"Double damage from", info.DamageRelations.DoubleDamageFrom},
		{"Half damage to", info.DamageRelations.HalfDamageTo},
		{"Half damage from", info.DamageRelations.HalfDamageFrom},
		{"No damage to", info.DamageRelations.NoDamageTo},
		{"No damage from", info.DamageRelations.NoDamageFrom},
	}
	for _, rel := range relations {
		if len(rel.names) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", rel.label, textutil.JoinNames(resourceNames(rel.names), "")))
	}
	if len(lines) == 2 {
		lines = append(lines, "No damage relations on record.")
	}
	return strings.Join(lines, "\n")
}

func resourceNames(resources []pokeapi.NamedResource) []string {
	names := make([]string, 0, len(resources))
	for _, r := range resources {
		if r.Name != "" {
			names = append(names, r.Name)
		}
	}
	return names
}

// renderAbilityCard summarizes an ability.
func renderAbilityCard(a *pokeapi.Ability) string {
	lines := []string{fmt.Sprintf("## Ability: %s", textutil.TitleCase(a.Name))}
	if effect := a.EnglishEffect(); effect != "" {
		lines = append(lines, "", effect)
	}
	if n := len(a.Pokemon); n > 0 {
		lines = append(lines, "", fmt.Sprintf("Seen on %d Pokémon.", n))
	}
	return strings.Join(lines, "\n")
}

// renderMoveCard summarizes a move.
func renderMoveCard(m *pokeapi.Move) string {
	lines := []string{fmt.Sprintf("## Move: %s", textutil.TitleCase(m.Name)), ""}
	if m.Type.Name != "" {
		lines = append(lines, "**Type:** "+decorateType(m.Type.Name))
	}
	if m.DamageClass.Name != "" {
		lines = append(lines, "**Class:** "+textutil.TitleCase(m.DamageClass.Name))
	}
	if m.Power != nil {
		lines = append(lines, fmt.Sprintf("**Power:** %d", *m.Power))
	}
	if m.Accuracy != nil {
		lines = append(lines, fmt.Sprintf("**Accuracy:** %d%%", *m.Accuracy))
	}
	if m.PP != nil {
		lines = append(lines, fmt.Sprintf("**PP:** %d", *m.PP))
	}
	if effect := m.EnglishEffect(); effect != "" {
		lines = append(lines, "", effect)
	}
	return strings.Join(lines, "\n")
}

// renderTypeList numbers the first members of an elemental type.
func renderTypeList(typeName string, names []string) string {
	title := fmt.Sprintf("## %s-type Pokémon", textutil.TitleCase(typeName))
	if emoji := TypeEmoji(typeName); emoji != "" {
		title += " " + emoji
	}
	lines := []string{title, "", fmt.Sprintf("Here are %d %s type Pokémon:", len(names), typeName)}
	for i, name := range names {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, textutil.TitleCase(name)))
	}
	return strings.Join(lines, "\n")
}

// renderNameList numbers Pokémon from the index.
func renderNameList(names []string) string {
	lines := []string{"## Pokémon", "", fmt.Sprintf("Here are %d Pokémon:", len(names))}
	for i, name := range names {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, textutil.TitleCase(name)))
	}
	return strings.Join(lines, "\n")
}
