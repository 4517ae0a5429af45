package server

import (
	"pokechat/internal/identify"
	"pokechat/internal/pokeapi"
)

type healthResponse struct {
	Status  string `json:"status"`
	PokeAPI bool   `json:"pokeapi"`
}

type identifyRequest struct {
	URL string `json:"url"`
}

// identifyResponse is the wire shape of an identification: entity is null
// when nothing cleared the threshold, similarity always reports the best
// score, and pokemon is a best-effort enrichment.
type identifyResponse struct {
	Entity     *string         `json:"entity"`
	Similarity float64         `json:"similarity"`
	Verdict    string          `json:"verdict"`
	Pokemon    *pokemonSummary `json:"pokemon,omitempty"`
}

type pokemonSummary struct {
	ID     int      `json:"id"`
	Name   string   `json:"name"`
	Types  []string `json:"types"`
	Sprite string   `json:"sprite,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func newIdentifyResponse(match identify.Match) identifyResponse {
	resp := identifyResponse{
		Similarity: match.Similarity,
		Verdict:    match.Verdict,
	}
	if match.Matched {
		entity := match.Entity
		resp.Entity = &entity
	}
	return resp
}

func newPokemonSummary(p *pokeapi.Pokemon) *pokemonSummary {
	types := make([]string, 0, len(p.Types))
	for _, slot := range p.Types {
		if slot.Type.Name != "" {
			types = append(types, slot.Type.Name)
		}
	}
	sprite := p.Sprites.Other.OfficialArtwork.FrontDefault
	if sprite == "" {
		sprite = p.Sprites.FrontDefault
	}
	return &pokemonSummary{ID: p.ID, Name: p.Name, Types: types, Sprite: sprite}
}
