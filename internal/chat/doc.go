// Package chat turns free-form Pokémon questions into markdown answers.
//
// A question is first checked for listing intent ("show me 5 water
// pokemon"), then scanned for candidate names which are resolved against
// PokéAPI in priority order: pokemon, then type, ability, and move.
// Rendered answers are cached under the normalized question text.
package chat
