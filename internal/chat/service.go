package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"pokechat/internal/cache"
	"pokechat/internal/config"
	"pokechat/internal/logging"
	"pokechat/internal/pokeapi"
	"pokechat/internal/services"
	"pokechat/internal/textutil"
)

// Service answers Pokémon questions with markdown rendered from PokéAPI
// lookups.
type Service struct {
	api          pokeapi.API
	store        cache.Cache
	cacheAnswers bool
	ttl          time.Duration
	defaultCount int
	maxCount     int
	logger       *slog.Logger
}

// NewService wires the chat service from the validated config.
func NewService(cfg *config.Config, api pokeapi.API, store cache.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		api:          api,
		store:        store,
		cacheAnswers: cfg.Chat.CacheAnswers && store != nil,
		ttl:          time.Duration(cfg.Cache.TTLSeconds) * time.Second,
		defaultCount: cfg.Chat.DefaultListCount,
		maxCount:     cfg.Chat.MaxListCount,
		logger:       logging.NewComponentLogger(logger, "chat"),
	}
}

// Answer resolves the question and returns a markdown answer. Rendered
// answers are cached under the normalized question when enabled.
func (s *Service) Answer(ctx context.Context, req Request) (string, error) {
	question := req.question()
	if question == "" {
		return "", services.Wrap(services.ErrValidation, "chat",
			"provide a question or a messages array with a user entry", nil)
	}

	key := "chat:" + textutil.Normalize(question)
	if s.cacheAnswers {
		if data, ok, err := s.store.Get(ctx, key); err == nil && ok {
			return string(data), nil
		}
	}

	markdown, err := s.answer(ctx, question)
	if err != nil {
		return "", err
	}
	if s.cacheAnswers {
		_ = s.store.Set(ctx, key, []byte(markdown), s.ttl)
	}
	logging.WithContext(ctx, s.logger).Debug("question answered", logging.Int("answer_bytes", len(markdown)))
	return markdown, nil
}

func (s *Service) answer(ctx context.Context, question string) (string, error) {
	if isListRequest(question) {
		markdown, handled, err := s.answerList(ctx, question)
		if handled {
			return markdown, err
		}
	}
	return s.answerLookup(ctx, question)
}

// answerList serves listing questions. An index listing that fails falls
// through to the lookup path instead of erroring.
func (s *Service) answerList(ctx context.Context, question string) (string, bool, error) {
	count := extractCount(question, s.defaultCount, s.maxCount)

	if typeName := extractTypeName(question); typeName != "" {
		info, err := s.api.GetType(ctx, typeName)
		if err != nil {
			return "", true, services.Wrap(services.ErrUpstream, "chat", fmt.Sprintf("type lookup %q", typeName), err)
		}
		if info == nil {
			return "", true, services.Wrap(services.ErrNotFound, "chat", fmt.Sprintf("unknown type %q", typeName), nil)
		}
		names := make([]string, 0, count)
		for _, member := range info.Pokemon {
			if member.Pokemon.Name == "" {
				continue
			}
			names = append(names, member.Pokemon.Name)
			if len(names) == count {
				break
			}
		}
		if len(names) == 0 {
			return "", true, services.Wrap(services.ErrNotFound, "chat", fmt.Sprintf("no pokemon recorded for type %q", typeName), nil)
		}
		return renderTypeList(typeName, names), true, nil
	}

	page, err := s.api.ListPokemon(ctx, count, 0)
	if err != nil || page == nil || len(page.Results) == 0 {
		if err != nil {
			s.logger.Warn("index listing failed, trying name lookup instead", logging.Error(err))
		}
		return "", false, nil
	}
	names := make([]string, 0, len(page.Results))
	for _, res := range page.Results {
		if res.Name != "" {
			names = append(names, res.Name)
		}
	}
	return renderNameList(names), true, nil
}

func (s *Service) answerLookup(ctx context.Context, question string) (string, error) {
	candidates := extractCandidates(question)
	if len(candidates) == 0 {
		return "", services.Wrap(services.ErrValidation, "chat", "no searchable terms in question", nil)
	}

	for _, kind := range resourcePriority(question) {
		for _, candidate := range candidates {
			markdown, err := s.lookup(ctx, kind, candidate)
			if err != nil {
				return "", err
			}
			if markdown != "" {
				return markdown, nil
			}
		}
	}
	return "", services.Wrap(services.ErrNotFound, "chat",
		"no matching pokemon resource; name a pokemon, type, ability, or move", nil)
}

// lookup tries one resource kind for one candidate. An empty string with a
// nil error means the upstream does not know the name.
func (s *Service) lookup(ctx context.Context, kind, candidate string) (string, error) {
	switch kind {
	case kindPokemon:
		p, err := s.api.GetPokemon(ctx, candidate)
		if err != nil {
			return "", services.Wrap(services.ErrUpstream, "chat", fmt.Sprintf("pokemon lookup %q", candidate), err)
		}
		if p == nil {
			return "", nil
		}
		var species *pokeapi.Species
		if sp, err := s.api.GetSpecies(ctx, strconv.Itoa(p.ID)); err == nil {
			species = sp
		} else {
			s.logger.Warn("species lookup failed",
				logging.String(logging.FieldEntity, p.Name), logging.Error(err))
		}
		return renderPokemonCard(p, species), nil
	case kindType:
		info, err := s.api.GetType(ctx, candidate)
		if err != nil {
			return "", services.Wrap(services.ErrUpstream, "chat", fmt.Sprintf("type lookup %q", candidate), err)
		}
		if info == nil {
			return "", nil
		}
		return renderTypeCard(info), nil
	case kindAbility:
		ability, err := s.api.GetAbility(ctx, candidate)
		if err != nil {
			return "", services.Wrap(services.ErrUpstream, "chat", fmt.Sprintf("ability lookup %q", candidate), err)
		}
		if ability == nil {
			return "", nil
		}
		return renderAbilityCard(ability), nil
	case kindMove:
		move, err := s.api.GetMove(ctx, candidate)
		if err != nil {
			return "", services.Wrap(services.ErrUpstream, "chat", fmt.Sprintf("move lookup %q", candidate), err)
		}
		if move == nil {
			return "", nil
		}
		return renderMoveCard(move), nil
	}
	return "", nil
}
