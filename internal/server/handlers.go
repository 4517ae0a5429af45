package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pokechat/internal/chat"
	"pokechat/internal/identify"
	"pokechat/internal/logging"
	"pokechat/internal/services"
)

// multipartOverhead covers boundaries and part headers on top of the
// configured upload limit.
const multipartOverhead = 1 << 20

func (s *Server) handleHealth(c *gin.Context) {
	err := s.api.Healthy(c.Request.Context())
	if err != nil {
		logging.WithContext(c.Request.Context(), s.logger).Warn("pokeapi probe failed", logging.Error(err))
	}
	c.JSON(http.StatusOK, healthResponse{Status: "ok", PokeAPI: err == nil})
}

func (s *Server) handleChat(c *gin.Context) {
	var req chat.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, services.Wrap(services.ErrValidation, "chat", "invalid json body", err))
		return
	}

	answer, err := s.chat.Answer(c.Request.Context(), req)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(answer))
}

func (s *Server) handleIdentify(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body,
		s.cfg.Identify.MaxUploadBytes+multipartOverhead)

	var (
		match identify.Match
		err   error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		match, err = s.identifyUpload(c)
	} else {
		match, err = s.identifyFromJSON(c)
	}
	if err != nil {
		s.renderError(c, err)
		return
	}

	resp := newIdentifyResponse(match)
	if match.Matched {
		resp.Pokemon = s.lookupSummary(c.Request.Context(), match.Entity)
	}
	c.JSON(http.StatusOK, resp)
}

// identifyUpload resolves the multipart form: a file part, or a url field,
// but not both.
func (s *Server) identifyUpload(c *gin.Context) (identify.Match, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			return identify.Match{}, s.uploadTooLarge()
		}
		fileHeader = nil
	}
	urlValue := strings.TrimSpace(c.PostForm("url"))

	switch {
	case fileHeader != nil && urlValue != "":
		return identify.Match{}, services.Wrap(services.ErrValidation, "identify",
			"provide either a file upload or an image url, not both", nil)
	case fileHeader == nil && urlValue == "":
		return identify.Match{}, services.Wrap(services.ErrValidation, "identify",
			"provide a file upload or an image url", nil)
	case urlValue != "":
		return s.identify.IdentifyURL(c.Request.Context(), urlValue)
	}

	if ct := fileHeader.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return identify.Match{}, services.Wrap(services.ErrValidation, "identify",
			fmt.Sprintf("unsupported upload content type %s", ct), nil)
	}
	if fileHeader.Size > s.cfg.Identify.MaxUploadBytes {
		return identify.Match{}, s.uploadTooLarge()
	}

	file, err := fileHeader.Open()
	if err != nil {
		return identify.Match{}, services.Wrap(services.ErrValidation, "identify", "read upload", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.Identify.MaxUploadBytes+1))
	if err != nil {
		return identify.Match{}, services.Wrap(services.ErrValidation, "identify", "read upload", err)
	}
	if int64(len(data)) > s.cfg.Identify.MaxUploadBytes {
		return identify.Match{}, s.uploadTooLarge()
	}
	return s.identify.Identify(c.Request.Context(), data)
}

func (s *Server) identifyFromJSON(c *gin.Context) (identify.Match, error) {
	var req identifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		switch {
		case isBodyTooLarge(err):
			return identify.Match{}, s.uploadTooLarge()
		case errors.Is(err, io.EOF):
			return identify.Match{}, services.Wrap(services.ErrValidation, "identify",
				"provide a file upload or an image url", nil)
		}
		return identify.Match{}, services.Wrap(services.ErrValidation, "identify", "invalid json body", err)
	}
	if strings.TrimSpace(req.URL) == "" {
		return identify.Match{}, services.Wrap(services.ErrValidation, "identify",
			"provide a file upload or an image url", nil)
	}
	return s.identify.IdentifyURL(c.Request.Context(), req.URL)
}

func (s *Server) uploadTooLarge() error {
	return services.Wrap(services.ErrValidation, "identify",
		fmt.Sprintf("upload exceeds %d byte limit", s.cfg.Identify.MaxUploadBytes), nil)
}

// lookupSummary enriches a match with upstream data. Failures only cost
// the enrichment, never the identification.
func (s *Server) lookupSummary(ctx context.Context, entity string) *pokemonSummary {
	p, err := s.api.GetPokemon(ctx, entity)
	if err != nil {
		logging.WithContext(ctx, s.logger).Warn("summary lookup failed",
			logging.String(logging.FieldEntity, entity), logging.Error(err))
		return nil
	}
	if p == nil {
		return nil
	}
	return newPokemonSummary(p)
}

func (s *Server) renderError(c *gin.Context, err error) {
	status := services.HTTPStatus(err)
	requestID, _ := services.RequestIDFromContext(c.Request.Context())

	log := logging.WithContext(c.Request.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", logging.Int("status", status), logging.Error(err))
	} else {
		log.Warn("request rejected", logging.Int("status", status), logging.Error(err))
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: services.UserMessage(err), RequestID: requestID})
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
