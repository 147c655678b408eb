package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"ModMate/messages"
	"ModMate/moderation"
	"ModMate/summarizer"
	"ModMate/utils"

	"github.com/inconshreveable/log15"
)

var logger = log15.New("module", "api")

// PlatformGateway is what the command surface needs from the platform
// binding.
type PlatformGateway interface {
	SendMessage(ctx context.Context, channelID, message string) error
	ChannelHistory(ctx context.Context, channelID string, limit int) ([]messages.Message, error)
}

// Handler owns the HTTP surface: the event intake and health check.
type Handler struct {
	moderator  *moderation.Moderator
	store      *messages.Store
	gateway    PlatformGateway
	summarizer *summarizer.Summarizer
}

func NewHandler(mod *moderation.Moderator, store *messages.Store, gw PlatformGateway, summ *summarizer.Summarizer) *Handler {
	return &Handler{
		moderator:  mod,
		store:      store,
		gateway:    gw,
		summarizer: summ,
	}
}

// HandleHealthCheck reports liveness.
func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// HandleEvents is the relay intake: one POST per observed platform message.
// Each event is moderated inline; relay retries are dropped by the dedup
// guard.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Unable to read request body", http.StatusBadRequest)
		return
	}

	var event MessageEvent
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "Invalid event format", http.StatusBadRequest)
		return
	}

	if event.Type != "message" || event.Message.ID == "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if utils.IsDuplicateEvent(r.Context(), event.EventID) {
		logger.Info("duplicate event dropped", "event", event.EventID)
		w.WriteHeader(http.StatusOK)
		return
	}

	msg := event.toMessage()

	if msg.IsDirect() {
		err = h.moderator.RespondDirect(r.Context(), msg)
	} else {
		err = h.moderator.Moderate(r.Context(), msg)
	}
	if err != nil {
		// The message is already recorded in context; the cycle for this
		// message ends here, future turns still see it.
		logger.Error("moderation cycle failed", "message", msg.MessageID, "err", err)
	}

	if !msg.AuthorIsBot && strings.HasPrefix(msg.Content, moderation.CommandPrefix) {
		h.handleCommand(r.Context(), msg)
	}

	w.WriteHeader(http.StatusOK)
}
