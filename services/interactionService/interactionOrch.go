package interactionService

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/STop211650/HyphynessTracker/models"
	"github.com/STop211650/HyphynessTracker/services/common"
	"github.com/STop211650/HyphynessTracker/services/messageService"
	"github.com/STop211650/HyphynessTracker/services/reconcileService"
	"github.com/STop211650/HyphynessTracker/services/sessionService"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Screenshot extraction can take a while, deferred interactions stay open for
// fifteen minutes.
const handlerTimeout = 90 * time.Second

var ErrSessionExpired = errors.New("this slip has expired, run /settle-bet again")

type Extractor interface {
	Extract(ctx context.Context, screenshot []byte) (models.RawExtraction, error)
	FetchAttachment(ctx context.Context, url string) ([]byte, error)
}

type Normalizer interface {
	Normalize(raw models.RawExtraction) (models.ParsedBet, error)
}

type Reconciler interface {
	ReconcileParsed(ctx context.Context, ownerID string, bet models.ParsedBet) (reconcileService.Outcome, error)
	Select(ctx context.Context, ownerID, recordID string, status models.BetStatus) (models.SettlementSummary, error)
	Create(ctx context.Context, req reconcileService.CreateRequest) (*models.BetRecord, error)
}

type BetLister interface {
	ActiveBets(ctx context.Context, ownerID, participant string) ([]models.BetRecord, error)
}

// Handler answers the bot's slash commands, buttons and modals.
type Handler struct {
	db         *gorm.DB
	log        *zap.Logger
	extractor  Extractor
	normalizer Normalizer
	reconciler Reconciler
	bets       BetLister
	sessions   sessionService.Store
	now        func() time.Time
}

func NewHandler(db *gorm.DB, log *zap.Logger, extractor Extractor, normalizer Normalizer, reconciler Reconciler, bets BetLister, sessions sessionService.Store) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		db:         db,
		log:        log,
		extractor:  extractor,
		normalizer: normalizer,
		reconciler: reconciler,
		bets:       bets,
		sessions:   sessions,
		now:        time.Now,
	}
}

func (h *Handler) HandleComponentInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	if strings.HasPrefix(customID, messageService.SelectMatchPrefix) {
		err := h.HandleMatchSelection(s, i, customID)
		if err != nil {
			common.SendError(s, i, err, h.db, h.log)
		}
		return
	}

	if strings.HasPrefix(customID, messageService.NoMatchPrefix) {
		err := h.HandleStakesPrompt(s, i, strings.TrimPrefix(customID, messageService.NoMatchPrefix))
		if err != nil {
			common.SendError(s, i, err, h.db, h.log)
		}
		return
	}

	if strings.HasPrefix(customID, messageService.AddStakesPrefix) {
		err := h.HandleStakesPrompt(s, i, strings.TrimPrefix(customID, messageService.AddStakesPrefix))
		if err != nil {
			common.SendError(s, i, err, h.db, h.log)
		}
		return
	}

	h.log.Warn("unhandled component interaction", zap.String("custom_id", customID))
}

func (h *Handler) HandleModalSubmit(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.ModalSubmitData().CustomID

	if strings.HasPrefix(customID, messageService.StakesModalPrefix) {
		err := h.HandleStakesSubmit(s, i, customID)
		if err != nil {
			common.SendError(s, i, err, h.db, h.log)
		}
		return
	}

	h.log.Warn("unhandled modal submit", zap.String("custom_id", customID))
}

// slip downloads a command's screenshot attachment and turns it into a
// normalized bet.
func (h *Handler) slip(ctx context.Context, data discordgo.ApplicationCommandInteractionData) (models.RawExtraction, models.ParsedBet, error) {
	if h.extractor == nil {
		return models.RawExtraction{}, models.ParsedBet{}, fmt.Errorf("%w: no extractor configured", common.ErrExtraction)
	}
	url, err := attachmentURL(data, "screenshot")
	if err != nil {
		return models.RawExtraction{}, models.ParsedBet{}, err
	}
	image, err := h.extractor.FetchAttachment(ctx, url)
	if err != nil {
		return models.RawExtraction{}, models.ParsedBet{}, err
	}
	raw, err := h.extractor.Extract(ctx, image)
	if err != nil {
		return models.RawExtraction{}, models.ParsedBet{}, err
	}
	parsed, err := h.normalizer.Normalize(raw)
	if err != nil {
		return raw, models.ParsedBet{}, err
	}
	return raw, parsed, nil
}

// loadSession returns the pending slip behind a component, refusing anyone
// but the person who uploaded it.
func (h *Handler) loadSession(ctx context.Context, id, actorID string) (sessionService.Session, error) {
	if id == "" {
		return sessionService.Session{}, fmt.Errorf("invalid session id")
	}
	sess, ok, err := h.sessions.Get(ctx, id)
	if err != nil {
		return sessionService.Session{}, err
	}
	if !ok {
		return sessionService.Session{}, ErrSessionExpired
	}
	if sess.OwnerID != actorID {
		return sessionService.Session{}, common.ErrForbidden
	}
	return sess, nil
}

func (h *Handler) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), handlerTimeout)
}

func attachmentURL(data discordgo.ApplicationCommandInteractionData, name string) (string, error) {
	for _, opt := range data.Options {
		if opt.Name != name {
			continue
		}
		id, _ := opt.Value.(string)
		if data.Resolved != nil {
			if att, ok := data.Resolved.Attachments[id]; ok && att != nil {
				return att.URL, nil
			}
		}
		return "", fmt.Errorf("attachment %q could not be resolved", name)
	}
	return "", fmt.Errorf("missing %s attachment", name)
}

func optionString(data discordgo.ApplicationCommandInteractionData, name string) string {
	for _, opt := range data.Options {
		if opt.Name == name {
			if v, ok := opt.Value.(string); ok {
				return strings.TrimSpace(v)
			}
		}
	}
	return ""
}

func modalValues(data discordgo.ModalSubmitInteractionData) map[string]string {
	values := make(map[string]string)
	for _, component := range data.Components {
		row, ok := component.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range row.Components {
			if input, ok := c.(*discordgo.TextInput); ok {
				values[input.CustomID] = strings.TrimSpace(input.Value)
			}
		}
	}
	return values
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
