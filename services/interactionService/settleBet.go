package interactionService

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/STop211650/HyphynessTracker/services/common"
	"github.com/STop211650/HyphynessTracker/services/messageService"
	"github.com/STop211650/HyphynessTracker/services/reconcileService"
	"github.com/STop211650/HyphynessTracker/services/sessionService"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// SettleBet reads a settled slip and either settles the one bet it clearly
// belongs to or asks the owner what to do with it.
func (h *Handler) SettleBet(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		return err
	}

	ctx, cancel := h.requestContext()
	defer cancel()

	ownerID := common.ActorID(i)
	data := i.ApplicationCommandData()
	raw, parsed, err := h.slip(ctx, data)
	if err != nil {
		return err
	}

	outcome, err := h.reconciler.ReconcileParsed(ctx, ownerID, parsed)
	if err != nil {
		return err
	}

	if outcome.Kind == reconcileService.Settled {
		_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
			Embeds: &[]*discordgo.MessageEmbed{messageService.SettlementEmbed(*outcome.Summary)},
		})
		return err
	}

	sess := sessionService.Session{
		ID:        sessionService.NewID(),
		OwnerID:   ownerID,
		Bet:       parsed,
		Raw:       &raw,
		WhoPaid:   optionString(data, "who-paid"),
		CreatedAt: h.now().UTC(),
	}
	for _, m := range outcome.Matches {
		sess.CandidateIDs = append(sess.CandidateIDs, m.RecordID)
	}
	if err := h.sessions.Put(ctx, sess); err != nil {
		return err
	}

	var embed *discordgo.MessageEmbed
	var components []discordgo.MessageComponent
	if outcome.Kind == reconcileService.NeedsSelection {
		embed = messageService.MatchListEmbed(parsed, outcome.Matches)
		components = messageService.MatchComponents(sess.ID, outcome.Matches)
	} else {
		embed = messageService.NewBetPromptEmbed(parsed, outcome.Reason)
		components = []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{messageService.GetAddStakesButton(sess.ID)}},
		}
	}

	_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	})
	return err
}

func (h *Handler) HandleMatchSelection(s *discordgo.Session, i *discordgo.InteractionCreate, customID string) error {
	sessionID := strings.TrimPrefix(customID, messageService.SelectMatchPrefix)
	values := i.MessageComponentData().Values
	if len(values) != 1 {
		return errors.New("select exactly one bet")
	}

	ctx, cancel := h.requestContext()
	defer cancel()

	sess, err := h.loadSession(ctx, sessionID, common.ActorID(i))
	if err != nil {
		return err
	}
	recordID := values[0]
	if !containsID(sess.CandidateIDs, recordID) {
		return fmt.Errorf("bet %s was not offered for this slip", recordID)
	}

	summary, err := h.reconciler.Select(ctx, sess.OwnerID, recordID, sess.Bet.Status)
	if err != nil {
		return err
	}
	h.dropSession(ctx, sess.ID)

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{messageService.SettlementEmbed(summary)},
			Components: []discordgo.MessageComponent{},
		},
	})
}

// HandleStakesPrompt opens the participants modal for a slip that will be
// recorded as a new bet.
func (h *Handler) HandleStakesPrompt(s *discordgo.Session, i *discordgo.InteractionCreate, sessionID string) error {
	ctx, cancel := h.requestContext()
	defer cancel()

	sess, err := h.loadSession(ctx, sessionID, common.ActorID(i))
	if err != nil {
		return err
	}

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: messageService.StakesModal(sess.ID, common.FormatMoney(sess.Bet.Risk)),
	})
}

func (h *Handler) HandleStakesSubmit(s *discordgo.Session, i *discordgo.InteractionCreate, customID string) error {
	sessionID := strings.TrimPrefix(customID, messageService.StakesModalPrefix)

	ctx, cancel := h.requestContext()
	defer cancel()

	sess, err := h.loadSession(ctx, sessionID, common.ActorID(i))
	if err != nil {
		return err
	}

	values := modalValues(i.ModalSubmitData())
	whoPaid := values[messageService.WhoPaidInputID]
	if whoPaid == "" {
		whoPaid = sess.WhoPaid
	}

	// A stake typo leaves the session in place so the owner can try again.
	record, err := h.reconciler.Create(ctx, reconcileService.CreateRequest{
		OwnerID: sess.OwnerID,
		Bet:     sess.Bet,
		Stakes:  values[messageService.StakesInputID],
		WhoPaid: whoPaid,
		Raw:     sess.Raw,
	})
	if err != nil {
		return err
	}
	h.dropSession(ctx, sess.ID)

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{messageService.RecordEmbed("Bet recorded", *record)},
		},
	})
}

func (h *Handler) dropSession(ctx context.Context, id string) {
	if err := h.sessions.Delete(ctx, id); err != nil {
		h.log.Warn("failed to drop settlement session", zap.String("session_id", id), zap.Error(err))
	}
}
