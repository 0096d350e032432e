package interactionService

import (
	"github.com/STop211650/HyphynessTracker/services/common"
	"github.com/STop211650/HyphynessTracker/services/messageService"
	"github.com/STop211650/HyphynessTracker/services/reconcileService"
	"github.com/bwmarrin/discordgo"
)

// AddBet records a new bet from a slip screenshot and the participants text
// given with the command.
func (h *Handler) AddBet(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		return err
	}

	ctx, cancel := h.requestContext()
	defer cancel()

	data := i.ApplicationCommandData()
	raw, parsed, err := h.slip(ctx, data)
	if err != nil {
		return err
	}

	record, err := h.reconciler.Create(ctx, reconcileService.CreateRequest{
		OwnerID: common.ActorID(i),
		Bet:     parsed,
		Stakes:  optionString(data, "participants"),
		WhoPaid: optionString(data, "who-paid"),
		Raw:     &raw,
	})
	if err != nil {
		return err
	}

	_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{messageService.RecordEmbed("Bet recorded", *record)},
	})
	return err
}
