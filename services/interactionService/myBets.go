package interactionService

import (
	"github.com/STop211650/HyphynessTracker/services/common"
	"github.com/STop211650/HyphynessTracker/services/messageService"
	"github.com/bwmarrin/discordgo"
)

func (h *Handler) MyOpenBets(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ctx, cancel := h.requestContext()
	defer cancel()

	participant := optionString(i.ApplicationCommandData(), "participant")
	records, err := h.bets.ActiveBets(ctx, common.ActorID(i), participant)
	if err != nil {
		return err
	}

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{messageService.ActiveBetsEmbed(records)},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}
