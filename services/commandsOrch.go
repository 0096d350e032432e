package services

import (
	"fmt"

	"github.com/STop211650/HyphynessTracker/services/common"
	"github.com/STop211650/HyphynessTracker/services/interactionService"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func HandleSlashCommand(s *discordgo.Session, i *discordgo.InteractionCreate, h *interactionService.Handler, db *gorm.DB, log *zap.Logger) {
	var err error
	switch i.ApplicationCommandData().Name {
	case "add-bet":
		err = h.AddBet(s, i)
	case "settle-bet":
		err = h.SettleBet(s, i)
	case "my-open-bets":
		err = h.MyOpenBets(s, i)
	default:
		log.Warn("unknown command", zap.String("command", i.ApplicationCommandData().Name))
		return
	}
	if err != nil {
		common.SendError(s, i, err, db, log)
	}
}

// Commands is the slash command set the bot registers on startup.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "add-bet",
			Description: "Record a new bet from a bet slip screenshot",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "screenshot",
					Description: "Bet slip screenshot",
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Required:    true,
				},
				{
					Name:        "participants",
					Description: "Who is in and for how much, e.g. \"Sam: 50, Alex: 50\" or \"Sam, Alex split equally\"",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    true,
				},
				{
					Name:        "who-paid",
					Description: "Who put up the money",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    false,
				},
			},
		},
		{
			Name:        "settle-bet",
			Description: "Settle a bet from a settled bet slip screenshot",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "screenshot",
					Description: "Settled bet slip screenshot",
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Required:    true,
				},
				{
					Name:        "who-paid",
					Description: "Who put up the money, used if the slip is recorded as a new bet",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    false,
				},
			},
		},
		{
			Name:        "my-open-bets",
			Description: "Show your open bets",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "participant",
					Description: "Also include bets this participant is in",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    false,
				},
			},
		},
	}
}

func RegisterCommands(s *discordgo.Session) error {
	for _, cmd := range Commands() {
		_, err := s.ApplicationCommandCreate(s.State.User.ID, "", cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%v' command: %v", cmd.Name, err)
		}
	}
	return nil
}
