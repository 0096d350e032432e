package services

import (
	"github.com/STop211650/HyphynessTracker/services/interactionService"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InteractionHandler routes every Discord interaction type to the bet handlers.
func InteractionHandler(h *interactionService.Handler, db *gorm.DB, log *zap.Logger) func(*discordgo.Session, *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			HandleSlashCommand(s, i, h, db, log)
		case discordgo.InteractionMessageComponent:
			h.HandleComponentInteraction(s, i)
		case discordgo.InteractionModalSubmit:
			h.HandleModalSubmit(s, i)
		}
	}
}
