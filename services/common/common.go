package common

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/STop211650/HyphynessTracker/models"
)

// ActorID returns the Discord user behind an interaction, in a guild or a DM.
func ActorID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func GetUsernameFromUser(user *discordgo.User) string {
	if user == nil {
		return "Unknown User"
	}
	if user.GlobalName != "" {
		return user.GlobalName
	}
	return user.Username
}

// DescribeError turns a service error into the text shown to the person who
// triggered it.
func DescribeError(err error) string {
	var validation *ValidationError
	var settled *AlreadySettledError

	switch {
	case errors.As(err, &validation):
		msg := "Please fix the following:"
		for _, e := range validation.Errors {
			msg += "\n• " + e
		}
		return msg
	case errors.As(err, &settled):
		return fmt.Sprintf("This bet was already settled as **%s**.", settled.Status)
	case errors.Is(err, ErrExtraction):
		return "Could not read that screenshot. Try again with a clearer image."
	default:
		return fmt.Sprintf("An error occured: %v", err)
	}
}

func SendError(s *discordgo.Session, i *discordgo.InteractionCreate, err error, db *gorm.DB, log *zap.Logger) {
	ownerID := ""
	if i != nil {
		ownerID = ActorID(i)
		localErr := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: DescribeError(err),
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
		if localErr != nil {
			// Deferred interactions can only be answered through an edit.
			content := DescribeError(err)
			_, localErr = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content})
		}
		if localErr != nil {
			log.Warn("error sending interaction", zap.Error(localErr))
		}
	}

	log.Error("interaction failed", zap.String("owner_id", ownerID), zap.Error(err))
	LogError(db, ownerID, "discord", err)
}

// LogError persists err so failures survive restarts and can be reviewed later.
func LogError(db *gorm.DB, ownerID, source string, err error) {
	if db == nil || err == nil {
		return
	}
	db.Create(&models.ErrorLog{
		OwnerID: ownerID,
		Source:  source,
		Message: fmt.Sprintf("%v", err),
	})
}
