package messageService

import (
	"fmt"
	"strings"

	"github.com/STop211650/HyphynessTracker/models"
	"github.com/STop211650/HyphynessTracker/services/common"
	"github.com/STop211650/HyphynessTracker/services/matchService"
	"github.com/bwmarrin/discordgo"
)

const (
	SelectMatchPrefix = "settle_match_select_"
	NoMatchPrefix     = "settle_match_none_"
	AddStakesPrefix   = "settle_add_stakes_"
	StakesModalPrefix = "settle_stakes_modal_"

	StakesInputID  = "participants"
	WhoPaidInputID = "who_paid"
)

const (
	colorWon     = 0x2ecc71
	colorLost    = 0xe74c3c
	colorNeutral = 0x95a5a6
	colorPending = 0x3498db
)

func statusColor(status models.BetStatus) int {
	switch status {
	case models.StatusWon:
		return colorWon
	case models.StatusLost:
		return colorLost
	case models.StatusPush, models.StatusVoid:
		return colorNeutral
	}
	return colorPending
}

func statusEmoji(status models.BetStatus) string {
	switch status {
	case models.StatusWon:
		return "✅"
	case models.StatusLost:
		return "❌"
	case models.StatusPush:
		return "➖"
	case models.StatusVoid:
		return "🚫"
	}
	return "⏳"
}

func betTitle(ticket, sportsbook string) string {
	if sportsbook == "" {
		return fmt.Sprintf("Ticket %s", ticket)
	}
	return fmt.Sprintf("%s ticket %s", sportsbook, ticket)
}

func SettlementEmbed(summary models.SettlementSummary) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s Bet settled: %s", statusEmoji(summary.Status), strings.ToUpper(string(summary.Status))),
		Color: statusColor(summary.Status),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Ticket", Value: summary.TicketNumber, Inline: true},
			{Name: "Risk", Value: common.FormatMoney(summary.Risk), Inline: true},
			{Name: "Total Payout", Value: common.FormatMoney(summary.TotalPayout), Inline: true},
		},
	}

	if len(summary.Winners) > 0 {
		lines := make([]string, 0, len(summary.Winners))
		for _, w := range summary.Winners {
			lines = append(lines, fmt.Sprintf("**%s** +%s", w.Name, common.FormatMoney(w.Profit)))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Winners", Value: strings.Join(lines, "\n")})
	}
	if len(summary.Losers) > 0 {
		lines := make([]string, 0, len(summary.Losers))
		for _, l := range summary.Losers {
			lines = append(lines, fmt.Sprintf("**%s** -%s", l.Name, common.FormatMoney(l.Loss)))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Losers", Value: strings.Join(lines, "\n")})
	}
	return embed
}

// RecordEmbed shows a stored bet with its participants.
func RecordEmbed(title string, record models.BetRecord) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: betTitle(record.TicketNumber, record.SportsbookName()),
		Color:       statusColor(record.Status),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Type", Value: string(record.Type), Inline: true},
			{Name: "Odds", Value: record.Odds, Inline: true},
			{Name: "Status", Value: fmt.Sprintf("%s %s", statusEmoji(record.Status), record.Status), Inline: true},
			{Name: "Risk", Value: common.FormatMoney(record.Risk), Inline: true},
			{Name: "To Win", Value: common.FormatMoney(record.ToWin), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Bet ID: " + record.ID},
	}

	if len(record.Legs) > 0 {
		lines := make([]string, 0, len(record.Legs))
		for _, leg := range record.Legs {
			lines = append(lines, fmt.Sprintf("%d. %s: %s (%s)", leg.Position, leg.Event, leg.Selection, leg.Odds))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Legs", Value: strings.Join(lines, "\n")})
	}

	if len(record.Participants) > 0 {
		lines := make([]string, 0, len(record.Participants))
		for _, p := range record.Participants {
			line := fmt.Sprintf("**%s** %s", p.ParticipantName, common.FormatMoney(p.Stake))
			if record.Status.IsTerminal() {
				line += fmt.Sprintf(" → %s", common.FormatMoney(p.PayoutDue))
			}
			lines = append(lines, line)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Participants", Value: strings.Join(lines, "\n")})
	}

	if record.WhoPaid != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Paid By", Value: *record.WhoPaid, Inline: true})
	}
	return embed
}

func MatchListEmbed(bet models.ParsedBet, matches []matchService.Match) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "Which bet does this slip settle?",
		Description: fmt.Sprintf("%s settled as **%s**. Pick the matching open bet, or choose none to record it as new.", betTitle(bet.TicketNumber, bet.SportsbookName()), bet.Status),
		Color:       colorPending,
	}
	for _, m := range matches {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("%s (%d%%)", betTitle(m.Record.TicketNumber, m.Record.SportsbookName()), m.Confidence),
			Value: fmt.Sprintf("Risk %s to win %s at %s, placed %s", common.FormatMoney(m.Record.Risk), common.FormatMoney(m.Record.ToWin), m.Record.Odds, m.Record.CreatedAt.Format("Jan 2")),
		})
	}
	return embed
}

func NewBetPromptEmbed(bet models.ParsedBet, reason string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "No open bet matches this slip",
		Description: fmt.Sprintf("%s\n%s for %s at %s. Add participants to record it.", reason, common.FormatMoney(bet.Risk), common.FormatMoney(bet.ToWin), bet.Odds),
		Color:       colorPending,
	}
}

// ActiveBetsEmbed lists pending bets, one field per bet.
func ActiveBetsEmbed(records []models.BetRecord) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "Open Bets",
		Color: colorPending,
	}
	if len(records) == 0 {
		embed.Description = "No open bets."
		return embed
	}

	// Discord caps an embed at 25 fields.
	shown := records
	if len(shown) > 25 {
		shown = shown[:25]
		embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Showing 25 of %d", len(records))}
	}
	for _, r := range shown {
		names := make([]string, 0, len(r.Participants))
		for _, p := range r.Participants {
			names = append(names, fmt.Sprintf("%s %s", p.ParticipantName, common.FormatMoney(p.Stake)))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("%s (%s)", betTitle(r.TicketNumber, r.SportsbookName()), r.Odds),
			Value: fmt.Sprintf("Risk %s to win %s\n%s", common.FormatMoney(r.Risk), common.FormatMoney(r.ToWin), strings.Join(names, ", ")),
		})
	}
	return embed
}

func GetMatchSelectMenu(sessionID string, matches []matchService.Match) discordgo.SelectMenu {
	options := make([]discordgo.SelectMenuOption, 0, len(matches))
	for _, m := range matches {
		options = append(options, discordgo.SelectMenuOption{
			Label:       betTitle(m.Record.TicketNumber, m.Record.SportsbookName()),
			Value:       m.RecordID,
			Description: fmt.Sprintf("%d%% match, risk %s", m.Confidence, common.FormatMoney(m.Record.Risk)),
		})
	}
	return discordgo.SelectMenu{
		CustomID:    SelectMatchPrefix + sessionID,
		Placeholder: "Select the bet to settle",
		Options:     options,
	}
}

func GetNoMatchButton(sessionID string) discordgo.Button {
	return discordgo.Button{
		Label:    "None of these",
		Style:    discordgo.SecondaryButton,
		CustomID: NoMatchPrefix + sessionID,
		Emoji: &discordgo.ComponentEmoji{
			Name: "➕",
		},
	}
}

func GetAddStakesButton(sessionID string) discordgo.Button {
	return discordgo.Button{
		Label:    "Add Participants",
		Style:    discordgo.PrimaryButton,
		CustomID: AddStakesPrefix + sessionID,
		Emoji: &discordgo.ComponentEmoji{
			Name: "📝",
		},
	}
}

// MatchComponents is the select menu and the decline button, each in its own row.
func MatchComponents(sessionID string, matches []matchService.Match) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{GetMatchSelectMenu(sessionID, matches)}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{GetNoMatchButton(sessionID)}},
	}
}

func StakesModal(sessionID string, risk string) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		Title:    "Who is on this bet?",
		CustomID: StakesModalPrefix + sessionID,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    StakesInputID,
						Label:       fmt.Sprintf("Participants (total %s)", risk),
						Style:       discordgo.TextInputParagraph,
						Placeholder: "Alice: 50, Bob: 50 or Alice, Bob split equally",
						Required:    true,
					},
				},
			},
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    WhoPaidInputID,
						Label:       "Who paid",
						Style:       discordgo.TextInputShort,
						Placeholder: "Optional",
						Required:    false,
					},
				},
			},
		},
	}
}
