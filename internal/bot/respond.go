package bot

import (
	"fmt"
	"strconv"

	"clanwarden/internal/games"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) respond(interaction *discordgo.InteractionCreate, content string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := b.session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		b.logger.Warn("interaction respond failed", zap.Error(err))
	}
}

func (b *Bot) deferReply(interaction *discordgo.InteractionCreate, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return b.session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: data,
	})
}

func (b *Bot) editReply(interaction *discordgo.InteractionCreate, content string) {
	_, err := b.session.InteractionResponseEdit(interaction.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
	if err != nil {
		b.logger.Warn("interaction edit failed", zap.Error(err))
	}
}

func (b *Bot) editReplyEmbed(interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) {
	edit := &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	}
	if components != nil {
		edit.Components = &components
	}
	_, err := b.session.InteractionResponseEdit(interaction.Interaction, edit)
	if err != nil {
		b.logger.Warn("interaction edit failed", zap.Error(err))
	}
}

func (b *Bot) currentEmbed(summary games.Summary) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Clan Games " + summary.Month,
		Color: b.cfg.EmbedColors.Info,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Clan", Value: summary.ClanTag, Inline: true},
			{Name: "Members", Value: strconv.Itoa(summary.MemberCount), Inline: true},
			{Name: "Total Clan Score", Value: strconv.Itoa(summary.TotalClanScore), Inline: true},
		},
	}
}

func (b *Bot) leaderboardEmbed(session *leaderboardSession) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Clan Games Leaderboard " + session.clanTag,
		Description: session.pages[session.index],
		Color:       b.cfg.EmbedColors.Info,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Page %d of %d | Total Clan Score: %d", session.index+1, len(session.pages), session.totalScore),
		},
	}
}
