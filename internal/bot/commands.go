package bot

import "github.com/bwmarrin/discordgo"

func (b *Bot) registerCommands() error {
	manageMessages := int64(discordgo.PermissionManageMessages)

	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "clangames",
			Description: "Manage clan games tracking",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "init",
					Description: "Start a fresh clan games cycle",
					Options:     []*discordgo.ApplicationCommandOption{b.clanOption()},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "poll",
					Description: "Refresh the current clan games scores",
					Options:     []*discordgo.ApplicationCommandOption{b.clanOption()},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "current",
					Description: "Show the current clan games status",
					Options:     []*discordgo.ApplicationCommandOption{b.clanOption()},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "leaderboard",
					Description: "Show the clan games leaderboard",
					Options:     []*discordgo.ApplicationCommandOption{b.clanOption()},
				},
			},
		},
		{
			Name:        "offense",
			Description: "Generate an offense report for a clan",
			Options:     []*discordgo.ApplicationCommandOption{b.clanOption()},
		},
		{
			Name:        "connect",
			Description: "Link your Clash of Clans account",
		},
		{
			Name:        "setmain",
			Description: "Pick your main linked account",
		},
		{
			Name:        "reminder",
			Description: "Manage reminder subscriptions",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "subscribe",
					Description: "Subscribe an account to reminders",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "unsubscribe",
					Description: "Unsubscribe an account from reminders",
				},
			},
		},
		{
			Name:        "birthday",
			Description: "Set your birthday",
		},
		{
			Name:                     "clear",
			Description:              "Delete recent messages in this channel",
			DefaultMemberPermissions: &manageMessages,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "Number of messages to delete (1-50)",
					Required:    true,
					MinValue:    float64Ptr(1),
					MaxValue:    50,
				},
			},
		},
		{
			Name:        "ping",
			Description: "Check whether the bot is alive",
		},
	}

	for _, command := range commands {
		if _, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, "", command); err != nil {
			return err
		}
	}
	return nil
}

// clanOption is the clan selector shared by the clangames and offense
// commands. Configured clans become choices; without any, the option falls
// back to free-form tag input.
func (b *Bot) clanOption() *discordgo.ApplicationCommandOption {
	option := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "clan",
		Description: "Clan to target",
		Required:    true,
	}
	for _, clan := range b.cfg.Clans {
		option.Choices = append(option.Choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  clan.Name,
			Value: clan.Tag,
		})
	}
	return option
}

func float64Ptr(value float64) *float64 {
	return &value
}
