package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"clanwarden/internal/games"
	"clanwarden/internal/linker"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	ctx := context.Background()

	switch interaction.Type {
	case discordgo.InteractionApplicationCommand:
		data := interaction.ApplicationCommandData()
		switch data.Name {
		case "clangames":
			b.handleClanGames(ctx, interaction, data)
		case "offense":
			b.handleOffense(ctx, interaction, data)
		case "connect":
			b.handleConnect(interaction)
		case "setmain":
			b.handleAccountSelect(ctx, interaction, "setmain")
		case "reminder":
			b.handleReminder(ctx, interaction, data)
		case "birthday":
			b.handleBirthday(interaction)
		case "clear":
			b.handleClear(interaction, data)
		case "ping":
			b.respond(interaction, "Pong!", true)
		}
	case discordgo.InteractionModalSubmit:
		b.handleModalSubmit(ctx, interaction)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(ctx, interaction)
	}
}

func (b *Bot) handleClanGames(ctx context.Context, interaction *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if len(data.Options) == 0 {
		b.respond(interaction, "No subcommand given.", true)
		return
	}
	sub := data.Options[0]
	if len(sub.Options) == 0 {
		b.respond(interaction, "No clan given.", true)
		return
	}
	clanTag := sub.Options[0].StringValue()

	if err := b.deferReply(interaction, false); err != nil {
		b.logger.Warn("defer failed", zap.Error(err))
		return
	}

	switch sub.Name {
	case "init":
		summary, err := b.tracker.Initialize(ctx, clanTag)
		if err != nil {
			b.editReply(interaction, b.trackerErrorMessage(err))
			return
		}
		b.editReply(interaction, fmt.Sprintf("Clan games for %s initialized with %d members. Cycle: %s.", summary.ClanTag, summary.MemberCount, summary.Month))
	case "poll":
		summary, err := b.tracker.Poll(ctx, clanTag)
		if err != nil {
			b.editReply(interaction, b.trackerErrorMessage(err))
			return
		}
		b.editReply(interaction, fmt.Sprintf("Clan games for %s polled. Total clan score: %d.", summary.ClanTag, summary.TotalClanScore))
	case "current":
		summary, err := b.tracker.Current(ctx, clanTag)
		if err != nil {
			b.editReply(interaction, b.trackerErrorMessage(err))
			return
		}
		b.editReplyEmbed(interaction, b.currentEmbed(summary), nil)
	case "leaderboard":
		b.showLeaderboard(ctx, interaction, clanTag)
	}
}

func (b *Bot) showLeaderboard(ctx context.Context, interaction *discordgo.InteractionCreate, clanTag string) {
	comp, err := b.tracker.Leaderboard(ctx, clanTag)
	if err != nil {
		b.editReply(interaction, b.trackerErrorMessage(err))
		return
	}

	lines := b.formatter.Format(comp.Members)
	pageLines := games.Paginate(lines, b.cfg.Leaderboard.PageMaxChars)
	pages := make([]string, len(pageLines))
	for i, page := range pageLines {
		pages[i] = strings.Join(page, "\n")
	}
	if len(pages) == 0 {
		pages = []string{"No members found."}
	}

	session := &leaderboardSession{
		userID:      interactionUser(interaction).ID,
		interaction: interaction.Interaction,
		clanTag:     comp.ClanTag,
		totalScore:  comp.TotalClanScore,
		pages:       pages,
	}

	var components []discordgo.MessageComponent
	if len(pages) > 1 {
		sessionID := interaction.ID
		b.pages.put(sessionID, session)
		components = append(components, leaderboardButtons(sessionID, 0, len(pages), false))
	}
	b.editReplyEmbed(interaction, b.leaderboardEmbed(session), components)
}

func (b *Bot) handleOffense(ctx context.Context, interaction *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if len(data.Options) == 0 {
		b.respond(interaction, "No clan given.", true)
		return
	}
	clanTag := data.Options[0].StringValue()

	if err := b.deferReply(interaction, false); err != nil {
		b.logger.Warn("defer failed", zap.Error(err))
		return
	}

	rep, err := b.reports.Generate(ctx, clanTag)
	if err != nil {
		b.logger.Warn("offense report failed", zap.String("clan_tag", clanTag), zap.Error(err))
		b.editReply(interaction, "Could not generate the offense report. Please try again.")
		return
	}

	files := rep.Files()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	attachments := make([]*discordgo.File, 0, len(names))
	for _, name := range names {
		attachments = append(attachments, &discordgo.File{
			Name:        name,
			ContentType: "text/csv",
			Reader:      strings.NewReader(files[name]),
		})
	}

	content := fmt.Sprintf("Offense report generated for clan %s.", clanTag)
	_, err = b.session.InteractionResponseEdit(interaction.Interaction, &discordgo.WebhookEdit{
		Content: &content,
		Files:   attachments,
	})
	if err != nil {
		b.logger.Warn("offense reply failed", zap.Error(err))
	}
}

func (b *Bot) handleConnect(interaction *discordgo.InteractionCreate) {
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID: "playerTag",
				Label:    "Your Clash of Clans player tag",
				Style:    discordgo.TextInputShort,
				Required: true,
			},
		}},
	}
	if b.linker.RequiresToken() {
		components = append(components, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID: "apiToken",
				Label:    "Your in-game API token",
				Style:    discordgo.TextInputShort,
				Required: true,
			},
		}})
	}

	err := b.session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   "connect",
			Title:      "Connect Clash Account",
			Components: components,
		},
	})
	if err != nil {
		b.logger.Warn("connect modal failed", zap.Error(err))
	}
}

func (b *Bot) handleBirthday(interaction *discordgo.InteractionCreate) {
	err := b.session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: "birthday",
			Title:    "Set your birthday",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "birthday",
						Label:       "Your birthday",
						Style:       discordgo.TextInputShort,
						Placeholder: "DD-MM-YYYY",
						Required:    true,
					},
				}},
			},
		},
	})
	if err != nil {
		b.logger.Warn("birthday modal failed", zap.Error(err))
	}
}

func (b *Bot) handleModalSubmit(ctx context.Context, interaction *discordgo.InteractionCreate) {
	data := interaction.ModalSubmitData()
	user := interactionUser(interaction)

	switch data.CustomID {
	case "connect":
		playerTag := modalValue(data, "playerTag")
		apiToken := modalValue(data, "apiToken")
		account, err := b.linker.Connect(ctx, user.ID, user.Username, user.GlobalName, playerTag, apiToken)
		if err != nil {
			b.respond(interaction, connectErrorMessage(err), true)
			return
		}
		b.respond(interaction, fmt.Sprintf("Linked %s (%s) to your Discord account.", account.PlayerName, account.PlayerTag), true)
	case "birthday":
		input := modalValue(data, "birthday")
		birthday, err := b.linker.SetBirthday(ctx, user.ID, user.Username, user.GlobalName, input)
		if err != nil {
			if errors.Is(err, linker.ErrBadBirthday) {
				b.respond(interaction, "Invalid date. Use DD-MM-YYYY and make sure it lies in the past.", true)
				return
			}
			b.respond(interaction, "Could not store your birthday. Please try again.", true)
			return
		}
		b.respond(interaction, fmt.Sprintf("Birthday set to %s.", birthday.Format("2 January")), true)
	}
}

// handleAccountSelect answers /setmain and /reminder with a select menu over
// the caller's linked accounts. kind selects the follow-up action.
func (b *Bot) handleAccountSelect(ctx context.Context, interaction *discordgo.InteractionCreate, kind string) {
	user := interactionUser(interaction)
	accounts, err := b.linker.Accounts(ctx, user.ID)
	if err != nil {
		if errors.Is(err, linker.ErrNotLinked) {
			b.respond(interaction, "You have no linked accounts yet. Use /connect first.", true)
			return
		}
		b.respond(interaction, "Could not load your accounts. Please try again.", true)
		return
	}

	if kind == "reminder:sub" || kind == "reminder:unsub" {
		wantSubscribed := kind == "reminder:unsub"
		filtered := accounts[:0:0]
		for _, account := range accounts {
			if account.ReminderSubscription == wantSubscribed {
				filtered = append(filtered, account)
			}
		}
		accounts = filtered
		if len(accounts) == 0 {
			b.respond(interaction, "No accounts to change. Check /reminder for the other direction.", true)
			return
		}
	}

	options := make([]discordgo.SelectMenuOption, 0, len(accounts))
	for _, account := range accounts {
		options = append(options, discordgo.SelectMenuOption{
			Label:       account.PlayerName,
			Value:       account.PlayerTag,
			Description: account.PlayerTag,
		})
	}

	err = b.session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Select an account:",
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						CustomID: "account:" + kind,
						Options:  options,
					},
				}},
			},
		},
	})
	if err != nil {
		b.logger.Warn("account select failed", zap.Error(err))
	}
}

func (b *Bot) handleReminder(ctx context.Context, interaction *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if len(data.Options) == 0 {
		b.respond(interaction, "No subcommand given.", true)
		return
	}
	switch data.Options[0].Name {
	case "subscribe":
		b.handleAccountSelect(ctx, interaction, "reminder:sub")
	case "unsubscribe":
		b.handleAccountSelect(ctx, interaction, "reminder:unsub")
	}
}

func (b *Bot) handleComponent(ctx context.Context, interaction *discordgo.InteractionCreate) {
	data := interaction.MessageComponentData()

	switch {
	case strings.HasPrefix(data.CustomID, "lb:"):
		b.handleLeaderboardButton(interaction, data)
	case strings.HasPrefix(data.CustomID, "account:"):
		b.handleAccountChoice(ctx, interaction, data)
	}
}

func (b *Bot) handleLeaderboardButton(interaction *discordgo.InteractionCreate, data discordgo.MessageComponentInteractionData) {
	parts := strings.SplitN(data.CustomID, ":", 3)
	if len(parts) != 3 {
		return
	}
	direction, sessionID := parts[1], parts[2]

	session, ok := b.pages.get(sessionID)
	if !ok {
		b.respond(interaction, "This leaderboard has expired. Run /clangames leaderboard again.", true)
		return
	}
	if interactionUser(interaction).ID != session.userID {
		b.respond(interaction, "Only the person who requested this leaderboard can turn its pages.", true)
		return
	}

	switch direction {
	case "prev":
		if session.index > 0 {
			session.index--
		}
	case "next":
		if session.index < len(session.pages)-1 {
			session.index++
		}
	}

	err := b.session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{b.leaderboardEmbed(session)},
			Components: []discordgo.MessageComponent{leaderboardButtons(sessionID, session.index, len(session.pages), false)},
		},
	})
	if err != nil {
		b.logger.Warn("leaderboard page update failed", zap.Error(err))
	}
}

func (b *Bot) handleAccountChoice(ctx context.Context, interaction *discordgo.InteractionCreate, data discordgo.MessageComponentInteractionData) {
	if len(data.Values) == 0 {
		return
	}
	user := interactionUser(interaction)
	playerTag := data.Values[0]

	var message string
	var err error
	switch strings.TrimPrefix(data.CustomID, "account:") {
	case "setmain":
		err = b.linker.SetMain(ctx, user.ID, playerTag)
		message = fmt.Sprintf("%s is now your main account.", playerTag)
	case "reminder:sub":
		err = b.linker.Subscribe(ctx, user.ID, playerTag)
		message = fmt.Sprintf("%s subscribed to reminders.", playerTag)
	case "reminder:unsub":
		err = b.linker.Unsubscribe(ctx, user.ID, playerTag)
		message = fmt.Sprintf("%s unsubscribed from reminders.", playerTag)
	default:
		return
	}
	if err != nil {
		message = "Could not update the account. Please try again."
	}

	updateErr := b.session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    message,
			Components: []discordgo.MessageComponent{},
		},
	})
	if updateErr != nil {
		b.logger.Warn("account choice update failed", zap.Error(updateErr))
	}
}

func (b *Bot) handleClear(interaction *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	user := interactionUser(interaction)
	if b.cfg.OwnerUserID == "" || user.ID != b.cfg.OwnerUserID {
		b.respond(interaction, "You are not allowed to run this command.", true)
		return
	}
	if len(data.Options) == 0 {
		b.respond(interaction, "No amount given.", true)
		return
	}
	amount := int(data.Options[0].IntValue())
	if amount < 1 || amount > 50 {
		b.respond(interaction, "Amount must be between 1 and 50.", true)
		return
	}

	messages, err := b.session.ChannelMessages(interaction.ChannelID, amount, "", "", "")
	if err != nil {
		b.respond(interaction, "Could not fetch messages.", true)
		return
	}
	ids := make([]string, 0, len(messages))
	for _, message := range messages {
		ids = append(ids, message.ID)
	}
	if err := b.session.ChannelMessagesBulkDelete(interaction.ChannelID, ids); err != nil {
		b.respond(interaction, "Could not delete messages.", true)
		return
	}
	b.respond(interaction, fmt.Sprintf("Deleted %d messages.", len(ids)), true)
}

func (b *Bot) trackerErrorMessage(err error) string {
	if errors.Is(err, games.ErrNotInitialized) {
		return "No clan games found for this clan. Run /clangames init first."
	}
	b.logger.Warn("clan games operation failed", zap.Error(err))
	return "Something went wrong talking to the Clash of Clans API. Please try again."
}

func connectErrorMessage(err error) string {
	switch {
	case errors.Is(err, linker.ErrInvalidTag):
		return "That does not look like a valid player tag."
	case errors.Is(err, linker.ErrAlreadyLinked):
		return "That player tag is already linked."
	default:
		return "Could not link your account. Check the tag (and token) and try again."
	}
}

func interactionUser(interaction *discordgo.InteractionCreate) *discordgo.User {
	if interaction.Member != nil && interaction.Member.User != nil {
		return interaction.Member.User
	}
	return interaction.User
}

func modalValue(data discordgo.ModalSubmitInteractionData, customID string) string {
	for _, component := range data.Components {
		var row *discordgo.ActionsRow
		switch v := component.(type) {
		case discordgo.ActionsRow:
			row = &v
		case *discordgo.ActionsRow:
			row = v
		default:
			continue
		}
		for _, inner := range row.Components {
			input, ok := inner.(*discordgo.TextInput)
			if ok && input.CustomID == customID {
				return input.Value
			}
		}
	}
	return ""
}
