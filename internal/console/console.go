// Package console is a line-based channel for talking to the bot from a
// terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/example/table-bot/internal/bot"
)

const (
	ConversationID = "console"
	botID          = "tablebot"
	userID         = "console-user"
	failedText     = "Sorry, something went wrong."
)

type TurnHandler interface {
	OnTurn(ctx context.Context, act bot.Activity) ([]bot.Reply, error)
}

// Run greets the user, then sends each input line as a message until EOF,
// "quit" or ctx is done.
func Run(ctx context.Context, h TurnHandler, in io.Reader, out io.Writer, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	recipient := bot.ChannelAccount{ID: botID}
	conv := bot.ConversationAccount{ID: ConversationID}

	replies, err := h.OnTurn(ctx, bot.Activity{
		Type:         bot.ActivityConversationUpdate,
		Recipient:    recipient,
		Conversation: conv,
		MembersAdded: []bot.ChannelAccount{recipient},
	})
	if err != nil {
		return err
	}
	printReplies(out, replies)

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if text == "quit" || text == "exit" {
			return nil
		}

		replies, err := h.OnTurn(ctx, bot.Activity{
			Type:         bot.ActivityMessage,
			Text:         text,
			From:         bot.ChannelAccount{ID: userID},
			Recipient:    recipient,
			Conversation: conv,
		})
		if err != nil {
			log.Error("turn failed", zap.Error(err))
			fmt.Fprintln(out, failedText)
			continue
		}
		printReplies(out, replies)
	}
}

func printReplies(out io.Writer, replies []bot.Reply) {
	for _, r := range replies {
		if r.Text != "" {
			fmt.Fprintln(out, r.Text)
		}
		for _, c := range r.Attachments {
			fmt.Fprintf(out, "  * %s\n", c.Title)
		}
	}
}
