package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/table-bot/internal/bot"
)

type mockHandler struct {
	OnTurnFunc func(act bot.Activity) ([]bot.Reply, error)
}

func (m mockHandler) OnTurn(ctx context.Context, act bot.Activity) ([]bot.Reply, error) {
	return m.OnTurnFunc(act)
}

func TestRun(t *testing.T) {
	var msgs []string
	h := mockHandler{OnTurnFunc: func(act bot.Activity) ([]bot.Reply, error) {
		if act.Type == bot.ActivityConversationUpdate {
			return []bot.Reply{{Text: "hello"}}, nil
		}
		msgs = append(msgs, act.Text)
		if act.Text == "boom" {
			return nil, errors.New("down")
		}
		return []bot.Reply{{Text: "For today we have:", Attachments: []bot.Card{{Title: "Pizza"}}}}, nil
	}}
	var out bytes.Buffer

	err := Run(context.Background(), h, strings.NewReader("specials\n\nboom\nquit\nignored\n"), &out, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"specials", "boom"}, msgs)
	assert.Contains(t, out.String(), "hello\n")
	assert.Contains(t, out.String(), "For today we have:\n  * Pizza\n")
	assert.Contains(t, out.String(), failedText)
}
