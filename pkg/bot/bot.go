package bot

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v3"

	"parkshare/pkg/logger"
	"parkshare/pkg/models"
	"parkshare/storage"
)

// Sender is the part of *tele.Bot the pusher needs.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Pusher mirrors stored notifications to Telegram for users that linked
// a chat. Delivery is best-effort.
type Pusher struct {
	Bot Sender
	Stg storage.IStorage
	Log logger.ILogger
}

func New(token string, stg storage.IStorage, log logger.ILogger) (*Pusher, error) {
	b, err := tele.NewBot(tele.Settings{
		Token:   token,
		Offline: true,
	})
	if err != nil {
		return nil, err
	}
	log.Info("🤖 Telegram push channel ready")
	return &Pusher{Bot: b, Stg: stg, Log: log}, nil
}

func (p *Pusher) Push(ctx context.Context, n *models.Notification) {
	user, err := p.Stg.User().GetByID(ctx, n.UserID)
	if err != nil {
		p.Log.Warning("telegram push: user lookup failed", logger.Int64("user_id", n.UserID), logger.Error(err))
		return
	}
	if user.TelegramID == nil || *user.TelegramID == 0 {
		return
	}

	if _, err := p.Bot.Send(&tele.User{ID: *user.TelegramID}, render(n)); err != nil {
		p.Log.Warning("telegram push failed",
			logger.Int64("user_id", n.UserID),
			logger.String("type", string(n.Type)),
			logger.Error(err))
	}
}

func render(n *models.Notification) string {
	text := n.Message
	if n.ReservationID != nil {
		text += fmt.Sprintf("\n🆔 #%d", *n.ReservationID)
	}
	return text
}
