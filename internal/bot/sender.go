package bot

import (
	"fmt"
	"sync"

	tele "gopkg.in/telebot.v4"
)

// deferredSender satisfies flows.Sender before the bot instance exists.
// Flows are wired at bootstrap, the bot only at telegram startup, so the
// sender is bound in OnStart.
type deferredSender struct {
	mu  sync.RWMutex
	bot *tele.Bot
}

func (s *deferredSender) bind(bot *tele.Bot) {
	s.mu.Lock()
	s.bot = bot
	s.mu.Unlock()
}

func (s *deferredSender) current() (*tele.Bot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.bot == nil {
		return nil, fmt.Errorf("bot: sender used before telegram startup")
	}
	return s.bot, nil
}

func (s *deferredSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	bot, err := s.current()
	if err != nil {
		return nil, err
	}
	return bot.Send(to, what, opts...)
}

func (s *deferredSender) SendAlbum(to tele.Recipient, a tele.Album, opts ...interface{}) ([]tele.Message, error) {
	bot, err := s.current()
	if err != nil {
		return nil, err
	}
	return bot.SendAlbum(to, a, opts...)
}
