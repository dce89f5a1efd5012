package promo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/appetiteclub/catering/pkg/enums/role"
	"github.com/appetiteclub/catering/pkg/event"
	"github.com/appetiteclub/catering/pkg/money"
	"github.com/appetiteclub/catering/pkg/mq"
)

// WelcomeSubscriber gives every new customer a personal welcome code and mails it.
type WelcomeSubscriber struct {
	subscriber events.Subscriber
	service    *Service
	mail       mq.MailQueue
	logger     apt.Logger
}

func NewWelcomeSubscriber(sub events.Subscriber, service *Service, mail mq.MailQueue, logger apt.Logger) *WelcomeSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &WelcomeSubscriber{subscriber: sub, service: service, mail: mail, logger: logger}
}

func (s *WelcomeSubscriber) Start(ctx context.Context) error {
	if err := s.subscriber.Subscribe(ctx, event.UsersRegisteredTopic, s.handle); err != nil {
		return fmt.Errorf("subscribe to %s: %w", event.UsersRegisteredTopic, err)
	}
	s.logger.Info("welcome promo subscriber started", "topic", event.UsersRegisteredTopic)
	return nil
}

func (s *WelcomeSubscriber) Stop(ctx context.Context) error {
	return nil
}

func (s *WelcomeSubscriber) handle(ctx context.Context, msg []byte) error {
	var evt event.UserRegisteredEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		return fmt.Errorf("decode %s: %w", event.UsersRegisteredTopic, err)
	}
	if evt.Role != "" && evt.Role != role.Roles.Customer.Name {
		return nil
	}

	code, err := s.service.CreateWelcome(ctx, evt.UserID)
	if err != nil {
		return err
	}
	s.logger.Info("welcome code issued", "user_id", evt.UserID, "code", code.Code)

	return s.mail.Enqueue(ctx, event.MailMessage{
		Kind:    event.MailWelcome,
		To:      []string{evt.Email},
		Subject: "Bienvenue! Welcome to our catering service",
		Body:    WelcomeBody(evt.Name, code),
	})
}

func WelcomeBody(name string, code *PromoCode) string {
	return fmt.Sprintf(`Hello %s,

Thank you for creating your account.

Your personal code %s gives you %s%% off your first order of %s or more.
It is valid until %s.

See you soon!
`, name, code.Code, code.Value, money.Format(code.MinimumOrder), code.ValidUntil.Format("2006-01-02"))
}
