package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// SMSNotifier logs passcode texts instead of sending them.  A real SMS
// provider slots in behind the same Notifier interface when one is wired
// up; until then every environment runs in mock mode.
type SMSNotifier struct {
	logger *zap.Logger
}

func NewSMSNotifier(logger *zap.Logger) *SMSNotifier {
	return &SMSNotifier{logger: logger}
}

func (n *SMSNotifier) SendPasscode(_ context.Context, p Passcode) error {
	if p.Phone == "" {
		return nil
	}

	n.logger.Info("passcode SMS sent (mock)",
		zap.String("to", maskPhone(p.Phone)),
		zap.String("message", fmt.Sprintf("Your %s door code is %s", p.BuildingName, p.Code)))
	return nil
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return "****" + phone[len(phone)-4:]
}
