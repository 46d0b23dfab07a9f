package mailer

import (
	"context"
	"errors"

	"github.com/boskojeremic/iflowx/internal/invite"
)

// InviteNotifier renders invite emails and hands them to a Sender
type InviteNotifier struct {
	sender Sender
	from   string
}

var _ invite.Notifier = (*InviteNotifier)(nil)

// NewInviteNotifier creates a notifier sending from the given address
func NewInviteNotifier(sender Sender, from string) *InviteNotifier {
	return &InviteNotifier{sender: sender, from: from}
}

// SendInviteEmail implements invite.Notifier
func (n *InviteNotifier) SendInviteEmail(ctx context.Context, e invite.Email) error {
	if n.from == "" {
		if _, ok := n.sender.(*LogSender); !ok {
			return errors.New("EMAIL_FROM missing")
		}
	}
	tenantName := e.TenantName
	if tenantName == "" {
		tenantName = "iFlowX"
	}
	subject, html, text, err := RenderInviteEmail(InviteData{
		TenantName:   tenantName,
		Role:         string(e.Role),
		InviteURL:    e.InviteURL,
		AccessStarts: FormatDate(e.AccessStartsAt),
		AccessEnds:   FormatDate(e.AccessEndsAt),
		ExpiresAt:    FormatDate(&e.ExpiresAt),
	})
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, Message{
		From:    n.from,
		To:      e.To,
		Subject: subject,
		HTML:    html,
		Text:    text,
	})
}
