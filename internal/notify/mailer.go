package notify

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/deskline/helpdesk-service/internal/config"
)

// Message is a plain-text notification.
type Message struct {
	To      []string
	Cc      []string
	Subject string
	Body    string
}

// Identity is the mailbox a message is sent as.
type Identity struct {
	Name     string
	Address  string
	Username string
	Password string
}

// Mailer delivers messages. A nil identity means the system identity.
type Mailer interface {
	Send(ctx context.Context, msg Message, from *Identity) error
}

// ErrNoRecipients is returned for messages without a To address.
var ErrNoRecipients = errors.New("message has no recipients")

// SMTPMailer sends through an SMTP relay with gomail.
type SMTPMailer struct {
	host   string
	port   int
	system Identity
	dial   func(host string, port int, username, password string, msg *gomail.Message) error
}

// NewSMTPMailer builds a mailer whose system identity comes from configuration.
func NewSMTPMailer(cfg config.NotificationConfig) *SMTPMailer {
	return &SMTPMailer{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		system: Identity{
			Name:     "Helpdesk",
			Address:  cfg.EmailFrom,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		},
		dial: func(host string, port int, username, password string, msg *gomail.Message) error {
			return gomail.NewDialer(host, port, username, password).DialAndSend(msg)
		},
	}
}

// Send delivers msg as from, or as the system identity when from is nil or incomplete.
func (m *SMTPMailer) Send(ctx context.Context, msg Message, from *Identity) error {
	to := compact(msg.To)
	if len(to) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	identity := m.system
	if from != nil && from.Address != "" && from.Username != "" && from.Password != "" {
		identity = *from
	}

	out := gomail.NewMessage()
	out.SetAddressHeader("From", identity.Address, identity.Name)
	out.SetHeader("To", to...)
	if cc := compact(msg.Cc); len(cc) > 0 {
		out.SetHeader("Cc", cc...)
	}
	out.SetHeader("Subject", msg.Subject)
	out.SetBody("text/plain", msg.Body)

	return m.dial(m.host, m.port, identity.Username, identity.Password, out)
}

// LogMailer stands in when no SMTP relay is configured; it only logs.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer builds a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg Message, from *Identity) error {
	sender := "system"
	if from != nil {
		sender = from.Address
	}
	m.logger.Info("mail not sent: smtp disabled",
		zap.Strings("to", msg.To),
		zap.Strings("cc", msg.Cc),
		zap.String("from", sender),
		zap.String("subject", msg.Subject))
	return nil
}

func compact(addresses []string) []string {
	out := make([]string, 0, len(addresses))
	seen := make(map[string]struct{}, len(addresses))
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		key := strings.ToLower(addr)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, addr)
	}
	return out
}
