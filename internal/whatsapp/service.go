// Package whatsapp delivers invitation messages and receives RSVP replies over
// a linked WhatsApp device.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

var ErrNotOnWhatsApp = errors.New("number is not registered on WhatsApp")

// IncomingMessage is a text someone sent to the linked device
type IncomingMessage struct {
	Phone string
	Text  string
}

// MessageHandler is called for every incoming text message
type MessageHandler func(ctx context.Context, msg IncomingMessage) error

type Config struct {
	DataDir string
	// QROut receives the pairing QR code, stdout when nil
	QROut io.Writer
}

type Service struct {
	client *whatsmeow.Client
	cfg    Config
	log    zerolog.Logger

	mu             sync.RWMutex
	messageHandler MessageHandler
}

// NewService opens the device session store under cfg.DataDir
func NewService(ctx context.Context, cfg Config, log zerolog.Logger) (*Service, error) {
	if cfg.QROut == nil {
		cfg.QROut = os.Stdout
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", filepath.Join(cfg.DataDir, "whatsmeow.db"))
	container, err := sqlstore.New(ctx, "sqlite3", dsn, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	s := &Service{
		client: whatsmeow.NewClient(deviceStore, nil),
		cfg:    cfg,
		log:    log.With().Str("component", "whatsapp").Logger(),
	}
	s.client.AddEventHandler(s.eventHandler)
	return s, nil
}

// NormalizePhoneNumber turns an Indonesian number as typed by an admin into
// the digits-only international form WhatsApp uses: 0812... and +62812...
// both become 62812...
func NormalizePhoneNumber(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case strings.HasPrefix(digits, "620"):
		digits = "62" + digits[3:]
	case strings.HasPrefix(digits, "0"):
		digits = "62" + digits[1:]
	}
	return digits
}

// Connect links the device, printing a QR code for pairing on first use
func (s *Service) Connect(ctx context.Context) error {
	if s.client.Store.ID != nil {
		if err := s.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		return nil
	}

	qrChan, err := s.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("failed to open pairing channel: %w", err)
	}
	if err := s.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	for evt := range qrChan {
		if evt.Event != "code" {
			s.log.Info().Str("event", evt.Event).Msg("pairing event")
			continue
		}
		s.printQR(evt.Code)
	}
	return nil
}

func (s *Service) printQR(code string) {
	q, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to render QR code")
		fmt.Fprintf(s.cfg.QROut, "QR code: %s\n", code)
		return
	}
	fmt.Fprintln(s.cfg.QROut, q.ToSmallString(false))
	fmt.Fprintln(s.cfg.QROut, "Scan with WhatsApp: Settings > Linked Devices > Link a Device")
}

// Disconnect closes the connection
func (s *Service) Disconnect() {
	s.client.Disconnect()
}

// SendMessage sends a plain text message to phone
func (s *Service) SendMessage(ctx context.Context, phone, text string) error {
	phone = NormalizePhoneNumber(phone)
	if phone == "" {
		return fmt.Errorf("%w: empty number", ErrNotOnWhatsApp)
	}

	resp, err := s.client.IsOnWhatsApp(ctx, []string{"+" + phone})
	if err != nil {
		return fmt.Errorf("failed to verify number on WhatsApp: %w", err)
	}
	if len(resp) == 0 || !resp[0].IsIn {
		return fmt.Errorf("%w: %s", ErrNotOnWhatsApp, phone)
	}
	jid := resp[0].JID

	sent, err := s.client.SendMessage(ctx, jid, &waE2E.Message{Conversation: &text})
	if err != nil {
		return fmt.Errorf("failed to send message to %s: %w", jid, err)
	}
	s.log.Info().Str("jid", jid.String()).Str("id", string(sent.ID)).Msg("message sent")
	return nil
}

// SetMessageHandler sets the handler for incoming messages
func (s *Service) SetMessageHandler(handler MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messageHandler = handler
}

func (s *Service) eventHandler(evt any) {
	switch evt := evt.(type) {
	case *events.Message:
		s.handleMessage(evt)
	case *events.Connected:
		s.log.Info().Msg("connected to WhatsApp")
	case *events.Disconnected:
		s.log.Info().Msg("disconnected from WhatsApp")
	case *events.LoggedOut:
		s.log.Warn().Msg("logged out from WhatsApp")
	}
}

func (s *Service) handleMessage(msg *events.Message) {
	if msg.Info.IsFromMe || msg.Info.IsGroup || msg.Message == nil {
		return
	}
	text := messageText(msg.Message)
	if text == "" {
		return
	}

	s.mu.RLock()
	handler := s.messageHandler
	s.mu.RUnlock()
	if handler == nil {
		s.log.Info().Str("sender", msg.Info.Sender.String()).Msg("received message")
		return
	}

	in := IncomingMessage{Phone: senderPhone(msg.Info.Sender), Text: text}
	if err := handler(context.Background(), in); err != nil {
		s.log.Error().Err(err).Str("sender", msg.Info.Sender.String()).Msg("failed to handle message")
	}
}

func messageText(m *waE2E.Message) string {
	if text := m.GetConversation(); text != "" {
		return text
	}
	return m.GetExtendedTextMessage().GetText()
}

func senderPhone(jid types.JID) string {
	return NormalizePhoneNumber(jid.User)
}
