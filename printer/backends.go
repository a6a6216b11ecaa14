package printer

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"os/exec"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// LPPrinter submits jobs to a CUPS queue through the lp command.
type LPPrinter struct {
	Name string
	// Command defaults to "lp".
	Command string
}

func (p *LPPrinter) Print(ctx context.Context, job Job) error {
	name := p.Command
	if name == "" {
		name = "lp"
	}
	args := []string{"-t", job.Title()}
	if p.Name != "" {
		args = append([]string{"-d", p.Name}, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(job.Text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Sender is the part of *tgbotapi.BotAPI used for printing.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramPrinter posts each copy as a monospace message to a chat, e.g. the kitchen group.
type TelegramPrinter struct {
	api    Sender
	chatID int64
}

func NewTelegramPrinter(token string, chatID int64) (*TelegramPrinter, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &TelegramPrinter{api: api, chatID: chatID}, nil
}

func NewTelegramPrinterWithSender(s Sender, chatID int64) *TelegramPrinter {
	return &TelegramPrinter{api: s, chatID: chatID}
}

func (p *TelegramPrinter) Print(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(p.chatID, "<pre>"+html.EscapeString(job.Text)+"</pre>")
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := p.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// WriterPrinter writes jobs to w, used for previews and for terminals without a printer.
type WriterPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterPrinter(w io.Writer) *WriterPrinter {
	return &WriterPrinter{w: w}
}

func (p *WriterPrinter) Print(_ context.Context, job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := io.WriteString(p.w, job.Text)
	return err
}
