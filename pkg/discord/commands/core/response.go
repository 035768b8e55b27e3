package core

import (
	"errors"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
)

// ErrAlreadyResponded is returned when an interaction has already been
// answered. Discord rejects a second initial response.
var ErrAlreadyResponded = errors.New("interaction already responded")

// ResponseType selects the emoji prefix of a text response.
type ResponseType int

const (
	ResponsePlain ResponseType = iota
	ResponseError
)

// Responder answers a single interaction. Only the first call that reaches
// Discord counts; later calls return ErrAlreadyResponded without a request.
type Responder struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
	used        atomic.Bool
}

func NewResponder(session *discordgo.Session, interaction *discordgo.Interaction) *Responder {
	return &Responder{session: session, interaction: interaction}
}

// Responded reports whether a response has been sent or attempted.
func (r *Responder) Responded() bool {
	return r.used.Load()
}

// Message sends a public text message, optionally with components.
func (r *Responder) Message(content string, components ...discordgo.MessageComponent) error {
	return r.send(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: components,
		},
	})
}

// Ephemeral sends a text message only the invoker can see.
func (r *Responder) Ephemeral(content string) error {
	return r.text(content, ResponsePlain, true)
}

func (r *Responder) Error(content string) error {
	return r.text(content, ResponseError, true)
}

// Modal opens a modal dialog.
func (r *Responder) Modal(customID, title string, components ...discordgo.MessageComponent) error {
	return r.send(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   customID,
			Title:      title,
			Components: components,
		},
	})
}

func (r *Responder) text(message string, kind ResponseType, ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	return r.send(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: formatTextMessage(message, kind),
			Flags:   flags,
		},
	})
}

func (r *Responder) send(resp *discordgo.InteractionResponse) error {
	if !r.used.CompareAndSwap(false, true) {
		return ErrAlreadyResponded
	}
	return r.session.InteractionRespond(r.interaction, resp)
}

func formatTextMessage(message string, kind ResponseType) string {
	switch kind {
	case ResponseError:
		return "❌ " + message
	default:
		return message
	}
}
