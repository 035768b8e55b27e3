package nick

import (
	"github.com/bwmarrin/discordgo"
	"github.com/small-frappuccino/nicknamebot/pkg/nickname"
)

const (
	// ModalID prefixes the custom ID of the nickname form. Forms opened on
	// behalf of another member append ":<targetID>".
	ModalID    = "nickname_entry"
	ModalTitle = "Set Nickname"

	nameField       = "name"
	universityField = "university"
)

// Form describes one rendering of the nickname modal.
type Form struct {
	Target nickname.Identity
	// OnBehalf is true when the invoker is not the target.
	OnBehalf   bool
	Name       string
	University string
}

// CustomID encodes the target when the form acts for someone else.
func (f Form) CustomID() string {
	if f.OnBehalf {
		return ModalID + ":" + f.Target.ID
	}
	return ModalID
}

func (f Form) label(base string) string {
	if f.OnBehalf {
		return f.Target.DisplayName() + "'s " + base
	}
	return base
}

// Components returns the two text-input rows of the modal.
func (f Form) Components() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:  nameField,
				Label:     f.label("First Name"),
				Style:     discordgo.TextInputShort,
				Required:  true,
				MinLength: nickname.MinNameLength,
				MaxLength: nickname.MaxNameLength,
				Value:     f.Name,
			},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:  universityField,
				Label:     f.label("University"),
				Style:     discordgo.TextInputShort,
				Required:  true,
				MinLength: nickname.MinInstitutionLength,
				MaxLength: nickname.MaxInstitutionLength,
				Value:     f.University,
			},
		}},
	}
}
