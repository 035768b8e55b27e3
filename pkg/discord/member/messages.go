package member

import (
	"fmt"

	"github.com/small-frappuccino/nicknamebot/pkg/nickname"
)

func successMessage(target nickname.Identity, formatted string, self bool) string {
	if self {
		return fmt.Sprintf("Thank you for setting your nickname, %s, to \"%s\"!", target.DisplayName(), formatted)
	}
	return fmt.Sprintf("You have set %s's Nickname to \"%s\"", target.DisplayName(), formatted)
}

func nicknameDeniedMessage(target nickname.Identity, self bool) string {
	if self {
		return "An Error has occurred while changing your Nickname. If you are not the server owner, please report this."
	}
	return otherDeniedMessage(target)
}

func roleDeniedMessage(target nickname.Identity, self bool) string {
	if self {
		return "An Error has occurred while updating your roles. If you are not the server owner, please report this."
	}
	return otherDeniedMessage(target)
}

func otherDeniedMessage(target nickname.Identity) string {
	return fmt.Sprintf("A Permission Error has occurred while changing %s's Nickname. "+
		"Ensure the bot has the MANAGE_NICKNAMES permission, the target is not the server owner, "+
		"and the bot's role is above all others", target.DisplayName())
}
