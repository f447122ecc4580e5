package mod

import (
	"errors"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

const (
	colorSuccess = 0x00FF00
	colorError   = 0xFF0000
	colorWarning = 0xFFA500
	colorInfo    = 0x3498DB

	footerText = "💫 - Developed by PancyStudios"
)

var actionVerbs = map[string]string{
	string(moderation.ActionWarn):   "advertir",
	string(moderation.ActionMute):   "silenciar",
	string(moderation.ActionUnmute): "quitar el silencio",
	string(moderation.ActionKick):   "expulsar",
	string(moderation.ActionBan):    "banear",
	string(moderation.ActionUnban):  "desbanear",
}

// errorText turns an engine or executor error into a message for the moderator
func errorText(err error) string {
	var verr *moderation.ValidationError
	var denied *moderation.ActionDeniedError

	switch {
	case errors.Is(err, moderation.ErrSelfTarget):
		return "❌ No puedes usar esta acción sobre ti mismo."
	case errors.Is(err, moderation.ErrHigherTarget):
		return "❌ No puedes moderar a un usuario con un rol igual o superior al tuyo."
	case errors.As(err, &verr):
		return fmt.Sprintf("❌ Valor inválido para `%s`: %s", verr.Field, verr.Message)
	case errors.As(err, &denied):
		verb := actionVerbs[denied.Action]
		if verb == "" {
			verb = denied.Action
		}
		if errors.Is(err, moderation.ErrNotFound) {
			return fmt.Sprintf("❌ No se pudo %s: el usuario no se encontró.", verb)
		}
		if errors.Is(err, moderation.ErrPermissionDenied) {
			return fmt.Sprintf("❌ No tengo permisos suficientes para %s a este usuario.", verb)
		}
		return fmt.Sprintf("❌ No se pudo %s al usuario.", verb)
	case errors.Is(err, moderation.ErrWarningNotFound):
		return "❌ No se encontró una advertencia con ese ID."
	case errors.Is(err, moderation.ErrReasonNotFound):
		return "❌ No existe una razón con ese nombre."
	case errors.Is(err, moderation.ErrRuleNotFound):
		return "❌ No existe un castigo con ese umbral."
	case errors.Is(err, moderation.ErrNoSession):
		return "⌛ La sesión de configuración expiró. Vuelve a ejecutar el comando."
	}
	return "❌ Ocurrió un error inesperado. Inténtalo de nuevo más tarde."
}

// fail logs unexpected errors and answers with errorText
func fail(ctx *discord.CommandContext, prefix string, err error, reply func(string) error) {
	var verr *moderation.ValidationError
	var denied *moderation.ActionDeniedError
	if errors.As(err, &verr) || errors.As(err, &denied) || errors.Is(err, moderation.ErrExpiredOrNotFound) || errors.Is(err, moderation.ErrNoSession) {
		logger.Debug(fmt.Sprintf("%s en %s: %v", prefix, ctx.Interaction.GuildID, err), "CMD-Mod")
	} else {
		logger.Error(fmt.Sprintf("%s en %s: %v", prefix, ctx.Interaction.GuildID, err), "CMD-Mod")
	}
	if rerr := reply(errorText(err)); rerr != nil {
		logger.Error(fmt.Sprintf("Error respondiendo a la interacción: %v", rerr), "CMD-Mod")
	}
}

func resultEmbed(title, description string, color int, by *discordgo.User) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer:      &discordgo.MessageEmbedFooter{Text: footerText},
	}
	if by != nil {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text:    fmt.Sprintf("Solicitado por %s", by.String()),
			IconURL: by.AvatarURL(""),
		}
	}
	return embed
}

// truncate cuts s to n runes for choice names and embed fields
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
