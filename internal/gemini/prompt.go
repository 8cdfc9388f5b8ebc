package gemini

import (
	"github.com/profilehue/profilehue-server/internal/palette"
)

const promptPrefix = "In two short sentences, describe the personality and mood suggested by " +
	"this profile color palette. Refer to the colors by name, not by hex code. Palette: "

// PalettePrompt embeds the comma-joined hex values of colors in the
// description instruction.
func PalettePrompt(colors []palette.Color) string {
	return promptPrefix + palette.JoinHex(colors)
}
