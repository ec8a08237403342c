package common

// Discord color constants
const (
	ColorPrimary = 0x5865F2 // Discord blurple
	ColorSuccess = 0x57F287 // Green
	ColorDanger  = 0xED4245 // Red
	ColorWarning = 0xFEE75C // Yellow
	ColorInfo    = 0x3498DB // Blue
	ColorGold    = 0xF1C40F
	ColorMuted   = 0x99AAB5
)

// Discord API limits
const (
	MaxEmbedFields      = 25
	MaxEmbedDescription = 4096
	MaxReactionPage     = 100
	MaxMemberPage       = 1000
)
