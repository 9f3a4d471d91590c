package processor

// Prefix is prepended to every processed text.
const Prefix = "bhola "

// Process is the core text transformation shared by the JSON API and the bot.
func Process(text string) string {
	return Prefix + text
}
