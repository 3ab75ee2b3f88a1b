package domain

// Identity is the user record resolved from a presented API key. Read-only
// at request time; the webhook URL receives per-ticket notifications.
type Identity struct {
	Name       string
	WebhookURL string
}
