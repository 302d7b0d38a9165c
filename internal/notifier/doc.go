// Package notifier sends pickup reminders for upcoming waste collections.
//
// Reminders can be posted to a Telegram chat, tweeted, or printed in dry-run mode.
// Messages are written in Norwegian and name every category collected that day.
package notifier
