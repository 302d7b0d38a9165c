package notifier

import (
	"context"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/dghubble/oauth1"

	"github.com/pfrederiksen/him-waste/internal/waste"
)

const (
	maxTweetLength = 280
	tweetInterval  = 2 * time.Second
)

// TwitterCredentials holds the OAuth1 keys of the posting account
type TwitterCredentials struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
}

// TwitterNotifier posts reminders to Twitter
type TwitterNotifier struct {
	client   *twitter.Client
	interval time.Duration
	now      func() time.Time
}

// NewTwitterNotifier creates a new Twitter notifier
func NewTwitterNotifier(creds TwitterCredentials) (*TwitterNotifier, error) {
	if creds.ConsumerKey == "" || creds.ConsumerSecret == "" || creds.AccessToken == "" || creds.AccessSecret == "" {
		return nil, fmt.Errorf("missing required Twitter credentials")
	}

	config := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	return newTwitterNotifier(config.Client(oauth1.NoContext, token)), nil
}

func newTwitterNotifier(httpClient *http.Client) *TwitterNotifier {
	return &TwitterNotifier{
		client:   twitter.NewClient(httpClient),
		interval: tweetInterval,
		now:      time.Now,
	}
}

// Notify posts one tweet per collection
func (n *TwitterNotifier) Notify(ctx context.Context, collections []waste.Collection) error {
	today := n.now()
	for i, col := range collections {
		tweet := formatTweet(col, today)

		_, _, err := n.client.Statuses.Update(tweet, nil)
		if err != nil {
			return fmt.Errorf("failed to post tweet for %s: %w", waste.FormatDate(col.Date), err)
		}

		// Rate limiting: wait between tweets
		if i < len(collections)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.interval):
			}
		}
	}

	return nil
}

// formatTweet formats a collection as a tweet of at most 280 characters
func formatTweet(col waste.Collection, today time.Time) string {
	tweet := formatReminder(col, today) + "\n#HIM #Avfall"

	if utf8.RuneCountInString(tweet) > maxTweetLength {
		runes := []rune(tweet)
		tweet = string(runes[:maxTweetLength-3]) + "..."
	}
	return tweet
}
