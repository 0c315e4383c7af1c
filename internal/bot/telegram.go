package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"tickerdesk/internal/domain"

	tele "gopkg.in/telebot.v3"
)

const replyTimeout = 60 * time.Second

// Dashboard is the cached data the bot reads from.
type Dashboard interface {
	Security() domain.Security
	Quote(ctx context.Context) (*domain.Quote, error)
	Candles(ctx context.Context, period string, count int) ([]domain.Candle, error)
	News(ctx context.Context) ([]domain.NewsItem, error)
}

// Asker answers a freeform question in one message.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// StartTelegramBot polls Telegram in the background. An empty token disables
// the bot.
func StartTelegramBot(token string, dashboard Dashboard, asker Asker) {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Printf("failed to create Telegram bot: %v", err)
		return
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})
	b.Handle("/quote", func(c tele.Context) error {
		return c.Send(quoteReply(withTimeout(dashboard.Quote), dashboard.Security()))
	})
	b.Handle("/news", func(c tele.Context) error {
		return c.Send(newsReply(withTimeout(dashboard.News), 8))
	})
	b.Handle("/kline", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
		defer cancel()
		return c.Send(klineReply(ctx, dashboard, c.Args()))
	})
	b.Handle(tele.OnText, func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
		defer cancel()
		return c.Send(askReply(ctx, asker, c.Text()))
	})

	log.Println("Telegram bot started")
	go b.Start()
}

func withTimeout[T any](fetch func(context.Context) (T, error)) func() (T, error) {
	return func() (T, error) {
		ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
		defer cancel()
		return fetch(ctx)
	}
}

func quoteReply(fetch func() (*domain.Quote, error), sec domain.Security) string {
	q, err := fetch()
	if err != nil {
		return fmt.Sprintf("Error fetching quote for %s: %v", sec.Code, err)
	}
	return fmt.Sprintf(
		"%s (%s)\nPrice: %.2f HKD\nChange: %+.2f (%+.2f%%)\nHigh/Low: %.2f / %.2f\nVolume: %.0f",
		sec.Name, sec.Code, q.Price, q.Change, q.ChangePct, q.High, q.Low, q.Volume,
	)
}

func newsReply(fetch func() ([]domain.NewsItem, error), limit int) string {
	items, err := fetch()
	if err != nil {
		return fmt.Sprintf("Error fetching news: %v", err)
	}
	if len(items) == 0 {
		return "No news right now."
	}
	if len(items) > limit {
		items = items[:limit]
	}
	var sb strings.Builder
	for i, it := range items {
		mark := ""
		if it.Tag == domain.TagStock {
			mark = "📈 "
		}
		fmt.Fprintf(&sb, "%d. %s%s (%s)\n%s\n", i+1, mark, it.Title, it.Source, it.URL)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// klineReply handles /kline [period] [count]; count defaults to 5 rows.
func klineReply(ctx context.Context, d Dashboard, args []string) string {
	period := domain.PeriodDay
	if len(args) > 0 {
		period = strings.ToLower(args[0])
	}
	if !domain.ValidPeriod(period) {
		return fmt.Sprintf("Usage: /kline [period] [count]\nSupported periods: %s", strings.Join(domain.SupportedPeriods, ", "))
	}
	rows := 5
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[1]); err == nil && n > 0 && n <= 30 {
			rows = n
		}
	}

	candles, err := d.Candles(ctx, period, domain.DefaultCandleCount)
	if err != nil {
		return fmt.Sprintf("Error fetching %s candles: %v", period, err)
	}
	if len(candles) == 0 {
		return "No candles available."
	}
	if len(candles) > rows {
		candles = candles[len(candles)-rows:]
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s candles\n", d.Security().Code, period)
	for _, k := range candles {
		fmt.Fprintf(&sb, "%s O %.2f H %.2f L %.2f C %.2f\n", k.Date, k.Open, k.High, k.Low, k.Close)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func askReply(ctx context.Context, asker Asker, text string) string {
	if asker == nil || strings.TrimSpace(text) == "" {
		return "Send /quote, /news or /kline, or ask a question."
	}
	reply, err := asker.Ask(ctx, text)
	if err != nil {
		return fmt.Sprintf("Sorry, I couldn't answer that: %v", err)
	}
	return reply
}
