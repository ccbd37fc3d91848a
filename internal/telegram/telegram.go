package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"dealdesk/server/internal/models"
)

const DefaultBaseURL = "https://api.telegram.org"

// Config holds the bot credentials
type Config struct {
	BaseURL  string
	BotToken string
	ChatID   string
}

// Service posts deal alerts to a Telegram chat
type Service struct {
	logger *logrus.Logger
	client *http.Client
	config Config
}

func NewService(logger *logrus.Logger, config Config) *Service {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &Service{
		logger: logger,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		config: config,
	}
}

// SendMessage sends a message to the configured Telegram chat
func (s *Service) SendMessage(ctx context.Context, message string) error {
	if s.config.BotToken == "" {
		return errors.New("telegram bot token is not configured")
	}
	if s.config.ChatID == "" {
		return errors.New("telegram chat ID is not configured")
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.config.BaseURL, s.config.BotToken)
	payload := map[string]interface{}{
		"chat_id":    s.config.ChatID,
		"text":       message,
		"parse_mode": "HTML",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message to Telegram API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusNotFound:
			return errors.New("invalid bot token")
		case http.StatusBadRequest:
			return fmt.Errorf("invalid chat ID or message format: %s", string(body))
		case http.StatusForbidden:
			return errors.New("bot was blocked by the user or chat")
		default:
			return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, string(body))
		}
	}
	return nil
}

// NotifyDeal announces a scenario that cleared the alert threshold
func (s *Service) NotifyDeal(ctx context.Context, property models.Property, scenario models.DealScenario) error {
	message := FormatDeal(property, scenario)
	if err := s.SendMessage(ctx, message); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"property_id": property.ID,
		"scenario_id": scenario.ID,
	}).Info("Sent deal alert")
	return nil
}

// FormatDeal renders the alert text in Telegram's HTML subset
func FormatDeal(property models.Property, scenario models.DealScenario) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Deal alert: %s</b>\n\n", html.EscapeString(scenario.Name))
	fmt.Fprintf(&b, "🏠 %s\n", html.EscapeString(property.Address()))
	fmt.Fprintf(&b, "📋 Strategy: %s\n", scenario.ExitStrategy)
	fmt.Fprintf(&b, "💰 Purchase: $%.0f\n", scenario.PurchasePrice)
	if scenario.RehabCost > 0 {
		fmt.Fprintf(&b, "🔨 Rehab: $%.0f\n", scenario.RehabCost)
	}
	if scenario.ROI != nil {
		fmt.Fprintf(&b, "📈 ROI: %.1f%%\n", *scenario.ROI)
	}
	if scenario.ExitStrategy != models.StrategyFlip {
		if scenario.CapRate != nil {
			fmt.Fprintf(&b, "🏦 Cap rate: %.1f%%\n", *scenario.CapRate)
		}
		if scenario.CashOnCash != nil {
			fmt.Fprintf(&b, "💵 Cash on cash: %.1f%%\n", *scenario.CashOnCash)
		}
		if scenario.MonthlyNOI != nil {
			fmt.Fprintf(&b, "📊 Monthly NOI: $%.2f\n", *scenario.MonthlyNOI)
		}
	}
	if scenario.TotalProfit != nil {
		fmt.Fprintf(&b, "🧾 Total profit: $%.2f", *scenario.TotalProfit)
	}
	return strings.TrimRight(b.String(), "\n")
}
