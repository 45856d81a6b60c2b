package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/logger"
)

// TelegramService handles sending notifications to Telegram.
type TelegramService struct {
	botToken    string
	adminChatID string
	baseURL     string
	client      *http.Client
	log         *zap.Logger
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string, log *zap.Logger) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		baseURL:     "https://api.telegram.org",
		client:      &http.Client{Timeout: 10 * time.Second},
		log:         logger.OrNop(log),
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to specified chat.
func (s *TelegramService) SendMessage(chatID, text string) error {
	if s.botToken == "" {
		s.log.Debug("telegram bot token not configured")
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)

	body, err := json.Marshal(telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	resp, err := s.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		s.log.Warn("telegram send failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.log.Warn("telegram unexpected status", zap.Int("status", resp.StatusCode))
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(text string) error {
	if s.adminChatID == "" {
		s.log.Debug("telegram admin chat not configured")
		return nil
	}
	return s.SendMessage(s.adminChatID, text)
}

// OrderNotification contains order data for Telegram notification.
type OrderNotification struct {
	OrderNumber   string
	Items         []OrderItemNotification
	Total         decimal.Decimal
	Currency      string
	CustomerName  string
	CustomerEmail string
	PaymentMethod string
	City          string
}

// OrderItemNotification contains order item data.
type OrderItemNotification struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
}

// FormatPrice formats amount with two decimals, thousand separators and currency.
func FormatPrice(amount decimal.Decimal, currency string) string {
	if currency == "" {
		currency = "INR"
	}

	fixed := amount.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")

	var result strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	return sign + result.String() + "." + frac + " " + currency
}

// NotifyNewOrder sends notification about new order to admin chat.
func (s *TelegramService) NotifyNewOrder(order OrderNotification) error {
	if s.adminChatID == "" {
		return nil
	}
	return s.SendToAdmin(formatOrderMessage(order))
}

// formatOrderMessage renders the HTML message; user text is escaped for parse_mode HTML.
func formatOrderMessage(order OrderNotification) string {
	var itemsList strings.Builder
	for i, item := range order.Items {
		lineTotal := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		itemsList.WriteString(fmt.Sprintf("%d. <b>%s</b>\n   %d x %s = %s\n",
			i+1,
			html.EscapeString(item.Name),
			item.Quantity,
			FormatPrice(item.Price, order.Currency),
			FormatPrice(lineTotal, order.Currency),
		))
	}

	message := fmt.Sprintf(`<b>🛒 NEW ORDER</b>
<b>Order:</b> %s
<b>Customer:</b> %s (%s)
<b>City:</b> %s
<b>Items:</b>
%s
<b>Total:</b> %s
<b>Payment:</b> %s`,
		order.OrderNumber,
		html.EscapeString(order.CustomerName),
		html.EscapeString(order.CustomerEmail),
		html.EscapeString(order.City),
		itemsList.String(),
		FormatPrice(order.Total, order.Currency),
		order.PaymentMethod,
	)

	return strings.TrimSpace(message)
}
