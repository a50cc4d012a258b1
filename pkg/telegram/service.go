// Package telegram — минимальный клиент Bot API поверх net/http:
// только методы, нужные боту, без обёрток над всем API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

type ServiceInterface interface {
	SendMessage(ctx context.Context, chatID int64, text string, options ...MessageOption) (int64, error)
	EditMessageText(ctx context.Context, chatID, messageID int64, text string, options ...MessageOption) error
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	AnswerCallbackQuery(ctx context.Context, callbackQueryID string, text string) error
	AnswerCallbackAlert(ctx context.Context, callbackQueryID string, text string) error
	SetMessageReaction(ctx context.Context, chatID, messageID int64, emoji string) error
	SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) error
}

type Service struct {
	botToken   string
	httpClient *http.Client
	debug      bool
}

func NewService(botToken string) ServiceInterface {
	debug := strings.Contains(strings.ToLower(os.Getenv("DEBUG")), "telegram")

	return &Service{
		botToken:   botToken,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		debug:      debug,
	}
}

// --- СТРУКТУРЫ ЗАПРОСОВ ---

type sendMessageRequest struct {
	ChatID           int64       `json:"chat_id"`
	Text             string      `json:"text"`
	ParseMode        string      `json:"parse_mode,omitempty"`
	ReplyToMessageID int64       `json:"reply_to_message_id,omitempty"`
	ReplyMarkup      interface{} `json:"reply_markup,omitempty"`
}

type editMessageTextRequest struct {
	ChatID      int64       `json:"chat_id"`
	MessageID   int64       `json:"message_id"`
	Text        string      `json:"text"`
	ParseMode   string      `json:"parse_mode,omitempty"`
	ReplyMarkup interface{} `json:"reply_markup,omitempty"`
}

type deleteMessageRequest struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int64 `json:"message_id"`
}

type callbackQueryRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
	ShowAlert       bool   `json:"show_alert,omitempty"`
}

type reactionType struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji"`
}

type setMessageReactionRequest struct {
	ChatID    int64          `json:"chat_id"`
	MessageID int64          `json:"message_id"`
	Reaction  []reactionType `json:"reaction"`
}

type inlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type ReplyKeyboardButton struct {
	Text string `json:"text"`
}

type replyKeyboardMarkup struct {
	Keyboard       [][]ReplyKeyboardButton `json:"keyboard"`
	ResizeKeyboard bool                    `json:"resize_keyboard"`
}

type MessageOption func(*sendMessageRequest)

func WithKeyboard(rows [][]InlineKeyboardButton) MessageOption {
	return func(req *sendMessageRequest) {
		if len(rows) > 0 {
			req.ReplyMarkup = inlineKeyboardMarkup{InlineKeyboard: rows}
		}
	}
}

func WithReplyKeyboard(rows [][]ReplyKeyboardButton) MessageOption {
	return func(req *sendMessageRequest) {
		if len(rows) > 0 {
			req.ReplyMarkup = replyKeyboardMarkup{
				Keyboard:       rows,
				ResizeKeyboard: true,
			}
		}
	}
}

func WithHTML() MessageOption {
	return func(req *sendMessageRequest) {
		req.ParseMode = "HTML"
	}
}

func WithReplyTo(messageID int64) MessageOption {
	return func(req *sendMessageRequest) {
		req.ReplyToMessageID = messageID
	}
}

// SendMessage отправляет сообщение и возвращает message_id, чтобы
// вызывающая сторона могла привязать карточку к заказу.
func (s *Service) SendMessage(ctx context.Context, chatID int64, text string, options ...MessageOption) (int64, error) {
	reqPayload := &sendMessageRequest{
		ChatID: chatID,
		Text:   text,
	}
	for _, opt := range options {
		opt(reqPayload)
	}

	result, err := s.sendRequest(ctx, "sendMessage", reqPayload)
	if err != nil {
		return 0, err
	}

	var sent struct {
		MessageID int64 `json:"message_id"`
	}
	if err := json.Unmarshal(result, &sent); err != nil {
		return 0, fmt.Errorf("ошибка декодирования отправленного сообщения: %w", err)
	}
	return sent.MessageID, nil
}

func (s *Service) EditMessageText(ctx context.Context, chatID, messageID int64, text string, options ...MessageOption) error {
	if messageID == 0 {
		_, err := s.SendMessage(ctx, chatID, text, options...)
		return err
	}

	tempSendReq := &sendMessageRequest{}
	for _, opt := range options {
		opt(tempSendReq)
	}

	editReq := &editMessageTextRequest{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   tempSendReq.ParseMode,
		ReplyMarkup: tempSendReq.ReplyMarkup,
	}

	_, err := s.sendRequest(ctx, "editMessageText", editReq)
	return err
}

func (s *Service) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	_, err := s.sendRequest(ctx, "deleteMessage", deleteMessageRequest{ChatID: chatID, MessageID: messageID})
	return err
}

func (s *Service) AnswerCallbackQuery(ctx context.Context, callbackQueryID string, text string) error {
	return s.answerCallback(ctx, callbackQueryID, text, false)
}

func (s *Service) AnswerCallbackAlert(ctx context.Context, callbackQueryID string, text string) error {
	return s.answerCallback(ctx, callbackQueryID, text, true)
}

func (s *Service) answerCallback(ctx context.Context, callbackQueryID, text string, alert bool) error {
	if callbackQueryID == "" {
		return fmt.Errorf("callbackQueryID не может быть пустым")
	}
	_, err := s.sendRequest(ctx, "answerCallbackQuery", callbackQueryRequest{
		CallbackQueryID: callbackQueryID,
		Text:            text,
		ShowAlert:       alert,
	})
	return err
}

// SetMessageReaction ставит эмодзи-реакцию на сообщение.
func (s *Service) SetMessageReaction(ctx context.Context, chatID, messageID int64, emoji string) error {
	_, err := s.sendRequest(ctx, "setMessageReaction", setMessageReactionRequest{
		ChatID:    chatID,
		MessageID: messageID,
		Reaction:  []reactionType{{Type: "emoji", Emoji: emoji}},
	})
	return err
}

// SendDocument отправляет файл отчёта через multipart-запрос.
func (s *Service) SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) error {
	if s.botToken == "" {
		return fmt.Errorf("токен Telegram-бота не установлен")
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if err := w.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return fmt.Errorf("ошибка сборки multipart: %w", err)
	}
	if caption != "" {
		if err := w.WriteField("caption", caption); err != nil {
			return fmt.Errorf("ошибка сборки multipart: %w", err)
		}
	}
	part, err := w.CreateFormFile("document", filename)
	if err != nil {
		return fmt.Errorf("ошибка сборки multipart: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("ошибка записи документа: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("ошибка сборки multipart: %w", err)
	}

	apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/sendDocument", s.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, &body)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка отправки документа в Telegram: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp.Body, "sendDocument", nil)
}

// --- ВСПОМОГАТЕЛЬНЫЕ ФУНКЦИИ ---

func (s *Service) sendRequest(ctx context.Context, methodName string, payload interface{}) (json.RawMessage, error) {
	if s.botToken == "" {
		return nil, fmt.Errorf("токен Telegram-бота не установлен")
	}

	apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/%s", s.botToken, methodName)

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки запроса в Telegram: %w", err)
	}
	defer resp.Body.Close()

	if s.debug {
		fmt.Printf("[telegram] %s\nRequest: %s\n", methodName, string(reqBody))
	}

	var result json.RawMessage
	if err := decodeResponse(resp.Body, methodName, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Telegram всегда возвращает 200 OK, даже при ошибках.
func decodeResponse(r io.Reader, methodName string, result *json.RawMessage) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа Telegram API: %w", err)
	}

	var telegramResp struct {
		OK          bool            `json:"ok"`
		Description string          `json:"description,omitempty"`
		ErrorCode   int             `json:"error_code,omitempty"`
		Result      json.RawMessage `json:"result,omitempty"`
	}
	if err := json.Unmarshal(body, &telegramResp); err != nil {
		return fmt.Errorf("ошибка декодирования ответа Telegram API: %w", err)
	}
	if !telegramResp.OK {
		return fmt.Errorf("telegram API ошибка (%s): код %d, описание: %s", methodName, telegramResp.ErrorCode, telegramResp.Description)
	}
	if result != nil {
		*result = telegramResp.Result
	}
	return nil
}
