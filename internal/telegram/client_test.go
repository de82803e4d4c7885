package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/bigkaa/goartstore/filebot/internal/config"
	"github.com/bigkaa/goartstore/filebot/internal/domain/model"
)

const testToken = "123456:SECRET-TOKEN"

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// capturedRequest — запрос, полученный mock Bot API.
type capturedRequest struct {
	Method string
	Body   map[string]any
}

// setupMockAPI создаёт mock Bot API. respond возвращает HTTP-статус
// и тело ответа для вызванного метода.
func setupMockAPI(t *testing.T, respond func(method string, body map[string]any) (int, string)) (*Client, *[]capturedRequest) {
	t.Helper()
	var captured []capturedRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix := "/bot" + testToken + "/"
		if !strings.HasPrefix(r.URL.Path, prefix) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		method := strings.TrimPrefix(r.URL.Path, prefix)

		raw, _ := io.ReadAll(r.Body)
		body := map[string]any{}
		_ = json.Unmarshal(raw, &body)
		captured = append(captured, capturedRequest{Method: method, Body: body})

		status, resp := respond(method, body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(server.Close)

	return New(server.Client(), server.URL+"/", testToken, testLogger()), &captured
}

func okResponse(string, map[string]any) (int, string) {
	return http.StatusOK, `{"ok":true,"result":true}`
}

func TestClient_GetMe(t *testing.T) {
	c, _ := setupMockAPI(t, func(string, map[string]any) (int, string) {
		return http.StatusOK, `{"ok":true,"result":{"id":42,"is_bot":true,"username":"file_keeper_bot"}}`
	})

	me, err := c.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe() ошибка: %v", err)
	}
	if me.ID != 42 || me.Username != "file_keeper_bot" {
		t.Errorf("GetMe() = %+v", me)
	}
}

func TestClient_GetUpdates(t *testing.T) {
	c, captured := setupMockAPI(t, func(string, map[string]any) (int, string) {
		return http.StatusOK, `{"ok":true,"result":[
			{"update_id":100,"message":{"message_id":1,"chat":{"id":7,"type":"private"},"from":{"id":7},"text":"/start"}},
			{"update_id":102,"callback_query":{"id":"cb-1","from":{"id":7},"data":"p:10"}},
			{"update_id":101,"message":{"message_id":2,"chat":{"id":7},"from":{"id":7},
				"document":{"file_id":"BQAC","file_name":"a.pdf","mime_type":"application/pdf","file_size":1024}}}
		]}`
	})

	updates, next, err := c.GetUpdates(context.Background(), 99, time.Second)
	if err != nil {
		t.Fatalf("GetUpdates() ошибка: %v", err)
	}
	if len(updates) != 3 {
		t.Fatalf("updates = %d, ожидалось 3", len(updates))
	}
	if next != 103 {
		t.Errorf("next = %d, ожидалось 103", next)
	}
	if updates[1].CallbackQuery == nil || updates[1].CallbackQuery.Data != "p:10" {
		t.Errorf("callback_query = %+v", updates[1].CallbackQuery)
	}
	doc := updates[2].Message.Document
	if doc == nil || doc.FileSize == nil || *doc.FileSize != 1024 {
		t.Errorf("document = %+v", doc)
	}

	req := (*captured)[0]
	if req.Method != "getUpdates" {
		t.Errorf("метод = %q", req.Method)
	}
	if req.Body["offset"] != float64(99) || req.Body["timeout"] != float64(1) {
		t.Errorf("параметры = %v", req.Body)
	}
}

func TestClient_GetUpdates_EmptyKeepsOffset(t *testing.T) {
	c, _ := setupMockAPI(t, func(string, map[string]any) (int, string) {
		return http.StatusOK, `{"ok":true,"result":[]}`
	})

	_, next, err := c.GetUpdates(context.Background(), 55, time.Second)
	if err != nil {
		t.Fatalf("GetUpdates() ошибка: %v", err)
	}
	if next != 55 {
		t.Errorf("next = %d, ожидалось 55", next)
	}
}

func TestClient_SendMessageWithKeyboard(t *testing.T) {
	c, captured := setupMockAPI(t, okResponse)

	err := c.SendMessage(context.Background(), 7, "📁 Your Files (1 total)", [][]InlineKeyboardButton{
		{{Text: "report.pdf (1.0 KB)", CallbackData: "f:abc"}},
	})
	if err != nil {
		t.Fatalf("SendMessage() ошибка: %v", err)
	}

	req := (*captured)[0]
	if req.Method != "sendMessage" || req.Body["chat_id"] != float64(7) {
		t.Errorf("запрос = %+v", req)
	}
	markup, ok := req.Body["reply_markup"].(map[string]any)
	if !ok {
		t.Fatalf("reply_markup отсутствует: %v", req.Body)
	}
	rows := markup["inline_keyboard"].([]any)
	btn := rows[0].([]any)[0].(map[string]any)
	if btn["text"] != "report.pdf (1.0 KB)" || btn["callback_data"] != "f:abc" {
		t.Errorf("кнопка = %v", btn)
	}
}

func TestClient_SendMessageWithoutKeyboard(t *testing.T) {
	c, captured := setupMockAPI(t, okResponse)

	if err := c.SendMessage(context.Background(), 7, "hello", nil); err != nil {
		t.Fatalf("SendMessage() ошибка: %v", err)
	}
	if _, ok := (*captured)[0].Body["reply_markup"]; ok {
		t.Error("reply_markup не должен передаваться без клавиатуры")
	}
}

func TestClient_SendFile(t *testing.T) {
	tests := []struct {
		kind       model.FileKind
		method     string
		field      string
		hasCaption bool
	}{
		{model.KindDocument, "sendDocument", "document", true},
		{model.KindPhoto, "sendPhoto", "photo", true},
		{model.KindVoice, "sendVoice", "voice", true},
		{model.KindVideoNote, "sendVideoNote", "video_note", false},
		{model.KindSticker, "sendSticker", "sticker", false},
		{"unknown", "sendDocument", "document", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			c, captured := setupMockAPI(t, okResponse)

			if err := c.SendFile(context.Background(), 7, tt.kind, "FILE-ID", "📄 name"); err != nil {
				t.Fatalf("SendFile() ошибка: %v", err)
			}
			req := (*captured)[0]
			if req.Method != tt.method {
				t.Errorf("метод = %q, ожидался %q", req.Method, tt.method)
			}
			if req.Body[tt.field] != "FILE-ID" {
				t.Errorf("поле %q = %v", tt.field, req.Body[tt.field])
			}
			if _, ok := req.Body["caption"]; ok != tt.hasCaption {
				t.Errorf("caption передан = %v, ожидалось %v", ok, tt.hasCaption)
			}
		})
	}
}

func TestClient_SetWebhook(t *testing.T) {
	c, captured := setupMockAPI(t, okResponse)

	if err := c.SetWebhook(context.Background(), "https://bot.example.com/webhook", "s3cret"); err != nil {
		t.Fatalf("SetWebhook() ошибка: %v", err)
	}
	body := (*captured)[0].Body
	if body["url"] != "https://bot.example.com/webhook" || body["secret_token"] != "s3cret" {
		t.Errorf("параметры = %v", body)
	}
}

func TestClient_APIError(t *testing.T) {
	c, _ := setupMockAPI(t, func(string, map[string]any) (int, string) {
		return http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`
	})

	err := c.AnswerCallbackQuery(context.Background(), "cb-1", "")
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("err = %v, ожидалась RequestError", err)
	}
	if reqErr.ErrorCode != 400 || !strings.Contains(reqErr.Description, "chat not found") {
		t.Errorf("RequestError = %+v", reqErr)
	}
}

// TestClient_ErrorHidesToken проверяет, что ошибка транспорта не содержит токен.
func TestClient_ErrorHidesToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := server.URL
	server.Close()

	c := New(nil, base, testToken, testLogger())
	err := c.DeleteWebhook(context.Background())
	if err == nil {
		t.Fatal("ожидалась ошибка соединения")
	}
	if strings.Contains(err.Error(), testToken) {
		t.Errorf("токен в тексте ошибки: %v", err)
	}
}

// TestClient_LongPollFitsDefaultTimeout: максимальный FB_POLL_TIMEOUT вместе
// с запасом getUpdates укладывается в таймаут клиента по умолчанию.
func TestClient_LongPollFitsDefaultTimeout(t *testing.T) {
	if config.MaxPollTimeout+PollMargin >= DefaultTimeout {
		t.Errorf("MaxPollTimeout(%s) + PollMargin(%s) >= DefaultTimeout(%s)",
			config.MaxPollTimeout, PollMargin, DefaultTimeout)
	}

	c := New(nil, "http://localhost", testToken, testLogger())
	if c.http.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %s, ожидался %s", c.http.Timeout, DefaultTimeout)
	}
}

// TestUpdate_FileSizeAbsentVsZero: отсутствующий file_size отличается от нулевого.
func TestUpdate_FileSizeAbsentVsZero(t *testing.T) {
	const body = `{"update_id":1,"message":{"message_id":2,"chat":{"id":7},
		"document":{"file_id":"BQACAgIA"},
		"voice":{"file_id":"AwACAgIA","file_size":0}}}`

	var u Update
	if err := json.Unmarshal([]byte(body), &u); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if u.Message.Document.FileSize != nil {
		t.Errorf("Document.FileSize = %d, ожидался nil", *u.Message.Document.FileSize)
	}
	if u.Message.Voice.FileSize == nil || *u.Message.Voice.FileSize != 0 {
		t.Errorf("Voice.FileSize = %v, ожидался 0", u.Message.Voice.FileSize)
	}
}
