package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTelegramAPIURL is the public Bot API host
const DefaultTelegramAPIURL = "https://api.telegram.org"

// TelegramFileHost stores images by posting them to a chat through the Bot
// API and serves them through the bot file endpoint.
type TelegramFileHost struct {
	apiURL string
	token  string
	chatID string
	client *http.Client
	logger *logrus.Logger
}

type telegramAnswer struct {
	OK          bool            `json:"ok"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type telegramPhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int64  `json:"file_size"`
}

// NewTelegramFileHost creates a file host for the bot and chat
func NewTelegramFileHost(apiURL, token, chatID string, client *http.Client, logger *logrus.Logger) (*TelegramFileHost, error) {
	if token == "" {
		return nil, NewStorageError("Configure", "", fmt.Errorf("%w: bot token is required", ErrNotConfigured))
	}
	if apiURL == "" {
		apiURL = DefaultTelegramAPIURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &TelegramFileHost{
		apiURL: strings.TrimRight(apiURL, "/"),
		token:  token,
		chatID: chatID,
		client: client,
		logger: logger,
	}, nil
}

// Upload implements FileHost.Upload by sending the image as a photo
func (h *TelegramFileHost) Upload(ctx context.Context, data []byte, opts *UploadOptions) (*UploadedFile, error) {
	if len(data) == 0 {
		return nil, NewStorageError("Upload", "", ErrInvalidData)
	}

	filename := "blob"
	if opts != nil && opts.Filename != "" {
		filename = opts.Filename
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("photo", filename)
	if err != nil {
		return nil, NewStorageError("Upload", "", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, NewStorageError("Upload", "", err)
	}
	if err := form.WriteField("chat_id", h.chatID); err != nil {
		return nil, NewStorageError("Upload", "", err)
	}
	if err := form.Close(); err != nil {
		return nil, NewStorageError("Upload", "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.methodURL("sendPhoto"), &body)
	if err != nil {
		return nil, NewStorageError("Upload", "", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var message struct {
		Photo []telegramPhotoSize `json:"photo"`
	}
	if err := h.call(req, "Upload", "", &message); err != nil {
		return nil, err
	}
	if len(message.Photo) == 0 {
		return nil, RejectedError("Upload", "", "file host returned no photo sizes")
	}

	uploaded := &UploadedFile{FileIDs: make([]string, len(message.Photo))}
	for i, size := range message.Photo {
		uploaded.FileIDs[i] = size.FileID
	}

	h.logger.WithFields(logrus.Fields{
		"bytes": len(data),
		"sizes": len(uploaded.FileIDs),
	}).Info("Image uploaded to file host")

	return uploaded, nil
}

// ResolveURL implements FileHost.ResolveURL through getFile
func (h *TelegramFileHost) ResolveURL(ctx context.Context, fileID string) (string, error) {
	if fileID == "" {
		return "", NewStorageError("ResolveURL", fileID, ErrInvalidKey)
	}

	endpoint := h.methodURL("getFile") + "?" + url.Values{"file_id": {fileID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", NewStorageError("ResolveURL", fileID, err)
	}

	var file struct {
		FileID   string `json:"file_id"`
		FilePath string `json:"file_path"`
	}
	if err := h.call(req, "ResolveURL", fileID, &file); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/file/bot%s/%s", h.apiURL, h.token, file.FilePath), nil
}

// Close implements FileHost.Close
func (h *TelegramFileHost) Close() error {
	return nil
}

func (h *TelegramFileHost) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", h.apiURL, h.token, method)
}

func (h *TelegramFileHost) call(req *http.Request, op, key string, out interface{}) error {
	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		// the request URL embeds the bot token
		h.logger.WithField("operation", op).Warn("File host unreachable")
		return NewStorageError(op, key, fmt.Errorf("%w: %s", ErrStorageUnavailable, redact(err.Error(), h.token)))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewStorageError(op, key, fmt.Errorf("%w: %v", ErrStorageUnavailable, err))
	}

	h.logger.WithFields(logrus.Fields{
		"operation": op,
		"status":    resp.StatusCode,
		"duration":  time.Since(start),
	}).Debug("File host answered")

	var answer telegramAnswer
	if err := json.Unmarshal(raw, &answer); err != nil {
		return NewStorageError(op, key, fmt.Errorf("%w: undecodable answer (status %d)", ErrInvalidData, resp.StatusCode))
	}
	if !answer.OK {
		if answer.ErrorCode == http.StatusNotFound {
			return &StorageError{Op: op, Key: key, Message: answer.Description, Err: ErrFileNotFound}
		}
		message := answer.Description
		if message == "" {
			message = fmt.Sprintf("file host responded with status %d", resp.StatusCode)
		}
		return RejectedError(op, key, message)
	}

	if err := json.Unmarshal(answer.Result, out); err != nil {
		return NewStorageError(op, key, fmt.Errorf("%w: %v", ErrInvalidData, err))
	}
	return nil
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, "<redacted>")
}
