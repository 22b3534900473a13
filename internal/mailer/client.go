// Package mailer はResend APIによるトランザクションメール送信を提供する。
// 注文確認・ステータス更新の通知メールを含む。
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// defaultEndpoint はResendのメール送信APIエンドポイント。
const defaultEndpoint = "https://api.resend.com/emails"

// Client はResend APIのクライアント。
// APIキーが未設定の場合は送信をスキップする（ローカル開発用）。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	fromEmail  string
	fromName   string
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, apiKey, fromEmail, fromName string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		fromEmail:  fromEmail,
		fromName:   fromName,
		endpoint:   defaultEndpoint,
	}
}

// SetEndpoint はAPIエンドポイントを差し替える。テスト用。
func (c *Client) SetEndpoint(endpoint string) {
	c.endpoint = endpoint
}

// Enabled はAPIキーが設定されているかを返す。
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// sendRequest はResendのメール送信リクエストボディ。
type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// sendResponse はResendのメール送信レスポンスボディ。
type sendResponse struct {
	ID string `json:"id"`
}

// Send はHTMLメールを1通送信する。
// APIキーが未設定の場合は送信せずnilを返す。
func (c *Client) Send(ctx context.Context, toEmail, subject, htmlBody string) error {
	if !c.Enabled() {
		c.logger.Debug("email sending skipped: API key not configured",
			slog.String("to", toEmail),
			slog.String("subject", subject),
		)
		return nil
	}

	body, err := json.Marshal(sendRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{toEmail},
		Subject: subject,
		HTML:    htmlBody,
	})
	if err != nil {
		return fmt.Errorf("リクエストボディの生成に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("メール送信APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
			slog.String("to", toEmail),
		)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("メール送信APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("to", toEmail),
			slog.String("body", string(respBody)),
		)
		return fmt.Errorf("メール送信APIがステータス %d を返しました", resp.StatusCode)
	}

	var result sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("レスポンスのデコードに失敗しました: %w", err)
	}

	c.logger.Info("email sent",
		slog.String("to", toEmail),
		slog.String("subject", subject),
		slog.String("resend_id", result.ID),
	)
	return nil
}
