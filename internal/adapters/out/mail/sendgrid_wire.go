package mail

import (
	"log"
	"os"
)

// 環境変数名（Cloud Run / ローカル共通）
const (
	envSendGridAPIKey = "SENDGRID_API_KEY"
	envSendGridFrom   = "SENDGRID_FROM" // 例: no-reply@threadline.jp
)

// NewOrderMailerWithSendGrid は、SendGrid を使った OrderMailer を生成します。
//
// - SENDGRID_API_KEY : SendGrid の API キー
// - SENDGRID_FROM   : 送信元メールアドレス
//
// apiKey が空のときは環境変数から読みます（Secret Manager 解決済みの値を
// DI から渡すのが通常経路）。
func NewOrderMailerWithSendGrid(apiKey string) *OrderMailer {
	if apiKey == "" {
		apiKey = os.Getenv(envSendGridAPIKey)
	}
	fromAddr := os.Getenv(envSendGridFrom)

	if apiKey == "" {
		log.Printf("[mail] WARN: SENDGRID_API_KEY is empty. OrderMailer will fail to send mail.")
	}
	if fromAddr == "" {
		log.Printf("[mail] WARN: SENDGRID_FROM is empty. OrderMailer will fail to send mail.")
	}

	client := NewSendGridClient(apiKey)
	mailer := NewOrderMailer(client, fromAddr)

	log.Printf("[mail] OrderMailerWithSendGrid initialized. from=%s", fromAddr)

	return mailer
}
