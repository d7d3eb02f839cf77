package provider

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"

	"muhabbet/model"
)

// Fallback texts shown instead of a model answer.
const (
	TextVisionDisabled     = "Görseli aldım! Ancak şu an görsel analiz özelliği aktif değil. Yine de metin olarak yardımcı olabilirim."
	TextEmptyCompletion    = "Hmm, cevap oluşturamadım. Bir daha dener misin?"
	TextEmptyVision        = "Görseli inceledim ama yorum yapamadım. Tekrar dener misin?"
	TextRateLimited        = "Şu an biraz yoğunum, birkaç saniye sonra tekrar dener misin?"
	TextUnauthorized       = "API bağlantısında bir sıkıntı var gibi. Lütfen yöneticiye haber ver."
	TextNetworkUnreachable = "İnternet bağlantısı yok gibi. Bağlantını kontrol eder misin?"
	TextTimeout            = "Cevap çok uzun sürdü. Birazdan tekrar dener misin?"
	TextCanceled           = "İstek iptal edildi."
	TextUnclassified       = "Beklenmedik bir hata oluştu. Tekrar deneyebilir misin?"
	TextUnclassifiedVision = "Görsel işlenirken bir sorun çıktı. Normal mesaj olarak devam edebiliriz."
)

// StatusCode extracts the HTTP status carried by an SDK error, or 0.
func StatusCode(err error) int {
	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return openaiErr.StatusCode
	}
	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return anthropicErr.StatusCode
	}
	var ollamaErr api.StatusError
	if errors.As(err, &ollamaErr) {
		return ollamaErr.StatusCode
	}
	return 0
}

// Classify maps a backend error to a reply kind. Cancellation and deadline
// checks come first because SDKs wrap them inside their own error types.
func Classify(err error) model.ReplyKind {
	switch {
	case err == nil:
		return model.ReplyOK
	case errors.Is(err, context.Canceled):
		return model.ReplyCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return model.ReplyTimeout
	}

	switch code := StatusCode(err); {
	case code == http.StatusTooManyRequests:
		return model.ReplyRateLimited
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return model.ReplyUnauthorized
	case code == http.StatusGatewayTimeout || code == http.StatusRequestTimeout:
		return model.ReplyTimeout
	case code != 0:
		return model.ReplyUnclassified
	}

	if isNetworkUnreachable(err) {
		return model.ReplyNetworkUnreachable
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.ReplyTimeout
	}

	return model.ReplyUnclassified
}

func isNetworkUnreachable(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" && !opErr.Timeout() {
		return true
	}
	// Some transports flatten the cause into the message.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such host") || strings.Contains(msg, "connection refused")
}

// FallbackText returns the user-facing text for a non-ok reply kind.
func FallbackText(kind model.ReplyKind, vision bool) string {
	switch kind {
	case model.ReplyVisionDisabled:
		return TextVisionDisabled
	case model.ReplyEmptyCompletion:
		if vision {
			return TextEmptyVision
		}
		return TextEmptyCompletion
	case model.ReplyRateLimited:
		return TextRateLimited
	case model.ReplyUnauthorized:
		return TextUnauthorized
	case model.ReplyNetworkUnreachable:
		return TextNetworkUnreachable
	case model.ReplyTimeout:
		return TextTimeout
	case model.ReplyCanceled:
		return TextCanceled
	default:
		if vision {
			return TextUnclassifiedVision
		}
		return TextUnclassified
	}
}
