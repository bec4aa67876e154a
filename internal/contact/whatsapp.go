// Package contact builds the WhatsApp deep links shown next to products.
package contact

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"storefront-service/internal/store"
)

// DefaultPhone is used when no contact phone is configured anywhere.
const DefaultPhone = "5491123365608"

const (
	whatsAppBaseURL = "https://wa.me/"
	inquiryPrefix   = "Hola, solicito más información acerca del producto "
)

// Linker resolves the storefront contact phone and builds links to it.
type Linker struct {
	settings     store.SettingsStorer
	defaultPhone string
}

// NewLinker creates a Linker. defaultPhone answers when settings have no phone or cannot be read.
func NewLinker(settings store.SettingsStorer, defaultPhone string) *Linker {
	if digitsOnly(defaultPhone) == "" {
		defaultPhone = DefaultPhone
	}
	return &Linker{settings: settings, defaultPhone: digitsOnly(defaultPhone)}
}

// Phone returns the contact phone as digits only.
func (l *Linker) Phone(ctx context.Context) string {
	phone, err := l.settings.GetContactPhone(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrSettingsNotFound) {
			zap.L().Warn("Could not read contact phone, using default", zap.Error(err))
		}
		return l.defaultPhone
	}
	if digits := digitsOnly(phone); digits != "" {
		return digits
	}
	return l.defaultPhone
}

// ProductInquiryURL links to a chat asking about productName.
func (l *Linker) ProductInquiryURL(ctx context.Context, productName string) string {
	return BuildWhatsAppURL(l.Phone(ctx), InquiryMessage(productName))
}

// InquiryMessage is the text a product inquiry chat opens with.
func InquiryMessage(productName string) string {
	return inquiryPrefix + productName
}

// BuildWhatsAppURL returns a wa.me link that opens a chat with phone prefilled with message.
func BuildWhatsAppURL(phone, message string) string {
	u := whatsAppBaseURL + digitsOnly(phone)
	if message == "" {
		return u
	}
	// wa.me does not decode "+" as a space.
	return u + "?text=" + strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
