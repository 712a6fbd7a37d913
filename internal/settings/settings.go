// Package settings sistem genelindeki anahtar/değer ayarlarını yönetir.
package settings

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	KeyDefaultDeliveryTime    = "default_delivery_time"
	KeyOrderCutoffTime        = "order_cutoff_time"
	KeyCurrency               = "currency"
	KeyTimezone               = "timezone"
	KeyAccessTokenMinutes     = "access_token_minutes"
	KeyMinPasswordLength      = "min_password_length"
	KeyStrongPasswordRequired = "strong_password_required"
)

// keys: Kayıt, karşılaştırma ve audit sırası
var keys = []string{
	KeyDefaultDeliveryTime,
	KeyOrderCutoffTime,
	KeyCurrency,
	KeyTimezone,
	KeyAccessTokenMinutes,
	KeyMinPasswordLength,
	KeyStrongPasswordRequired,
}

// Settings: Varsayılanlarla birleştirilmiş güncel ayarlar
type Settings struct {
	DefaultDeliveryTime    string `json:"default_delivery_time"`
	OrderCutoffTime        string `json:"order_cutoff_time"`
	Currency               string `json:"currency"`
	Timezone               string `json:"timezone"`
	AccessTokenMinutes     int    `json:"access_token_minutes"`
	MinPasswordLength      int    `json:"min_password_length"`
	StrongPasswordRequired bool   `json:"strong_password_required"`
}

func Defaults() Settings {
	return Settings{
		DefaultDeliveryTime:    "07:00",
		OrderCutoffTime:        "23:30",
		Currency:               "TRY",
		Timezone:               "Europe/Istanbul",
		AccessTokenMinutes:     15,
		MinPasswordLength:      6,
		StrongPasswordRequired: false,
	}
}

// apply: Veritabanındaki string değeri ilgili alana yazar.
// Bilinmeyen anahtarlar ve çözümlenemeyen sayılar yok sayılır, varsayılan kalır.
func (s *Settings) apply(key, value string) {
	switch key {
	case KeyDefaultDeliveryTime:
		s.DefaultDeliveryTime = value
	case KeyOrderCutoffTime:
		s.OrderCutoffTime = value
	case KeyCurrency:
		s.Currency = value
	case KeyTimezone:
		s.Timezone = value
	case KeyAccessTokenMinutes:
		if n, err := strconv.Atoi(value); err == nil {
			s.AccessTokenMinutes = n
		}
	case KeyMinPasswordLength:
		if n, err := strconv.Atoi(value); err == nil {
			s.MinPasswordLength = n
		}
	case KeyStrongPasswordRequired:
		s.StrongPasswordRequired = strings.EqualFold(value, "true")
	}
}

// values: Veritabanına yazılacak string karşılıklar
func (s Settings) values() map[string]string {
	return map[string]string{
		KeyDefaultDeliveryTime:    s.DefaultDeliveryTime,
		KeyOrderCutoffTime:        s.OrderCutoffTime,
		KeyCurrency:               s.Currency,
		KeyTimezone:               s.Timezone,
		KeyAccessTokenMinutes:     strconv.Itoa(s.AccessTokenMinutes),
		KeyMinPasswordLength:      strconv.Itoa(s.MinPasswordLength),
		KeyStrongPasswordRequired: strconv.FormatBool(s.StrongPasswordRequired),
	}
}

// Merge: Kayıtlı değerleri varsayılanların üzerine uygular
func Merge(stored map[string]string) Settings {
	s := Defaults()
	for k, v := range stored {
		s.apply(k, v)
	}
	return s
}

// UpdateInput: Sadece gönderilen alanlar değiştirilir
type UpdateInput struct {
	DefaultDeliveryTime    *string `json:"default_delivery_time"`
	OrderCutoffTime        *string `json:"order_cutoff_time"`
	Currency               *string `json:"currency"`
	Timezone               *string `json:"timezone"`
	AccessTokenMinutes     *int    `json:"access_token_minutes"`
	MinPasswordLength      *int    `json:"min_password_length"`
	StrongPasswordRequired *bool   `json:"strong_password_required"`
}

func (in UpdateInput) empty() bool {
	return in.DefaultDeliveryTime == nil && in.OrderCutoffTime == nil && in.Currency == nil &&
		in.Timezone == nil && in.AccessTokenMinutes == nil && in.MinPasswordLength == nil &&
		in.StrongPasswordRequired == nil
}

// applyTo: Doğrulanmış girdiyi mevcut ayarların kopyasına uygular
func (in UpdateInput) applyTo(cur Settings) (Settings, error) {
	next := cur

	if in.DefaultDeliveryTime != nil {
		v, err := clockValue("default_delivery_time", *in.DefaultDeliveryTime)
		if err != nil {
			return cur, err
		}
		next.DefaultDeliveryTime = v
	}
	if in.OrderCutoffTime != nil {
		v, err := clockValue("order_cutoff_time", *in.OrderCutoffTime)
		if err != nil {
			return cur, err
		}
		next.OrderCutoffTime = v
	}
	if in.Currency != nil {
		v := strings.ToUpper(strings.TrimSpace(*in.Currency))
		if n := len(v); n < 3 || n > 8 {
			return cur, fmt.Errorf("currency 3-8 karakter olmalı")
		}
		next.Currency = v
	}
	if in.Timezone != nil {
		v := strings.TrimSpace(*in.Timezone)
		if _, err := time.LoadLocation(v); err != nil || len(v) < 3 || len(v) > 64 {
			return cur, fmt.Errorf("geçersiz timezone: %s", v)
		}
		next.Timezone = v
	}
	if in.AccessTokenMinutes != nil {
		if n := *in.AccessTokenMinutes; n < 5 || n > 1440 {
			return cur, fmt.Errorf("access_token_minutes 5-1440 arasında olmalı")
		}
		next.AccessTokenMinutes = *in.AccessTokenMinutes
	}
	if in.MinPasswordLength != nil {
		if n := *in.MinPasswordLength; n < 6 || n > 32 {
			return cur, fmt.Errorf("min_password_length 6-32 arasında olmalı")
		}
		next.MinPasswordLength = *in.MinPasswordLength
	}
	if in.StrongPasswordRequired != nil {
		next.StrongPasswordRequired = *in.StrongPasswordRequired
	}
	return next, nil
}

func clockValue(field, v string) (string, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(v))
	if err != nil {
		return "", fmt.Errorf("%s 'SS:DD' formatında olmalı", field)
	}
	return t.Format("15:04"), nil
}

// Change: Tek bir ayarın önceki ve yeni değeri
type Change struct {
	Key    string `json:"key"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// diff: Sabit anahtar sırasıyla değişen alanlar
func diff(cur, next Settings) []Change {
	before, after := cur.values(), next.values()
	var changes []Change
	for _, k := range keys {
		if before[k] != after[k] {
			changes = append(changes, Change{Key: k, Before: before[k], After: after[k]})
		}
	}
	return changes
}

// CheckPassword: Uzunluk ve (açıksa) harf + rakam kuralı
func (s Settings) CheckPassword(password string) error {
	if len([]rune(password)) < s.MinPasswordLength {
		return fmt.Errorf("şifre en az %d karakter olmalı", s.MinPasswordLength)
	}
	if !s.StrongPasswordRequired {
		return nil
	}

	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return fmt.Errorf("şifre en az bir harf ve bir rakam içermeli")
	}
	return nil
}
