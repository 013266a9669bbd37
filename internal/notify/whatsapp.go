package notify

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/felipi-hub/boxship-sistema/internal/settings"
	"github.com/felipi-hub/boxship-sistema/pkg/domain"
)

// Carrier tracking pages keyed by the carrier name recorded on shipment.
var trackingLinks = map[string]string{
	"correios": "https://www.linkcorreios.com.br/?id=%s",
	"jadlog":   "https://www.jadlog.com.br/siteInstitucional/tracking.jad?cte=%s",
	"fedex":    "https://www.fedex.com/fedextrack/?trknbr=%s",
	"dhl":      "https://www.dhl.com/br-pt/home/tracking.html?tracking-id=%s",
}

// TrackingLink returns the carrier tracking page for a tracking code, or
// empty when the carrier has no known page.
func TrackingLink(carrier, tracking string) string {
	pattern, ok := trackingLinks[strings.ToLower(carrier)]
	if !ok {
		return ""
	}
	return fmt.Sprintf(pattern, tracking)
}

// FormatPhone normalizes a phone number for wa.me links: non-digits are
// stripped and bare 10/11 digit national numbers get the 55 country prefix.
func FormatPhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if len(cleaned) == 10 || len(cleaned) == 11 {
		cleaned = "55" + cleaned
	}
	return cleaned
}

// ComposeLink builds the wa.me deep link carrying the rendered message.
func ComposeLink(phone, message string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", FormatPhone(phone), url.QueryEscape(message))
}

// HandOff delivers a composed link to the user-facing surface, e.g. by
// opening a browser or printing it for the operator.
type HandOff func(ctx context.Context, link string) error

// WhatsApp renders templates from the settings region, hands the composed
// wa.me link off, and appends a row to the notification log.
type WhatsApp struct {
	settings *settings.Store
	store    domain.PersistentStore
	handOff  HandOff
	nowFn    func() time.Time
}

var _ Notifier = (*WhatsApp)(nil)

// NewWhatsApp constructs the notifier. A nil handOff discards links after
// logging, which keeps notification history intact in headless runs.
func NewWhatsApp(cfg *settings.Store, store domain.PersistentStore, handOff HandOff) *WhatsApp {
	return &WhatsApp{
		settings: cfg,
		store:    store,
		handOff:  handOff,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}

// Notify implements Notifier.
func (w *WhatsApp) Notify(ctx context.Context, event Event) error {
	cfg, err := w.settings.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	message := w.render(cfg, event)
	if err := w.log(ctx, event, message); err != nil {
		return err
	}
	if w.handOff == nil {
		return nil
	}
	return w.handOff(ctx, ComposeLink(event.Client.Phone, message))
}

func (w *WhatsApp) render(cfg settings.Settings, event Event) string {
	replacements := map[string]string{
		"{cliente}":        event.Client.Name,
		"{empresa}":        cfg.CompanyName,
		"{data}":           w.nowFn().Format("02/01/2006"),
		"{produto}":        "",
		"{peso}":           "",
		"{caixa}":          "",
		"{qtd_produtos}":   "",
		"{transportadora}": event.Carrier,
		"{rastreio}":       event.Tracking,
		"{link_rastreio}":  TrackingLink(event.Carrier, event.Tracking),
	}
	if event.Product != nil {
		replacements["{produto}"] = event.Product.Description
		replacements["{peso}"] = formatWeight(event.Product.Weight)
	}
	if event.Box != nil {
		replacements["{caixa}"] = event.Box.BoxNumber
	}
	if event.ProductsCount > 0 {
		replacements["{qtd_produtos}"] = fmt.Sprintf("%d", event.ProductsCount)
	}
	if event.TotalWeight > 0 {
		replacements["{peso}"] = formatWeight(event.TotalWeight)
	}
	message := cfg.Template(event.Type)
	for key, value := range replacements {
		message = strings.ReplaceAll(message, key, value)
	}
	return message
}

func formatWeight(kg float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", kg), "0"), ".")
}

func (w *WhatsApp) log(ctx context.Context, event Event, message string) error {
	_, err := w.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateNotification(domain.Notification{
			ClientID: event.Client.ID,
			Type:     event.Type,
			Message:  message,
			Date:     w.nowFn(),
		})
		return err
	})
	return err
}
