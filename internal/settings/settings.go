// Package settings holds the small persisted configuration region: company
// identity, the assembly weight budget, and the outbound message templates.
// Values are read synchronously at the point of use with defaults merged
// over missing keys.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/felipi-hub/boxship-sistema/pkg/domain"
)

// DefaultMaxWeight is the weight budget applied when no value is configured.
const DefaultMaxWeight = 25.0

// Settings is the persisted configuration blob.
type Settings struct {
	CompanyName  string            `json:"companyName"`
	CompanyPhone string            `json:"companyPhone"`
	MaxWeight    float64           `json:"maxWeight"`
	Templates    map[string]string `json:"templates"`
}

// Template returns the message template for the given event, falling back
// to the built-in default when the key is absent.
func (s Settings) Template(event domain.NotificationType) string {
	if t, ok := s.Templates[string(event)]; ok && t != "" {
		return t
	}
	return defaultTemplates[string(event)]
}

var defaultTemplates = map[string]string{
	string(domain.NotifyProductReceived): `✅ *Produto Recebido!*

Olá, {cliente}!

Recebemos seu produto:
📦 {produto}
⚖️ Peso: {peso}kg

Assim que sua caixa estiver pronta para envio, você será notificado.

Obrigado! 😊
_{empresa}_`,

	string(domain.NotifyBoxReady): `📦 *Sua Caixa Está Pronta!*

Olá, {cliente}!

Sua caixa *{caixa}* está pronta para envio!

📊 *Detalhes:*
• Produtos: {qtd_produtos} item(s)
• Peso total: {peso}kg

Aguardando confirmação para envio.

_{empresa}_`,

	string(domain.NotifyBoxShipped): `🚚 *Caixa Enviada!*

Olá, {cliente}!

Sua caixa *{caixa}* foi enviada!

📦 *Informações do Envio:*
• Transportadora: {transportadora}
• Rastreio: {rastreio}

🔗 Rastreie: {link_rastreio}

_{empresa}_`,

	string(domain.NotifyBoxDelivered): `✅ *Entrega Confirmada!*

Olá, {cliente}!

Sua caixa *{caixa}* foi entregue com sucesso!

Obrigado pela preferência! 💚

_{empresa}_`,
}

// Defaults returns the configuration used when nothing has been persisted.
func Defaults() Settings {
	templates := make(map[string]string, len(defaultTemplates))
	for k, v := range defaultTemplates {
		templates[k] = v
	}
	return Settings{
		CompanyName: "Minha Empresa",
		MaxWeight:   DefaultMaxWeight,
		Templates:   templates,
	}
}

func merge(s Settings) Settings {
	def := Defaults()
	if s.CompanyName == "" {
		s.CompanyName = def.CompanyName
	}
	if s.MaxWeight <= 0 {
		s.MaxWeight = def.MaxWeight
	}
	if s.Templates == nil {
		s.Templates = make(map[string]string, len(def.Templates))
	}
	for k, v := range def.Templates {
		if s.Templates[k] == "" {
			s.Templates[k] = v
		}
	}
	return s
}

// Store reads and writes the configuration file.
type Store struct {
	mu   sync.Mutex
	path string
}

// Open selects the configuration file location.
//
//	BOXSHIP_SETTINGS_PATH: path to the settings file (default ./boxship_settings.json)
func Open() *Store {
	path := os.Getenv("BOXSHIP_SETTINGS_PATH")
	if path == "" {
		path = "boxship_settings.json"
	}
	return NewStore(path)
}

// NewStore constructs a settings store against the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted settings, merging defaults over missing keys.
// A missing file yields the defaults.
func (s *Store) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	var loaded Settings
	if err := json.Unmarshal(data, &loaded); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return merge(loaded), nil
}

// Save persists the settings blob.
func (s *Store) Save(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.MarshalIndent(merge(settings), "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Path returns the configured settings file location.
func (s *Store) Path() string { return s.path }
