package i18n

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/amoylab/familia/internal/common/cnst"
	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

var (
	translatorMu sync.RWMutex
	translator   *I18n
	supported    = []string{cnst.LangEN, cnst.LangZH}
)

// InitTranslator loads every *.toml file under translationsPath into the global translator
func InitTranslator(translationsPath string) error {
	t := NewI18n(language.English)
	if err := t.LoadTranslations(translationsPath); err != nil {
		return err
	}
	translatorMu.Lock()
	translator = t
	translatorMu.Unlock()
	return nil
}

// GetTranslator returns the global translator, which may be nil before InitTranslator
func GetTranslator() *I18n {
	translatorMu.RLock()
	defer translatorMu.RUnlock()
	return translator
}

// I18n manages internationalization and translations
type I18n struct {
	bundle      *i18n.Bundle
	defaultLang language.Tag
}

// NewI18n creates a new I18n instance with the specified default language
func NewI18n(defaultLang language.Tag) *I18n {
	bundle := i18n.NewBundle(defaultLang)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	return &I18n{bundle: bundle, defaultLang: defaultLang}
}

// LoadTranslations loads translation files from the specified directory
func (i *I18n) LoadTranslations(translationsDir string) error {
	files, err := os.ReadDir(translationsDir)
	if err != nil {
		return fmt.Errorf("failed to read translations directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".toml") {
			continue
		}
		if _, err := i.bundle.LoadMessageFile(filepath.Join(translationsDir, file.Name())); err != nil {
			return fmt.Errorf("failed to load %s: %w", file.Name(), err)
		}
	}
	return nil
}

// Translate returns a localized string for the given message ID and language.
// The message ID itself is returned when no translation exists.
func (i *I18n) Translate(msgID string, lang string, templateData map[string]any) string {
	localizer := i18n.NewLocalizer(i.bundle, language.Make(lang).String(), i.defaultLang.String())

	lc := &i18n.LocalizeConfig{MessageID: msgID}
	if len(templateData) > 0 {
		lc.TemplateData = templateData
	}

	msg, err := localizer.Localize(lc)
	if err != nil {
		return msgID
	}
	return msg
}

// LanguageMiddleware stores the request's preferred language under cnst.XLang
func LanguageMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(cnst.XLang, getLanguageFromRequest(c.Request))
		c.Next()
	}
}

// getLanguageFromRequest reads X-Lang, then Accept-Language
func getLanguageFromRequest(r *http.Request) string {
	if lang := r.Header.Get(cnst.XLang); lang != "" {
		return normalizeLang(lang)
	}

	if accept := r.Header.Get("Accept-Language"); accept != "" {
		first := strings.TrimSpace(strings.Split(strings.Split(accept, ",")[0], ";")[0])
		return normalizeLang(first)
	}

	return cnst.LangDefault
}

func normalizeLang(lang string) string {
	code := strings.ToLower(strings.Split(lang, "-")[0])
	for _, s := range supported {
		if code == s {
			return code
		}
	}
	return cnst.LangDefault
}

func contextLang(c *gin.Context) string {
	if v, ok := c.Get(cnst.XLang); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return cnst.LangDefault
}

// TranslateMessage translates a message ID using the context's language preference
func TranslateMessage(c *gin.Context, msgID string, data map[string]any) string {
	if t := GetTranslator(); t != nil {
		return t.Translate(msgID, contextLang(c), data)
	}
	return msgID
}
