package i18n

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"RapidSafe/pkg/logger"
)

// Message ids of the alert texts sent to emergency contacts.
const (
	MsgDuressAlert = "alert.duress"
	MsgSOSAlert    = "alert.sos"
	MsgAnonSender  = "alert.anonymous_sender"
)

var defaultMessages = map[language.Tag][]*i18n.Message{
	language.English: {
		{ID: MsgDuressAlert, Other: "⚠️ Duress Alert: Emergency! {{.Sender}} needs IMMEDIATE assistance. Track live location here: {{.Link}}"},
		{ID: MsgSOSAlert, Other: "🚨 SOS Alert: {{.Sender}} has manually triggered an emergency alarm. Track live location here: {{.Link}}"},
		{ID: MsgAnonSender, Other: "Your emergency contact"},
	},
	language.Chinese: {
		{ID: MsgDuressAlert, Other: "⚠️ 胁迫警报：{{.Sender}} 需要立即救助！实时位置：{{.Link}}"},
		{ID: MsgSOSAlert, Other: "🚨 SOS 求助：{{.Sender}} 手动触发了紧急警报。实时位置：{{.Link}}"},
		{ID: MsgAnonSender, Other: "您的紧急联系人"},
	},
}

// I18nSupport 国际化支持结构体
type I18nSupport struct {
	bundle      *i18n.Bundle
	defaultLang string
}

// NewI18nSupport 初始化国际化支持。内置中英文文案，localesDir 非空时
// 额外加载其中的 *.json 覆盖内置文案。
func NewI18nSupport(defaultLang, localesDir string) (*I18nSupport, error) {
	tag, err := language.Parse(defaultLang)
	if err != nil {
		tag = language.English
	}
	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	for lang, msgs := range defaultMessages {
		if err := bundle.AddMessages(lang, msgs...); err != nil {
			return nil, err
		}
	}

	if localesDir != "" {
		files, _ := filepath.Glob(filepath.Join(localesDir, "*.json"))
		for _, f := range files {
			if _, err := os.Stat(f); err != nil {
				continue
			}
			if _, err := bundle.LoadMessageFile(f); err != nil {
				// 不返回错误，内置文案仍可用
				logger.Warn("failed to load locale file", zap.String("file", f), zap.Error(err))
			}
		}
	}

	return &I18nSupport{bundle: bundle, defaultLang: tag.String()}, nil
}

// T 获取翻译文本，找不到时返回键名
func (i *I18nSupport) T(languageTag, key string, templateData map[string]interface{}) string {
	localizer := i18n.NewLocalizer(i.bundle, languageTag, i.defaultLang)

	translation, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: templateData,
	})
	if err != nil {
		logger.Warn("translation failed", zap.String("key", key), zap.Error(err))
		return key
	}
	return translation
}

// TWithDefaultLang 使用默认语言获取翻译文本
func (i *I18nSupport) TWithDefaultLang(key string, templateData map[string]interface{}) string {
	return i.T(i.defaultLang, key, templateData)
}
