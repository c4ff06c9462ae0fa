package tagger

import (
	"time"

	"github.com/sirupsen/logrus"
)

type TagSetting struct {
	Logger      *logrus.Logger
	HTTPTimeout time.Duration
}

var globalSetting TagSetting

func Init(setting *TagSetting) {
	globalSetting = *setting
	if globalSetting.HTTPTimeout == 0 {
		globalSetting.HTTPTimeout = 30 * time.Second
	}
}

func NewCustomTagger(modelDir string) *CustomTagger {
	return newCustomTagger(&globalSetting, modelDir)
}

func NewRemoteTagger(engine Engine, baseURL string, maxChars int) *RemoteTagger {
	return newRemoteTagger(&globalSetting, engine, baseURL, maxChars)
}

func NewDualEngineExtractor(custom, person Capability) *DualEngineExtractor {
	return newDualEngineExtractor(&globalSetting, custom, person)
}
