package trainer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
	"gopkg.in/yaml.v3"
)

/*
TrainConfig 一次训练所需的全部路径。

	BaseConfigPath 训练配置模板；
	OutputConfigPath 写出的完整训练配置；
	TrainCorpusPath / TestCorpusPath 语料的两个分区；
	ArtifactDir 本次训练的模型目录，必须是新目录。
*/
type TrainConfig struct {
	RunID            string
	BaseConfigPath   string
	OutputConfigPath string
	TrainCorpusPath  string
	TestCorpusPath   string
	ArtifactDir      string
}

func (c *TrainConfig) check() error {
	fields := map[string]string{
		"base config":   c.BaseConfigPath,
		"output config": c.OutputConfigPath,
		"train corpus":  c.TrainCorpusPath,
		"test corpus":   c.TestCorpusPath,
		"artifact dir":  c.ArtifactDir,
	}
	for name, value := range fields {
		if len(value) == 0 {
			return fmt.Errorf("%s path is empty", name)
		}
	}
	return nil
}

// ResolvedConfig is the template with paths filled in. Keys marshal in sorted order.
type ResolvedConfig map[string]interface{}

// Section returns a nested mapping, nil when missing or not a mapping.
func (c ResolvedConfig) Section(name string) map[string]interface{} {
	section, _ := c[name].(map[string]interface{})
	return section
}

// resolveConfig fills paths.train, paths.dev and paths.output of the template and writes the result.
func resolveConfig(cfg *TrainConfig) (ResolvedConfig, error) {
	data, err := os.ReadFile(cfg.BaseConfigPath)
	if err != nil {
		return nil, utils.WrapErrorf(err, "read base config [%s] fail", cfg.BaseConfigPath)
	}

	resolved := make(ResolvedConfig)
	if err := yaml.Unmarshal(data, &resolved); err != nil {
		return nil, utils.WrapErrorf(err, "parse base config [%s] fail", cfg.BaseConfigPath)
	}

	paths := resolved.Section("paths")
	if paths == nil {
		paths = make(map[string]interface{})
		resolved["paths"] = paths
	}
	paths["train"] = cfg.TrainCorpusPath
	paths["dev"] = cfg.TestCorpusPath
	paths["output"] = cfg.ArtifactDir

	out, err := yaml.Marshal(map[string]interface{}(resolved))
	if err != nil {
		return nil, utils.WrapError(err, "marshal resolved config fail")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.OutputConfigPath), 0o755); err != nil {
		return nil, utils.WrapError(err, "mkdir for resolved config fail")
	}
	if err := os.WriteFile(cfg.OutputConfigPath, out, 0o644); err != nil {
		return nil, utils.WrapErrorf(err, "write resolved config [%s] fail", cfg.OutputConfigPath)
	}

	return resolved, nil
}

func getString(section map[string]interface{}, key, defaultValue string) string {
	if v, ok := section[key].(string); ok && len(v) != 0 {
		return v
	}
	return defaultValue
}

func getInt(section map[string]interface{}, key string, defaultValue int) int {
	if v, ok := section[key].(int); ok {
		return v
	}
	return defaultValue
}

func getBool(section map[string]interface{}, key string, defaultValue bool) bool {
	if v, ok := section[key].(bool); ok {
		return v
	}
	return defaultValue
}
