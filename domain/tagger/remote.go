package tagger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/errs"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
	"github.com/sirupsen/logrus"
)

var chunkSeparators = []rune{'\n', '.', '!', '?', '。', '！', '？', ';', '；', ',', '，', ' '}

type predictRequest struct {
	Text string `json:"text"`
}

type predictResponse struct {
	Tokens []predictToken `json:"tokens"`
}

/*
RemoteTagger 通过 HTTP 调用标注器服务：

	GET  /health  服务与模型就绪时返回 200；
	POST /predict {"text": "..."}，返回逐 token 的 BIO 预测，下标为字符下标。

人名标注器与以远程方式部署的自定义字段标注器都使用该实现。
超过 maxChars 个字符的文本在句子分隔处切分后分别请求。
*/
type RemoteTagger struct {
	engine  Engine
	baseURL string
	client  *http.Client
	chunker *utils.TextChunker
	logger  *logrus.Logger

	lock   sync.RWMutex
	loaded bool
}

func newRemoteTagger(setting *TagSetting, engine Engine, baseURL string, maxChars int) *RemoteTagger {
	var chunker *utils.TextChunker
	if maxChars > 0 {
		chunker = utils.NewTextChunker(chunkSeparators, maxChars/4, maxChars)
	}

	return &RemoteTagger{
		engine:  engine,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: setting.HTTPTimeout},
		chunker: chunker,
		logger:  setting.Logger,
	}
}

func (t *RemoteTagger) Load(ctx context.Context) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.loaded {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/health", nil)
	if err != nil {
		return &errs.ModelLoadError{Engine: string(t.engine), Err: utils.WrapError(err, "build health request fail")}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return &errs.ModelLoadError{Engine: string(t.engine), Err: utils.WrapErrorf(err, "tagger service [%s] unreachable", t.baseURL)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &errs.ModelLoadError{
			Engine: string(t.engine),
			Err:    fmt.Errorf("tagger service [%s] not ready: status %d", t.baseURL, resp.StatusCode),
		}
	}

	t.loaded = true
	if t.logger != nil {
		t.logger.Infof("remote %s tagger ready at [%s]", t.engine, t.baseURL)
	}

	return nil
}

func (t *RemoteTagger) Predict(ctx context.Context, text string) ([]Span, error) {
	t.lock.RLock()
	loaded := t.loaded
	t.lock.RUnlock()

	if !loaded {
		return nil, &errs.ModelLoadError{Engine: string(t.engine), Err: fmt.Errorf("not loaded")}
	}

	chunks := []utils.Chunk{{Offset: 0, Text: text}}
	if t.chunker != nil {
		chunks = t.chunker.Chunk(text)
	}

	var ret []Span
	for _, chunk := range chunks {
		if len(strings.TrimSpace(chunk.Text)) == 0 {
			continue
		}

		tokens, err := t.predictChunk(ctx, chunk.Text)
		if err != nil {
			return nil, utils.WrapErrorf(err, "predict chunk at offset %d fail", chunk.Offset)
		}

		spans, dropped := toByteSpans(chunk, coalesce(tokens), t.engine)
		if dropped != 0 && t.logger != nil {
			t.logger.Warnf("%s tagger returned %d spans outside the text, dropped", t.engine, dropped)
		}
		ret = append(ret, spans...)
	}

	return ret, nil
}

func (t *RemoteTagger) predictChunk(ctx context.Context, text string) ([]predictToken, error) {
	body, err := json.Marshal(predictRequest{Text: text})
	if err != nil {
		return nil, utils.WrapError(err, "marshal request fail")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, utils.WrapError(err, "build request fail")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, utils.WrapError(err, "request fail")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, utils.WrapError(err, "read response fail")
	}

	if resp.StatusCode != http.StatusOK {
		snippet := string(data)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, fmt.Errorf("tagger service returned status %d: %s", resp.StatusCode, snippet)
	}

	return decodeTokens(data)
}

// decodeTokens accepts {"tokens": [...]} or a bare token list.
func decodeTokens(data []byte) ([]predictToken, error) {
	trimmed := bytes.TrimSpace(data)

	if len(trimmed) != 0 && trimmed[0] == '[' {
		var tokens []predictToken
		if err := json.Unmarshal(trimmed, &tokens); err != nil {
			return nil, utils.WrapError(err, "decode token list fail")
		}
		return tokens, nil
	}

	var resp predictResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, utils.WrapError(err, "decode response fail")
	}
	return resp.Tokens, nil
}
