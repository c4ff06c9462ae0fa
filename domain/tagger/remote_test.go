package tagger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var personNames = map[string]struct{}{"José": {}, "Álvarez": {}, "Meera": {}, "Nair": {}}

// newPersonSidecar tags known names with BIO tags and character offsets.
func newPersonSidecar(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		var req predictRequest
		assert.Nil(t, json.NewDecoder(r.Body).Decode(&req))

		var resp predictResponse
		inName := false
		for i, tok := range (wordTokenizer{}).Tokenize(req.Text) {
			entity := "O"
			if _, ok := personNames[tok.Text]; ok {
				entity = "B-PER"
				if inName {
					entity = "I-PER"
				}
				inName = true
			} else {
				inName = false
			}
			resp.Tokens = append(resp.Tokens, predictToken{
				Index:  i + 1,
				Word:   tok.Text,
				Entity: entity,
				Start:  utf8.RuneCountInString(req.Text[:tok.Start]),
				End:    utf8.RuneCountInString(req.Text[:tok.End]),
				Score:  0.99,
			})
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRemoteTagger_Predict(t *testing.T) {
	server := newPersonSidecar(t)
	tagger := newRemoteTagger(testSetting(t), EnginePerson, server.URL, 400)
	ctx := context.Background()

	_, err := tagger.Predict(ctx, certificate)
	var loadErr *errs.ModelLoadError
	require.True(t, errors.As(err, &loadErr))

	require.Nil(t, tagger.Load(ctx))

	text := "José Álvarez won Gold in Fútbol."
	spans, err := tagger.Predict(ctx, text)
	require.Nil(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, "José Álvarez", text[spans[0].Start:spans[0].End])
	assert.Equal(t, "PER", spans[0].Label)
	assert.Equal(t, EnginePerson, spans[0].Engine)
}

func TestRemoteTagger_ChunksLongText(t *testing.T) {
	server := newPersonSidecar(t)
	tagger := newRemoteTagger(testSetting(t), EnginePerson, server.URL, 40)
	ctx := context.Background()
	require.Nil(t, tagger.Load(ctx))

	text := strings.Repeat(certificate+" ", 3)
	spans, err := tagger.Predict(ctx, text)
	require.Nil(t, err)

	require.Len(t, spans, 3)
	for _, span := range spans {
		assert.Equal(t, "Meera Nair", text[span.Start:span.End])
	}
}

func TestRemoteTagger_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	tagger := newRemoteTagger(testSetting(t), EnginePerson, server.URL, 0)
	err := tagger.Load(context.Background())

	var loadErr *errs.ModelLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, string(EnginePerson), loadErr.Engine)
}

func TestDecodeTokens_BareList(t *testing.T) {
	tokens, err := decodeTokens([]byte(`[{"entity_group": "PER", "word": "Ravi Kumar", "start": 0, "end": 10, "score": 0.98}]`))
	require.Nil(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "PER", tokens[0].tag())
}

func TestCoalesce(t *testing.T) {
	tok := func(index int, entity string, start, end int) predictToken {
		return predictToken{Index: index, Entity: entity, Start: start, End: end}
	}

	cases := []struct {
		name   string
		tokens []predictToken
		expect []charSpan
	}{
		{
			name:   "continuation then outside",
			tokens: []predictToken{tok(1, "B-PER", 0, 4), tok(2, "I-PER", 5, 10), tok(3, "O", 11, 14), tok(4, "B-PER", 15, 20)},
			expect: []charSpan{{0, 10, "PER"}, {15, 20, "PER"}},
		},
		{
			name: "five adjacent tokens",
			tokens: []predictToken{
				tok(0, "B-PER", 0, 5), tok(1, "I-PER", 6, 10), tok(2, "I-PER", 11, 16),
				tok(3, "O", 17, 20), tok(4, "B-PER", 21, 26),
			},
			expect: []charSpan{{0, 16, "PER"}, {21, 26, "PER"}},
		},
		{
			name:   "index gap",
			tokens: []predictToken{tok(1, "B-PER", 0, 4), tok(3, "I-PER", 9, 12)},
			expect: []charSpan{{0, 4, "PER"}, {9, 12, "PER"}},
		},
		{
			name:   "stray inside tag",
			tokens: []predictToken{tok(1, "I-PER", 0, 4), tok(2, "I-PER", 5, 10)},
			expect: []charSpan{{0, 10, "PER"}},
		},
		{
			name:   "new begin",
			tokens: []predictToken{tok(1, "B-PER", 0, 4), tok(2, "B-PER", 5, 10)},
			expect: []charSpan{{0, 4, "PER"}, {5, 10, "PER"}},
		},
		{
			name:   "label change",
			tokens: []predictToken{tok(1, "B-PER", 0, 4), tok(2, "I-ORG", 5, 10)},
			expect: []charSpan{{0, 4, "PER"}, {5, 10, "ORG"}},
		},
		{
			name:   "plain labels",
			tokens: []predictToken{{Entity: "PER", Start: 0, End: 10}, {EntityGroup: "PER", Start: 11, End: 15}},
			expect: []charSpan{{0, 10, "PER"}, {11, 15, "PER"}},
		},
	}

	for _, c := range cases {
		assert.Equal(t, c.expect, coalesce(c.tokens), c.name)
	}
}
