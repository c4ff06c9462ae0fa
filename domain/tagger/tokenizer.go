package tagger

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/yanyiwu/gojieba"
)

const (
	TokenizerJieba = "jieba"
	TokenizerWord  = "word"
)

// Token is a non-blank piece of text; Start/End are byte offsets.
type Token struct {
	Text  string
	Start int
	End   int
}

type Tokenizer interface {
	Tokenize(text string) []Token
}

func NewTokenizer(name string) (Tokenizer, error) {
	switch name {
	case TokenizerWord, "":
		return wordTokenizer{}, nil
	case TokenizerJieba:
		return sharedJieba(), nil
	default:
		return nil, fmt.Errorf("unknown tokenizer %q", name)
	}
}

// wordTokenizer splits on letter/digit runs; every other non-space rune is a token of its own.
type wordTokenizer struct{}

func (wordTokenizer) Tokenize(text string) []Token {
	var ret []Token

	start := -1
	for index, ch := range text {
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) {
			if start < 0 {
				start = index
			}
			continue
		}

		if start >= 0 {
			ret = append(ret, Token{Text: text[start:index], Start: start, End: index})
			start = -1
		}

		if !unicode.IsSpace(ch) {
			_, width := utf8.DecodeRuneInString(text[index:])
			end := index + width
			ret = append(ret, Token{Text: text[index:end], Start: index, End: end})
		}
	}

	if start >= 0 {
		ret = append(ret, Token{Text: text[start:], Start: start, End: len(text)})
	}

	return ret
}

type jiebaTokenizer struct {
	jieba *gojieba.Jieba
}

var (
	jiebaOnce     sync.Once
	jiebaInstance *jiebaTokenizer
)

// sharedJieba loads the dictionaries once per process.
func sharedJieba() *jiebaTokenizer {
	jiebaOnce.Do(func() {
		jiebaInstance = &jiebaTokenizer{jieba: gojieba.NewJieba()}
	})
	return jiebaInstance
}

func (t *jiebaTokenizer) Tokenize(text string) []Token {
	words := t.jieba.Tokenize(text, gojieba.DefaultMode, true)

	ret := make([]Token, 0, len(words))
	for _, word := range words {
		if len(strings.TrimSpace(word.Str)) == 0 {
			continue
		}
		ret = append(ret, Token{Text: word.Str, Start: word.Start, End: word.End})
	}
	return ret
}
