package utils

import "unicode/utf8"

// Chunk is a piece of a longer text; Offset is the byte offset of Text inside the source.
type Chunk struct {
	Offset int
	Text   string
}

/*
TextChunker 将长文本切成长度不超过 maxLen 个字符的片段，尽量在分隔符之后切分。

分隔符按优先级降序排列；只有当切分后片段长度不小于 minLen 时才会在该分隔符处切分，
否则直接在 maxLen 处切分。
*/
type TextChunker struct {
	separators []rune
	priority   map[rune]int
	minLen     int
	maxLen     int
}

func NewTextChunker(separators []rune, minLen, maxLen int) *TextChunker {
	if minLen < 1 {
		minLen = 1
	}
	if maxLen < minLen {
		maxLen = minLen
	}

	priority := make(map[rune]int, len(separators))
	for i, sep := range separators {
		if _, ok := priority[sep]; !ok {
			priority[sep] = i
		}
	}

	return &TextChunker{
		separators: separators,
		priority:   priority,
		minLen:     minLen,
		maxLen:     maxLen,
	}
}

func (c *TextChunker) Chunk(text string) []Chunk {
	if utf8.RuneCountInString(text) <= c.maxLen {
		return []Chunk{{Offset: 0, Text: text}}
	}

	// 每个分隔符最近一次出现之后的位置
	lastSepByte := make([]int, len(c.separators))
	lastSepCnt := make([]int, len(c.separators))
	for i := range c.separators {
		lastSepByte[i] = -1
		lastSepCnt[i] = -1
	}

	var ret []Chunk
	startByte, startCnt := 0, 0

	cnt := 0
	for index, ch := range text {
		if cnt-startCnt >= c.maxLen {
			cutByte, cutCnt := index, cnt
			for i := range c.separators {
				if lastSepCnt[i] >= startCnt+c.minLen {
					cutByte, cutCnt = lastSepByte[i], lastSepCnt[i]
					break
				}
			}

			ret = append(ret, Chunk{Offset: startByte, Text: text[startByte:cutByte]})
			startByte, startCnt = cutByte, cutCnt
		}

		if p, ok := c.priority[ch]; ok {
			_, width := utf8.DecodeRuneInString(text[index:])
			lastSepByte[p] = index + width
			lastSepCnt[p] = cnt + 1
		}
		cnt++
	}

	return append(ret, Chunk{Offset: startByte, Text: text[startByte:]})
}
