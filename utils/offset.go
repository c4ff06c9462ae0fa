package utils

import "unicode/utf8"

/*
RuneIndex 将文本的字符（code point）下标映射为 UTF-8 字节下标。

标注工具与 Python 侧模型给出的都是字符下标，Go 侧切片使用字节下标。
*/
type RuneIndex struct {
	byteOffsets []int // byteOffsets[i] 为第 i 个字符的起始字节，最后一项为 len(text)
}

func NewRuneIndex(text string) *RuneIndex {
	offsets := make([]int, 0, utf8.RuneCountInString(text)+1)
	for index := range text {
		offsets = append(offsets, index)
	}
	offsets = append(offsets, len(text))

	return &RuneIndex{byteOffsets: offsets}
}

// Len returns the number of characters in the text.
func (r *RuneIndex) Len() int {
	return len(r.byteOffsets) - 1
}

// ToByte converts a character offset in [0, Len()] to a byte offset.
func (r *RuneIndex) ToByte(runeOffset int) (int, bool) {
	if runeOffset < 0 || runeOffset > r.Len() {
		return 0, false
	}
	return r.byteOffsets[runeOffset], true
}
