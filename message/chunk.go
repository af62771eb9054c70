package message

import "unicode/utf8"

// Chunk splits text into pieces whose UTF-8 byte length never exceeds
// maxBytes, cutting only on code point boundaries. Concatenating the
// pieces reconstructs the input exactly. maxBytes below the size of the
// largest UTF-8 code point is clamped so progress is always possible.
func Chunk(text string, maxBytes int) []string {
	if text == "" {
		return nil
	}
	if maxBytes < utf8.UTFMax {
		maxBytes = utf8.UTFMax
	}

	var chunks []string
	start := 0
	size := 0
	for i, r := range text {
		runeLen := utf8.RuneLen(r)
		if size+runeLen > maxBytes {
			chunks = append(chunks, text[start:i])
			start = i
			size = 0
		}
		size += runeLen
	}
	chunks = append(chunks, text[start:])

	return chunks
}
