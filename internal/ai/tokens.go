package ai

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

var encoders sync.Map // model -> *tiktoken.Tiktoken (nil, если словарь недоступен)

func encoderFor(model string) *tiktoken.Tiktoken {
	if v, ok := encoders.Load(model); ok {
		enc, _ := v.(*tiktoken.Tiktoken)
		return enc
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// gemini/llama неизвестны tiktoken: считаем словарём GPT-4
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			enc = nil
		}
	}
	encoders.Store(model, enc)
	return enc
}

// EstimateTokens оценивает число токенов текста. Без словаря - примерно 4 символа на токен.
func EstimateTokens(model, text string) int {
	if text == "" {
		return 0
	}
	if enc := encoderFor(model); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return (len([]rune(text)) + 3) / 4
}

func estimatePromptTokens(model string, req Request) int {
	n := EstimateTokens(model, req.System)
	for _, m := range req.Messages {
		n += EstimateTokens(model, m.Content)
	}
	return n
}
